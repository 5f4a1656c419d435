package stats

import (
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/pmdrill/internal/domain"
)

// fallbackLayouts are tried, in order, for values that are neither an
// ISO timestamp nor a plain calendar day.
var fallbackLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123,
	time.RFC1123Z,
	time.RFC822,
	time.RFC822Z,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"01-02-2006",
	"Mon Jan 02 2006",
	"Mon Jan 2 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// ActivityDay normalizes a stored session date into a YYYY-MM-DD calendar
// day. Values that cannot be interpreted return ok=false.
func ActivityDay(raw string, loc *time.Location) (string, bool) {
	if raw == "" {
		return "", false
	}
	if loc == nil {
		loc = time.UTC
	}

	// ISO timestamps are bucketed by their literal date prefix.
	if idx := strings.IndexByte(raw, 'T'); idx > 0 {
		if day := raw[:idx]; isDay(day) {
			return day, true
		}
	}

	if len(raw) == len(domain.DateLayout) && strings.Contains(raw, "-") && isDay(raw) {
		return raw, true
	}

	trimmed := strings.TrimSpace(raw)
	for _, layout := range fallbackLayouts {
		t, err := time.ParseInLocation(layout, trimmed, loc)
		if err == nil {
			return t.In(loc).Format(domain.DateLayout), true
		}
	}

	if t, ok := parseEpoch(trimmed); ok {
		return t.In(loc).Format(domain.DateLayout), true
	}

	return "", false
}

func isDay(s string) bool {
	_, err := time.Parse(domain.DateLayout, s)
	return err == nil
}

// parseEpoch accepts unix seconds, or milliseconds when the value is too
// large to be a plausible seconds timestamp.
func parseEpoch(s string) (time.Time, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}, false
	}
	if n >= 1e11 {
		return time.UnixMilli(n), true
	}
	return time.Unix(n, 0), true
}

// dayOf returns the calendar day of t in loc.
func dayOf(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(domain.DateLayout)
}

// civil parses a YYYY-MM-DD day as UTC midnight so day arithmetic never
// crosses a DST transition.
func civil(day string) (time.Time, bool) {
	t, err := time.Parse(domain.DateLayout, day)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
