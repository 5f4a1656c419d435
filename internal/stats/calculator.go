package stats

import (
	"sort"
	"time"

	"github.com/felixgeelhaar/pmdrill/internal/domain"
)

// Calculator derives UserStats from a user's completed sessions.
// It is pure: the same sessions and clock reading always give the same record.
type Calculator struct {
	loc *time.Location
}

// NewCalculator creates a calculator that buckets days in loc (UTC when nil).
func NewCalculator(loc *time.Location) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return &Calculator{loc: loc}
}

// Location returns the timezone used for "today" and date parsing.
func (c *Calculator) Location() *time.Location {
	return c.loc
}

// Compute builds the full stats record for userID as of now.
func (c *Calculator) Compute(userID string, sessions []*domain.InterviewSession, now time.Time) *domain.UserStats {
	today := dayOf(now, c.loc)
	dates := c.ActivityDates(sessions)

	record := domain.NewUserStats(userID)
	record.CurrentStreak = CurrentStreak(dates, today)
	record.LongestStreak = LongestStreak(dates)
	record.TotalSolved = len(sessions)
	record.LastActivityDate = today
	for category, avg := range AverageScores(sessions) {
		record.AvgScores[category] = avg
	}
	return record
}

// ActivityDates collapses sessions into their set of distinct calendar days.
// Sessions without a usable date are left out.
func (c *Calculator) ActivityDates(sessions []*domain.InterviewSession) map[string]struct{} {
	dates := make(map[string]struct{}, len(sessions))
	for _, sess := range sessions {
		if sess == nil {
			continue
		}
		if day, ok := ActivityDay(sess.ActivityDate(), c.loc); ok {
			dates[day] = struct{}{}
		}
	}
	return dates
}

// AverageScores returns the mean composite score per category. Categories
// without a scored session get 0.
func AverageScores(sessions []*domain.InterviewSession) map[domain.Category]float64 {
	sums := make(map[domain.Category]float64)
	counts := make(map[domain.Category]int)
	for _, sess := range sessions {
		if sess == nil || sess.CompositeScore == nil {
			continue
		}
		// Stores normalize the category on read; anything else is unknown.
		if !sess.Category.Valid() {
			continue
		}
		sums[sess.Category] += *sess.CompositeScore
		counts[sess.Category]++
	}

	avg := make(map[domain.Category]float64, len(domain.Categories()))
	for _, category := range domain.Categories() {
		if n := counts[category]; n > 0 {
			avg[category] = sums[category] / float64(n)
		} else {
			avg[category] = 0
		}
	}
	return avg
}

// CurrentStreak counts consecutive active days ending today, or ending
// yesterday when there is no activity yet today.
func CurrentStreak(dates map[string]struct{}, today string) int {
	day, ok := civil(today)
	if !ok {
		return 0
	}
	if _, active := dates[today]; !active {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for {
		if _, active := dates[day.Format(domain.DateLayout)]; !active {
			return streak
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
}

// LongestStreak returns the longest run of consecutive days in dates.
func LongestStreak(dates map[string]struct{}) int {
	if len(dates) == 0 {
		return 0
	}

	// Lexicographic order of YYYY-MM-DD is chronological order.
	sorted := make([]string, 0, len(dates))
	for day := range dates {
		sorted = append(sorted, day)
	}
	sort.Strings(sorted)

	longest, run := 0, 1
	prev, _ := civil(sorted[0])
	for _, day := range sorted[1:] {
		cur, _ := civil(day)
		if cur.Sub(prev) == 24*time.Hour {
			run++
		} else {
			longest = max(longest, run)
			run = 1
		}
		prev = cur
	}
	return max(longest, run)
}
