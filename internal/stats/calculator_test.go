package stats

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/pmdrill/internal/domain"
)

func score(v float64) *float64 { return &v }

func completed(category string, s *float64, date string) *domain.InterviewSession {
	return &domain.InterviewSession{
		ID:             date + "-" + category,
		UserID:         "user-1",
		Category:       domain.Category(category),
		Completed:      true,
		CompositeScore: s,
		Date:           date,
	}
}

func dateSet(days ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(days))
	for _, d := range days {
		set[d] = struct{}{}
	}
	return set
}

func at(day string) time.Time {
	t, err := time.Parse(domain.DateLayout, day)
	if err != nil {
		panic(err)
	}
	return t.Add(12 * time.Hour)
}

func TestAverageScores(t *testing.T) {
	sessions := []*domain.InterviewSession{
		completed("design", score(80), "2024-01-01"),
		completed("design", score(90), "2024-01-02"),
		completed("improvement", nil, "2024-01-03"),
		completed("rca", score(70), "2024-01-03"),
		completed("rca", score(50), "2024-01-04"),
		completed("", score(100), "2024-01-05"),
		// Not normalized at ingestion, so never counted
		completed("RCA", score(10), "2024-01-05"),
	}

	avg := AverageScores(sessions)

	tests := []struct {
		category domain.Category
		want     float64
	}{
		{domain.CategoryDesign, 85},
		{domain.CategoryImprovement, 0},
		{domain.CategoryRCA, 60},
		{domain.CategoryGuesstimate, 0},
	}
	for _, tt := range tests {
		if got := avg[tt.category]; got != tt.want {
			t.Errorf("avg[%s] = %v; want %v", tt.category, got, tt.want)
		}
	}
	if len(avg) != 4 {
		t.Errorf("len(avg) = %d; want 4", len(avg))
	}
}

func TestAverageScores_NoValidation(t *testing.T) {
	sessions := []*domain.InterviewSession{
		completed("guesstimate", score(-10), "2024-01-01"),
		completed("guesstimate", score(250), "2024-01-02"),
	}
	if got := AverageScores(sessions)[domain.CategoryGuesstimate]; got != 120 {
		t.Errorf("avg[guesstimate] = %v; want 120", got)
	}
}

func TestCurrentStreak(t *testing.T) {
	dates := dateSet("2024-03-01", "2024-03-02", "2024-03-03")

	tests := []struct {
		name  string
		today string
		want  int
	}{
		{"activity today", "2024-03-03", 3},
		{"activity yesterday", "2024-03-04", 3},
		{"two day gap", "2024-03-05", 0},
		{"mid run", "2024-03-02", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CurrentStreak(dates, tt.today); got != tt.want {
				t.Errorf("CurrentStreak(today=%s) = %d; want %d", tt.today, got, tt.want)
			}
		})
	}
}

func TestCurrentStreak_AcrossMonthAndYear(t *testing.T) {
	dates := dateSet("2023-12-30", "2023-12-31", "2024-01-01", "2024-02-28", "2024-02-29", "2024-03-01")

	if got := CurrentStreak(dates, "2024-01-01"); got != 3 {
		t.Errorf("CurrentStreak across year = %d; want 3", got)
	}
	if got := CurrentStreak(dates, "2024-03-02"); got != 3 {
		t.Errorf("CurrentStreak across leap day = %d; want 3", got)
	}
}

func TestCurrentStreak_Empty(t *testing.T) {
	if got := CurrentStreak(dateSet(), "2024-03-03"); got != 0 {
		t.Errorf("CurrentStreak(empty) = %d; want 0", got)
	}
}

func TestLongestStreak(t *testing.T) {
	tests := []struct {
		name  string
		dates map[string]struct{}
		want  int
	}{
		{"empty", dateSet(), 0},
		{"single", dateSet("2024-01-01"), 1},
		{"two runs", dateSet("2024-01-01", "2024-01-02", "2024-01-05"), 2},
		{"longest last", dateSet("2024-01-01", "2024-01-03", "2024-01-04", "2024-01-05"), 3},
		{"longest first", dateSet("2024-01-01", "2024-01-02", "2024-01-03", "2024-01-10"), 3},
		{"all gaps", dateSet("2024-01-01", "2024-01-03", "2024-01-05"), 1},
		{"month boundary", dateSet("2024-01-31", "2024-02-01", "2024-02-02"), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LongestStreak(tt.dates); got != tt.want {
				t.Errorf("LongestStreak() = %d; want %d", got, tt.want)
			}
		})
	}
}

func TestCalculator_ActivityDates_CollapsesSameDay(t *testing.T) {
	calc := NewCalculator(time.UTC)
	sessions := []*domain.InterviewSession{
		{Date: "2024-01-01T08:00:00Z"},
		{Date: "2024-01-01T20:00:00Z"},
	}

	dates := calc.ActivityDates(sessions)
	if len(dates) != 1 {
		t.Fatalf("len(dates) = %d; want 1", len(dates))
	}
	if _, ok := dates["2024-01-01"]; !ok {
		t.Error("expected 2024-01-01 in date set")
	}
}

func TestCalculator_ActivityDates_FallbackAndSkip(t *testing.T) {
	calc := NewCalculator(time.UTC)
	sessions := []*domain.InterviewSession{
		{CreatedDate: "2024-01-02T09:00:00Z"},
		{Date: "2024-01-03", CreatedDate: "2023-12-01T00:00:00Z"},
		{Date: "not a date"},
		{},
		nil,
	}

	dates := calc.ActivityDates(sessions)
	if len(dates) != 2 {
		t.Fatalf("len(dates) = %d; want 2 (%v)", len(dates), dates)
	}
	if _, ok := dates["2023-12-01"]; ok {
		t.Error("created_date must not be used when date is present")
	}
}

func TestCalculator_Compute(t *testing.T) {
	calc := NewCalculator(time.UTC)
	sessions := []*domain.InterviewSession{
		completed("design", score(80), "2024-03-01T10:00:00Z"),
		completed("design", score(90), "2024-03-02"),
		completed("rca", nil, "2024-03-03T23:59:00Z"),
		completed("guesstimate", score(40), "garbage"),
	}

	got := calc.Compute("user-1", sessions, at("2024-03-04"))

	if got.UserID != "user-1" {
		t.Errorf("UserID = %q; want user-1", got.UserID)
	}
	if got.TotalSolved != 4 {
		t.Errorf("TotalSolved = %d; want 4", got.TotalSolved)
	}
	if got.CurrentStreak != 3 {
		t.Errorf("CurrentStreak = %d; want 3", got.CurrentStreak)
	}
	if got.LongestStreak != 3 {
		t.Errorf("LongestStreak = %d; want 3", got.LongestStreak)
	}
	if got.LastActivityDate != "2024-03-04" {
		t.Errorf("LastActivityDate = %q; want 2024-03-04", got.LastActivityDate)
	}
	if got.AvgScore(domain.CategoryDesign) != 85 {
		t.Errorf("avg design = %v; want 85", got.AvgScore(domain.CategoryDesign))
	}
	if got.AvgScore(domain.CategoryGuesstimate) != 40 {
		t.Errorf("avg guesstimate = %v; want 40 (undated sessions still averaged)", got.AvgScore(domain.CategoryGuesstimate))
	}
	if v, ok := got.AvgScores[domain.CategoryRCA]; !ok || v != 0 {
		t.Errorf("avg rca = %v, %v; want 0, true", v, ok)
	}
}

func TestCalculator_Compute_TodayUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	calc := NewCalculator(loc)

	// 02:00 UTC on March 4th is still March 3rd at UTC-5
	now := time.Date(2024, 3, 4, 2, 0, 0, 0, time.UTC)
	got := calc.Compute("user-1", []*domain.InterviewSession{completed("rca", score(1), "2024-03-03")}, now)

	if got.LastActivityDate != "2024-03-03" {
		t.Errorf("LastActivityDate = %q; want 2024-03-03", got.LastActivityDate)
	}
	if got.CurrentStreak != 1 {
		t.Errorf("CurrentStreak = %d; want 1", got.CurrentStreak)
	}
}

func TestCalculator_Compute_Idempotent(t *testing.T) {
	calc := NewCalculator(time.UTC)
	sessions := []*domain.InterviewSession{
		completed("design", score(80), "2024-03-01"),
		completed("improvement", score(60), "2024-03-02"),
	}
	now := at("2024-03-02")

	first := calc.Compute("user-1", sessions, now)
	second := calc.Compute("user-1", sessions, now)

	if first.CurrentStreak != second.CurrentStreak ||
		first.LongestStreak != second.LongestStreak ||
		first.TotalSolved != second.TotalSolved ||
		first.LastActivityDate != second.LastActivityDate {
		t.Errorf("Compute() not idempotent: %+v vs %+v", first, second)
	}
	for _, c := range domain.Categories() {
		if first.AvgScores[c] != second.AvgScores[c] {
			t.Errorf("avg[%s] differs: %v vs %v", c, first.AvgScores[c], second.AvgScores[c])
		}
	}
}
