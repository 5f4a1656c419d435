package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used for activity dates.
const DateLayout = "2006-01-02"

// UserStats is the derived statistics record kept per user.
type UserStats struct {
	ID               string
	UserID           string
	CurrentStreak    int
	LongestStreak    int
	TotalSolved      int
	LastActivityDate string
	AvgScores        map[Category]float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewUserStats returns an empty record with every category average set to zero.
func NewUserStats(userID string) *UserStats {
	avg := make(map[Category]float64, len(categories))
	for _, c := range categories {
		avg[c] = 0
	}
	return &UserStats{UserID: userID, AvgScores: avg}
}

// AvgScore returns the average for c, zero when absent.
func (s *UserStats) AvgScore(c Category) float64 {
	return s.AvgScores[c]
}

// Fields returns the flattened field map written by an upsert, keyed the
// way the stats API names them (avg_score_<category>).
func (s *UserStats) Fields() map[string]any {
	fields := map[string]any{
		"user_id":            s.UserID,
		"current_streak":     s.CurrentStreak,
		"longest_streak":     s.LongestStreak,
		"total_solved":       s.TotalSolved,
		"last_activity_date": s.LastActivityDate,
	}
	for _, c := range categories {
		fields[c.AvgScoreField()] = s.AvgScores[c]
	}
	return fields
}

// MarshalJSON flattens AvgScores into avg_score_<category> keys.
func (s UserStats) MarshalJSON() ([]byte, error) {
	fields := s.Fields()
	if s.ID != "" {
		fields["id"] = s.ID
	}
	if !s.CreatedAt.IsZero() {
		fields["created_at"] = s.CreatedAt
	}
	if !s.UpdatedAt.IsZero() {
		fields["updated_at"] = s.UpdatedAt
	}
	return json.Marshal(fields)
}

// UnmarshalJSON reads the flattened representation produced by MarshalJSON.
func (s *UserStats) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID               string    `json:"id"`
		UserID           string    `json:"user_id"`
		CurrentStreak    int       `json:"current_streak"`
		LongestStreak    int       `json:"longest_streak"`
		TotalSolved      int       `json:"total_solved"`
		LastActivityDate string    `json:"last_activity_date"`
		CreatedAt        time.Time `json:"created_at"`
		UpdatedAt        time.Time `json:"updated_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var scores map[string]json.RawMessage
	if err := json.Unmarshal(data, &scores); err != nil {
		return err
	}

	*s = UserStats{
		ID:               raw.ID,
		UserID:           raw.UserID,
		CurrentStreak:    raw.CurrentStreak,
		LongestStreak:    raw.LongestStreak,
		TotalSolved:      raw.TotalSolved,
		LastActivityDate: raw.LastActivityDate,
		AvgScores:        make(map[Category]float64, len(categories)),
		CreatedAt:        raw.CreatedAt,
		UpdatedAt:        raw.UpdatedAt,
	}
	for _, c := range categories {
		v, ok := scores[c.AvgScoreField()]
		if !ok {
			s.AvgScores[c] = 0
			continue
		}
		var f float64
		if err := json.Unmarshal(v, &f); err != nil {
			return fmt.Errorf("decode %s: %w", c.AvgScoreField(), err)
		}
		s.AvgScores[c] = f
	}
	return nil
}
