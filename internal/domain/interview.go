package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the speaker of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn in an interview conversation.
type Message struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Feedback is the qualitative part of an evaluation.
type Feedback struct {
	WhatWorkedWell []string `json:"what_worked_well"`
	AreasToImprove []string `json:"areas_to_improve"`
}

// InterviewStatus represents the lifecycle state of a session.
type InterviewStatus string

const (
	InterviewActive    InterviewStatus = "active"
	InterviewCompleted InterviewStatus = "completed"
	InterviewAbandoned InterviewStatus = "abandoned"
)

// InterviewSession is one interview attempt by a user.
type InterviewSession struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	QuestionID string          `json:"question_id,omitempty"`
	Category   Category        `json:"question_type"`
	Status     InterviewStatus `json:"status"`
	Completed  bool            `json:"completed"`

	// Evaluation
	CompositeScore  *float64           `json:"composite_score,omitempty"`
	DimensionScores map[string]float64 `json:"dimension_scores,omitempty"`
	Feedback        *Feedback          `json:"feedback,omitempty"`

	Conversation    []Message `json:"conversation"`
	DurationMinutes int       `json:"duration_minutes"`

	// Activity dates as stored. Date is preferred; CreatedDate is the fallback.
	// Either may be an ISO-8601 timestamp, a plain YYYY-MM-DD, or another
	// parseable representation.
	Date        string `json:"date,omitempty"`
	CreatedDate string `json:"created_date,omitempty"`

	StartedAt time.Time `json:"started_at"`
	Deadline  time.Time `json:"deadline"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewInterviewSession creates an active session that must end by start+duration.
func NewInterviewSession(userID string, category Category, questionID string, start time.Time, duration time.Duration) *InterviewSession {
	return &InterviewSession{
		ID:           uuid.New().String(),
		UserID:       userID,
		QuestionID:   questionID,
		Category:     category,
		Status:       InterviewActive,
		Conversation: []Message{},
		CreatedDate:  start.Format(time.RFC3339),
		StartedAt:    start,
		Deadline:     start.Add(duration),
		CreatedAt:    start,
		UpdatedAt:    start,
	}
}

// IsActive reports whether the session still accepts messages at now.
func (s *InterviewSession) IsActive(now time.Time) bool {
	return s.Status == InterviewActive && now.Before(s.Deadline)
}

// Expired reports whether an active session has run past its deadline.
func (s *InterviewSession) Expired(now time.Time) bool {
	return s.Status == InterviewActive && !now.Before(s.Deadline)
}

// TimeRemaining returns the countdown left at now, never negative.
func (s *InterviewSession) TimeRemaining(now time.Time) time.Duration {
	if s.Status != InterviewActive {
		return 0
	}
	return max(0, s.Deadline.Sub(now))
}

// HasUserInput reports whether the candidate said anything.
func (s *InterviewSession) HasUserInput() bool {
	for _, m := range s.Conversation {
		if m.Role == RoleUser {
			return true
		}
	}
	return false
}

// ActivityDate returns the raw date value used for streaks.
func (s *InterviewSession) ActivityDate() string {
	if s.Date != "" {
		return s.Date
	}
	return s.CreatedDate
}
