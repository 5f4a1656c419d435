package session

import (
	"context"

	"github.com/felixgeelhaar/pmdrill/internal/domain"
)

// SessionService defines the interview session operations used by the
// daemon handlers
type SessionService interface {
	// Start opens a new timed interview
	Start(ctx context.Context, req StartRequest) (*domain.InterviewSession, error)

	// Get retrieves a session by ID
	Get(ctx context.Context, id string) (*domain.InterviewSession, error)

	// AppendMessage adds a conversation turn to an active session
	AppendMessage(ctx context.Context, id string, role domain.Role, content string) (*domain.InterviewSession, error)

	// End evaluates and completes a session, then refreshes the user's stats
	End(ctx context.Context, id string) (*domain.InterviewSession, error)

	// ListByUser returns every session of a user, newest first
	ListByUser(ctx context.Context, userID string) ([]*domain.InterviewSession, error)

	// ExpireOverdue ends sessions whose countdown has run out
	ExpireOverdue(ctx context.Context) (int, error)
}

// Ensure Service implements SessionService
var _ SessionService = (*Service)(nil)

// InterviewStore defines the persistence interface for interview sessions.
// Both the SQLite and Postgres stores implement this.
type InterviewStore interface {
	Save(ctx context.Context, sess *domain.InterviewSession) error
	// Get returns domain.ErrSessionNotFound when id is unknown
	Get(ctx context.Context, id string) (*domain.InterviewSession, error)
	ListCompleted(ctx context.Context, userID string) ([]*domain.InterviewSession, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.InterviewSession, error)
	ListActive(ctx context.Context) ([]*domain.InterviewSession, error)
}

// QuestionBank supplies interview questions
type QuestionBank interface {
	// Get returns domain.ErrQuestionNotFound when id is unknown
	Get(id string) (*domain.Question, error)
	// Pick returns a random question; an empty category draws from all
	Pick(category domain.Category) (*domain.Question, error)
}

// StatsPublisher hands a stats recompute off to a background worker.
type StatsPublisher interface {
	PublishStatsJob(ctx context.Context, userID, sessionID string) error
}
