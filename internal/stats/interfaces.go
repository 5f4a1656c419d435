package stats

import (
	"context"

	"github.com/felixgeelhaar/pmdrill/internal/domain"
)

// StatsService defines the stats operations used by the daemon, the MCP
// server and the session service.
type StatsService interface {
	// Get returns the stored stats for a user
	Get(ctx context.Context, userID string) (*domain.UserStats, error)

	// Recompute rebuilds and persists stats from the user's completed sessions
	Recompute(ctx context.Context, userID string) (*domain.UserStats, error)
}

// Ensure Service implements StatsService
var _ StatsService = (*Service)(nil)

// SessionSource lists a user's completed sessions in unspecified order.
type SessionSource interface {
	ListCompleted(ctx context.Context, userID string) ([]*domain.InterviewSession, error)
}

// StatsStore defines the persistence interface for stats records.
// Both the SQLite and Postgres stores implement this.
type StatsStore interface {
	// FindByUser returns domain.ErrStatsNotFound when the user has no record
	FindByUser(ctx context.Context, userID string) (*domain.UserStats, error)
	Create(ctx context.Context, stats *domain.UserStats) (*domain.UserStats, error)
	// Update overwrites the calculator-owned fields of record id
	Update(ctx context.Context, id string, stats *domain.UserStats) (*domain.UserStats, error)
}
