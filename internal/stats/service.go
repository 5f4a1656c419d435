package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/pmdrill/internal/domain"
	"github.com/felixgeelhaar/pmdrill/internal/keylock"
)

// Clock returns the current time.
type Clock func() time.Time

// Config holds the stats service settings
type Config struct {
	// Location is the timezone "today" and non-ISO dates are interpreted in (default UTC)
	Location *time.Location

	// Clock overrides time.Now, mostly for tests
	Clock Clock
}

// Service recomputes and stores per-user statistics
type Service struct {
	sessions SessionSource
	store    StatsStore
	calc     *Calculator
	clock    Clock
	locks    *keylock.Map // one recompute per user at a time
}

// NewService creates a new stats service
func NewService(sessions SessionSource, store StatsStore, cfg Config) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		sessions: sessions,
		store:    store,
		calc:     NewCalculator(cfg.Location),
		clock:    clock,
		locks:    keylock.New(),
	}
}

// Today returns the current calendar day in the service's timezone.
func (s *Service) Today() string {
	return dayOf(s.clock(), s.calc.Location())
}

// Get returns the stored stats for a user
func (s *Service) Get(ctx context.Context, userID string) (*domain.UserStats, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	return s.store.FindByUser(ctx, userID)
}

// Recompute loads the user's completed sessions and rebuilds their stats.
// It returns (nil, nil) when the user has nothing completed yet.
func (s *Service) Recompute(ctx context.Context, userID string) (*domain.UserStats, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	sessions, err := s.sessions.ListCompleted(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list completed sessions: %w", err)
	}
	return s.recompute(ctx, userID, sessions)
}

// RecomputeFrom rebuilds stats from sessions the caller already fetched.
func (s *Service) RecomputeFrom(ctx context.Context, userID string, sessions []*domain.InterviewSession) (*domain.UserStats, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	return s.recompute(ctx, userID, sessions)
}

func (s *Service) recompute(ctx context.Context, userID string, sessions []*domain.InterviewSession) (*domain.UserStats, error) {
	if len(sessions) == 0 {
		slog.Debug("no completed sessions, skipping stats", "user_id", userID)
		return nil, nil
	}

	record := s.calc.Compute(userID, sessions, s.clock())

	saved, err := s.persist(ctx, record)
	if err != nil {
		return nil, err
	}

	slog.Info("stats recomputed",
		"user_id", userID,
		"current_streak", saved.CurrentStreak,
		"longest_streak", saved.LongestStreak,
		"total_solved", saved.TotalSolved)

	return saved, nil
}

// persist creates the record when the user has none, otherwise updates it in place.
func (s *Service) persist(ctx context.Context, record *domain.UserStats) (*domain.UserStats, error) {
	existing, err := s.store.FindByUser(ctx, record.UserID)
	if err != nil && !errors.Is(err, domain.ErrStatsNotFound) {
		return nil, fmt.Errorf("find stats: %w", err)
	}

	if existing == nil || existing.ID == "" {
		saved, err := s.store.Create(ctx, record)
		if err != nil {
			return nil, fmt.Errorf("create stats: %w", err)
		}
		return saved, nil
	}

	saved, err := s.store.Update(ctx, existing.ID, record)
	if err != nil {
		return nil, fmt.Errorf("update stats: %w", err)
	}
	return saved, nil
}
