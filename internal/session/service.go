package session

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/felixgeelhaar/pmdrill/internal/domain"
	"github.com/felixgeelhaar/pmdrill/internal/evaluator"
	"github.com/felixgeelhaar/pmdrill/internal/keylock"
	"github.com/felixgeelhaar/pmdrill/internal/stats"
)

// DefaultDuration is the interview countdown.
const DefaultDuration = 30 * time.Minute

// Config holds the session service settings
type Config struct {
	// Duration of each interview (default 30m)
	Duration time.Duration

	// Location decides which calendar day a completion lands on (default UTC)
	Location *time.Location

	// Questions picks a question when the request names none. Without a
	// bank the caller must pass a concrete category.
	Questions QuestionBank

	Clock func() time.Time
}

// Service manages interview sessions
type Service struct {
	store     InterviewStore
	evaluator evaluator.Evaluator
	stats     stats.StatsService
	publisher StatsPublisher // Optional: recompute in a worker instead of inline
	questions QuestionBank

	// locks serializes writes per session id
	locks *keylock.Map

	duration time.Duration
	loc      *time.Location
	clock    func() time.Time
}

// NewService creates a new session service
func NewService(store InterviewStore, ev evaluator.Evaluator, statsSvc stats.StatsService, cfg Config) *Service {
	s := &Service{
		store:     store,
		evaluator: ev,
		stats:     statsSvc,
		questions: cfg.Questions,
		locks:     keylock.New(),
		duration:  cfg.Duration,
		loc:       cfg.Location,
		clock:     cfg.Clock,
	}
	if s.duration <= 0 {
		s.duration = DefaultDuration
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s
}

// SetPublisher routes post-completion stats work through a queue
func (s *Service) SetPublisher(p StatsPublisher) {
	s.publisher = p
}

// StartRequest contains data for starting a session. Category may be
// "random" (or empty) to draw from every category.
type StartRequest struct {
	UserID     string `json:"user_id"`
	Category   string `json:"category"`
	QuestionID string `json:"question_id,omitempty"`
}

// Start opens a new timed interview. When no question is named one is
// picked from the bank, and the session records the question's category.
func (s *Service) Start(ctx context.Context, req StartRequest) (*domain.InterviewSession, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	category, questionID, err := s.resolveQuestion(req)
	if err != nil {
		return nil, err
	}

	sess := domain.NewInterviewSession(req.UserID, category, questionID, s.clock(), s.duration)
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	slog.Info("interview started",
		"session_id", sess.ID,
		"user_id", sess.UserID,
		"category", sess.Category,
		"question_id", sess.QuestionID,
		"deadline", sess.Deadline)

	return sess, nil
}

func (s *Service) resolveQuestion(req StartRequest) (domain.Category, string, error) {
	random := domain.IsRandomCategory(req.Category)

	var category domain.Category
	if !random {
		c, err := domain.ParseCategory(req.Category)
		if err != nil {
			return "", "", err
		}
		category = c
	}

	if s.questions == nil {
		if random {
			return "", "", fmt.Errorf("%w: %q needs a question bank", domain.ErrUnknownCategory, req.Category)
		}
		return category, req.QuestionID, nil
	}

	var q *domain.Question
	var err error
	if req.QuestionID != "" {
		q, err = s.questions.Get(req.QuestionID)
		if err != nil {
			return "", "", err
		}
		if !random && q.Category != category {
			return "", "", fmt.Errorf("%w: question %s is %s, not %s", domain.ErrInvalidInput, q.ID, q.Category, category)
		}
	} else {
		q, err = s.questions.Pick(category)
		if err != nil {
			return "", "", err
		}
	}
	return q.Category, q.ID, nil
}

// Get retrieves a session by ID
func (s *Service) Get(ctx context.Context, id string) (*domain.InterviewSession, error) {
	return s.store.Get(ctx, id)
}

// ListByUser returns every session of a user
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*domain.InterviewSession, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	return s.store.ListByUser(ctx, userID)
}

// AppendMessage adds a conversation turn to an active session
func (s *Service) AppendMessage(ctx context.Context, id string, role domain.Role, content string) (*domain.InterviewSession, error) {
	if role != domain.RoleUser && role != domain.RoleAssistant {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: message content is empty", domain.ErrInvalidInput)
	}

	// Saving writes the whole session; without the lock a late append
	// could overwrite a completion.
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	if !sess.IsActive(now) {
		return nil, domain.ErrSessionClosed
	}

	sess.Conversation = append(sess.Conversation, domain.Message{
		Role:    role,
		Content: content,
		At:      now,
	})
	sess.UpdatedAt = now

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// End evaluates and completes a session. A session without a single user
// turn is left untouched and ErrNoUserInput is returned. When the stats
// refresh fails the completed session is still returned along with the error.
func (s *Service) End(ctx context.Context, id string) (*domain.InterviewSession, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != domain.InterviewActive {
		return nil, domain.ErrSessionClosed
	}
	if !sess.HasUserInput() {
		return nil, domain.ErrNoUserInput
	}
	return s.complete(ctx, sess)
}

// ExpireOverdue ends every active session whose deadline has passed.
// Sessions without user input are abandoned rather than evaluated.
func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	active, err := s.store.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active sessions: %w", err)
	}

	ended := 0
	for _, sess := range active {
		if !sess.Expired(s.clock()) {
			continue
		}
		if s.expire(ctx, sess.ID) {
			ended++
		}
	}

	return ended, nil
}

// expire ends one overdue session. The session is re-read under its lock
// since End may have completed it after ListActive returned.
func (s *Service) expire(ctx context.Context, id string) bool {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		slog.Warn("failed to load expired session", "session_id", id, "error", err)
		return false
	}
	now := s.clock()
	if sess.Status != domain.InterviewActive || !sess.Expired(now) {
		return false
	}

	if !sess.HasUserInput() {
		sess.Status = domain.InterviewAbandoned
		sess.UpdatedAt = now
		if err := s.store.Save(ctx, sess); err != nil {
			slog.Warn("failed to abandon expired session", "session_id", sess.ID, "error", err)
			return false
		}
		slog.Info("interview abandoned", "session_id", sess.ID, "user_id", sess.UserID)
		return true
	}

	done, err := s.complete(ctx, sess)
	if err != nil {
		slog.Warn("failed to complete expired session", "session_id", sess.ID, "error", err)
	}
	return done != nil
}

func (s *Service) complete(ctx context.Context, sess *domain.InterviewSession) (*domain.InterviewSession, error) {
	now := s.clock()
	sess.DurationMinutes = s.elapsedMinutes(sess, now)

	result, err := s.evaluator.Evaluate(ctx, evaluator.NewRequest(sess))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEvaluationFailed, err)
	}

	sess.CompositeScore = result.CompositeScore
	sess.DimensionScores = result.DimensionScores
	sess.Feedback = result.Feedback()
	sess.Completed = true
	sess.Status = domain.InterviewCompleted
	sess.Date = now.In(s.loc).Format(domain.DateLayout)
	sess.UpdatedAt = now

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	slog.Info("interview completed",
		"session_id", sess.ID,
		"user_id", sess.UserID,
		"duration_minutes", sess.DurationMinutes,
		"evaluator", s.evaluator.Name())

	if err := s.refreshStats(ctx, sess); err != nil {
		slog.Error("failed to refresh stats", "user_id", sess.UserID, "session_id", sess.ID, "error", err)
		return sess, fmt.Errorf("recompute stats: %w", err)
	}
	return sess, nil
}

// refreshStats publishes a stats job when a queue is configured and falls
// back to recomputing inline.
func (s *Service) refreshStats(ctx context.Context, sess *domain.InterviewSession) error {
	if s.publisher != nil {
		err := s.publisher.PublishStatsJob(ctx, sess.UserID, sess.ID)
		if err == nil {
			return nil
		}
		slog.Warn("failed to publish stats job, recomputing inline", "user_id", sess.UserID, "error", err)
	}
	_, err := s.stats.Recompute(ctx, sess.UserID)
	return err
}

// elapsedMinutes rounds the time spent to whole minutes, capped at the
// interview length.
func (s *Service) elapsedMinutes(sess *domain.InterviewSession, now time.Time) int {
	elapsed := now.Sub(sess.StartedAt)
	if limit := sess.Deadline.Sub(sess.StartedAt); limit > 0 && elapsed > limit {
		elapsed = limit
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return int(math.Round(elapsed.Minutes()))
}
