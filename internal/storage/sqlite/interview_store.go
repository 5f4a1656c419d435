package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/pmdrill/internal/domain"
)

const interviewColumns = `id, user_id, question_id, question_type, status, completed,
	composite_score, dimension_scores, feedback, conversation, duration_minutes,
	date, created_date, started_at, deadline, created_at, updated_at`

// InterviewStore implements interview session persistence backed by SQLite.
type InterviewStore struct {
	db *DB
}

// NewInterviewStore creates a new SQLite-backed interview store.
func NewInterviewStore(db *DB) *InterviewStore {
	return &InterviewStore{db: db}
}

// Save persists a session (insert or update).
func (s *InterviewStore) Save(ctx context.Context, sess *domain.InterviewSession) error {
	conversation, err := json.Marshal(sess.Conversation)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}
	dimensions, err := nullJSON(sess.DimensionScores, sess.DimensionScores == nil)
	if err != nil {
		return fmt.Errorf("marshal dimension_scores: %w", err)
	}
	feedback, err := nullJSON(sess.Feedback, sess.Feedback == nil)
	if err != nil {
		return fmt.Errorf("marshal feedback: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO interview_sessions (`+interviewColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			question_id=excluded.question_id, question_type=excluded.question_type,
			status=excluded.status, completed=excluded.completed,
			composite_score=excluded.composite_score, dimension_scores=excluded.dimension_scores,
			feedback=excluded.feedback, conversation=excluded.conversation,
			duration_minutes=excluded.duration_minutes, date=excluded.date,
			deadline=excluded.deadline, updated_at=excluded.updated_at`,
		sess.ID, sess.UserID, sess.QuestionID, string(sess.Category), string(sess.Status), sess.Completed,
		nullFloat(sess.CompositeScore), dimensions, feedback, string(conversation), sess.DurationMinutes,
		sess.Date, sess.CreatedDate,
		sess.StartedAt.UTC(), sess.Deadline.UTC(), sess.CreatedAt.UTC(), sess.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert interview session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID.
func (s *InterviewStore) Get(ctx context.Context, id string) (*domain.InterviewSession, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+interviewColumns+` FROM interview_sessions WHERE id = ?`, id)
	sess, err := scanInterview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	return sess, err
}

// ListCompleted returns every completed session of a user.
func (s *InterviewStore) ListCompleted(ctx context.Context, userID string) ([]*domain.InterviewSession, error) {
	return s.query(ctx, `SELECT `+interviewColumns+` FROM interview_sessions
		WHERE user_id = ? AND completed = 1 ORDER BY created_at DESC`, userID)
}

// ListByUser returns every session of a user, newest first.
func (s *InterviewStore) ListByUser(ctx context.Context, userID string) ([]*domain.InterviewSession, error) {
	return s.query(ctx, `SELECT `+interviewColumns+` FROM interview_sessions
		WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

// ListActive returns all sessions still running.
func (s *InterviewStore) ListActive(ctx context.Context) ([]*domain.InterviewSession, error) {
	return s.query(ctx, `SELECT `+interviewColumns+` FROM interview_sessions
		WHERE status = ? ORDER BY deadline ASC`, string(domain.InterviewActive))
}

func (s *InterviewStore) query(ctx context.Context, query string, args ...any) ([]*domain.InterviewSession, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query interview sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*domain.InterviewSession{}
	for rows.Next() {
		sess, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanInterview(row rowScanner) (*domain.InterviewSession, error) {
	var sess domain.InterviewSession
	var category, status, conversation string
	var score sql.NullFloat64
	var dimensions, feedback sql.NullString

	err := row.Scan(
		&sess.ID, &sess.UserID, &sess.QuestionID, &category, &status, &sess.Completed,
		&score, &dimensions, &feedback, &conversation, &sess.DurationMinutes,
		&sess.Date, &sess.CreatedDate, &sess.StartedAt, &sess.Deadline, &sess.CreatedAt, &sess.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan interview session: %w", err)
	}

	// Rows written by older clients may carry any casing; unknown values stay
	// empty so they never count toward a category average.
	if c, err := domain.ParseCategory(category); err == nil {
		sess.Category = c
	}
	sess.Status = domain.InterviewStatus(status)
	if score.Valid {
		v := score.Float64
		sess.CompositeScore = &v
	}

	if err := json.Unmarshal([]byte(conversation), &sess.Conversation); err != nil {
		return nil, fmt.Errorf("unmarshal conversation: %w", err)
	}
	if dimensions.Valid && dimensions.String != "" {
		if err := json.Unmarshal([]byte(dimensions.String), &sess.DimensionScores); err != nil {
			return nil, fmt.Errorf("unmarshal dimension_scores: %w", err)
		}
	}
	if feedback.Valid && feedback.String != "" {
		sess.Feedback = &domain.Feedback{}
		if err := json.Unmarshal([]byte(feedback.String), sess.Feedback); err != nil {
			return nil, fmt.Errorf("unmarshal feedback: %w", err)
		}
	}

	return &sess, nil
}

// nullFloat converts a *float64 to sql.NullFloat64 for storage.
func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// nullJSON marshals v into a nullable TEXT column.
func nullJSON(v any, isNil bool) (sql.NullString, error) {
	if isNil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
