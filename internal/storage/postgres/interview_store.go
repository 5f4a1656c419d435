package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/pmdrill/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/sqlc-dev/pqtype"
)

const interviewColumns = `id, user_id, question_id, question_type, status, completed,
	composite_score, dimension_scores, feedback, conversation, duration_minutes,
	date, created_date, started_at, deadline, created_at, updated_at`

// InterviewStore implements interview session persistence using PostgreSQL
type InterviewStore struct {
	db *DB
}

// NewInterviewStore creates a new PostgreSQL interview store
func NewInterviewStore(db *DB) *InterviewStore {
	return &InterviewStore{db: db}
}

// Save inserts or updates a session
func (s *InterviewStore) Save(ctx context.Context, sess *domain.InterviewSession) error {
	conversation, err := json.Marshal(sess.Conversation)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}
	var dimensions, feedback pqtype.NullRawMessage
	if sess.DimensionScores != nil {
		if dimensions, err = rawJSON(sess.DimensionScores); err != nil {
			return fmt.Errorf("marshal dimension_scores: %w", err)
		}
	}
	if sess.Feedback != nil {
		if feedback, err = rawJSON(sess.Feedback); err != nil {
			return fmt.Errorf("marshal feedback: %w", err)
		}
	}

	query := `
		INSERT INTO interview_sessions (` + interviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			question_id = EXCLUDED.question_id, question_type = EXCLUDED.question_type,
			status = EXCLUDED.status, completed = EXCLUDED.completed,
			composite_score = EXCLUDED.composite_score, dimension_scores = EXCLUDED.dimension_scores,
			feedback = EXCLUDED.feedback, conversation = EXCLUDED.conversation,
			duration_minutes = EXCLUDED.duration_minutes, date = EXCLUDED.date,
			deadline = EXCLUDED.deadline, updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.Pool.Exec(ctx, query,
		sess.ID, sess.UserID, sess.QuestionID, string(sess.Category), string(sess.Status), sess.Completed,
		sess.CompositeScore, dimensions, feedback, string(conversation), sess.DurationMinutes,
		sess.Date, sess.CreatedDate, sess.StartedAt, sess.Deadline, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert interview session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID
func (s *InterviewStore) Get(ctx context.Context, id string) (*domain.InterviewSession, error) {
	row := s.db.Pool.QueryRow(ctx, `SELECT `+interviewColumns+` FROM interview_sessions WHERE id = $1`, id)
	sess, err := scanInterview(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	return sess, err
}

// ListCompleted returns every completed session of a user
func (s *InterviewStore) ListCompleted(ctx context.Context, userID string) ([]*domain.InterviewSession, error) {
	return s.query(ctx, `SELECT `+interviewColumns+` FROM interview_sessions
		WHERE user_id = $1 AND completed ORDER BY created_at DESC`, userID)
}

// ListByUser returns every session of a user, newest first
func (s *InterviewStore) ListByUser(ctx context.Context, userID string) ([]*domain.InterviewSession, error) {
	return s.query(ctx, `SELECT `+interviewColumns+` FROM interview_sessions
		WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// ListActive returns all sessions still running
func (s *InterviewStore) ListActive(ctx context.Context) ([]*domain.InterviewSession, error) {
	return s.query(ctx, `SELECT `+interviewColumns+` FROM interview_sessions
		WHERE status = $1 ORDER BY deadline ASC`, string(domain.InterviewActive))
}

func (s *InterviewStore) query(ctx context.Context, query string, args ...any) ([]*domain.InterviewSession, error) {
	rows, err := s.db.Pool.Query(ctx, query, args...)
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

func scanInterview(row pgx.Row) (*domain.InterviewSession, error) {
	var sess domain.InterviewSession
	var category, status string
	var conversation []byte
	var dimensions, feedback pqtype.NullRawMessage

	err := row.Scan(
		&sess.ID, &sess.UserID, &sess.QuestionID, &category, &status, &sess.Completed,
		&sess.CompositeScore, &dimensions, &feedback, &conversation, &sess.DurationMinutes,
		&sess.Date, &sess.CreatedDate, &sess.StartedAt, &sess.Deadline, &sess.CreatedAt, &sess.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan interview session: %w", err)
	}

	if c, err := domain.ParseCategory(category); err == nil {
		sess.Category = c
	}
	sess.Status = domain.InterviewStatus(status)

	if err := json.Unmarshal(conversation, &sess.Conversation); err != nil {
		return nil, fmt.Errorf("unmarshal conversation: %w", err)
	}
	if dimensions.Valid {
		if err := json.Unmarshal(dimensions.RawMessage, &sess.DimensionScores); err != nil {
			return nil, fmt.Errorf("unmarshal dimension_scores: %w", err)
		}
	}
	if feedback.Valid {
		sess.Feedback = &domain.Feedback{}
		if err := json.Unmarshal(feedback.RawMessage, sess.Feedback); err != nil {
			return nil, fmt.Errorf("unmarshal feedback: %w", err)
		}
	}

	return &sess, nil
}

func rawJSON(v any) (pqtype.NullRawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	return pqtype.NullRawMessage{RawMessage: data, Valid: true}, nil
}
