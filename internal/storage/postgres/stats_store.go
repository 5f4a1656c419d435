package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/pmdrill/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// StatsStore implements user stats persistence using PostgreSQL
type StatsStore struct {
	db  *DB
	now func() time.Time
}

// NewStatsStore creates a new PostgreSQL stats store
func NewStatsStore(db *DB) *StatsStore {
	return &StatsStore{db: db, now: time.Now}
}

func avgColumns() []string {
	cats := domain.Categories()
	cols := make([]string, len(cats))
	for i, c := range cats {
		cols[i] = c.AvgScoreField()
	}
	return cols
}

func statsColumns() string {
	return "id, user_id, current_streak, longest_streak, total_solved, last_activity_date, " +
		strings.Join(avgColumns(), ", ") + ", created_at, updated_at"
}

// FindByUser returns the stats record of a user
func (s *StatsStore) FindByUser(ctx context.Context, userID string) (*domain.UserStats, error) {
	return s.findBy(ctx, "user_id", userID)
}

// Create inserts a new record, or updates the user's record in place when
// a concurrent writer created it first.
func (s *StatsStore) Create(ctx context.Context, st *domain.UserStats) (*domain.UserStats, error) {
	id := st.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := s.now()

	avgs := avgColumns()
	args := []any{id, st.UserID, st.CurrentStreak, st.LongestStreak, st.TotalSolved, st.LastActivityDate}
	args = append(args, avgArgs(st)...)
	args = append(args, now, now)

	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	var updates strings.Builder
	for _, col := range avgs {
		fmt.Fprintf(&updates, ", %s = EXCLUDED.%s", col, col)
	}

	query := `
		INSERT INTO user_stats (` + statsColumns() + `)
		VALUES (` + strings.Join(placeholders, ", ") + `)
		ON CONFLICT (user_id) DO UPDATE SET
			current_streak = EXCLUDED.current_streak, longest_streak = EXCLUDED.longest_streak,
			total_solved = EXCLUDED.total_solved, last_activity_date = EXCLUDED.last_activity_date` +
		updates.String() + `, updated_at = EXCLUDED.updated_at`

	if _, err := s.db.Pool.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert user stats: %w", err)
	}
	return s.findBy(ctx, "user_id", st.UserID)
}

// Update overwrites the calculator-owned fields of record id
func (s *StatsStore) Update(ctx context.Context, id string, st *domain.UserStats) (*domain.UserStats, error) {
	args := []any{st.CurrentStreak, st.LongestStreak, st.TotalSolved, st.LastActivityDate}
	args = append(args, avgArgs(st)...)
	args = append(args, s.now())

	set := []string{"current_streak", "longest_streak", "total_solved", "last_activity_date"}
	set = append(set, avgColumns()...)
	set = append(set, "updated_at")
	for i, col := range set {
		set[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	args = append(args, id)

	query := "UPDATE user_stats SET " + strings.Join(set, ", ") + fmt.Sprintf(" WHERE id = $%d", len(args))
	tag, err := s.db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update user stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrStatsNotFound
	}
	return s.findBy(ctx, "id", id)
}

// findBy loads one record; column is always a fixed identifier, never user input.
func (s *StatsStore) findBy(ctx context.Context, column, value string) (*domain.UserStats, error) {
	st := &domain.UserStats{AvgScores: make(map[domain.Category]float64)}
	cats := domain.Categories()
	avgs := make([]float64, len(cats))

	dest := []any{&st.ID, &st.UserID, &st.CurrentStreak, &st.LongestStreak, &st.TotalSolved, &st.LastActivityDate}
	for i := range avgs {
		dest = append(dest, &avgs[i])
	}
	dest = append(dest, &st.CreatedAt, &st.UpdatedAt)

	err := s.db.Pool.QueryRow(ctx, "SELECT "+statsColumns()+" FROM user_stats WHERE "+column+" = $1", value).Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrStatsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user stats: %w", err)
	}
	for i, c := range cats {
		st.AvgScores[c] = avgs[i]
	}
	return st, nil
}

func avgArgs(st *domain.UserStats) []any {
	cats := domain.Categories()
	args := make([]any, len(cats))
	for i, c := range cats {
		args[i] = st.AvgScore(c)
	}
	return args
}
