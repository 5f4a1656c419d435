package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/pmdrill/internal/domain"
	"github.com/google/uuid"
)

// StatsStore implements user stats persistence backed by SQLite.
type StatsStore struct {
	db  *DB
	now func() time.Time
}

// NewStatsStore creates a new SQLite-backed stats store.
func NewStatsStore(db *DB) *StatsStore {
	return &StatsStore{db: db, now: time.Now}
}

// avgColumns lists the per-category average columns in canonical order.
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

// FindByUser returns the stats record of a user.
func (s *StatsStore) FindByUser(ctx context.Context, userID string) (*domain.UserStats, error) {
	return s.findBy(ctx, "user_id", userID)
}

// Create inserts a new record. If a concurrent writer created the user's
// record first, that record is updated in place instead.
func (s *StatsStore) Create(ctx context.Context, st *domain.UserStats) (*domain.UserStats, error) {
	id := st.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := s.now().UTC()

	avgs := avgColumns()
	placeholders := strings.Repeat(", ?", len(avgs))
	var updates strings.Builder
	for _, col := range avgs {
		fmt.Fprintf(&updates, ", %s=excluded.%s", col, col)
	}

	args := []any{id, st.UserID, st.CurrentStreak, st.LongestStreak, st.TotalSolved, st.LastActivityDate}
	args = append(args, avgArgs(st)...)
	args = append(args, now, now)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_stats (`+statsColumns()+`)
		VALUES (?, ?, ?, ?, ?, ?`+placeholders+`, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			current_streak=excluded.current_streak, longest_streak=excluded.longest_streak,
			total_solved=excluded.total_solved, last_activity_date=excluded.last_activity_date`+
		updates.String()+`, updated_at=excluded.updated_at`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user stats: %w", err)
	}
	return s.findBy(ctx, "user_id", st.UserID)
}

// Update overwrites the calculator-owned fields of record id.
func (s *StatsStore) Update(ctx context.Context, id string, st *domain.UserStats) (*domain.UserStats, error) {
	var set strings.Builder
	set.WriteString("current_streak = ?, longest_streak = ?, total_solved = ?, last_activity_date = ?")
	for _, col := range avgColumns() {
		fmt.Fprintf(&set, ", %s = ?", col)
	}
	set.WriteString(", updated_at = ?")

	args := []any{st.CurrentStreak, st.LongestStreak, st.TotalSolved, st.LastActivityDate}
	args = append(args, avgArgs(st)...)
	args = append(args, s.now().UTC(), id)

	result, err := s.db.ExecContext(ctx, "UPDATE user_stats SET "+set.String()+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("update user stats: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, domain.ErrStatsNotFound
	}
	return s.findBy(ctx, "id", id)
}

// findBy loads one record; column is always a fixed identifier, never user input.
func (s *StatsStore) findBy(ctx context.Context, column, value string) (*domain.UserStats, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+statsColumns()+" FROM user_stats WHERE "+column+" = ?", value)

	st := &domain.UserStats{AvgScores: make(map[domain.Category]float64)}
	cats := domain.Categories()
	avgs := make([]float64, len(cats))

	dest := []any{&st.ID, &st.UserID, &st.CurrentStreak, &st.LongestStreak, &st.TotalSolved, &st.LastActivityDate}
	for i := range avgs {
		dest = append(dest, &avgs[i])
	}
	dest = append(dest, &st.CreatedAt, &st.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrStatsNotFound
		}
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
