package stats

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/pmdrill/internal/domain"
)

type fakeSessions struct {
	sessions map[string][]*domain.InterviewSession
	err      error
	calls    atomic.Int32
	// delay is slept inside ListCompleted so overlapping calls can be detected
	delay    time.Duration
	inFlight atomic.Int32
	overlap  atomic.Bool
}

func (f *fakeSessions) ListCompleted(_ context.Context, userID string) ([]*domain.InterviewSession, error) {
	f.calls.Add(1)
	if f.inFlight.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.inFlight.Add(-1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.sessions[userID], nil
}

type fakeStore struct {
	mu      sync.Mutex
	records map[string]*domain.UserStats
	nextID  int
	creates int
	updates int

	findErr   error
	createErr error
	updateErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*domain.UserStats)}
}

func (f *fakeStore) FindByUser(_ context.Context, userID string) (*domain.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	rec, ok := f.records[userID]
	if !ok {
		return nil, domain.ErrStatsNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeStore) Create(_ context.Context, s *domain.UserStats) (*domain.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	f.creates++
	cp := *s
	cp.ID = fmt.Sprintf("stats-%d", f.nextID)
	f.records[s.UserID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeStore) Update(_ context.Context, id string, s *domain.UserStats) (*domain.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updates++
	cp := *s
	cp.ID = id
	f.records[s.UserID] = &cp
	out := cp
	return &out, nil
}

func fixedClock(day string) Clock {
	return func() time.Time { return at(day) }
}

func TestService_Recompute_CreatesThenUpdates(t *testing.T) {
	sessions := &fakeSessions{sessions: map[string][]*domain.InterviewSession{
		"user-1": {
			completed("design", score(80), "2024-03-03"),
			completed("design", score(90), "2024-03-04"),
			completed("rca", score(70), "2024-03-05"),
		},
	}}
	store := newFakeStore()
	svc := NewService(sessions, store, Config{Clock: fixedClock("2024-03-05")})
	ctx := context.Background()

	first, err := svc.Recompute(ctx, "user-1")
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if first.CurrentStreak != 3 || first.LongestStreak != 3 || first.TotalSolved != 3 {
		t.Errorf("first = %d/%d/%d; want 3/3/3", first.CurrentStreak, first.LongestStreak, first.TotalSolved)
	}
	if store.creates != 1 || store.updates != 0 {
		t.Errorf("creates=%d updates=%d; want 1/0", store.creates, store.updates)
	}

	second, err := svc.Recompute(ctx, "user-1")
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if store.creates != 1 || store.updates != 1 {
		t.Errorf("creates=%d updates=%d; want 1/1", store.creates, store.updates)
	}
	if second.ID != first.ID {
		t.Errorf("second.ID = %q; want %q (update in place)", second.ID, first.ID)
	}
	if second.AvgScore(domain.CategoryDesign) != 85 {
		t.Errorf("avg design = %v; want 85", second.AvgScore(domain.CategoryDesign))
	}
	if len(store.records) != 1 {
		t.Errorf("len(records) = %d; want 1", len(store.records))
	}
}

func TestService_Recompute_StreakDecaysWithClock(t *testing.T) {
	sessions := &fakeSessions{sessions: map[string][]*domain.InterviewSession{
		"user-1": {
			completed("design", score(80), "2024-03-01"),
			completed("design", score(90), "2024-03-02"),
			completed("rca", score(70), "2024-03-03"),
		},
	}}

	tests := []struct {
		today       string
		wantCurrent int
	}{
		{"2024-03-03", 3},
		{"2024-03-04", 3},
		{"2024-03-05", 0},
	}
	for _, tt := range tests {
		t.Run(tt.today, func(t *testing.T) {
			svc := NewService(sessions, newFakeStore(), Config{Clock: fixedClock(tt.today)})
			got, err := svc.Recompute(context.Background(), "user-1")
			if err != nil {
				t.Fatalf("Recompute() error = %v", err)
			}
			if got.CurrentStreak != tt.wantCurrent {
				t.Errorf("CurrentStreak = %d; want %d", got.CurrentStreak, tt.wantCurrent)
			}
			if got.LongestStreak != 3 {
				t.Errorf("LongestStreak = %d; want 3", got.LongestStreak)
			}
			if got.LastActivityDate != tt.today {
				t.Errorf("LastActivityDate = %q; want %q", got.LastActivityDate, tt.today)
			}
		})
	}
}

func TestService_Recompute_NoSessions(t *testing.T) {
	store := newFakeStore()
	svc := NewService(&fakeSessions{}, store, Config{Clock: fixedClock("2024-03-05")})

	got, err := svc.Recompute(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if got != nil {
		t.Errorf("Recompute() = %+v; want nil", got)
	}
	if store.creates != 0 || store.updates != 0 {
		t.Errorf("store was written: creates=%d updates=%d", store.creates, store.updates)
	}
}

func TestService_Recompute_EmptyUserID(t *testing.T) {
	sessions := &fakeSessions{}
	svc := NewService(sessions, newFakeStore(), Config{})

	_, err := svc.Recompute(context.Background(), "  ")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Recompute() error = %v; want ErrInvalidInput", err)
	}
	if sessions.calls.Load() != 0 {
		t.Error("ListCompleted should not be called for an empty user id")
	}
}

func TestService_Recompute_Errors(t *testing.T) {
	boom := errors.New("boom")
	list := map[string][]*domain.InterviewSession{
		"user-1": {completed("design", score(80), "2024-03-05")},
	}

	tests := []struct {
		name      string
		sessions  *fakeSessions
		configure func(*fakeStore)
		wantMsg   string
	}{
		{
			name:     "list fails",
			sessions: &fakeSessions{err: boom},
			wantMsg:  "list completed sessions: boom",
		},
		{
			name:      "find fails",
			sessions:  &fakeSessions{sessions: list},
			configure: func(s *fakeStore) { s.findErr = boom },
			wantMsg:   "find stats: boom",
		},
		{
			name:      "create fails",
			sessions:  &fakeSessions{sessions: list},
			configure: func(s *fakeStore) { s.createErr = boom },
			wantMsg:   "create stats: boom",
		},
		{
			name:     "update fails",
			sessions: &fakeSessions{sessions: list},
			configure: func(s *fakeStore) {
				s.records["user-1"] = &domain.UserStats{ID: "stats-9", UserID: "user-1"}
				s.updateErr = boom
			},
			wantMsg: "update stats: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			if tt.configure != nil {
				tt.configure(store)
			}
			svc := NewService(tt.sessions, store, Config{Clock: fixedClock("2024-03-05")})

			got, err := svc.Recompute(context.Background(), "user-1")
			if got != nil {
				t.Errorf("Recompute() = %+v; want nil", got)
			}
			if !errors.Is(err, boom) {
				t.Fatalf("Recompute() error = %v; want wrapping boom", err)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("error = %q; want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestService_RecomputeFrom(t *testing.T) {
	sessions := &fakeSessions{}
	store := newFakeStore()
	svc := NewService(sessions, store, Config{Clock: fixedClock("2024-03-05")})

	got, err := svc.RecomputeFrom(context.Background(), "user-2", []*domain.InterviewSession{
		completed("guesstimate", score(60), "2024-03-05"),
	})
	if err != nil {
		t.Fatalf("RecomputeFrom() error = %v", err)
	}
	if got.TotalSolved != 1 || got.CurrentStreak != 1 {
		t.Errorf("got %d solved, streak %d; want 1, 1", got.TotalSolved, got.CurrentStreak)
	}
	if sessions.calls.Load() != 0 {
		t.Error("RecomputeFrom should not list sessions")
	}
}

func TestService_Get(t *testing.T) {
	store := newFakeStore()
	svc := NewService(&fakeSessions{}, store, Config{})

	if _, err := svc.Get(context.Background(), "user-1"); !errors.Is(err, domain.ErrStatsNotFound) {
		t.Errorf("Get() error = %v; want ErrStatsNotFound", err)
	}
	if _, err := svc.Get(context.Background(), ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Get(\"\") error = %v; want ErrInvalidInput", err)
	}

	store.records["user-1"] = &domain.UserStats{ID: "stats-1", UserID: "user-1", TotalSolved: 4}
	got, err := svc.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.TotalSolved != 4 {
		t.Errorf("TotalSolved = %d; want 4", got.TotalSolved)
	}
}

func TestService_Today(t *testing.T) {
	loc := time.FixedZone("UTC+14", 14*60*60)
	svc := NewService(&fakeSessions{}, newFakeStore(), Config{
		Location: loc,
		Clock:    func() time.Time { return time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC) },
	})
	if got := svc.Today(); got != "2024-03-06" {
		t.Errorf("Today() = %q; want 2024-03-06", got)
	}
}

func TestService_Recompute_SerializesPerUser(t *testing.T) {
	sessions := &fakeSessions{
		delay: 20 * time.Millisecond,
		sessions: map[string][]*domain.InterviewSession{
			"user-1": {completed("design", score(80), "2024-03-05")},
		},
	}
	store := newFakeStore()
	svc := NewService(sessions, store, Config{Clock: fixedClock("2024-03-05")})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Recompute(context.Background(), "user-1"); err != nil {
				t.Errorf("Recompute() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if sessions.overlap.Load() {
		t.Error("recomputations for the same user overlapped")
	}
	if store.creates != 1 {
		t.Errorf("creates = %d; want exactly 1", store.creates)
	}
	if store.updates != 4 {
		t.Errorf("updates = %d; want 4", store.updates)
	}
	if n := svc.locks.Len(); n != 0 {
		t.Errorf("lock table size = %d; want 0 after all callers finish", n)
	}
}
