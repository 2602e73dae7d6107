package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dcgrid/teamcomp/internal/domain/hardware"
	"github.com/dcgrid/teamcomp/internal/domain/stats"
	"github.com/dcgrid/teamcomp/internal/domain/systemstate"
	"github.com/dcgrid/teamcomp/internal/domain/user"
	"github.com/dcgrid/teamcomp/internal/infrastructure/repository/memory"
	"github.com/dcgrid/teamcomp/internal/platform/logging"
)

// scriptedSource serves canned raw stats per account and fails for accounts
// without a script.
type scriptedSource struct {
	mu      sync.Mutex
	replies map[string]stats.RawStats
}

func (s *scriptedSource) set(account string, raw stats.RawStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replies == nil {
		s.replies = make(map[string]stats.RawStats)
	}
	s.replies[account] = raw
}

func (s *scriptedSource) FetchRawStats(_ context.Context, accountName, _ string) (stats.RawStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.replies[accountName]
	if !ok {
		return stats.RawStats{}, errors.New("upstream rejected account")
	}
	return raw, nil
}

type syncFixture struct {
	svc       *SyncService
	source    *scriptedSource
	state     *systemstate.Holder
	statsRepo *memory.StatsRepository
}

func newSyncFixture(t *testing.T, users []user.User) syncFixture {
	t.Helper()

	userRepo := memory.NewUserRepository(users)
	hardwareRepo := memory.NewHardwareRepository([]hardware.Hardware{
		{ID: "hw-1", DisplayName: "RTX 4090", Multiplier: 2.0},
	})
	statsRepo := memory.NewStatsRepository()
	source := &scriptedSource{}

	state := systemstate.NewHolder()
	if err := state.Advance(systemstate.StateAvailable); err != nil {
		t.Fatalf("advance available: %v", err)
	}

	svc := NewSyncService(userRepo, statsRepo, hardwareRepo, source, state, 2, logging.NewNop())
	return syncFixture{svc: svc, source: source, state: state, statsRepo: statsRepo}
}

func testRoster() []user.User {
	return []user.User{
		{ID: "u-1", DisplayName: "alice", ForumName: "alice", Passkey: "abcdef1234567890", Category: user.CategoryNvidiaGPU, HardwareID: "hw-1", TeamID: "t-1"},
		{ID: "u-2", DisplayName: "bob", ForumName: "bob", Passkey: "abcdef1234567890", Category: user.CategoryNvidiaGPU, HardwareID: "hw-1", TeamID: "t-1"},
	}
}

func TestSweep(t *testing.T) {
	ctx := context.Background()

	t.Run("stores raw stats and ends in write executed", func(t *testing.T) {
		fix := newSyncFixture(t, testRoster())
		fix.source.set("alice", stats.RawStats{Points: 100, Units: 1})
		fix.source.set("bob", stats.RawStats{Points: 200, Units: 2})

		result, err := fix.svc.Sweep(ctx)
		if err != nil {
			t.Fatalf("sweep: %v", err)
		}
		if result.Users != 2 || result.Updated != 2 || result.Failed != 0 {
			t.Fatalf("unexpected result: %+v", result)
		}

		raw, ok, _ := fix.statsRepo.GetLatestRaw(ctx, "u-1")
		if !ok || raw.Points != 100 {
			t.Fatalf("raw stats not stored: %+v ok=%t", raw, ok)
		}
		if got := fix.state.Current(); got != systemstate.StateWriteExecuted {
			t.Fatalf("expected WRITE_EXECUTED, got %s", got)
		}
	})

	t.Run("first observation records no historic delta", func(t *testing.T) {
		fix := newSyncFixture(t, testRoster())
		fix.source.set("alice", stats.RawStats{Points: 100})
		fix.source.set("bob", stats.RawStats{Points: 200})

		if _, err := fix.svc.Sweep(ctx); err != nil {
			t.Fatalf("sweep: %v", err)
		}
		series, _ := fix.statsRepo.ListHistoric(ctx, "u-1", time.Time{}, time.Time{})
		if len(series) != 0 {
			t.Fatalf("expected no historic points on first sweep, got %+v", series)
		}
	})

	t.Run("second sweep buckets the delta with multiplier", func(t *testing.T) {
		fix := newSyncFixture(t, testRoster())
		fix.svc.now = func() time.Time {
			return time.Date(2026, time.August, 30, 14, 20, 0, 0, time.UTC)
		}
		fix.source.set("alice", stats.RawStats{Points: 100, Units: 1})
		fix.source.set("bob", stats.RawStats{Points: 200, Units: 2})
		if _, err := fix.svc.Sweep(ctx); err != nil {
			t.Fatalf("first sweep: %v", err)
		}

		fix.source.set("alice", stats.RawStats{Points: 350, Units: 4})
		if _, err := fix.svc.Sweep(ctx); err != nil {
			t.Fatalf("second sweep: %v", err)
		}

		series, _ := fix.statsRepo.ListHistoric(ctx, "u-1", time.Time{}, time.Time{})
		if len(series) != 1 {
			t.Fatalf("expected one historic bucket, got %+v", series)
		}
		if series[0].Points != 250 || series[0].MultipliedPoints != 500 || series[0].Units != 3 {
			t.Fatalf("unexpected delta bucket: %+v", series[0])
		}
	})

	t.Run("backwards counters clamp the delta", func(t *testing.T) {
		fix := newSyncFixture(t, testRoster())
		fix.source.set("alice", stats.RawStats{Points: 500})
		fix.source.set("bob", stats.RawStats{Points: 200})
		if _, err := fix.svc.Sweep(ctx); err != nil {
			t.Fatalf("first sweep: %v", err)
		}

		fix.source.set("alice", stats.RawStats{Points: 300})
		if _, err := fix.svc.Sweep(ctx); err != nil {
			t.Fatalf("second sweep: %v", err)
		}

		series, _ := fix.statsRepo.ListHistoric(ctx, "u-1", time.Time{}, time.Time{})
		if len(series) != 0 {
			t.Fatalf("expected no bucket for a clamped delta, got %+v", series)
		}
		raw, _, _ := fix.statsRepo.GetLatestRaw(ctx, "u-1")
		if raw.Points != 300 {
			t.Fatalf("latest raw must still move backwards: %+v", raw)
		}
	})

	t.Run("per-user failures are isolated", func(t *testing.T) {
		fix := newSyncFixture(t, testRoster())
		fix.source.set("alice", stats.RawStats{Points: 100})
		// bob has no script and fails.

		result, err := fix.svc.Sweep(ctx)
		if err != nil {
			t.Fatalf("sweep: %v", err)
		}
		if result.Updated != 1 || result.Failed != 1 {
			t.Fatalf("unexpected result: %+v", result)
		}
		if _, ok, _ := fix.statsRepo.GetLatestRaw(ctx, "u-1"); !ok {
			t.Fatal("healthy user must still be updated")
		}
	})

	t.Run("quiet sweep keeps a pending write flagged", func(t *testing.T) {
		fix := newSyncFixture(t, nil)
		if err := fix.state.Advance(systemstate.StateWriteExecuted); err != nil {
			t.Fatalf("advance write executed: %v", err)
		}

		result, err := fix.svc.Sweep(ctx)
		if err != nil {
			t.Fatalf("sweep: %v", err)
		}
		if result.Updated != 0 {
			t.Fatalf("unexpected result: %+v", result)
		}
		if got := fix.state.Current(); got != systemstate.StateWriteExecuted {
			t.Fatalf("sweep swallowed the pending write: got %s", got)
		}
	})

	t.Run("quiet sweep from available returns to available", func(t *testing.T) {
		fix := newSyncFixture(t, nil)
		if _, err := fix.svc.Sweep(ctx); err != nil {
			t.Fatalf("sweep: %v", err)
		}
		if got := fix.state.Current(); got != systemstate.StateAvailable {
			t.Fatalf("expected AVAILABLE after an empty sweep, got %s", got)
		}
	})

	t.Run("blocked while resetting", func(t *testing.T) {
		fix := newSyncFixture(t, testRoster())
		if err := fix.state.Advance(systemstate.StateResettingStats); err != nil {
			t.Fatalf("advance resetting: %v", err)
		}
		if _, err := fix.svc.Sweep(ctx); !errors.Is(err, ErrStateBlocked) {
			t.Fatalf("expected ErrStateBlocked, got %v", err)
		}
	})
}
