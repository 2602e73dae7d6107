package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/dcgrid/teamcomp/internal/domain/hardware"
	"github.com/dcgrid/teamcomp/internal/domain/stats"
	"github.com/dcgrid/teamcomp/internal/domain/systemstate"
	"github.com/dcgrid/teamcomp/internal/domain/team"
	"github.com/dcgrid/teamcomp/internal/domain/user"
	"github.com/dcgrid/teamcomp/internal/infrastructure/repository/memory"
)

type userFixture struct {
	svc       *UserService
	source    *scriptedSource
	statsRepo *memory.StatsRepository
	state     *systemstate.Holder
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()

	teamRepo := memory.NewTeamRepository([]team.Team{
		{ID: "t-1", Name: "Crunchers"},
	})
	hardwareRepo := memory.NewHardwareRepository([]hardware.Hardware{
		{ID: "hw-1", DisplayName: "RX 7900", Multiplier: 1.0},
		{ID: "hw-2", DisplayName: "RTX 4090", Multiplier: 1.5},
	})
	userRepo := memory.NewUserRepository(nil)
	statsRepo := memory.NewStatsRepository()
	source := &scriptedSource{}

	state := systemstate.NewHolder()
	if err := state.Advance(systemstate.StateAvailable); err != nil {
		t.Fatalf("advance to available: %v", err)
	}

	return &userFixture{
		svc:       NewUserService(userRepo, teamRepo, hardwareRepo, statsRepo, source, state, nil),
		source:    source,
		statsRepo: statsRepo,
		state:     state,
	}
}

func validUser(id, forumName string) user.User {
	return user.User{
		ID:          id,
		DisplayName: forumName,
		ForumName:   forumName,
		Passkey:     "secretpasskey123",
		Category:    user.CategoryAMDGPU,
		HardwareID:  "hw-1",
		TeamID:      "t-1",
	}
}

func TestUserServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("captures the baseline from the upstream counters", func(t *testing.T) {
		fix := newUserFixture(t)
		fix.source.set("alice", stats.RawStats{Points: 12000, Units: 120})

		if err := fix.svc.Create(ctx, validUser("u-alice", "alice")); err != nil {
			t.Fatalf("create user: %v", err)
		}

		baseline, ok, err := fix.statsRepo.GetBaseline(ctx, "u-alice")
		if err != nil || !ok {
			t.Fatalf("get baseline: ok=%v err=%v", ok, err)
		}
		if baseline.Points != 12000 || baseline.Units != 120 {
			t.Fatalf("baseline = %d/%d, want 12000/120", baseline.Points, baseline.Units)
		}
		raw, ok, err := fix.statsRepo.GetLatestRaw(ctx, "u-alice")
		if err != nil || !ok {
			t.Fatalf("get latest raw: ok=%v err=%v", ok, err)
		}
		if raw.Points != 12000 {
			t.Fatalf("latest raw points = %d, want 12000", raw.Points)
		}
		if got := fix.state.Current(); got != systemstate.StateWriteExecuted {
			t.Fatalf("state after create = %s, want %s", got, systemstate.StateWriteExecuted)
		}
	})

	t.Run("rejects a duplicate user id", func(t *testing.T) {
		fix := newUserFixture(t)
		fix.source.set("alice", stats.RawStats{Points: 100, Units: 1})

		if err := fix.svc.Create(ctx, validUser("u-alice", "alice")); err != nil {
			t.Fatalf("first create: %v", err)
		}
		err := fix.svc.Create(ctx, validUser("u-alice", "alice"))
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("duplicate create: err = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("unknown team or hardware is a configuration error", func(t *testing.T) {
		fix := newUserFixture(t)
		fix.source.set("alice", stats.RawStats{})

		badTeam := validUser("u-alice", "alice")
		badTeam.TeamID = "t-missing"
		if err := fix.svc.Create(ctx, badTeam); !errors.Is(err, ErrConfiguration) {
			t.Fatalf("unknown team: err = %v, want ErrConfiguration", err)
		}

		badHardware := validUser("u-alice", "alice")
		badHardware.HardwareID = "hw-missing"
		if err := fix.svc.Create(ctx, badHardware); !errors.Is(err, ErrConfiguration) {
			t.Fatalf("unknown hardware: err = %v, want ErrConfiguration", err)
		}
	})

	t.Run("upstream failure surfaces as dependency unavailable", func(t *testing.T) {
		fix := newUserFixture(t)

		err := fix.svc.Create(ctx, validUser("u-alice", "alice"))
		if !errors.Is(err, ErrDependencyUnavailable) {
			t.Fatalf("create without upstream: err = %v, want ErrDependencyUnavailable", err)
		}
		if _, ok, _ := fix.statsRepo.GetBaseline(ctx, "u-alice"); ok {
			t.Fatal("baseline written despite failed create")
		}
	})

	t.Run("blocked while resetting", func(t *testing.T) {
		fix := newUserFixture(t)
		fix.source.set("alice", stats.RawStats{})
		if err := fix.state.Advance(systemstate.StateResettingStats); err != nil {
			t.Fatalf("advance to resetting: %v", err)
		}
		if err := fix.svc.Create(ctx, validUser("u-alice", "alice")); !errors.Is(err, ErrStateBlocked) {
			t.Fatalf("create during reset: err = %v, want ErrStateBlocked", err)
		}
	})
}

func TestUserServiceUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("preserves join order and the baseline", func(t *testing.T) {
		fix := newUserFixture(t)
		fix.source.set("alice", stats.RawStats{Points: 5000, Units: 50})
		fix.source.set("bob", stats.RawStats{Points: 100, Units: 1})

		if err := fix.svc.Create(ctx, validUser("u-alice", "alice")); err != nil {
			t.Fatalf("create alice: %v", err)
		}
		if err := fix.svc.Create(ctx, validUser("u-bob", "bob")); err != nil {
			t.Fatalf("create bob: %v", err)
		}

		before, err := fix.svc.GetByID(ctx, "u-bob")
		if err != nil {
			t.Fatalf("get bob: %v", err)
		}

		changed := validUser("u-bob", "bob")
		changed.HardwareID = "hw-2"
		changed.Category = user.CategoryNvidiaGPU
		changed.JoinOrder = 99
		if err := fix.svc.Update(ctx, changed); err != nil {
			t.Fatalf("update bob: %v", err)
		}

		after, err := fix.svc.GetByID(ctx, "u-bob")
		if err != nil {
			t.Fatalf("get bob after update: %v", err)
		}
		if after.HardwareID != "hw-2" || after.Category != user.CategoryNvidiaGPU {
			t.Fatalf("update not applied: %+v", after)
		}
		if after.JoinOrder != before.JoinOrder {
			t.Fatalf("join order changed from %d to %d", before.JoinOrder, after.JoinOrder)
		}

		baseline, ok, err := fix.statsRepo.GetBaseline(ctx, "u-bob")
		if err != nil || !ok {
			t.Fatalf("get baseline: ok=%v err=%v", ok, err)
		}
		if baseline.Points != 100 {
			t.Fatalf("baseline moved on update: %d, want 100", baseline.Points)
		}
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		fix := newUserFixture(t)
		if err := fix.svc.Update(ctx, validUser("u-ghost", "ghost")); !errors.Is(err, ErrNotFound) {
			t.Fatalf("update unknown user: err = %v, want ErrNotFound", err)
		}
	})
}

func TestUserServiceSetOffset(t *testing.T) {
	ctx := context.Background()

	t.Run("overwrites instead of accumulating", func(t *testing.T) {
		fix := newUserFixture(t)
		fix.source.set("alice", stats.RawStats{})
		if err := fix.svc.Create(ctx, validUser("u-alice", "alice")); err != nil {
			t.Fatalf("create alice: %v", err)
		}

		if err := fix.svc.SetOffset(ctx, "u-alice", 500, 5); err != nil {
			t.Fatalf("first offset: %v", err)
		}
		if err := fix.svc.SetOffset(ctx, "u-alice", -200, 0); err != nil {
			t.Fatalf("second offset: %v", err)
		}

		offset, ok, err := fix.statsRepo.GetOffset(ctx, "u-alice")
		if err != nil || !ok {
			t.Fatalf("get offset: ok=%v err=%v", ok, err)
		}
		if offset.Points != -200 || offset.Units != 0 {
			t.Fatalf("offset = %d/%d, want -200/0", offset.Points, offset.Units)
		}
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		fix := newUserFixture(t)
		if err := fix.svc.SetOffset(ctx, "u-ghost", 1, 1); !errors.Is(err, ErrNotFound) {
			t.Fatalf("offset for unknown user: err = %v, want ErrNotFound", err)
		}
	})
}
