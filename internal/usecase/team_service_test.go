package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/dcgrid/teamcomp/internal/domain/systemstate"
	"github.com/dcgrid/teamcomp/internal/domain/team"
	"github.com/dcgrid/teamcomp/internal/domain/user"
	"github.com/dcgrid/teamcomp/internal/infrastructure/repository/memory"
)

func newTeamFixture(t *testing.T, users []user.User) (*TeamService, *systemstate.Holder) {
	t.Helper()

	teamRepo := memory.NewTeamRepository([]team.Team{
		{ID: "t-1", Name: "Crunchers"},
		{ID: "t-2", Name: "Folders"},
	})
	userRepo := memory.NewUserRepository(users)

	state := systemstate.NewHolder()
	if err := state.Advance(systemstate.StateAvailable); err != nil {
		t.Fatalf("advance to available: %v", err)
	}

	return NewTeamService(teamRepo, userRepo, state), state
}

func TestTeamService(t *testing.T) {
	ctx := context.Background()

	t.Run("get returns a seeded team", func(t *testing.T) {
		svc, _ := newTeamFixture(t, nil)
		item, err := svc.GetByID(ctx, "t-1")
		if err != nil {
			t.Fatalf("get team: %v", err)
		}
		if item.Name != "Crunchers" {
			t.Fatalf("team name = %q, want Crunchers", item.Name)
		}
	})

	t.Run("get unknown team is not found", func(t *testing.T) {
		svc, _ := newTeamFixture(t, nil)
		if _, err := svc.GetByID(ctx, "t-missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("upsert validates and flags the write", func(t *testing.T) {
		svc, state := newTeamFixture(t, nil)
		if err := svc.Upsert(ctx, team.Team{ID: "t-3"}); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("upsert nameless team: err = %v, want ErrInvalidInput", err)
		}

		if err := svc.Upsert(ctx, team.Team{ID: "t-3", Name: "Boilers"}); err != nil {
			t.Fatalf("upsert team: %v", err)
		}
		if got := state.Current(); got != systemstate.StateWriteExecuted {
			t.Fatalf("state after upsert = %s, want %s", got, systemstate.StateWriteExecuted)
		}
		if _, err := svc.GetByID(ctx, "t-3"); err != nil {
			t.Fatalf("get upserted team: %v", err)
		}
	})

	t.Run("delete refuses a team with members", func(t *testing.T) {
		svc, _ := newTeamFixture(t, []user.User{
			{
				ID:          "u-1",
				DisplayName: "alice",
				Passkey:     "alicepasskey",
				Category:    user.CategoryAMDGPU,
				HardwareID:  "hw-1",
				TeamID:      "t-1",
			},
		})

		err := svc.Delete(ctx, "t-1")
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("delete populated team: err = %v, want ErrInvalidInput", err)
		}
		if _, err := svc.GetByID(ctx, "t-1"); err != nil {
			t.Fatalf("team should survive the refused delete: %v", err)
		}
	})

	t.Run("delete removes an empty team", func(t *testing.T) {
		svc, state := newTeamFixture(t, nil)
		if err := svc.Delete(ctx, "t-2"); err != nil {
			t.Fatalf("delete empty team: %v", err)
		}
		if _, err := svc.GetByID(ctx, "t-2"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("deleted team still resolves: err = %v", err)
		}
		if got := state.Current(); got != systemstate.StateWriteExecuted {
			t.Fatalf("state after delete = %s, want %s", got, systemstate.StateWriteExecuted)
		}
	})

	t.Run("writes blocked while resetting", func(t *testing.T) {
		svc, state := newTeamFixture(t, nil)
		if err := state.Advance(systemstate.StateResettingStats); err != nil {
			t.Fatalf("advance to resetting: %v", err)
		}
		if err := svc.Upsert(ctx, team.Team{ID: "t-9", Name: "Latecomers"}); !errors.Is(err, ErrStateBlocked) {
			t.Fatalf("upsert during reset: err = %v, want ErrStateBlocked", err)
		}
	})
}
