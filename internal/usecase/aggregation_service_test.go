package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/dcgrid/teamcomp/internal/domain/hardware"
	"github.com/dcgrid/teamcomp/internal/domain/stats"
	"github.com/dcgrid/teamcomp/internal/domain/team"
	"github.com/dcgrid/teamcomp/internal/domain/user"
	"github.com/dcgrid/teamcomp/internal/infrastructure/repository/memory"
	"github.com/dcgrid/teamcomp/internal/platform/logging"
)

type aggregationFixture struct {
	svc       *AggregationService
	statsRepo *memory.StatsRepository
	userRepo  *memory.UserRepository
}

func newAggregationFixture(t *testing.T) aggregationFixture {
	t.Helper()

	teamRepo := memory.NewTeamRepository([]team.Team{
		{ID: "t-1", Name: "Crunchers"},
		{ID: "t-2", Name: "Idle Hands"},
	})
	hardwareRepo := memory.NewHardwareRepository([]hardware.Hardware{
		{ID: "hw-amd", DisplayName: "RX 7900", Multiplier: 1.0},
		{ID: "hw-nv", DisplayName: "RTX 4090", Multiplier: 2.0},
	})
	userRepo := memory.NewUserRepository([]user.User{
		{ID: "u-1", DisplayName: "alice", Passkey: "abcdef1234567890", Category: user.CategoryAMDGPU, HardwareID: "hw-amd", TeamID: "t-1", IsCaptain: true},
		{ID: "u-2", DisplayName: "bob", Passkey: "abcdef1234567890", Category: user.CategoryNvidiaGPU, HardwareID: "hw-nv", TeamID: "t-1"},
		{ID: "u-3", DisplayName: "carol", Passkey: "abcdef1234567890", Category: user.CategoryWildcard, HardwareID: "hw-amd", TeamID: "t-2"},
	})
	statsRepo := memory.NewStatsRepository()

	points := NewPointsService(statsRepo, hardwareRepo, logging.NewNop())
	svc := NewAggregationService(teamRepo, userRepo, statsRepo, hardwareRepo, points, logging.NewNop())

	return aggregationFixture{svc: svc, statsRepo: statsRepo, userRepo: userRepo}
}

func TestOverview(t *testing.T) {
	ctx := context.Background()

	t.Run("every category present even when empty", func(t *testing.T) {
		fix := newAggregationFixture(t)
		_, byCategory, _, err := fix.svc.Overview(ctx)
		if err != nil {
			t.Fatalf("overview: %v", err)
		}
		for _, category := range user.AllCategories() {
			if _, ok := byCategory[category]; !ok {
				t.Fatalf("category %s missing", category)
			}
		}
	})

	t.Run("team totals include retired ledger", func(t *testing.T) {
		fix := newAggregationFixture(t)
		_ = fix.statsRepo.SetLatestRaw(ctx, "u-1", stats.RawStats{Points: 1000, Units: 10})
		_ = fix.statsRepo.AppendRetired(ctx, stats.RetiredUserTcStats{
			ID: "r-1", TeamID: "t-1", UserID: "u-old", DisplayName: "old-timer",
			Points: 500, MultipliedPoints: 750, Units: 5, RetiredAt: time.Now().UTC(),
		})

		summaries, _, _, err := fix.svc.Overview(ctx)
		if err != nil {
			t.Fatalf("overview: %v", err)
		}

		var crunchers *leaderboardTeamSummary
		for idx := range summaries {
			if summaries[idx].TeamID == "t-1" {
				crunchers = &leaderboardTeamSummary{summaries[idx].TotalPoints, summaries[idx].TotalMultipliedPoints, summaries[idx].TotalUnits, len(summaries[idx].RetiredUsers)}
			}
		}
		if crunchers == nil {
			t.Fatal("team t-1 missing from overview")
		}
		if crunchers.points != 1500 || crunchers.multiplied != 1750 || crunchers.units != 15 {
			t.Fatalf("unexpected totals with retired ledger: %+v", crunchers)
		}
		if crunchers.retired != 1 {
			t.Fatalf("expected one retired record, got %d", crunchers.retired)
		}
	})

	t.Run("captain name resolved from roster", func(t *testing.T) {
		fix := newAggregationFixture(t)
		summaries, _, _, err := fix.svc.Overview(ctx)
		if err != nil {
			t.Fatalf("overview: %v", err)
		}
		for _, summary := range summaries {
			if summary.TeamID == "t-1" && summary.CaptainName != "alice" {
				t.Fatalf("unexpected captain: %q", summary.CaptainName)
			}
		}
	})

	t.Run("within-team rank orders by multiplied points, join order breaks ties", func(t *testing.T) {
		fix := newAggregationFixture(t)
		// bob's doubled multiplier beats alice on equal raw deltas.
		_ = fix.statsRepo.SetLatestRaw(ctx, "u-1", stats.RawStats{Points: 1000})
		_ = fix.statsRepo.SetLatestRaw(ctx, "u-2", stats.RawStats{Points: 1000})

		summaries, _, _, err := fix.svc.Overview(ctx)
		if err != nil {
			t.Fatalf("overview: %v", err)
		}
		for _, summary := range summaries {
			if summary.TeamID != "t-1" {
				continue
			}
			if summary.ActiveUsers[0].UserID != "u-2" || summary.ActiveUsers[0].RankInTeam != 1 {
				t.Fatalf("unexpected team leader: %+v", summary.ActiveUsers[0])
			}
			if summary.ActiveUsers[1].UserID != "u-1" || summary.ActiveUsers[1].RankInTeam != 2 {
				t.Fatalf("unexpected second member: %+v", summary.ActiveUsers[1])
			}
		}
	})

	t.Run("misconfigured user is skipped, not fatal", func(t *testing.T) {
		fix := newAggregationFixture(t)
		_ = fix.userRepo.Upsert(ctx, user.User{
			ID: "u-broken", DisplayName: "broken", Passkey: "abcdef1234567890",
			Category: user.CategoryWildcard, HardwareID: "hw-missing", TeamID: "t-2",
		})

		summaries, _, _, err := fix.svc.Overview(ctx)
		if err != nil {
			t.Fatalf("overview should tolerate misconfigured users: %v", err)
		}
		for _, summary := range summaries {
			if summary.TeamID != "t-2" {
				continue
			}
			for _, active := range summary.ActiveUsers {
				if active.UserID == "u-broken" {
					t.Fatal("misconfigured user must not appear in summaries")
				}
			}
		}
	})
}

type leaderboardTeamSummary struct {
	points     int64
	multiplied int64
	units      int64
	retired    int
}
