package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/dcgrid/teamcomp/internal/domain/stats"
	"github.com/dcgrid/teamcomp/internal/domain/user"
	"github.com/dcgrid/teamcomp/internal/infrastructure/repository/memory"
)

func hourAt(day, hour int) time.Time {
	return time.Date(2026, time.August, day, hour, 0, 0, 0, time.UTC)
}

func TestCombineSeries(t *testing.T) {
	t.Run("exact timestamps sum, others pass through", func(t *testing.T) {
		a := []stats.HistoricPoint{
			{Timestamp: hourAt(1, 10), Points: 100, MultipliedPoints: 150, Units: 1},
			{Timestamp: hourAt(1, 12), Points: 50, MultipliedPoints: 75, Units: 1},
		}
		b := []stats.HistoricPoint{
			{Timestamp: hourAt(1, 10), Points: 40, MultipliedPoints: 40, Units: 2},
		}

		got := CombineSeries(a, b)
		if len(got) != 2 {
			t.Fatalf("unexpected length: got=%d want=2", len(got))
		}
		if got[0].Timestamp != hourAt(1, 10) || got[0].Points != 140 || got[0].MultipliedPoints != 190 || got[0].Units != 3 {
			t.Fatalf("unexpected merged bucket: %+v", got[0])
		}
		// No forward-fill: the 12:00 bucket carries only series a's value.
		if got[1].Timestamp != hourAt(1, 12) || got[1].Points != 50 {
			t.Fatalf("unexpected passthrough bucket: %+v", got[1])
		}
	})

	t.Run("same instant in another location merges into one bucket", func(t *testing.T) {
		plusTwo := time.FixedZone("UTC+2", 2*60*60)
		a := []stats.HistoricPoint{
			{Timestamp: hourAt(1, 10), Points: 100, Units: 1},
		}
		b := []stats.HistoricPoint{
			// 12:00 at UTC+2 is the same instant as 10:00 UTC.
			{Timestamp: time.Date(2026, time.August, 1, 12, 0, 0, 0, plusTwo), Points: 40, Units: 2},
		}

		got := CombineSeries(a, b)
		if len(got) != 1 {
			t.Fatalf("same instant split across buckets: %+v", got)
		}
		if !got[0].Timestamp.Equal(hourAt(1, 10)) || got[0].Points != 140 || got[0].Units != 3 {
			t.Fatalf("unexpected merged bucket: %+v", got[0])
		}
	})

	t.Run("output sorted ascending regardless of input order", func(t *testing.T) {
		series := []stats.HistoricPoint{
			{Timestamp: hourAt(2, 8), Points: 3},
			{Timestamp: hourAt(1, 8), Points: 1},
			{Timestamp: hourAt(1, 20), Points: 2},
		}

		got := CombineSeries(series)
		for idx := 1; idx < len(got); idx++ {
			if !got[idx-1].Timestamp.Before(got[idx].Timestamp) {
				t.Fatalf("output not sorted at %d: %+v", idx, got)
			}
		}
	})

	t.Run("duplicate timestamps within one series are additive", func(t *testing.T) {
		series := []stats.HistoricPoint{
			{Timestamp: hourAt(1, 10), Points: 10},
			{Timestamp: hourAt(1, 10), Points: 5},
		}
		got := CombineSeries(series)
		if len(got) != 1 || got[0].Points != 15 {
			t.Fatalf("unexpected merge: %+v", got)
		}
	})

	t.Run("combining is idempotent for disjoint series", func(t *testing.T) {
		a := []stats.HistoricPoint{{Timestamp: hourAt(1, 1), Points: 7}}
		once := CombineSeries(a)
		twice := CombineSeries(once)
		if len(twice) != 1 || twice[0] != once[0] {
			t.Fatalf("recombining changed the series: %+v vs %+v", once, twice)
		}
	})
}

func TestRebucket(t *testing.T) {
	hourly := []stats.HistoricPoint{
		{Timestamp: hourAt(1, 9), Points: 10, Units: 1},
		{Timestamp: hourAt(1, 17), Points: 20, Units: 2},
		{Timestamp: hourAt(2, 3), Points: 5, Units: 1},
	}

	t.Run("hour keeps buckets", func(t *testing.T) {
		got := Rebucket(hourly, GranularityHour)
		if len(got) != 3 {
			t.Fatalf("unexpected length: got=%d want=3", len(got))
		}
	})

	t.Run("day collapses to midnight buckets", func(t *testing.T) {
		got := Rebucket(hourly, GranularityDay)
		if len(got) != 2 {
			t.Fatalf("unexpected length: got=%d want=2", len(got))
		}
		if got[0].Timestamp != hourAt(1, 0) || got[0].Points != 30 || got[0].Units != 3 {
			t.Fatalf("unexpected day bucket: %+v", got[0])
		}
	})

	t.Run("month collapses to first-of-month", func(t *testing.T) {
		got := Rebucket(hourly, GranularityMonth)
		if len(got) != 1 {
			t.Fatalf("unexpected length: got=%d want=1", len(got))
		}
		if got[0].Timestamp != time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC) || got[0].Points != 35 {
			t.Fatalf("unexpected month bucket: %+v", got[0])
		}
	})
}

func TestTeamHistoryIncludesRetiredMembers(t *testing.T) {
	ctx := context.Background()
	statsRepo := memory.NewStatsRepository()
	userRepo := memory.NewUserRepository([]user.User{
		{ID: "u-active", DisplayName: "active", Passkey: "abcdef1234567890", Category: user.CategoryAMDGPU, HardwareID: "hw-1", TeamID: "t-1"},
	})

	_ = statsRepo.AccumulateHistoric(ctx, "u-active", stats.HistoricPoint{Timestamp: hourAt(3, 10), Points: 100})
	_ = statsRepo.AccumulateHistoric(ctx, "u-gone", stats.HistoricPoint{Timestamp: hourAt(3, 10), Points: 40})
	_ = statsRepo.AppendRetired(ctx, stats.RetiredUserTcStats{ID: "r-1", TeamID: "t-1", UserID: "u-gone", DisplayName: "gone"})

	svc := NewHistoricService(userRepo, statsRepo)
	got, err := svc.TeamHistory(ctx, "t-1", GranularityHour, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("team history: %v", err)
	}
	if len(got) != 1 || got[0].Points != 140 {
		t.Fatalf("expected merged active+retired bucket of 140, got %+v", got)
	}
}

func TestUserHistoryValidation(t *testing.T) {
	svc := NewHistoricService(memory.NewUserRepository(nil), memory.NewStatsRepository())
	if _, err := svc.UserHistory(context.Background(), "  ", GranularityHour, time.Time{}, time.Time{}); err == nil {
		t.Fatal("expected blank user id to be rejected")
	}
}

func TestParseGranularity(t *testing.T) {
	for _, raw := range []string{"hour", "DAY", " month "} {
		if _, ok := ParseGranularity(raw); !ok {
			t.Fatalf("expected %q to parse", raw)
		}
	}
	if _, ok := ParseGranularity("week"); ok {
		t.Fatal("expected week to be rejected")
	}
}
