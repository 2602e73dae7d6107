package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/dcgrid/teamcomp/internal/domain/hardware"
	"github.com/dcgrid/teamcomp/internal/domain/stats"
	"github.com/dcgrid/teamcomp/internal/domain/systemstate"
	"github.com/dcgrid/teamcomp/internal/domain/team"
	"github.com/dcgrid/teamcomp/internal/domain/user"
	"github.com/dcgrid/teamcomp/internal/infrastructure/repository/memory"
	"github.com/dcgrid/teamcomp/internal/platform/cache"
	idgen "github.com/dcgrid/teamcomp/internal/platform/id"
	"github.com/dcgrid/teamcomp/internal/usecase"
)

const testJobToken = "job-token"

type staticSource struct{}

func (staticSource) FetchRawStats(context.Context, string, string) (stats.RawStats, error) {
	return stats.RawStats{Points: 1000, Units: 10}, nil
}

type apiFixture struct {
	router http.Handler
	state  *systemstate.Holder
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	teamRepo := memory.NewTeamRepository([]team.Team{
		{ID: "t-1", Name: "Crunchers"},
	})
	hardwareRepo := memory.NewHardwareRepository([]hardware.Hardware{
		{ID: "hw-1", DisplayName: "RX 7900", Multiplier: 1.0},
	})
	userRepo := memory.NewUserRepository([]user.User{
		{
			ID:          "u-alice",
			DisplayName: "alice",
			ForumName:   "alice",
			Passkey:     "alicepasskey1234",
			Category:    user.CategoryAMDGPU,
			HardwareID:  "hw-1",
			TeamID:      "t-1",
		},
	})
	statsRepo := memory.NewStatsRepository()

	state := systemstate.NewHolder()
	if err := state.Advance(systemstate.StateAvailable); err != nil {
		t.Fatalf("advance to available: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	source := staticSource{}
	historyCache := cache.NewStore(time.Minute)

	points := usecase.NewPointsService(statsRepo, hardwareRepo, nil)
	aggregation := usecase.NewAggregationService(teamRepo, userRepo, statsRepo, hardwareRepo, points, nil)
	summary := usecase.NewSummaryService(aggregation, state, nil)
	historic := usecase.NewHistoricService(userRepo, statsRepo)
	retirement := usecase.NewRetirementService(userRepo, statsRepo, points, state, idgen.NewRandomGenerator(), nil)
	syncSvc := usecase.NewSyncService(userRepo, statsRepo, hardwareRepo, source, state, 2, nil)
	reset := usecase.NewResetService(userRepo, statsRepo, summary, historyCache, state, nil)
	teamSvc := usecase.NewTeamService(teamRepo, userRepo, state)
	userSvc := usecase.NewUserService(userRepo, teamRepo, hardwareRepo, statsRepo, source, state, nil)
	hardwareSvc := usecase.NewHardwareService(hardwareRepo, userRepo, state)

	handler := NewHandler(teamSvc, userSvc, hardwareSvc, summary, historic, retirement, syncSvc, reset, state, historyCache, logger)
	router := NewRouter(handler, logger, []string{"*"}, testJobToken)

	return &apiFixture{router: router, state: state}
}

func (f *apiFixture) do(t *testing.T, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for key, value := range header {
		req.Header.Set(key, value)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) googleResponseEnvelope {
	t.Helper()
	var envelope googleResponseEnvelope
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	if envelope.APIVersion != googleAPIVersion {
		t.Fatalf("apiVersion = %q, want %q", envelope.APIVersion, googleAPIVersion)
	}
	return envelope
}

func TestHealthz(t *testing.T) {
	fix := newAPIFixture(t)
	rec := fix.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	decodeEnvelope(t, rec)
}

func TestGetSystemState(t *testing.T) {
	fix := newAPIFixture(t)
	rec := fix.do(t, http.MethodGet, "/v1/system/state", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, string(systemstate.StateAvailable)) {
		t.Fatalf("body %q does not carry the current state", body)
	}
}

func TestTeamEndpoints(t *testing.T) {
	t.Run("get unknown team maps to 404", func(t *testing.T) {
		fix := newAPIFixture(t)
		rec := fix.do(t, http.MethodGet, "/v1/teams/t-missing", "", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
		envelope := decodeEnvelope(t, rec)
		if envelope.Error == nil || envelope.Error.Status != "NOT_FOUND" {
			t.Fatalf("error body = %+v, want NOT_FOUND", envelope.Error)
		}
	})

	t.Run("upsert then get round trips", func(t *testing.T) {
		fix := newAPIFixture(t)
		rec := fix.do(t, http.MethodPut, "/v1/teams/t-2",
			`{"id": "t-2", "name": "Folders"}`, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("upsert status = %d, body %s", rec.Code, rec.Body.String())
		}

		rec = fix.do(t, http.MethodGet, "/v1/teams/t-2", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("get status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Folders") {
			t.Fatalf("body %q missing the team name", rec.Body.String())
		}
	})

	t.Run("unknown body fields are rejected", func(t *testing.T) {
		fix := newAPIFixture(t)
		rec := fix.do(t, http.MethodPut, "/v1/teams/t-2",
			`{"id": "t-2", "name": "Folders", "rank": 1}`, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestReadsBlockedWhileResetting(t *testing.T) {
	fix := newAPIFixture(t)
	if err := fix.state.Advance(systemstate.StateResettingStats); err != nil {
		t.Fatalf("advance to resetting: %v", err)
	}

	rec := fix.do(t, http.MethodGet, "/v1/scoreboard", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "5" {
		t.Fatalf("Retry-After = %q, want 5", got)
	}
	envelope := decodeEnvelope(t, rec)
	if envelope.Error == nil || envelope.Error.Errors[0].Reason != "stateBlocked" {
		t.Fatalf("error body = %+v, want stateBlocked", envelope.Error)
	}
}

func TestInternalJobRoutes(t *testing.T) {
	t.Run("missing token is unauthorized", func(t *testing.T) {
		fix := newAPIFixture(t)
		rec := fix.do(t, http.MethodPost, "/v1/internal/jobs/sweep", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("wrong token is unauthorized", func(t *testing.T) {
		fix := newAPIFixture(t)
		rec := fix.do(t, http.MethodPost, "/v1/internal/jobs/sweep", "",
			map[string]string{"X-Internal-Job-Token": "guess"})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid token runs the sweep", func(t *testing.T) {
		fix := newAPIFixture(t)
		rec := fix.do(t, http.MethodPost, "/v1/internal/jobs/sweep", "",
			map[string]string{"X-Internal-Job-Token": testJobToken})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), `"updated":1`) {
			t.Fatalf("body %q missing the sweep result", rec.Body.String())
		}
	})

	t.Run("valid token runs the reset", func(t *testing.T) {
		fix := newAPIFixture(t)
		rec := fix.do(t, http.MethodPost, "/v1/internal/jobs/reset", "",
			map[string]string{"X-Internal-Job-Token": testJobToken})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if got := fix.state.Current(); got != systemstate.StateAvailable {
			t.Fatalf("state after reset = %s, want %s", got, systemstate.StateAvailable)
		}
	})
}

func TestScoreboard(t *testing.T) {
	fix := newAPIFixture(t)

	rec := fix.do(t, http.MethodGet, "/v1/scoreboard", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Crunchers") {
		t.Fatalf("body %q missing the seeded team", body)
	}
	if strings.Contains(body, "alicepasskey1234") {
		t.Fatal("full passkey leaked into the scoreboard payload")
	}
}
