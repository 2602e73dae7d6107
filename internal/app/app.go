package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dcgrid/teamcomp/internal/config"
	"github.com/dcgrid/teamcomp/internal/domain/hardware"
	"github.com/dcgrid/teamcomp/internal/domain/stats"
	"github.com/dcgrid/teamcomp/internal/domain/systemstate"
	"github.com/dcgrid/teamcomp/internal/domain/team"
	"github.com/dcgrid/teamcomp/internal/domain/user"
	"github.com/dcgrid/teamcomp/internal/infrastructure/repository/memory"
	"github.com/dcgrid/teamcomp/internal/infrastructure/repository/postgres"
	"github.com/dcgrid/teamcomp/internal/infrastructure/source/statsapi"
	"github.com/dcgrid/teamcomp/internal/interfaces/httpapi"
	"github.com/dcgrid/teamcomp/internal/platform/cache"
	idgen "github.com/dcgrid/teamcomp/internal/platform/id"
	"github.com/dcgrid/teamcomp/internal/platform/logging"
	"github.com/dcgrid/teamcomp/internal/platform/resilience"
	"github.com/dcgrid/teamcomp/internal/usecase"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// App holds the wired service graph plus the background sweep loop.
type App struct {
	Server *http.Server

	cfg     config.Config
	logger  *slog.Logger
	state   *systemstate.Holder
	sweeps  *usecase.SyncService
	history *cache.Store
	db      *sqlx.DB

	stop chan struct{}
	wg   sync.WaitGroup
}

type repositories struct {
	teams    team.Repository
	users    user.Repository
	hardware hardware.Repository
	stats    stats.Repository
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	zlog := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(zlog)

	state := systemstate.NewHolder()

	repos, db, err := buildRepositories(cfg)
	if err != nil {
		return nil, err
	}

	source := statsapi.NewClient(statsapi.ClientConfig{
		HTTPClient: &http.Client{Timeout: cfg.StatsTimeout},
		BaseURL:    cfg.StatsBaseURL,
		Timeout:    cfg.StatsTimeout,
		MaxRetries: cfg.StatsMaxRetries,
		Logger:     zlog,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.StatsCircuitEnabled,
			FailureThreshold: cfg.StatsCircuitFailureCount,
			OpenTimeout:      cfg.StatsCircuitOpenTimeout,
			ProbeBudget:      cfg.StatsCircuitProbeBudget,
		},
	})

	var historyCache *cache.Store
	if cfg.CacheEnabled {
		historyCache = cache.NewStore(cfg.CacheTTL)
	}

	pointsSvc := usecase.NewPointsService(repos.stats, repos.hardware, zlog)
	aggregationSvc := usecase.NewAggregationService(repos.teams, repos.users, repos.stats, repos.hardware, pointsSvc, zlog)
	summarySvc := usecase.NewSummaryService(aggregationSvc, state, zlog)
	historicSvc := usecase.NewHistoricService(repos.users, repos.stats)
	retirementSvc := usecase.NewRetirementService(repos.users, repos.stats, pointsSvc, state, idgen.NewRandomGenerator(), zlog)
	syncSvc := usecase.NewSyncService(repos.users, repos.stats, repos.hardware, source, state, cfg.SweepWorkers, zlog)
	resetSvc := usecase.NewResetService(repos.users, repos.stats, summarySvc, historyCache, state, zlog)
	teamSvc := usecase.NewTeamService(repos.teams, repos.users, state)
	userSvc := usecase.NewUserService(repos.users, repos.teams, repos.hardware, repos.stats, source, state, zlog)
	hardwareSvc := usecase.NewHardwareService(repos.hardware, repos.users, state)

	handler := httpapi.NewHandler(
		teamSvc,
		userSvc,
		hardwareSvc,
		summarySvc,
		historicSvc,
		retirementSvc,
		syncSvc,
		resetSvc,
		state,
		historyCache,
		logger,
	)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Boot is complete once the graph is wired; reads and writes open up here.
	if err := state.Advance(systemstate.StateAvailable); err != nil {
		return nil, err
	}

	return &App{
		Server:  server,
		cfg:     cfg,
		logger:  logger,
		state:   state,
		sweeps:  syncSvc,
		history: historyCache,
		db:      db,
		stop:    make(chan struct{}),
	}, nil
}

func buildRepositories(cfg config.Config) (repositories, *sqlx.DB, error) {
	if cfg.StorageDriver == config.StorageMemory {
		return repositories{
			teams:    memory.NewTeamRepository(nil),
			users:    memory.NewUserRepository(nil),
			hardware: memory.NewHardwareRepository(nil),
			stats:    memory.NewStatsRepository(),
		}, nil, nil
	}

	db, err := sqlx.Open("postgres", normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary))
	if err != nil {
		return repositories{}, nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxOpenConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return repositories{}, nil, fmt.Errorf("ping postgres: %w", err)
	}

	return repositories{
		teams:    postgres.NewTeamRepository(db),
		users:    postgres.NewUserRepository(db),
		hardware: postgres.NewHardwareRepository(db),
		stats:    postgres.NewStatsRepository(db),
	}, db, nil
}

// Start launches the periodic poll sweep. It is a no-op when sweeping is
// disabled.
func (a *App) Start() {
	if !a.cfg.SweepEnabled {
		return
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ticker := time.NewTicker(a.cfg.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-a.stop:
				return
			case <-ticker.C:
				a.runSweep()
			}
		}
	}()
}

func (a *App) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.SweepInterval)
	defer cancel()

	result, err := a.sweeps.Sweep(ctx)
	if err != nil {
		a.logger.Warn("scheduled sweep skipped", "error", err)
		return
	}
	if a.history != nil {
		a.history.DeletePrefix(ctx, "history:")
	}
	a.logger.Info("scheduled sweep finished",
		"users", result.Users,
		"updated", result.Updated,
		"failed", result.Failed,
		"duration_ms", result.Duration.Milliseconds(),
	)
}

// Shutdown stops the sweep loop, drains the HTTP server and closes the
// database pool.
func (a *App) Shutdown(ctx context.Context) error {
	close(a.stop)
	a.wg.Wait()

	err := a.Server.Shutdown(ctx)
	if a.db != nil {
		if closeErr := a.db.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}
