package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/dcgrid/teamcomp/internal/domain/hardware"
	"github.com/dcgrid/teamcomp/internal/domain/stats"
	"github.com/dcgrid/teamcomp/internal/domain/systemstate"
	"github.com/dcgrid/teamcomp/internal/domain/user"
	"github.com/dcgrid/teamcomp/internal/platform/logging"
)

const defaultSweepWorkers = 8

// SyncService runs the periodic poll sweep: it pulls fresh raw counters for
// every tracked user from the upstream source, stores them, and appends the
// hourly deltas to each user's historic series. The sweep holds the system in
// UPDATING_STATS so writes stay out while it runs; reads keep being served
// from the cached scoreboard.
type SyncService struct {
	userRepo     user.Repository
	statsRepo    stats.Repository
	hardwareRepo hardware.Repository
	source       stats.Source
	state        *systemstate.Holder
	logger       *logging.Logger
	now          func() time.Time
	workerCount  int
}

// SweepResult summarises one poll sweep.
type SweepResult struct {
	Users    int
	Updated  int
	Failed   int
	Duration time.Duration
}

func NewSyncService(
	userRepo user.Repository,
	statsRepo stats.Repository,
	hardwareRepo hardware.Repository,
	source stats.Source,
	state *systemstate.Holder,
	workerCount int,
	logger *logging.Logger,
) *SyncService {
	if workerCount < 1 {
		workerCount = defaultSweepWorkers
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SyncService{
		userRepo:     userRepo,
		statsRepo:    statsRepo,
		hardwareRepo: hardwareRepo,
		source:       source,
		state:        state,
		logger:       logger,
		now:          time.Now,
		workerCount:  workerCount,
	}
}

// Sweep fetches and stores fresh stats for all users. Per-user failures are
// isolated and counted; the sweep itself only fails on setup problems.
func (s *SyncService) Sweep(ctx context.Context) (SweepResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.Sweep")
	defer span.End()

	start := s.now()

	entered, err := s.state.Swap(systemstate.StateUpdatingStats)
	if err != nil {
		return SweepResult{}, fmt.Errorf("%w: %v", ErrStateBlocked, err)
	}
	// A write flagged before the sweep started is still unacknowledged; the
	// sweep must not swallow it on the way out.
	pendingWrite := entered == systemstate.StateWriteExecuted

	users, err := s.userRepo.List(ctx)
	if err != nil {
		s.finishSweep(pendingWrite)
		return SweepResult{}, fmt.Errorf("list users for sweep: %w", err)
	}

	pool, err := ants.NewPool(s.workerCount)
	if err != nil {
		s.finishSweep(pendingWrite)
		return SweepResult{}, fmt.Errorf("create sweep worker pool: %w", err)
	}
	defer pool.Release()

	var updated atomic.Int32
	var failed atomic.Int32
	var workers sync.WaitGroup

	for _, item := range users {
		item := item
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			if err := s.syncUser(ctx, item); err != nil {
				failed.Add(1)
				s.logger.WarnContext(ctx, "user sweep failed",
					"user_id", item.ID,
					"passkey", user.MaskPasskey(item.Passkey),
					"error", err,
				)
				return
			}
			updated.Add(1)
		}); err != nil {
			workers.Done()
			workers.Wait()
			s.finishSweep(pendingWrite || updated.Load() > 0)
			return SweepResult{}, fmt.Errorf("submit sweep task: %w", err)
		}
	}
	workers.Wait()

	s.finishSweep(pendingWrite || updated.Load() > 0)

	result := SweepResult{
		Users:    len(users),
		Updated:  int(updated.Load()),
		Failed:   int(failed.Load()),
		Duration: s.now().Sub(start),
	}
	s.logger.InfoContext(ctx, "stats sweep finished",
		"users", result.Users,
		"updated", result.Updated,
		"failed", result.Failed,
		"duration", result.Duration.String(),
	)

	return result, nil
}

// finishSweep leaves UPDATING_STATS: to WRITE_EXECUTED when anything changed
// or a write was already pending on entry (the cached scoreboard is stale
// either way), otherwise straight back to AVAILABLE.
func (s *SyncService) finishSweep(stale bool) {
	next := systemstate.StateAvailable
	if stale {
		next = systemstate.StateWriteExecuted
	}
	if err := s.state.Advance(next); err != nil {
		s.logger.Warn("sweep state transition rejected", "next", string(next), "error", err)
	}
}

func (s *SyncService) syncUser(ctx context.Context, item user.User) error {
	fresh, err := s.source.FetchRawStats(ctx, item.ForumName, item.Passkey)
	if err != nil {
		return fmt.Errorf("fetch raw stats: %w", err)
	}

	previous, hadPrevious, err := s.statsRepo.GetLatestRaw(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("get previous raw stats: %w", err)
	}

	if err := s.statsRepo.SetLatestRaw(ctx, item.ID, fresh); err != nil {
		return fmt.Errorf("store raw stats: %w", err)
	}

	if !hadPrevious {
		// First ever observation carries no delta to bucket.
		return nil
	}

	deltaPoints := fresh.Points - previous.Points
	deltaUnits := fresh.Units - previous.Units
	if deltaPoints < 0 || deltaUnits < 0 {
		s.logger.WarnContext(ctx, "upstream counters went backwards, clamping delta to zero",
			"user_id", item.ID,
			"delta_points", deltaPoints,
			"delta_units", deltaUnits,
		)
		if deltaPoints < 0 {
			deltaPoints = 0
		}
		if deltaUnits < 0 {
			deltaUnits = 0
		}
	}
	if deltaPoints == 0 && deltaUnits == 0 {
		return nil
	}

	multiplier := 1.0
	if hw, ok, err := s.hardwareRepo.GetByID(ctx, item.HardwareID); err != nil {
		return fmt.Errorf("get hardware: %w", err)
	} else if ok {
		multiplier = hw.Multiplier
	}

	point := stats.HistoricPoint{
		Timestamp:        s.now().UTC().Truncate(time.Hour),
		Points:           deltaPoints,
		MultipliedPoints: stats.Multiply(deltaPoints, multiplier),
		Units:            deltaUnits,
	}
	if err := s.statsRepo.AccumulateHistoric(ctx, item.ID, point); err != nil {
		return fmt.Errorf("accumulate historic point: %w", err)
	}

	return nil
}
