package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dcgrid/teamcomp/internal/domain/leaderboard"
	"github.com/dcgrid/teamcomp/internal/domain/systemstate"
	"github.com/dcgrid/teamcomp/internal/domain/user"
	"github.com/dcgrid/teamcomp/internal/platform/logging"
	"github.com/dcgrid/teamcomp/internal/platform/resilience"
)

// SummaryService owns the computed scoreboard snapshot. Each snapshot carries
// the write generation it was computed against; reads are served from it until
// a write bumps the generation, at which point the next read recomputes the
// full pipeline.
//
// Concurrency policy: recomputes are deduplicated through singleflight, so at
// most one runs at a time and concurrent readers arriving mid-recompute wait
// for its result rather than racing or reading half-written data. A failed
// recompute leaves the previous snapshot authoritative.
type SummaryService struct {
	aggregation *AggregationService
	state       *systemstate.Holder
	logger      *logging.Logger
	now         func() time.Time

	mu          sync.RWMutex
	snapshot    *leaderboard.Snapshot
	snapshotGen uint64

	flight resilience.SingleFlight
}

func NewSummaryService(aggregation *AggregationService, state *systemstate.Holder, logger *logging.Logger) *SummaryService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SummaryService{
		aggregation: aggregation,
		state:       state,
		logger:      logger,
		now:         time.Now,
	}
}

// Retrieve returns the current scoreboard snapshot, recomputing it when the
// cache is stale or empty.
func (s *SummaryService) Retrieve(ctx context.Context) (leaderboard.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SummaryService.Retrieve")
	defer span.End()

	state := s.state.Current()
	if !state.ReadAllowed() {
		return leaderboard.Snapshot{}, fmt.Errorf("%w: state=%s", ErrStateBlocked, state)
	}

	if cached, ok := s.fresh(); ok {
		return cached, nil
	}

	result, err, _ := s.flight.Do("summary:recompute", func() (any, error) {
		// A waiter released by an earlier flight recomputes only if another
		// write landed in between.
		if cached, ok := s.fresh(); ok {
			return cached, nil
		}
		return s.recompute(ctx)
	})
	if err != nil {
		if cached, ok := s.cached(); ok {
			s.logger.WarnContext(ctx, "scoreboard recompute failed, serving previous snapshot", "error", err)
			return cached, nil
		}
		return leaderboard.Snapshot{}, fmt.Errorf("%w: recompute failed: %v", ErrNoDataAvailable, err)
	}

	return result.(leaderboard.Snapshot), nil
}

func (s *SummaryService) recompute(ctx context.Context) (leaderboard.Snapshot, error) {
	// The generation is read before the repos, so a write committing while
	// Overview runs leaves the stored snapshot marked stale.
	generation := s.state.WriteGeneration()

	teams, byCategory, statsByUser, err := s.aggregation.Overview(ctx)
	if err != nil {
		return leaderboard.Snapshot{}, err
	}

	snapshot := leaderboard.Snapshot{
		Teams:      RankTeams(teams),
		Categories: RankCategories(byCategory),
		ComputedAt: s.now().UTC(),
		UserStats:  statsByUser,
	}

	s.mu.Lock()
	s.snapshot = &snapshot
	s.snapshotGen = generation
	s.mu.Unlock()

	// Clears the stale flag only when no write landed during Overview, and
	// never steals UPDATING_STATS from an in-flight sweep.
	s.state.AcknowledgeWrites(generation)

	return snapshot, nil
}

// fresh returns the snapshot when it reflects every write flagged so far.
func (s *SummaryService) fresh() (leaderboard.Snapshot, bool) {
	generation := s.state.WriteGeneration()
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil || s.snapshotGen != generation {
		return leaderboard.Snapshot{}, false
	}
	return *s.snapshot, true
}

func (s *SummaryService) cached() (leaderboard.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return leaderboard.Snapshot{}, false
	}
	return *s.snapshot, true
}

// Invalidate drops the snapshot outright. Used by competition reset; normal
// writes rely on the WRITE_EXECUTED flag instead.
func (s *SummaryService) Invalidate() {
	s.mu.Lock()
	s.snapshot = nil
	s.mu.Unlock()
}

// TeamLeaderboard returns the ranked team table.
func (s *SummaryService) TeamLeaderboard(ctx context.Context) ([]leaderboard.TeamEntry, error) {
	snapshot, err := s.Retrieve(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.Teams, nil
}

// CategoryLeaderboard returns the ranked users per category, every category
// present.
func (s *SummaryService) CategoryLeaderboard(ctx context.Context) (map[user.Category][]leaderboard.UserCategoryEntry, error) {
	snapshot, err := s.Retrieve(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.Categories, nil
}
