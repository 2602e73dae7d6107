package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/dcgrid/teamcomp/internal/domain/stats"
	"github.com/dcgrid/teamcomp/internal/domain/systemstate"
	"github.com/dcgrid/teamcomp/internal/domain/user"
	"github.com/dcgrid/teamcomp/internal/platform/cache"
	"github.com/dcgrid/teamcomp/internal/platform/logging"
)

// ResetService performs the full competition reset: every user's baseline
// moves up to their current raw counters, offsets and the retired ledger are
// wiped, and the scoreboard starts from zero. This is the one place the
// monotonic team-total invariant is allowed to break. RESETTING_STATS blocks
// all reads and writes for the duration.
type ResetService struct {
	userRepo  user.Repository
	statsRepo stats.Repository
	summary   *SummaryService
	viewCache *cache.Store
	state     *systemstate.Holder
	logger    *logging.Logger
	now       func() time.Time
}

func NewResetService(
	userRepo user.Repository,
	statsRepo stats.Repository,
	summary *SummaryService,
	viewCache *cache.Store,
	state *systemstate.Holder,
	logger *logging.Logger,
) *ResetService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ResetService{
		userRepo:  userRepo,
		statsRepo: statsRepo,
		summary:   summary,
		viewCache: viewCache,
		state:     state,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *ResetService) Reset(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResetService.Reset")
	defer span.End()

	if err := s.state.Advance(systemstate.StateResettingStats); err != nil {
		return fmt.Errorf("%w: %v", ErrStateBlocked, err)
	}
	defer func() {
		if err := s.state.Advance(systemstate.StateAvailable); err != nil {
			s.logger.Error("leave resetting state", "error", err)
		}
	}()

	users, err := s.userRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("list users for reset: %w", err)
	}

	capturedAt := s.now().UTC()
	for _, item := range users {
		raw, _, err := s.statsRepo.GetLatestRaw(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("get raw stats for reset user=%s: %w", item.ID, err)
		}
		if err := s.statsRepo.ReplaceBaseline(ctx, stats.BaselineStats{
			UserID:     item.ID,
			Points:     raw.Points,
			Units:      raw.Units,
			CapturedAt: capturedAt,
		}); err != nil {
			return fmt.Errorf("replace baseline user=%s: %w", item.ID, err)
		}
	}

	if err := s.statsRepo.DeleteOffsets(ctx); err != nil {
		return fmt.Errorf("delete offsets: %w", err)
	}
	if err := s.statsRepo.DeleteRetired(ctx); err != nil {
		return fmt.Errorf("delete retired ledger: %w", err)
	}

	s.summary.Invalidate()
	if s.viewCache != nil {
		s.viewCache.Flush(ctx)
	}

	s.logger.InfoContext(ctx, "competition reset complete", "users", len(users))
	return nil
}
