package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/dcgrid/teamcomp/internal/domain/hardware"
	"github.com/dcgrid/teamcomp/internal/domain/stats"
	"github.com/dcgrid/teamcomp/internal/domain/user"
	"github.com/dcgrid/teamcomp/internal/platform/logging"
)

// PointsService turns a user's raw lifetime counters into competition-scoped
// stats: baseline subtraction, manual offset, clamping, and the hardware
// multiplier.
type PointsService struct {
	statsRepo    stats.Repository
	hardwareRepo hardware.Repository
	logger       *logging.Logger
	now          func() time.Time
}

func NewPointsService(statsRepo stats.Repository, hardwareRepo hardware.Repository, logger *logging.Logger) *PointsService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PointsService{
		statsRepo:    statsRepo,
		hardwareRepo: hardwareRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// ComputeUserStats derives the current UserTcStats for one user from the
// latest stored raw counters. A missing baseline means the user is new and
// scores from zero; a missing hardware entry is a configuration fault for
// this user only.
func (s *PointsService) ComputeUserStats(ctx context.Context, item user.User) (stats.UserTcStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PointsService.ComputeUserStats")
	defer span.End()

	raw, _, err := s.statsRepo.GetLatestRaw(ctx, item.ID)
	if err != nil {
		return stats.UserTcStats{}, fmt.Errorf("get latest raw stats user=%s: %w", item.ID, err)
	}

	baseline, hasBaseline, err := s.statsRepo.GetBaseline(ctx, item.ID)
	if err != nil {
		return stats.UserTcStats{}, fmt.Errorf("get baseline user=%s: %w", item.ID, err)
	}
	if !hasBaseline {
		baseline = stats.BaselineStats{UserID: item.ID}
	}

	offset, _, err := s.statsRepo.GetOffset(ctx, item.ID)
	if err != nil {
		return stats.UserTcStats{}, fmt.Errorf("get offset user=%s: %w", item.ID, err)
	}

	hw, hasHardware, err := s.hardwareRepo.GetByID(ctx, item.HardwareID)
	if err != nil {
		return stats.UserTcStats{}, fmt.Errorf("get hardware user=%s: %w", item.ID, err)
	}
	if !hasHardware {
		return stats.UserTcStats{}, fmt.Errorf("%w: user %s resolves to no hardware entry %q", ErrConfiguration, item.ID, item.HardwareID)
	}

	result := s.normalize(ctx, item, raw, baseline, offset, hw)
	return result, nil
}

func (s *PointsService) normalize(
	ctx context.Context,
	item user.User,
	raw stats.RawStats,
	baseline stats.BaselineStats,
	offset stats.OffsetAdjustment,
	hw hardware.Hardware,
) stats.UserTcStats {
	points, pointsClamped := adjustCounter(raw.Points, baseline.Points, offset.Points)
	units, unitsClamped := adjustCounter(raw.Units, baseline.Units, offset.Units)
	if pointsClamped || unitsClamped {
		s.logger.WarnContext(ctx, "negative competition delta clamped to zero",
			"user_id", item.ID,
			"raw_points", raw.Points,
			"baseline_points", baseline.Points,
			"offset_points", offset.Points,
		)
	}

	return stats.UserTcStats{
		UserID:           item.ID,
		Points:           points,
		MultipliedPoints: stats.Multiply(points, hw.Multiplier),
		Units:            units,
		RetrievedAt:      s.now().UTC(),
	}
}

// adjustCounter applies delta-plus-offset with a floor at zero. The delta and
// the offset-adjusted total are clamped independently: an over-recorded
// baseline must not be able to push the visible total negative.
func adjustCounter(raw, baseline, offset int64) (int64, bool) {
	clamped := false

	delta := raw - baseline
	if delta < 0 {
		delta = 0
		clamped = true
	}

	total := delta + offset
	if total < 0 {
		total = 0
		clamped = true
	}

	return total, clamped
}
