package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dcgrid/teamcomp/internal/domain/stats"
	"github.com/dcgrid/teamcomp/internal/domain/systemstate"
	"github.com/dcgrid/teamcomp/internal/domain/user"
	idgen "github.com/dcgrid/teamcomp/internal/platform/id"
	"github.com/dcgrid/teamcomp/internal/platform/logging"
)

// RetirementService freezes a departing member's contribution so it keeps
// counting toward the team total without ever growing again. The retired
// ledger is append-only; there is no reinstate. A returning user is created
// fresh with a new baseline and their old record stays put.
type RetirementService struct {
	userRepo  user.Repository
	statsRepo stats.Repository
	points    *PointsService
	state     *systemstate.Holder
	ids       idgen.Generator
	logger    *logging.Logger
	now       func() time.Time
}

func NewRetirementService(
	userRepo user.Repository,
	statsRepo stats.Repository,
	points *PointsService,
	state *systemstate.Holder,
	ids idgen.Generator,
	logger *logging.Logger,
) *RetirementService {
	if logger == nil {
		logger = logging.Default()
	}
	return &RetirementService{
		userRepo:  userRepo,
		statsRepo: statsRepo,
		points:    points,
		state:     state,
		ids:       ids,
		logger:    logger,
		now:       time.Now,
	}
}

// RetireUser removes a user from their team and appends their last computed
// stats to the retired ledger in the same pass, so the frozen values match
// what was last displayed.
func (s *RetirementService) RetireUser(ctx context.Context, teamID, userID string) (stats.RetiredUserTcStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RetirementService.RetireUser")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	userID = strings.TrimSpace(userID)
	if teamID == "" || userID == "" {
		return stats.RetiredUserTcStats{}, fmt.Errorf("%w: team id and user id are required", ErrInvalidInput)
	}

	if !s.state.Current().WriteAllowed() {
		return stats.RetiredUserTcStats{}, fmt.Errorf("%w: state=%s", ErrStateBlocked, s.state.Current())
	}

	item, exists, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return stats.RetiredUserTcStats{}, fmt.Errorf("get user for retirement: %w", err)
	}
	if !exists || item.TeamID != teamID {
		return stats.RetiredUserTcStats{}, fmt.Errorf("%w: user=%s team=%s", ErrNotFound, userID, teamID)
	}

	current, err := s.points.ComputeUserStats(ctx, item)
	if err != nil {
		return stats.RetiredUserTcStats{}, fmt.Errorf("compute stats for retirement user=%s: %w", userID, err)
	}

	record, err := s.freeze(item, current)
	if err != nil {
		return stats.RetiredUserTcStats{}, err
	}

	// The user leaves the roster before the ledger row lands. A ledger row
	// next to a still-active user would count the contribution twice.
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return stats.RetiredUserTcStats{}, fmt.Errorf("remove retiring user=%s: %w", userID, err)
	}
	if err := s.statsRepo.AppendRetired(ctx, record); err != nil {
		if restoreErr := s.userRepo.Upsert(ctx, item); restoreErr != nil {
			s.logger.ErrorContext(ctx, "restore user after failed retirement",
				"user_id", userID,
				"error", restoreErr,
			)
		}
		return stats.RetiredUserTcStats{}, fmt.Errorf("append retired record user=%s: %w", userID, err)
	}

	if err := s.state.Advance(systemstate.StateWriteExecuted); err != nil {
		return stats.RetiredUserTcStats{}, fmt.Errorf("mark write executed: %w", err)
	}

	s.logger.InfoContext(ctx, "user retired",
		"user_id", userID,
		"team_id", teamID,
		"points", record.Points,
		"multiplied_points", record.MultipliedPoints,
		"units", record.Units,
	)

	return record, nil
}

// freeze captures the supplied stats verbatim. The record never touches live
// raw counters again.
func (s *RetirementService) freeze(item user.User, current stats.UserTcStats) (stats.RetiredUserTcStats, error) {
	recordID, err := s.ids.NewID()
	if err != nil {
		return stats.RetiredUserTcStats{}, fmt.Errorf("mint retired record id: %w", err)
	}

	return stats.RetiredUserTcStats{
		ID:               recordID,
		TeamID:           item.TeamID,
		UserID:           item.ID,
		DisplayName:      item.DisplayName,
		Points:           current.Points,
		MultipliedPoints: current.MultipliedPoints,
		Units:            current.Units,
		RetiredAt:        s.now().UTC(),
	}, nil
}
