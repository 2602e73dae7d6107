package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dcgrid/teamcomp/internal/domain/hardware"
	"github.com/dcgrid/teamcomp/internal/domain/stats"
	"github.com/dcgrid/teamcomp/internal/domain/systemstate"
	"github.com/dcgrid/teamcomp/internal/domain/team"
	"github.com/dcgrid/teamcomp/internal/domain/user"
	"github.com/dcgrid/teamcomp/internal/platform/logging"
)

// UserService owns the user write path: creation (which captures the scoring
// baseline), hardware/category changes, and manual offset corrections.
type UserService struct {
	userRepo     user.Repository
	teamRepo     team.Repository
	hardwareRepo hardware.Repository
	statsRepo    stats.Repository
	source       stats.Source
	state        *systemstate.Holder
	logger       *logging.Logger
	now          func() time.Time
}

func NewUserService(
	userRepo user.Repository,
	teamRepo team.Repository,
	hardwareRepo hardware.Repository,
	statsRepo stats.Repository,
	source stats.Source,
	state *systemstate.Holder,
	logger *logging.Logger,
) *UserService {
	if logger == nil {
		logger = logging.Default()
	}
	return &UserService{
		userRepo:     userRepo,
		teamRepo:     teamRepo,
		hardwareRepo: hardwareRepo,
		statsRepo:    statsRepo,
		source:       source,
		state:        state,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *UserService) List(ctx context.Context) ([]user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.List")
	defer span.End()

	items, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return items, nil
}

func (s *UserService) GetByID(ctx context.Context, userID string) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.GetByID")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return user.User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	item, exists, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, fmt.Errorf("get user: %w", err)
	}
	if !exists {
		return user.User{}, fmt.Errorf("%w: user=%s", ErrNotFound, userID)
	}

	return item, nil
}

// Create registers a new tracked user and snapshots their current raw
// counters as the competition baseline. The baseline is written exactly once
// here and never mutated afterwards.
func (s *UserService) Create(ctx context.Context, item user.User) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.Create")
	defer span.End()

	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !s.state.Current().WriteAllowed() {
		return fmt.Errorf("%w: state=%s", ErrStateBlocked, s.state.Current())
	}

	if err := s.checkReferences(ctx, item); err != nil {
		return err
	}

	if _, exists, err := s.userRepo.GetByID(ctx, item.ID); err != nil {
		return fmt.Errorf("check existing user: %w", err)
	} else if exists {
		return fmt.Errorf("%w: user %s already exists", ErrInvalidInput, item.ID)
	}

	raw, err := s.source.FetchRawStats(ctx, item.ForumName, item.Passkey)
	if err != nil {
		return fmt.Errorf("%w: fetch initial stats: %v", ErrDependencyUnavailable, err)
	}

	if err := s.statsRepo.CreateBaseline(ctx, stats.BaselineStats{
		UserID:     item.ID,
		Points:     raw.Points,
		Units:      raw.Units,
		CapturedAt: s.now().UTC(),
	}); err != nil {
		return fmt.Errorf("create baseline user=%s: %w", item.ID, err)
	}
	if err := s.statsRepo.SetLatestRaw(ctx, item.ID, raw); err != nil {
		return fmt.Errorf("store initial raw stats user=%s: %w", item.ID, err)
	}

	if err := s.userRepo.Upsert(ctx, item); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user created",
		"user_id", item.ID,
		"team_id", item.TeamID,
		"category", string(item.Category),
		"passkey", user.MaskPasskey(item.Passkey),
		"baseline_points", raw.Points,
		"baseline_units", raw.Units,
	)

	return s.markWriteExecuted()
}

// Update changes a user's mutable fields. The baseline is untouched; a
// hardware change only affects future normalizations.
func (s *UserService) Update(ctx context.Context, item user.User) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.Update")
	defer span.End()

	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !s.state.Current().WriteAllowed() {
		return fmt.Errorf("%w: state=%s", ErrStateBlocked, s.state.Current())
	}

	existing, exists, err := s.userRepo.GetByID(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("get user for update: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: user=%s", ErrNotFound, item.ID)
	}
	if err := s.checkReferences(ctx, item); err != nil {
		return err
	}

	item.JoinOrder = existing.JoinOrder
	if err := s.userRepo.Upsert(ctx, item); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	return s.markWriteExecuted()
}

// SetOffset replaces the user's manual correction outright; offsets overwrite
// rather than accumulate.
func (s *UserService) SetOffset(ctx context.Context, userID string, points, units int64) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.SetOffset")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if !s.state.Current().WriteAllowed() {
		return fmt.Errorf("%w: state=%s", ErrStateBlocked, s.state.Current())
	}

	if _, exists, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return fmt.Errorf("get user for offset: %w", err)
	} else if !exists {
		return fmt.Errorf("%w: user=%s", ErrNotFound, userID)
	}

	if err := s.statsRepo.SetOffset(ctx, stats.OffsetAdjustment{
		UserID: userID,
		Points: points,
		Units:  units,
	}); err != nil {
		return fmt.Errorf("set offset user=%s: %w", userID, err)
	}

	s.logger.InfoContext(ctx, "offset adjustment applied",
		"user_id", userID,
		"offset_points", points,
		"offset_units", units,
	)

	return s.markWriteExecuted()
}

func (s *UserService) checkReferences(ctx context.Context, item user.User) error {
	if _, exists, err := s.teamRepo.GetByID(ctx, item.TeamID); err != nil {
		return fmt.Errorf("check team reference: %w", err)
	} else if !exists {
		return fmt.Errorf("%w: user %s references unknown team %q", ErrConfiguration, item.ID, item.TeamID)
	}

	if _, exists, err := s.hardwareRepo.GetByID(ctx, item.HardwareID); err != nil {
		return fmt.Errorf("check hardware reference: %w", err)
	} else if !exists {
		return fmt.Errorf("%w: user %s references unknown hardware %q", ErrConfiguration, item.ID, item.HardwareID)
	}

	return nil
}

func (s *UserService) markWriteExecuted() error {
	if err := s.state.Advance(systemstate.StateWriteExecuted); err != nil {
		return fmt.Errorf("mark write executed: %w", err)
	}
	return nil
}
