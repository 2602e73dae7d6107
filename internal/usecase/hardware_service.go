package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/dcgrid/teamcomp/internal/domain/hardware"
	"github.com/dcgrid/teamcomp/internal/domain/systemstate"
	"github.com/dcgrid/teamcomp/internal/domain/user"
)

// HardwareService maintains the hardware registry fed by the external
// ranking feed. Multipliers arrive precomputed; a changed multiplier applies
// to future normalizations only, which the WRITE_EXECUTED flag guarantees by
// forcing a scoreboard recompute.
type HardwareService struct {
	hardwareRepo hardware.Repository
	userRepo     user.Repository
	state        *systemstate.Holder
}

func NewHardwareService(hardwareRepo hardware.Repository, userRepo user.Repository, state *systemstate.Holder) *HardwareService {
	return &HardwareService{
		hardwareRepo: hardwareRepo,
		userRepo:     userRepo,
		state:        state,
	}
}

func (s *HardwareService) List(ctx context.Context) ([]hardware.Hardware, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HardwareService.List")
	defer span.End()

	items, err := s.hardwareRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list hardware: %w", err)
	}
	return items, nil
}

func (s *HardwareService) GetByID(ctx context.Context, hardwareID string) (hardware.Hardware, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HardwareService.GetByID")
	defer span.End()

	hardwareID = strings.TrimSpace(hardwareID)
	if hardwareID == "" {
		return hardware.Hardware{}, fmt.Errorf("%w: hardware id is required", ErrInvalidInput)
	}

	item, exists, err := s.hardwareRepo.GetByID(ctx, hardwareID)
	if err != nil {
		return hardware.Hardware{}, fmt.Errorf("get hardware: %w", err)
	}
	if !exists {
		return hardware.Hardware{}, fmt.Errorf("%w: hardware=%s", ErrNotFound, hardwareID)
	}

	return item, nil
}

func (s *HardwareService) Upsert(ctx context.Context, item hardware.Hardware) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.HardwareService.Upsert")
	defer span.End()

	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !s.state.Current().WriteAllowed() {
		return fmt.Errorf("%w: state=%s", ErrStateBlocked, s.state.Current())
	}

	if err := s.hardwareRepo.Upsert(ctx, item); err != nil {
		return fmt.Errorf("upsert hardware: %w", err)
	}

	return s.markWriteExecuted()
}

// Delete refuses to drop hardware still referenced by users: every user must
// always resolve to exactly one hardware entry.
func (s *HardwareService) Delete(ctx context.Context, hardwareID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.HardwareService.Delete")
	defer span.End()

	hardwareID = strings.TrimSpace(hardwareID)
	if hardwareID == "" {
		return fmt.Errorf("%w: hardware id is required", ErrInvalidInput)
	}
	if !s.state.Current().WriteAllowed() {
		return fmt.Errorf("%w: state=%s", ErrStateBlocked, s.state.Current())
	}

	users, err := s.userRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("list users for hardware delete: %w", err)
	}
	for _, item := range users {
		if item.HardwareID == hardwareID {
			return fmt.Errorf("%w: hardware %s is still referenced by user %s", ErrInvalidInput, hardwareID, item.ID)
		}
	}

	if err := s.hardwareRepo.Delete(ctx, hardwareID); err != nil {
		return fmt.Errorf("delete hardware: %w", err)
	}

	return s.markWriteExecuted()
}

func (s *HardwareService) markWriteExecuted() error {
	if err := s.state.Advance(systemstate.StateWriteExecuted); err != nil {
		return fmt.Errorf("mark write executed: %w", err)
	}
	return nil
}
