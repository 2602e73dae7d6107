package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/dcgrid/teamcomp/internal/domain/systemstate"
	"github.com/dcgrid/teamcomp/internal/domain/team"
	"github.com/dcgrid/teamcomp/internal/domain/user"
)

type TeamService struct {
	teamRepo team.Repository
	userRepo user.Repository
	state    *systemstate.Holder
}

func NewTeamService(teamRepo team.Repository, userRepo user.Repository, state *systemstate.Holder) *TeamService {
	return &TeamService{
		teamRepo: teamRepo,
		userRepo: userRepo,
		state:    state,
	}
}

func (s *TeamService) List(ctx context.Context) ([]team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.List")
	defer span.End()

	items, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return items, nil
}

func (s *TeamService) GetByID(ctx context.Context, teamID string) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.GetByID")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return team.Team{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	item, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return team.Team{}, fmt.Errorf("get team: %w", err)
	}
	if !exists {
		return team.Team{}, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}

	return item, nil
}

func (s *TeamService) Upsert(ctx context.Context, item team.Team) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.Upsert")
	defer span.End()

	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !s.state.Current().WriteAllowed() {
		return fmt.Errorf("%w: state=%s", ErrStateBlocked, s.state.Current())
	}

	if err := s.teamRepo.Upsert(ctx, item); err != nil {
		return fmt.Errorf("upsert team: %w", err)
	}

	return s.markWriteExecuted()
}

// Delete removes an empty team. Teams with members must retire or move them
// first; dropping a populated team would silently discard contributions.
func (s *TeamService) Delete(ctx context.Context, teamID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.Delete")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}
	if !s.state.Current().WriteAllowed() {
		return fmt.Errorf("%w: state=%s", ErrStateBlocked, s.state.Current())
	}

	members, err := s.userRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return fmt.Errorf("list members for team delete: %w", err)
	}
	if len(members) > 0 {
		return fmt.Errorf("%w: team %s still has %d members", ErrInvalidInput, teamID, len(members))
	}

	if err := s.teamRepo.Delete(ctx, teamID); err != nil {
		return fmt.Errorf("delete team: %w", err)
	}

	return s.markWriteExecuted()
}

func (s *TeamService) markWriteExecuted() error {
	if err := s.state.Advance(systemstate.StateWriteExecuted); err != nil {
		return fmt.Errorf("mark write executed: %w", err)
	}
	return nil
}
