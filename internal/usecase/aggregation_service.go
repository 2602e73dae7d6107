package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dcgrid/teamcomp/internal/domain/hardware"
	"github.com/dcgrid/teamcomp/internal/domain/leaderboard"
	"github.com/dcgrid/teamcomp/internal/domain/stats"
	"github.com/dcgrid/teamcomp/internal/domain/team"
	"github.com/dcgrid/teamcomp/internal/domain/user"
	"github.com/dcgrid/teamcomp/internal/platform/logging"
)

// AggregationService rolls normalized per-user stats up into team summaries
// and a per-category partition of active users. One misconfigured user is
// skipped with a warning; it never blanks out the rest of the team.
type AggregationService struct {
	teamRepo     team.Repository
	userRepo     user.Repository
	statsRepo    stats.Repository
	hardwareRepo hardware.Repository
	points       *PointsService
	logger       *logging.Logger
}

func NewAggregationService(
	teamRepo team.Repository,
	userRepo user.Repository,
	statsRepo stats.Repository,
	hardwareRepo hardware.Repository,
	points *PointsService,
	logger *logging.Logger,
) *AggregationService {
	if logger == nil {
		logger = logging.Default()
	}
	return &AggregationService{
		teamRepo:     teamRepo,
		userRepo:     userRepo,
		statsRepo:    statsRepo,
		hardwareRepo: hardwareRepo,
		points:       points,
		logger:       logger,
	}
}

// Overview computes every team's summary plus the category partition in one
// pass over the roster, so all derived views share a single data snapshot.
func (s *AggregationService) Overview(ctx context.Context) ([]leaderboard.TeamSummary, map[user.Category][]leaderboard.UserSummary, map[string]stats.UserTcStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AggregationService.Overview")
	defer span.End()

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list teams: %w", err)
	}

	// Every category appears in the partition even when nobody competes in
	// it, so category consumers always see the full table shape.
	byCategory := make(map[user.Category][]leaderboard.UserSummary, len(user.AllCategories()))
	for _, category := range user.AllCategories() {
		byCategory[category] = []leaderboard.UserSummary{}
	}

	statsByUser := make(map[string]stats.UserTcStats)

	summaries := make([]leaderboard.TeamSummary, 0, len(teams))
	for _, item := range teams {
		summary, err := s.summarizeTeam(ctx, item, byCategory, statsByUser)
		if err != nil {
			return nil, nil, nil, err
		}
		summaries = append(summaries, summary)
	}

	return summaries, byCategory, statsByUser, nil
}

func (s *AggregationService) summarizeTeam(
	ctx context.Context,
	item team.Team,
	byCategory map[user.Category][]leaderboard.UserSummary,
	statsByUser map[string]stats.UserTcStats,
) (leaderboard.TeamSummary, error) {
	members, err := s.userRepo.ListByTeam(ctx, item.ID)
	if err != nil {
		return leaderboard.TeamSummary{}, fmt.Errorf("list members team=%s: %w", item.ID, err)
	}

	summary := leaderboard.TeamSummary{
		TeamID:      item.ID,
		TeamName:    item.Name,
		ActiveUsers: make([]leaderboard.UserSummary, 0, len(members)),
	}

	for _, member := range members {
		if member.IsCaptain && summary.CaptainName == "" {
			summary.CaptainName = member.DisplayName
		}

		tcStats, err := s.points.ComputeUserStats(ctx, member)
		if err != nil {
			if errors.Is(err, ErrConfiguration) {
				s.logger.WarnContext(ctx, "skipping misconfigured user in aggregation",
					"user_id", member.ID,
					"team_id", item.ID,
					"error", err,
				)
				continue
			}
			return leaderboard.TeamSummary{}, err
		}
		statsByUser[member.ID] = tcStats

		hardwareName := ""
		if hw, ok, err := s.hardwareRepo.GetByID(ctx, member.HardwareID); err != nil {
			return leaderboard.TeamSummary{}, fmt.Errorf("get hardware for display user=%s: %w", member.ID, err)
		} else if ok {
			hardwareName = hw.DisplayName
		}

		summary.ActiveUsers = append(summary.ActiveUsers, leaderboard.UserSummary{
			UserID:           member.ID,
			DisplayName:      member.DisplayName,
			TeamName:         item.Name,
			HardwareName:     hardwareName,
			Category:         member.Category,
			Points:           tcStats.Points,
			MultipliedPoints: tcStats.MultipliedPoints,
			Units:            tcStats.Units,
		})
	}

	rankWithinTeam(summary.ActiveUsers)
	for _, active := range summary.ActiveUsers {
		byCategory[active.Category] = append(byCategory[active.Category], active)
		summary.TotalPoints += active.Points
		summary.TotalMultipliedPoints += active.MultipliedPoints
		summary.TotalUnits += active.Units
	}

	retired, err := s.statsRepo.ListRetiredByTeam(ctx, item.ID)
	if err != nil {
		return leaderboard.TeamSummary{}, fmt.Errorf("list retired team=%s: %w", item.ID, err)
	}
	summary.RetiredUsers = make([]leaderboard.RetiredSummary, 0, len(retired))
	for _, record := range retired {
		summary.RetiredUsers = append(summary.RetiredUsers, leaderboard.RetiredSummary{
			UserID:           record.UserID,
			DisplayName:      record.DisplayName,
			Points:           record.Points,
			MultipliedPoints: record.MultipliedPoints,
			Units:            record.Units,
			RetiredAt:        record.RetiredAt,
		})
		summary.TotalPoints += record.Points
		summary.TotalMultipliedPoints += record.MultipliedPoints
		summary.TotalUnits += record.Units
	}

	return summary, nil
}

// rankWithinTeam orders members by multiplied points descending and assigns
// 1-based ranks. The stable sort keeps join order for ties.
func rankWithinTeam(members []leaderboard.UserSummary) {
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].MultipliedPoints > members[j].MultipliedPoints
	})
	for idx := range members {
		members[idx].RankInTeam = idx + 1
	}
}
