package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dcgrid/teamcomp/internal/domain/stats"
	"github.com/dcgrid/teamcomp/internal/domain/user"
)

// Granularity selects the bucket width for historic views. Hour is the
// native storage resolution; day and month roll hourly buckets up.
type Granularity string

const (
	GranularityHour  Granularity = "hour"
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
)

func ParseGranularity(value string) (Granularity, bool) {
	switch Granularity(strings.ToLower(strings.TrimSpace(value))) {
	case GranularityHour:
		return GranularityHour, true
	case GranularityDay:
		return GranularityDay, true
	case GranularityMonth:
		return GranularityMonth, true
	default:
		return "", false
	}
}

// HistoricService merges and re-buckets per-user hourly contribution series.
type HistoricService struct {
	userRepo  user.Repository
	statsRepo stats.Repository
}

func NewHistoricService(userRepo user.Repository, statsRepo stats.Repository) *HistoricService {
	return &HistoricService{
		userRepo:  userRepo,
		statsRepo: statsRepo,
	}
}

// CombineSeries merges several hourly series into one. Entries sharing an
// instant sum; a series without an entry at some instant contributes nothing
// there. Output is sorted ascending. Duplicate timestamps inside one input
// series are additive as well.
func CombineSeries(series ...[]stats.HistoricPoint) []stats.HistoricPoint {
	byTimestamp := make(map[time.Time]stats.HistoricPoint)
	for _, input := range series {
		for _, point := range input {
			// Normalised to UTC so the same instant merges regardless of
			// the Location it was recorded in.
			ts := point.Timestamp.UTC().Truncate(time.Hour)
			combined := byTimestamp[ts]
			combined.Timestamp = ts
			combined.Points += point.Points
			combined.MultipliedPoints += point.MultipliedPoints
			combined.Units += point.Units
			byTimestamp[ts] = combined
		}
	}

	out := make([]stats.HistoricPoint, 0, len(byTimestamp))
	for _, point := range byTimestamp {
		out = append(out, point)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	return out
}

// Rebucket collapses an hourly series into wider buckets. Hour granularity
// returns the input unchanged apart from ordering.
func Rebucket(series []stats.HistoricPoint, granularity Granularity) []stats.HistoricPoint {
	byBucket := make(map[time.Time]stats.HistoricPoint)
	for _, point := range series {
		ts := bucketStart(point.Timestamp, granularity)
		combined := byBucket[ts]
		combined.Timestamp = ts
		combined.Points += point.Points
		combined.MultipliedPoints += point.MultipliedPoints
		combined.Units += point.Units
		byBucket[ts] = combined
	}

	out := make([]stats.HistoricPoint, 0, len(byBucket))
	for _, point := range byBucket {
		out = append(out, point)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	return out
}

func bucketStart(ts time.Time, granularity Granularity) time.Time {
	ts = ts.UTC()
	switch granularity {
	case GranularityDay:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	case GranularityMonth:
		return time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return ts.Truncate(time.Hour)
	}
}

// UserHistory returns one user's contribution series at the requested
// granularity.
func (s *HistoricService) UserHistory(ctx context.Context, userID string, granularity Granularity, from, to time.Time) ([]stats.HistoricPoint, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HistoricService.UserHistory")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	series, err := s.statsRepo.ListHistoric(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list historic points user=%s: %w", userID, err)
	}

	return Rebucket(series, granularity), nil
}

// TeamHistory merges every current member's series into one team-wide view.
// Retired members' hourly history remains under their user id and is
// included: the ledger freezes totals, not the already-recorded timeline.
func (s *HistoricService) TeamHistory(ctx context.Context, teamID string, granularity Granularity, from, to time.Time) ([]stats.HistoricPoint, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HistoricService.TeamHistory")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return nil, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	members, err := s.userRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list team members team=%s: %w", teamID, err)
	}
	retired, err := s.statsRepo.ListRetiredByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list retired records team=%s: %w", teamID, err)
	}

	userIDs := make([]string, 0, len(members)+len(retired))
	for _, member := range members {
		userIDs = append(userIDs, member.ID)
	}
	for _, record := range retired {
		userIDs = append(userIDs, record.UserID)
	}

	allSeries := make([][]stats.HistoricPoint, 0, len(userIDs))
	for _, userID := range userIDs {
		series, err := s.statsRepo.ListHistoric(ctx, userID, from, to)
		if err != nil {
			return nil, fmt.Errorf("list historic points user=%s: %w", userID, err)
		}
		allSeries = append(allSeries, series)
	}

	return Rebucket(CombineSeries(allSeries...), granularity), nil
}
