package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dcgrid/teamcomp/internal/domain/stats"
)

// StatsRepository keeps every scoring input in process memory: baselines,
// offsets, latest raw counters, the retired ledger, and hourly history.
type StatsRepository struct {
	mu        sync.RWMutex
	baselines map[string]stats.BaselineStats
	offsets   map[string]stats.OffsetAdjustment
	latestRaw map[string]stats.RawStats
	retired   map[string][]stats.RetiredUserTcStats
	historic  map[string]map[time.Time]stats.HistoricPoint
}

func NewStatsRepository() *StatsRepository {
	return &StatsRepository{
		baselines: make(map[string]stats.BaselineStats),
		offsets:   make(map[string]stats.OffsetAdjustment),
		latestRaw: make(map[string]stats.RawStats),
		retired:   make(map[string][]stats.RetiredUserTcStats),
		historic:  make(map[string]map[time.Time]stats.HistoricPoint),
	}
}

func (r *StatsRepository) GetBaseline(_ context.Context, userID string) (stats.BaselineStats, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.baselines[userID]
	return item, ok, nil
}

func (r *StatsRepository) CreateBaseline(_ context.Context, item stats.BaselineStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.baselines[item.UserID]; exists {
		return nil
	}
	r.baselines[item.UserID] = item
	return nil
}

func (r *StatsRepository) ReplaceBaseline(_ context.Context, item stats.BaselineStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.baselines[item.UserID] = item
	return nil
}

func (r *StatsRepository) DeleteBaselines(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.baselines = make(map[string]stats.BaselineStats)
	return nil
}

func (r *StatsRepository) GetOffset(_ context.Context, userID string) (stats.OffsetAdjustment, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.offsets[userID]
	return item, ok, nil
}

func (r *StatsRepository) SetOffset(_ context.Context, item stats.OffsetAdjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.offsets[item.UserID] = item
	return nil
}

func (r *StatsRepository) DeleteOffsets(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.offsets = make(map[string]stats.OffsetAdjustment)
	return nil
}

func (r *StatsRepository) GetLatestRaw(_ context.Context, userID string) (stats.RawStats, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.latestRaw[userID]
	return item, ok, nil
}

func (r *StatsRepository) SetLatestRaw(_ context.Context, userID string, item stats.RawStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.latestRaw[userID] = item
	return nil
}

func (r *StatsRepository) ListRetiredByTeam(_ context.Context, teamID string) ([]stats.RetiredUserTcStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := r.retired[teamID]
	out := make([]stats.RetiredUserTcStats, len(records))
	copy(out, records)

	return out, nil
}

func (r *StatsRepository) AppendRetired(_ context.Context, item stats.RetiredUserTcStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.retired[item.TeamID] = append(r.retired[item.TeamID], item)
	return nil
}

func (r *StatsRepository) DeleteRetired(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.retired = make(map[string][]stats.RetiredUserTcStats)
	return nil
}

func (r *StatsRepository) ListHistoric(_ context.Context, userID string, from, to time.Time) ([]stats.HistoricPoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	buckets := r.historic[userID]
	out := make([]stats.HistoricPoint, 0, len(buckets))
	for ts, point := range buckets {
		if !from.IsZero() && ts.Before(from) {
			continue
		}
		if !to.IsZero() && !ts.Before(to) {
			continue
		}
		out = append(out, point)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })

	return out, nil
}

func (r *StatsRepository) AccumulateHistoric(_ context.Context, userID string, item stats.HistoricPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := item.Timestamp.UTC().Truncate(time.Hour)
	buckets := r.historic[userID]
	if buckets == nil {
		buckets = make(map[time.Time]stats.HistoricPoint)
		r.historic[userID] = buckets
	}

	bucket := buckets[ts]
	bucket.Timestamp = ts
	bucket.Points += item.Points
	bucket.MultipliedPoints += item.MultipliedPoints
	bucket.Units += item.Units
	buckets[ts] = bucket

	return nil
}
