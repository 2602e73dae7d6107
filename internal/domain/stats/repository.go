package stats

import (
	"context"
	"time"
)

// Repository persists everything the engine derives scores from: baselines,
// offsets, the latest raw counters, the retired ledger, and hourly history.
type Repository interface {
	GetBaseline(ctx context.Context, userID string) (BaselineStats, bool, error)
	CreateBaseline(ctx context.Context, item BaselineStats) error
	ReplaceBaseline(ctx context.Context, item BaselineStats) error
	DeleteBaselines(ctx context.Context) error

	GetOffset(ctx context.Context, userID string) (OffsetAdjustment, bool, error)
	SetOffset(ctx context.Context, item OffsetAdjustment) error
	DeleteOffsets(ctx context.Context) error

	GetLatestRaw(ctx context.Context, userID string) (RawStats, bool, error)
	SetLatestRaw(ctx context.Context, userID string, item RawStats) error

	ListRetiredByTeam(ctx context.Context, teamID string) ([]RetiredUserTcStats, error)
	AppendRetired(ctx context.Context, item RetiredUserTcStats) error
	DeleteRetired(ctx context.Context) error

	ListHistoric(ctx context.Context, userID string, from, to time.Time) ([]HistoricPoint, error)
	AccumulateHistoric(ctx context.Context, userID string, item HistoricPoint) error
}

// Source is the upstream contribution API. Implementations own their own
// timeout and retry policy.
type Source interface {
	FetchRawStats(ctx context.Context, accountName, passkey string) (RawStats, error)
}
