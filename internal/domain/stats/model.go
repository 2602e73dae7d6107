package stats

import (
	"math"
	"time"
)

// RawStats are the monotonically non-decreasing lifetime counters pulled from
// the upstream contribution API for one user.
type RawStats struct {
	Points int64
	Units  int64
}

// BaselineStats is the RawStats snapshot captured when a user starts being
// tracked. It is the zero-point for competition scoring and is never mutated.
type BaselineStats struct {
	UserID     string
	Points     int64
	Units      int64
	CapturedAt time.Time
}

// OffsetAdjustment is a signed manual correction applied after baseline
// subtraction. At most one is active per user; replacing overwrites.
type OffsetAdjustment struct {
	UserID string
	Points int64
	Units  int64
}

// UserTcStats are one user's competition-scoped stats for the current pass.
// Derived, never stored as input.
type UserTcStats struct {
	UserID           string
	Points           int64
	MultipliedPoints int64
	Units            int64
	RetrievedAt      time.Time
}

// Multiply applies a hardware multiplier to competition points, rounding
// half-up.
func Multiply(points int64, multiplier float64) int64 {
	return int64(math.Floor(float64(points)*multiplier + 0.5))
}

// RetiredUserTcStats is a frozen copy of a departing member's last UserTcStats.
// It is created exactly once, at removal time, and credited to the team's
// totals permanently. It is never re-derived from live raw stats.
type RetiredUserTcStats struct {
	ID               string
	TeamID           string
	UserID           string
	DisplayName      string
	Points           int64
	MultipliedPoints int64
	Units            int64
	RetiredAt        time.Time
}

// HistoricPoint is one hour-truncated bucket of a user's (or a merged group's)
// contribution series.
type HistoricPoint struct {
	Timestamp        time.Time
	Points           int64
	MultipliedPoints int64
	Units            int64
}
