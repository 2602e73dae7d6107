package leaderboard

import (
	"time"

	"github.com/dcgrid/teamcomp/internal/domain/stats"
	"github.com/dcgrid/teamcomp/internal/domain/user"
)

// UserSummary is one active member inside a TeamSummary. RankInTeam is
// 1-based, ordered by multiplied points descending with join order breaking
// ties.
type UserSummary struct {
	UserID           string
	DisplayName      string
	TeamName         string
	HardwareName     string
	Category         user.Category
	Points           int64
	MultipliedPoints int64
	Units            int64
	RankInTeam       int
}

// RetiredSummary is the scoreboard view of one frozen retired record.
type RetiredSummary struct {
	UserID           string
	DisplayName      string
	Points           int64
	MultipliedPoints int64
	Units            int64
	RetiredAt        time.Time
}

// TeamSummary is one team's scoreboard row before ranking: active members,
// the retired ledger, and rolled-up totals across both.
type TeamSummary struct {
	TeamID                string
	TeamName              string
	CaptainName           string
	ActiveUsers           []UserSummary
	RetiredUsers          []RetiredSummary
	TotalPoints           int64
	TotalMultipliedPoints int64
	TotalUnits            int64
}

// TeamEntry is one ranked team row. Diffs are measured in multiplied points;
// the leader carries zero for both.
type TeamEntry struct {
	Rank             int
	Team             TeamSummary
	MultipliedPoints int64
	Points           int64
	Units            int64
	DiffToLeader     int64
	DiffToNext       int64
}

// UserCategoryEntry is one ranked user row within a category leaderboard.
type UserCategoryEntry struct {
	Rank             int
	User             UserSummary
	TeamName         string
	MultipliedPoints int64
	Points           int64
	Units            int64
	DiffToLeader     int64
	DiffToNext       int64
}

// Snapshot is one fully computed scoreboard served from cache until a write
// invalidates it.
type Snapshot struct {
	Teams      []TeamEntry
	Categories map[user.Category][]UserCategoryEntry
	ComputedAt time.Time
	UserStats  map[string]stats.UserTcStats
}
