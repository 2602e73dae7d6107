package usecase

import (
	"sort"

	"github.com/dcgrid/teamcomp/internal/domain/leaderboard"
	"github.com/dcgrid/teamcomp/internal/domain/user"
)

// Ranked wraps one leaderboard row with its position and point gaps. Diffs
// are measured in multiplied points; the leader carries zero for both.
type Ranked[T any] struct {
	Rank         int
	Item         T
	DiffToLeader int64
	DiffToNext   int64
}

// Rank sorts items by multiplied points descending and fills in rank and
// differentials. Ties keep their original relative order; no secondary key
// reorders them. The same routine serves teams and per-category users.
func Rank[T any](items []T, multiplied func(T) int64) []Ranked[T] {
	out := make([]Ranked[T], 0, len(items))
	for _, item := range items {
		out = append(out, Ranked[T]{Item: item})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return multiplied(out[i].Item) > multiplied(out[j].Item)
	})

	for idx := range out {
		out[idx].Rank = idx + 1
		if idx == 0 {
			continue
		}
		out[idx].DiffToLeader = multiplied(out[0].Item) - multiplied(out[idx].Item)
		out[idx].DiffToNext = multiplied(out[idx-1].Item) - multiplied(out[idx].Item)
	}

	return out
}

// RankTeams converts team summaries into the ranked team leaderboard.
func RankTeams(summaries []leaderboard.TeamSummary) []leaderboard.TeamEntry {
	ranked := Rank(summaries, func(item leaderboard.TeamSummary) int64 {
		return item.TotalMultipliedPoints
	})

	out := make([]leaderboard.TeamEntry, 0, len(ranked))
	for _, row := range ranked {
		out = append(out, leaderboard.TeamEntry{
			Rank:             row.Rank,
			Team:             row.Item,
			MultipliedPoints: row.Item.TotalMultipliedPoints,
			Points:           row.Item.TotalPoints,
			Units:            row.Item.TotalUnits,
			DiffToLeader:     row.DiffToLeader,
			DiffToNext:       row.DiffToNext,
		})
	}

	return out
}

// RankCategories ranks the users inside every category. Categories absent
// from the input still appear with an empty list.
func RankCategories(byCategory map[user.Category][]leaderboard.UserSummary) map[user.Category][]leaderboard.UserCategoryEntry {
	out := make(map[user.Category][]leaderboard.UserCategoryEntry, len(user.AllCategories()))
	for _, category := range user.AllCategories() {
		ranked := Rank(byCategory[category], func(item leaderboard.UserSummary) int64 {
			return item.MultipliedPoints
		})

		entries := make([]leaderboard.UserCategoryEntry, 0, len(ranked))
		for _, row := range ranked {
			entries = append(entries, leaderboard.UserCategoryEntry{
				Rank:             row.Rank,
				User:             row.Item,
				TeamName:         row.Item.TeamName,
				MultipliedPoints: row.Item.MultipliedPoints,
				Points:           row.Item.Points,
				Units:            row.Item.Units,
				DiffToLeader:     row.DiffToLeader,
				DiffToNext:       row.DiffToNext,
			})
		}
		out[category] = entries
	}

	return out
}
