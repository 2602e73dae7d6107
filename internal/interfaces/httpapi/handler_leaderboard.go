package httpapi

import (
	"net/http"
	"time"

	"github.com/dcgrid/teamcomp/internal/domain/leaderboard"
	"github.com/dcgrid/teamcomp/internal/domain/user"
)

type memberDTO struct {
	UserID           string `json:"userId"`
	DisplayName      string `json:"displayName"`
	HardwareName     string `json:"hardwareName,omitempty"`
	Category         string `json:"category"`
	Points           int64  `json:"points"`
	MultipliedPoints int64  `json:"multipliedPoints"`
	Units            int64  `json:"units"`
	RankInTeam       int    `json:"rankInTeam"`
}

type retiredMemberDTO struct {
	UserID           string    `json:"userId"`
	DisplayName      string    `json:"displayName"`
	Points           int64     `json:"points"`
	MultipliedPoints int64     `json:"multipliedPoints"`
	Units            int64     `json:"units"`
	RetiredAt        time.Time `json:"retiredAt"`
}

type teamStandingDTO struct {
	Rank             int                `json:"rank"`
	TeamID           string             `json:"teamId"`
	TeamName         string             `json:"teamName"`
	CaptainName      string             `json:"captainName,omitempty"`
	Points           int64              `json:"points"`
	MultipliedPoints int64              `json:"multipliedPoints"`
	Units            int64              `json:"units"`
	DiffToLeader     int64              `json:"diffToLeader"`
	DiffToNext       int64              `json:"diffToNext"`
	ActiveUsers      []memberDTO        `json:"activeUsers"`
	RetiredUsers     []retiredMemberDTO `json:"retiredUsers,omitempty"`
}

type categoryStandingDTO struct {
	Rank             int    `json:"rank"`
	UserID           string `json:"userId"`
	DisplayName      string `json:"displayName"`
	TeamName         string `json:"teamName"`
	HardwareName     string `json:"hardwareName,omitempty"`
	Points           int64  `json:"points"`
	MultipliedPoints int64  `json:"multipliedPoints"`
	Units            int64  `json:"units"`
	DiffToLeader     int64  `json:"diffToLeader"`
	DiffToNext       int64  `json:"diffToNext"`
}

type scoreboardDTO struct {
	Teams      []teamStandingDTO                `json:"teams"`
	Categories map[string][]categoryStandingDTO `json:"categories"`
	ComputedAt time.Time                        `json:"computedAt"`
}

func memberToDTO(item leaderboard.UserSummary) memberDTO {
	return memberDTO{
		UserID:           item.UserID,
		DisplayName:      item.DisplayName,
		HardwareName:     item.HardwareName,
		Category:         string(item.Category),
		Points:           item.Points,
		MultipliedPoints: item.MultipliedPoints,
		Units:            item.Units,
		RankInTeam:       item.RankInTeam,
	}
}

func teamEntryToDTO(entry leaderboard.TeamEntry) teamStandingDTO {
	active := make([]memberDTO, 0, len(entry.Team.ActiveUsers))
	for _, member := range entry.Team.ActiveUsers {
		active = append(active, memberToDTO(member))
	}
	retired := make([]retiredMemberDTO, 0, len(entry.Team.RetiredUsers))
	for _, member := range entry.Team.RetiredUsers {
		retired = append(retired, retiredMemberDTO{
			UserID:           member.UserID,
			DisplayName:      member.DisplayName,
			Points:           member.Points,
			MultipliedPoints: member.MultipliedPoints,
			Units:            member.Units,
			RetiredAt:        member.RetiredAt,
		})
	}

	return teamStandingDTO{
		Rank:             entry.Rank,
		TeamID:           entry.Team.TeamID,
		TeamName:         entry.Team.TeamName,
		CaptainName:      entry.Team.CaptainName,
		Points:           entry.Points,
		MultipliedPoints: entry.MultipliedPoints,
		Units:            entry.Units,
		DiffToLeader:     entry.DiffToLeader,
		DiffToNext:       entry.DiffToNext,
		ActiveUsers:      active,
		RetiredUsers:     retired,
	}
}

func categoryEntryToDTO(entry leaderboard.UserCategoryEntry) categoryStandingDTO {
	return categoryStandingDTO{
		Rank:             entry.Rank,
		UserID:           entry.User.UserID,
		DisplayName:      entry.User.DisplayName,
		TeamName:         entry.TeamName,
		HardwareName:     entry.User.HardwareName,
		Points:           entry.Points,
		MultipliedPoints: entry.MultipliedPoints,
		Units:            entry.Units,
		DiffToLeader:     entry.DiffToLeader,
		DiffToNext:       entry.DiffToNext,
	}
}

func categoriesToDTO(categories map[user.Category][]leaderboard.UserCategoryEntry) map[string][]categoryStandingDTO {
	out := make(map[string][]categoryStandingDTO, len(categories))
	for category, entries := range categories {
		rows := make([]categoryStandingDTO, 0, len(entries))
		for _, entry := range entries {
			rows = append(rows, categoryEntryToDTO(entry))
		}
		out[string(category)] = rows
	}
	return out
}

func (h *Handler) GetScoreboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetScoreboard")
	defer span.End()

	snapshot, err := h.summaryService.Retrieve(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get scoreboard failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	teams := make([]teamStandingDTO, 0, len(snapshot.Teams))
	for _, entry := range snapshot.Teams {
		teams = append(teams, teamEntryToDTO(entry))
	}

	writeSuccess(ctx, w, http.StatusOK, scoreboardDTO{
		Teams:      teams,
		Categories: categoriesToDTO(snapshot.Categories),
		ComputedAt: snapshot.ComputedAt,
	})
}

func (h *Handler) ListTeamStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamStandings")
	defer span.End()

	entries, err := h.summaryService.TeamLeaderboard(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list team standings failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]teamStandingDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, teamEntryToDTO(entry))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ListCategoryStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCategoryStandings")
	defer span.End()

	categories, err := h.summaryService.CategoryLeaderboard(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list category standings failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, categoriesToDTO(categories))
}
