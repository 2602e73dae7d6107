package httpapi

import (
	"net/http"

	"github.com/dcgrid/teamcomp/internal/domain/team"
)

type teamDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ForumLink   string `json:"forumLink,omitempty"`
}

func teamToDTO(item team.Team) teamDTO {
	return teamDTO{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		ForumLink:   item.ForumLink,
	}
}

type upsertTeamRequest struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	ForumLink   string `json:"forumLink" validate:"omitempty,url"`
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	teams, err := h.teamService.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list teams failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]teamDTO, 0, len(teams))
	for _, item := range teams {
		out = append(out, teamToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeam")
	defer span.End()

	item, err := h.teamService.GetByID(ctx, r.PathValue("teamID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamToDTO(item))
}

func (h *Handler) UpsertTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpsertTeam")
	defer span.End()

	var req upsertTeamRequest
	if err := h.decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if pathID := r.PathValue("teamID"); pathID != "" {
		req.ID = pathID
	}

	item := team.Team{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		ForumLink:   req.ForumLink,
	}
	if err := h.teamService.Upsert(ctx, item); err != nil {
		h.logger.ErrorContext(ctx, "upsert team failed", "team_id", req.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamToDTO(item))
}

func (h *Handler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteTeam")
	defer span.End()

	teamID := r.PathValue("teamID")
	if err := h.teamService.Delete(ctx, teamID); err != nil {
		h.logger.ErrorContext(ctx, "delete team failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"id": teamID})
}
