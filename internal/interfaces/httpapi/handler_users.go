package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dcgrid/teamcomp/internal/domain/user"
	"github.com/dcgrid/teamcomp/internal/usecase"
)

// userDTO always carries a masked passkey. The full value never leaves the
// service.
type userDTO struct {
	ID            string `json:"id"`
	DisplayName   string `json:"displayName"`
	ForumName     string `json:"forumName,omitempty"`
	MaskedPasskey string `json:"maskedPasskey"`
	Category      string `json:"category"`
	HardwareID    string `json:"hardwareId"`
	TeamID        string `json:"teamId"`
	IsCaptain     bool   `json:"isCaptain"`
	JoinOrder     int    `json:"joinOrder"`
}

func userToDTO(item user.User) userDTO {
	return userDTO{
		ID:            item.ID,
		DisplayName:   item.DisplayName,
		ForumName:     item.ForumName,
		MaskedPasskey: user.MaskPasskey(item.Passkey),
		Category:      string(item.Category),
		HardwareID:    item.HardwareID,
		TeamID:        item.TeamID,
		IsCaptain:     item.IsCaptain,
		JoinOrder:     item.JoinOrder,
	}
}

type createUserRequest struct {
	ID          string `json:"id" validate:"required"`
	DisplayName string `json:"displayName" validate:"required"`
	ForumName   string `json:"forumName"`
	Passkey     string `json:"passkey" validate:"required,min=8"`
	Category    string `json:"category" validate:"required"`
	HardwareID  string `json:"hardwareId" validate:"required"`
	TeamID      string `json:"teamId" validate:"required"`
	IsCaptain   bool   `json:"isCaptain"`
}

type updateUserRequest struct {
	DisplayName string `json:"displayName" validate:"required"`
	ForumName   string `json:"forumName"`
	Passkey     string `json:"passkey" validate:"required,min=8"`
	Category    string `json:"category" validate:"required"`
	HardwareID  string `json:"hardwareId" validate:"required"`
	TeamID      string `json:"teamId" validate:"required"`
	IsCaptain   bool   `json:"isCaptain"`
}

type setOffsetRequest struct {
	Points int64 `json:"points"`
	Units  int64 `json:"units"`
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListUsers")
	defer span.End()

	users, err := h.userService.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list users failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]userDTO, 0, len(users))
	for _, item := range users {
		out = append(out, userToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetUser")
	defer span.End()

	item, err := h.userService.GetByID(ctx, r.PathValue("userID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, userToDTO(item))
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateUser")
	defer span.End()

	var req createUserRequest
	if err := h.decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	category, ok := user.ParseCategory(req.Category)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: unknown category %q", usecase.ErrInvalidInput, req.Category))
		return
	}

	item := user.User{
		ID:          req.ID,
		DisplayName: req.DisplayName,
		ForumName:   req.ForumName,
		Passkey:     req.Passkey,
		Category:    category,
		HardwareID:  req.HardwareID,
		TeamID:      req.TeamID,
		IsCaptain:   req.IsCaptain,
	}
	if err := h.userService.Create(ctx, item); err != nil {
		h.logger.ErrorContext(ctx, "create user failed", "user_id", req.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	created, err := h.userService.GetByID(ctx, req.ID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusCreated, userToDTO(created))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateUser")
	defer span.End()

	var req updateUserRequest
	if err := h.decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	category, ok := user.ParseCategory(req.Category)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: unknown category %q", usecase.ErrInvalidInput, req.Category))
		return
	}

	item := user.User{
		ID:          r.PathValue("userID"),
		DisplayName: req.DisplayName,
		ForumName:   req.ForumName,
		Passkey:     req.Passkey,
		Category:    category,
		HardwareID:  req.HardwareID,
		TeamID:      req.TeamID,
		IsCaptain:   req.IsCaptain,
	}
	if err := h.userService.Update(ctx, item); err != nil {
		h.logger.ErrorContext(ctx, "update user failed", "user_id", item.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	updated, err := h.userService.GetByID(ctx, item.ID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, userToDTO(updated))
}

func (h *Handler) SetUserOffset(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetUserOffset")
	defer span.End()

	var req setOffsetRequest
	if err := h.decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	userID := r.PathValue("userID")
	if err := h.userService.SetOffset(ctx, userID, req.Points, req.Units); err != nil {
		h.logger.ErrorContext(ctx, "set offset failed", "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"userId": userID,
		"points": req.Points,
		"units":  req.Units,
	})
}

type retiredDTO struct {
	ID               string    `json:"id"`
	TeamID           string    `json:"teamId"`
	UserID           string    `json:"userId"`
	DisplayName      string    `json:"displayName"`
	Points           int64     `json:"points"`
	MultipliedPoints int64     `json:"multipliedPoints"`
	Units            int64     `json:"units"`
	RetiredAt        time.Time `json:"retiredAt"`
}

func (h *Handler) RetireUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RetireUser")
	defer span.End()

	teamID := r.PathValue("teamID")
	userID := r.PathValue("userID")
	frozen, err := h.retirementService.RetireUser(ctx, teamID, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "retire user failed", "team_id", teamID, "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, retiredDTO{
		ID:               frozen.ID,
		TeamID:           frozen.TeamID,
		UserID:           frozen.UserID,
		DisplayName:      frozen.DisplayName,
		Points:           frozen.Points,
		MultipliedPoints: frozen.MultipliedPoints,
		Units:            frozen.Units,
		RetiredAt:        frozen.RetiredAt,
	})
}
