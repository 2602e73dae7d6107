package httpapi

import (
	"net/http"

	"github.com/dcgrid/teamcomp/internal/domain/hardware"
)

type hardwareDTO struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"displayName"`
	Multiplier  float64 `json:"multiplier"`
	AverageRank float64 `json:"averageRank,omitempty"`
}

func hardwareToDTO(item hardware.Hardware) hardwareDTO {
	return hardwareDTO{
		ID:          item.ID,
		DisplayName: item.DisplayName,
		Multiplier:  item.Multiplier,
		AverageRank: item.AverageRank,
	}
}

type upsertHardwareRequest struct {
	ID          string  `json:"id" validate:"required"`
	DisplayName string  `json:"displayName" validate:"required"`
	Multiplier  float64 `json:"multiplier" validate:"gte=0"`
	AverageRank float64 `json:"averageRank" validate:"gte=0"`
}

func (h *Handler) ListHardware(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListHardware")
	defer span.End()

	items, err := h.hardwareService.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list hardware failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]hardwareDTO, 0, len(items))
	for _, item := range items {
		out = append(out, hardwareToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetHardware(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetHardware")
	defer span.End()

	item, err := h.hardwareService.GetByID(ctx, r.PathValue("hardwareID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, hardwareToDTO(item))
}

func (h *Handler) UpsertHardware(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpsertHardware")
	defer span.End()

	var req upsertHardwareRequest
	if err := h.decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if pathID := r.PathValue("hardwareID"); pathID != "" {
		req.ID = pathID
	}

	item := hardware.Hardware{
		ID:          req.ID,
		DisplayName: req.DisplayName,
		Multiplier:  req.Multiplier,
		AverageRank: req.AverageRank,
	}
	if err := h.hardwareService.Upsert(ctx, item); err != nil {
		h.logger.ErrorContext(ctx, "upsert hardware failed", "hardware_id", req.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, hardwareToDTO(item))
}

func (h *Handler) DeleteHardware(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteHardware")
	defer span.End()

	hardwareID := r.PathValue("hardwareID")
	if err := h.hardwareService.Delete(ctx, hardwareID); err != nil {
		h.logger.ErrorContext(ctx, "delete hardware failed", "hardware_id", hardwareID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"id": hardwareID})
}
