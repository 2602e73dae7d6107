package httpapi

import (
	"net/http"
)

type sweepResultDTO struct {
	Users      int   `json:"users"`
	Updated    int   `json:"updated"`
	Failed     int   `json:"failed"`
	DurationMs int64 `json:"durationMs"`
}

func (h *Handler) RunSweepJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSweepJob")
	defer span.End()

	result, err := h.syncService.Sweep(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "sweep job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	if h.historyCache != nil {
		h.historyCache.DeletePrefix(ctx, "history:")
	}

	writeSuccess(ctx, w, http.StatusOK, sweepResultDTO{
		Users:      result.Users,
		Updated:    result.Updated,
		Failed:     result.Failed,
		DurationMs: result.Duration.Milliseconds(),
	})
}

func (h *Handler) RunResetJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunResetJob")
	defer span.End()

	if err := h.resetService.Reset(ctx); err != nil {
		h.logger.ErrorContext(ctx, "reset job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "reset"})
}
