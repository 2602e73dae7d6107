package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dcgrid/teamcomp/internal/domain/stats"
	"github.com/dcgrid/teamcomp/internal/usecase"
)

type historicPointDTO struct {
	Timestamp        time.Time `json:"timestamp"`
	Points           int64     `json:"points"`
	MultipliedPoints int64     `json:"multipliedPoints"`
	Units            int64     `json:"units"`
}

type historyQuery struct {
	Granularity usecase.Granularity
	From        time.Time
	To          time.Time
}

func parseHistoryQuery(values url.Values) (historyQuery, error) {
	query := historyQuery{Granularity: usecase.GranularityHour}

	if raw := values.Get("granularity"); raw != "" {
		granularity, ok := usecase.ParseGranularity(raw)
		if !ok {
			return historyQuery{}, fmt.Errorf("%w: unknown granularity %q", usecase.ErrInvalidInput, raw)
		}
		query.Granularity = granularity
	}

	if raw := values.Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return historyQuery{}, fmt.Errorf("%w: invalid from timestamp %q", usecase.ErrInvalidInput, raw)
		}
		query.From = parsed
	}
	if raw := values.Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return historyQuery{}, fmt.Errorf("%w: invalid to timestamp %q", usecase.ErrInvalidInput, raw)
		}
		query.To = parsed
	}
	if !query.From.IsZero() && !query.To.IsZero() && query.To.Before(query.From) {
		return historyQuery{}, fmt.Errorf("%w: to precedes from", usecase.ErrInvalidInput)
	}

	return query, nil
}

func historicPointsToDTO(points []stats.HistoricPoint) []historicPointDTO {
	out := make([]historicPointDTO, 0, len(points))
	for _, point := range points {
		out = append(out, historicPointDTO{
			Timestamp:        point.Timestamp,
			Points:           point.Points,
			MultipliedPoints: point.MultipliedPoints,
			Units:            point.Units,
		})
	}
	return out
}

// history responses are cached briefly: series only move when a sweep lands,
// and scoreboard pages poll them aggressively.
func (h *Handler) cachedHistory(ctx context.Context, key string, load func(context.Context) ([]stats.HistoricPoint, error)) ([]stats.HistoricPoint, error) {
	if h.historyCache == nil {
		return load(ctx)
	}

	value, err := h.historyCache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	if err != nil {
		return nil, err
	}
	points, ok := value.([]stats.HistoricPoint)
	if !ok {
		return load(ctx)
	}
	return points, nil
}

func historyCacheKey(kind, id string, query historyQuery) string {
	return fmt.Sprintf("history:%s:%s:%s:%d:%d", kind, id, query.Granularity, query.From.Unix(), query.To.Unix())
}

func (h *Handler) GetUserHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetUserHistory")
	defer span.End()

	query, err := parseHistoryQuery(r.URL.Query())
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	userID := r.PathValue("userID")
	points, err := h.cachedHistory(ctx, historyCacheKey("user", userID, query), func(ctx context.Context) ([]stats.HistoricPoint, error) {
		return h.historicService.UserHistory(ctx, userID, query.Granularity, query.From, query.To)
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "get user history failed", "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, historicPointsToDTO(points))
}

func (h *Handler) GetTeamHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamHistory")
	defer span.End()

	query, err := parseHistoryQuery(r.URL.Query())
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	teamID := r.PathValue("teamID")
	points, err := h.cachedHistory(ctx, historyCacheKey("team", teamID, query), func(ctx context.Context) ([]stats.HistoricPoint, error) {
		return h.historicService.TeamHistory(ctx, teamID, query.Granularity, query.From, query.To)
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "get team history failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, historicPointsToDTO(points))
}
