package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dcgrid/teamcomp/internal/domain/systemstate"
	"github.com/dcgrid/teamcomp/internal/platform/cache"
	"github.com/dcgrid/teamcomp/internal/usecase"
	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
)

type Handler struct {
	teamService       *usecase.TeamService
	userService       *usecase.UserService
	hardwareService   *usecase.HardwareService
	summaryService    *usecase.SummaryService
	historicService   *usecase.HistoricService
	retirementService *usecase.RetirementService
	syncService       *usecase.SyncService
	resetService      *usecase.ResetService
	state             *systemstate.Holder
	historyCache      *cache.Store
	logger            *slog.Logger
	validator         *validator.Validate
}

func NewHandler(
	teamService *usecase.TeamService,
	userService *usecase.UserService,
	hardwareService *usecase.HardwareService,
	summaryService *usecase.SummaryService,
	historicService *usecase.HistoricService,
	retirementService *usecase.RetirementService,
	syncService *usecase.SyncService,
	resetService *usecase.ResetService,
	state *systemstate.Holder,
	historyCache *cache.Store,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		teamService:       teamService,
		userService:       userService,
		hardwareService:   hardwareService,
		summaryService:    summaryService,
		historicService:   historicService,
		retirementService: retirementService,
		syncService:       syncService,
		resetService:      resetService,
		state:             state,
		historyCache:      historyCache,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) decodeBody(r *http.Request, target any) error {
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}
	if err := h.validator.Struct(target); err != nil {
		return fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

type systemStateDTO struct {
	State        string `json:"state"`
	ReadAllowed  bool   `json:"readAllowed"`
	WriteAllowed bool   `json:"writeAllowed"`
}

func (h *Handler) GetSystemState(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSystemState")
	defer span.End()

	current := h.state.Current()
	writeSuccess(ctx, w, http.StatusOK, systemStateDTO{
		State:        string(current),
		ReadAllowed:  current.ReadAllowed(),
		WriteAllowed: current.WriteAllowed(),
	})
}
