package budgets

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mandir-erp/mandir-erp/internal/platform/httpx"
)

// Handler serves the budgets JSON API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the budgets HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes attaches budget endpoints to the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/budgets", h.ListBudgets)
	r.Put("/budgets", h.UpsertBudget)
	r.Get("/budgets/actuals", h.Actuals)
	r.Get("/budgets/{id}", h.GetBudget)
	r.Delete("/budgets/{id}", h.DeleteBudget)
}

var errorStatuses = httpx.StatusMap{
	http.StatusNotFound: {ErrBudgetNotFound},
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	httpx.RespondError(w, h.logger, "budgets", err, errorStatuses)
}

func (h *Handler) periodIDQuery(w http.ResponseWriter, r *http.Request) (int64, bool) {
	periodID, err := strconv.ParseInt(r.URL.Query().Get("period_id"), 10, 64)
	if err != nil || periodID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "period_id query parameter is required")
		return 0, false
	}
	return periodID, true
}

func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	periodID, ok := h.periodIDQuery(w, r)
	if !ok {
		return
	}
	budgets, err := h.service.ListBudgets(r.Context(), periodID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"budgets": budgets})
}

func (h *Handler) UpsertBudget(w http.ResponseWriter, r *http.Request) {
	var input UpsertBudgetInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	budget, err := h.service.UpsertBudget(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, budget)
}

func (h *Handler) Actuals(w http.ResponseWriter, r *http.Request) {
	periodID, ok := h.periodIDQuery(w, r)
	if !ok {
		return
	}
	actuals, err := h.service.Actuals(r.Context(), periodID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"actuals": actuals})
}

func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid budget id")
		return
	}
	budget, err := h.service.GetBudget(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, budget)
}

func (h *Handler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid budget id")
		return
	}
	if err := h.service.DeleteBudget(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
