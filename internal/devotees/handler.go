package devotees

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mandir-erp/mandir-erp/internal/platform/httpx"
	"github.com/mandir-erp/mandir-erp/internal/shared"
)

// Handler serves the devotees JSON API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the devotees HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes attaches devotee endpoints to the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/devotees", h.ListDevotees)
	r.Post("/devotees", h.CreateDevotee)
	r.Get("/devotees/export", h.ExportCSV)
	r.Get("/devotees/{id}", h.GetDevotee)
	r.Put("/devotees/{id}", h.UpdateDevotee)
}

var errorStatuses = httpx.StatusMap{
	http.StatusNotFound: {ErrDevoteeNotFound},
	http.StatusConflict: {shared.ErrDuplicateCode},
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	httpx.RespondError(w, h.logger, "devotees", err, errorStatuses)
}

func (h *Handler) ListDevotees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	filter := ListDevoteesFilter{
		Search:     q.Get("q"),
		ActiveOnly: q.Get("active") == "true",
		Page:       page,
		PerPage:    perPage,
	}
	devotees, pagination, err := h.service.ListDevotees(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"devotees": devotees, "pagination": pagination})
}

func (h *Handler) CreateDevotee(w http.ResponseWriter, r *http.Request) {
	var input CreateDevoteeInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	devotee, err := h.service.CreateDevotee(r.Context(), actorID(r), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, devotee)
}

func (h *Handler) GetDevotee(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid devotee id")
		return
	}
	devotee, err := h.service.GetDevotee(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, devotee)
}

func (h *Handler) UpdateDevotee(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid devotee id")
		return
	}
	var input UpdateDevoteeInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	devotee, err := h.service.UpdateDevotee(r.Context(), actorID(r), id, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, devotee)
}

// ExportCSV streams all devotees as a CSV attachment.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="devotees.csv"`)
	if err := h.service.ExportCSV(r.Context(), w); err != nil {
		h.logger.Error("devotee export failed", slog.Any("error", err))
	}
}

func actorID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
	return id
}
