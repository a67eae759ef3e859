package donations

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mandir-erp/mandir-erp/internal/ledger"
	"github.com/mandir-erp/mandir-erp/internal/platform/httpx"
)

// Handler serves the donations JSON API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the donations HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes attaches donation endpoints to the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/donations", h.ListDonations)
	r.Post("/donations", h.CreateDonation)
	r.Get("/donations/{id}", h.GetDonation)
	r.Get("/donations/{id}/receipt", h.GetReceipt)
}

var errorStatuses = httpx.StatusMap{
	http.StatusNotFound:            {ErrDonationNotFound},
	http.StatusUnprocessableEntity: {ledger.ErrNoOpenPeriod, ledger.ErrPeriodClosed, ledger.ErrDateOutOfRange, ledger.ErrAccountInactive},
	http.StatusBadRequest:          {ledger.ErrAccountNotFound},
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	httpx.RespondError(w, h.logger, "donations", err, errorStatuses)
}

func (h *Handler) ListDonations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	devoteeID, _ := strconv.ParseInt(q.Get("devotee_id"), 10, 64)
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	filter := ListDonationsFilter{
		DevoteeID: devoteeID,
		Purpose:   q.Get("purpose"),
		Page:      page,
		PerPage:   perPage,
	}
	donations, pagination, err := h.service.ListDonations(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"donations": donations, "pagination": pagination})
}

func (h *Handler) CreateDonation(w http.ResponseWriter, r *http.Request) {
	var input CreateDonationInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	donation, err := h.service.CreateDonation(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, donation)
}

func (h *Handler) GetDonation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid donation id")
		return
	}
	donation, err := h.service.GetDonation(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, donation)
}

func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid donation id")
		return
	}
	receipt, err := h.service.GetReceipt(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, receipt)
}
