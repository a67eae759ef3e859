package ledger

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mandir-erp/mandir-erp/internal/platform/httpx"
	"github.com/mandir-erp/mandir-erp/internal/shared"
)

// Handler serves the ledger JSON API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the ledger HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes attaches ledger endpoints to the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts", h.ListAccounts)
	r.Post("/accounts", h.CreateAccount)
	r.Patch("/accounts/{id}", h.UpdateAccount)
	r.Get("/accounts/{id}/ledger", h.AccountLedger)
	r.Post("/accounts/{id}/recompute", h.RecomputeBalance)

	r.Get("/periods", h.ListPeriods)
	r.Post("/periods", h.CreatePeriod)
	r.Get("/periods/active", h.ActivePeriod)
	r.Post("/periods/{id}/close", h.ClosePeriod)
	r.Post("/periods/{id}/reopen", h.ReopenPeriod)

	r.Get("/entries", h.ListEntries)
	r.Post("/entries", h.PostEntry)
	r.Get("/entries/{id}", h.GetEntry)
	r.Post("/entries/{id}/reverse", h.ReverseEntry)
}

var errorStatuses = httpx.StatusMap{
	http.StatusNotFound:            {ErrAccountNotFound, ErrEntryNotFound, ErrPeriodNotFound, shared.ErrNotFound},
	http.StatusConflict:            {shared.ErrDuplicateCode},
	http.StatusBadRequest:          {ErrUnbalanced, ErrTooFewLines, ErrDateOutOfRange},
	http.StatusUnprocessableEntity: {ErrNoOpenPeriod, ErrPeriodClosed, ErrAccountInactive, ErrAlreadyReversed, shared.ErrInvalidPeriodTransition},
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	httpx.RespondError(w, h.logger, "ledger", err, errorStatuses)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func pageFromQuery(r *http.Request) shared.Pagination {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	return shared.NewPagination(page, perPage, 0)
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	accounts, err := h.service.ListAccounts(r.Context(), activeOnly)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var input CreateAccountInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	acct, err := h.service.CreateAccount(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, acct)
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid account id")
		return
	}
	var input UpdateAccountInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	acct, err := h.service.UpdateAccount(r.Context(), id, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, acct)
}

func (h *Handler) AccountLedger(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid account id")
		return
	}
	rows, page, err := h.service.AccountLedger(r.Context(), id, pageFromQuery(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rows": rows, "pagination": page})
}

func (h *Handler) RecomputeBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid account id")
		return
	}
	result, err := h.service.RecomputeBalance(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.service.ListPeriods(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"periods": periods})
}

func (h *Handler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	var input CreatePeriodInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	period, err := h.service.CreatePeriod(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, period)
}

func (h *Handler) ActivePeriod(w http.ResponseWriter, r *http.Request) {
	period, err := h.service.ActivePeriod(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, period)
}

func (h *Handler) ClosePeriod(w http.ResponseWriter, r *http.Request) {
	h.periodTransition(w, r, h.service.ClosePeriod)
}

func (h *Handler) ReopenPeriod(w http.ResponseWriter, r *http.Request) {
	h.periodTransition(w, r, h.service.ReopenPeriod)
}

type periodTransitionRequest struct {
	ActorID int64 `json:"actor_id"`
}

func (h *Handler) periodTransition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id, actorID int64) (Period, error)) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid period id")
		return
	}
	var req periodTransitionRequest
	_ = httpx.DecodeJSON(r, &req)
	period, err := fn(r.Context(), id, req.ActorID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, period)
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListEntries(r.Context(), pageFromQuery(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": entries})
}

type postEntryRequest struct {
	Date    time.Time `json:"date" validate:"required"`
	Memo    string    `json:"memo" validate:"max=500"`
	ActorID int64     `json:"actor_id"`
	Lines   []struct {
		AccountCode string  `json:"account_code" validate:"required"`
		Debit       float64 `json:"debit" validate:"gte=0"`
		Credit      float64 `json:"credit" validate:"gte=0"`
	} `json:"lines" validate:"required,min=2,dive"`
}

// PostEntry accepts a manual journal entry. Entries are created posted; there
// is no draft state.
func (h *Handler) PostEntry(w http.ResponseWriter, r *http.Request) {
	var req postEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := PostingInput{
		Date:          req.Date,
		Memo:          req.Memo,
		ReferenceType: "manual",
		ReferenceID:   uuid.New(),
		PostedBy:      req.ActorID,
	}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, PostingLine{AccountCode: line.AccountCode, Debit: line.Debit, Credit: line.Credit})
	}
	entry, err := h.service.Post(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid entry id")
		return
	}
	entry, err := h.service.GetEntry(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

type reverseEntryRequest struct {
	ActorID int64      `json:"actor_id"`
	Memo    string     `json:"memo"`
	Date    *time.Time `json:"date,omitempty"`
}

func (h *Handler) ReverseEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid entry id")
		return
	}
	var req reverseEntryRequest
	_ = httpx.DecodeJSON(r, &req)
	entry, err := h.service.ReverseEntry(r.Context(), ReverseInput{
		EntryID: id,
		ActorID: req.ActorID,
		Memo:    req.Memo,
		Date:    req.Date,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}
