package jobs

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/mandir-erp/mandir-erp/internal/platform/httpx"
)

// Handler exposes manual job triggers and queue visibility.
type Handler struct {
	client    *Client
	inspector *asynq.Inspector
	logger    *slog.Logger
}

// NewHandler constructs the jobs HTTP handler.
func NewHandler(client *Client, inspector *asynq.Inspector, logger *slog.Logger) *Handler {
	return &Handler{client: client, inspector: inspector, logger: logger}
}

// MountRoutes attaches job endpoints to the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/jobs/queue", h.queueInfo)
	r.Post("/jobs/reconcile", h.triggerReconcile)
	r.Post("/jobs/integrity", h.triggerIntegrity)
}

func (h *Handler) queueInfo(w http.ResponseWriter, r *http.Request) {
	if h.inspector == nil {
		httpx.JSON(w, http.StatusOK, map[string]any{"queue": QueueDefault, "pending": 0})
		return
	}
	info, err := h.inspector.GetQueueInfo(QueueDefault)
	if err != nil {
		h.logger.Warn("queue info unavailable", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "queue info unavailable")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"queue": info.Queue, "pending": info.Pending, "active": info.Active})
}

func (h *Handler) triggerReconcile(w http.ResponseWriter, r *http.Request) {
	info, err := h.client.EnqueueLedgerReconcile(r.Context())
	if err != nil {
		h.logger.Error("enqueue reconcile failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"task_id": info.ID, "type": info.Type})
}

func (h *Handler) triggerIntegrity(w http.ResponseWriter, r *http.Request) {
	periodID, _ := strconv.ParseInt(r.URL.Query().Get("period_id"), 10, 64)
	info, err := h.client.EnqueueGLIntegrity(r.Context(), GLIntegrityPayload{PeriodID: periodID})
	if err != nil {
		h.logger.Error("enqueue integrity failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"task_id": info.ID, "type": info.Type})
}
