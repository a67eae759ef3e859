package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mandir-erp/mandir-erp/internal/ap"
	"github.com/mandir-erp/mandir-erp/internal/ar"
	"github.com/mandir-erp/mandir-erp/internal/banking"
	"github.com/mandir-erp/mandir-erp/internal/budgets"
	"github.com/mandir-erp/mandir-erp/internal/devotees"
	"github.com/mandir-erp/mandir-erp/internal/donations"
	"github.com/mandir-erp/mandir-erp/internal/events"
	"github.com/mandir-erp/mandir-erp/internal/expenses"
	"github.com/mandir-erp/mandir-erp/internal/gurukul"
	"github.com/mandir-erp/mandir-erp/internal/inventory"
	"github.com/mandir-erp/mandir-erp/internal/ledger"
	"github.com/mandir-erp/mandir-erp/internal/observability"
	"github.com/mandir-erp/mandir-erp/jobs"
)

// Handlers aggregates every module handler the router mounts.
type Handlers struct {
	Ledger    *ledger.Handler
	AP        *ap.Handler
	AR        *ar.Handler
	Expenses  *expenses.Handler
	Donations *donations.Handler
	Budgets   *budgets.Handler
	Banking   *banking.Handler
	Devotees  *devotees.Handler
	Events    *events.Handler
	Inventory *inventory.Handler
	Gurukul   *gurukul.Handler
	Jobs      *jobs.Handler
	Metrics   *observability.Metrics
}

// NewRouter assembles the HTTP surface: the admin API under /api/v1 and the
// rate-limited public endpoints under /public.
func NewRouter(cfg MiddlewareConfig, h Handlers) chi.Router {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(cfg) {
		r.Use(mw)
	}
	if h.Metrics != nil {
		r.Use(h.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", h.Metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(api chi.Router) {
		h.Ledger.MountRoutes(api)
		h.AP.MountRoutes(api)
		h.AR.MountRoutes(api)
		h.Expenses.MountRoutes(api)
		h.Donations.MountRoutes(api)
		h.Budgets.MountRoutes(api)
		h.Banking.MountRoutes(api)
		h.Devotees.MountRoutes(api)
		h.Events.MountRoutes(api)
		h.Inventory.MountRoutes(api)
		h.Gurukul.MountRoutes(api)
		if h.Jobs != nil {
			h.Jobs.MountRoutes(api)
		}
	})

	r.Route("/public", func(pub chi.Router) {
		pub.Use(PublicRateLimiter(cfg.Config))
		h.Events.MountPublicRoutes(pub)
		h.Gurukul.MountPublicRoutes(pub)
	})

	return r
}
