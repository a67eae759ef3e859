package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/mandir-erp/mandir-erp/internal/ap"
	"github.com/mandir-erp/mandir-erp/internal/app"
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
	"github.com/mandir-erp/mandir-erp/internal/platform/cache"
	"github.com/mandir-erp/mandir-erp/internal/platform/db"
	"github.com/mandir-erp/mandir-erp/internal/shared"
	"github.com/mandir-erp/mandir-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := db.Migrate(cfg.MigrationsDir, cfg.PGDSN); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, catalog cache disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	auditLogger := shared.NewAuditLogger(pool)

	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo, auditLogger)

	apService := ap.NewService(ap.NewRepository(pool, ledgerRepo, ledgerService), auditLogger)
	arService := ar.NewService(ar.NewRepository(pool, ledgerRepo, ledgerService), auditLogger)
	expenseService := expenses.NewService(expenses.NewRepository(pool, ledgerRepo, ledgerService), auditLogger)
	donationService := donations.NewService(donations.NewRepository(pool, ledgerRepo, ledgerService), auditLogger)
	budgetService := budgets.NewService(budgets.NewRepository(pool), auditLogger)
	bankingService := banking.NewService(banking.NewRepository(pool), ledgerService, auditLogger)
	devoteeService := devotees.NewService(devotees.NewRepository(pool), auditLogger)
	eventService := events.NewService(events.NewRepository(pool), auditLogger)
	inventoryService := inventory.NewService(inventory.NewRepository(pool), auditLogger)

	catalogCache := gurukul.NewCatalogCache(redisClient, cfg.CatalogCacheTTL, logger)
	gurukulService := gurukul.NewService(gurukul.NewRepository(pool, ledgerRepo, ledgerService), catalogCache, auditLogger)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobsClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	jobsInspector := asynq.NewInspector(redisOpts)

	router := app.NewRouter(app.MiddlewareConfig{Logger: logger, Config: cfg}, app.Handlers{
		Ledger:    ledger.NewHandler(logger, ledgerService),
		AP:        ap.NewHandler(logger, apService),
		AR:        ar.NewHandler(logger, arService),
		Expenses:  expenses.NewHandler(logger, expenseService),
		Donations: donations.NewHandler(logger, donationService),
		Budgets:   budgets.NewHandler(logger, budgetService),
		Banking:   banking.NewHandler(logger, bankingService),
		Devotees:  devotees.NewHandler(logger, devoteeService),
		Events:    events.NewHandler(logger, eventService),
		Inventory: inventory.NewHandler(logger, inventoryService),
		Gurukul:   gurukul.NewHandler(logger, gurukulService),
		Jobs:      jobs.NewHandler(jobsClient, jobsInspector, logger),
		Metrics:   observability.NewMetrics(),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
