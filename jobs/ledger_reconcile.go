package jobs

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/panjf2000/ants/v2"

	"github.com/mandir-erp/mandir-erp/internal/ledger"
)

// LedgerReconciler recomputes account balances from ledger history.
type LedgerReconciler struct {
	service *ledger.Service
	logger  *slog.Logger
	workers int
}

// NewLedgerReconciler constructs the reconcile handler. workers bounds the
// ants pool; values below one fall back to a small default.
func NewLedgerReconciler(service *ledger.Service, logger *slog.Logger, workers int) *LedgerReconciler {
	if workers < 1 {
		workers = 4
	}
	return &LedgerReconciler{service: service, logger: logger, workers: workers}
}

// Handle processes TaskLedgerReconcile: fan out over every account on an
// ants pool, recompute each balance, and log any drift that was repaired.
func (j *LedgerReconciler) Handle(ctx context.Context, _ *asynq.Task) error {
	ids, err := j.service.AccountIDs(ctx)
	if err != nil {
		return err
	}
	pool, err := ants.NewPool(j.workers)
	if err != nil {
		return err
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		repaired int
		firstErr error
	)
	for _, id := range ids {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			result, err := j.service.RecomputeBalance(ctx, id)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				j.logger.Error("balance recompute failed", slog.Int64("account_id", id), slog.Any("error", err))
				return
			}
			if result.Repaired {
				mu.Lock()
				repaired++
				mu.Unlock()
				j.logger.Warn("balance drift repaired",
					slog.Int64("account_id", result.AccountID),
					slog.String("code", result.Code),
					slog.Float64("stored", result.Stored),
					slog.Float64("computed", result.Computed))
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = submitErr
			}
			mu.Unlock()
		}
	}
	wg.Wait()

	j.logger.Info("ledger reconcile finished",
		slog.Int("accounts", len(ids)),
		slog.Int("repaired", repaired))
	return firstErr
}
