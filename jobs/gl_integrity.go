package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/hibiken/asynq"

	"github.com/mandir-erp/mandir-erp/internal/ledger"
)

// GLIntegrityChecker asserts that debits equal credits per period.
type GLIntegrityChecker struct {
	service *ledger.Service
	logger  *slog.Logger
}

// NewGLIntegrityChecker constructs the integrity handler.
func NewGLIntegrityChecker(service *ledger.Service, logger *slog.Logger) *GLIntegrityChecker {
	return &GLIntegrityChecker{service: service, logger: logger}
}

// Handle processes TaskGLIntegrity. Violations are logged and the task fails
// so the run is visible in the queue.
func (j *GLIntegrityChecker) Handle(ctx context.Context, t *asynq.Task) error {
	var payload GLIntegrityPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	var periodIDs []int64
	if payload.PeriodID > 0 {
		periodIDs = []int64{payload.PeriodID}
	} else {
		periods, err := j.service.ListPeriods(ctx)
		if err != nil {
			return err
		}
		for _, p := range periods {
			periodIDs = append(periodIDs, p.ID)
		}
	}

	violations := 0
	for _, periodID := range periodIDs {
		debit, credit, err := j.service.PeriodIntegrity(ctx, periodID)
		if err != nil {
			return err
		}
		if math.Abs(debit-credit) >= 0.005 {
			violations++
			j.logger.Error("period out of balance",
				slog.Int64("period_id", periodID),
				slog.Float64("debit", debit),
				slog.Float64("credit", credit))
		}
	}
	if violations > 0 {
		return fmt.Errorf("jobs: %d period(s) out of balance", violations)
	}
	j.logger.Info("gl integrity check passed", slog.Int("periods", len(periodIDs)))
	return nil
}
