package budgets

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mandir-erp/mandir-erp/internal/shared"
)

// RepositoryPort abstracts budget storage and ledger movement reads.
type RepositoryPort interface {
	UpsertBudget(ctx context.Context, b Budget) (Budget, error)
	GetBudget(ctx context.Context, id int64) (Budget, error)
	DeleteBudget(ctx context.Context, id int64) error
	ListBudgets(ctx context.Context, periodID int64) ([]Budget, error)
	AccountMovement(ctx context.Context, accountCode string, periodID int64) (float64, error)
}

// AuditPort records budget events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages budget lines and the planned-vs-actual comparison.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the budget service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// UpsertBudget creates or replaces a budget line.
func (s *Service) UpsertBudget(ctx context.Context, input UpsertBudgetInput) (Budget, error) {
	budget, err := s.repo.UpsertBudget(ctx, Budget{
		AccountCode: input.AccountCode,
		PeriodID:    input.PeriodID,
		Planned:     shared.Round2(input.Planned),
		Notes:       input.Notes,
	})
	if err != nil {
		return Budget{}, err
	}
	s.recordAudit(ctx, input.CreatedBy, "budgets.upsert", budget)
	return budget, nil
}

// GetBudget loads one budget line.
func (s *Service) GetBudget(ctx context.Context, id int64) (Budget, error) {
	return s.repo.GetBudget(ctx, id)
}

// DeleteBudget removes a budget line.
func (s *Service) DeleteBudget(ctx context.Context, id int64) error {
	return s.repo.DeleteBudget(ctx, id)
}

// ListBudgets lists budget lines for a period.
func (s *Service) ListBudgets(ctx context.Context, periodID int64) ([]Budget, error) {
	return s.repo.ListBudgets(ctx, periodID)
}

// Actuals compares each budget line against the ledger movement its account
// accumulated inside the period. Movement sums fan out concurrently, one
// goroutine per account, bounded to keep pool pressure sane.
func (s *Service) Actuals(ctx context.Context, periodID int64) ([]BudgetActual, error) {
	budgets, err := s.repo.ListBudgets(ctx, periodID)
	if err != nil {
		return nil, err
	}
	actuals := make([]BudgetActual, len(budgets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, b := range budgets {
		g.Go(func() error {
			movement, err := s.repo.AccountMovement(ctx, b.AccountCode, periodID)
			if err != nil {
				return err
			}
			actual := shared.Round2(movement)
			actuals[i] = BudgetActual{
				Budget:   b,
				Actual:   actual,
				Variance: shared.Round2(b.Planned - actual),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return actuals, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, b Budget) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "budget",
		EntityID: b.AccountCode,
		Meta:     map[string]any{"period_id": b.PeriodID, "planned": b.Planned},
		At:       s.now(),
	})
}
