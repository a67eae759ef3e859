package expenses

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mandir-erp/mandir-erp/internal/ledger"
	"github.com/mandir-erp/mandir-erp/internal/shared"
)

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetExpense(ctx context.Context, id uuid.UUID) (Expense, error)
	ListExpenses(ctx context.Context, page shared.Pagination) ([]Expense, int, error)
}

// AuditPort records expense events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service records and reads expenses.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the expense service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateExpense records a direct expense and posts its legs in the same
// transaction: debit the expense account, credit the paying cash or bank
// account, both for the GST-inclusive total.
func (s *Service) CreateExpense(ctx context.Context, input CreateExpenseInput) (Expense, error) {
	expenseAccount := input.ExpenseAccount
	if expenseAccount == "" {
		expenseAccount = ledger.CodeDefaultExpense
	}
	paidFrom := input.PaidFrom
	if paidFrom == "" {
		paidFrom = ledger.CodeCashBank
	}
	gstAmount := ledger.GSTAmount(input.Subtotal, input.GSTRate)
	total := shared.Round2(input.Subtotal + gstAmount)

	var expense Expense
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		code, err := tx.NextCode(ctx, shared.CodePrefixExpense, input.Date)
		if err != nil {
			return err
		}
		expenseID := uuid.New()
		entry, err := tx.PostLedger(ctx, ledger.PostingInput{
			Date:          input.Date,
			Memo:          fmt.Sprintf("Expense %s: %s", code, input.Description),
			ReferenceType: "expense",
			ReferenceID:   expenseID,
			PostedBy:      input.CreatedBy,
			Lines: []ledger.PostingLine{
				{AccountCode: expenseAccount, Debit: total},
				{AccountCode: paidFrom, Credit: total},
			},
		})
		if err != nil {
			return err
		}
		expense, err = tx.InsertExpense(ctx, Expense{
			ID:             expenseID,
			Code:           code,
			ExpenseAccount: expenseAccount,
			PaidFrom:       paidFrom,
			Date:           input.Date,
			Subtotal:       input.Subtotal,
			GSTRate:        input.GSTRate,
			GSTAmount:      gstAmount,
			Total:          total,
			Description:    input.Description,
			PeriodID:       entry.PeriodID,
			EntryID:        entry.ID,
			CreatedBy:      input.CreatedBy,
		})
		return err
	})
	if err != nil {
		return Expense{}, err
	}
	s.recordAudit(ctx, input.CreatedBy, "expenses.create", expense.ID.String(), map[string]any{"code": expense.Code, "total": expense.Total})
	return expense, nil
}

// GetExpense loads one expense.
func (s *Service) GetExpense(ctx context.Context, id uuid.UUID) (Expense, error) {
	return s.repo.GetExpense(ctx, id)
}

// ListExpenses lists expenses newest first.
func (s *Service) ListExpenses(ctx context.Context, page, perPage int) ([]Expense, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	expenses, total, err := s.repo.ListExpenses(ctx, p)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return expenses, shared.NewPagination(page, perPage, total), nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "expense",
		EntityID: entityID,
		Meta:     meta,
		At:       s.now(),
	})
}
