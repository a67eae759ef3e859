package ar

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
	GetInvoice(ctx context.Context, id uuid.UUID) (Invoice, error)
	ListInvoices(ctx context.Context, f ListInvoicesFilter) ([]Invoice, int, error)
	ListInvoicePayments(ctx context.Context, invoiceID uuid.UUID) ([]InvoicePayment, error)
}

// AuditPort records AR events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates invoices and their payments.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the AR service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateInvoice records a receivable and posts its ledger legs in the same
// transaction: debit accounts receivable, credit the income account.
func (s *Service) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (Invoice, error) {
	incomeAccount := input.IncomeAccount
	if incomeAccount == "" {
		incomeAccount = ledger.CodeDefaultIncome
	}
	gstAmount := ledger.GSTAmount(input.Subtotal, input.GSTRate)
	total := shared.Round2(input.Subtotal + gstAmount)

	var invoice Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		code, err := tx.NextCode(ctx, shared.CodePrefixInvoice, input.Date)
		if err != nil {
			return err
		}
		invoiceID := uuid.New()
		entry, err := tx.PostLedger(ctx, ledger.PostingInput{
			Date:          input.Date,
			Memo:          fmt.Sprintf("Invoice %s", code),
			ReferenceType: "invoice",
			ReferenceID:   invoiceID,
			PostedBy:      input.CreatedBy,
			Lines: []ledger.PostingLine{
				{AccountCode: ledger.CodeAccountsReceivable, Debit: total},
				{AccountCode: incomeAccount, Credit: total},
			},
		})
		if err != nil {
			return err
		}
		invoice, err = tx.InsertInvoice(ctx, Invoice{
			ID:            invoiceID,
			Code:          code,
			DevoteeID:     input.DevoteeID,
			IncomeAccount: incomeAccount,
			Date:          input.Date,
			Subtotal:      input.Subtotal,
			GSTRate:       input.GSTRate,
			GSTAmount:     gstAmount,
			Total:         total,
			PaymentStatus: shared.PaymentStatusUnpaid,
			PeriodID:      entry.PeriodID,
			Notes:         input.Notes,
			EntryID:       entry.ID,
			CreatedBy:     input.CreatedBy,
		})
		return err
	})
	if err != nil {
		return Invoice{}, err
	}
	s.recordAudit(ctx, input.CreatedBy, "ar.invoice.create", invoice.ID.String(), map[string]any{"code": invoice.Code, "total": invoice.Total})
	return invoice, nil
}

// RecordPayment applies a payment to an invoice: debit the receiving bank
// account, credit accounts receivable. Overpayment is rejected server-side.
func (s *Service) RecordPayment(ctx context.Context, input RecordPaymentInput) (InvoicePayment, error) {
	bankAccount := input.BankAccount
	if bankAccount == "" {
		bankAccount = ledger.CodeCashBank
	}
	var payment InvoicePayment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		invoice, err := tx.GetInvoiceForUpdate(ctx, input.InvoiceID)
		if err != nil {
			return err
		}
		remaining := invoice.Remaining()
		if remaining <= 0 {
			return ErrInvoicePaid
		}
		if input.Amount > remaining {
			return fmt.Errorf("%w: remaining %.2f", ErrOverpayment, remaining)
		}
		entry, err := tx.PostLedger(ctx, ledger.PostingInput{
			Date:          input.Date,
			Memo:          fmt.Sprintf("Payment for %s", invoice.Code),
			ReferenceType: "invoice_payment",
			ReferenceID:   input.InvoiceID,
			PostedBy:      input.CreatedBy,
			Lines: []ledger.PostingLine{
				{AccountCode: bankAccount, Debit: input.Amount},
				{AccountCode: ledger.CodeAccountsReceivable, Credit: input.Amount},
			},
		})
		if err != nil {
			return err
		}
		paid := shared.Round2(invoice.PaidAmount + input.Amount)
		if err := tx.UpdateInvoicePayment(ctx, invoice.ID, paid, shared.DerivePaymentStatus(paid, invoice.Total)); err != nil {
			return err
		}
		payment, err = tx.InsertInvoicePayment(ctx, InvoicePayment{
			ID:          uuid.New(),
			InvoiceID:   invoice.ID,
			Amount:      input.Amount,
			Date:        input.Date,
			Mode:        input.Mode,
			BankAccount: bankAccount,
			ReferenceNo: input.ReferenceNo,
			EntryID:     entry.ID,
			CreatedBy:   input.CreatedBy,
		})
		return err
	})
	if err != nil {
		return InvoicePayment{}, err
	}
	s.recordAudit(ctx, input.CreatedBy, "ar.invoice.pay", payment.InvoiceID.String(), map[string]any{"amount": payment.Amount, "mode": payment.Mode})
	return payment, nil
}

// GetInvoice loads one invoice.
func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

// ListInvoices lists invoices for the filter.
func (s *Service) ListInvoices(ctx context.Context, f ListInvoicesFilter) ([]Invoice, shared.Pagination, error) {
	invoices, total, err := s.repo.ListInvoices(ctx, f)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return invoices, shared.NewPagination(f.Page.Page, f.Page.PerPage, total), nil
}

// ListInvoicePayments lists payments for an invoice.
func (s *Service) ListInvoicePayments(ctx context.Context, invoiceID uuid.UUID) ([]InvoicePayment, error) {
	return s.repo.ListInvoicePayments(ctx, invoiceID)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "invoice",
		EntityID: entityID,
		Meta:     meta,
		At:       s.now(),
	})
}
