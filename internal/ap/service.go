package ap

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
	GetBill(ctx context.Context, id uuid.UUID) (Bill, error)
	ListBills(ctx context.Context, f ListBillsFilter) ([]Bill, int, error)
	ListBillPayments(ctx context.Context, billID uuid.UUID) ([]BillPayment, error)
	GetVendor(ctx context.Context, id int64) (Vendor, error)
	ListVendors(ctx context.Context, activeOnly bool) ([]Vendor, error)
}

// AuditPort records AP events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates vendors, bills, and payments.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the AP service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateVendor registers a vendor with a generated VND code.
func (s *Service) CreateVendor(ctx context.Context, input CreateVendorInput) (Vendor, error) {
	var vendor Vendor
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		code, err := tx.NextCode(ctx, shared.CodePrefixVendor, s.now())
		if err != nil {
			return err
		}
		vendor, err = tx.InsertVendor(ctx, Vendor{
			Code:    code,
			Name:    input.Name,
			Contact: input.Contact,
			Email:   input.Email,
			GSTIN:   input.GSTIN,
			Address: input.Address,
		})
		return err
	})
	return vendor, err
}

// CreateBill records a vendor bill and posts its ledger legs in the same
// transaction: debit the expense account, credit accounts payable, both for
// the GST-inclusive total.
func (s *Service) CreateBill(ctx context.Context, input CreateBillInput) (Bill, error) {
	if _, err := s.repo.GetVendor(ctx, input.VendorID); err != nil {
		return Bill{}, err
	}
	expenseAccount := input.ExpenseAccount
	if expenseAccount == "" {
		expenseAccount = ledger.CodeDefaultExpense
	}
	gstAmount := ledger.GSTAmount(input.Subtotal, input.GSTRate)
	total := shared.Round2(input.Subtotal + gstAmount)

	var bill Bill
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		code, err := tx.NextCode(ctx, shared.CodePrefixBill, input.Date)
		if err != nil {
			return err
		}
		billID := uuid.New()
		entry, err := tx.PostLedger(ctx, ledger.PostingInput{
			Date:          input.Date,
			Memo:          fmt.Sprintf("Bill %s", code),
			ReferenceType: "bill",
			ReferenceID:   billID,
			PostedBy:      input.CreatedBy,
			Lines: []ledger.PostingLine{
				{AccountCode: expenseAccount, Debit: total},
				{AccountCode: ledger.CodeAccountsPayable, Credit: total},
			},
		})
		if err != nil {
			return err
		}
		bill, err = tx.InsertBill(ctx, Bill{
			ID:             billID,
			Code:           code,
			VendorID:       input.VendorID,
			ExpenseAccount: expenseAccount,
			Date:           input.Date,
			Subtotal:       input.Subtotal,
			GSTRate:        input.GSTRate,
			GSTAmount:      gstAmount,
			Total:          total,
			PaymentStatus:  shared.PaymentStatusUnpaid,
			PeriodID:       entry.PeriodID,
			Notes:          input.Notes,
			EntryID:        entry.ID,
			CreatedBy:      input.CreatedBy,
		})
		return err
	})
	if err != nil {
		return Bill{}, err
	}
	s.recordAudit(ctx, input.CreatedBy, "ap.bill.create", bill.ID.String(), map[string]any{"code": bill.Code, "total": bill.Total})
	return bill, nil
}

// PayBill records a payment against a bill and posts the reciprocal legs:
// debit accounts payable, credit the paying bank account. Overpayment is
// rejected server-side.
func (s *Service) PayBill(ctx context.Context, input PayBillInput) (BillPayment, error) {
	bankAccount := input.BankAccount
	if bankAccount == "" {
		bankAccount = ledger.CodeCashBank
	}
	var payment BillPayment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		bill, err := tx.GetBillForUpdate(ctx, input.BillID)
		if err != nil {
			return err
		}
		remaining := bill.Remaining()
		if remaining <= 0 {
			return ErrBillPaid
		}
		if input.Amount > remaining {
			return fmt.Errorf("%w: remaining %.2f", ErrOverpayment, remaining)
		}
		entry, err := tx.PostLedger(ctx, ledger.PostingInput{
			Date:          input.Date,
			Memo:          fmt.Sprintf("Payment for %s", bill.Code),
			ReferenceType: "bill_payment",
			ReferenceID:   input.BillID,
			PostedBy:      input.CreatedBy,
			Lines: []ledger.PostingLine{
				{AccountCode: ledger.CodeAccountsPayable, Debit: input.Amount},
				{AccountCode: bankAccount, Credit: input.Amount},
			},
		})
		if err != nil {
			return err
		}
		paid := shared.Round2(bill.PaidAmount + input.Amount)
		if err := tx.UpdateBillPayment(ctx, bill.ID, paid, shared.DerivePaymentStatus(paid, bill.Total)); err != nil {
			return err
		}
		payment, err = tx.InsertBillPayment(ctx, BillPayment{
			ID:          uuid.New(),
			BillID:      bill.ID,
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
		return BillPayment{}, err
	}
	s.recordAudit(ctx, input.CreatedBy, "ap.bill.pay", payment.BillID.String(), map[string]any{"amount": payment.Amount, "mode": payment.Mode})
	return payment, nil
}

// GetBill loads one bill.
func (s *Service) GetBill(ctx context.Context, id uuid.UUID) (Bill, error) {
	return s.repo.GetBill(ctx, id)
}

// ListBills lists bills for the filter.
func (s *Service) ListBills(ctx context.Context, f ListBillsFilter) ([]Bill, shared.Pagination, error) {
	bills, total, err := s.repo.ListBills(ctx, f)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return bills, shared.NewPagination(f.Page.Page, f.Page.PerPage, total), nil
}

// ListBillPayments lists payments for a bill.
func (s *Service) ListBillPayments(ctx context.Context, billID uuid.UUID) ([]BillPayment, error) {
	return s.repo.ListBillPayments(ctx, billID)
}

// GetVendor loads one vendor.
func (s *Service) GetVendor(ctx context.Context, id int64) (Vendor, error) {
	return s.repo.GetVendor(ctx, id)
}

// ListVendors lists vendors.
func (s *Service) ListVendors(ctx context.Context, activeOnly bool) ([]Vendor, error) {
	return s.repo.ListVendors(ctx, activeOnly)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "bill",
		EntityID: entityID,
		Meta:     meta,
		At:       s.now(),
	})
}
