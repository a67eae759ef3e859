package donations

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
	GetDonation(ctx context.Context, id uuid.UUID) (Donation, error)
	ListDonations(ctx context.Context, f ListDonationsFilter) ([]Donation, int, error)
}

// AuditPort records donation events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service records donations and issues receipts.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the donation service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateDonation records a donation, issues the next RCPT number, and posts
// debit cash / credit the income account in the same transaction.
func (s *Service) CreateDonation(ctx context.Context, input CreateDonationInput) (Donation, error) {
	incomeAccount := input.IncomeAccount
	if incomeAccount == "" {
		incomeAccount = ledger.CodeDefaultIncome
	}
	amount := shared.Round2(input.Amount)

	var donation Donation
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		receiptNo, err := tx.NextCode(ctx, shared.CodePrefixReceipt, input.Date)
		if err != nil {
			return err
		}
		donationID := uuid.New()
		entry, err := tx.PostLedger(ctx, ledger.PostingInput{
			Date:          input.Date,
			Memo:          fmt.Sprintf("Donation %s (%s)", receiptNo, input.Purpose),
			ReferenceType: "donation",
			ReferenceID:   donationID,
			PostedBy:      input.CreatedBy,
			Lines: []ledger.PostingLine{
				{AccountCode: ledger.CodeCashBank, Debit: amount},
				{AccountCode: incomeAccount, Credit: amount},
			},
		})
		if err != nil {
			return err
		}
		donation, err = tx.InsertDonation(ctx, Donation{
			ID:            donationID,
			ReceiptNo:     receiptNo,
			DevoteeID:     input.DevoteeID,
			Amount:        amount,
			Purpose:       input.Purpose,
			Mode:          input.Mode,
			IncomeAccount: incomeAccount,
			Date:          input.Date,
			PeriodID:      entry.PeriodID,
			EntryID:       entry.ID,
			CreatedBy:     input.CreatedBy,
		})
		return err
	})
	if err != nil {
		return Donation{}, err
	}
	s.recordAudit(ctx, input.CreatedBy, "donations.create", donation.ID.String(), map[string]any{"receipt_no": donation.ReceiptNo, "amount": donation.Amount})
	return donation, nil
}

// GetDonation loads one donation.
func (s *Service) GetDonation(ctx context.Context, id uuid.UUID) (Donation, error) {
	return s.repo.GetDonation(ctx, id)
}

// GetReceipt renders the printable receipt, with the amount formatted as INR.
func (s *Service) GetReceipt(ctx context.Context, id uuid.UUID) (Receipt, error) {
	donation, err := s.repo.GetDonation(ctx, id)
	if err != nil {
		return Receipt{}, err
	}
	return Receipt{
		ReceiptNo:     donation.ReceiptNo,
		DevoteeName:   donation.DevoteeName,
		Amount:        donation.Amount,
		AmountDisplay: shared.FormatINR(donation.Amount),
		Purpose:       donation.Purpose,
		Mode:          donation.Mode,
		Date:          donation.Date,
	}, nil
}

// ListDonations lists donations for the filter.
func (s *Service) ListDonations(ctx context.Context, f ListDonationsFilter) ([]Donation, shared.Pagination, error) {
	donations, total, err := s.repo.ListDonations(ctx, f)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return donations, shared.NewPagination(f.Page, f.PerPage, total), nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "donation",
		EntityID: entityID,
		Meta:     meta,
		At:       s.now(),
	})
}
