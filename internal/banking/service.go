package banking

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mandir-erp/mandir-erp/internal/ledger"
	"github.com/mandir-erp/mandir-erp/internal/shared"
)

// RepositoryPort abstracts bank account storage.
type RepositoryPort interface {
	InsertBankAccount(ctx context.Context, b BankAccount) (BankAccount, error)
	UpdateBankAccount(ctx context.Context, id int64, input UpdateBankAccountInput) (BankAccount, error)
	GetBankAccount(ctx context.Context, id int64) (BankAccount, error)
	ListBankAccounts(ctx context.Context, activeOnly bool) ([]BankAccount, error)
}

// LedgerPort verifies that a linked chart of accounts code exists.
type LedgerPort interface {
	GetAccountByCode(ctx context.Context, code string) (ledger.Account, error)
}

// AuditPort records banking events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages bank accounts.
type Service struct {
	repo   RepositoryPort
	ledger LedgerPort
	audit  AuditPort
	now    func() time.Time
}

// NewService constructs the banking service.
func NewService(repo RepositoryPort, ledgerPort LedgerPort, audit AuditPort) *Service {
	return &Service{repo: repo, ledger: ledgerPort, audit: audit, now: time.Now}
}

// CreateBankAccount registers a bank account after verifying the linked
// ledger account exists.
func (s *Service) CreateBankAccount(ctx context.Context, input CreateBankAccountInput) (BankAccount, error) {
	if _, err := s.ledger.GetAccountByCode(ctx, input.LedgerAccount); err != nil {
		return BankAccount{}, fmt.Errorf("banking: ledger account %s: %w", input.LedgerAccount, err)
	}
	account, err := s.repo.InsertBankAccount(ctx, BankAccount{
		Name:          input.Name,
		AccountNumber: input.AccountNumber,
		IFSC:          input.IFSC,
		LedgerAccount: input.LedgerAccount,
	})
	if err != nil {
		return BankAccount{}, err
	}
	s.recordAudit(ctx, input.CreatedBy, "banking.account.create", account)
	return account, nil
}

// UpdateBankAccount updates a bank account.
func (s *Service) UpdateBankAccount(ctx context.Context, id int64, input UpdateBankAccountInput) (BankAccount, error) {
	if _, err := s.ledger.GetAccountByCode(ctx, input.LedgerAccount); err != nil {
		return BankAccount{}, fmt.Errorf("banking: ledger account %s: %w", input.LedgerAccount, err)
	}
	account, err := s.repo.UpdateBankAccount(ctx, id, input)
	if err != nil {
		return BankAccount{}, err
	}
	s.recordAudit(ctx, input.CreatedBy, "banking.account.update", account)
	return account, nil
}

// GetBankAccount loads one bank account.
func (s *Service) GetBankAccount(ctx context.Context, id int64) (BankAccount, error) {
	return s.repo.GetBankAccount(ctx, id)
}

// ListBankAccounts lists bank accounts.
func (s *Service) ListBankAccounts(ctx context.Context, activeOnly bool) ([]BankAccount, error) {
	return s.repo.ListBankAccounts(ctx, activeOnly)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, b BankAccount) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "bank_account",
		EntityID: strconv.FormatInt(b.ID, 10),
		Meta:     map[string]any{"name": b.Name, "ledger_account": b.LedgerAccount},
		At:       s.now(),
	})
}
