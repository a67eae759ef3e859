package ledger

import (
	"context"
	"errors"
	"strings"
)

// CreateAccountInput carries fields for a new chart of accounts node.
type CreateAccountInput struct {
	Code           string  `json:"code" validate:"required,max=20"`
	Name           string  `json:"name" validate:"required,max=200"`
	Type           string  `json:"type" validate:"required,oneof=ASSET LIABILITY INCOME EXPENSE EQUITY"`
	ParentID       *int64  `json:"parent_id,omitempty"`
	GSTApplicable  bool    `json:"gst_applicable"`
	GSTRate        float64 `json:"gst_rate" validate:"gte=0,lte=100"`
	OpeningBalance float64 `json:"opening_balance"`
}

// UpdateAccountInput carries mutable account fields.
type UpdateAccountInput struct {
	Name          *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	ParentID      *int64   `json:"parent_id,omitempty"`
	GSTApplicable *bool    `json:"gst_applicable,omitempty"`
	GSTRate       *float64 `json:"gst_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	IsActive      *bool    `json:"is_active,omitempty"`
}

// CreateAccount registers a new account. Opening balance seeds the projected
// current balance.
func (s *Service) CreateAccount(ctx context.Context, input CreateAccountInput) (Account, error) {
	if strings.TrimSpace(input.Code) == "" {
		return Account{}, errors.New("ledger: account code is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return Account{}, errors.New("ledger: account name is required")
	}
	var acct Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		acct, err = tx.InsertAccount(ctx, Account{
			Code:           strings.TrimSpace(input.Code),
			Name:           strings.TrimSpace(input.Name),
			Type:           AccountType(input.Type),
			ParentID:       input.ParentID,
			GSTApplicable:  input.GSTApplicable,
			GSTRate:        input.GSTRate,
			OpeningBalance: input.OpeningBalance,
		})
		return err
	})
	return acct, err
}

// UpdateAccount applies partial updates. Accounts referenced by ledger rows
// are deactivated rather than deleted.
func (s *Service) UpdateAccount(ctx context.Context, id int64, input UpdateAccountInput) (Account, error) {
	var acct Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetAccountForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if input.Name != nil {
			current.Name = strings.TrimSpace(*input.Name)
		}
		if input.ParentID != nil {
			current.ParentID = input.ParentID
		}
		if input.GSTApplicable != nil {
			current.GSTApplicable = *input.GSTApplicable
		}
		if input.GSTRate != nil {
			current.GSTRate = *input.GSTRate
		}
		if input.IsActive != nil {
			current.IsActive = *input.IsActive
		}
		acct, err = tx.UpdateAccount(ctx, current)
		return err
	})
	return acct, err
}

// GetAccountByCode looks up one account.
func (s *Service) GetAccountByCode(ctx context.Context, code string) (Account, error) {
	var acct Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		acct, err = tx.GetAccountByCode(ctx, code)
		return err
	})
	return acct, err
}

// ListAccounts retrieves chart of accounts entries ordered by code.
func (s *Service) ListAccounts(ctx context.Context, activeOnly bool) ([]Account, error) {
	var accounts []Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		accounts, err = tx.ListAccounts(ctx, activeOnly)
		return err
	})
	return accounts, err
}
