// Package banking maintains the registry of bank accounts and the ledger
// account each one maps to.
package banking

import (
	"errors"
	"time"
)

// BankAccount is a real bank account linked to a chart of accounts code.
type BankAccount struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	AccountNumber string    `json:"account_number"`
	IFSC          string    `json:"ifsc"`
	LedgerAccount string    `json:"ledger_account"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateBankAccountInput carries fields for a new bank account.
type CreateBankAccountInput struct {
	Name          string `json:"name" validate:"required,max=120"`
	AccountNumber string `json:"account_number" validate:"required,max=30"`
	IFSC          string `json:"ifsc" validate:"required,len=11"`
	LedgerAccount string `json:"ledger_account" validate:"required,max=20"`
	CreatedBy     int64  `json:"created_by"`
}

// UpdateBankAccountInput carries updatable fields.
type UpdateBankAccountInput struct {
	Name          string `json:"name" validate:"required,max=120"`
	LedgerAccount string `json:"ledger_account" validate:"required,max=20"`
	Active        bool   `json:"active"`
	CreatedBy     int64  `json:"created_by"`
}

// ErrBankAccountNotFound indicates missing bank account.
var ErrBankAccountNotFound = errors.New("banking: bank account not found")
