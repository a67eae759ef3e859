// Package budgets tracks planned amounts per account and period and compares
// them against actual ledger movement.
package budgets

import (
	"errors"
	"time"
)

// Budget is a planned amount for one account in one period.
type Budget struct {
	ID          int64     `json:"id"`
	AccountCode string    `json:"account_code"`
	AccountName string    `json:"account_name,omitempty"`
	PeriodID    int64     `json:"period_id"`
	Planned     float64   `json:"planned"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BudgetActual pairs a budget with the ledger movement observed in its period.
type BudgetActual struct {
	Budget
	Actual   float64 `json:"actual"`
	Variance float64 `json:"variance"`
}

// UpsertBudgetInput carries fields for creating or replacing a budget line.
type UpsertBudgetInput struct {
	AccountCode string  `json:"account_code" validate:"required,max=20"`
	PeriodID    int64   `json:"period_id" validate:"required,gt=0"`
	Planned     float64 `json:"planned" validate:"required,gt=0"`
	Notes       string  `json:"notes" validate:"max=500"`
	CreatedBy   int64   `json:"created_by"`
}

// ErrBudgetNotFound indicates missing budget.
var ErrBudgetNotFound = errors.New("budgets: budget not found")
