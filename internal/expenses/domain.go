// Package expenses records direct expenses paid from cash or bank, posting
// debit expense / credit bank in the same transaction as the document write.
package expenses

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Expense is a direct outgoing paid at record time; there is no payable leg.
type Expense struct {
	ID             uuid.UUID `json:"id"`
	Code           string    `json:"code"`
	ExpenseAccount string    `json:"expense_account"`
	PaidFrom       string    `json:"paid_from"`
	Date           time.Time `json:"date"`
	Subtotal       float64   `json:"subtotal"`
	GSTRate        float64   `json:"gst_rate"`
	GSTAmount      float64   `json:"gst_amount"`
	Total          float64   `json:"total"`
	Description    string    `json:"description"`
	PeriodID       int64     `json:"period_id"`
	EntryID        int64     `json:"entry_id"`
	CreatedBy      int64     `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateExpenseInput carries fields for a new expense.
type CreateExpenseInput struct {
	ExpenseAccount string    `json:"expense_account" validate:"omitempty,max=20"`
	PaidFrom       string    `json:"paid_from" validate:"omitempty,max=20"`
	Date           time.Time `json:"date" validate:"required"`
	Subtotal       float64   `json:"subtotal" validate:"required,gt=0"`
	GSTRate        float64   `json:"gst_rate" validate:"gte=0,lte=100"`
	Description    string    `json:"description" validate:"required,max=500"`
	CreatedBy      int64     `json:"created_by"`
}

// ErrExpenseNotFound indicates missing expense.
var ErrExpenseNotFound = errors.New("expenses: expense not found")
