// Package donations records devotee donations, issues sequential receipts,
// and posts each donation to the ledger in the same transaction.
package donations

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Donation is a received donation with its issued receipt number.
type Donation struct {
	ID            uuid.UUID `json:"id"`
	ReceiptNo     string    `json:"receipt_no"`
	DevoteeID     int64     `json:"devotee_id"`
	DevoteeName   string    `json:"devotee_name,omitempty"`
	Amount        float64   `json:"amount"`
	Purpose       string    `json:"purpose"`
	Mode          string    `json:"mode"`
	IncomeAccount string    `json:"income_account"`
	Date          time.Time `json:"date"`
	PeriodID      int64     `json:"period_id"`
	EntryID       int64     `json:"entry_id"`
	CreatedBy     int64     `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// Receipt is the printable view of a donation.
type Receipt struct {
	ReceiptNo     string    `json:"receipt_no"`
	DevoteeName   string    `json:"devotee_name"`
	Amount        float64   `json:"amount"`
	AmountDisplay string    `json:"amount_display"`
	Purpose       string    `json:"purpose"`
	Mode          string    `json:"mode"`
	Date          time.Time `json:"date"`
}

// CreateDonationInput carries fields for a new donation.
type CreateDonationInput struct {
	DevoteeID     int64     `json:"devotee_id" validate:"required,gt=0"`
	Amount        float64   `json:"amount" validate:"required,gt=0"`
	Purpose       string    `json:"purpose" validate:"required,max=200"`
	Mode          string    `json:"mode" validate:"required,oneof=CASH UPI CARD BANK CHEQUE"`
	IncomeAccount string    `json:"income_account" validate:"omitempty,max=20"`
	Date          time.Time `json:"date" validate:"required"`
	CreatedBy     int64     `json:"created_by"`
}

// ListDonationsFilter narrows donation listings.
type ListDonationsFilter struct {
	DevoteeID int64
	Purpose   string
	Page      int
	PerPage   int
}

// ErrDonationNotFound indicates missing donation.
var ErrDonationNotFound = errors.New("donations: donation not found")
