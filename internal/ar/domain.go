// Package ar implements accounts receivable: invoices raised to devotees and
// the payments applied against them.
package ar

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mandir-erp/mandir-erp/internal/shared"
)

// Invoice is a receivable raised against a devotee.
type Invoice struct {
	ID            uuid.UUID            `json:"id"`
	Code          string               `json:"code"`
	DevoteeID     int64                `json:"devotee_id"`
	DevoteeName   string               `json:"devotee_name,omitempty"`
	IncomeAccount string               `json:"income_account"`
	Date          time.Time            `json:"date"`
	Subtotal      float64              `json:"subtotal"`
	GSTRate       float64              `json:"gst_rate"`
	GSTAmount     float64              `json:"gst_amount"`
	Total         float64              `json:"total"`
	PaidAmount    float64              `json:"paid_amount"`
	PaymentStatus shared.PaymentStatus `json:"payment_status"`
	PeriodID      int64                `json:"period_id"`
	Notes         *string              `json:"notes,omitempty"`
	EntryID       int64                `json:"entry_id"`
	CreatedBy     int64                `json:"created_by"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// InvoicePayment reduces the outstanding balance of one invoice.
type InvoicePayment struct {
	ID          uuid.UUID `json:"id"`
	InvoiceID   uuid.UUID `json:"invoice_id"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
	Mode        string    `json:"mode"`
	BankAccount string    `json:"bank_account"`
	ReferenceNo *string   `json:"reference_no,omitempty"`
	EntryID     int64     `json:"entry_id"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateInvoiceInput carries fields for a new invoice.
type CreateInvoiceInput struct {
	DevoteeID     int64     `json:"devotee_id" validate:"required,gt=0"`
	IncomeAccount string    `json:"income_account" validate:"omitempty,max=20"`
	Date          time.Time `json:"date" validate:"required"`
	Subtotal      float64   `json:"subtotal" validate:"required,gt=0"`
	GSTRate       float64   `json:"gst_rate" validate:"gte=0,lte=100"`
	Notes         *string   `json:"notes,omitempty"`
	CreatedBy     int64     `json:"created_by"`
}

// RecordPaymentInput carries fields for an invoice payment.
type RecordPaymentInput struct {
	InvoiceID   uuid.UUID `json:"invoice_id" validate:"required"`
	Amount      float64   `json:"amount" validate:"required,gt=0"`
	Date        time.Time `json:"date" validate:"required"`
	Mode        string    `json:"mode" validate:"required,oneof=CASH UPI CARD BANK CHEQUE"`
	BankAccount string    `json:"bank_account" validate:"omitempty,max=20"`
	ReferenceNo *string   `json:"reference_no,omitempty" validate:"omitempty,max=100"`
	CreatedBy   int64     `json:"created_by"`
}

// ListInvoicesFilter narrows invoice listings.
type ListInvoicesFilter struct {
	DevoteeID int64
	Status    shared.PaymentStatus
	Page      shared.Pagination
}

var (
	// ErrInvoiceNotFound indicates missing invoice.
	ErrInvoiceNotFound = errors.New("ar: invoice not found")
	// ErrOverpayment indicates payment exceeding remaining balance.
	ErrOverpayment = errors.New("ar: payment exceeds remaining balance")
	// ErrInvoicePaid indicates invoice has no balance left.
	ErrInvoicePaid = errors.New("ar: invoice already fully paid")
)

// Remaining returns the outstanding balance on an invoice.
func (i Invoice) Remaining() float64 {
	return shared.Round2(i.Total - i.PaidAmount)
}
