// Package ap implements accounts payable: vendors, bills, and bill payments.
// Creating a bill or paying one posts the matching general-ledger legs in the
// same transaction as the document write.
package ap

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mandir-erp/mandir-erp/internal/shared"
)

// Vendor is a supplier of goods or services.
type Vendor struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Contact   *string   `json:"contact,omitempty"`
	Email     *string   `json:"email,omitempty"`
	GSTIN     *string   `json:"gstin,omitempty"`
	Address   *string   `json:"address,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Bill is a vendor invoice owed by the organization.
type Bill struct {
	ID             uuid.UUID            `json:"id"`
	Code           string               `json:"code"`
	VendorID       int64                `json:"vendor_id"`
	VendorName     string               `json:"vendor_name,omitempty"`
	ExpenseAccount string               `json:"expense_account"`
	Date           time.Time            `json:"date"`
	Subtotal       float64              `json:"subtotal"`
	GSTRate        float64              `json:"gst_rate"`
	GSTAmount      float64              `json:"gst_amount"`
	Total          float64              `json:"total"`
	PaidAmount     float64              `json:"paid_amount"`
	PaymentStatus  shared.PaymentStatus `json:"payment_status"`
	PeriodID       int64                `json:"period_id"`
	Notes          *string              `json:"notes,omitempty"`
	EntryID        int64                `json:"entry_id"`
	CreatedBy      int64                `json:"created_by"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// BillPayment reduces the outstanding balance of one bill.
type BillPayment struct {
	ID          uuid.UUID `json:"id"`
	BillID      uuid.UUID `json:"bill_id"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
	Mode        string    `json:"mode"`
	BankAccount string    `json:"bank_account"`
	ReferenceNo *string   `json:"reference_no,omitempty"`
	EntryID     int64     `json:"entry_id"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateVendorInput carries fields for a new vendor.
type CreateVendorInput struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Contact *string `json:"contact,omitempty" validate:"omitempty,max=50"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	GSTIN   *string `json:"gstin,omitempty" validate:"omitempty,max=15"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// CreateBillInput carries fields for a new bill.
type CreateBillInput struct {
	VendorID       int64     `json:"vendor_id" validate:"required,gt=0"`
	ExpenseAccount string    `json:"expense_account" validate:"omitempty,max=20"`
	Date           time.Time `json:"date" validate:"required"`
	Subtotal       float64   `json:"subtotal" validate:"required,gt=0"`
	GSTRate        float64   `json:"gst_rate" validate:"gte=0,lte=100"`
	Notes          *string   `json:"notes,omitempty"`
	CreatedBy      int64     `json:"created_by"`
}

// PayBillInput carries fields for recording a bill payment.
type PayBillInput struct {
	BillID      uuid.UUID `json:"bill_id" validate:"required"`
	Amount      float64   `json:"amount" validate:"required,gt=0"`
	Date        time.Time `json:"date" validate:"required"`
	Mode        string    `json:"mode" validate:"required,oneof=CASH UPI CARD BANK CHEQUE"`
	BankAccount string    `json:"bank_account" validate:"omitempty,max=20"`
	ReferenceNo *string   `json:"reference_no,omitempty" validate:"omitempty,max=100"`
	CreatedBy   int64     `json:"created_by"`
}

// ListBillsFilter narrows bill listings.
type ListBillsFilter struct {
	VendorID int64
	Status   shared.PaymentStatus
	FromDate time.Time
	ToDate   time.Time
	Page     shared.Pagination
}

var (
	// ErrVendorNotFound indicates missing vendor.
	ErrVendorNotFound = errors.New("ap: vendor not found")
	// ErrBillNotFound indicates missing bill.
	ErrBillNotFound = errors.New("ap: bill not found")
	// ErrOverpayment indicates payment exceeding remaining balance.
	ErrOverpayment = errors.New("ap: payment exceeds remaining balance")
	// ErrBillPaid indicates bill has no balance left.
	ErrBillPaid = errors.New("ap: bill already fully paid")
)

// Remaining returns the outstanding balance on a bill.
func (b Bill) Remaining() float64 {
	return shared.Round2(b.Total - b.PaidAmount)
}
