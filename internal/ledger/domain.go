// Package ledger implements the double-entry posting engine: chart of
// accounts, fiscal periods, journal entries, and the append-only general
// ledger from which account balances are projected.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mandir-erp/mandir-erp/internal/shared"
)

// AccountType enumerates chart of accounts categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
	AccountTypeEquity    AccountType = "EQUITY"
)

// Well-known account codes relied on by the document modules.
const (
	CodeCashBank           = "1000"
	CodeAccountsReceivable = "1200"
	CodeAccountsPayable    = "2000"
	CodeDefaultIncome      = "4300"
	CodeDefaultExpense     = "5200"
)

// PeriodStatus enumerates valid period states.
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "OPEN"
	PeriodStatusClosed PeriodStatus = "CLOSED"
)

// EntryStatus enumerates journal entry lifecycle values. Entries are created
// posted; corrections are made with reversing entries.
type EntryStatus string

const (
	EntryStatusPosted   EntryStatus = "POSTED"
	EntryStatusReversed EntryStatus = "REVERSED"
)

// Account models a chart of accounts node.
type Account struct {
	ID             int64       `json:"id"`
	Code           string      `json:"code"`
	Name           string      `json:"name"`
	Type           AccountType `json:"type"`
	ParentID       *int64      `json:"parent_id,omitempty"`
	GSTApplicable  bool        `json:"gst_applicable"`
	GSTRate        float64     `json:"gst_rate"`
	OpeningBalance float64     `json:"opening_balance"`
	CurrentBalance float64     `json:"current_balance"`
	IsActive       bool        `json:"is_active"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Period represents a fiscal period window.
type Period struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	StartDate time.Time    `json:"start_date"`
	EndDate   time.Time    `json:"end_date"`
	Status    PeriodStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// JournalEntry captures posting metadata for one balanced set of ledger rows.
type JournalEntry struct {
	ID            int64       `json:"id"`
	Code          string      `json:"code"`
	PeriodID      int64       `json:"period_id"`
	Date          time.Time   `json:"date"`
	Memo          string      `json:"memo"`
	ReferenceType string      `json:"reference_type"`
	ReferenceID   uuid.UUID   `json:"reference_id"`
	Status        EntryStatus `json:"status"`
	PostedBy      int64       `json:"posted_by"`
	PostedAt      time.Time   `json:"posted_at"`
	CreatedAt     time.Time   `json:"created_at"`
	Rows          []LedgerRow `json:"rows,omitempty"`
}

// LedgerRow is one immutable general-ledger record. Balance holds the
// account's running balance immediately after this row was applied.
type LedgerRow struct {
	ID        int64     `json:"id"`
	EntryID   int64     `json:"entry_id"`
	AccountID int64     `json:"account_id"`
	PeriodID  int64     `json:"period_id"`
	Date      time.Time `json:"date"`
	Debit     float64   `json:"debit"`
	Credit    float64   `json:"credit"`
	Balance   float64   `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

// PostingLine names an account by code with exactly one of debit or credit.
type PostingLine struct {
	AccountCode string  `json:"account_code"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
}

// PostingInput groups fields required to post one journal entry.
type PostingInput struct {
	Date          time.Time     `json:"date"`
	Memo          string        `json:"memo"`
	ReferenceType string        `json:"reference_type"`
	ReferenceID   uuid.UUID     `json:"reference_id"`
	PostedBy      int64         `json:"posted_by"`
	Lines         []PostingLine `json:"lines"`
}

// ReconcileResult reports projection drift for one account.
type ReconcileResult struct {
	AccountID int64   `json:"account_id"`
	Code      string  `json:"code"`
	Stored    float64 `json:"stored"`
	Computed  float64 `json:"computed"`
	Repaired  bool    `json:"repaired"`
}

var (
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = errors.New("ledger: entry lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("ledger: entry requires at least two lines")
	// ErrNoOpenPeriod indicates no period accepts postings.
	ErrNoOpenPeriod = errors.New("ledger: no open period")
	// ErrPeriodClosed indicates the resolved period does not accept postings.
	ErrPeriodClosed = errors.New("ledger: period is closed")
	// ErrDateOutOfRange indicates entry date falls outside the open period.
	ErrDateOutOfRange = errors.New("ledger: date outside open period")
	// ErrAccountNotFound indicates an unknown account code.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrAccountInactive indicates posting to a deactivated account.
	ErrAccountInactive = errors.New("ledger: account inactive")
	// ErrEntryNotFound indicates a missing journal entry.
	ErrEntryNotFound = errors.New("ledger: journal entry not found")
	// ErrAlreadyReversed indicates a second reversal attempt.
	ErrAlreadyReversed = errors.New("ledger: entry already reversed")
	// ErrPeriodNotFound indicates a missing period.
	ErrPeriodNotFound = errors.New("ledger: period not found")
)

// Validate ensures posting input meets minimum criteria.
func (in PostingInput) Validate() error {
	if len(in.Lines) < 2 {
		return ErrTooFewLines
	}
	var debit, credit float64
	for idx, line := range in.Lines {
		if line.AccountCode == "" {
			return fmt.Errorf("ledger: line %d missing account code", idx)
		}
		if line.Debit < 0 || line.Credit < 0 {
			return fmt.Errorf("ledger: line %d negative amount", idx)
		}
		if line.Debit > 0 && line.Credit > 0 {
			return fmt.Errorf("ledger: line %d cannot be both debit and credit", idx)
		}
		if line.Debit == 0 && line.Credit == 0 {
			return fmt.Errorf("ledger: line %d has no amount", idx)
		}
		debit += line.Debit
		credit += line.Credit
	}
	if fmt.Sprintf("%.2f", debit) != fmt.Sprintf("%.2f", credit) {
		return ErrUnbalanced
	}
	if in.ReferenceType == "" {
		return errors.New("ledger: reference type required")
	}
	if in.ReferenceID == uuid.Nil {
		return errors.New("ledger: reference id required")
	}
	return nil
}

// SignedDelta converts a debit/credit pair into the balance movement for an
// account of the given type. Debits increase assets and expenses; credits
// increase liabilities, income, and equity.
func SignedDelta(t AccountType, debit, credit float64) float64 {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return debit - credit
	default:
		return credit - debit
	}
}

// GSTAmount computes the tax on a subtotal at the given percentage rate.
func GSTAmount(subtotal, rate float64) float64 {
	return shared.Round2(subtotal * rate / 100)
}
