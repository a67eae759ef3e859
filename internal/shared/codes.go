package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Document code prefixes used across modules.
const (
	CodePrefixBill    = "BILL"
	CodePrefixInvoice = "INV"
	CodePrefixExpense = "EXP"
	CodePrefixJournal = "JRNL"
	CodePrefixVendor  = "VND"
	CodePrefixOrder   = "ORD"
	CodePrefixReceipt = "RCPT"
)

// RowQuerier is the subset of pgx used by NextDocumentCode so the counter can
// be bumped inside an existing transaction or directly against the pool.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NextDocumentCode issues the next sequential code for a prefix and year,
// formatted PREFIX-YYYY-NNNN. The counter lives in document_sequences and is
// incremented with an upsert so concurrent submissions never observe the same
// value.
func NextDocumentCode(ctx context.Context, q RowQuerier, prefix string, at time.Time) (string, error) {
	year := at.Year()
	var next int64
	err := q.QueryRow(ctx, `INSERT INTO document_sequences (prefix, year, last_value)
VALUES ($1, $2, 1)
ON CONFLICT (prefix, year) DO UPDATE SET last_value = document_sequences.last_value + 1
RETURNING last_value`, prefix, year).Scan(&next)
	if err != nil {
		return "", fmt.Errorf("shared: next code for %s-%d: %w", prefix, year, err)
	}
	return FormatDocumentCode(prefix, year, next), nil
}

// FormatDocumentCode renders a document code as PREFIX-YYYY-NNNN.
func FormatDocumentCode(prefix string, year int, n int64) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, year, n)
}
