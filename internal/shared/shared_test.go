package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDocumentCode(t *testing.T) {
	assert.Equal(t, "RCPT-2025-0001", FormatDocumentCode(CodePrefixReceipt, 2025, 1))
	assert.Equal(t, "BILL-2026-0042", FormatDocumentCode(CodePrefixBill, 2026, 42))
	assert.Equal(t, "JRNL-2025-12345", FormatDocumentCode(CodePrefixJournal, 2025, 12345))
}

func TestDerivePaymentStatus(t *testing.T) {
	assert.Equal(t, PaymentStatusUnpaid, DerivePaymentStatus(0, 1000))
	assert.Equal(t, PaymentStatusUnpaid, DerivePaymentStatus(-5, 1000))
	assert.Equal(t, PaymentStatusPartial, DerivePaymentStatus(999.99, 1000))
	assert.Equal(t, PaymentStatusPaid, DerivePaymentStatus(1000, 1000))
	assert.Equal(t, PaymentStatusPaid, DerivePaymentStatus(1000.01, 1000))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 10.57, Round2(10.565))
	assert.Equal(t, 0.1, Round2(0.10000001))
	assert.Equal(t, -2.35, Round2(-2.345))
}

func TestFormatINRUsesIndianGrouping(t *testing.T) {
	assert.Equal(t, "₹1,00,000.00", FormatINR(100000))
	assert.Equal(t, "₹1,234.50", FormatINR(1234.5))
	assert.Equal(t, "₹11.00", FormatINR(11))
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 20, 45)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 20, p.Offset())

	defaulted := NewPagination(0, 0, 5)
	assert.Equal(t, 1, defaulted.Page)
	assert.Equal(t, 20, defaulted.PerPage)
	assert.Equal(t, 1, defaulted.TotalPages)
	assert.Equal(t, 0, defaulted.Offset())
}

func TestValidatePeriodTransition(t *testing.T) {
	require.NoError(t, ValidatePeriodTransition(PeriodStatusOpen, PeriodStatusClosed))
	require.NoError(t, ValidatePeriodTransition(PeriodStatusClosed, PeriodStatusOpen))
	require.NoError(t, ValidatePeriodTransition(PeriodStatusOpen, PeriodStatusOpen))
	require.ErrorIs(t, ValidatePeriodTransition(PeriodStatusOpen, "ARCHIVED"), ErrInvalidPeriodTransition)
}
