package ar

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandir-erp/mandir-erp/internal/ledger"
	"github.com/mandir-erp/mandir-erp/internal/shared"
)

type fakeARRepo struct {
	invoices map[uuid.UUID]Invoice
	payments []InvoicePayment
	postings []ledger.PostingInput
	seq      int64
	entryID  int64
}

func newFakeARRepo() *fakeARRepo {
	return &fakeARRepo{invoices: map[uuid.UUID]Invoice{}}
}

func (f *fakeARRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &fakeARTx{repo: f})
}

func (f *fakeARRepo) GetInvoice(_ context.Context, id uuid.UUID) (Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return Invoice{}, ErrInvoiceNotFound
	}
	return inv, nil
}

func (f *fakeARRepo) ListInvoices(_ context.Context, filter ListInvoicesFilter) ([]Invoice, int, error) {
	var out []Invoice
	for _, inv := range f.invoices {
		out = append(out, inv)
	}
	return out, len(out), nil
}

func (f *fakeARRepo) ListInvoicePayments(_ context.Context, invoiceID uuid.UUID) ([]InvoicePayment, error) {
	var out []InvoicePayment
	for _, p := range f.payments {
		if p.InvoiceID == invoiceID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeARTx struct {
	repo *fakeARRepo
}

func (t *fakeARTx) NextCode(_ context.Context, prefix string, at time.Time) (string, error) {
	t.repo.seq++
	return shared.FormatDocumentCode(prefix, at.Year(), t.repo.seq), nil
}

func (t *fakeARTx) InsertInvoice(_ context.Context, inv Invoice) (Invoice, error) {
	t.repo.invoices[inv.ID] = inv
	return inv, nil
}

func (t *fakeARTx) GetInvoiceForUpdate(_ context.Context, id uuid.UUID) (Invoice, error) {
	return t.repo.GetInvoice(context.Background(), id)
}

func (t *fakeARTx) UpdateInvoicePayment(_ context.Context, id uuid.UUID, paid float64, status shared.PaymentStatus) error {
	inv, ok := t.repo.invoices[id]
	if !ok {
		return ErrInvoiceNotFound
	}
	inv.PaidAmount = paid
	inv.PaymentStatus = status
	t.repo.invoices[id] = inv
	return nil
}

func (t *fakeARTx) InsertInvoicePayment(_ context.Context, p InvoicePayment) (InvoicePayment, error) {
	t.repo.payments = append(t.repo.payments, p)
	return p, nil
}

func (t *fakeARTx) PostLedger(_ context.Context, input ledger.PostingInput) (ledger.JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return ledger.JournalEntry{}, err
	}
	t.repo.postings = append(t.repo.postings, input)
	t.repo.entryID++
	return ledger.JournalEntry{ID: t.repo.entryID, PeriodID: 1}, nil
}

func invoiceDate() time.Time {
	return time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC)
}

func TestCreateInvoicePostsReceivableAgainstIncome(t *testing.T) {
	repo := newFakeARRepo()
	svc := NewService(repo, nil)

	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		DevoteeID: 11,
		Date:      invoiceDate(),
		Subtotal:  5000,
		GSTRate:   5,
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-0001", inv.Code)
	assert.Equal(t, 250.0, inv.GSTAmount)
	assert.Equal(t, 5250.0, inv.Total)
	assert.Equal(t, ledger.CodeDefaultIncome, inv.IncomeAccount)

	require.Len(t, repo.postings, 1)
	lines := repo.postings[0].Lines
	assert.Equal(t, ledger.CodeAccountsReceivable, lines[0].AccountCode)
	assert.Equal(t, 5250.0, lines[0].Debit)
	assert.Equal(t, ledger.CodeDefaultIncome, lines[1].AccountCode)
	assert.Equal(t, 5250.0, lines[1].Credit)
}

func TestRecordPaymentClearsReceivable(t *testing.T) {
	repo := newFakeARRepo()
	svc := NewService(repo, nil)

	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		DevoteeID: 4,
		Date:      invoiceDate(),
		Subtotal:  1200,
	})
	require.NoError(t, err)

	payment, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		InvoiceID: inv.ID,
		Amount:    1200,
		Date:      invoiceDate(),
		Mode:      "UPI",
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.CodeCashBank, payment.BankAccount)
	assert.Equal(t, shared.PaymentStatusPaid, repo.invoices[inv.ID].PaymentStatus)

	lines := repo.postings[1].Lines
	assert.Equal(t, ledger.CodeCashBank, lines[0].AccountCode)
	assert.Equal(t, 1200.0, lines[0].Debit)
	assert.Equal(t, ledger.CodeAccountsReceivable, lines[1].AccountCode)
	assert.Equal(t, 1200.0, lines[1].Credit)
}

func TestRecordPaymentRejectsOverpaymentAndSettledInvoices(t *testing.T) {
	repo := newFakeARRepo()
	svc := NewService(repo, nil)

	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		DevoteeID: 4,
		Date:      invoiceDate(),
		Subtotal:  100,
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{
		InvoiceID: inv.ID,
		Amount:    100.5,
		Date:      invoiceDate(),
		Mode:      "CASH",
	})
	require.ErrorIs(t, err, ErrOverpayment)

	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{
		InvoiceID: inv.ID,
		Amount:    100,
		Date:      invoiceDate(),
		Mode:      "CASH",
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{
		InvoiceID: inv.ID,
		Amount:    10,
		Date:      invoiceDate(),
		Mode:      "CASH",
	})
	require.ErrorIs(t, err, ErrInvoicePaid)
}

func TestRecordPaymentUnknownInvoice(t *testing.T) {
	svc := NewService(newFakeARRepo(), nil)
	_, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		InvoiceID: uuid.New(),
		Amount:    10,
		Date:      invoiceDate(),
		Mode:      "CASH",
	})
	require.ErrorIs(t, err, ErrInvoiceNotFound)
}
