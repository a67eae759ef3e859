package expenses

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

type fakeExpensesRepo struct {
	expenses map[uuid.UUID]Expense
	postings []ledger.PostingInput
	seq      int64
	entryID  int64
}

func newFakeExpensesRepo() *fakeExpensesRepo {
	return &fakeExpensesRepo{expenses: map[uuid.UUID]Expense{}}
}

func (f *fakeExpensesRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &fakeExpensesTx{repo: f})
}

func (f *fakeExpensesRepo) GetExpense(_ context.Context, id uuid.UUID) (Expense, error) {
	e, ok := f.expenses[id]
	if !ok {
		return Expense{}, ErrExpenseNotFound
	}
	return e, nil
}

func (f *fakeExpensesRepo) ListExpenses(_ context.Context, page shared.Pagination) ([]Expense, int, error) {
	var out []Expense
	for _, e := range f.expenses {
		out = append(out, e)
	}
	return out, len(out), nil
}

type fakeExpensesTx struct {
	repo *fakeExpensesRepo
}

func (t *fakeExpensesTx) NextCode(_ context.Context, prefix string, at time.Time) (string, error) {
	t.repo.seq++
	return shared.FormatDocumentCode(prefix, at.Year(), t.repo.seq), nil
}

func (t *fakeExpensesTx) InsertExpense(_ context.Context, e Expense) (Expense, error) {
	t.repo.expenses[e.ID] = e
	return e, nil
}

func (t *fakeExpensesTx) PostLedger(_ context.Context, input ledger.PostingInput) (ledger.JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return ledger.JournalEntry{}, err
	}
	t.repo.postings = append(t.repo.postings, input)
	t.repo.entryID++
	return ledger.JournalEntry{ID: t.repo.entryID, PeriodID: 1}, nil
}

func TestCreateExpensePostsDebitAgainstPayingAccount(t *testing.T) {
	repo := newFakeExpensesRepo()
	svc := NewService(repo, nil)

	expense, err := svc.CreateExpense(context.Background(), CreateExpenseInput{
		Date:        time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		Subtotal:    800,
		GSTRate:     12,
		Description: "Electrical repairs",
	})
	require.NoError(t, err)
	assert.Equal(t, "EXP-2025-0001", expense.Code)
	assert.Equal(t, 96.0, expense.GSTAmount)
	assert.Equal(t, 896.0, expense.Total)
	assert.Equal(t, ledger.CodeDefaultExpense, expense.ExpenseAccount)
	assert.Equal(t, ledger.CodeCashBank, expense.PaidFrom)

	require.Len(t, repo.postings, 1)
	lines := repo.postings[0].Lines
	assert.Equal(t, ledger.CodeDefaultExpense, lines[0].AccountCode)
	assert.Equal(t, 896.0, lines[0].Debit)
	assert.Equal(t, ledger.CodeCashBank, lines[1].AccountCode)
	assert.Equal(t, 896.0, lines[1].Credit)
}

func TestGetExpenseUnknown(t *testing.T) {
	svc := NewService(newFakeExpensesRepo(), nil)

	_, err := svc.GetExpense(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrExpenseNotFound)
}

func TestCreateExpenseCustomAccounts(t *testing.T) {
	repo := newFakeExpensesRepo()
	svc := NewService(repo, nil)

	expense, err := svc.CreateExpense(context.Background(), CreateExpenseInput{
		ExpenseAccount: "5100",
		PaidFrom:       "1001",
		Date:           time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		Subtotal:       100,
		Description:    "Prasad ingredients",
	})
	require.NoError(t, err)
	assert.Equal(t, "5100", expense.ExpenseAccount)
	assert.Equal(t, "1001", expense.PaidFrom)
	assert.Equal(t, "5100", repo.postings[0].Lines[0].AccountCode)
	assert.Equal(t, "1001", repo.postings[0].Lines[1].AccountCode)
}
