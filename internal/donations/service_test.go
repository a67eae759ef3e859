package donations

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

type fakeDonationsRepo struct {
	donations map[uuid.UUID]Donation
	postings  []ledger.PostingInput
	seq       int64
	entryID   int64
}

func newFakeDonationsRepo() *fakeDonationsRepo {
	return &fakeDonationsRepo{donations: map[uuid.UUID]Donation{}}
}

func (f *fakeDonationsRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &fakeDonationsTx{repo: f})
}

func (f *fakeDonationsRepo) GetDonation(_ context.Context, id uuid.UUID) (Donation, error) {
	d, ok := f.donations[id]
	if !ok {
		return Donation{}, ErrDonationNotFound
	}
	return d, nil
}

func (f *fakeDonationsRepo) ListDonations(_ context.Context, filter ListDonationsFilter) ([]Donation, int, error) {
	var out []Donation
	for _, d := range f.donations {
		if filter.DevoteeID != 0 && d.DevoteeID != filter.DevoteeID {
			continue
		}
		out = append(out, d)
	}
	return out, len(out), nil
}

type fakeDonationsTx struct {
	repo *fakeDonationsRepo
}

func (t *fakeDonationsTx) NextCode(_ context.Context, prefix string, at time.Time) (string, error) {
	t.repo.seq++
	return shared.FormatDocumentCode(prefix, at.Year(), t.repo.seq), nil
}

func (t *fakeDonationsTx) InsertDonation(_ context.Context, d Donation) (Donation, error) {
	d.DevoteeName = "Ramesh Kumar"
	t.repo.donations[d.ID] = d
	return d, nil
}

func (t *fakeDonationsTx) PostLedger(_ context.Context, input ledger.PostingInput) (ledger.JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return ledger.JournalEntry{}, err
	}
	t.repo.postings = append(t.repo.postings, input)
	t.repo.entryID++
	return ledger.JournalEntry{ID: t.repo.entryID, PeriodID: 1}, nil
}

func donationDate() time.Time {
	return time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
}

func TestCreateDonationIssuesReceiptAndPostsCash(t *testing.T) {
	repo := newFakeDonationsRepo()
	svc := NewService(repo, nil)

	donation, err := svc.CreateDonation(context.Background(), CreateDonationInput{
		DevoteeID: 9,
		Amount:    1100.004,
		Purpose:   "Annadanam",
		Mode:      "UPI",
		Date:      donationDate(),
	})
	require.NoError(t, err)
	assert.Equal(t, "RCPT-2025-0001", donation.ReceiptNo)
	assert.Equal(t, 1100.0, donation.Amount)
	assert.Equal(t, ledger.CodeDefaultIncome, donation.IncomeAccount)

	require.Len(t, repo.postings, 1)
	lines := repo.postings[0].Lines
	assert.Equal(t, ledger.CodeCashBank, lines[0].AccountCode)
	assert.Equal(t, 1100.0, lines[0].Debit)
	assert.Equal(t, ledger.CodeDefaultIncome, lines[1].AccountCode)
	assert.Equal(t, 1100.0, lines[1].Credit)
}

func TestCreateDonationCustomIncomeAccount(t *testing.T) {
	repo := newFakeDonationsRepo()
	svc := NewService(repo, nil)

	donation, err := svc.CreateDonation(context.Background(), CreateDonationInput{
		DevoteeID:     9,
		Amount:        500,
		Purpose:       "Gaushala",
		Mode:          "CASH",
		IncomeAccount: "4100",
		Date:          donationDate(),
	})
	require.NoError(t, err)
	assert.Equal(t, "4100", donation.IncomeAccount)
	assert.Equal(t, "4100", repo.postings[0].Lines[1].AccountCode)
}

func TestGetReceiptFormatsINR(t *testing.T) {
	repo := newFakeDonationsRepo()
	svc := NewService(repo, nil)

	donation, err := svc.CreateDonation(context.Background(), CreateDonationInput{
		DevoteeID: 9,
		Amount:    100000,
		Purpose:   "Temple Renovation",
		Mode:      "BANK",
		Date:      donationDate(),
	})
	require.NoError(t, err)

	receipt, err := svc.GetReceipt(context.Background(), donation.ID)
	require.NoError(t, err)
	assert.Equal(t, donation.ReceiptNo, receipt.ReceiptNo)
	assert.Equal(t, "Ramesh Kumar", receipt.DevoteeName)
	assert.Equal(t, "₹1,00,000.00", receipt.AmountDisplay)

	_, err = svc.GetReceipt(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrDonationNotFound)
}
