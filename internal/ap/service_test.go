package ap

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

type fakeAPRepo struct {
	vendors  map[int64]Vendor
	bills    map[uuid.UUID]Bill
	payments []BillPayment
	postings []ledger.PostingInput
	seq      map[string]int64
	nextID   int64
	entryID  int64
}

func newFakeAPRepo() *fakeAPRepo {
	return &fakeAPRepo{
		vendors: map[int64]Vendor{},
		bills:   map[uuid.UUID]Bill{},
		seq:     map[string]int64{},
		nextID:  1,
	}
}

func (f *fakeAPRepo) addVendor(name string) Vendor {
	v := Vendor{ID: f.nextID, Code: shared.FormatDocumentCode(shared.CodePrefixVendor, 2025, f.nextID), Name: name, IsActive: true}
	f.nextID++
	f.vendors[v.ID] = v
	return v
}

func (f *fakeAPRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &fakeAPTx{repo: f})
}

func (f *fakeAPRepo) GetBill(_ context.Context, id uuid.UUID) (Bill, error) {
	b, ok := f.bills[id]
	if !ok {
		return Bill{}, ErrBillNotFound
	}
	return b, nil
}

func (f *fakeAPRepo) ListBills(_ context.Context, filter ListBillsFilter) ([]Bill, int, error) {
	var out []Bill
	for _, b := range f.bills {
		out = append(out, b)
	}
	return out, len(out), nil
}

func (f *fakeAPRepo) ListBillPayments(_ context.Context, billID uuid.UUID) ([]BillPayment, error) {
	var out []BillPayment
	for _, p := range f.payments {
		if p.BillID == billID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeAPRepo) GetVendor(_ context.Context, id int64) (Vendor, error) {
	v, ok := f.vendors[id]
	if !ok {
		return Vendor{}, ErrVendorNotFound
	}
	return v, nil
}

func (f *fakeAPRepo) ListVendors(_ context.Context, activeOnly bool) ([]Vendor, error) {
	var out []Vendor
	for _, v := range f.vendors {
		out = append(out, v)
	}
	return out, nil
}

type fakeAPTx struct {
	repo *fakeAPRepo
}

func (t *fakeAPTx) NextCode(_ context.Context, prefix string, at time.Time) (string, error) {
	t.repo.seq[prefix]++
	return shared.FormatDocumentCode(prefix, at.Year(), t.repo.seq[prefix]), nil
}

func (t *fakeAPTx) InsertVendor(_ context.Context, v Vendor) (Vendor, error) {
	v.ID = t.repo.nextID
	t.repo.nextID++
	v.IsActive = true
	t.repo.vendors[v.ID] = v
	return v, nil
}

func (t *fakeAPTx) InsertBill(_ context.Context, b Bill) (Bill, error) {
	t.repo.bills[b.ID] = b
	return b, nil
}

func (t *fakeAPTx) GetBillForUpdate(_ context.Context, id uuid.UUID) (Bill, error) {
	return t.repo.GetBill(context.Background(), id)
}

func (t *fakeAPTx) UpdateBillPayment(_ context.Context, id uuid.UUID, paid float64, status shared.PaymentStatus) error {
	b, ok := t.repo.bills[id]
	if !ok {
		return ErrBillNotFound
	}
	b.PaidAmount = paid
	b.PaymentStatus = status
	t.repo.bills[id] = b
	return nil
}

func (t *fakeAPTx) InsertBillPayment(_ context.Context, p BillPayment) (BillPayment, error) {
	t.repo.payments = append(t.repo.payments, p)
	return p, nil
}

func (t *fakeAPTx) PostLedger(_ context.Context, input ledger.PostingInput) (ledger.JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return ledger.JournalEntry{}, err
	}
	t.repo.postings = append(t.repo.postings, input)
	t.repo.entryID++
	return ledger.JournalEntry{ID: t.repo.entryID, PeriodID: 1, Code: input.Memo}, nil
}

func billDate() time.Time {
	return time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
}

func TestCreateBillPostsExpenseAgainstPayable(t *testing.T) {
	repo := newFakeAPRepo()
	vendor := repo.addVendor("Flower Supplier")
	svc := NewService(repo, nil)

	bill, err := svc.CreateBill(context.Background(), CreateBillInput{
		VendorID:  vendor.ID,
		Date:      billDate(),
		Subtotal:  1000,
		GSTRate:   18,
		CreatedBy: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "BILL-2025-0001", bill.Code)
	assert.Equal(t, 180.0, bill.GSTAmount)
	assert.Equal(t, 1180.0, bill.Total)
	assert.Equal(t, ledger.CodeDefaultExpense, bill.ExpenseAccount)
	assert.Equal(t, shared.PaymentStatusUnpaid, bill.PaymentStatus)
	assert.Equal(t, int64(1), bill.EntryID, "bill carries its journal entry link from the insert")

	require.Len(t, repo.postings, 1)
	lines := repo.postings[0].Lines
	require.Len(t, lines, 2)
	assert.Equal(t, ledger.CodeDefaultExpense, lines[0].AccountCode)
	assert.Equal(t, 1180.0, lines[0].Debit)
	assert.Equal(t, ledger.CodeAccountsPayable, lines[1].AccountCode)
	assert.Equal(t, 1180.0, lines[1].Credit)
}

func TestCreateBillUnknownVendor(t *testing.T) {
	svc := NewService(newFakeAPRepo(), nil)
	_, err := svc.CreateBill(context.Background(), CreateBillInput{
		VendorID: 99,
		Date:     billDate(),
		Subtotal: 100,
	})
	require.ErrorIs(t, err, ErrVendorNotFound)
}

func TestPayBillTransitionsStatus(t *testing.T) {
	repo := newFakeAPRepo()
	vendor := repo.addVendor("Electrician")
	svc := NewService(repo, nil)

	bill, err := svc.CreateBill(context.Background(), CreateBillInput{
		VendorID: vendor.ID,
		Date:     billDate(),
		Subtotal: 2000,
	})
	require.NoError(t, err)

	_, err = svc.PayBill(context.Background(), PayBillInput{
		BillID: bill.ID,
		Amount: 500,
		Date:   billDate(),
		Mode:   "UPI",
	})
	require.NoError(t, err)
	assert.Equal(t, shared.PaymentStatusPartial, repo.bills[bill.ID].PaymentStatus)

	_, err = svc.PayBill(context.Background(), PayBillInput{
		BillID: bill.ID,
		Amount: 1500,
		Date:   billDate(),
		Mode:   "BANK",
	})
	require.NoError(t, err)
	assert.Equal(t, shared.PaymentStatusPaid, repo.bills[bill.ID].PaymentStatus)
	assert.Equal(t, 2000.0, repo.bills[bill.ID].PaidAmount)

	// Each payment posted AP debit vs bank credit.
	require.Len(t, repo.postings, 3)
	pay := repo.postings[1].Lines
	assert.Equal(t, ledger.CodeAccountsPayable, pay[0].AccountCode)
	assert.Equal(t, 500.0, pay[0].Debit)
	assert.Equal(t, ledger.CodeCashBank, pay[1].AccountCode)
	assert.Equal(t, 500.0, pay[1].Credit)
}

func TestPayBillRejectsOverpayment(t *testing.T) {
	repo := newFakeAPRepo()
	vendor := repo.addVendor("Caterer")
	svc := NewService(repo, nil)

	bill, err := svc.CreateBill(context.Background(), CreateBillInput{
		VendorID: vendor.ID,
		Date:     billDate(),
		Subtotal: 300,
	})
	require.NoError(t, err)

	_, err = svc.PayBill(context.Background(), PayBillInput{
		BillID: bill.ID,
		Amount: 300.01,
		Date:   billDate(),
		Mode:   "CASH",
	})
	require.ErrorIs(t, err, ErrOverpayment)

	_, err = svc.PayBill(context.Background(), PayBillInput{
		BillID: bill.ID,
		Amount: 300,
		Date:   billDate(),
		Mode:   "CASH",
	})
	require.NoError(t, err)

	_, err = svc.PayBill(context.Background(), PayBillInput{
		BillID: bill.ID,
		Amount: 1,
		Date:   billDate(),
		Mode:   "CASH",
	})
	require.ErrorIs(t, err, ErrBillPaid)
}

func TestCreateVendorAssignsSequentialCodes(t *testing.T) {
	repo := newFakeAPRepo()
	svc := NewService(repo, nil)
	svc.WithNow(func() time.Time { return billDate() })

	first, err := svc.CreateVendor(context.Background(), CreateVendorInput{Name: "Priest Supplies"})
	require.NoError(t, err)
	second, err := svc.CreateVendor(context.Background(), CreateVendorInput{Name: "Sound Systems"})
	require.NoError(t, err)
	assert.Equal(t, "VND-2025-0001", first.Code)
	assert.Equal(t, "VND-2025-0002", second.Code)
}
