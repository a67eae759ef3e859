package ap

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mandir-erp/mandir-erp/internal/ledger"
	"github.com/mandir-erp/mandir-erp/internal/platform/db"
	"github.com/mandir-erp/mandir-erp/internal/shared"
)

// Repository persists AP entities and bridges into the ledger for postings.
type Repository struct {
	pool       *pgxpool.Pool
	ledgerRepo *ledger.Repository
	ledgerSvc  *ledger.Service
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool, ledgerRepo *ledger.Repository, ledgerSvc *ledger.Service) *Repository {
	return &Repository{pool: pool, ledgerRepo: ledgerRepo, ledgerSvc: ledgerSvc}
}

// TxRepository exposes transactional AP operations. PostLedger runs the
// ledger posting engine inside the same transaction as the document writes.
type TxRepository interface {
	NextCode(ctx context.Context, prefix string, at time.Time) (string, error)
	InsertVendor(ctx context.Context, v Vendor) (Vendor, error)
	InsertBill(ctx context.Context, b Bill) (Bill, error)
	GetBillForUpdate(ctx context.Context, id uuid.UUID) (Bill, error)
	UpdateBillPayment(ctx context.Context, id uuid.UUID, paid float64, status shared.PaymentStatus) error
	InsertBillPayment(ctx context.Context, p BillPayment) (BillPayment, error)
	PostLedger(ctx context.Context, input ledger.PostingInput) (ledger.JournalEntry, error)
}

type txRepository struct {
	tx         pgx.Tx
	ledgerRepo *ledger.Repository
	ledgerSvc  *ledger.Service
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ap repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx, ledgerRepo: r.ledgerRepo, ledgerSvc: r.ledgerSvc})
	})
}

func (r *txRepository) NextCode(ctx context.Context, prefix string, at time.Time) (string, error) {
	return shared.NextDocumentCode(ctx, r.tx, prefix, at)
}

func (r *txRepository) PostLedger(ctx context.Context, input ledger.PostingInput) (ledger.JournalEntry, error) {
	return r.ledgerSvc.PostIn(ctx, r.ledgerRepo.Bind(r.tx), input)
}

func (r *txRepository) InsertVendor(ctx context.Context, v Vendor) (Vendor, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO vendors (code, name, contact, email, gstin, address, is_active)
VALUES ($1,$2,$3,$4,$5,$6,TRUE) RETURNING id, is_active, created_at, updated_at`,
		v.Code, v.Name, v.Contact, v.Email, v.GSTIN, v.Address)
	if err := row.Scan(&v.ID, &v.IsActive, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return Vendor{}, err
	}
	return v, nil
}

const billColumns = `id, code, vendor_id, expense_account, date, subtotal, gst_rate, gst_amount, total, paid_amount, payment_status, period_id, notes, entry_id, created_by, created_at, updated_at`

func scanBill(row pgx.Row) (Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.Code, &b.VendorID, &b.ExpenseAccount, &b.Date, &b.Subtotal, &b.GSTRate, &b.GSTAmount, &b.Total, &b.PaidAmount, &b.PaymentStatus, &b.PeriodID, &b.Notes, &b.EntryID, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bill{}, ErrBillNotFound
		}
		return Bill{}, err
	}
	return b, nil
}

func (r *txRepository) InsertBill(ctx context.Context, b Bill) (Bill, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO bills (id, code, vendor_id, expense_account, date, subtotal, gst_rate, gst_amount, total, paid_amount, payment_status, period_id, notes, entry_id, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,0,$10,$11,$12,$13,$14) RETURNING created_at, updated_at`,
		b.ID, b.Code, b.VendorID, b.ExpenseAccount, b.Date, b.Subtotal, b.GSTRate, b.GSTAmount, b.Total, b.PaymentStatus, b.PeriodID, b.Notes, b.EntryID, b.CreatedBy)
	if err := row.Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		return Bill{}, err
	}
	return b, nil
}

func (r *txRepository) GetBillForUpdate(ctx context.Context, id uuid.UUID) (Bill, error) {
	return scanBill(r.tx.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) UpdateBillPayment(ctx context.Context, id uuid.UUID, paid float64, status shared.PaymentStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE bills SET paid_amount=$2, payment_status=$3, updated_at=NOW() WHERE id=$1`, id, paid, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrBillNotFound
	}
	return nil
}

func (r *txRepository) InsertBillPayment(ctx context.Context, p BillPayment) (BillPayment, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO bill_payments (id, bill_id, amount, date, mode, bank_account, reference_no, entry_id, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING created_at`,
		p.ID, p.BillID, p.Amount, p.Date, p.Mode, p.BankAccount, p.ReferenceNo, p.EntryID, p.CreatedBy)
	if err := row.Scan(&p.CreatedAt); err != nil {
		return BillPayment{}, err
	}
	return p, nil
}

// --- pool-backed reads ---

// GetBill loads one bill.
func (r *Repository) GetBill(ctx context.Context, id uuid.UUID) (Bill, error) {
	return scanBill(r.pool.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id=$1`, id))
}

// ListBills returns bills matching the filter, newest first, with the total count.
func (r *Repository) ListBills(ctx context.Context, f ListBillsFilter) ([]Bill, int, error) {
	const where = ` WHERE ($1::bigint = 0 OR b.vendor_id=$1) AND ($2 = '' OR b.payment_status=$2)
AND ($3::timestamptz IS NULL OR b.date >= $3) AND ($4::timestamptz IS NULL OR b.date <= $4)`
	args := []any{f.VendorID, string(f.Status), nullTime(f.FromDate), nullTime(f.ToDate)}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bills b`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT b.id, b.code, b.vendor_id, v.name, b.expense_account, b.date, b.subtotal, b.gst_rate, b.gst_amount, b.total, b.paid_amount, b.payment_status, b.period_id, b.notes, b.entry_id, b.created_by, b.created_at, b.updated_at
FROM bills b JOIN vendors v ON v.id=b.vendor_id`+where+` ORDER BY b.created_at DESC LIMIT $5 OFFSET $6`,
		append(args, f.Page.PerPage, f.Page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var bills []Bill
	for rows.Next() {
		var b Bill
		if err := rows.Scan(&b.ID, &b.Code, &b.VendorID, &b.VendorName, &b.ExpenseAccount, &b.Date, &b.Subtotal, &b.GSTRate, &b.GSTAmount, &b.Total, &b.PaidAmount, &b.PaymentStatus, &b.PeriodID, &b.Notes, &b.EntryID, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, 0, err
		}
		bills = append(bills, b)
	}
	return bills, total, rows.Err()
}

// ListBillPayments returns payments recorded against a bill.
func (r *Repository) ListBillPayments(ctx context.Context, billID uuid.UUID) ([]BillPayment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, bill_id, amount, date, mode, bank_account, reference_no, entry_id, created_by, created_at
FROM bill_payments WHERE bill_id=$1 ORDER BY date ASC, created_at ASC`, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var payments []BillPayment
	for rows.Next() {
		var p BillPayment
		if err := rows.Scan(&p.ID, &p.BillID, &p.Amount, &p.Date, &p.Mode, &p.BankAccount, &p.ReferenceNo, &p.EntryID, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// GetVendor loads one vendor.
func (r *Repository) GetVendor(ctx context.Context, id int64) (Vendor, error) {
	var v Vendor
	err := r.pool.QueryRow(ctx, `SELECT id, code, name, contact, email, gstin, address, is_active, created_at, updated_at FROM vendors WHERE id=$1`, id).
		Scan(&v.ID, &v.Code, &v.Name, &v.Contact, &v.Email, &v.GSTIN, &v.Address, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Vendor{}, ErrVendorNotFound
		}
		return Vendor{}, err
	}
	return v, nil
}

// ListVendors returns all vendors ordered by code.
func (r *Repository) ListVendors(ctx context.Context, activeOnly bool) ([]Vendor, error) {
	sql := `SELECT id, code, name, contact, email, gstin, address, is_active, created_at, updated_at FROM vendors`
	if activeOnly {
		sql += ` WHERE is_active`
	}
	sql += ` ORDER BY code`
	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var vendors []Vendor
	for rows.Next() {
		var v Vendor
		if err := rows.Scan(&v.ID, &v.Code, &v.Name, &v.Contact, &v.Email, &v.GSTIN, &v.Address, &v.IsActive, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
