package ar

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

// Repository persists AR entities and bridges into the ledger for postings.
type Repository struct {
	pool       *pgxpool.Pool
	ledgerRepo *ledger.Repository
	ledgerSvc  *ledger.Service
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool, ledgerRepo *ledger.Repository, ledgerSvc *ledger.Service) *Repository {
	return &Repository{pool: pool, ledgerRepo: ledgerRepo, ledgerSvc: ledgerSvc}
}

// TxRepository exposes transactional AR operations.
type TxRepository interface {
	NextCode(ctx context.Context, prefix string, at time.Time) (string, error)
	InsertInvoice(ctx context.Context, inv Invoice) (Invoice, error)
	GetInvoiceForUpdate(ctx context.Context, id uuid.UUID) (Invoice, error)
	UpdateInvoicePayment(ctx context.Context, id uuid.UUID, paid float64, status shared.PaymentStatus) error
	InsertInvoicePayment(ctx context.Context, p InvoicePayment) (InvoicePayment, error)
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
		return errors.New("ar repository not initialised")
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

const invoiceColumns = `id, code, devotee_id, income_account, date, subtotal, gst_rate, gst_amount, total, paid_amount, payment_status, period_id, notes, entry_id, created_by, created_at, updated_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Code, &inv.DevoteeID, &inv.IncomeAccount, &inv.Date, &inv.Subtotal, &inv.GSTRate, &inv.GSTAmount, &inv.Total, &inv.PaidAmount, &inv.PaymentStatus, &inv.PeriodID, &inv.Notes, &inv.EntryID, &inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, ErrInvoiceNotFound
		}
		return Invoice{}, err
	}
	return inv, nil
}

func (r *txRepository) InsertInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO invoices (id, code, devotee_id, income_account, date, subtotal, gst_rate, gst_amount, total, paid_amount, payment_status, period_id, notes, entry_id, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,0,$10,$11,$12,$13,$14) RETURNING created_at, updated_at`,
		inv.ID, inv.Code, inv.DevoteeID, inv.IncomeAccount, inv.Date, inv.Subtotal, inv.GSTRate, inv.GSTAmount, inv.Total, inv.PaymentStatus, inv.PeriodID, inv.Notes, inv.EntryID, inv.CreatedBy)
	if err := row.Scan(&inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

func (r *txRepository) GetInvoiceForUpdate(ctx context.Context, id uuid.UUID) (Invoice, error) {
	return scanInvoice(r.tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) UpdateInvoicePayment(ctx context.Context, id uuid.UUID, paid float64, status shared.PaymentStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE invoices SET paid_amount=$2, payment_status=$3, updated_at=NOW() WHERE id=$1`, id, paid, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *txRepository) InsertInvoicePayment(ctx context.Context, p InvoicePayment) (InvoicePayment, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO invoice_payments (id, invoice_id, amount, date, mode, bank_account, reference_no, entry_id, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING created_at`,
		p.ID, p.InvoiceID, p.Amount, p.Date, p.Mode, p.BankAccount, p.ReferenceNo, p.EntryID, p.CreatedBy)
	if err := row.Scan(&p.CreatedAt); err != nil {
		return InvoicePayment{}, err
	}
	return p, nil
}

// GetInvoice loads one invoice.
func (r *Repository) GetInvoice(ctx context.Context, id uuid.UUID) (Invoice, error) {
	return scanInvoice(r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id=$1`, id))
}

// ListInvoices returns invoices matching the filter, newest first.
func (r *Repository) ListInvoices(ctx context.Context, f ListInvoicesFilter) ([]Invoice, int, error) {
	const where = ` WHERE ($1::bigint = 0 OR i.devotee_id=$1) AND ($2 = '' OR i.payment_status=$2)`
	args := []any{f.DevoteeID, string(f.Status)}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoices i`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT i.id, i.code, i.devotee_id, d.name, i.income_account, i.date, i.subtotal, i.gst_rate, i.gst_amount, i.total, i.paid_amount, i.payment_status, i.period_id, i.notes, i.entry_id, i.created_by, i.created_at, i.updated_at
FROM invoices i JOIN devotees d ON d.id=i.devotee_id`+where+` ORDER BY i.created_at DESC LIMIT $3 OFFSET $4`,
		append(args, f.Page.PerPage, f.Page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.Code, &inv.DevoteeID, &inv.DevoteeName, &inv.IncomeAccount, &inv.Date, &inv.Subtotal, &inv.GSTRate, &inv.GSTAmount, &inv.Total, &inv.PaidAmount, &inv.PaymentStatus, &inv.PeriodID, &inv.Notes, &inv.EntryID, &inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, total, rows.Err()
}

// ListInvoicePayments returns payments for one invoice, oldest first.
func (r *Repository) ListInvoicePayments(ctx context.Context, invoiceID uuid.UUID) ([]InvoicePayment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, invoice_id, amount, date, mode, bank_account, reference_no, entry_id, created_by, created_at
FROM invoice_payments WHERE invoice_id=$1 ORDER BY date ASC, created_at ASC`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var payments []InvoicePayment
	for rows.Next() {
		var p InvoicePayment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Date, &p.Mode, &p.BankAccount, &p.ReferenceNo, &p.EntryID, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
