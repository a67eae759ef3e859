package expenses

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

// Repository persists expenses and bridges into the ledger.
type Repository struct {
	pool       *pgxpool.Pool
	ledgerRepo *ledger.Repository
	ledgerSvc  *ledger.Service
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool, ledgerRepo *ledger.Repository, ledgerSvc *ledger.Service) *Repository {
	return &Repository{pool: pool, ledgerRepo: ledgerRepo, ledgerSvc: ledgerSvc}
}

// TxRepository exposes transactional expense operations.
type TxRepository interface {
	NextCode(ctx context.Context, prefix string, at time.Time) (string, error)
	InsertExpense(ctx context.Context, e Expense) (Expense, error)
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
		return errors.New("expenses repository not initialised")
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

func (r *txRepository) InsertExpense(ctx context.Context, e Expense) (Expense, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO expenses (id, code, expense_account, paid_from, date, subtotal, gst_rate, gst_amount, total, description, period_id, entry_id, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13) RETURNING created_at`,
		e.ID, e.Code, e.ExpenseAccount, e.PaidFrom, e.Date, e.Subtotal, e.GSTRate, e.GSTAmount, e.Total, e.Description, e.PeriodID, e.EntryID, e.CreatedBy)
	if err := row.Scan(&e.CreatedAt); err != nil {
		return Expense{}, err
	}
	return e, nil
}

// GetExpense loads one expense.
func (r *Repository) GetExpense(ctx context.Context, id uuid.UUID) (Expense, error) {
	var e Expense
	err := r.pool.QueryRow(ctx, `SELECT id, code, expense_account, paid_from, date, subtotal, gst_rate, gst_amount, total, description, period_id, entry_id, created_by, created_at
FROM expenses WHERE id=$1`, id).
		Scan(&e.ID, &e.Code, &e.ExpenseAccount, &e.PaidFrom, &e.Date, &e.Subtotal, &e.GSTRate, &e.GSTAmount, &e.Total, &e.Description, &e.PeriodID, &e.EntryID, &e.CreatedBy, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Expense{}, ErrExpenseNotFound
		}
		return Expense{}, err
	}
	return e, nil
}

// ListExpenses returns expenses newest first with the total count.
func (r *Repository) ListExpenses(ctx context.Context, page shared.Pagination) ([]Expense, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM expenses`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, code, expense_account, paid_from, date, subtotal, gst_rate, gst_amount, total, description, period_id, entry_id, created_by, created_at
FROM expenses ORDER BY created_at DESC LIMIT $1 OFFSET $2`, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var expenses []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.Code, &e.ExpenseAccount, &e.PaidFrom, &e.Date, &e.Subtotal, &e.GSTRate, &e.GSTAmount, &e.Total, &e.Description, &e.PeriodID, &e.EntryID, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		expenses = append(expenses, e)
	}
	return expenses, total, rows.Err()
}
