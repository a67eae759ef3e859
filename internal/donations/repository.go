package donations

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

// Repository persists donations and bridges into the ledger.
type Repository struct {
	pool       *pgxpool.Pool
	ledgerRepo *ledger.Repository
	ledgerSvc  *ledger.Service
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool, ledgerRepo *ledger.Repository, ledgerSvc *ledger.Service) *Repository {
	return &Repository{pool: pool, ledgerRepo: ledgerRepo, ledgerSvc: ledgerSvc}
}

// TxRepository exposes transactional donation operations.
type TxRepository interface {
	NextCode(ctx context.Context, prefix string, at time.Time) (string, error)
	InsertDonation(ctx context.Context, d Donation) (Donation, error)
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
		return errors.New("donations repository not initialised")
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

func (r *txRepository) InsertDonation(ctx context.Context, d Donation) (Donation, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO donations (id, receipt_no, devotee_id, amount, purpose, mode, income_account, date, period_id, entry_id, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING created_at`,
		d.ID, d.ReceiptNo, d.DevoteeID, d.Amount, d.Purpose, d.Mode, d.IncomeAccount, d.Date, d.PeriodID, d.EntryID, d.CreatedBy)
	if err := row.Scan(&d.CreatedAt); err != nil {
		return Donation{}, err
	}
	return d, nil
}

const donationColumns = `d.id, d.receipt_no, d.devotee_id, COALESCE(dev.name, ''), d.amount, d.purpose, d.mode, d.income_account, d.date, d.period_id, d.entry_id, d.created_by, d.created_at`

func scanDonation(row pgx.Row) (Donation, error) {
	var d Donation
	err := row.Scan(&d.ID, &d.ReceiptNo, &d.DevoteeID, &d.DevoteeName, &d.Amount, &d.Purpose, &d.Mode, &d.IncomeAccount, &d.Date, &d.PeriodID, &d.EntryID, &d.CreatedBy, &d.CreatedAt)
	return d, err
}

// GetDonation loads one donation with the devotee name joined in.
func (r *Repository) GetDonation(ctx context.Context, id uuid.UUID) (Donation, error) {
	d, err := scanDonation(r.pool.QueryRow(ctx, `SELECT `+donationColumns+`
FROM donations d LEFT JOIN devotees dev ON dev.id = d.devotee_id WHERE d.id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Donation{}, ErrDonationNotFound
		}
		return Donation{}, err
	}
	return d, nil
}

// ListDonations returns donations newest first with the total count.
func (r *Repository) ListDonations(ctx context.Context, f ListDonationsFilter) ([]Donation, int, error) {
	page := shared.NewPagination(f.Page, f.PerPage, 0)
	where := ` WHERE ($1 = 0 OR d.devotee_id = $1) AND ($2 = '' OR d.purpose = $2)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM donations d`+where, f.DevoteeID, f.Purpose).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+donationColumns+`
FROM donations d LEFT JOIN devotees dev ON dev.id = d.devotee_id`+where+`
ORDER BY d.created_at DESC LIMIT $3 OFFSET $4`, f.DevoteeID, f.Purpose, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var donations []Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, 0, err
		}
		donations = append(donations, d)
	}
	return donations, total, rows.Err()
}
