package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mandir-erp/mandir-erp/internal/platform/db"
	"github.com/mandir-erp/mandir-erp/internal/shared"
)

// Repository persists ledger entities.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations available inside one posting transaction.
type TxRepository interface {
	GetAccountByCodeForUpdate(ctx context.Context, code string) (Account, error)
	GetAccountForUpdate(ctx context.Context, id int64) (Account, error)
	UpdateAccountBalance(ctx context.Context, accountID int64, balance float64) error
	LatestOpenPeriod(ctx context.Context) (Period, error)
	PeriodCovering(ctx context.Context, date time.Time) (Period, error)
	NextCode(ctx context.Context, prefix string, at time.Time) (string, error)
	InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error)
	InsertLedgerRow(ctx context.Context, row LedgerRow) (LedgerRow, error)
	GetEntryWithRows(ctx context.Context, entryID int64) (JournalEntry, error)
	MarkEntryReversed(ctx context.Context, entryID int64) error

	InsertAccount(ctx context.Context, a Account) (Account, error)
	UpdateAccount(ctx context.Context, a Account) (Account, error)
	GetAccountByCode(ctx context.Context, code string) (Account, error)
	ListAccounts(ctx context.Context, activeOnly bool) ([]Account, error)

	InsertPeriod(ctx context.Context, p Period) (Period, error)
	GetPeriod(ctx context.Context, id int64) (Period, error)
	ListPeriods(ctx context.Context) ([]Period, error)
	UpdatePeriodStatus(ctx context.Context, id int64, status PeriodStatus) error

	ListEntries(ctx context.Context, limit, offset int) ([]JournalEntry, error)
	ListLedgerRows(ctx context.Context, accountID int64, limit, offset int) ([]LedgerRow, int, error)
	SumLedgerDeltas(ctx context.Context, accountID int64) (float64, error)
	ListAccountIDs(ctx context.Context) ([]int64, error)
	PeriodTotals(ctx context.Context, periodID int64) (debit, credit float64, err error)
}

type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txRepository struct {
	q queryer
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{q: tx})
	})
}

// Bind wraps an externally managed transaction so other modules can post
// ledger entries atomically with their own writes.
func (r *Repository) Bind(tx pgx.Tx) TxRepository {
	return &txRepository{q: tx}
}

const accountColumns = `id, code, name, type, parent_id, gst_applicable, gst_rate, opening_balance, current_balance, is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.ParentID, &a.GSTApplicable, &a.GSTRate, &a.OpeningBalance, &a.CurrentBalance, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *txRepository) GetAccountByCodeForUpdate(ctx context.Context, code string) (Account, error) {
	return scanAccount(r.q.QueryRow(ctx, `SELECT `+accountColumns+` FROM chart_of_accounts WHERE code=$1 FOR UPDATE`, code))
}

func (r *txRepository) GetAccountForUpdate(ctx context.Context, id int64) (Account, error) {
	return scanAccount(r.q.QueryRow(ctx, `SELECT `+accountColumns+` FROM chart_of_accounts WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) GetAccountByCode(ctx context.Context, code string) (Account, error) {
	return scanAccount(r.q.QueryRow(ctx, `SELECT `+accountColumns+` FROM chart_of_accounts WHERE code=$1`, code))
}

func (r *txRepository) UpdateAccountBalance(ctx context.Context, accountID int64, balance float64) error {
	cmd, err := r.q.Exec(ctx, `UPDATE chart_of_accounts SET current_balance=$2, updated_at=NOW() WHERE id=$1`, accountID, balance)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// LatestOpenPeriod resolves the active period: the open period with the most
// recent start date. The row is locked so concurrent closes serialize against
// in-flight postings.
func (r *txRepository) LatestOpenPeriod(ctx context.Context) (Period, error) {
	var p Period
	err := r.q.QueryRow(ctx, `SELECT id, name, start_date, end_date, status, created_at, updated_at
FROM periods WHERE status='OPEN' ORDER BY start_date DESC LIMIT 1 FOR UPDATE`).
		Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, ErrNoOpenPeriod
		}
		return Period{}, err
	}
	return p, nil
}

// PeriodCovering finds the period whose date range contains the given date,
// open or closed.
func (r *txRepository) PeriodCovering(ctx context.Context, date time.Time) (Period, error) {
	var p Period
	err := r.q.QueryRow(ctx, `SELECT id, name, start_date, end_date, status, created_at, updated_at
FROM periods WHERE start_date<=$1 AND end_date>=$1 ORDER BY start_date DESC LIMIT 1`, date).
		Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, ErrPeriodNotFound
		}
		return Period{}, err
	}
	return p, nil
}

func (r *txRepository) NextCode(ctx context.Context, prefix string, at time.Time) (string, error) {
	return shared.NextDocumentCode(ctx, r.q, prefix, at)
}

func (r *txRepository) InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	row := r.q.QueryRow(ctx, `INSERT INTO journal_entries (code, period_id, date, memo, reference_type, reference_id, status, posted_by, posted_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW()) RETURNING id, posted_at, created_at`,
		entry.Code, entry.PeriodID, entry.Date, entry.Memo, entry.ReferenceType, entry.ReferenceID, entry.Status, entry.PostedBy)
	if err := row.Scan(&entry.ID, &entry.PostedAt, &entry.CreatedAt); err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) InsertLedgerRow(ctx context.Context, lr LedgerRow) (LedgerRow, error) {
	row := r.q.QueryRow(ctx, `INSERT INTO general_ledger (entry_id, account_id, period_id, date, debit, credit, balance)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, created_at`,
		lr.EntryID, lr.AccountID, lr.PeriodID, lr.Date, lr.Debit, lr.Credit, lr.Balance)
	if err := row.Scan(&lr.ID, &lr.CreatedAt); err != nil {
		return LedgerRow{}, err
	}
	return lr, nil
}

const entryColumns = `id, code, period_id, date, memo, reference_type, reference_id, status, posted_by, posted_at, created_at`

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.Code, &e.PeriodID, &e.Date, &e.Memo, &e.ReferenceType, &e.ReferenceID, &e.Status, &e.PostedBy, &e.PostedAt, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	return e, nil
}

func (r *txRepository) GetEntryWithRows(ctx context.Context, entryID int64) (JournalEntry, error) {
	entry, err := scanEntry(r.q.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, entryID))
	if err != nil {
		return JournalEntry{}, err
	}
	rows, err := r.q.Query(ctx, `SELECT id, entry_id, account_id, period_id, date, debit, credit, balance, created_at
FROM general_ledger WHERE entry_id=$1 ORDER BY id ASC`, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var lr LedgerRow
		if err := rows.Scan(&lr.ID, &lr.EntryID, &lr.AccountID, &lr.PeriodID, &lr.Date, &lr.Debit, &lr.Credit, &lr.Balance, &lr.CreatedAt); err != nil {
			return JournalEntry{}, err
		}
		entry.Rows = append(entry.Rows, lr)
	}
	return entry, rows.Err()
}

func (r *txRepository) MarkEntryReversed(ctx context.Context, entryID int64) error {
	cmd, err := r.q.Exec(ctx, `UPDATE journal_entries SET status='REVERSED' WHERE id=$1 AND status='POSTED'`, entryID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAlreadyReversed
	}
	return nil
}

func (r *txRepository) InsertAccount(ctx context.Context, a Account) (Account, error) {
	row := r.q.QueryRow(ctx, `INSERT INTO chart_of_accounts (code, name, type, parent_id, gst_applicable, gst_rate, opening_balance, current_balance, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7,$7,TRUE) RETURNING `+accountColumns,
		a.Code, a.Name, a.Type, a.ParentID, a.GSTApplicable, a.GSTRate, a.OpeningBalance)
	acct, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, shared.ErrDuplicateCode
		}
		return Account{}, err
	}
	return acct, nil
}

func (r *txRepository) UpdateAccount(ctx context.Context, a Account) (Account, error) {
	row := r.q.QueryRow(ctx, `UPDATE chart_of_accounts
SET name=$2, parent_id=$3, gst_applicable=$4, gst_rate=$5, is_active=$6, updated_at=NOW()
WHERE id=$1 RETURNING `+accountColumns,
		a.ID, a.Name, a.ParentID, a.GSTApplicable, a.GSTRate, a.IsActive)
	return scanAccount(row)
}

func (r *txRepository) ListAccounts(ctx context.Context, activeOnly bool) ([]Account, error) {
	sql := `SELECT ` + accountColumns + ` FROM chart_of_accounts`
	if activeOnly {
		sql += ` WHERE is_active`
	}
	sql += ` ORDER BY code`
	rows, err := r.q.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.ParentID, &a.GSTApplicable, &a.GSTRate, &a.OpeningBalance, &a.CurrentBalance, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *txRepository) InsertPeriod(ctx context.Context, p Period) (Period, error) {
	row := r.q.QueryRow(ctx, `INSERT INTO periods (name, start_date, end_date, status)
VALUES ($1,$2,$3,'OPEN') RETURNING id, status, created_at, updated_at`, p.Name, p.StartDate, p.EndDate)
	if err := row.Scan(&p.ID, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Period{}, err
	}
	return p, nil
}

func (r *txRepository) GetPeriod(ctx context.Context, id int64) (Period, error) {
	var p Period
	err := r.q.QueryRow(ctx, `SELECT id, name, start_date, end_date, status, created_at, updated_at FROM periods WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, ErrPeriodNotFound
		}
		return Period{}, err
	}
	return p, nil
}

func (r *txRepository) ListPeriods(ctx context.Context) ([]Period, error) {
	rows, err := r.q.Query(ctx, `SELECT id, name, start_date, end_date, status, created_at, updated_at FROM periods ORDER BY start_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var periods []Period
	for rows.Next() {
		var p Period
		if err := rows.Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (r *txRepository) UpdatePeriodStatus(ctx context.Context, id int64, status PeriodStatus) error {
	cmd, err := r.q.Exec(ctx, `UPDATE periods SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}
	return nil
}

func (r *txRepository) ListEntries(ctx context.Context, limit, offset int) ([]JournalEntry, error) {
	rows, err := r.q.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries ORDER BY id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.ID, &e.Code, &e.PeriodID, &e.Date, &e.Memo, &e.ReferenceType, &e.ReferenceID, &e.Status, &e.PostedBy, &e.PostedAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *txRepository) ListLedgerRows(ctx context.Context, accountID int64, limit, offset int) ([]LedgerRow, int, error) {
	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM general_ledger WHERE account_id=$1`, accountID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.q.Query(ctx, `SELECT id, entry_id, account_id, period_id, date, debit, credit, balance, created_at
FROM general_ledger WHERE account_id=$1 ORDER BY id DESC LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []LedgerRow
	for rows.Next() {
		var lr LedgerRow
		if err := rows.Scan(&lr.ID, &lr.EntryID, &lr.AccountID, &lr.PeriodID, &lr.Date, &lr.Debit, &lr.Credit, &lr.Balance, &lr.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, lr)
	}
	return out, total, rows.Err()
}

// SumLedgerDeltas folds every ledger row for the account into one signed
// movement using the account type's debit/credit convention.
func (r *txRepository) SumLedgerDeltas(ctx context.Context, accountID int64) (float64, error) {
	var delta float64
	err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(CASE WHEN a.type IN ('ASSET','EXPENSE') THEN gl.debit - gl.credit ELSE gl.credit - gl.debit END), 0)
FROM general_ledger gl JOIN chart_of_accounts a ON a.id = gl.account_id
WHERE gl.account_id=$1`, accountID).Scan(&delta)
	return delta, err
}

func (r *txRepository) ListAccountIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.q.Query(ctx, `SELECT id FROM chart_of_accounts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *txRepository) PeriodTotals(ctx context.Context, periodID int64) (float64, float64, error) {
	var debit, credit float64
	err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(debit),0), COALESCE(SUM(credit),0) FROM general_ledger WHERE period_id=$1`, periodID).
		Scan(&debit, &credit)
	return debit, credit, err
}
