package banking

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mandir-erp/mandir-erp/internal/shared"
)

// Repository persists bank accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const bankAccountColumns = `id, name, account_number, ifsc, ledger_account, active, created_at, updated_at`

func scanBankAccount(row pgx.Row) (BankAccount, error) {
	var b BankAccount
	err := row.Scan(&b.ID, &b.Name, &b.AccountNumber, &b.IFSC, &b.LedgerAccount, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// InsertBankAccount stores a new bank account.
func (r *Repository) InsertBankAccount(ctx context.Context, b BankAccount) (BankAccount, error) {
	stored, err := scanBankAccount(r.pool.QueryRow(ctx, `INSERT INTO bank_accounts (name, account_number, ifsc, ledger_account, active)
VALUES ($1,$2,$3,$4,true) RETURNING `+bankAccountColumns, b.Name, b.AccountNumber, b.IFSC, b.LedgerAccount))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return BankAccount{}, shared.ErrDuplicateCode
		}
		return BankAccount{}, err
	}
	return stored, nil
}

// UpdateBankAccount updates name, linked ledger account, and active flag.
func (r *Repository) UpdateBankAccount(ctx context.Context, id int64, input UpdateBankAccountInput) (BankAccount, error) {
	stored, err := scanBankAccount(r.pool.QueryRow(ctx, `UPDATE bank_accounts
SET name=$2, ledger_account=$3, active=$4, updated_at=now() WHERE id=$1
RETURNING `+bankAccountColumns, id, input.Name, input.LedgerAccount, input.Active))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BankAccount{}, ErrBankAccountNotFound
		}
		return BankAccount{}, err
	}
	return stored, nil
}

// GetBankAccount loads one bank account.
func (r *Repository) GetBankAccount(ctx context.Context, id int64) (BankAccount, error) {
	b, err := scanBankAccount(r.pool.QueryRow(ctx, `SELECT `+bankAccountColumns+` FROM bank_accounts WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BankAccount{}, ErrBankAccountNotFound
		}
		return BankAccount{}, err
	}
	return b, nil
}

// ListBankAccounts lists bank accounts, optionally active only.
func (r *Repository) ListBankAccounts(ctx context.Context, activeOnly bool) ([]BankAccount, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+bankAccountColumns+` FROM bank_accounts
WHERE ($1 = false OR active) ORDER BY name`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []BankAccount
	for rows.Next() {
		b, err := scanBankAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, b)
	}
	return accounts, rows.Err()
}
