package budgets

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists budgets and reads ledger movement for actuals.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpsertBudget creates or replaces the budget line for an account and period.
func (r *Repository) UpsertBudget(ctx context.Context, b Budget) (Budget, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO budgets (account_code, period_id, planned, notes)
VALUES ($1,$2,$3,$4)
ON CONFLICT (account_code, period_id) DO UPDATE SET planned = EXCLUDED.planned, notes = EXCLUDED.notes, updated_at = now()
RETURNING id, created_at, updated_at`, b.AccountCode, b.PeriodID, b.Planned, b.Notes)
	if err := row.Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return Budget{}, err
	}
	return b, nil
}

// GetBudget loads one budget line.
func (r *Repository) GetBudget(ctx context.Context, id int64) (Budget, error) {
	var b Budget
	err := r.pool.QueryRow(ctx, `SELECT b.id, b.account_code, COALESCE(a.name, ''), b.period_id, b.planned, b.notes, b.created_at, b.updated_at
FROM budgets b LEFT JOIN chart_of_accounts a ON a.code = b.account_code WHERE b.id=$1`, id).
		Scan(&b.ID, &b.AccountCode, &b.AccountName, &b.PeriodID, &b.Planned, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Budget{}, ErrBudgetNotFound
		}
		return Budget{}, err
	}
	return b, nil
}

// DeleteBudget removes a budget line.
func (r *Repository) DeleteBudget(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM budgets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBudgetNotFound
	}
	return nil
}

// ListBudgets lists budget lines for a period.
func (r *Repository) ListBudgets(ctx context.Context, periodID int64) ([]Budget, error) {
	rows, err := r.pool.Query(ctx, `SELECT b.id, b.account_code, COALESCE(a.name, ''), b.period_id, b.planned, b.notes, b.created_at, b.updated_at
FROM budgets b LEFT JOIN chart_of_accounts a ON a.code = b.account_code
WHERE b.period_id=$1 ORDER BY b.account_code`, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var budgets []Budget
	for rows.Next() {
		var b Budget
		if err := rows.Scan(&b.ID, &b.AccountCode, &b.AccountName, &b.PeriodID, &b.Planned, &b.Notes, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// AccountMovement folds the ledger rows one account accumulated inside one
// period into a single signed amount, using the same sign convention as the
// posting engine.
func (r *Repository) AccountMovement(ctx context.Context, accountCode string, periodID int64) (float64, error) {
	var movement float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(
  CASE WHEN a.type IN ('ASSET','EXPENSE') THEN gl.debit - gl.credit ELSE gl.credit - gl.debit END), 0)
FROM general_ledger gl
JOIN chart_of_accounts a ON a.id = gl.account_id
JOIN journal_entries je ON je.id = gl.entry_id
WHERE a.code = $1 AND je.period_id = $2`, accountCode, periodID).Scan(&movement)
	return movement, err
}
