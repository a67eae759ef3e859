package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mandir-erp/mandir-erp/internal/platform/db"
	"github.com/mandir-erp/mandir-erp/internal/shared"
)

// Repository persists items and movements.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the movement operations that must share one
// transaction: locking the item, writing the movement, updating the level.
type TxRepository interface {
	GetItemForUpdate(ctx context.Context, id int64) (Item, error)
	UpdateItemQuantity(ctx context.Context, id int64, quantity float64) error
	InsertMovement(ctx context.Context, m Movement) (Movement, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const itemColumns = `id, code, name, unit, quantity_on_hand, reorder_level, active, created_at, updated_at`

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.Code, &it.Name, &it.Unit, &it.QuantityOnHand, &it.ReorderLevel, &it.Active, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

// InsertItem stores a new item with zero stock.
func (r *Repository) InsertItem(ctx context.Context, input CreateItemInput) (Item, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, `INSERT INTO inventory_items (code, name, unit, quantity_on_hand, reorder_level, active)
VALUES ($1,$2,$3,0,$4,true) RETURNING `+itemColumns, input.Code, input.Name, input.Unit, input.ReorderLevel))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Item{}, shared.ErrDuplicateCode
		}
		return Item{}, err
	}
	return it, nil
}

// GetItem loads one item.
func (r *Repository) GetItem(ctx context.Context, id int64) (Item, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, err
	}
	return it, nil
}

// ListItems lists items in code order.
func (r *Repository) ListItems(ctx context.Context, activeOnly bool) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM inventory_items
WHERE ($1 = false OR active) ORDER BY code`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectItems(rows)
}

// ListLowStock lists active items at or below their reorder level.
func (r *Repository) ListLowStock(ctx context.Context) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM inventory_items
WHERE active AND quantity_on_hand <= reorder_level ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectItems(rows)
}

func collectItems(rows pgx.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListMovements lists movements for an item, newest first.
func (r *Repository) ListMovements(ctx context.Context, itemID int64) ([]Movement, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, item_id, type, quantity, balance, ref_module, ref_id, note, created_by, created_at
FROM inventory_movements WHERE item_id=$1 ORDER BY created_at DESC`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var movements []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.ItemID, &m.Type, &m.Quantity, &m.Balance, &m.RefModule, &m.RefID, &m.Note, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (r *txRepository) GetItemForUpdate(ctx context.Context, id int64) (Item, error) {
	it, err := scanItem(r.tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, err
	}
	return it, nil
}

func (r *txRepository) UpdateItemQuantity(ctx context.Context, id int64, quantity float64) error {
	_, err := r.tx.Exec(ctx, `UPDATE inventory_items SET quantity_on_hand=$2, updated_at=now() WHERE id=$1`, id, quantity)
	return err
}

func (r *txRepository) InsertMovement(ctx context.Context, m Movement) (Movement, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO inventory_movements (item_id, type, quantity, balance, ref_module, ref_id, note, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id, created_at`,
		m.ItemID, m.Type, m.Quantity, m.Balance, m.RefModule, m.RefID, m.Note, m.CreatedBy)
	if err := row.Scan(&m.ID, &m.CreatedAt); err != nil {
		return Movement{}, err
	}
	return m, nil
}
