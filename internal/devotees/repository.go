package devotees

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mandir-erp/mandir-erp/internal/shared"
)

// Repository persists devotees.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const devoteeColumns = `d.id, d.name, d.phone, d.email, d.gotra, d.address, d.city, d.active,
COALESCE((SELECT SUM(dn.amount) FROM donations dn WHERE dn.devotee_id = d.id), 0),
d.created_at, d.updated_at`

func scanDevotee(row pgx.Row) (Devotee, error) {
	var d Devotee
	err := row.Scan(&d.ID, &d.Name, &d.Phone, &d.Email, &d.Gotra, &d.Address, &d.City, &d.Active, &d.TotalDonations, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

// InsertDevotee stores a new devotee.
func (r *Repository) InsertDevotee(ctx context.Context, input CreateDevoteeInput) (Devotee, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO devotees (name, phone, email, gotra, address, city, active)
VALUES ($1,$2,$3,$4,$5,$6,true) RETURNING id`,
		input.Name, input.Phone, input.Email, input.Gotra, input.Address, input.City).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Devotee{}, shared.ErrDuplicateCode
		}
		return Devotee{}, err
	}
	return r.GetDevotee(ctx, id)
}

// UpdateDevotee updates a devotee record.
func (r *Repository) UpdateDevotee(ctx context.Context, id int64, input UpdateDevoteeInput) (Devotee, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE devotees
SET name=$2, phone=$3, email=$4, gotra=$5, address=$6, city=$7, active=$8, updated_at=now() WHERE id=$1`,
		id, input.Name, input.Phone, input.Email, input.Gotra, input.Address, input.City, input.Active)
	if err != nil {
		return Devotee{}, err
	}
	if tag.RowsAffected() == 0 {
		return Devotee{}, ErrDevoteeNotFound
	}
	return r.GetDevotee(ctx, id)
}

// GetDevotee loads one devotee with their donation total.
func (r *Repository) GetDevotee(ctx context.Context, id int64) (Devotee, error) {
	d, err := scanDevotee(r.pool.QueryRow(ctx, `SELECT `+devoteeColumns+` FROM devotees d WHERE d.id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Devotee{}, ErrDevoteeNotFound
		}
		return Devotee{}, err
	}
	return d, nil
}

// ListDevotees searches devotees by name, phone, or email.
func (r *Repository) ListDevotees(ctx context.Context, f ListDevoteesFilter) ([]Devotee, int, error) {
	page := shared.NewPagination(f.Page, f.PerPage, 0)
	search := "%" + f.Search + "%"
	where := ` WHERE ($1 = '%%' OR d.name ILIKE $1 OR d.phone ILIKE $1 OR d.email ILIKE $1)
AND ($2 = false OR d.active)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM devotees d`+where, search, f.ActiveOnly).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+devoteeColumns+` FROM devotees d`+where+`
ORDER BY d.name LIMIT $3 OFFSET $4`, search, f.ActiveOnly, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var devotees []Devotee
	for rows.Next() {
		d, err := scanDevotee(rows)
		if err != nil {
			return nil, 0, err
		}
		devotees = append(devotees, d)
	}
	return devotees, total, rows.Err()
}

// AllDevotees streams every devotee in name order, calling fn per row. Used
// by the CSV export so the full set never sits in memory at once.
func (r *Repository) AllDevotees(ctx context.Context, fn func(Devotee) error) error {
	rows, err := r.pool.Query(ctx, `SELECT `+devoteeColumns+` FROM devotees d ORDER BY d.name`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		d, err := scanDevotee(rows)
		if err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}
	}
	return rows.Err()
}
