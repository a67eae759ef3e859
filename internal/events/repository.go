package events

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mandir-erp/mandir-erp/internal/platform/db"
)

// Repository persists events and registrations.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the registration operations that must share one
// transaction: the capacity check and the insert.
type TxRepository interface {
	GetEventForUpdate(ctx context.Context, id int64) (TempleEvent, error)
	CountRegistrations(ctx context.Context, eventID int64) (int, error)
	InsertRegistration(ctx context.Context, reg Registration) (Registration, error)
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

const eventColumns = `e.id, e.name, e.description, e.venue, e.starts_at, e.ends_at, e.capacity, e.registration_open,
(SELECT COUNT(*) FROM event_registrations er WHERE er.event_id = e.id), e.created_at, e.updated_at`

func scanEvent(row pgx.Row) (TempleEvent, error) {
	var e TempleEvent
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Venue, &e.StartsAt, &e.EndsAt, &e.Capacity, &e.RegistrationOpen, &e.Registered, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// InsertEvent stores a new event with registration open.
func (r *Repository) InsertEvent(ctx context.Context, input CreateEventInput) (TempleEvent, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO temple_events (name, description, venue, starts_at, ends_at, capacity, registration_open)
VALUES ($1,$2,$3,$4,$5,$6,true) RETURNING id`,
		input.Name, input.Description, input.Venue, input.StartsAt, input.EndsAt, input.Capacity).Scan(&id)
	if err != nil {
		return TempleEvent{}, err
	}
	return r.GetEvent(ctx, id)
}

// UpdateEvent updates an event.
func (r *Repository) UpdateEvent(ctx context.Context, id int64, input UpdateEventInput) (TempleEvent, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE temple_events
SET name=$2, description=$3, venue=$4, starts_at=$5, ends_at=$6, capacity=$7, registration_open=$8, updated_at=now()
WHERE id=$1`, id, input.Name, input.Description, input.Venue, input.StartsAt, input.EndsAt, input.Capacity, input.RegistrationOpen)
	if err != nil {
		return TempleEvent{}, err
	}
	if tag.RowsAffected() == 0 {
		return TempleEvent{}, ErrEventNotFound
	}
	return r.GetEvent(ctx, id)
}

// GetEvent loads one event with its registration count.
func (r *Repository) GetEvent(ctx context.Context, id int64) (TempleEvent, error) {
	e, err := scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM temple_events e WHERE e.id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TempleEvent{}, ErrEventNotFound
		}
		return TempleEvent{}, err
	}
	return e, nil
}

// ListEvents lists events, upcoming first.
func (r *Repository) ListEvents(ctx context.Context, upcomingOnly bool) ([]TempleEvent, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM temple_events e
WHERE ($1 = false OR e.ends_at > now()) ORDER BY e.starts_at`, upcomingOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []TempleEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *txRepository) GetEventForUpdate(ctx context.Context, id int64) (TempleEvent, error) {
	var e TempleEvent
	err := r.tx.QueryRow(ctx, `SELECT id, name, description, venue, starts_at, ends_at, capacity, registration_open, created_at, updated_at
FROM temple_events WHERE id=$1 FOR UPDATE`, id).
		Scan(&e.ID, &e.Name, &e.Description, &e.Venue, &e.StartsAt, &e.EndsAt, &e.Capacity, &e.RegistrationOpen, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TempleEvent{}, ErrEventNotFound
		}
		return TempleEvent{}, err
	}
	return e, nil
}

func (r *txRepository) CountRegistrations(ctx context.Context, eventID int64) (int, error) {
	var count int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM event_registrations WHERE event_id=$1`, eventID).Scan(&count)
	return count, err
}

func (r *txRepository) InsertRegistration(ctx context.Context, reg Registration) (Registration, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO event_registrations (event_id, code, name, email, phone)
VALUES ($1,$2,$3,$4,$5) RETURNING id, registered_at`,
		reg.EventID, reg.Code, reg.Name, reg.Email, reg.Phone)
	if err := row.Scan(&reg.ID, &reg.RegisteredAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Registration{}, ErrDuplicateRegistration
		}
		return Registration{}, err
	}
	return reg, nil
}

// GetRegistrationByCode looks a registration up by its QR code.
func (r *Repository) GetRegistrationByCode(ctx context.Context, code uuid.UUID) (Registration, error) {
	var reg Registration
	err := r.pool.QueryRow(ctx, `SELECT id, event_id, code, name, email, phone, checked_in_at, registered_at
FROM event_registrations WHERE code=$1`, code).
		Scan(&reg.ID, &reg.EventID, &reg.Code, &reg.Name, &reg.Email, &reg.Phone, &reg.CheckedInAt, &reg.RegisteredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Registration{}, ErrRegistrationNotFound
		}
		return Registration{}, err
	}
	return reg, nil
}

// MarkCheckedIn sets the check-in timestamp if not already set. Returns the
// refreshed row and whether this call performed the check-in.
func (r *Repository) MarkCheckedIn(ctx context.Context, code uuid.UUID) (Registration, bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE event_registrations SET checked_in_at=now()
WHERE code=$1 AND checked_in_at IS NULL`, code)
	if err != nil {
		return Registration{}, false, err
	}
	reg, err := r.GetRegistrationByCode(ctx, code)
	if err != nil {
		return Registration{}, false, err
	}
	return reg, tag.RowsAffected() == 1, nil
}

// ListRegistrations lists registrations for an event.
func (r *Repository) ListRegistrations(ctx context.Context, eventID int64) ([]Registration, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, event_id, code, name, email, phone, checked_in_at, registered_at
FROM event_registrations WHERE event_id=$1 ORDER BY registered_at`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var regs []Registration
	for rows.Next() {
		var reg Registration
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.Code, &reg.Name, &reg.Email, &reg.Phone, &reg.CheckedInAt, &reg.RegisteredAt); err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}
