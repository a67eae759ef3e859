package events

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mandir-erp/mandir-erp/internal/shared"
)

// RepositoryPort abstracts event storage.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	InsertEvent(ctx context.Context, input CreateEventInput) (TempleEvent, error)
	UpdateEvent(ctx context.Context, id int64, input UpdateEventInput) (TempleEvent, error)
	GetEvent(ctx context.Context, id int64) (TempleEvent, error)
	ListEvents(ctx context.Context, upcomingOnly bool) ([]TempleEvent, error)
	GetRegistrationByCode(ctx context.Context, code uuid.UUID) (Registration, error)
	MarkCheckedIn(ctx context.Context, code uuid.UUID) (Registration, bool, error)
	ListRegistrations(ctx context.Context, eventID int64) ([]Registration, error)
}

// AuditPort records event changes.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages events and registrations.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the event service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// CreateEvent registers a temple event.
func (s *Service) CreateEvent(ctx context.Context, input CreateEventInput) (TempleEvent, error) {
	event, err := s.repo.InsertEvent(ctx, input)
	if err != nil {
		return TempleEvent{}, err
	}
	s.recordAudit(ctx, input.CreatedBy, "events.create", event)
	return event, nil
}

// UpdateEvent updates a temple event.
func (s *Service) UpdateEvent(ctx context.Context, id int64, input UpdateEventInput) (TempleEvent, error) {
	event, err := s.repo.UpdateEvent(ctx, id, input)
	if err != nil {
		return TempleEvent{}, err
	}
	s.recordAudit(ctx, input.CreatedBy, "events.update", event)
	return event, nil
}

// GetEvent loads one event.
func (s *Service) GetEvent(ctx context.Context, id int64) (TempleEvent, error) {
	return s.repo.GetEvent(ctx, id)
}

// ListEvents lists events.
func (s *Service) ListEvents(ctx context.Context, upcomingOnly bool) ([]TempleEvent, error) {
	return s.repo.ListEvents(ctx, upcomingOnly)
}

// ListRegistrations lists registrations for an event.
func (s *Service) ListRegistrations(ctx context.Context, eventID int64) ([]Registration, error) {
	return s.repo.ListRegistrations(ctx, eventID)
}

// Register creates a public registration. The event row is locked while the
// capacity is checked so two racing registrations cannot both take the last
// slot; duplicate emails per event are rejected by a unique index.
func (s *Service) Register(ctx context.Context, eventID int64, input RegisterInput) (Registration, error) {
	var registration Registration
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		event, err := tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if !event.RegistrationOpen || s.now().After(event.EndsAt) {
			return ErrRegistrationClosed
		}
		count, err := tx.CountRegistrations(ctx, eventID)
		if err != nil {
			return err
		}
		if count >= event.Capacity {
			return ErrEventFull
		}
		registration, err = tx.InsertRegistration(ctx, Registration{
			EventID: eventID,
			Code:    uuid.New(),
			Name:    input.Name,
			Email:   strings.ToLower(strings.TrimSpace(input.Email)),
			Phone:   input.Phone,
		})
		return err
	})
	if err != nil {
		return Registration{}, err
	}
	return registration, nil
}

// Scan checks a registration in by its QR code. A second scan of the same
// code is not an error; it reports the earlier check-in.
func (s *Service) Scan(ctx context.Context, code uuid.UUID) (ScanResult, error) {
	registration, checkedInNow, err := s.repo.MarkCheckedIn(ctx, code)
	if err != nil {
		return ScanResult{}, err
	}
	return ScanResult{Registration: registration, AlreadyCheckedIn: !checkedInNow}, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, e TempleEvent) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "temple_event",
		EntityID: strconv.FormatInt(e.ID, 10),
		Meta:     map[string]any{"name": e.Name, "capacity": e.Capacity},
		At:       s.now(),
	})
}
