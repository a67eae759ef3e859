package devotees

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/mandir-erp/mandir-erp/internal/shared"
)

// RepositoryPort abstracts devotee storage.
type RepositoryPort interface {
	InsertDevotee(ctx context.Context, input CreateDevoteeInput) (Devotee, error)
	UpdateDevotee(ctx context.Context, id int64, input UpdateDevoteeInput) (Devotee, error)
	GetDevotee(ctx context.Context, id int64) (Devotee, error)
	ListDevotees(ctx context.Context, f ListDevoteesFilter) ([]Devotee, int, error)
	AllDevotees(ctx context.Context, fn func(Devotee) error) error
}

// AuditPort records devotee events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages devotee records.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the devotee service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// CreateDevotee registers a devotee.
func (s *Service) CreateDevotee(ctx context.Context, actorID int64, input CreateDevoteeInput) (Devotee, error) {
	devotee, err := s.repo.InsertDevotee(ctx, input)
	if err != nil {
		return Devotee{}, err
	}
	s.recordAudit(ctx, actorID, "devotees.create", devotee)
	return devotee, nil
}

// UpdateDevotee updates a devotee record.
func (s *Service) UpdateDevotee(ctx context.Context, actorID, id int64, input UpdateDevoteeInput) (Devotee, error) {
	devotee, err := s.repo.UpdateDevotee(ctx, id, input)
	if err != nil {
		return Devotee{}, err
	}
	s.recordAudit(ctx, actorID, "devotees.update", devotee)
	return devotee, nil
}

// GetDevotee loads one devotee.
func (s *Service) GetDevotee(ctx context.Context, id int64) (Devotee, error) {
	return s.repo.GetDevotee(ctx, id)
}

// ListDevotees searches devotees.
func (s *Service) ListDevotees(ctx context.Context, f ListDevoteesFilter) ([]Devotee, shared.Pagination, error) {
	devotees, total, err := s.repo.ListDevotees(ctx, f)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return devotees, shared.NewPagination(f.Page, f.PerPage, total), nil
}

// ExportCSV streams every devotee to w as CSV. Donation totals are rendered
// in Indian digit grouping.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "name", "phone", "email", "gotra", "address", "city", "active", "total_donations"}); err != nil {
		return err
	}
	err := s.repo.AllDevotees(ctx, func(d Devotee) error {
		return cw.Write([]string{
			strconv.FormatInt(d.ID, 10),
			d.Name,
			d.Phone,
			d.Email,
			d.Gotra,
			d.Address,
			d.City,
			strconv.FormatBool(d.Active),
			shared.FormatINR(d.TotalDonations),
		})
	})
	if err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, d Devotee) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "devotee",
		EntityID: strconv.FormatInt(d.ID, 10),
		Meta:     map[string]any{"name": d.Name},
		At:       s.now(),
	})
}
