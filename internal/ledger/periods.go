package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/mandir-erp/mandir-erp/internal/shared"
)

// CreatePeriodInput carries fields for a new fiscal period.
type CreatePeriodInput struct {
	Name      string    `json:"name" validate:"required,max=100"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

// CreatePeriod opens a new fiscal period.
func (s *Service) CreatePeriod(ctx context.Context, input CreatePeriodInput) (Period, error) {
	if !input.EndDate.After(input.StartDate) {
		return Period{}, errors.New("ledger: period end must follow start")
	}
	var period Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		period, err = tx.InsertPeriod(ctx, Period{
			Name:      input.Name,
			StartDate: input.StartDate,
			EndDate:   input.EndDate,
		})
		return err
	})
	return period, err
}

// ActivePeriod resolves the period that currently accepts postings.
func (s *Service) ActivePeriod(ctx context.Context) (Period, error) {
	var period Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		period, err = tx.LatestOpenPeriod(ctx)
		return err
	})
	return period, err
}

// ClosePeriod transitions a period to CLOSED; in-flight postings serialize
// against the period row lock.
func (s *Service) ClosePeriod(ctx context.Context, id int64, actorID int64) (Period, error) {
	return s.transitionPeriod(ctx, id, actorID, PeriodStatusClosed, "period.close")
}

// ReopenPeriod transitions a closed period back to OPEN.
func (s *Service) ReopenPeriod(ctx context.Context, id int64, actorID int64) (Period, error) {
	return s.transitionPeriod(ctx, id, actorID, PeriodStatusOpen, "period.reopen")
}

func (s *Service) transitionPeriod(ctx context.Context, id, actorID int64, target PeriodStatus, action string) (Period, error) {
	var period Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetPeriod(ctx, id)
		if err != nil {
			return err
		}
		if err := shared.ValidatePeriodTransition(string(current.Status), string(target)); err != nil {
			return err
		}
		if err := tx.UpdatePeriodStatus(ctx, id, target); err != nil {
			return err
		}
		current.Status = target
		period = current
		return nil
	})
	if err != nil {
		return Period{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   action,
			Entity:   "period",
			EntityID: period.Name,
			Meta:     map[string]any{"status": string(target)},
			At:       s.now(),
		})
	}
	return period, nil
}

// ListPeriods retrieves all periods, newest first.
func (s *Service) ListPeriods(ctx context.Context) ([]Period, error) {
	var periods []Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		periods, err = tx.ListPeriods(ctx)
		return err
	})
	return periods, err
}
