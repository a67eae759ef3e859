package inventory

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mandir-erp/mandir-erp/internal/shared"
)

// RepositoryPort abstracts item storage.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	InsertItem(ctx context.Context, input CreateItemInput) (Item, error)
	GetItem(ctx context.Context, id int64) (Item, error)
	ListItems(ctx context.Context, activeOnly bool) ([]Item, error)
	ListLowStock(ctx context.Context) ([]Item, error)
	ListMovements(ctx context.Context, itemID int64) ([]Movement, error)
}

// AuditPort records inventory events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages items and stock movements.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the inventory service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// CreateItem registers an item.
func (s *Service) CreateItem(ctx context.Context, input CreateItemInput) (Item, error) {
	item, err := s.repo.InsertItem(ctx, input)
	if err != nil {
		return Item{}, err
	}
	s.recordAudit(ctx, input.CreatedBy, "inventory.item.create", item.ID, map[string]any{"code": item.Code})
	return item, nil
}

// GetItem loads one item.
func (s *Service) GetItem(ctx context.Context, id int64) (Item, error) {
	return s.repo.GetItem(ctx, id)
}

// ListItems lists items.
func (s *Service) ListItems(ctx context.Context, activeOnly bool) ([]Item, error) {
	return s.repo.ListItems(ctx, activeOnly)
}

// ListLowStock lists items at or below their reorder level.
func (s *Service) ListLowStock(ctx context.Context) ([]Item, error) {
	return s.repo.ListLowStock(ctx)
}

// ListMovements lists movements for an item.
func (s *Service) ListMovements(ctx context.Context, itemID int64) ([]Movement, error) {
	return s.repo.ListMovements(ctx, itemID)
}

// RecordMovement applies a stock change. The item row stays locked while the
// new level is computed and written, and a level that would go negative is
// rejected.
func (s *Service) RecordMovement(ctx context.Context, input RecordMovementInput) (Movement, error) {
	var movement Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.GetItemForUpdate(ctx, input.ItemID)
		if err != nil {
			return err
		}
		newLevel, err := applyMovement(item.QuantityOnHand, input.Type, input.Quantity)
		if err != nil {
			return err
		}
		if err := tx.UpdateItemQuantity(ctx, item.ID, newLevel); err != nil {
			return err
		}
		movement, err = tx.InsertMovement(ctx, Movement{
			ItemID:    item.ID,
			Type:      input.Type,
			Quantity:  input.Quantity,
			Balance:   newLevel,
			RefModule: input.RefModule,
			RefID:     input.RefID,
			Note:      input.Note,
			CreatedBy: input.CreatedBy,
		})
		return err
	})
	if err != nil {
		return Movement{}, err
	}
	s.recordAudit(ctx, input.CreatedBy, "inventory.movement", movement.ItemID, map[string]any{"type": movement.Type, "quantity": movement.Quantity, "balance": movement.Balance})
	return movement, nil
}

// applyMovement computes the level after a movement, rejecting negatives.
func applyMovement(current float64, typ MovementType, quantity float64) (float64, error) {
	var next float64
	switch typ {
	case MovementTypeIn:
		next = current + quantity
	case MovementTypeOut:
		next = current - quantity
	case MovementTypeAdjust:
		next = quantity
	default:
		return 0, fmt.Errorf("inventory: unknown movement type %q", typ)
	}
	if next < 0 {
		return 0, fmt.Errorf("%w: have %.2f, requested %.2f", ErrInsufficientStock, current, quantity)
	}
	return next, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, itemID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "inventory_item",
		EntityID: strconv.FormatInt(itemID, 10),
		Meta:     meta,
		At:       s.now(),
	})
}
