// Package inventory tracks temple store items and stock movements.
package inventory

import (
	"errors"
	"time"
)

// MovementType enumerates supported stock movements.
type MovementType string

const (
	// MovementTypeIn represents an inbound movement.
	MovementTypeIn MovementType = "IN"
	// MovementTypeOut represents an outbound movement.
	MovementTypeOut MovementType = "OUT"
	// MovementTypeAdjust indicates a manual correction to an absolute level.
	MovementTypeAdjust MovementType = "ADJUST"
)

// Item is one stocked item.
type Item struct {
	ID             int64     `json:"id"`
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	Unit           string    `json:"unit"`
	QuantityOnHand float64   `json:"quantity_on_hand"`
	ReorderLevel   float64   `json:"reorder_level"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Movement records one stock change against an item. Balance is the quantity
// on hand after this movement applied.
type Movement struct {
	ID        int64        `json:"id"`
	ItemID    int64        `json:"item_id"`
	Type      MovementType `json:"type"`
	Quantity  float64      `json:"quantity"`
	Balance   float64      `json:"balance"`
	RefModule string       `json:"ref_module,omitempty"`
	RefID     string       `json:"ref_id,omitempty"`
	Note      string       `json:"note,omitempty"`
	CreatedBy int64        `json:"created_by"`
	CreatedAt time.Time    `json:"created_at"`
}

// CreateItemInput carries fields for a new item.
type CreateItemInput struct {
	Code         string  `json:"code" validate:"required,max=30"`
	Name         string  `json:"name" validate:"required,max=200"`
	Unit         string  `json:"unit" validate:"required,max=20"`
	ReorderLevel float64 `json:"reorder_level" validate:"gte=0"`
	CreatedBy    int64   `json:"created_by"`
}

// RecordMovementInput describes a stock change request. For IN and OUT the
// quantity is a delta; for ADJUST it is the new absolute level.
type RecordMovementInput struct {
	ItemID    int64        `json:"item_id" validate:"required,gt=0"`
	Type      MovementType `json:"type" validate:"required,oneof=IN OUT ADJUST"`
	Quantity  float64      `json:"quantity" validate:"gte=0"`
	RefModule string       `json:"ref_module" validate:"max=40"`
	RefID     string       `json:"ref_id" validate:"max=60"`
	Note      string       `json:"note" validate:"max=300"`
	CreatedBy int64        `json:"created_by"`
}

// Sentinel errors.
var (
	ErrItemNotFound      = errors.New("inventory: item not found")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
)
