// Package events manages temple events and public self-service registration
// with QR check-in.
package events

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TempleEvent is a scheduled event devotees can register for.
type TempleEvent struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	Venue            string    `json:"venue"`
	StartsAt         time.Time `json:"starts_at"`
	EndsAt           time.Time `json:"ends_at"`
	Capacity         int       `json:"capacity"`
	RegistrationOpen bool      `json:"registration_open"`
	Registered       int       `json:"registered"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Registration is one attendee registration for an event. Code doubles as
// the QR payload presented at the gate.
type Registration struct {
	ID           int64      `json:"id"`
	EventID      int64      `json:"event_id"`
	Code         uuid.UUID  `json:"code"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone,omitempty"`
	CheckedInAt  *time.Time `json:"checked_in_at,omitempty"`
	RegisteredAt time.Time  `json:"registered_at"`
}

// CreateEventInput carries fields for a new event.
type CreateEventInput struct {
	Name        string    `json:"name" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	Venue       string    `json:"venue" validate:"required,max=200"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
	Capacity    int       `json:"capacity" validate:"required,gt=0"`
	CreatedBy   int64     `json:"created_by"`
}

// UpdateEventInput carries updatable fields.
type UpdateEventInput struct {
	Name             string    `json:"name" validate:"required,max=200"`
	Description      string    `json:"description" validate:"max=2000"`
	Venue            string    `json:"venue" validate:"required,max=200"`
	StartsAt         time.Time `json:"starts_at" validate:"required"`
	EndsAt           time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
	Capacity         int       `json:"capacity" validate:"required,gt=0"`
	RegistrationOpen bool      `json:"registration_open"`
	CreatedBy        int64     `json:"created_by"`
}

// RegisterInput is the public registration payload.
type RegisterInput struct {
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"required,email,max=120"`
	Phone string `json:"phone" validate:"omitempty,max=15"`
}

// ScanInput is the public QR check-in payload.
type ScanInput struct {
	Code uuid.UUID `json:"code" validate:"required"`
}

// ScanResult reports the outcome of a QR scan.
type ScanResult struct {
	Registration     Registration `json:"registration"`
	AlreadyCheckedIn bool         `json:"already_checked_in"`
}

// Sentinel errors for registration preconditions.
var (
	ErrEventNotFound         = errors.New("events: event not found")
	ErrRegistrationNotFound  = errors.New("events: registration not found")
	ErrRegistrationClosed    = errors.New("events: registration is closed")
	ErrEventFull             = errors.New("events: event is at capacity")
	ErrDuplicateRegistration = errors.New("events: email already registered for this event")
)
