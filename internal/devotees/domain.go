// Package devotees is the CRM registry: devotee records with contact and
// gotra details, searchable and exportable.
package devotees

import (
	"errors"
	"time"
)

// Devotee is one CRM record.
type Devotee struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email,omitempty"`
	Gotra          string    `json:"gotra,omitempty"`
	Address        string    `json:"address,omitempty"`
	City           string    `json:"city,omitempty"`
	Active         bool      `json:"active"`
	TotalDonations float64   `json:"total_donations"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateDevoteeInput carries fields for a new devotee.
type CreateDevoteeInput struct {
	Name    string `json:"name" validate:"required,max=120"`
	Phone   string `json:"phone" validate:"required,max=15"`
	Email   string `json:"email" validate:"omitempty,email,max=120"`
	Gotra   string `json:"gotra" validate:"max=80"`
	Address string `json:"address" validate:"max=300"`
	City    string `json:"city" validate:"max=80"`
}

// UpdateDevoteeInput carries updatable fields.
type UpdateDevoteeInput struct {
	Name    string `json:"name" validate:"required,max=120"`
	Phone   string `json:"phone" validate:"required,max=15"`
	Email   string `json:"email" validate:"omitempty,email,max=120"`
	Gotra   string `json:"gotra" validate:"max=80"`
	Address string `json:"address" validate:"max=300"`
	City    string `json:"city" validate:"max=80"`
	Active  bool   `json:"active"`
}

// ListDevoteesFilter narrows devotee listings.
type ListDevoteesFilter struct {
	Search     string
	ActiveOnly bool
	Page       int
	PerPage    int
}

// ErrDevoteeNotFound indicates missing devotee.
var ErrDevoteeNotFound = errors.New("devotees: devotee not found")
