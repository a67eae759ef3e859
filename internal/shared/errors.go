package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateCode indicates a unique code collision.
	ErrDuplicateCode = errors.New("code already exists")
)
