// Package common defines the sentinel errors shared by the repositories,
// services and the CLI of cinepos. Callers should use errors.Is to match
// these values; lower layers wrap them with fmt.Errorf("...: %w", ...).
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound               = errors.New("not found")
	ErrDuplicate              = errors.New("already exists")
	ErrStorage                = errors.New("storage error")
	ErrConcurrentModification = errors.New("concurrent modification")

	// Validation errors (malformed input).
	ErrValidation = errors.New("validation error")

	// State-machine errors.
	ErrInvalidState      = errors.New("invalid state")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrSeatUnavailable   = errors.New("seat unavailable")
	ErrDraftLimit        = errors.New("draft line limit reached")
)
