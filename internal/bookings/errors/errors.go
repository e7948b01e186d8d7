package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	// ErrConflict is wrapped by conflict AppErrors so callers can match on it.
	ErrConflict = errors.New("booking conflicts with existing reservations")

	ErrIneligibleTransition = errors.New("booking transition not allowed")
)
