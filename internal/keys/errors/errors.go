package errors

import "errors"

var (
	ErrNotFound = errors.New("key transaction not found")

	// ErrAlreadyCheckedOut is returned by repositories when the key already
	// has an open transaction.
	ErrAlreadyCheckedOut = errors.New("key already checked out")

	ErrAlreadyReturned = errors.New("key transaction already returned")
)
