package store

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist in the store.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a write violates a unique constraint.
	// For admin_users that is always the email column.
	ErrDuplicate = errors.New("duplicate key")
)
