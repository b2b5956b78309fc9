package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrLockHeld = errors.New("room lock is held by another request")

	ErrStatusChanged = errors.New("booking status changed concurrently")
)
