package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	ErrInvalidID = errors.New("invalid reservation ID format")

	// ErrLockHeld means another admission currently holds the studio lock.
	ErrLockHeld = errors.New("admission lock held")

	// ErrStaleStatus means the reservation left the expected status before the write.
	ErrStaleStatus = errors.New("reservation status changed concurrently")
)

var ErrDuplicateConfirmation = errors.New("confirmation id already assigned")
