package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the
	// store. Entity-specific variants wrap this error.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate of
	// a unique entity (for example, a second job with the same ID).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation or
	// violates a database constraint before being stored.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrStaleStatus is returned when a guarded status update matched no
	// row, meaning the job was not in the expected state. Callers treat
	// this as "somebody else already finished" rather than a failure.
	ErrStaleStatus = errors.New("job not in expected status")

	// ErrJobNotFound indicates that the requested job does not exist or is
	// not visible to the requesting user.
	ErrJobNotFound = fmt.Errorf("%w: job", ErrNotFound)
)

// IsNotFoundError checks whether the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
