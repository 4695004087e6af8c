// Package apperr holds the error kinds shared by every domain package.
// Domain packages declare their own prefixed sentinels that wrap one of these
// kinds, so callers can branch with errors.Is on either.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated signals a missing, malformed or expired credential.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden signals a valid identity lacking role or ownership.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound signals that a referenced id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict signals a uniqueness clash.
	ErrConflict = errors.New("conflict")
	// ErrInvalid signals malformed caller input.
	ErrInvalid = errors.New("invalid input")
	// ErrInvalidTransition signals a state change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrStoreUnavailable signals that the persistence layer failed.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrGateway signals a payment provider failure.
	ErrGateway = errors.New("payment gateway error")
)

// Store wraps a driver error so it matches ErrStoreUnavailable while keeping
// the original error in the chain.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// Invalid builds an ErrInvalid with a caller-facing message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
