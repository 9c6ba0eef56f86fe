package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services and repositories. Callers match them
// with errors.Is; transport layers decide how each one surfaces.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrConfiguration = errors.New("configuration error")
	ErrInternal      = errors.New("internal error")
)

// SuspiciousActivityError signals that a session continuation was rejected by
// the anomaly detector. It is deliberately distinct from a plain
// ErrUnauthorized: the caller-visible outcome is identical, but the carried
// reason is logged and alertable. errors.Is(err, ErrUnauthorized) still holds,
// so generic handling fails closed.
type SuspiciousActivityError struct {
	Reason string
}

func (e *SuspiciousActivityError) Error() string {
	return fmt.Sprintf("suspicious activity: %s", e.Reason)
}

// Is lets the error satisfy errors.Is checks against ErrUnauthorized.
func (e *SuspiciousActivityError) Is(target error) bool {
	return target == ErrUnauthorized
}

// NewSuspiciousActivity builds a SuspiciousActivityError with the detector's
// human-readable reason.
func NewSuspiciousActivity(reason string) error {
	return &SuspiciousActivityError{Reason: reason}
}
