package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	ErrNotFound          = errors.New("domain: not found")
	ErrConflict          = errors.New("domain: conflict")
	ErrValidation        = errors.New("domain: validation failed")
	ErrMissingCredential = errors.New("domain: missing credential")
	ErrInvalidCredential = errors.New("domain: invalid credential")
)

// ValidationError reports one rejected field. It matches ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
