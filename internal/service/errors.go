// Package service holds the domain core: identity and ID allocation,
// doctor/patient assignment, telemetry ingestion, alerting and scoped
// history reads.  Every failure surfaces as one of the sentinel errors
// below so transports can map it with errors.Is.
package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrMissingField       = errors.New("missing required field")
	ErrAuthentication     = errors.New("invalid credentials")
	ErrAuthorization      = errors.New("not authorized")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrStorage            = errors.New("storage failure")
	ErrUnauthorizedDevice = errors.New("unauthorized device")
)

// FieldError reports a missing required field.  It matches both
// ErrMissingField and ErrValidation.
type FieldError struct{ Field string }

func (e *FieldError) Error() string { return "Missing required field: " + e.Field + "." }

func (e *FieldError) Unwrap() []error { return []error{ErrMissingField, ErrValidation} }

// UnauthorizedDeviceError is returned when a payload names a PID that does
// not belong to any patient.
type UnauthorizedDeviceError struct{ PID string }

func (e *UnauthorizedDeviceError) Error() string { return "Unauthorized PID: " + e.PID }

func (e *UnauthorizedDeviceError) Unwrap() error { return ErrUnauthorizedDevice }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
