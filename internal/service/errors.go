package service

import (
	"errors"
	"fmt"
)

// Centralized service layer errors.
// Handlers map these to HTTP responses in one place.

// ===== Resolution Errors =====
var (
	ErrModelNotRegistered = errors.New("model not registered")
	ErrEntityNotFound     = errors.New("entity not found")
)

// ===== Capability Errors =====
var (
	// ErrForbidden means the model has no HTTP API capability at all.
	ErrForbidden = errors.New("model does not support transfer via HTTP")
	// ErrOperationForbidden means the capability exists but is switched off.
	ErrOperationForbidden = errors.New("operation is not permitted")
)

// ===== Input Errors =====
var (
	ErrInvalidField       = errors.New("invalid field")
	ErrInvalidFieldFormat = errors.New("invalid format of the field")
	ErrFieldRequired      = errors.New("field is required")
	ErrInvalidParameter   = errors.New("invalid parameter")
)

// FieldError reports a rejected field. It unwraps to one of the input errors.
type FieldError struct {
	Field  string
	Err    error
	Detail string
}

func (e *FieldError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v '%s'", e.Err, e.Field)
	}
	return fmt.Sprintf("%v '%s': %s", e.Err, e.Field, e.Detail)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
