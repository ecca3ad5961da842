package odm

import (
	"errors"
	"fmt"
)

var (
	// ErrModelNotRegistered is returned when a model name has no schema.
	ErrModelNotRegistered = errors.New("model not registered")

	// ErrInvalidRef is returned for refs not shaped like "<model>:<uid>".
	ErrInvalidRef = errors.New("invalid entity ref")

	// ErrUnknownField is returned when an entity has no field by that name.
	ErrUnknownField = errors.New("unknown field")

	// ErrTypeMismatch is returned when a value cannot be coerced to a field's kind.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrRequired is returned by Save when a required field has no value.
	ErrRequired = errors.New("field is required")

	// ErrDocumentNotFound is returned by backends when no document matches.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrInvalidSchema is returned when a schema file cannot be used.
	ErrInvalidSchema = errors.New("invalid schema")
)

// FieldError ties a field-level failure to the field name.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldErr(name string, kind error, format string, args ...any) error {
	if format == "" {
		return &FieldError{Field: name, Err: kind}
	}
	return &FieldError{Field: name, Err: fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))}
}
