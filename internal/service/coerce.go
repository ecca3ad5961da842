package service

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/forgo/odmapi/internal/odm"
)

// fillFields assigns request parameters to entity fields in input order and
// stops at the first rejected field. Fields applied before the failure stay
// set on the in-memory entity; nothing is persisted.
func fillFields(e *odm.Entity, p odm.Params) error {
	for name, v := range p.All() {
		if strings.HasPrefix(name, "_") || !e.HasField(name) {
			return &FieldError{Field: name, Err: ErrInvalidField}
		}

		f, _ := e.Model().Field(name)
		if f.Kind.Composite() {
			s, ok := v.(string)
			if !ok {
				return &FieldError{Field: name, Err: ErrInvalidFieldFormat, Detail: "expected a JSON encoded string"}
			}
			var decoded any
			if err := json.Unmarshal([]byte(s), &decoded); err != nil {
				return &FieldError{Field: name, Err: ErrInvalidFieldFormat, Detail: err.Error()}
			}
			v = decoded
		}

		if err := e.Set(name, v); err != nil {
			return translate(err)
		}
	}
	return nil
}

// translate converts odm field errors into service field errors.
// Other errors pass through unchanged.
func translate(err error) error {
	var fe *odm.FieldError
	if !errors.As(err, &fe) {
		return err
	}

	out := &FieldError{Field: fe.Field, Err: ErrInvalidFieldFormat}
	switch {
	case errors.Is(fe.Err, odm.ErrUnknownField):
		out.Err = ErrInvalidField
	case errors.Is(fe.Err, odm.ErrRequired):
		out.Err = ErrFieldRequired
	default:
		out.Detail = detail(fe.Err)
	}
	return out
}

// detail strips the leading sentinel text from a wrapped odm error.
func detail(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{odm.ErrTypeMismatch, odm.ErrInvalidRef} {
		if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
			return rest
		}
	}
	return msg
}
