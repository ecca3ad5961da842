package odm

import (
	"errors"
	"fmt"
	"strings"
)

// Model describes one entity collection.
type Model struct {
	Name   string
	Fields []*Field

	// Exposed is true when the schema declares an HTTP API section for the model.
	Exposed bool
	// Enabled is the HTTP API capability flag; it defaults to false.
	Enabled bool

	byName map[string]*Field
}

// NewModel builds a model and indexes its fields.
func NewModel(name string, fields ...*Field) (*Model, error) {
	m := &Model{Name: name, Fields: fields}
	if err := m.index(); err != nil {
		return nil, err
	}
	return m, nil
}

// Field returns the named field definition.
func (m *Model) Field(name string) (*Field, bool) {
	f, ok := m.byName[name]
	return f, ok
}

func (m *Model) index() error {
	var errs []error
	if !namePattern.MatchString(m.Name) {
		errs = append(errs, fmt.Errorf("model name %q must match %s", m.Name, namePattern))
	}
	m.byName = make(map[string]*Field, len(m.Fields))
	for _, f := range m.Fields {
		switch {
		case strings.HasPrefix(f.Name, "_"):
			errs = append(errs, fmt.Errorf("%s.%s: field names must not start with an underscore", m.Name, f.Name))
		case !namePattern.MatchString(f.Name):
			errs = append(errs, fmt.Errorf("%s.%s: field name must match %s", m.Name, f.Name, namePattern))
		case !f.Kind.Valid():
			errs = append(errs, fmt.Errorf("%s.%s: unknown kind %q", m.Name, f.Name, f.Kind))
		case m.byName[f.Name] != nil:
			errs = append(errs, fmt.Errorf("%s.%s: duplicate field", m.Name, f.Name))
		}
		m.byName[f.Name] = f
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSchema, errors.Join(errs...))
	}
	return nil
}
