package odm

import (
	"maps"
	"time"
)

// Entity is one document of a model, loaded or freshly dispensed.
// It is not safe for concurrent use.
type Entity struct {
	model    *Model
	uid      string
	values   map[string]any
	created  time.Time
	modified time.Time
	isNew    bool
}

func newEntity(m *Model) *Entity {
	e := &Entity{
		model:  m,
		uid:    NewUID(),
		values: make(map[string]any, len(m.Fields)),
		isNew:  true,
	}
	for _, f := range m.Fields {
		if f.Default != nil {
			e.values[f.Name] = f.Default
		}
	}
	return e
}

func entityFromDocument(m *Model, doc *Document) *Entity {
	e := &Entity{
		model:    m,
		uid:      doc.UID,
		values:   make(map[string]any, len(m.Fields)),
		created:  doc.Created,
		modified: doc.Modified,
	}
	for _, f := range m.Fields {
		if raw, ok := doc.Data[f.Name]; ok {
			e.values[f.Name] = f.Decode(raw)
		}
	}
	return e
}

// Model returns the entity's model.
func (e *Entity) Model() *Model { return e.model }

// UID returns the entity's id within its model.
func (e *Entity) UID() string { return e.uid }

// Ref returns "<model>:<uid>".
func (e *Entity) Ref() string { return MakeRef(e.model.Name, e.uid) }

// IsNew reports whether the entity has never been saved.
func (e *Entity) IsNew() bool { return e.isNew }

func (e *Entity) Created() time.Time { return e.created }

func (e *Entity) Modified() time.Time { return e.modified }

// HasField reports whether the entity's model defines the named field.
func (e *Entity) HasField(name string) bool {
	_, ok := e.model.Field(name)
	return ok
}

// Get returns a field value; unset fields return nil.
func (e *Entity) Get(name string) (any, error) {
	if !e.HasField(name) {
		return nil, fieldErr(name, ErrUnknownField, "")
	}
	return e.values[name], nil
}

// Set coerces v to the field's kind and assigns it.
func (e *Entity) Set(name string, v any) error {
	f, ok := e.model.Field(name)
	if !ok {
		return fieldErr(name, ErrUnknownField, "")
	}
	out, err := f.Coerce(v)
	if err != nil {
		return &FieldError{Field: name, Err: err}
	}
	if out == nil {
		delete(e.values, name)
		return nil
	}
	e.values[name] = out
	return nil
}

// String returns a field value as a string, or "" when unset or not a string.
func (e *Entity) String(name string) string {
	s, _ := e.values[name].(string)
	return s
}

// AsJSONable renders the entity with its system fields. Hidden fields are omitted.
func (e *Entity) AsJSONable() map[string]any {
	out := map[string]any{
		"_id":    e.uid,
		"_ref":   e.Ref(),
		"_model": e.model.Name,
	}
	if !e.created.IsZero() {
		out["_created"] = e.created.UTC().Format(time.RFC3339)
	}
	if !e.modified.IsZero() {
		out["_modified"] = e.modified.UTC().Format(time.RFC3339)
	}
	for _, f := range e.model.Fields {
		if f.Hidden {
			continue
		}
		v, ok := e.values[f.Name]
		if !ok {
			v = nil
		}
		if t, isTime := v.(time.Time); isTime {
			v = t.UTC().Format(time.RFC3339)
		}
		out[f.Name] = v
	}
	return out
}

func (e *Entity) missingRequired() []string {
	var missing []string
	for _, f := range e.model.Fields {
		if !f.Required {
			continue
		}
		v, ok := e.values[f.Name]
		if !ok || v == nil || v == "" {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

func (e *Entity) document() *Document {
	data := make(map[string]any, len(e.values))
	for name, v := range e.values {
		f, _ := e.model.Field(name)
		data[name] = f.Encode(v)
	}
	return &Document{
		Model:    e.model.Name,
		UID:      e.uid,
		Data:     data,
		Created:  e.created,
		Modified: e.modified,
	}
}

// Values returns a copy of the set field values.
func (e *Entity) Values() map[string]any {
	return maps.Clone(e.values)
}
