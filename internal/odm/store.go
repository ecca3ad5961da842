package odm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Store maps entities onto a Backend.
type Store struct {
	registry *Registry
	backend  Backend
	now      func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock sets the time source used for created and modified stamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore binds a registry to a backend.
func NewStore(reg *Registry, backend Backend, opts ...StoreOption) *Store {
	s := &Store{registry: reg, backend: backend, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the store's model registry.
func (s *Store) Registry() *Registry { return s.registry }

// Backend returns the underlying backend.
func (s *Store) Backend() Backend { return s.backend }

// Dispense returns a new, unsaved entity with field defaults applied.
func (s *Store) Dispense(model string) (*Entity, error) {
	m, err := s.registry.Model(model)
	if err != nil {
		return nil, err
	}
	return newEntity(m), nil
}

// GetByRef loads an entity. It returns (nil, nil) when the ref points nowhere.
func (s *Store) GetByRef(ctx context.Context, ref string) (*Entity, error) {
	model, uid, err := ParseRef(ref)
	if err != nil {
		return nil, nil
	}
	m, err := s.registry.Model(model)
	if err != nil {
		return nil, err
	}
	doc, err := s.backend.Load(ctx, model, uid)
	if errors.Is(err, ErrDocumentNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", ref, err)
	}
	return entityFromDocument(m, doc), nil
}

// Find starts a query over a model's collection.
func (s *Store) Find(model string) (*Query, error) {
	m, err := s.registry.Model(model)
	if err != nil {
		return nil, err
	}
	return &Query{store: s, model: m, c: Criteria{Model: m.Name}}, nil
}

// Save validates required fields and writes the entity.
func (s *Store) Save(ctx context.Context, e *Entity) error {
	if missing := e.missingRequired(); len(missing) > 0 {
		return fieldErr(missing[0], ErrRequired, "%s", strings.Join(missing, ", "))
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	created := e.created
	if e.isNew {
		created = now
	}
	doc := e.document()
	doc.Created = created
	doc.Modified = now
	if err := s.backend.Save(ctx, doc); err != nil {
		return fmt.Errorf("save %s: %w", e.Ref(), err)
	}
	e.created, e.modified, e.isNew = created, now, false
	return nil
}

// Delete removes a stored entity.
func (s *Store) Delete(ctx context.Context, e *Entity) error {
	if e.isNew {
		return fmt.Errorf("delete %s: %w", e.Ref(), ErrDocumentNotFound)
	}
	if err := s.backend.Delete(ctx, e.model.Name, e.uid); err != nil {
		return fmt.Errorf("delete %s: %w", e.Ref(), err)
	}
	return nil
}
