package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/forgo/odmapi/internal/odm"
)

// EntityStore is the storage surface the entity service needs.
type EntityStore interface {
	Registry() *odm.Registry
	Dispense(model string) (*odm.Entity, error)
	GetByRef(ctx context.Context, ref string) (*odm.Entity, error)
	Find(model string) (*odm.Query, error)
	Save(ctx context.Context, e *odm.Entity) error
	Delete(ctx context.Context, e *odm.Entity) error
}

// EntityService serves generic CRUD over exposed models.
type EntityService struct {
	store        EntityStore
	defaultLimit int
	maxLimit     int
}

// EntityServiceConfig holds dependencies for EntityService.
type EntityServiceConfig struct {
	Store        EntityStore
	DefaultLimit int
	MaxLimit     int
}

// NewEntityService creates an entity service. Zero limits fall back to
// DefaultLimit and MaxLimit.
func NewEntityService(cfg EntityServiceConfig) *EntityService {
	s := &EntityService{
		store:        cfg.Store,
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
	}
	if s.defaultLimit <= 0 {
		s.defaultLimit = DefaultLimit
	}
	if s.maxLimit <= 0 {
		s.maxLimit = MaxLimit
	}
	return s
}

// List returns one page of a model's collection.
func (s *EntityService) List(ctx context.Context, model string, p odm.Params) (*Page, error) {
	exp, err := s.gateModel(model)
	if err != nil {
		return nil, err
	}

	opts, err := ParseListOptions(p, s.defaultLimit, s.maxLimit)
	if err != nil {
		return nil, err
	}

	q, err := s.store.Find(model)
	if err != nil {
		return nil, s.storeErr(err)
	}
	if len(opts.Refs) > 0 {
		q.IncludeRefs(opts.Refs...)
	}
	if len(opts.Exclude) > 0 {
		q.ExcludeRefs(opts.Exclude...)
	}

	rest := p.Without(ParamSkip, ParamLimit, ParamRefs, ParamExclude)
	if err := exp.Query(ctx, q, rest); err != nil {
		return nil, translate(err)
	}

	total, err := q.Count(ctx)
	if err != nil {
		return nil, err
	}

	entities, err := q.Skip(opts.Skip).Limit(opts.Limit).Fetch(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(entities))
	for _, e := range entities {
		view, err := exp.View(ctx, e, rest)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", e.Ref(), err)
		}
		items = append(items, view)
	}

	return &Page{
		Items: items,
		Total: total,
		Skip:  opts.Skip,
		Limit: opts.Limit,
		Links: PageLinks(total, opts.Skip, opts.Limit),
	}, nil
}

// Get returns the view of one entity.
func (s *EntityService) Get(ctx context.Context, ref string, p odm.Params) (map[string]any, error) {
	e, exp, err := s.resolveRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	return exp.View(ctx, e, p)
}

// Create dispenses, fills and saves a new entity.
func (s *EntityService) Create(ctx context.Context, model string, p odm.Params) (map[string]any, error) {
	e, exp, err := s.dispense(model)
	if err != nil {
		return nil, err
	}
	if err := fillFields(e, p); err != nil {
		return nil, err
	}
	if err := exp.OnCreate(ctx, e, p); err != nil {
		return nil, translate(err)
	}
	if err := s.store.Save(ctx, e); err != nil {
		return nil, translate(err)
	}
	return exp.View(ctx, e, p)
}

// Update applies p to an existing entity and saves it.
func (s *EntityService) Update(ctx context.Context, ref string, p odm.Params) (map[string]any, error) {
	e, exp, err := s.resolveRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := fillFields(e, p); err != nil {
		return nil, err
	}
	if err := exp.OnUpdate(ctx, e, p); err != nil {
		return nil, translate(err)
	}
	if err := s.store.Save(ctx, e); err != nil {
		return nil, translate(err)
	}
	return exp.View(ctx, e, p)
}

// Delete removes an entity.
func (s *EntityService) Delete(ctx context.Context, ref string, p odm.Params) error {
	e, exp, err := s.resolveRef(ctx, ref)
	if err != nil {
		return err
	}
	if err := exp.OnDelete(ctx, e, p); err != nil {
		return translate(err)
	}
	if err := s.store.Delete(ctx, e); err != nil {
		if errors.Is(err, odm.ErrDocumentNotFound) {
			return ErrEntityNotFound
		}
		return err
	}
	return nil
}
