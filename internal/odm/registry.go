package odm

import (
	"fmt"
	"sync"
)

// Registry holds the known models and their HTTP exposure capabilities.
type Registry struct {
	mu        sync.RWMutex
	models    map[string]*Model
	exposures map[string]Exposure
	order     []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		models:    make(map[string]*Model),
		exposures: make(map[string]Exposure),
	}
}

// Register adds a model. A nil exposure leaves the model unexposed.
func (r *Registry) Register(m *Model, exp Exposure) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.models[m.Name]; ok {
		return fmt.Errorf("%w: model %q registered twice", ErrInvalidSchema, m.Name)
	}
	r.models[m.Name] = m
	r.order = append(r.order, m.Name)
	if exp != nil {
		r.exposures[m.Name] = exp
	}
	return nil
}

// Hook replaces the exposure of an exposed model with one built from its defaults.
// Models without an HTTP API section are left unexposed. It reports whether the hook was applied.
func (r *Registry) Hook(name string, build func(DefaultExposure) Exposure) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.models[name]
	if !ok || !m.Exposed {
		return false
	}
	r.exposures[name] = build(DefaultExposure{Enable: m.Enabled})
	return true
}

// Model looks up a model by name.
func (r *Registry) Model(name string) (*Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotRegistered, name)
	}
	return m, nil
}

// Exposure returns the model's exposure capability, if it has one.
func (r *Registry) Exposure(name string) (Exposure, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exp, ok := r.exposures[name]
	return exp, ok
}

// Models returns all models in registration order.
func (r *Registry) Models() []*Model {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Model, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.models[name])
	}
	return out
}
