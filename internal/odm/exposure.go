package odm

import "context"

// Exposure is the capability a model implements to be served over HTTP.
// Every operation consults Enabled (and EnabledFor once an entity is loaded)
// before touching the entity.
type Exposure interface {
	// Enabled is the model-level switch.
	Enabled() bool
	// EnabledFor is the per-entity switch.
	EnabledFor(e *Entity) bool

	// Query narrows a collection query using request parameters.
	Query(ctx context.Context, q *Query, p Params) error
	// View renders an entity for a response.
	View(ctx context.Context, e *Entity, p Params) (map[string]any, error)

	OnCreate(ctx context.Context, e *Entity, p Params) error
	OnUpdate(ctx context.Context, e *Entity, p Params) error
	OnDelete(ctx context.Context, e *Entity, p Params) error
}

// DefaultExposure implements Exposure with no-op hooks and the entity's
// JSON form as its view. Embed it to override individual hooks.
type DefaultExposure struct {
	Enable bool
}

var _ Exposure = DefaultExposure{}

func (d DefaultExposure) Enabled() bool { return d.Enable }

func (d DefaultExposure) EnabledFor(*Entity) bool { return d.Enable }

func (DefaultExposure) Query(context.Context, *Query, Params) error { return nil }

func (DefaultExposure) View(_ context.Context, e *Entity, _ Params) (map[string]any, error) {
	return e.AsJSONable(), nil
}

func (DefaultExposure) OnCreate(context.Context, *Entity, Params) error { return nil }

func (DefaultExposure) OnUpdate(context.Context, *Entity, Params) error { return nil }

func (DefaultExposure) OnDelete(context.Context, *Entity, Params) error { return nil }
