package odm

import (
	"context"
	"time"
)

// Document is the storage form of an entity.
type Document struct {
	Model    string
	UID      string
	Data     map[string]any
	Created  time.Time
	Modified time.Time
}

// Sort keys that address system fields rather than data fields.
const (
	SortCreated  = "_created"
	SortModified = "_modified"
)

// Condition is an equality filter on a data field. Value is in storage form.
type Condition struct {
	Field string
	Value any
}

// Order is one sort key.
type Order struct {
	Field string
	Desc  bool
}

// Criteria selects documents of one model.
type Criteria struct {
	Model string
	// UIDs restricts results when non-nil; an empty non-nil slice matches nothing.
	UIDs        []string
	ExcludeUIDs []string
	Conditions  []Condition
	Sort        []Order
	Skip        int
	// Limit of zero means no limit.
	Limit int
}

// Backend persists documents. Implementations must be safe for concurrent use.
type Backend interface {
	// Load returns ErrDocumentNotFound when no document exists.
	Load(ctx context.Context, model, uid string) (*Document, error)
	// Save inserts or replaces a document.
	Save(ctx context.Context, doc *Document) error
	// Delete returns ErrDocumentNotFound when no document exists.
	Delete(ctx context.Context, model, uid string) error
	// Count ignores Skip, Limit and Sort.
	Count(ctx context.Context, c Criteria) (int, error)
	Fetch(ctx context.Context, c Criteria) ([]*Document, error)

	// Init prepares storage (tables, indexes) for the given models.
	Init(ctx context.Context, models []*Model) error
	Ping(ctx context.Context) error
}
