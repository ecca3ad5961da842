// Package fixtures provides document factories for backend tests.
//
// Each factory method creates a document with sensible defaults while allowing
// customization via option functions. Documents are saved through the backend
// under test and returned as stored:
//
//	f := fixtures.New(backend)
//	a := f.CreateDocument(t, "article")
//	b := f.CreateDocument(t, "article", fixtures.WithData(map[string]any{"rank": int64(2)}))
package fixtures

import (
	"context"
	"maps"
	"sync"
	"testing"
	"time"

	"github.com/forgo/odmapi/internal/odm"
)

// Epoch is the creation time of the first document a Factory makes.
var Epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// Factory creates documents in a backend. Each document is created one
// second after the previous one so creation order is deterministic.
type Factory struct {
	backend odm.Backend

	mu   sync.Mutex
	next time.Time
}

// New creates a new fixture factory
func New(backend odm.Backend) *Factory {
	return &Factory{backend: backend, next: Epoch}
}

// DocumentOpts customizes document creation
type DocumentOpts struct {
	UID      string
	Data     map[string]any
	Created  time.Time
	Modified time.Time
}

// WithUID fixes the uid of the document.
func WithUID(uid string) func(*DocumentOpts) {
	return func(o *DocumentOpts) { o.UID = uid }
}

// WithData merges fields into the document data.
func WithData(data map[string]any) func(*DocumentOpts) {
	return func(o *DocumentOpts) { maps.Copy(o.Data, data) }
}

// ModifiedAfter sets the modification time d after creation.
func ModifiedAfter(d time.Duration) func(*DocumentOpts) {
	return func(o *DocumentOpts) { o.Modified = o.Created.Add(d) }
}

// CreateDocument saves a document of model and returns it.
func (f *Factory) CreateDocument(t *testing.T, model string, opts ...func(*DocumentOpts)) *odm.Document {
	t.Helper()

	created := f.tick()
	o := &DocumentOpts{
		UID:      odm.NewUID(),
		Data:     map[string]any{},
		Created:  created,
		Modified: created,
	}
	for _, fn := range opts {
		fn(o)
	}

	doc := &odm.Document{
		Model:    model,
		UID:      o.UID,
		Data:     o.Data,
		Created:  o.Created,
		Modified: o.Modified,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := f.backend.Save(ctx, doc); err != nil {
		t.Fatalf("fixtures: save %s: %v", odm.MakeRef(model, o.UID), err)
	}
	return doc
}

// CreateDocuments saves n documents of model with a "seq" field counting from zero.
func (f *Factory) CreateDocuments(t *testing.T, model string, n int) []*odm.Document {
	t.Helper()
	docs := make([]*odm.Document, n)
	for i := range n {
		docs[i] = f.CreateDocument(t, model, WithData(map[string]any{"seq": int64(i)}))
	}
	return docs
}

func (f *Factory) tick() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.next
	f.next = f.next.Add(time.Second)
	return t
}
