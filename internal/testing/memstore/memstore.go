// Package memstore provides an in-memory odm.Backend for tests.
//
// It records every backend call so tests can assert that an operation was
// rejected before reaching storage:
//
//	mem := memstore.New()
//	st := odm.NewStore(reg, mem)
//	...
//	assert.Zero(t, mem.Calls())
package memstore

import (
	"context"
	"maps"
	"sync"

	"github.com/forgo/odmapi/internal/odm"
)

// Backend is a goroutine-safe in-memory odm.Backend.
type Backend struct {
	mu    sync.RWMutex
	docs  map[string]*odm.Document
	calls map[string]int

	// Fail, when set, is returned by every data call.
	Fail error
}

var _ odm.Backend = (*Backend)(nil)

// New returns an empty backend.
func New() *Backend {
	return &Backend{
		docs:  make(map[string]*odm.Document),
		calls: make(map[string]int),
	}
}

// Calls returns the total number of data calls made.
func (b *Backend) Calls() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

// CallsTo returns the number of calls to one method, e.g. "Save".
func (b *Backend) CallsTo(method string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.calls[method]
}

// ResetCalls zeroes the call counters.
func (b *Backend) ResetCalls() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.calls)
}

// Len returns the number of stored documents.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.docs)
}

// Put stores a document directly, bypassing the call counters.
func (b *Backend) Put(doc *odm.Document) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs[odm.MakeRef(doc.Model, doc.UID)] = clone(doc)
}

func (b *Backend) track(method string) error {
	b.calls[method]++
	return b.Fail
}

func (b *Backend) Load(_ context.Context, model, uid string) (*odm.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.track("Load"); err != nil {
		return nil, err
	}
	doc, ok := b.docs[odm.MakeRef(model, uid)]
	if !ok {
		return nil, odm.ErrDocumentNotFound
	}
	return clone(doc), nil
}

func (b *Backend) Save(_ context.Context, doc *odm.Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.track("Save"); err != nil {
		return err
	}
	b.docs[odm.MakeRef(doc.Model, doc.UID)] = clone(doc)
	return nil
}

func (b *Backend) Delete(_ context.Context, model, uid string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.track("Delete"); err != nil {
		return err
	}
	ref := odm.MakeRef(model, uid)
	if _, ok := b.docs[ref]; !ok {
		return odm.ErrDocumentNotFound
	}
	delete(b.docs, ref)
	return nil
}

func (b *Backend) Count(_ context.Context, c odm.Criteria) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.track("Count"); err != nil {
		return 0, err
	}
	return len(b.match(c)), nil
}

func (b *Backend) Fetch(_ context.Context, c odm.Criteria) ([]*odm.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.track("Fetch"); err != nil {
		return nil, err
	}
	docs := b.match(c)
	odm.SortDocuments(docs, c.Sort)
	docs = odm.Window(docs, c.Skip, c.Limit)
	out := make([]*odm.Document, len(docs))
	for i, d := range docs {
		out[i] = clone(d)
	}
	return out, nil
}

func (b *Backend) Init(context.Context, []*odm.Model) error { return nil }

func (b *Backend) Ping(context.Context) error { return b.Fail }

func (b *Backend) match(c odm.Criteria) []*odm.Document {
	var out []*odm.Document
	for _, d := range b.docs {
		if c.Matches(d) {
			out = append(out, d)
		}
	}
	return out
}

func clone(doc *odm.Document) *odm.Document {
	cp := *doc
	cp.Data = maps.Clone(doc.Data)
	return &cp
}
