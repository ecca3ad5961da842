package odm

import (
	"context"
	"fmt"
	"slices"
)

// Query builds a collection query for one model. Builders mutate and return
// the receiver; use Clone to branch.
type Query struct {
	store *Store
	model *Model
	c     Criteria
}

// Model returns the model being queried.
func (q *Query) Model() *Model { return q.model }

// IncludeRefs restricts results to the given refs. Refs of other models never match.
func (q *Query) IncludeRefs(refs ...string) *Query {
	uids := make([]string, 0, len(refs))
	for _, ref := range refs {
		model, uid, err := ParseRef(ref)
		if err != nil || model != q.model.Name {
			continue
		}
		uids = append(uids, uid)
	}
	if q.c.UIDs != nil {
		uids = slices.DeleteFunc(uids, func(uid string) bool { return !slices.Contains(q.c.UIDs, uid) })
	}
	q.c.UIDs = uids
	return q
}

// ExcludeRefs drops the given refs from results.
func (q *Query) ExcludeRefs(refs ...string) *Query {
	for _, ref := range refs {
		model, uid, err := ParseRef(ref)
		if err != nil || model != q.model.Name {
			continue
		}
		q.c.ExcludeUIDs = append(q.c.ExcludeUIDs, uid)
	}
	return q
}

// Eq adds an equality filter. The value is coerced to the field's kind.
func (q *Query) Eq(field string, v any) (*Query, error) {
	f, ok := q.model.Field(field)
	if !ok {
		return q, fieldErr(field, ErrUnknownField, "")
	}
	if f.Kind == KindPassword || f.Kind.Composite() {
		return q, fieldErr(field, ErrTypeMismatch, "%s fields cannot be filtered", f.Kind)
	}
	val, err := f.convert(v)
	if err != nil {
		return q, &FieldError{Field: field, Err: err}
	}
	q.c.Conditions = append(q.c.Conditions, Condition{Field: field, Value: f.Encode(val)})
	return q, nil
}

// Sort appends a sort key: a data field or SortCreated / SortModified.
func (q *Query) Sort(field string, desc bool) (*Query, error) {
	if field != SortCreated && field != SortModified {
		if _, ok := q.model.Field(field); !ok {
			return q, fieldErr(field, ErrUnknownField, "")
		}
	}
	q.c.Sort = append(q.c.Sort, Order{Field: field, Desc: desc})
	return q, nil
}

// Skip sets the number of leading results to drop.
func (q *Query) Skip(n int) *Query {
	q.c.Skip = max(n, 0)
	return q
}

// Limit caps the number of results; zero means unlimited.
func (q *Query) Limit(n int) *Query {
	q.c.Limit = max(n, 0)
	return q
}

// Criteria returns a copy of the backend criteria built so far.
func (q *Query) Criteria() Criteria {
	c := q.c
	c.UIDs = slices.Clone(q.c.UIDs)
	c.ExcludeUIDs = slices.Clone(q.c.ExcludeUIDs)
	c.Conditions = slices.Clone(q.c.Conditions)
	c.Sort = q.sortOrDefault()
	return c
}

// Clone returns an independent copy of the query.
func (q *Query) Clone() *Query {
	return &Query{store: q.store, model: q.model, c: q.Criteria()}
}

// Count returns the number of matching entities, ignoring Skip and Limit.
func (q *Query) Count(ctx context.Context) (int, error) {
	if q.c.UIDs != nil && len(q.c.UIDs) == 0 {
		return 0, nil
	}
	n, err := q.store.backend.Count(ctx, q.Criteria())
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", q.model.Name, err)
	}
	return n, nil
}

// Fetch loads the matching entities.
func (q *Query) Fetch(ctx context.Context) ([]*Entity, error) {
	if q.c.UIDs != nil && len(q.c.UIDs) == 0 {
		return []*Entity{}, nil
	}
	docs, err := q.store.backend.Fetch(ctx, q.Criteria())
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", q.model.Name, err)
	}
	out := make([]*Entity, 0, len(docs))
	for _, doc := range docs {
		out = append(out, entityFromDocument(q.model, doc))
	}
	return out, nil
}

func (q *Query) sortOrDefault() []Order {
	if len(q.c.Sort) == 0 {
		return []Order{{Field: SortCreated}}
	}
	return slices.Clone(q.c.Sort)
}
