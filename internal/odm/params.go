package odm

import (
	"iter"
	"slices"
)

// Param is one named request parameter.
type Param struct {
	Key   string
	Value any
}

// Params is an immutable, insertion-ordered parameter map.
// Methods that change contents return a new Params.
type Params struct {
	items []Param
}

// NewParams builds Params from pairs. A repeated key keeps its first
// position and its last value.
func NewParams(pairs ...Param) Params {
	p := Params{items: make([]Param, 0, len(pairs))}
	for _, kv := range pairs {
		if i := p.index(kv.Key); i >= 0 {
			p.items[i].Value = kv.Value
			continue
		}
		p.items = append(p.items, kv)
	}
	return p
}

func (p Params) index(key string) int {
	return slices.IndexFunc(p.items, func(kv Param) bool { return kv.Key == key })
}

// Len returns the number of parameters.
func (p Params) Len() int { return len(p.items) }

// Get returns a parameter value.
func (p Params) Get(key string) (any, bool) {
	if i := p.index(key); i >= 0 {
		return p.items[i].Value, true
	}
	return nil, false
}

// String returns a parameter as a string, or "" when it is missing or not a string.
func (p Params) String(key string) string {
	v, _ := p.Get(key)
	s, _ := v.(string)
	return s
}

// Has reports whether key is present.
func (p Params) Has(key string) bool { return p.index(key) >= 0 }

// Keys returns the keys in insertion order.
func (p Params) Keys() []string {
	keys := make([]string, len(p.items))
	for i, kv := range p.items {
		keys[i] = kv.Key
	}
	return keys
}

// All iterates over parameters in insertion order.
func (p Params) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, kv := range p.items {
			if !yield(kv.Key, kv.Value) {
				return
			}
		}
	}
}

// With returns a copy with key set to v. An existing key keeps its position.
func (p Params) With(key string, v any) Params {
	items := slices.Clone(p.items)
	if i := p.index(key); i >= 0 {
		items[i].Value = v
	} else {
		items = append(items, Param{Key: key, Value: v})
	}
	return Params{items: items}
}

// Without returns a copy with the given keys removed.
func (p Params) Without(keys ...string) Params {
	items := make([]Param, 0, len(p.items))
	for _, kv := range p.items {
		if !slices.Contains(keys, kv.Key) {
			items = append(items, kv)
		}
	}
	return Params{items: items}
}

// Merge returns p overlaid with other; keys new to p are appended in other's order.
func (p Params) Merge(other Params) Params {
	out := Params{items: slices.Clone(p.items)}
	for _, kv := range other.items {
		out = out.With(kv.Key, kv.Value)
	}
	return out
}
