package odm

import (
	"cmp"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"time"
)

// Matches evaluates the criteria filters against a document in process.
// Backends that cannot push a filter down use it after loading.
func (c Criteria) Matches(doc *Document) bool {
	if doc.Model != c.Model {
		return false
	}
	if c.UIDs != nil && !slices.Contains(c.UIDs, doc.UID) {
		return false
	}
	if slices.Contains(c.ExcludeUIDs, doc.UID) {
		return false
	}
	for _, cond := range c.Conditions {
		if !equalValues(doc.Data[cond.Field], cond.Value) {
			return false
		}
	}
	return true
}

// SortDocuments orders docs in place by the given keys, with uid as the final tiebreak.
func SortDocuments(docs []*Document, orders []Order) {
	slices.SortStableFunc(docs, func(a, b *Document) int {
		for _, o := range orders {
			r := compareValues(sortValue(a, o.Field), sortValue(b, o.Field))
			if o.Desc {
				r = -r
			}
			if r != 0 {
				return r
			}
		}
		return cmp.Compare(a.UID, b.UID)
	})
}

// Window applies skip and limit to an already sorted slice.
func Window[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return items[:0]
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func sortValue(doc *Document, field string) any {
	switch field {
	case SortCreated:
		return doc.Created
	case SortModified:
		return doc.Modified
	}
	return doc.Data[field]
}

func equalValues(a, b any) bool {
	if fa, ok := number(a); ok {
		fb, ok := number(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

// compareValues orders nil first, then numbers, strings, booleans and times.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch ra {
	case 1:
		fa, _ := number(a)
		fb, _ := number(b)
		return cmp.Compare(fa, fb)
	case 2:
		return cmp.Compare(a.(string), b.(string))
	case 3:
		switch {
		case a == b:
			return 0
		case a == false:
			return -1
		}
		return 1
	case 4:
		return a.(time.Time).Compare(b.(time.Time))
	case 5:
		return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
	return 0
}

func rank(v any) int {
	if v == nil {
		return 0
	}
	if _, ok := number(v); ok {
		return 1
	}
	switch v.(type) {
	case string:
		return 2
	case bool:
		return 3
	case time.Time:
		return 4
	}
	return 5
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}
