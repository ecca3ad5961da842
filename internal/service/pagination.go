package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/forgo/odmapi/internal/odm"
)

// Pagination defaults.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Parameters consumed by the collection endpoint itself.
const (
	ParamSkip    = "skip"
	ParamLimit   = "limit"
	ParamRefs    = "refs"
	ParamExclude = "exclude"
)

// ListOptions are the parsed collection controls.
type ListOptions struct {
	Skip    int
	Limit   int
	Refs    []string
	Exclude []string
}

// PageLink is one RFC 5988 relation and the skip it points at.
type PageLink struct {
	Rel  string
	Skip int
}

// Page is one slice of a collection plus the data for its Link header.
type Page struct {
	Items []map[string]any
	Total int
	Skip  int
	Limit int
	Links []PageLink
}

// ParseListOptions reads skip, limit, refs and exclude from p. A limit above
// maxLimit is clamped; a non-positive limit or negative skip is rejected.
func ParseListOptions(p odm.Params, defaultLimit, maxLimit int) (ListOptions, error) {
	opts := ListOptions{Limit: defaultLimit}

	if v, ok := p.Get(ParamSkip); ok {
		n, err := intParam(v)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("%w: skip must be a non-negative integer", ErrInvalidParameter)
		}
		opts.Skip = n
	}

	if v, ok := p.Get(ParamLimit); ok {
		n, err := intParam(v)
		if err != nil || n <= 0 {
			return opts, fmt.Errorf("%w: limit must be a positive integer", ErrInvalidParameter)
		}
		opts.Limit = n
	}
	if maxLimit > 0 && opts.Limit > maxLimit {
		opts.Limit = maxLimit
	}

	var err error
	if opts.Refs, err = refsParam(p, ParamRefs); err != nil {
		return opts, err
	}
	if opts.Exclude, err = refsParam(p, ParamExclude); err != nil {
		return opts, err
	}
	return opts, nil
}

// PageLinks computes first, last, prev and next for a collection window.
// prev is present only when a full page fits before skip; next only when
// items remain after this page.
func PageLinks(total, skip, limit int) []PageLink {
	links := []PageLink{
		{Rel: "first", Skip: 0},
		{Rel: "last", Skip: max(total-limit, 0)},
	}
	if skip >= limit {
		links = append(links, PageLink{Rel: "prev", Skip: skip - limit})
	}
	// skip+limit may overflow for huge skips; total-limit cannot.
	if skip < total-limit {
		links = append(links, PageLink{Rel: "next", Skip: skip + limit})
	}
	return links
}

func intParam(v any) (int, error) {
	switch x := v.(type) {
	case string:
		return strconv.Atoi(strings.TrimSpace(x))
	case json.Number:
		n, err := x.Int64()
		return int(n), err
	case float64:
		if x != float64(int(x)) {
			return 0, fmt.Errorf("%v is not an integer", x)
		}
		return int(x), nil
	case int:
		return x, nil
	}
	return 0, fmt.Errorf("unsupported type %T", v)
}

// refsParam accepts a JSON array of refs or a repeated query parameter.
func refsParam(p odm.Params, key string) ([]string, error) {
	v, ok := p.Get(key)
	if !ok {
		return nil, nil
	}

	var items []any
	switch x := v.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return nil, nil
		}
		if err := json.Unmarshal([]byte(x), &items); err != nil {
			return nil, fmt.Errorf("%w: %s must be a JSON array of refs", ErrInvalidParameter, key)
		}
	case []any:
		items = x
	case []string:
		for _, s := range x {
			items = append(items, s)
		}
	default:
		return nil, fmt.Errorf("%w: %s must be a JSON array of refs", ErrInvalidParameter, key)
	}

	refs := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s must contain only strings", ErrInvalidParameter, key)
		}
		refs = append(refs, s)
	}
	return refs, nil
}
