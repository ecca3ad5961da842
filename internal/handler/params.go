package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/forgo/odmapi/internal/odm"
)

// MaxBodyBytes caps request bodies read by the entity handlers.
const MaxBodyBytes = 1 << 20

// errBadRequestBody marks a body that could not be read as parameters.
var errBadRequestBody = errors.New("malformed request body")

// requestParams collects query parameters, then body parameters for methods
// that carry one, preserving the order in which they were sent.
func requestParams(w http.ResponseWriter, r *http.Request) (odm.Params, error) {
	params, err := parseQuery(r.URL.RawQuery)
	if err != nil {
		return params, err
	}
	if r.Method != http.MethodPost && r.Method != http.MethodPatch && r.Method != http.MethodPut {
		return params, nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return params, fmt.Errorf("%w: %v", errBadRequestBody, err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return params, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var bodyParams odm.Params
	switch mediaType {
	case "application/x-www-form-urlencoded":
		bodyParams, err = parseQuery(string(body))
	case "application/json", "":
		bodyParams, err = parseJSONObject(body)
	default:
		return params, fmt.Errorf("%w: unsupported content type %q", errBadRequestBody, mediaType)
	}
	if err != nil {
		return params, err
	}
	return params.Merge(bodyParams), nil
}

// parseQuery decodes a URL-encoded string. Repeated keys, and keys written
// with a trailing "[]", collect their values into a list.
func parseQuery(raw string) (odm.Params, error) {
	var (
		pairs []odm.Param
		index = map[string]int{}
	)
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return odm.Params{}, fmt.Errorf("%w: %v", errBadRequestBody, err)
		}
		val, err := url.QueryUnescape(v)
		if err != nil {
			return odm.Params{}, fmt.Errorf("%w: %v", errBadRequestBody, err)
		}

		key, forceList := strings.CutSuffix(key, "[]")
		i, seen := index[key]
		switch {
		case !seen && forceList:
			index[key] = len(pairs)
			pairs = append(pairs, odm.Param{Key: key, Value: []any{val}})
		case !seen:
			index[key] = len(pairs)
			pairs = append(pairs, odm.Param{Key: key, Value: val})
		default:
			switch prev := pairs[i].Value.(type) {
			case []any:
				pairs[i].Value = append(prev, val)
			default:
				pairs[i].Value = []any{prev, val}
			}
		}
	}
	return odm.NewParams(pairs...), nil
}

// parseJSONObject decodes a JSON object, keeping its top-level key order.
func parseJSONObject(body []byte) (odm.Params, error) {
	dec := json.NewDecoder(strings.NewReader(string(body)))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return odm.Params{}, fmt.Errorf("%w: %v", errBadRequestBody, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return odm.Params{}, fmt.Errorf("%w: expected a JSON object", errBadRequestBody)
	}

	var pairs []odm.Param
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return odm.Params{}, fmt.Errorf("%w: %v", errBadRequestBody, err)
		}
		key, ok := tok.(string)
		if !ok {
			return odm.Params{}, fmt.Errorf("%w: expected an object key", errBadRequestBody)
		}
		var val any
		if err := dec.Decode(&val); err != nil {
			return odm.Params{}, fmt.Errorf("%w: %v", errBadRequestBody, err)
		}
		pairs = append(pairs, odm.Param{Key: key, Value: val})
	}
	if _, err := dec.Token(); err != nil {
		return odm.Params{}, fmt.Errorf("%w: %v", errBadRequestBody, err)
	}
	if dec.More() {
		return odm.Params{}, fmt.Errorf("%w: trailing data after JSON object", errBadRequestBody)
	}
	return odm.NewParams(pairs...), nil
}

// encodeQuery renders params as a query string in their own order.
func encodeQuery(p odm.Params) string {
	var b strings.Builder
	add := func(k string, v any) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(fmt.Sprint(v)))
	}
	for k, v := range p.All() {
		if list, ok := v.([]any); ok {
			for _, item := range list {
				add(k, item)
			}
			continue
		}
		add(k, v)
	}
	return b.String()
}
