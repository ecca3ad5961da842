package repository

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/forgo/odmapi/internal/odm"
	"github.com/surrealdb/surrealdb.go/pkg/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// pushdownSort reports whether every sort key is a system field, which all
// backends can order by natively.
func pushdownSort(orders []odm.Order) bool {
	for _, o := range orders {
		if o.Field != odm.SortCreated && o.Field != odm.SortModified {
			return false
		}
	}
	return true
}

// inProcess reports whether the criteria need filtering or sorting on data
// fields, which the column-oriented backends evaluate after loading.
func inProcess(c odm.Criteria) bool {
	return len(c.Conditions) > 0 || !pushdownSort(c.Sort)
}

// finish filters, sorts and windows documents loaded without pushdown.
func finish(docs []*odm.Document, c odm.Criteria) []*odm.Document {
	kept := docs[:0]
	for _, d := range docs {
		if c.Matches(d) {
			kept = append(kept, d)
		}
	}
	odm.SortDocuments(kept, c.Sort)
	return odm.Window(kept, c.Skip, c.Limit)
}

// emptySelection reports a UID restriction that can match nothing.
func emptySelection(c odm.Criteria) bool {
	return c.UIDs != nil && len(c.UIDs) == 0
}

func encodeData(data map[string]any) (string, error) {
	if data == nil {
		data = map[string]any{}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode document data: %w", err)
	}
	return string(b), nil
}

func decodeData(s string) (map[string]any, error) {
	var data map[string]any
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("decode document data: %w", err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

// normalize converts driver-specific containers into plain maps and slices.
func normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case primitive.M:
		return normalize(map[string]any(x))
	case primitive.D:
		return normalize(x.Map())
	case primitive.A:
		return normalize([]any(x))
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	case primitive.DateTime:
		return x.Time().UTC()
	case uint64:
		return int64(x)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	}
	return v
}

func normalizeData(v any) map[string]any {
	if m, ok := normalize(v).(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// parseTime parses time from various formats
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed.UTC()
		}
	case models.CustomDateTime:
		return t.Time.UTC()
	case *models.CustomDateTime:
		if t != nil {
			return t.Time.UTC()
		}
	case primitive.DateTime:
		return t.Time().UTC()
	}
	return time.Time{}
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	}
	return 0
}

func micros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

func fromMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}
