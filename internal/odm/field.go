package odm

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// Kind is the value type of a field.
type Kind string

const (
	KindString   Kind = "string"
	KindInt      Kind = "int"
	KindFloat    Kind = "float"
	KindBool     Kind = "bool"
	KindDatetime Kind = "datetime"
	KindList     Kind = "list"
	KindDict     Kind = "dict"
	KindRef      Kind = "ref"
	KindPassword Kind = "password"
)

var kinds = map[Kind]bool{
	KindString: true, KindInt: true, KindFloat: true, KindBool: true, KindDatetime: true,
	KindList: true, KindDict: true, KindRef: true, KindPassword: true,
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return kinds[k]
}

// Composite reports whether raw request values for this kind arrive as JSON text.
func (k Kind) Composite() bool {
	return k == KindList || k == KindDict
}

// Field is the definition of one entity field.
type Field struct {
	Name      string
	Kind      Kind
	Required  bool
	Default   any
	MaxLength int
	Hidden    bool

	// RefModel restricts ref fields to entities of one model.
	RefModel string
}

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Coerce converts a caller-supplied value into the field's typed value.
// Password values are hashed here; use Decode for values read back from storage.
func (f *Field) Coerce(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if f.Kind == KindPassword {
		s, ok := v.(string)
		if !ok || s == "" {
			return nil, fmt.Errorf("%w: password must be a non-empty string", ErrTypeMismatch)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		return string(hash), nil
	}
	return f.convert(v)
}

// Decode converts a stored value back into the field's typed value.
// Values that no longer fit the kind are returned unchanged.
func (f *Field) Decode(v any) any {
	if v == nil {
		return nil
	}
	if f.Kind == KindPassword {
		if s, ok := v.(string); ok {
			return s
		}
		return v
	}
	out, err := f.convert(v)
	if err != nil {
		return v
	}
	return out
}

// TimeLayout is the storage form of datetimes. It is fixed width so stored
// values sort lexically in time order.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// Encode converts a typed value into its storage form.
func (f *Field) Encode(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(TimeLayout)
	}
	return v
}

// CheckPassword reports whether plain matches a stored password hash.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func (f *Field) convert(v any) (any, error) {
	switch f.Kind {
	case KindString:
		s, err := toString(v)
		if err != nil {
			return nil, err
		}
		if f.MaxLength > 0 && utf8.RuneCountInString(s) > f.MaxLength {
			return nil, fmt.Errorf("%w: longer than %d characters", ErrTypeMismatch, f.MaxLength)
		}
		return s, nil
	case KindInt:
		return toInt(v)
	case KindFloat:
		return toFloat(v)
	case KindBool:
		return toBool(v)
	case KindDatetime:
		return toTime(v)
	case KindList:
		return toList(v)
	case KindDict:
		return toDict(v)
	case KindRef:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: ref must be a string, got %T", ErrTypeMismatch, v)
		}
		model, _, err := ParseRef(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		if f.RefModel != "" && model != f.RefModel {
			return nil, fmt.Errorf("%w: ref must point to a %s", ErrTypeMismatch, f.RefModel)
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: unsupported kind %q", ErrTypeMismatch, f.Kind)
}

func toString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int, int32, int64, uint64, float64:
		return fmt.Sprint(x), nil
	}
	return "", fmt.Errorf("%w: expected a string, got %T", ErrTypeMismatch, v)
}

func toInt(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int", ErrTypeMismatch, x)
		}
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrTypeMismatch, x)
		}
		return int64(x), nil
	case json.Number:
		return toInt(string(x))
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrTypeMismatch, x)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: expected an integer, got %T", ErrTypeMismatch, v)
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case json.Number:
		return toFloat(string(x))
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrTypeMismatch, x)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: expected a number, got %T", ErrTypeMismatch, v)
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "1", "true", "yes", "on":
			return true, nil
		case "0", "false", "no", "off", "":
			return false, nil
		}
		return false, fmt.Errorf("%w: %q is not a boolean", ErrTypeMismatch, x)
	case int, int32, int64, uint64, float64, json.Number:
		n, err := toFloat(x)
		if err != nil {
			return false, err
		}
		return n != 0, nil
	}
	return false, fmt.Errorf("%w: expected a boolean, got %T", ErrTypeMismatch, v)
}

func toTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), nil
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range datetimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q is not a datetime", ErrTypeMismatch, x)
	case int, int32, int64, uint64, float64, json.Number:
		n, err := toInt(x)
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(n, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: expected a datetime, got %T", ErrTypeMismatch, v)
}

func toList(v any) ([]any, error) {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalize(item)
		}
		return out, nil
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: expected a list, got %T", ErrTypeMismatch, v)
}

func toDict(v any) (map[string]any, error) {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = normalize(item)
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: expected a dict, got %T", ErrTypeMismatch, v)
}

// normalize rewrites driver-specific containers into []any and map[string]any.
func normalize(v any) any {
	switch x := v.(type) {
	case map[any]any, map[string]any:
		m, _ := toDict(x)
		return m
	case []any:
		l, _ := toList(x)
		return l
	}
	return v
}
