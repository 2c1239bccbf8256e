package registry

import (
	"strings"
)

// Argument keys the router itself reads.
const (
	KeyOperation       = "operation"
	KeyContinue        = "_continue_selection"
	KeyOperationID     = "_operation_id"
	KeyPublicOperation = "operation_id"
)

// Args is the opaque JSON argument object of a request.
type Args map[string]any

// String returns the string stored at key.
func (a Args) String(key string) (string, bool) {
	s, ok := a[key].(string)
	return s, ok
}

// StringOr returns the string at key, or def when missing or empty.
func (a Args) StringOr(key, def string) string {
	if s, ok := a.String(key); ok && s != "" {
		return s
	}
	return def
}

// Float returns the number at key, or def. JSON numbers decode as float64;
// ints are accepted for callers building Args in Go.
func (a Args) Float(key string, def float64) float64 {
	switch v := a[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}

// Int returns the number at key truncated to int, or def.
func (a Args) Int(key string, def int) int {
	if _, ok := a[key]; !ok {
		return def
	}
	return int(a.Float(key, float64(def)))
}

// Bool reports whether key holds true. Only JSON true counts.
func (a Args) Bool(key string) bool {
	b, _ := a[key].(bool)
	return b
}

// Strings returns the string list at key. Non-string items are skipped.
func (a Args) Strings(key string) []string {
	switch v := a[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Ints returns the integer list at key. Non-numeric items are skipped.
func (a Args) Ints(key string) []int {
	switch v := a[key].(type) {
	case []int:
		return append([]int(nil), v...)
	case []any:
		out := make([]int, 0, len(v))
		for _, item := range v {
			switch n := item.(type) {
			case float64:
				out = append(out, int(n))
			case int:
				out = append(out, n)
			}
		}
		return out
	default:
		return nil
	}
}

// Clone returns a shallow copy. A nil Args clones to an empty one.
func (a Args) Clone() Args {
	out := make(Args, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Merge returns a copy of a overlaid with over. Keys in over win.
func (a Args) Merge(over Args) Args {
	out := a.Clone()
	for k, v := range over {
		out[k] = v
	}
	return out
}

// Without returns a copy of a without the given keys.
func (a Args) Without(keys ...string) Args {
	out := a.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// WithoutControl strips router control keys (those starting with "_").
func (a Args) WithoutControl() Args {
	out := make(Args, len(a))
	for k, v := range a {
		if strings.HasPrefix(k, "_") {
			continue
		}
		out[k] = v
	}
	return out
}

// IsContinuation reports whether a resumes a suspended selection.
func (a Args) IsContinuation() bool {
	return a.Bool(KeyContinue)
}
