// Package normalize reconciles the inconsistent response shapes of the school backend
// into the canonical model. Inputs are generic decoded JSON (maps, slices, scalars).
package normalize

import (
	"strconv"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// idExpr resolves an entity id. Precedence is uid, then _id, then id; empty strings are skipped.
const idExpr = "uid || _id || id"

// search evaluates a JMESPath expression, treating evaluation errors as absence.
func search(expr string, data any) any {
	if data == nil {
		return nil
	}
	v, err := jmespath.Search(expr, data)
	if err != nil {
		return nil
	}
	return v
}

// unwrap returns the value under the first key that is present and non-null.
// It returns data itself when none of the keys match.
func unwrap(data any, keys ...string) any {
	if _, ok := data.(map[string]any); !ok {
		return data
	}
	for _, k := range keys {
		if v := search(quote(k), data); v != nil {
			return v
		}
	}
	return data
}

// unwrapList resolves a list that may be bare or wrapped under one of keys.
// The first present key wins even if its value is not an array, in which case the list is empty.
func unwrapList(data any, keys ...string) []any {
	if list, ok := data.([]any); ok {
		return list
	}
	if _, ok := data.(map[string]any); !ok {
		return nil
	}
	for _, k := range keys {
		v := search(quote(k), data)
		if v == nil {
			continue
		}
		list, _ := v.([]any)
		return list
	}
	return nil
}

// quote turns a key into a JMESPath quoted identifier.
func quote(key string) string {
	return strconv.Quote(key)
}

// str returns a scalar as a trimmed string. Numbers are formatted without a trailing ".0".
func str(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// field reads the first expression yielding a non-empty string.
func field(data any, exprs ...string) string {
	for _, e := range exprs {
		if s := str(search(e, data)); s != "" {
			return s
		}
	}
	return ""
}

// ResolveID returns the entity id of item following the uid, _id, id precedence.
// A bare string or number is itself an id.
func ResolveID(item any) string {
	switch item.(type) {
	case string, float64, int, int64:
		return str(item)
	case map[string]any:
		return str(search(idExpr, item))
	default:
		return ""
	}
}

// nameOr returns nombre or the fallback.
func nameOr(item any, fallback string) string {
	if n := field(item, "nombre"); n != "" {
		return n
	}
	return fallback
}

// optionalBool reads a boolean field, returning nil when absent or not a bool.
func optionalBool(item any, key string) *bool {
	b, ok := search(quote(key), item).(bool)
	if !ok {
		return nil
	}
	return &b
}
