// FILE: lixenwraith/layerconf/helper.go
package layerconf

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// setNestedValue sets a value in a nested map using a dot-notation path.
// It creates intermediate maps if they don't exist.
// If a segment exists but is not a map, it will be overwritten by a new map.
func setNestedValue(nested map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	current := nested

	// Iterate through segments up to the second-to-last one
	for i := 0; i < len(segments)-1; i++ {
		segment := segments[i]

		next, exists := current[segment]
		if nextMap, isMap := next.(map[string]any); exists && isMap {
			current = nextMap
			continue
		}

		newMap := make(map[string]any)
		current[segment] = newMap
		current = newMap
	}

	current[segments[len(segments)-1]] = value
}

// navigateToPath traverses nested map to reach the specified path.
// Returns nil, false if any segment is missing or not a map.
func navigateToPath(nested map[string]any, path string) (any, bool) {
	path = strings.Trim(path, ".")
	if path == "" {
		return nested, true
	}

	current := any(nested)
	for _, segment := range strings.Split(path, ".") {
		currentMap, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		value, exists := currentMap[segment]
		if !exists {
			return nil, false
		}
		current = value
	}

	return current, true
}

// joinPath appends key to a dot-notation prefix
func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// isValidKeySegment checks if a single path segment is a valid TOML bare key.
func isValidKeySegment(s string) bool {
	if len(s) == 0 {
		return false
	}

	// TOML bare keys are sequences of ASCII letters, ASCII digits, underscores, and dashes (A-Za-z0-9_-).
	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !(isLetter || isDigit || r == '_' || r == '-') {
			return false
		}
	}
	return true
}

// sortedKeys returns map keys in lexical order so every walk is deterministic
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// cloneTree deep-copies maps and slices of a tree; scalars are shared
func cloneTree(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneTree(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneTree(item)
		}
		return out
	default:
		return v
	}
}

// cloneMap is cloneTree specialised to a map root; nil yields an empty map
func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return make(map[string]any)
	}
	return cloneTree(m).(map[string]any)
}

// normalizeTree converts decoder output into the canonical tree shape:
// map[string]any, []any, string, int64, float64, bool, nil, or an opaque scalar.
func normalizeTree(v any) (any, error) {
	switch val := v.(type) {
	case nil, string, bool, int64, float64:
		return val, nil
	case int:
		return int64(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", val.String(), err)
		}
		return f, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			n, err := normalizeTree(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			key, ok := k.(string)
			if !ok {
				key = fmt.Sprint(k)
			}
			n, err := normalizeTree(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			out[key] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			n, err := normalizeTree(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	}

	// Reflection fallback for typed numbers, slices and maps
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > uint64(^uint64(0)>>1) {
			return nil, fmt.Errorf("unsigned integer %d overflows int64", u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			n, err := normalizeTree(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := fmt.Sprint(iter.Key().Interface())
			n, err := normalizeTree(iter.Value().Interface())
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			out[key] = n
		}
		return out, nil
	}

	// time.Time, toml local dates and similar stay opaque scalars
	return v, nil
}

// shapeOf names the structural class of a tree value for error messages
func shapeOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "map"
	case []any:
		return "list"
	default:
		return fmt.Sprintf("scalar (%T)", v)
	}
}
