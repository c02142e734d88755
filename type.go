// FILE: lixenwraith/layerconf/type.go
package layerconf

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// String retrieves a string configuration value using the path.
// Attempts conversion from common types if the stored value isn't already a string.
func (r *Result) String(path string) (string, error) {
	val, found := r.Get(path)
	if !found {
		return "", fmt.Errorf("path not set: %s", path)
	}
	if val == nil {
		return "", nil
	}

	switch v := val.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("cannot convert type %T to string for path %s", val, path)
	}
}

// Int64 retrieves an int64 configuration value using the path.
// Attempts conversion from numeric types, parsable strings, and booleans.
func (r *Result) Int64(path string) (int64, error) {
	val, found := r.Get(path)
	if !found {
		return 0, fmt.Errorf("path not set: %s", path)
	}
	if val == nil {
		return 0, fmt.Errorf("value for path %s is nil, cannot convert to int64", path)
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Float32, reflect.Float64:
		// Truncate float to int
		return int64(v.Float()), nil
	case reflect.String:
		s := v.String()
		i, err := strconv.ParseInt(s, 0, 64) // Base 0 for auto-detection (e.g., "0xFF")
		if err == nil {
			return i, nil
		}
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return int64(f), nil
		}
		return 0, fmt.Errorf("cannot convert string %q to int64 for path %s: %w", s, path, err)
	case reflect.Bool:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	}

	return 0, fmt.Errorf("cannot convert type %T to int64 for path %s", val, path)
}

// Bool retrieves a boolean configuration value using the path.
// Attempts conversion from numeric types (0=false, non-zero=true) and parsable strings.
func (r *Result) Bool(path string) (bool, error) {
	val, found := r.Get(path)
	if !found {
		return false, fmt.Errorf("path not set: %s", path)
	}

	switch v := val.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("cannot convert string %q to bool for path %s: %w", v, path, err)
		}
		return b, nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	}

	return false, fmt.Errorf("cannot convert type %T to bool for path %s", val, path)
}

// Float64 retrieves a float64 configuration value using the path.
func (r *Result) Float64(path string) (float64, error) {
	val, found := r.Get(path)
	if !found {
		return 0, fmt.Errorf("path not set: %s", path)
	}

	switch v := val.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert string %q to float64 for path %s: %w", v, path, err)
		}
		return f, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	}

	return 0, fmt.Errorf("cannot convert type %T to float64 for path %s", val, path)
}

// Duration retrieves a time.Duration from text ("30s") or integer nanoseconds
func (r *Result) Duration(path string) (time.Duration, error) {
	val, found := r.Get(path)
	if !found {
		return 0, fmt.Errorf("path not set: %s", path)
	}

	switch v := val.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("cannot convert string %q to duration for path %s: %w", v, path, err)
		}
		return d, nil
	case int64:
		return time.Duration(v), nil
	}

	return 0, fmt.Errorf("cannot convert type %T to duration for path %s", val, path)
}

// StringSlice retrieves a list as strings; a scalar yields a single-element slice
func (r *Result) StringSlice(path string) ([]string, error) {
	val, found := r.Get(path)
	if !found {
		return nil, fmt.Errorf("path not set: %s", path)
	}

	switch v := val.(type) {
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = fmt.Sprint(item)
		}
		return out, nil
	case map[string]any:
		return nil, fmt.Errorf("cannot convert map to string slice for path %s", path)
	case nil:
		return nil, nil
	default:
		return []string{fmt.Sprint(v)}, nil
	}
}
