// FILE: lixenwraith/layerconf/env.go
package layerconf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

// MaxValueSize bounds the length of a single environment value
const MaxValueSize = 1 << 20

// Env is an immutable snapshot of environment variables.
// The zero value is an empty environment.
type Env struct {
	vars map[string]string
}

// NewEnv creates a snapshot from a map; the map is copied
func NewEnv(vars map[string]string) Env {
	copied := make(map[string]string, len(vars))
	for k, v := range vars {
		copied[k] = v
	}
	return Env{vars: copied}
}

// EnvFromOS snapshots the process environment once
func EnvFromOS() Env {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		if key, value, ok := strings.Cut(kv, "="); ok && key != "" {
			vars[key] = value
		}
	}
	return Env{vars: vars}
}

// Lookup returns the value of key and whether it is set
func (e Env) Lookup(key string) (string, bool) {
	v, ok := e.vars[key]
	return v, ok
}

// Get returns the value of key, or "" if unset
func (e Env) Get(key string) string {
	return e.vars[key]
}

// With returns a new snapshot where vars override existing entries
func (e Env) With(vars map[string]string) Env {
	merged := make(map[string]string, len(e.vars)+len(vars))
	for k, v := range e.vars {
		merged[k] = v
	}
	for k, v := range vars {
		merged[k] = v
	}
	return Env{vars: merged}
}

// Keys returns the variable names in lexical order
func (e Env) Keys() []string {
	keys := make([]string, 0, len(e.vars))
	for k := range e.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ReadEnvFile parses a dotenv file into variables suitable for Env.With
func ReadEnvFile(fs afero.Fs, path string) (map[string]string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open env file '%s': %w", path, err)
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse env file '%s': %w", path, err)
	}
	return vars, nil
}

// EnvTransformFunc converts a configuration path to an environment variable name
type EnvTransformFunc func(path string) string

// defaultEnvTransform maps "server.read-timeout" to "<PREFIX>_SERVER_READ_TIMEOUT"
func defaultEnvTransform(prefix string) EnvTransformFunc {
	prefix = strings.ToUpper(prefix)
	if prefix != "" && !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}
	return func(path string) string {
		env := strings.ReplaceAll(path, ".", "_")
		env = strings.ReplaceAll(env, "-", "_")
		return prefix + strings.ToUpper(env)
	}
}

// EnvOptions controls how field paths map to environment variables
type EnvOptions struct {
	// Prefix is used by the default naming: "APP" gives APP_SERVER_PORT
	Prefix string
	// Transform replaces the default naming when set
	Transform EnvTransformFunc
	// Whitelist restricts lookups to these field paths when non-empty
	Whitelist map[string]bool
	// Scope is joined in front of each path before naming, e.g. "cmds.serve"
	Scope string
}

// EnvLayer builds the Environment layer value for schema from the snapshot.
// Only variables matching a described field are consulted. Every malformed
// variable is reported; the layer is returned only when all of them parse.
func EnvLayer(env Env, prefix string, schema *Schema) (map[string]any, error) {
	return EnvLayerWith(env, schema, EnvOptions{Prefix: prefix})
}

// EnvLayerWith is EnvLayer with custom naming, filtering and scope
func EnvLayerWith(env Env, schema *Schema, opts EnvOptions) (map[string]any, error) {
	transform := opts.Transform
	if transform == nil {
		transform = defaultEnvTransform(opts.Prefix)
	}

	tree := make(map[string]any)
	var errs []error

	lookup := func(f *Field, path string) {
		name := transform(joinPath(opts.Scope, path))
		raw, ok := env.Lookup(name)
		if !ok {
			return
		}
		value, set, err := parseEnvValue(raw, f.Kind)
		if err != nil {
			errs = append(errs, &GatheringError{Source: "env:" + name, Err: err})
		} else if set {
			setNestedValue(tree, path, value)
		}
	}

	var walk func(fields []Field, prefix string)
	walk = func(fields []Field, prefix string) {
		for i := range fields {
			f := &fields[i]
			path := joinPath(prefix, f.Name)
			if len(opts.Whitelist) == 0 || opts.Whitelist[path] {
				lookup(f, path)
			}

			// Leaf variables refine a struct given as a JSON object
			if f.Kind == KindStruct {
				walk(f.Fields, path)
			}
		}
	}
	walk(schema.Fields, "")

	if err := Aggregate(errs...); err != nil {
		return nil, err
	}
	return tree, nil
}

// parseEnvValue converts raw text according to the field kind.
// The boolean result is false when the value should be treated as unset.
func parseEnvValue(raw string, kind Kind) (any, bool, error) {
	if len(raw) > MaxValueSize {
		return nil, false, fmt.Errorf("%w: %d bytes (max %d)", ErrValueSize, len(raw), MaxValueSize)
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" && kind != KindString && kind != KindAny && kind != KindList {
		return nil, false, nil
	}

	switch kind {
	case KindString:
		return raw, true, nil
	case KindInt:
		i, err := strconv.ParseInt(trimmed, 0, 64)
		if err != nil {
			return nil, false, fmt.Errorf("invalid integer %q: %w", trimmed, err)
		}
		return i, true, nil
	case KindFloat:
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, false, fmt.Errorf("invalid float %q: %w", trimmed, err)
		}
		return f, true, nil
	case KindBool:
		b, err := strconv.ParseBool(trimmed)
		if err != nil {
			return nil, false, fmt.Errorf("invalid boolean %q: %w", trimmed, err)
		}
		return b, true, nil
	case KindDuration:
		if _, err := time.ParseDuration(trimmed); err != nil {
			return nil, false, fmt.Errorf("invalid duration %q: %w", trimmed, err)
		}
		return trimmed, true, nil
	case KindList:
		if strings.HasPrefix(trimmed, "[") {
			v, err := decodeJSONValue(trimmed)
			if err != nil {
				return nil, false, fmt.Errorf("invalid JSON array: %w", err)
			}
			list, ok := v.([]any)
			if !ok {
				return nil, false, fmt.Errorf("expected JSON array, got %s", shapeOf(v))
			}
			return list, true, nil
		}
		return splitCSV(trimmed), true, nil
	case KindMap, KindStruct:
		v, err := decodeJSONValue(trimmed)
		if err != nil {
			return nil, false, fmt.Errorf("invalid JSON object: %w", err)
		}
		m, ok := v.(map[string]any)
		if !ok {
			return nil, false, fmt.Errorf("expected JSON object, got %s", shapeOf(v))
		}
		return m, true, nil
	default:
		return parseLooseValue(raw), true, nil
	}
}

// parseLooseValue interprets text for fields without a declared shape.
// Comma-separated text becomes a list unless it looks like JSON or is quoted.
func parseLooseValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}

	switch trimmed[0] {
	case '[', '{':
		if v, err := decodeJSONValue(trimmed); err == nil {
			return v
		}
		return raw
	case '"', '\'':
		if len(trimmed) >= 2 && trimmed[len(trimmed)-1] == trimmed[0] {
			return trimmed[1 : len(trimmed)-1]
		}
		return raw
	}

	if strings.Contains(trimmed, ",") {
		return splitCSV(trimmed)
	}

	switch trimmed {
	case "true":
		return true
	case "false":
		return false
	}
	return raw
}

// splitCSV splits comma-separated text into trimmed items; empty text yields an empty list
func splitCSV(s string) []any {
	if s == "" {
		return []any{}
	}
	parts := strings.Split(s, ",")
	list := make([]any, 0, len(parts))
	for _, p := range parts {
		list = append(list, strings.TrimSpace(p))
	}
	return list
}

// decodeJSONValue decodes a single JSON literal into tree form
func decodeJSONValue(s string) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader([]byte(s)))
	decoder.UseNumber() // Preserve integer precision
	var v any
	if err := decoder.Decode(&v); err != nil {
		return nil, err
	}
	if decoder.More() {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return normalizeTree(v)
}
