// FILE: lixenwraith/layerconf/schema.go
package layerconf

import (
	"encoding"
	"fmt"
	"net"
	"net/url"
	"reflect"
	"strings"
	"time"
)

// Kind describes the expected shape of a configuration field
type Kind int

const (
	// KindAny accepts any tree value without shape checks
	KindAny Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	// KindDuration is a scalar holding a time.Duration, usually as text ("30s")
	KindDuration
	// KindList is an ordered sequence
	KindList
	// KindMap is a keyed map with free-form keys
	KindMap
	// KindStruct is a nested table described by Field.Fields
	KindStruct
)

var kindNames = map[Kind]string{
	KindAny:      "any",
	KindString:   "string",
	KindInt:      "int",
	KindFloat:    "float",
	KindBool:     "bool",
	KindDuration: "duration",
	KindList:     "list",
	KindMap:      "map",
	KindStruct:   "struct",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// isScalar reports whether values of this kind must be neither maps nor lists
func (k Kind) isScalar() bool {
	switch k {
	case KindString, KindInt, KindFloat, KindBool, KindDuration:
		return true
	}
	return false
}

// MergeStrategy selects how values for one field combine across layers
type MergeStrategy int

const (
	// Replace lets the last layer defining the field win (default)
	Replace MergeStrategy = iota
	// Append concatenates list values in layer order, keeping duplicates
	Append
	// SkipCli behaves like Replace but never consults the CLI layer
	SkipCli
	// Keyed merges map values key by key, later layers winning per key
	Keyed
)

var strategyNames = map[MergeStrategy]string{
	Replace: "replace",
	Append:  "append",
	SkipCli: "skip_cli",
	Keyed:   "keyed",
}

func (s MergeStrategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("MergeStrategy(%d)", int(s))
}

// ParseMergeStrategy converts a tag value such as "append" into a MergeStrategy.
// The empty string yields Replace.
func ParseMergeStrategy(s string) (MergeStrategy, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if normalized == "" {
		return Replace, nil
	}
	for strategy, name := range strategyNames {
		if name == normalized {
			return strategy, nil
		}
	}
	return Replace, fmt.Errorf("unknown merge strategy %q", s)
}

// Field describes one configuration field: its name, shape, declared default,
// merge strategy, and whether it is exposed on the command line.
type Field struct {
	Name     string
	Kind     Kind
	Default  any
	Strategy MergeStrategy
	CLI      bool
	Usage    string
	Fields   []Field // Sub-fields of a KindStruct field
}

// Schema is the field/strategy descriptor for one configuration structure.
// It is built once, by hand or with DescribeStruct, and passed to Merge.
type Schema struct {
	Fields []Field
}

// NewSchema creates a schema from the given top-level fields
func NewSchema(fields ...Field) *Schema {
	return &Schema{Fields: fields}
}

// LeafField pairs a non-struct field with its full dot-notation path
type LeafField struct {
	Path  string
	Field *Field
}

// Validate checks names and strategy/kind combinations across the descriptor
func (s *Schema) Validate() error {
	if s == nil {
		return fmt.Errorf("schema is nil")
	}
	return validateFields(s.Fields, "")
}

func validateFields(fields []Field, prefix string) error {
	seen := make(map[string]bool, len(fields))
	for i := range fields {
		f := &fields[i]
		path := joinPath(prefix, f.Name)

		if !isValidKeySegment(f.Name) {
			return fmt.Errorf("invalid field name %q at '%s'", f.Name, path)
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate field '%s'", path)
		}
		seen[f.Name] = true

		switch f.Strategy {
		case Append:
			if f.Kind != KindList && f.Kind != KindAny {
				return fmt.Errorf("field '%s': append strategy requires a list, got %s", path, f.Kind)
			}
		case Keyed:
			if f.Kind != KindMap && f.Kind != KindAny {
				return fmt.Errorf("field '%s': keyed strategy requires a map, got %s", path, f.Kind)
			}
		case Replace, SkipCli:
		default:
			return fmt.Errorf("field '%s': unknown merge strategy %v", path, f.Strategy)
		}

		if f.Kind == KindStruct {
			if len(f.Fields) == 0 {
				return fmt.Errorf("struct field '%s' has no sub-fields", path)
			}
			if err := validateFields(f.Fields, path); err != nil {
				return err
			}
		}
	}
	return nil
}

// Lookup finds the field at a dot-notation path
func (s *Schema) Lookup(path string) (*Field, bool) {
	fields := s.Fields
	segments := strings.Split(path, ".")
	for i, segment := range segments {
		var match *Field
		for j := range fields {
			if fields[j].Name == segment {
				match = &fields[j]
				break
			}
		}
		if match == nil {
			return nil, false
		}
		if i == len(segments)-1 {
			return match, true
		}
		if match.Kind != KindStruct {
			return nil, false
		}
		fields = match.Fields
	}
	return nil, false
}

// Leaves returns every non-struct field with its full path, in declaration order
func (s *Schema) Leaves() []LeafField {
	var leaves []LeafField
	var walk func(fields []Field, prefix string)
	walk = func(fields []Field, prefix string) {
		for i := range fields {
			f := &fields[i]
			path := joinPath(prefix, f.Name)
			if f.Kind == KindStruct {
				walk(f.Fields, path)
				continue
			}
			leaves = append(leaves, LeafField{Path: path, Field: f})
		}
	}
	walk(s.Fields, "")
	return leaves
}

// DefaultsTree builds the Defaults layer value from declared defaults.
// Fields without a default are omitted.
func (s *Schema) DefaultsTree() map[string]any {
	return defaultsFor(s.Fields)
}

func defaultsFor(fields []Field) map[string]any {
	tree := make(map[string]any)
	for i := range fields {
		f := &fields[i]
		if f.Kind == KindStruct {
			if sub := defaultsFor(f.Fields); len(sub) > 0 {
				tree[f.Name] = sub
			}
			continue
		}
		if f.Default != nil {
			tree[f.Name] = cloneTree(f.Default)
		}
	}
	return tree
}

var (
	durationType        = reflect.TypeOf(time.Duration(0))
	urlType             = reflect.TypeOf(url.URL{})
	ipNetType           = reflect.TypeOf(net.IPNet{})
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// DescribeStruct derives a Schema from a struct value whose field values are the defaults.
// Field names come from the `toml` tag (or the Go field name), strategies from the
// `merge` tag, CLI exposure is disabled with `cli:"-"`, and `usage` supplies flag help.
func DescribeStruct(structWithDefaults any) (*Schema, error) {
	v := reflect.ValueOf(structWithDefaults)

	// Handle pointer or direct struct value
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, fmt.Errorf("DescribeStruct requires a non-nil struct pointer or value")
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("DescribeStruct requires a struct or struct pointer, got %T", structWithDefaults)
	}

	var errs []string
	fields := describeFields(v, "", false, &errs)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to describe %d field(s): %s", len(errs), strings.Join(errs, "; "))
	}

	schema := &Schema{Fields: fields}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return schema, nil
}

// describeFields handles the recursive field walk for DescribeStruct.
// noCli is set below a struct that is itself kept off the command line.
func describeFields(v reflect.Value, prefix string, noCli bool, errs *[]string) []Field {
	t := v.Type()
	var fields []Field

	for i := 0; i < v.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		tag := sf.Tag.Get("toml")
		if tag == "-" {
			continue
		}

		key := sf.Name
		if tag != "" {
			if parts := strings.Split(tag, ","); parts[0] != "" {
				key = parts[0]
			}
		}
		path := joinPath(prefix, key)

		strategy, err := ParseMergeStrategy(sf.Tag.Get("merge"))
		if err != nil {
			*errs = append(*errs, fmt.Sprintf("field %s (path %s): %v", sf.Name, path, err))
			continue
		}

		field := Field{
			Name:     key,
			Strategy: strategy,
			CLI:      !noCli && sf.Tag.Get("cli") != "-" && strategy != SkipCli,
			Usage:    sf.Tag.Get("usage"),
		}

		fv := v.Field(i)
		ft := sf.Type
		if ft.Kind() == reflect.Ptr {
			if fv.IsNil() {
				fv = reflect.Zero(ft.Elem())
			} else {
				fv = fv.Elem()
			}
			ft = ft.Elem()
		}

		switch {
		case ft == durationType:
			field.Kind = KindDuration
			field.Default = time.Duration(fv.Int()).String()
		case ft == urlType:
			field.Kind = KindString
			if u := fv.Interface().(url.URL); u != (url.URL{}) {
				field.Default = u.String()
			}
		case ft == ipNetType:
			field.Kind = KindString
			if n := fv.Interface().(net.IPNet); n.IP != nil {
				field.Default = n.String()
			}
		case reflect.PointerTo(ft).Implements(textUnmarshalerType):
			// Textual types (net.IP, time.Time, ...) travel through the tree as strings
			field.Kind = KindString
			field.Default = textDefault(fv)
		case ft.Kind() == reflect.Struct:
			field.Kind = KindStruct
			field.Fields = describeFields(fv, path, !field.CLI, errs)
		default:
			field.Kind = kindOf(ft)
			if def, err := defaultValue(fv); err != nil {
				*errs = append(*errs, fmt.Sprintf("field %s (path %s): %v", sf.Name, path, err))
				continue
			} else {
				field.Default = def
			}
		}

		if field.Kind == KindMap || field.Kind == KindStruct {
			field.CLI = false // No flag surface for tables
		}
		fields = append(fields, field)
	}

	return fields
}

// kindOf maps a Go type to the descriptor kind
func kindOf(t reflect.Type) Kind {
	switch t.Kind() {
	case reflect.String:
		return KindString
	case reflect.Bool:
		return KindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindInt
	case reflect.Float32, reflect.Float64:
		return KindFloat
	case reflect.Slice, reflect.Array:
		return KindList
	case reflect.Map:
		return KindMap
	default:
		return KindAny
	}
}

// defaultValue converts a Go default into tree form; zero-length collections yield nil
func defaultValue(v reflect.Value) (any, error) {
	switch v.Kind() {
	case reflect.Slice, reflect.Map:
		if v.IsNil() {
			return nil, nil
		}
	case reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}
	}
	return normalizeTree(v.Interface())
}

// textDefault renders a TextMarshaler default, or nil for zero values
func textDefault(v reflect.Value) any {
	if v.IsZero() {
		return nil
	}
	if m, ok := v.Interface().(encoding.TextMarshaler); ok {
		if text, err := m.MarshalText(); err == nil {
			return string(text)
		}
	}
	return nil
}
