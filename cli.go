// FILE: lixenwraith/layerconf/cli.go
package layerconf

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// FlagName returns the command-line flag name for a field path ("server.read_timeout" -> "server.read-timeout")
func FlagName(path string) string {
	return strings.ReplaceAll(path, "_", "-")
}

// cliLeaves returns the leaves that accept a flag. Nothing below a SkipCli
// field qualifies, since the merge never reads the Cli layer there.
func cliLeaves(schema *Schema) []LeafField {
	var leaves []LeafField
	var walk func(fields []Field, prefix string)
	walk = func(fields []Field, prefix string) {
		for i := range fields {
			f := &fields[i]
			if f.Strategy == SkipCli {
				continue
			}
			path := joinPath(prefix, f.Name)
			if f.Kind == KindStruct {
				walk(f.Fields, path)
				continue
			}
			if f.CLI {
				leaves = append(leaves, LeafField{Path: path, Field: f})
			}
		}
	}
	walk(schema.Fields, "")
	return leaves
}

// RegisterFlags defines one flag on fs for every CLI-exposed leaf of schema.
// Declared defaults are shown in usage output; only flags that were set
// on the command line reach the Cli layer.
func RegisterFlags(fs *pflag.FlagSet, schema *Schema) error {
	for _, leaf := range cliLeaves(schema) {
		f := leaf.Field
		name := FlagName(leaf.Path)
		if fs.Lookup(name) != nil {
			return fmt.Errorf("flag --%s already defined", name)
		}

		usage := f.Usage
		if usage == "" {
			usage = fmt.Sprintf("set %s", leaf.Path)
		}

		switch f.Kind {
		case KindBool:
			def, _ := f.Default.(bool)
			fs.Bool(name, def, usage)
		case KindInt:
			def, _ := f.Default.(int64)
			fs.Int64(name, def, usage)
		case KindFloat:
			def, _ := f.Default.(float64)
			fs.Float64(name, def, usage)
		case KindDuration:
			var def time.Duration
			if s, ok := f.Default.(string); ok {
				def, _ = time.ParseDuration(s)
			}
			fs.Duration(name, def, usage)
		case KindList:
			var def []string
			if items, ok := f.Default.([]any); ok {
				for _, item := range items {
					def = append(def, fmt.Sprint(item))
				}
			}
			fs.StringSlice(name, def, usage)
		case KindString, KindAny:
			def := ""
			if f.Default != nil {
				def = fmt.Sprint(f.Default)
			}
			fs.String(name, def, usage)
		default:
			// Maps have no flag representation
		}
	}
	return nil
}

// CLITree converts the flags of fs that were set on the command line into a Cli layer tree.
// Flags that do not correspond to a schema field are ignored.
func CLITree(fs *pflag.FlagSet, schema *Schema) (map[string]any, error) {
	byName := make(map[string]LeafField)
	for _, leaf := range cliLeaves(schema) {
		byName[FlagName(leaf.Path)] = leaf
	}

	tree := make(map[string]any)
	var errs []error

	// Changed travels with the flag when a set is copied, unlike Visit's record
	fs.VisitAll(func(fl *pflag.Flag) {
		if !fl.Changed {
			return
		}
		leaf, ok := byName[fl.Name]
		if !ok {
			return
		}
		value, err := flagValue(fs, fl.Name, leaf.Field.Kind)
		if err != nil {
			errs = append(errs, &CliParsingError{Err: fmt.Errorf("flag --%s: %w", fl.Name, err)})
			return
		}
		setNestedValue(tree, leaf.Path, value)
	})

	if err := Aggregate(errs...); err != nil {
		return nil, err
	}
	return tree, nil
}

func flagValue(fs *pflag.FlagSet, name string, kind Kind) (any, error) {
	switch kind {
	case KindBool:
		return fs.GetBool(name)
	case KindInt:
		return fs.GetInt64(name)
	case KindFloat:
		return fs.GetFloat64(name)
	case KindDuration:
		d, err := fs.GetDuration(name)
		if err != nil {
			return nil, err
		}
		return d.String(), nil
	case KindList:
		items, err := fs.GetStringSlice(name)
		if err != nil {
			return nil, err
		}
		list := make([]any, len(items))
		for i, item := range items {
			list[i] = item
		}
		return list, nil
	case KindAny:
		s, err := fs.GetString(name)
		if err != nil {
			return nil, err
		}
		return parseLooseValue(s), nil
	default:
		return fs.GetString(name)
	}
}

// ParseCLI parses args against flags generated from schema and returns the Cli layer tree.
// Parse failures are reported as *CliParsingError.
func ParseCLI(schema *Schema, args []string) (map[string]any, error) {
	fs := pflag.NewFlagSet("layerconf", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if err := RegisterFlags(fs, schema); err != nil {
		return nil, err
	}
	if err := fs.Parse(args); err != nil {
		return nil, &CliParsingError{Err: err}
	}
	return CLITree(fs, schema)
}
