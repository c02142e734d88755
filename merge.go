// FILE: lixenwraith/layerconf/merge.go
package layerconf

import (
	"fmt"
	"sort"
)

// Merged is the result of a successful merge
type Merged struct {
	// Tree holds every described field that has a value
	Tree map[string]any
	// Origins maps each field path to the layer sources that produced its value
	Origins map[string][]string
}

// contribution is one layer's non-null value for a field
type contribution struct {
	value  any
	source string
}

// Merge combines layers, lowest precedence first, according to schema.
// Null values never override. Keys the schema does not describe are ignored.
// Any shape mismatch aborts the whole merge with a *MergeError.
func Merge(layers []Layer, schema *Schema) (*Merged, error) {
	if schema == nil {
		return nil, &MergeError{Err: fmt.Errorf("schema is nil")}
	}

	m := &merger{
		layers:  layers,
		origins: make(map[string][]string),
	}
	tree, err := m.mergeFields(schema.Fields, "", false)
	if err != nil {
		return nil, err
	}
	return &Merged{Tree: tree, Origins: m.origins}, nil
}

type merger struct {
	layers  []Layer
	origins map[string][]string
}

func (m *merger) mergeFields(fields []Field, prefix string, excludeCli bool) (map[string]any, error) {
	order := make([]int, len(fields))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return fields[order[a]].Name < fields[order[b]].Name })

	out := make(map[string]any)
	for _, idx := range order {
		f := &fields[idx]
		path := joinPath(prefix, f.Name)
		skipCli := excludeCli || f.Strategy == SkipCli

		contribs := m.collect(path, skipCli)
		if err := checkShape(f, path, contribs); err != nil {
			return nil, err
		}

		if f.Kind == KindStruct {
			sub, err := m.mergeFields(f.Fields, path, skipCli)
			if err != nil {
				return nil, err
			}
			if len(sub) > 0 || len(contribs) > 0 {
				out[f.Name] = sub
			}
			continue
		}

		value, sources, ok := combine(f, contribs)
		if !ok {
			continue
		}
		out[f.Name] = value
		m.origins[path] = sources
	}
	return out, nil
}

// collect gathers the non-null values at path across layers, in layer order
func (m *merger) collect(path string, skipCli bool) []contribution {
	var contribs []contribution
	for _, layer := range m.layers {
		if skipCli && layer.Provenance == ProvenanceCli {
			continue
		}
		v, ok := navigateToPath(layer.Value, path)
		if !ok || v == nil {
			continue
		}
		contribs = append(contribs, contribution{value: v, source: layer.Source()})
	}
	return contribs
}

// checkShape rejects values whose structure contradicts the field kind
func checkShape(f *Field, path string, contribs []contribution) error {
	for _, c := range contribs {
		var expected string
		switch {
		case f.Kind == KindStruct || f.Kind == KindMap:
			if _, ok := c.value.(map[string]any); !ok {
				expected = "map"
			}
		case f.Kind == KindList:
			if _, ok := c.value.([]any); !ok {
				expected = "list"
			}
		case f.Kind.isScalar():
			switch c.value.(type) {
			case map[string]any, []any:
				expected = "scalar"
			}
		}
		if expected != "" {
			return &MergeError{
				FieldPath: path,
				Err:       fmt.Errorf("expected %s, found %s in %s", expected, shapeOf(c.value), c.source),
			}
		}
	}
	return nil
}

// combine applies the field strategy; ok is false when neither a layer nor a default supplies a value
func combine(f *Field, contribs []contribution) (any, []string, bool) {
	if len(contribs) == 0 {
		if f.Default == nil {
			return nil, nil, false
		}
		return cloneTree(f.Default), []string{string(ProvenanceDefaults)}, true
	}

	switch f.Strategy {
	case Append:
		var list []any
		var sources []string
		for _, c := range contribs {
			items, ok := c.value.([]any)
			if !ok {
				// KindAny fields append scalars as single items
				items = []any{c.value}
			}
			list = append(list, cloneTree(items).([]any)...)
			sources = append(sources, c.source)
		}
		return list, sources, true

	case Keyed:
		var merged map[string]any
		var scalar any
		var sources []string
		for _, c := range contribs {
			entries, ok := c.value.(map[string]any)
			if !ok {
				// Non-map values restart the accumulation
				merged, scalar, sources = nil, c.value, []string{c.source}
				continue
			}
			if merged == nil {
				merged, scalar, sources = make(map[string]any), nil, nil
			}
			mergeKeyed(merged, entries)
			sources = append(sources, c.source)
		}
		if merged == nil {
			return cloneTree(scalar), sources, true
		}
		return merged, sources, true

	default:
		last := contribs[len(contribs)-1]
		return cloneTree(last.value), []string{last.source}, true
	}
}

// mergeKeyed folds src into dst key by key; nested maps merge recursively
func mergeKeyed(dst, src map[string]any) {
	for _, k := range sortedKeys(src) {
		v := src[k]
		if v == nil {
			continue
		}
		if srcMap, ok := v.(map[string]any); ok {
			if dstMap, ok := dst[k].(map[string]any); ok {
				mergeKeyed(dstMap, srcMap)
				continue
			}
		}
		dst[k] = cloneTree(v)
	}
}
