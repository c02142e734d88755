// FILE: lixenwraith/layerconf/result.go
package layerconf

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// Result is a resolved configuration. It is read-only and safe to share.
type Result struct {
	tree       map[string]any
	origins    map[string][]string
	schema     *Schema
	files      []string
	candidates []CandidatePath
	warnings   []error
	fs         afero.Fs
}

// Get returns the merged value at a dot-notation path
func (r *Result) Get(path string) (any, bool) {
	v, ok := navigateToPath(r.tree, path)
	if !ok {
		return nil, false
	}
	return cloneTree(v), true
}

// Tree returns a copy of the merged configuration tree
func (r *Result) Tree() map[string]any {
	return cloneMap(r.tree)
}

// Origins returns the layer sources that produced the value at path, e.g.
// ["defaults"] or ["file:/etc/app.toml", "cli"] for an appended list.
func (r *Result) Origins(path string) []string {
	return append([]string(nil), r.origins[path]...)
}

// Files returns the configuration files that contributed, ancestors first
func (r *Result) Files() []string {
	return append([]string(nil), r.files...)
}

// Candidates returns every path considered during discovery, in priority order
func (r *Result) Candidates() []CandidatePath {
	return append([]CandidatePath(nil), r.candidates...)
}

// Warnings returns the optional discovery errors discarded because a usable
// configuration was found anyway
func (r *Result) Warnings() []error {
	return append([]error(nil), r.warnings...)
}

// Schema returns the descriptor the result was merged with
func (r *Result) Schema() *Schema {
	return r.schema
}

// Debug returns a formatted string showing all configuration values and their sources
func (r *Result) Debug() string {
	var b strings.Builder
	b.WriteString("Configuration Debug Info:\n")
	if len(r.files) > 0 {
		b.WriteString(fmt.Sprintf("Files: %s\n", strings.Join(r.files, " <- ")))
	}
	b.WriteString("Current values:\n")

	for _, leaf := range r.schema.Leaves() {
		v, ok := navigateToPath(r.tree, leaf.Path)
		if !ok {
			continue
		}
		b.WriteString(fmt.Sprintf("  %s = %v\n", leaf.Path, v))
		b.WriteString(fmt.Sprintf("    from: %s\n", strings.Join(r.origins[leaf.Path], ", ")))
	}

	return b.String()
}
