// FILE: lixenwraith/layerconf/router.go
package layerconf

import (
	"fmt"
)

// CommandsKey is the top-level table holding per-subcommand configuration
const CommandsKey = "cmds"

// Router resolves per-subcommand configuration with the same discovery,
// environment and files as a root Builder. Each subcommand reads the
// [cmds.<name>] table of every file layer and variables named
// <PREFIX>_CMDS_<NAME>_<FIELD>. A custom env transform receives the
// scoped path "cmds.<name>.<field>".
type Router struct {
	base *Builder
}

// NewRouter creates a router sharing b's discovery and environment settings
func NewRouter(b *Builder) *Router {
	return &Router{base: b}
}

// Route resolves the configuration of subcommand name. cli is the subcommand's
// already parsed Cli layer and may be nil. Errors carry the subcommand name.
func (r *Router) Route(name string, schema *Schema, cli map[string]any) (*Result, error) {
	if !isValidKeySegment(name) {
		return nil, &SubcommandError{Name: name, Err: fmt.Errorf("invalid subcommand name")}
	}

	b := r.scoped(name, schema)
	b.cli = cli

	result, err := b.Build()
	if err != nil {
		return nil, &SubcommandError{Name: name, Err: err}
	}
	return result, nil
}

// RouteArgs is Route with the Cli layer parsed from args against schema
func (r *Router) RouteArgs(name string, schema *Schema, args []string) (*Result, error) {
	if !isValidKeySegment(name) {
		return nil, &SubcommandError{Name: name, Err: fmt.Errorf("invalid subcommand name")}
	}

	b := r.scoped(name, schema)
	b.args = args
	if b.args == nil {
		b.args = []string{}
	}

	result, err := b.Build()
	if err != nil {
		return nil, &SubcommandError{Name: name, Err: err}
	}
	return result, nil
}

// scoped copies the base builder and narrows it to one subcommand
func (r *Router) scoped(name string, schema *Schema) *Builder {
	b := *r.base
	b.schema = schema
	b.focus = CommandsKey + "." + name
	b.envWhitelist = nil // Whitelisted paths name root schema fields
	b.args = nil
	b.flags = nil
	b.cli = nil
	b.validators = nil // Root validators target the root schema
	return &b
}
