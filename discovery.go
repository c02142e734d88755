// FILE: lixenwraith/layerconf/discovery.go
package layerconf

import (
	"os"
	"strings"
)

// DiscoveryOptions configures configuration file discovery
type DiscoveryOptions struct {
	// Application name used in standard locations (e.g. ~/.config/<app>/config.toml)
	AppName string

	// Paths that must exist; a missing one is a required error
	RequiredPaths []string

	// Paths supplied explicitly by the caller (e.g. from a --config flag)
	ExplicitPaths []string

	// Environment variable holding an override path
	EnvVar string

	// Extensions to try (in order) at each standard location
	Extensions []string

	// Project directories searched for a dotfile (e.g. ./.app.toml)
	ProjectRoots []string
}

// DefaultDiscoveryOptions returns sensible defaults
func DefaultDiscoveryOptions(appName string) DiscoveryOptions {
	opts := DiscoveryOptions{
		AppName:    appName,
		EnvVar:     envVarName(appName) + "_CONFIG",
		Extensions: []string{".toml"},
	}
	if cwd, err := os.Getwd(); err == nil {
		opts.ProjectRoots = []string{cwd}
	}
	return opts
}

// envVarName upper-cases an application or command name and maps hyphens to underscores
func envVarName(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}
