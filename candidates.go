// FILE: lixenwraith/layerconf/candidates.go
package layerconf

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SourceKind classifies where a candidate path came from
type SourceKind int

const (
	// Explicit paths were supplied by the caller
	Explicit SourceKind = iota
	// EnvOverride paths were read from the override environment variable
	EnvOverride
	// PlatformStandard paths are the conventional per-OS locations
	PlatformStandard
)

func (k SourceKind) String() string {
	switch k {
	case Explicit:
		return "explicit"
	case EnvOverride:
		return "env"
	case PlatformStandard:
		return "standard"
	default:
		return fmt.Sprintf("SourceKind(%d)", int(k))
	}
}

// CandidatePath is one location that may hold a configuration file
type CandidatePath struct {
	Path     string
	Kind     SourceKind
	Required bool
	Key      string // Canonical form used for deduplication
}

// ResolveCandidates returns the deduplicated, priority-ordered candidate list:
// required paths, explicit paths, the env override, then platform-standard paths.
// It performs no I/O and never fails.
func ResolveCandidates(opts DiscoveryOptions, env Env, platform Platform) []CandidatePath {
	var candidates []CandidatePath
	seen := make(map[string]bool)

	add := func(path string, kind SourceKind, required bool) {
		if strings.TrimSpace(path) == "" {
			return
		}
		key := CanonicalKey(path, platform)
		if seen[key] {
			return
		}
		seen[key] = true
		candidates = append(candidates, CandidatePath{
			Path:     path,
			Kind:     kind,
			Required: required,
			Key:      key,
		})
	}

	for _, path := range opts.RequiredPaths {
		add(path, Explicit, true)
	}
	for _, path := range opts.ExplicitPaths {
		add(path, Explicit, false)
	}
	if opts.EnvVar != "" {
		if path, ok := env.Lookup(opts.EnvVar); ok {
			add(path, EnvOverride, false)
		}
	}
	if platform != nil {
		for _, path := range platform.StandardPaths(opts.AppName) {
			add(path, PlatformStandard, false)
		}
	}

	return candidates
}

// CanonicalKey returns the deduplication key for path on platform.
// Case-insensitive platforms fold the key; elsewhere the cleaned path is used.
func CanonicalKey(path string, platform Platform) string {
	if folder, ok := platform.(CaseFolder); ok {
		return folder.FoldKey(path)
	}
	return filepath.Clean(path)
}
