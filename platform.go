// FILE: lixenwraith/layerconf/platform.go
package layerconf

import (
	"path/filepath"
	"runtime"
	"strings"
)

// Platform enumerates the standard configuration locations of an operating system.
// Implementations perform no I/O; existence is checked by the loader.
type Platform interface {
	StandardPaths(appName string) []string
}

// CaseFolder is implemented by platforms whose filesystems compare paths
// case-insensitively. FoldKey returns the canonical deduplication key.
type CaseFolder interface {
	FoldKey(path string) string
}

// UnixPlatform follows the XDG base directory layout plus home and project dotfiles
type UnixPlatform struct {
	Env          Env
	Extensions   []string
	ProjectRoots []string
}

// StandardPaths returns, in order: the user XDG config dir, each system XDG dir,
// the home dotfile, and a dotfile per project root. Each location is tried with
// every extension before moving on.
func (p UnixPlatform) StandardPaths(appName string) []string {
	if appName == "" {
		return nil
	}
	exts := extensionsOrDefault(p.Extensions)
	home := p.Env.Get("HOME")

	var dirs []string
	if xdgHome := p.Env.Get("XDG_CONFIG_HOME"); xdgHome != "" {
		dirs = append(dirs, filepath.Join(xdgHome, appName))
	} else if home != "" {
		dirs = append(dirs, filepath.Join(home, ".config", appName))
	}

	if xdgDirs := p.Env.Get("XDG_CONFIG_DIRS"); xdgDirs != "" {
		for _, dir := range strings.Split(xdgDirs, ":") {
			if dir != "" {
				dirs = append(dirs, filepath.Join(dir, appName))
			}
		}
	} else {
		// Default system path
		dirs = append(dirs, filepath.Join("/etc/xdg", appName))
	}

	var paths []string
	for _, dir := range dirs {
		for _, ext := range exts {
			paths = append(paths, filepath.Join(dir, "config"+ext))
		}
	}

	if home != "" {
		for _, ext := range exts {
			paths = append(paths, filepath.Join(home, "."+appName+ext))
		}
	}

	for _, root := range p.ProjectRoots {
		for _, ext := range exts {
			paths = append(paths, filepath.Join(root, "."+appName+ext))
		}
	}

	return paths
}

// WindowsPlatform follows the roaming and local application data layout.
// Paths are built with backslashes regardless of the host running the code.
type WindowsPlatform struct {
	Env          Env
	Extensions   []string
	ProjectRoots []string
}

// StandardPaths returns %APPDATA% and %LOCALAPPDATA% config files, the profile
// dotfile, then a dotfile per project root.
func (p WindowsPlatform) StandardPaths(appName string) []string {
	if appName == "" {
		return nil
	}
	exts := extensionsOrDefault(p.Extensions)

	var paths []string
	for _, envVar := range []string{"APPDATA", "LOCALAPPDATA"} {
		if dir := p.Env.Get(envVar); dir != "" {
			for _, ext := range exts {
				paths = append(paths, windowsJoin(dir, appName, "config"+ext))
			}
		}
	}

	profile := p.Env.Get("USERPROFILE")
	if profile == "" {
		profile = p.Env.Get("HOME")
	}
	if profile != "" {
		for _, ext := range exts {
			paths = append(paths, windowsJoin(profile, "."+appName+ext))
		}
	}

	for _, root := range p.ProjectRoots {
		for _, ext := range exts {
			paths = append(paths, windowsJoin(root, "."+appName+ext))
		}
	}

	return paths
}

// FoldKey lowercases ASCII letters and normalizes separators to backslashes
func (p WindowsPlatform) FoldKey(path string) string {
	b := []byte(path)
	for i, c := range b {
		switch {
		case c >= 'A' && c <= 'Z':
			b[i] = c + ('a' - 'A')
		case c == '/':
			b[i] = '\\'
		}
	}
	return string(b)
}

// PlatformFor selects the platform implementation for a GOOS value
func PlatformFor(goos string, env Env, opts DiscoveryOptions) Platform {
	if goos == "windows" {
		return WindowsPlatform{Env: env, Extensions: opts.Extensions, ProjectRoots: opts.ProjectRoots}
	}
	return UnixPlatform{Env: env, Extensions: opts.Extensions, ProjectRoots: opts.ProjectRoots}
}

// DefaultPlatform selects the platform of the running binary
func DefaultPlatform(env Env, opts DiscoveryOptions) Platform {
	return PlatformFor(runtime.GOOS, env, opts)
}

func extensionsOrDefault(exts []string) []string {
	if len(exts) == 0 {
		return []string{".toml"}
	}
	return exts
}

// windowsJoin joins path elements with a single backslash
func windowsJoin(elems ...string) string {
	parts := make([]string, 0, len(elems))
	for i, e := range elems {
		if i > 0 {
			e = strings.TrimLeft(e, `\/`)
		}
		if i < len(elems)-1 {
			e = strings.TrimRight(e, `\/`)
		}
		if e != "" {
			parts = append(parts, e)
		}
	}
	return strings.Join(parts, `\`)
}
