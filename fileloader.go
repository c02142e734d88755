// FILE: lixenwraith/layerconf/fileloader.go
package layerconf

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// ExtendsKey is the reserved top-level key naming a file's base configuration
const ExtendsKey = "extends"

// FileLayer is the parsed content of one file in an extends chain
type FileLayer struct {
	Path  string
	Value map[string]any
}

// FileLayerChain lists the files of an extends chain, most distant ancestor first.
// The last element is the file that was discovered.
type FileLayerChain []FileLayer

// Path returns the path of the discovered file, or "" for an empty chain
func (c FileLayerChain) Path() string {
	if len(c) == 0 {
		return ""
	}
	return c[len(c)-1].Path
}

// Paths returns every file of the chain in layer order
func (c FileLayerChain) Paths() []string {
	paths := make([]string, len(c))
	for i, layer := range c {
		paths[i] = layer.Path
	}
	return paths
}

// SecurityOptions restricts which files a FileLoader accepts
type SecurityOptions struct {
	// PreventPathTraversal rejects relative candidate paths that climb above the
	// working directory, and extends targets outside the extending file's directory
	PreventPathTraversal bool
	// EnforceFileOwnership rejects files not owned by the effective user (Unix only)
	EnforceFileOwnership bool
	// MaxFileSize limits each file read; 0 means no limit
	MaxFileSize int64
}

// FileLoader reads candidate files and resolves their extends chains
type FileLoader struct {
	Fs       afero.Fs
	Decoders map[Format]Decoder
	Platform Platform // Supplies canonical keys for cycle detection
	Logger   zerolog.Logger
	Security SecurityOptions
}

// NewFileLoader creates a loader over fs with the built-in decoders and no logging
func NewFileLoader(fs afero.Fs) *FileLoader {
	return &FileLoader{
		Fs:       fs,
		Decoders: DefaultDecoders(),
		Logger:   zerolog.Nop(),
	}
}

// LoadFirst tries each candidate in order and returns the chain of the first one
// that loads. Failures are partitioned into required and optional errors:
// absent files are optional unless the candidate is Required; unreadable or
// malformed files are required for Explicit and EnvOverride candidates; cycles
// are always required. Once a required error exists, remaining PlatformStandard
// candidates are skipped while explicit ones are still checked.
func (l *FileLoader) LoadFirst(candidates []CandidatePath) DiscoveryOutcome[FileLayerChain] {
	buf := &errorBuffer{}

	for _, c := range candidates {
		if buf.hasRequired() && c.Kind == PlatformStandard {
			l.Logger.Debug().Str("path", c.Path).Str("kind", c.Kind.String()).Msg("skipping candidate after required failure")
			continue
		}

		chain, ok, err := l.LoadChain(c.Path)
		switch {
		case err != nil:
			required := c.Kind != PlatformStandard || errors.Is(err, ErrCyclicExtends)
			l.Logger.Debug().Str("path", c.Path).Str("kind", c.Kind.String()).Bool("required", required).Err(err).Msg("candidate failed")
			buf.record(err, required)
		case !ok:
			l.Logger.Debug().Str("path", c.Path).Str("kind", c.Kind.String()).Msg("candidate absent")
			buf.record(&FileError{Path: c.Path, Err: ErrConfigNotFound}, c.Required)
		default:
			l.Logger.Info().Str("path", c.Path).Strs("layers", chain.Paths()).Msg("configuration file selected")
			return found(buf, chain)
		}
	}

	return exhausted[FileLayerChain](buf)
}

// LoadChain loads path and every file it transitively extends.
// An absent top-level file reports ok == false with a nil error.
func (l *FileLoader) LoadChain(path string) (FileLayerChain, bool, error) {
	if l.Security.PreventPathTraversal && escapesDir(path) {
		return nil, true, &FileError{Path: path, Err: ErrPathTraversal}
	}

	chain, err := l.loadChain(path, nil, nil)
	if errors.Is(err, errAbsent) {
		return nil, false, nil
	}
	if err != nil {
		return nil, true, err
	}
	return chain, true, nil
}

// errAbsent marks a missing top-level file inside the recursive walk
var errAbsent = errors.New("absent")

// loadChain walks one level of the extends chain. keys and trail hold the
// canonical keys and display paths of the files currently being loaded.
func (l *FileLoader) loadChain(path string, keys, trail []string) (FileLayerChain, error) {
	key := CanonicalKey(l.realPath(path), l.Platform)
	for i, k := range keys {
		if k == key {
			cycle := append(append([]string{}, trail[i:]...), path)
			return nil, &FileError{Path: path, Err: &CycleError{Chain: cycle}}
		}
	}

	tree, err := l.readFile(path)
	if err != nil {
		return nil, err
	}

	rawExtends, hasExtends := tree[ExtendsKey]
	delete(tree, ExtendsKey)
	layer := FileLayer{Path: path, Value: tree}
	if !hasExtends {
		return FileLayerChain{layer}, nil
	}

	base, ok := rawExtends.(string)
	if !ok || base == "" {
		return nil, &FileError{Path: path, Err: fmt.Errorf("invalid '%s' value: expected non-empty string, got %s", ExtendsKey, shapeOf(rawExtends))}
	}
	if l.Security.PreventPathTraversal && (filepath.IsAbs(base) || escapesDir(base)) {
		return nil, &FileError{Path: path, Err: fmt.Errorf("%w: %s = %q", ErrPathTraversal, ExtendsKey, base)}
	}
	if !filepath.IsAbs(base) {
		base = filepath.Join(filepath.Dir(path), base)
	}

	l.Logger.Debug().Str("path", path).Str("base", base).Msg("resolving extends")

	parent, err := l.loadChain(base, append(keys, key), append(trail, path))
	switch {
	case errors.Is(err, errAbsent):
		return nil, &FileError{Path: path, Err: &FileError{Path: base, Err: ErrConfigNotFound}}
	case errors.Is(err, ErrCyclicExtends):
		return nil, err
	case err != nil:
		return nil, &FileError{Path: path, Err: err}
	}

	return append(parent, layer), nil
}

// readFile returns errAbsent for missing files and a *FileError for anything else
func (l *FileLoader) readFile(path string) (map[string]any, error) {
	info, err := l.Fs.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errAbsent
		}
		return nil, &FileError{Path: path, Err: fmt.Errorf("failed to stat: %w", err)}
	}
	if !info.Mode().IsRegular() {
		return nil, &FileError{Path: path, Err: fmt.Errorf("not a regular file")}
	}
	if limit := l.Security.MaxFileSize; limit > 0 && info.Size() > limit {
		return nil, &FileError{Path: path, Err: fmt.Errorf("file exceeds maximum size %d bytes", limit)}
	}
	if l.Security.EnforceFileOwnership {
		if uid, ok := fileOwner(info); ok && uid != os.Geteuid() {
			return nil, &FileError{Path: path, Err: fmt.Errorf("%w: file uid %d, process uid %d", ErrFileOwnership, uid, os.Geteuid())}
		}
	}

	f, err := l.Fs.Open(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: fmt.Errorf("failed to open: %w", err)}
	}
	defer f.Close()

	var reader io.Reader = f
	if l.Security.MaxFileSize > 0 {
		reader = io.LimitReader(f, l.Security.MaxFileSize)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, &FileError{Path: path, Err: fmt.Errorf("failed to read: %w", err)}
	}

	decoders := l.Decoders
	if decoders == nil {
		decoders = DefaultDecoders()
	}
	tree, err := decodeFile(decoders, path, data)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	return tree, nil
}

// realPath resolves symbolic links on the OS filesystem so a linked
// directory cannot hide an extends cycle. Other filesystems use path as is.
func (l *FileLoader) realPath(path string) string {
	if _, ok := l.Fs.(*afero.OsFs); !ok {
		return path
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}

// escapesDir reports whether a relative path climbs above its starting directory
func escapesDir(path string) bool {
	if filepath.IsAbs(path) {
		return false
	}
	clean := filepath.Clean(path)
	return clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator))
}
