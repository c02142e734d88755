// FILE: lixenwraith/layerconf/save.go
package layerconf

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
)

// WriteTOML encodes the merged configuration as TOML
func (r *Result) WriteTOML(w io.Writer) error {
	encoder := toml.NewEncoder(w)
	if err := encoder.Encode(r.tree); err != nil {
		return fmt.Errorf("failed to marshal configuration to TOML: %w", err)
	}
	return nil
}

// Save writes the merged configuration to a TOML file atomically.
// The result can later be loaded as an explicit file layer.
func (r *Result) Save(path string) error {
	var buf bytes.Buffer
	if err := r.WriteTOML(&buf); err != nil {
		return err
	}
	fs := r.fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return atomicWriteFile(fs, path, buf.Bytes())
}

// atomicWriteFile writes to a temporary file in the target directory, then renames it
func atomicWriteFile(fs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := afero.TempFile(fs, dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	defer fs.Remove(tempPath) // Clean up on any error

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := fs.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := fs.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
