// FILE: lixenwraith/layerconf/format.go
package layerconf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format names a configuration file syntax
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Decoder parses raw file data into a tree whose top level is a table
type Decoder func(data []byte) (map[string]any, error)

// DefaultDecoders returns the decoders for every built-in format
func DefaultDecoders() map[Format]Decoder {
	return map[Format]Decoder{
		FormatTOML: decodeTOML,
		FormatYAML: decodeYAML,
		FormatJSON: decodeJSON,
	}
}

// DetectFormat determines format from file extension, or "" when unknown
func DetectFormat(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml", ".tml":
		return FormatTOML
	case ".json", ".jsonc", ".json5":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return ""
	}
}

// detectFormatFromContent attempts to detect format by parsing into a table
func detectFormatFromContent(data []byte) Format {
	// Try JSON first (strict format)
	var jsonTest map[string]any
	if err := json.Unmarshal(data, &jsonTest); err == nil {
		return FormatJSON
	}

	// YAML accepts most text as a scalar, so only a mapping counts
	var yamlTest map[string]any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil && yamlTest != nil {
		return FormatYAML
	}

	// Try TOML last
	var tomlTest map[string]any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return FormatTOML
	}

	return ""
}

// decodeFile selects a decoder for path and returns the normalized table
func decodeFile(decoders map[Format]Decoder, path string, data []byte) (map[string]any, error) {
	format := DetectFormat(path)
	if format == "" {
		format = detectFormatFromContent(data)
		if format == "" {
			return nil, fmt.Errorf("%w: unable to determine format of '%s'", ErrUnsupportedFormat, path)
		}
	}

	decode, ok := decoders[format]
	if !ok {
		return nil, fmt.Errorf("%w: no decoder for %s", ErrUnsupportedFormat, format)
	}

	tree, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", strings.ToUpper(string(format)), err)
	}

	normalized, err := normalizeTree(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize %s: %w", strings.ToUpper(string(format)), err)
	}
	table, ok := normalized.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("top level must be a table, got %s", shapeOf(normalized))
	}
	return table, nil
}

func decodeTOML(data []byte) (map[string]any, error) {
	tree := make(map[string]any)
	if err := toml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func decodeYAML(data []byte) (map[string]any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	switch v := doc.(type) {
	case nil:
		return make(map[string]any), nil // Empty document
	case map[string]any:
		return v, nil
	case map[any]any:
		normalized, err := normalizeTree(v)
		if err != nil {
			return nil, err
		}
		return normalized.(map[string]any), nil
	default:
		return nil, fmt.Errorf("top level must be a mapping, got %T", doc)
	}
}

// decodeJSON accepts JSON with comments and trailing commas
func decodeJSON(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return make(map[string]any), nil
	}
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.UseNumber() // Preserve number precision
	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return nil, err
	}
	tree, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("top level must be an object, got %T", doc)
	}
	return tree, nil
}
