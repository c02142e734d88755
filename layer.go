// FILE: lixenwraith/layerconf/layer.go
package layerconf

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Provenance identifies which kind of source produced a layer
type Provenance string

const (
	// ProvenanceDefaults represents declared default values
	ProvenanceDefaults Provenance = "defaults"
	// ProvenanceFile represents values loaded from a configuration file
	ProvenanceFile Provenance = "file"
	// ProvenanceEnvironment represents values loaded from environment variables
	ProvenanceEnvironment Provenance = "environment"
	// ProvenanceCli represents values loaded from command-line arguments
	ProvenanceCli Provenance = "cli"
)

// ParseProvenance validates a provenance name
func ParseProvenance(s string) (Provenance, error) {
	switch p := Provenance(s); p {
	case ProvenanceDefaults, ProvenanceFile, ProvenanceEnvironment, ProvenanceCli:
		return p, nil
	}
	return "", fmt.Errorf("unknown provenance %q", s)
}

// Layer is one provenance-tagged tree taking part in a merge.
// Path is set for file layers only.
type Layer struct {
	Provenance Provenance
	Path       string
	Value      map[string]any
}

// Source describes the layer for provenance reports, e.g. "file:/etc/app.toml"
func (l Layer) Source() string {
	if l.Path != "" {
		return string(l.Provenance) + ":" + l.Path
	}
	return string(l.Provenance)
}

// Composer accumulates layers in the order they are pushed.
// Values are deep-copied on entry so layers cannot change afterwards.
type Composer struct {
	layers []Layer
}

// NewComposer creates an empty composer
func NewComposer() *Composer {
	return &Composer{}
}

// PushDefaults appends a Defaults layer
func (c *Composer) PushDefaults(tree map[string]any) {
	c.PushLayer(Layer{Provenance: ProvenanceDefaults, Value: tree})
}

// PushFile appends a File layer read from path
func (c *Composer) PushFile(tree map[string]any, path string) {
	c.PushLayer(Layer{Provenance: ProvenanceFile, Path: path, Value: tree})
}

// PushEnvironment appends an Environment layer
func (c *Composer) PushEnvironment(tree map[string]any) {
	c.PushLayer(Layer{Provenance: ProvenanceEnvironment, Value: tree})
}

// PushCli appends a Cli layer
func (c *Composer) PushCli(tree map[string]any) {
	c.PushLayer(Layer{Provenance: ProvenanceCli, Value: tree})
}

// PushLayer appends a copy of layer
func (c *Composer) PushLayer(layer Layer) {
	layer.Value = cloneMap(layer.Value)
	c.layers = append(c.layers, layer)
}

// PushChain appends one File layer per chain entry, ancestors first
func (c *Composer) PushChain(chain FileLayerChain) {
	for _, fl := range chain {
		c.PushFile(fl.Value, fl.Path)
	}
}

// PushSpecs appends declaratively described layers
func (c *Composer) PushSpecs(layers []Layer) {
	for _, layer := range layers {
		c.PushLayer(layer)
	}
}

// Layers returns a copy of the accumulated layers in push order
func (c *Composer) Layers() []Layer {
	out := make([]Layer, len(c.layers))
	for i, layer := range c.layers {
		layer.Value = cloneMap(layer.Value)
		out[i] = layer
	}
	return out
}

// layerSpec is the serialized form of a Layer
type layerSpec struct {
	Provenance string         `yaml:"provenance"`
	Path       string         `yaml:"path"`
	Value      map[string]any `yaml:"value"`
}

// ParseLayerSpecs decodes a YAML or JSON list of
// {provenance, value, path} entries into layers.
func ParseLayerSpecs(data []byte) ([]Layer, error) {
	var specs []layerSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("failed to parse layer specs: %w", err)
	}

	layers := make([]Layer, 0, len(specs))
	for i, spec := range specs {
		provenance, err := ParseProvenance(spec.Provenance)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		if spec.Path != "" && provenance != ProvenanceFile {
			return nil, fmt.Errorf("layer %d: path is only valid for file layers", i)
		}

		value, err := normalizeTree(spec.Value)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		tree, _ := value.(map[string]any)

		layers = append(layers, Layer{
			Provenance: provenance,
			Path:       spec.Path,
			Value:      cloneMap(tree),
		})
	}
	return layers, nil
}
