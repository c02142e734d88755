// FILE: lixenwraith/layerconf/schema_test.go
package layerconf

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type describedConfig struct {
	Name    string            `toml:"name" usage:"service name"`
	Port    int               `toml:"port"`
	Ratio   float64           `toml:"ratio"`
	Debug   bool              `toml:"debug"`
	Timeout time.Duration     `toml:"timeout"`
	Tags    []string          `toml:"tags" merge:"append"`
	Labels  map[string]string `toml:"labels" merge:"keyed"`
	Token   string            `toml:"token" merge:"skip_cli"`
	Hidden  string            `toml:"hidden" cli:"-"`
	Bind    net.IP            `toml:"bind"`
	Ignored string            `toml:"-"`
	NoTag   string

	Server struct {
		Host string `toml:"host"`
		TLS  struct {
			Cert string `toml:"cert"`
		} `toml:"tls"`
	} `toml:"server"`

	internal string
}

func TestDescribeStruct(t *testing.T) {
	defaults := &describedConfig{
		Name:    "svc",
		Port:    8080,
		Ratio:   0.5,
		Timeout: 30 * time.Second,
		Tags:    []string{"a"},
		Bind:    net.ParseIP("127.0.0.1"),
	}
	defaults.Server.Host = "localhost"

	schema, err := DescribeStruct(defaults)
	require.NoError(t, err)

	t.Run("Kinds", func(t *testing.T) {
		expected := map[string]Kind{
			"name":            KindString,
			"port":            KindInt,
			"ratio":           KindFloat,
			"debug":           KindBool,
			"timeout":         KindDuration,
			"tags":            KindList,
			"labels":          KindMap,
			"bind":            KindString,
			"NoTag":           KindString,
			"server":          KindStruct,
			"server.tls":      KindStruct,
			"server.tls.cert": KindString,
		}
		for path, kind := range expected {
			f, ok := schema.Lookup(path)
			require.True(t, ok, path)
			assert.Equal(t, kind, f.Kind, path)
		}

		_, ok := schema.Lookup("Ignored")
		assert.False(t, ok)
		_, ok = schema.Lookup("internal")
		assert.False(t, ok)
		_, ok = schema.Lookup("port.nested")
		assert.False(t, ok)
	})

	t.Run("StrategiesAndCLI", func(t *testing.T) {
		tags, _ := schema.Lookup("tags")
		assert.Equal(t, Append, tags.Strategy)
		assert.True(t, tags.CLI)

		labels, _ := schema.Lookup("labels")
		assert.Equal(t, Keyed, labels.Strategy)
		assert.False(t, labels.CLI)

		token, _ := schema.Lookup("token")
		assert.Equal(t, SkipCli, token.Strategy)
		assert.False(t, token.CLI)

		hidden, _ := schema.Lookup("hidden")
		assert.Equal(t, Replace, hidden.Strategy)
		assert.False(t, hidden.CLI)

		name, _ := schema.Lookup("name")
		assert.Equal(t, "service name", name.Usage)
	})

	t.Run("SkipCliSectionCoversChildren", func(t *testing.T) {
		type secrets struct {
			Secret struct {
				Key   string `toml:"key"`
				Vault struct {
					Token string `toml:"token"`
				} `toml:"vault"`
			} `toml:"secret" merge:"skip_cli"`
			Private struct {
				Key string `toml:"key"`
			} `toml:"private" cli:"-"`
			Port int `toml:"port"`
		}

		described, err := DescribeStruct(&secrets{})
		require.NoError(t, err)

		for _, path := range []string{"secret.key", "secret.vault.token", "private.key"} {
			f, ok := described.Lookup(path)
			require.True(t, ok, path)
			assert.False(t, f.CLI, path)
		}
		port, _ := described.Lookup("port")
		assert.True(t, port.CLI)
	})

	t.Run("DefaultsTree", func(t *testing.T) {
		tree := schema.DefaultsTree()
		assert.Equal(t, "svc", tree["name"])
		assert.Equal(t, int64(8080), tree["port"])
		assert.Equal(t, 0.5, tree["ratio"])
		assert.Equal(t, false, tree["debug"])
		assert.Equal(t, "30s", tree["timeout"])
		assert.Equal(t, []any{"a"}, tree["tags"])
		assert.Equal(t, "127.0.0.1", tree["bind"])
		assert.NotContains(t, tree, "labels")
		assert.Equal(t, map[string]any{"host": "localhost", "tls": map[string]any{"cert": ""}}, tree["server"])
	})

	t.Run("LeavesInDeclarationOrder", func(t *testing.T) {
		var paths []string
		for _, leaf := range schema.Leaves() {
			paths = append(paths, leaf.Path)
		}
		assert.Equal(t, []string{
			"name", "port", "ratio", "debug", "timeout", "tags", "labels",
			"token", "hidden", "bind", "NoTag", "server.host", "server.tls.cert",
		}, paths)
	})

	t.Run("InvalidInputs", func(t *testing.T) {
		_, err := DescribeStruct(42)
		assert.Error(t, err)

		var nilPtr *describedConfig
		_, err = DescribeStruct(nilPtr)
		assert.Error(t, err)

		type badStrategy struct {
			Port int `toml:"port" merge:"sideways"`
		}
		_, err = DescribeStruct(badStrategy{})
		assert.Error(t, err)

		type appendScalar struct {
			Port int `toml:"port" merge:"append"`
		}
		_, err = DescribeStruct(appendScalar{})
		assert.Error(t, err)
	})
}

func TestSchemaValidate(t *testing.T) {
	tests := []struct {
		name   string
		schema *Schema
		valid  bool
	}{
		{"Valid", NewSchema(Field{Name: "a", Kind: KindInt}), true},
		{"InvalidName", NewSchema(Field{Name: "a.b", Kind: KindInt}), false},
		{"Duplicate", NewSchema(Field{Name: "a"}, Field{Name: "a"}), false},
		{"KeyedOnList", NewSchema(Field{Name: "a", Kind: KindList, Strategy: Keyed}), false},
		{"EmptyStruct", NewSchema(Field{Name: "a", Kind: KindStruct}), false},
		{"NestedInvalid", NewSchema(Field{Name: "a", Kind: KindStruct, Fields: []Field{{Name: ""}}}), false},
		{"Nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestParseMergeStrategy(t *testing.T) {
	for input, expected := range map[string]MergeStrategy{
		"":         Replace,
		"replace":  Replace,
		"Append":   Append,
		"skip-cli": SkipCli,
		"skip_cli": SkipCli,
		"keyed":    Keyed,
	} {
		got, err := ParseMergeStrategy(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, got, input)
	}
	assert.Equal(t, "skip_cli", SkipCli.String())
	assert.Equal(t, "duration", KindDuration.String())
}
