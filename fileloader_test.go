// FILE: lixenwraith/layerconf/fileloader_test.go
package layerconf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
	}
}

func TestLoadChain(t *testing.T) {
	t.Run("SingleFile", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFiles(t, fs, map[string]string{"/cfg/app.toml": "port = 8080\n[server]\nhost = \"example.com\"\n"})

		chain, ok, err := NewFileLoader(fs).LoadChain("/cfg/app.toml")
		require.NoError(t, err)
		require.True(t, ok)
		require.Len(t, chain, 1)
		assert.Equal(t, int64(8080), chain[0].Value["port"])
		assert.Equal(t, map[string]any{"host": "example.com"}, chain[0].Value["server"])
	})

	t.Run("AbsentFile", func(t *testing.T) {
		chain, ok, err := NewFileLoader(afero.NewMemMapFs()).LoadChain("/missing.toml")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, chain)
	})

	t.Run("ExtendsChainAncestorFirst", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFiles(t, fs, map[string]string{
			"/cfg/app.toml":         "extends = \"base/common.yaml\"\nport = 9000\n",
			"/cfg/base/common.yaml": "extends: /shared/root.json\nport: 8000\nname: common\n",
			"/shared/root.json":     "{\n  // comment\n  \"name\": \"root\",\n  \"debug\": true,\n}\n",
		})

		chain, ok, err := NewFileLoader(fs).LoadChain("/cfg/app.toml")
		require.NoError(t, err)
		require.True(t, ok)

		assert.Equal(t, []string{"/shared/root.json", "/cfg/base/common.yaml", "/cfg/app.toml"}, chain.Paths())
		assert.Equal(t, "/cfg/app.toml", chain.Path())
		for _, layer := range chain {
			assert.NotContains(t, layer.Value, ExtendsKey)
		}
		assert.Equal(t, map[string]any{"name": "root", "debug": true}, chain[0].Value)
		assert.Equal(t, int64(8000), chain[1].Value["port"])
	})

	t.Run("InvalidExtendsValue", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFiles(t, fs, map[string]string{
			"/a.toml": "extends = 5\n",
			"/b.toml": "extends = \"\"\n",
		})

		for _, path := range []string{"/a.toml", "/b.toml"} {
			_, ok, err := NewFileLoader(fs).LoadChain(path)
			require.Error(t, err)
			assert.True(t, ok)
			var fe *FileError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, path, fe.Path)
		}
	})

	t.Run("MissingBaseNamesBothFiles", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFiles(t, fs, map[string]string{"/cfg/app.toml": "extends = \"gone.toml\"\n"})

		_, _, err := NewFileLoader(fs).LoadChain("/cfg/app.toml")
		require.Error(t, err)

		var top *FileError
		require.ErrorAs(t, err, &top)
		assert.Equal(t, "/cfg/app.toml", top.Path)

		var base *FileError
		require.ErrorAs(t, top.Err, &base)
		assert.Equal(t, "/cfg/gone.toml", base.Path)
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})

	t.Run("MalformedBaseWrapsOnce", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFiles(t, fs, map[string]string{
			"/cfg/app.toml":  "extends = \"base.toml\"\n",
			"/cfg/base.toml": "this is = = not toml",
		})

		_, _, err := NewFileLoader(fs).LoadChain("/cfg/app.toml")
		var top *FileError
		require.ErrorAs(t, err, &top)
		assert.Equal(t, "/cfg/app.toml", top.Path)
		var base *FileError
		require.ErrorAs(t, top.Err, &base)
		assert.Equal(t, "/cfg/base.toml", base.Path)
	})

	t.Run("Cycle", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFiles(t, fs, map[string]string{
			"/cfg/a.toml": "extends = \"b.toml\"\n",
			"/cfg/b.toml": "extends = \"a.toml\"\n",
		})

		_, _, err := NewFileLoader(fs).LoadChain("/cfg/a.toml")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCyclicExtends)

		var cycle *CycleError
		require.ErrorAs(t, err, &cycle)
		assert.Equal(t, []string{"/cfg/a.toml", "/cfg/b.toml", "/cfg/a.toml"}, cycle.Chain)
		assert.Contains(t, err.Error(), "/cfg/a.toml -> /cfg/b.toml -> /cfg/a.toml")
	})

	t.Run("SelfExtends", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFiles(t, fs, map[string]string{"/cfg/a.toml": "extends = \"./a.toml\"\n"})

		_, _, err := NewFileLoader(fs).LoadChain("/cfg/a.toml")
		assert.ErrorIs(t, err, ErrCyclicExtends)
	})

	t.Run("DirectoryIsNotAFile", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, fs.MkdirAll("/cfg/app.toml", 0755))

		_, ok, err := NewFileLoader(fs).LoadChain("/cfg/app.toml")
		assert.True(t, ok)
		var fe *FileError
		require.ErrorAs(t, err, &fe)
		assert.Contains(t, fe.Error(), "not a regular file")
	})

	t.Run("MaxFileSize", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFiles(t, fs, map[string]string{"/big.toml": "name = \"0123456789\"\n"})

		loader := NewFileLoader(fs)
		loader.Security.MaxFileSize = 4
		_, _, err := loader.LoadChain("/big.toml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds maximum size")
	})

	t.Run("PathTraversal", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFiles(t, fs, map[string]string{
			"/etc/shared.toml":       "port = 1\n",
			"/etc/app/up.toml":       "extends = \"../shared.toml\"\n",
			"/etc/app/abs.toml":      "extends = \"/etc/shared.toml\"\n",
			"/etc/app/down.toml":     "extends = \"conf.d/../sub/base.toml\"\n",
			"/etc/app/sub/base.toml": "port = 2\n",
		})

		plain := NewFileLoader(fs)
		chain, _, err := plain.LoadChain("/etc/app/up.toml")
		require.NoError(t, err)
		assert.Equal(t, []string{"/etc/shared.toml", "/etc/app/up.toml"}, chain.Paths())

		guarded := NewFileLoader(fs)
		guarded.Security.PreventPathTraversal = true
		for _, path := range []string{"/etc/app/up.toml", "/etc/app/abs.toml"} {
			_, ok, err := guarded.LoadChain(path)
			assert.True(t, ok, path)
			assert.ErrorIs(t, err, ErrPathTraversal, path)

			var fe *FileError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, path, fe.Path)
		}

		chain, _, err = guarded.LoadChain("/etc/app/down.toml")
		require.NoError(t, err)
		assert.Equal(t, []string{"/etc/app/sub/base.toml", "/etc/app/down.toml"}, chain.Paths())

		_, _, err = guarded.LoadChain("../outside.toml")
		assert.ErrorIs(t, err, ErrPathTraversal)
	})

	t.Run("FileOwnership", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "owned.toml")
		require.NoError(t, os.WriteFile(path, []byte("port = 1\n"), 0644))

		loader := NewFileLoader(afero.NewOsFs())
		loader.Security.EnforceFileOwnership = true
		_, _, err := loader.LoadChain(path)
		require.NoError(t, err)

		// MemMapFs files carry no owner and are accepted
		mem := NewFileLoader(memFs(t, map[string]string{"/app.toml": "port = 1\n"}))
		mem.Security.EnforceFileOwnership = true
		_, _, err = mem.LoadChain("/app.toml")
		require.NoError(t, err)

		if os.Geteuid() != 0 {
			t.Skip("changing file ownership requires root")
		}
		require.NoError(t, os.Chown(path, 65534, 65534))
		_, _, err = loader.LoadChain(path)
		assert.ErrorIs(t, err, ErrFileOwnership)
	})

	t.Run("SymlinkedDirectoryCycle", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "app.toml"), []byte("extends = \"link/app.toml\"\n"), 0644))
		if err := os.Symlink(dir, filepath.Join(dir, "link")); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}

		_, _, err := NewFileLoader(afero.NewOsFs()).LoadChain(filepath.Join(dir, "app.toml"))
		require.ErrorIs(t, err, ErrCyclicExtends)

		var cycle *CycleError
		require.ErrorAs(t, err, &cycle)
		assert.Equal(t, []string{
			filepath.Join(dir, "app.toml"),
			filepath.Join(dir, "link", "app.toml"),
		}, cycle.Chain)
	})

	t.Run("RealFilesystem", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "app.toml")
		require.NoError(t, os.WriteFile(path, []byte("enabled = true\n"), 0644))

		chain, ok, err := NewFileLoader(afero.NewOsFs()).LoadChain(path)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, true, chain[0].Value["enabled"])
	})
}

func TestFormats(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/app.yml":      "server:\n  port: 1\nlist: [a, b]\n",
		"/app.jsonc":    "{\"server\": {\"port\": 2}, /* note */ \"list\": [\"a\"]}",
		"/app.conf":     "[server]\nport = 3\n",
		"/detect.cfg":   "{\"server\": {\"port\": 4}}",
		"/yaml.cfg":     "server:\n  port: 5\n",
		"/scalar.yaml":  "just a string\n",
		"/array.json":   "[1, 2]",
		"/empty.yaml":   "",
		"/tables.toml":  "[[items]]\nname = \"x\"\n[[items]]\nname = \"y\"\n",
		"/float.json":   "{\"ratio\": 0.5, \"big\": 9007199254740993}",
		"/garbage.conf": "= = =\n[[[\n",
	})
	loader := NewFileLoader(fs)

	port := func(t *testing.T, path string) any {
		t.Helper()
		chain, ok, err := loader.LoadChain(path)
		require.NoError(t, err)
		require.True(t, ok)
		server, _ := chain[0].Value["server"].(map[string]any)
		return server["port"]
	}

	t.Run("YAML", func(t *testing.T) {
		assert.Equal(t, int64(1), port(t, "/app.yml"))
	})
	t.Run("JSONWithComments", func(t *testing.T) {
		assert.Equal(t, int64(2), port(t, "/app.jsonc"))
	})
	t.Run("ContentDetection", func(t *testing.T) {
		assert.Equal(t, int64(3), port(t, "/app.conf"))
		assert.Equal(t, int64(4), port(t, "/detect.cfg"))
		assert.Equal(t, int64(5), port(t, "/yaml.cfg"))
	})

	t.Run("TopLevelMustBeTable", func(t *testing.T) {
		for _, path := range []string{"/scalar.yaml", "/array.json"} {
			_, _, err := loader.LoadChain(path)
			var fe *FileError
			require.ErrorAs(t, err, &fe, path)
			assert.Equal(t, path, fe.Path)
		}
	})

	t.Run("EmptyDocument", func(t *testing.T) {
		chain, _, err := loader.LoadChain("/empty.yaml")
		require.NoError(t, err)
		assert.Empty(t, chain[0].Value)
	})

	t.Run("ArrayOfTablesNormalized", func(t *testing.T) {
		chain, _, err := loader.LoadChain("/tables.toml")
		require.NoError(t, err)
		assert.Equal(t, []any{
			map[string]any{"name": "x"},
			map[string]any{"name": "y"},
		}, chain[0].Value["items"])
	})

	t.Run("JSONNumbers", func(t *testing.T) {
		chain, _, err := loader.LoadChain("/float.json")
		require.NoError(t, err)
		assert.Equal(t, 0.5, chain[0].Value["ratio"])
		assert.Equal(t, int64(9007199254740993), chain[0].Value["big"])
	})

	t.Run("UndetectableFormat", func(t *testing.T) {
		_, _, err := loader.LoadChain("/garbage.conf")
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}

func TestLoadFirst(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/good.toml":  "port = 8080\n",
		"/other.toml": "port = 9090\n",
		"/bad.toml":   "port = = =",
		"/a.toml":     "extends = \"b.toml\"\n",
		"/b.toml":     "extends = \"a.toml\"\n",
	})
	loader := NewFileLoader(fs)

	standard := func(path string) CandidatePath {
		return CandidatePath{Path: path, Kind: PlatformStandard, Key: path}
	}
	explicit := func(path string) CandidatePath {
		return CandidatePath{Path: path, Kind: Explicit, Key: path}
	}

	t.Run("FirstSuccessWins", func(t *testing.T) {
		outcome := loader.LoadFirst([]CandidatePath{standard("/missing.toml"), standard("/good.toml"), standard("/other.toml")})
		require.True(t, outcome.Found)
		assert.Equal(t, "/good.toml", outcome.Value.Path())
		assert.Empty(t, outcome.RequiredErrors)
		require.Len(t, outcome.OptionalErrors, 1)
		assert.ErrorIs(t, outcome.OptionalErrors[0], ErrConfigNotFound)

		value, err := outcome.Resolve()
		require.NoError(t, err)
		assert.Equal(t, int64(8080), value[0].Value["port"])
	})

	t.Run("MalformedStandardIsOptional", func(t *testing.T) {
		outcome := loader.LoadFirst([]CandidatePath{standard("/bad.toml"), standard("/good.toml")})
		require.True(t, outcome.Found)
		assert.NoError(t, outcome.Fatal())
		require.Len(t, outcome.OptionalErrors, 1)
	})

	t.Run("MalformedExplicitIsRequired", func(t *testing.T) {
		outcome := loader.LoadFirst([]CandidatePath{explicit("/bad.toml"), standard("/good.toml")})
		assert.False(t, outcome.Found)
		require.Len(t, outcome.RequiredErrors, 1)

		var fe *FileError
		require.ErrorAs(t, outcome.Fatal(), &fe)
		assert.Equal(t, "/bad.toml", fe.Path)
	})

	t.Run("MalformedEnvOverrideIsRequired", func(t *testing.T) {
		override := CandidatePath{Path: "/bad.toml", Kind: EnvOverride, Key: "/bad.toml"}
		outcome := loader.LoadFirst([]CandidatePath{override, standard("/good.toml")})
		assert.False(t, outcome.Found)
		assert.Empty(t, outcome.OptionalErrors)
		require.Len(t, outcome.RequiredErrors, 1)

		var fe *FileError
		require.ErrorAs(t, outcome.RequiredErrors[0], &fe)
		assert.Equal(t, "/bad.toml", fe.Path)
		assert.Error(t, outcome.Fatal())
	})

	t.Run("MissingExplicitIsOptional", func(t *testing.T) {
		outcome := loader.LoadFirst([]CandidatePath{explicit("/missing.toml"), standard("/good.toml")})
		assert.True(t, outcome.Found)
		assert.NoError(t, outcome.Fatal())
	})

	t.Run("MissingRequiredIsRequired", func(t *testing.T) {
		req := explicit("/missing.toml")
		req.Required = true
		outcome := loader.LoadFirst([]CandidatePath{req, standard("/good.toml")})
		assert.False(t, outcome.Found)
		assert.ErrorIs(t, outcome.Fatal(), ErrConfigNotFound)
	})

	t.Run("CycleIsRequiredEvenWhenStandard", func(t *testing.T) {
		outcome := loader.LoadFirst([]CandidatePath{standard("/a.toml"), standard("/good.toml")})
		assert.False(t, outcome.Found)
		assert.ErrorIs(t, outcome.Fatal(), ErrCyclicExtends)
	})

	t.Run("AllRequiredFailuresReported", func(t *testing.T) {
		env := CandidatePath{Path: "/a.toml", Kind: EnvOverride, Key: "/a.toml"}
		outcome := loader.LoadFirst([]CandidatePath{explicit("/bad.toml"), env, standard("/good.toml")})
		assert.False(t, outcome.Found)
		require.Len(t, outcome.RequiredErrors, 2)

		var agg *AggregateError
		require.ErrorAs(t, outcome.Fatal(), &agg)
		assert.Len(t, agg.Errors, 2)
	})

	t.Run("NothingFound", func(t *testing.T) {
		outcome := loader.LoadFirst([]CandidatePath{standard("/missing.toml")})
		assert.False(t, outcome.Found)
		_, err := outcome.Resolve()
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})

	t.Run("NoCandidates", func(t *testing.T) {
		outcome := loader.LoadFirst(nil)
		_, err := outcome.Resolve()
		assert.True(t, errors.Is(err, ErrConfigNotFound))
	})
}
