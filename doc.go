// FILE: lixenwraith/layerconf/doc.go

// Package layerconf resolves an application's effective configuration from
// ranked sources: declared defaults, discovered configuration files, an
// environment snapshot, and command-line flags. Every source becomes a
// provenance-tagged layer and the layers are merged field by field.
//
// Features:
//   - Platform-aware discovery (XDG, %APPDATA%, home and project dotfiles)
//   - TOML, YAML and JSON-with-comments files with `extends` inheritance
//   - Per-field merge strategies: replace, append, skip_cli, keyed
//   - Required and optional sources: a missing file is never fatal, a corrupt explicit one is
//   - Subcommand scoping through [cmds.<name>] tables
//   - Provenance for every merged value
//   - Optional file checks: size limit, path traversal, ownership
//
// Quick Start:
//
//	type Config struct {
//	    Server struct {
//	        Host string `toml:"host"`
//	        Port int    `toml:"port"`
//	    } `toml:"server"`
//	    Tags []string `toml:"tags" merge:"append"`
//	}
//
//	cfg := Config{}
//	cfg.Server.Host = "localhost"
//	cfg.Server.Port = 8080
//
//	if _, err := layerconf.Quick("myapp", &cfg, ""); err != nil {
//	    log.Fatal(err)
//	}
//
// Precedence (highest to lowest):
//  1. Command-line arguments (--server.port=9090)
//  2. Environment variables (MYAPP_SERVER_PORT=9090)
//  3. Configuration file chain, the discovered file over the files it extends
//  4. Default values
//
// Discovery order: required paths, explicit paths, $MYAPP_CONFIG, then the
// platform's standard locations. The first file that loads wins.
//
// Custom pipeline:
//
//	result, err := layerconf.NewBuilder("myapp").
//	    WithDefaults(&cfg).
//	    WithRequiredPath("/etc/myapp/site.toml").
//	    WithArgs(os.Args[1:]).
//	    WithValidator(layerconf.RequireKeys("server.host")).
//	    Build()
package layerconf
