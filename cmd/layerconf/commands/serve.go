// FILE: lixenwraith/layerconf/cmd/layerconf/commands/serve.go
package commands

import (
	"fmt"
	"time"

	"github.com/lixenwraith/layerconf"
	"github.com/spf13/cobra"
)

// ServeConfig is read from [cmds.serve] and LAYERCONF_CMDS_SERVE_* variables
type ServeConfig struct {
	Bind     string        `toml:"bind" usage:"address the server binds to"`
	Workers  int           `toml:"workers" usage:"number of worker goroutines"`
	Shutdown time.Duration `toml:"shutdown" usage:"graceful shutdown timeout"`
	Routes   []string      `toml:"routes" merge:"append" usage:"routes to mount"`
}

var serveSchema = mustDescribe(&ServeConfig{
	Bind:     ":8080",
	Workers:  4,
	Shutdown: 10 * time.Second,
})

func (a *app) serveCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Resolve the serve subcommand configuration",
		Long: `Resolve configuration scoped to the serve subcommand. File values come
from the [cmds.serve] table and environment values from LAYERCONF_CMDS_SERVE_*.`,
		RunE: a.serve,
	}
	if err := layerconf.RegisterFlags(serveCmd.Flags(), serveSchema); err != nil {
		panic(err)
	}
	return serveCmd
}

func (a *app) serve(cmd *cobra.Command, args []string) error {
	// Flags() keeps the parse state; inherited root flags are not in serveSchema
	cli, err := layerconf.CLITree(cmd.Flags(), serveSchema)
	if err != nil {
		return err
	}

	result, err := layerconf.NewRouter(a.builder).Route("serve", serveSchema, cli)
	if err != nil {
		return err
	}

	var cfg ServeConfig
	if err := result.Scan("", &cfg); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "bind:     %s\n", cfg.Bind)
	fmt.Fprintf(out, "workers:  %d\n", cfg.Workers)
	fmt.Fprintf(out, "shutdown: %s\n", cfg.Shutdown)
	fmt.Fprintf(out, "routes:   %v\n", cfg.Routes)
	return nil
}
