// FILE: lixenwraith/layerconf/cmd/layerconf/commands/root.go

// Package commands provides the CLI commands for the layerconf demo.
package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/lixenwraith/layerconf"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const appName = "layerconf"

// AppConfig is the demo application's root configuration
type AppConfig struct {
	Server struct {
		Host        string        `toml:"host" usage:"address to listen on"`
		Port        int           `toml:"port" usage:"port to listen on"`
		ReadTimeout time.Duration `toml:"read_timeout" usage:"request read timeout"`
	} `toml:"server"`

	Log struct {
		Level string `toml:"level" usage:"log level (debug|info|warn|error)"`
	} `toml:"log"`

	Plugins []string          `toml:"plugins" merge:"append" usage:"plugins to enable, appended across sources"`
	Labels  map[string]string `toml:"labels" merge:"keyed"`
	Token   string            `toml:"token" merge:"skip_cli"`
}

func defaultAppConfig() *AppConfig {
	cfg := &AppConfig{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 8080
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Log.Level = "info"
	cfg.Plugins = []string{"core"}
	return cfg
}

var appSchema = mustDescribe(defaultAppConfig())

// app holds the flag values and builder shared by one command tree
type app struct {
	configPath string
	envFile    string
	verbose    bool
	noColor    bool

	// builder is prepared before any subcommand runs
	builder *layerconf.Builder
}

// NewRootCmd builds a fresh command tree with its own flag state
func NewRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Inspect layered configuration resolution",
		Long: `layerconf resolves configuration from defaults, discovered files,
environment variables and flags, then shows the merged result.

Files are searched in $LAYERCONF_CONFIG, ~/.config/layerconf/config.toml,
/etc/xdg/layerconf/config.toml, ~/.layerconf.toml and ./.layerconf.toml.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.prepare,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "configuration file that must exist")
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", "", "dotenv file merged under the process environment")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log discovery details to stderr")

	if err := layerconf.RegisterFlags(rootCmd.PersistentFlags(), appSchema); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(a.showCmd())
	rootCmd.AddCommand(a.explainCmd())
	rootCmd.AddCommand(a.candidatesCmd())
	rootCmd.AddCommand(a.serveCmd())
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// prepare creates the builder from the parsed flags of the running command
func (a *app) prepare(cmd *cobra.Command, args []string) error {
	logger := newLogger(a.verbose)

	a.builder = layerconf.NewBuilder(appName).
		WithSchema(appSchema).
		WithFlagSet(cmd.Flags()).
		WithEnvFile(a.envFile).
		WithLogger(logger).
		WithValidator(layerconf.RequireKeys("server.host")).
		WithValidator(validatePort)
	if a.configPath != "" {
		a.builder = a.builder.WithRequiredPath(a.configPath)
	}
	return nil
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func validatePort(r *layerconf.Result) error {
	port, err := r.Int64("server.port")
	if err != nil {
		return err
	}
	if port < 1 || port > 65535 {
		return &layerconf.ValidationError{Key: "server.port", Message: fmt.Sprintf("port %d out of range", port)}
	}
	return nil
}

func mustDescribe(defaults any) *layerconf.Schema {
	schema, err := layerconf.DescribeStruct(defaults)
	if err != nil {
		panic(fmt.Sprintf("invalid configuration schema: %v", err))
	}
	return schema
}
