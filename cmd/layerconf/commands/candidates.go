// FILE: lixenwraith/layerconf/cmd/layerconf/commands/candidates.go
package commands

import (
	"fmt"
	"os"

	"github.com/lixenwraith/layerconf"
	"github.com/spf13/cobra"
)

func (a *app) candidatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "candidates",
		Short: "List configuration file locations in search order",
		RunE:  a.candidates,
	}
}

func (a *app) candidates(cmd *cobra.Command, args []string) error {
	opts := layerconf.DefaultDiscoveryOptions(appName)
	if a.configPath != "" {
		opts.RequiredPaths = append(opts.RequiredPaths, a.configPath)
	}
	env := layerconf.EnvFromOS()
	candidates := layerconf.ResolveCandidates(opts, env, layerconf.DefaultPlatform(env, opts))

	out := cmd.OutOrStdout()
	for i, c := range candidates {
		state := "absent"
		if info, err := os.Stat(c.Path); err == nil && info.Mode().IsRegular() {
			state = "present"
		}
		required := ""
		if c.Required {
			required = " required"
		}
		fmt.Fprintf(out, "%2d. [%s%s] %s (%s)\n", i+1, c.Kind, required, c.Path, state)
	}
	return nil
}
