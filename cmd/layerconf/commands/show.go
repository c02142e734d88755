// FILE: lixenwraith/layerconf/cmd/layerconf/commands/show.go
package commands

import (
	"github.com/spf13/cobra"
)

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.builder.Build()
			if err != nil {
				return err
			}
			return result.WriteTOML(cmd.OutOrStdout())
		},
	}
}
