// FILE: lixenwraith/layerconf/cmd/layerconf/commands/explain.go
package commands

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/lixenwraith/layerconf"
	"github.com/spf13/cobra"
)

func (a *app) explainCmd() *cobra.Command {
	explainCmd := &cobra.Command{
		Use:   "explain",
		Short: "Show each value with the sources that produced it",
		RunE:  a.explain,
	}
	explainCmd.Flags().BoolVar(&a.noColor, "no-color", false, "disable colored output")
	return explainCmd
}

func (a *app) explain(cmd *cobra.Command, args []string) error {
	color.NoColor = color.NoColor || a.noColor

	result, err := a.builder.Build()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	files := result.Files()
	if len(files) == 0 {
		fmt.Fprintln(out, color.New(color.FgHiBlack).Sprint("no configuration file found"))
	} else {
		fmt.Fprintf(out, "%s %s\n", color.New(color.Bold).Sprint("files:"), strings.Join(files, " <- "))
	}
	for _, warning := range result.Warnings() {
		fmt.Fprintln(out, color.New(color.FgHiBlack).Sprintf("  skipped: %v", warning))
	}

	for _, leaf := range appSchema.Leaves() {
		value, ok := result.Get(leaf.Path)
		if !ok {
			continue
		}
		fmt.Fprintf(out, "%s = %v  %s\n",
			color.New(color.FgCyan, color.Bold).Sprint(leaf.Path),
			value,
			formatOrigins(result.Origins(leaf.Path)))
	}
	return nil
}

// formatOrigins colors each source by its provenance
func formatOrigins(origins []string) string {
	parts := make([]string, len(origins))
	for i, origin := range origins {
		parts[i] = provenanceColor(origin).Sprint(origin)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func provenanceColor(origin string) *color.Color {
	provenance, _, _ := strings.Cut(origin, ":")
	switch layerconf.Provenance(provenance) {
	case layerconf.ProvenanceFile:
		return color.New(color.FgGreen)
	case layerconf.ProvenanceEnvironment:
		return color.New(color.FgYellow)
	case layerconf.ProvenanceCli:
		return color.New(color.FgMagenta)
	default:
		return color.New(color.FgHiBlack)
	}
}
