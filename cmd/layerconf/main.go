// FILE: lixenwraith/layerconf/cmd/layerconf/main.go

// Package main provides the entry point for the layerconf demo CLI.
package main

import (
	"fmt"
	"os"

	"github.com/lixenwraith/layerconf/cmd/layerconf/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
