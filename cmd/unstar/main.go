// Package main implements the unstar CLI.
// It provides commands for analyzing Python trees, planning and applying
// wildcard import rewrites, and managing configuration.
package main

import (
	"os"

	"github.com/l3aro/unstar/cmd/unstar/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.Flags().BoolP("version", "v", false, "Print version information")
	commands.RootCmd.SetVersionTemplate(`unstar version {{.Version}}
`)
	commands.RootCmd.Version = version

	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
