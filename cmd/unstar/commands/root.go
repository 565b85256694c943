package commands

import (
	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "unstar",
	Short: "unstar - find and eliminate wildcard imports in Python trees",
	Long: `unstar analyzes a Python source tree, resolves where every imported name
actually comes from, and rewrites "from module import *" statements into
something explicit: deleted when nothing they introduce is used, narrowed
to the names that are, or converted to a qualified module import.

Commands:
  scan        Analyze a tree and report every wildcard import
  fix         Plan rewrites and show diffs; --apply writes them
  dump        Serialize the origin and usage maps
  doctor      Run health checks on configuration and interpreter
  init        Initialize unstar configuration interactively

Use "unstar [command] --help" for more information about a command.`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	// Add subcommands
	RootCmd.AddCommand(scanCmd)
	RootCmd.AddCommand(fixCmd)
	RootCmd.AddCommand(dumpCmd)
	RootCmd.AddCommand(doctorCmd)
	RootCmd.AddCommand(initCmd)
}
