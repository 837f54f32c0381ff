// Package cmd implements the gantry command-line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for gantry
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gantry",
		Short: "Application graph discovery from Stackfile manifests",
		Long: `Gantry discovers the structure of a multi-component application from a
tree of Stackfile manifests: components, shared resources and HTTP routes,
validated into a single graph.

With watching enabled it keeps the graph synchronized with live filesystem
changes, attributing every changed file to the component(s) whose declared
inputs include it.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewDiscoverCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewWatchCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
