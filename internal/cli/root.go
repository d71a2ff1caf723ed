// Package cli holds the helixdash command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev" // set with -ldflags at build time

// NewRootCmd builds the command tree. Running it without a subcommand serves
// the dashboard.
func NewRootCmd() *cobra.Command {
	serve := NewServeCmd()
	root := &cobra.Command{
		Use:   "helixdash",
		Short: "HelixDash - a web dashboard for sequence analysis tools",
		Long: `HelixDash serves a signed-in workspace in front of a bioinformatics
analysis backend. Every tool in the catalog is a form that posts to the
backend and renders the result in place.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "helixdash version %s\n", version)
		},
	})
	root.AddCommand(serve)
	root.AddCommand(NewToolsCmd())
	return root
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
