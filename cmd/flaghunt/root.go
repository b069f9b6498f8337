// Package main provides the entry point for the flaghunt CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for flaghunt.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flaghunt",
		Short: "Authenticated crawler that hunts secret flags on a Fakebook-style site",
		Long: `flaghunt logs into a Fakebook-style web application over TLS and crawls
its profile graph concurrently, hunting for hidden secret flags.

The HTTP layer is built directly on raw TLS sockets: flaghunt composes
HTTP/1.1 request text itself, decodes chunked responses itself, and
keeps its own cookie jar. The crawl stops once the flag quota is filled
or every reachable profile has been visited.

By default the captured flags are printed to stdout, one per line.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewHuntCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
