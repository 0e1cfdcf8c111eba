// Package main provides the entry point for the ctisync CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for ctisync.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ctisync",
		Short: "DShield Intel Feed connector for OpenCTI-compatible stores",
		Long: `ctisync fetches the DShield Intel Feed, normalizes its records into
IP observables, and publishes them idempotently to an OpenCTI-compatible
knowledge store. Each run also writes a JSON artifact summarizing the
labels and objects it processed.

Store credentials are read from the OPENCTI_API_URL and OPENCTI_API_KEY
environment variables, a .ctisync config file, or CLI flags.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
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
