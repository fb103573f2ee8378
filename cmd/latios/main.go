// Command latios runs the podcast web service and its maintenance tasks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "latios",
		Short: "Podcast search, transcription and summaries",
		Long: `latios serves the podcast web app and API.

Configuration is read from the environment (DB_URL, AUTH_JWT_SECRET,
DEEPGRAM_API_KEY, ...). Optional subsystems stay off while their
settings are empty.`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "latios %s (%s)\n", version, commit)
		},
	}
}
