package cmd

import (
	"fmt"
	"os"

	"github.com/horizonlabs/horizon-chat/internal"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	configPath  string
	backendURL  string
	storeDriver string
	dataDir     string
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "horizon-chat",
	Short: "Chat with the Horizon assistant from the terminal",
	Long: `A command-line client for the Horizon chat backend.

Replies are streamed token by token. Conversations are organised into
named sessions that are kept locally and restored from the backend's
history when you switch back to them.

Features:
  • Multiple named sessions, remembered between runs
  • Streaming replies with Ctrl-C to stop generation
  • History restore and confirmation from the backend
  • Export in multiple formats (JSONL, Markdown, YAML, JSON)
  • SQLite, Badger or in-memory local storage

Quick Start:
  horizon-chat chat                     # Interactive chat
  horizon-chat send "Hello there"       # One message on the active session
  horizon-chat list                     # List sessions
  horizon-chat export --format md       # Export as Markdown`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		internal.PrintError(fmt.Sprintf("Error: %v", err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (default: config.yaml in the data directory)")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "Backend base URL (overrides HORIZON_BACKEND_URL)")
	rootCmd.PersistentFlags().StringVar(&storeDriver, "store", "", "Local store: sqlite, badger or memory (overrides HORIZON_STORE)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory for local session data (overrides HORIZON_DATA_DIR)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
