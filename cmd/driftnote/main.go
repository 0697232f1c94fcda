package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/driftnote/pkg/log"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "driftnote",
	Short: "Driftnote - peer-to-peer encrypted document ledger",
	Long: `Driftnote is an append-only, peer-to-peer document ledger with
offline-first editing and three-way merge on sync, delivered as a single
binary with no central server.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"driftnote version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("config", "", "Path to driftnote.yaml (defaults baked in if omitted)")
	rootCmd.PersistentFlags().String("ledger-dir", "", "Ledger directory override (defaults to config's ledger_dir)")
	rootCmd.PersistentFlags().String("repo-id", "", "Repository id (UUID); required by every command except 'keygen' and 'peer-id'")
	rootCmd.PersistentFlags().String("repo-key-env", "DRIFTNOTE_REPO_KEY", "Environment variable holding the base64-encoded 32-byte repo key")
	rootCmd.PersistentFlags().String("peer-id", "local", "This node's peer id; a sync request naming it is served from the local partition")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(peerIDCmd)
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(changesCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(serveCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}
