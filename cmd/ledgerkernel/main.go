package main

import (
	"fmt"
	"os"

	"github.com/ledgerkernel/engine/pkg/log"
	"github.com/spf13/cobra"
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
	Use:   "ledgerkernel",
	Short: "ledgerkernel - deterministic execution engine for blueprint transactions",
	Long: `ledgerkernel runs transaction manifests against a ledger of
user-defined blueprints and their instantiated components, under strict
authorization, metering and state-isolation rules, and commits a
deterministic state delta to a bbolt-backed substate store.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"ledgerkernel version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("data-dir", "./ledgerkernel-data", "Directory holding the substate database file")
	rootCmd.PersistentFlags().Uint64("gas-limit", 1_000_000, "Gas budget charged against each transaction")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(serveMetricsCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}
