// Package main provides the hiring panel evaluation engine CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "panel_agent",
	Short: "Multi-reviewer hiring evaluation engine",
	Long:  "panel_agent runs multi-reviewer candidate evaluation sessions: evaluation collection, consensus computation and the human oversight gate, backed by an append-only audit ledger.",
}

var (
	rootConfigPath string
	rootDBURL      string
	rootVerbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	rootCmd.PersistentFlags().StringVar(&rootDBURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var; empty runs in-memory)")
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Print detailed debug information")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
