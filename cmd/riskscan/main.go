package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/riskscan/internal/config"
	"github.com/crimson-sun/riskscan/internal/logging"
)

var (
	// Set via -ldflags at build time.
	version = "dev"
	commit  = "none"

	cfg config.Config

	// Global flag overrides.
	logLevel   string
	logFormat  string
	schemaPath string
)

var rootCmd = &cobra.Command{
	Use:   "riskscan",
	Short: "Batch fraud risk scoring for transaction files",
	Long: `riskscan normalizes heterogeneous transaction records into a canonical
feature schema, scores every record with a fraud classifier, and summarizes
the batch into High, Medium and Low risk bands.

Configuration comes from RISKSCAN_* environment variables and an optional
.env file; flags override the environment.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if logFormat != "" {
			cfg.Log.Format = logFormat
		}
		if schemaPath != "" {
			cfg.Engine.SchemaPath = schemaPath
		}
		logging.Init(cfg.Log.Format == "json", logging.ParseLevel(cfg.Log.Level))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (env RISKSCAN_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: json or text (env RISKSCAN_LOG_FORMAT)")
	rootCmd.PersistentFlags().StringVar(&schemaPath, "schema", "", "YAML schema override (env RISKSCAN_SCHEMA_PATH)")

	rootCmd.AddCommand(serveCmd, scoreCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
