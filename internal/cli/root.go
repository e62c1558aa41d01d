// Package cli provides the command-line interface for rowview.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/rowview/internal/config"
	"github.com/user/rowview/internal/logger"
	"github.com/user/rowview/internal/storage"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	Commit    = "none"
	BuildDate = "unknown"
)

// Global flags
var (
	jsonOutput bool
	cfgFile    string
)

// cfg is the configuration resolved before each command runs.
var cfg *config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rowview",
	Short: "Browse, filter and sort tabular datasets",
	Long: `rowview holds datasets of records (customers, employees) and shows them
as a live filtered, multi-column sorted table.

Features:
  - Incremental search across the searchable columns, eager or debounced
  - Multi-column stable sorting with per-column direction
  - Dual storage: JSONL source of truth + SQLite cache for queries
  - Optional server-side filtering through the cache
  - Live reload when a dataset file changes on disk`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default: ./rowview.yaml if present)")
	pf.BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	pf.String("data-dir", config.DefaultDataDir, "Directory holding the dataset JSONL files")
	pf.String("database", config.DefaultDatabase, "SQLite cache path, relative to the data directory")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.Bool("log-json", false, "Write logs as JSON")
}

// loadConfig resolves configuration and installs the logger in the command
// context.
func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	cfg = loaded

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	log := logger.New(&logger.Config{
		Level:      level,
		Output:     cmd.ErrOrStderr(),
		JSON:       cfg.Log.JSON,
		TimeFormat: "15:04:05",
	})
	log.Debug("configuration loaded", "file", cfg.File, "data_dir", cfg.DataDir, "database", cfg.Database)

	cmd.SetContext(logger.WithContext(commandContext(cmd), log))
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// openStore opens the dataset store named by the configuration.
func openStore(ctx context.Context) (*storage.Store, error) {
	store, err := storage.NewStore(ctx, cfg.DataDir, cfg.Database, storage.WithLogger(logger.FromContext(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

// ExitCode is used to communicate exit codes for testing
var ExitCode int

// ExitFunc is the function called to exit the program
// Can be overridden for testing
var ExitFunc = os.Exit

// Exit sets the exit code and calls the exit function
func Exit(code int) {
	ExitCode = code
	ExitFunc(code)
}

// GetJSONOutput returns whether JSON output is enabled
func GetJSONOutput() bool {
	return jsonOutput
}
