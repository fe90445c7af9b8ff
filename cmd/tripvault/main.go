// Package main provides the tripvault CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/voyagehq/tripvault/internal/logging"
	"github.com/voyagehq/tripvault/internal/paths"
	"github.com/voyagehq/tripvault/internal/store"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
)

// tripStore is the process-wide store, opened once by PersistentPreRunE.
var (
	tripStore *store.Store
	logger    *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUserError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tripvault",
	Short: "Tripvault is a local trip-data store",
	Long: `Tripvault stores planned trips, their calendar events, and document
attachments locally, over an embedded database with a flat-file fallback.`,
	SilenceUsage:       true,
	PersistentPreRunE:  openStore,
	PersistentPostRunE: closeStore,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: .tripvault-db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tripCmd)
	rootCmd.AddCommand(eventCmd)
	rootCmd.AddCommand(attachCmd)
}

// openStore loads config, builds the logger, opens the store, and runs the
// startup sequence: schema init, then the one-time legacy import. Repository
// calls are only trusted to see complete data after both have run.
func openStore(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = logging.New(cfg.LogLevel, cfg.LogFormat)

	s, err := store.Open(cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if err := s.InitSchema(); err != nil {
		s.Close()
		return fmt.Errorf("init schema: %w", err)
	}
	if err := s.MigrateFromLegacy(); err != nil {
		// Never blocks startup; the flag write failed and will be retried
		// on the next run.
		logger.Warn("legacy migration incomplete", zap.Error(err))
	}

	tripStore = s
	return nil
}

// closeStore releases the store and flushes the logger.
func closeStore(cmd *cobra.Command, args []string) error {
	if logger != nil {
		defer logger.Sync()
	}
	if tripStore != nil {
		return tripStore.Close()
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("tripvault v0.1.0")
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize tripvault storage",
	Long:  "Create configuration and data directories, then initialize the storage backend.",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Store is already opened and migrated by PersistentPreRunE.
		fmt.Fprintln(cmd.OutOrStdout(), "Tripvault initialized successfully")
		return nil
	},
}

// resolveDataDir returns the data directory from flag, config, env, or the
// CWD-relative default.
func resolveDataDir(configValue string) (string, error) {
	return paths.ResolveDataDir(flagDataDir, configValue)
}
