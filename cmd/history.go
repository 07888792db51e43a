package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/fragmeter/core"
	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/internal/iocache"
	"github.com/huangsam/fragmeter/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// errHistoryDisabled is reported by history commands when no backend is configured.
var errHistoryDisabled = errors.New("history tracking is disabled; set --history-backend")

// historyBackendConfig reads and validates the history backend settings.
func historyBackendConfig() (schema.DatabaseBackend, string, error) {
	backend, err := contract.ParseBackend(viper.GetString("history-backend"), schema.NoneBackend)
	if err != nil {
		return "", "", fmt.Errorf("invalid history backend: %w", err)
	}
	connStr := viper.GetString("history-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// historySetup loads minimal configuration needed for history operations.
// This is used by commands that need history access without full shared setup.
func historySetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := historyBackendConfig()
	if err != nil {
		return err
	}

	// No activity caching for history commands
	if err := iocache.InitStores(schema.NoneBackend, "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// historySetupWrapper wraps historySetup to provide PreRunE for history commands.
func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyMigrateSetup loads the backend settings without opening the store, so that
// migrations can run against a fresh database.
func historyMigrateSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := historyBackendConfig()
	if err != nil {
		return err
	}
	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	return nil
}

// historyStore returns the initialized history store or errHistoryDisabled.
func historyStore() (contract.HistoryStore, error) {
	store := iocache.Manager.GetHistoryStore()
	if store == nil {
		return nil, errHistoryDisabled
	}
	return store, nil
}

// historyCmd focused on score history management.
//
// Note: History subcommands other than show use minimal initialization
// (historySetup) instead of the full sharedSetup used by scoring commands.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage recorded score history and exports",
	Long: `Manage the daily score history recorded by trend and team runs.

When --record-history is set, every run stores:
- Run metadata (command, timestamps, configuration)
- Each user's daily score and risk level

This enables trend queries without re-reading activity and data export for BI tools.

Supported backends: SQLite, MySQL, PostgreSQL, or None (default, disabled)

Subcommands:
  status  - Show history tracking statistics
  show    - Print recorded trends for users
  export  - Export data to Parquet for analytics
  clear   - Remove all recorded history
  migrate - Run database schema migrations

Examples:
  # Check tracking status
  fragmeter history status --history-backend sqlite

  # Export for analysis in pandas/DuckDB
  fragmeter history export --history-backend sqlite --output-file history`,
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display history tracking statistics and connection details",
	Long: `Show detailed information about recorded score history.

Displays:
- Backend type and connection status
- Total number of runs and daily scores stored
- Last and oldest run timestamps
- Database table sizes

Examples:
  # Check history tracking status
  fragmeter history status --history-backend sqlite`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store, err := historyStore()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		iocache.PrintHistoryStatus(os.Stdout, status)
	},
}

// historyShowCmd prints recorded trends.
var historyShowCmd = &cobra.Command{
	Use:   "show <user...>",
	Short: "Print the recorded daily scores of users",
	Long: `Rebuild each user's trend from recorded daily scores without reading activity.

When a day was recorded more than once, the latest run wins.
Days in the range without a recorded score are reported in a warning.

Examples:
  # Recorded scores for the last 7 days
  fragmeter history show alice --history-backend sqlite

  # A fixed range as JSON
  fragmeter history show alice bob --start 2024-06-01 --end 2024-06-30 --output json`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteHistoryShow(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot show history", err)
		}
	},
}

// historyClearCmd clears the history data.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded score history",
	Long: `Delete all recorded runs and daily scores.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  fragmeter history export --history-backend sqlite --output-file backup
  fragmeter history clear --history-backend sqlite`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if cfg.HistoryBackend == schema.NoneBackend {
			contract.LogFatal("Failed to clear history", errHistoryDisabled)
		}
		if err := iocache.ClearHistory(cfg.HistoryBackend, contract.GetHistoryDBFilePath(), cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear history", err)
		}
		fmt.Println("History cleared successfully.")
	},
}

// historyExportCmd exports history data to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded history to Parquet for BI tools and analytics",
	Long: `Export all recorded history to Parquet format for use with analytics tools.

Exports two datasets:
- <output-file>.runs.parquet - metadata about each recorded run
- <output-file>.daily_scores.parquet - every recorded daily score

Requires: --output-file parameter

Examples:
  # Export all data
  fragmeter history export --history-backend sqlite --output-file fragmeter-data

  # Use with DuckDB for analysis
  duckdb -c "SELECT * FROM read_parquet('fragmeter-data.daily_scores.parquet') LIMIT 10"`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store, err := historyStore()
		if err != nil {
			contract.LogFatal("Failed to export history", err)
		}
		if err := iocache.ExecuteHistoryExport(os.Stdout, store, cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export history", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  fragmeter history migrate --history-backend postgresql --history-db-connect "..."

  # Rollback to initial state
  fragmeter history migrate --history-backend sqlite --target-version 0`,
	PreRunE: historyMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		fmt.Println("History migrations applied successfully.")
	},
}
