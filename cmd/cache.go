package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/internal/iocache"
	"github.com/huangsam/fragmeter/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, err := contract.ParseBackend(viper.GetString("cache-backend"), schema.SQLiteBackend)
	if err != nil {
		return fmt.Errorf("invalid cache backend: %w", err)
	}
	connStr := viper.GetString("cache-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// No history tracking for cache commands
	if err := iocache.InitStores(backend, connStr, schema.NoneBackend, ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by scoring commands. This skips data directory and
// date range validation for simple cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the activity cache (avoids re-reading sources)",
	Long: `Manage the cache of fetched activity windows.

Fragmeter caches the activities fetched for each user and window so that repeated
trend and team runs do not hit the activity source again. Entries expire after
--cache-ttl.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data

Examples:
  # Check cache status
  fragmeter cache status

  # Clear cache after activity files were corrected
  fragmeter cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached activity data",
	Long: `Delete all cached activity windows from the configured backend.

Use this when:
- Activity files were edited after a run
- Cache may be stale or corrupted

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  # Clear SQLite cache (default)
  fragmeter cache clear

  # Clear MySQL cache (set connection string via env variable)
  FRAGMETER_CACHE_BACKEND=mysql FRAGMETER_CACHE_DB_CONNECT="..." fragmeter cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearCache(cfg.CacheBackend, contract.GetCacheDBFilePath(), cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the activity cache.

Displays:
- Backend type and connection status
- Total number of cached entries
- Last and oldest cache entry timestamps
- Cache database size

Examples:
  # Check cache status
  fragmeter cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetActivityStore()
		if store == nil {
			contract.LogFatal("Failed to get cache status", errors.New("caching is disabled (cache-backend is none)"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}
