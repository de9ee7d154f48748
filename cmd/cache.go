package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/binforecast/internal/contract"
	"github.com/huangsam/binforecast/internal/iocache"
	"github.com/huangsam/binforecast/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get cache-related config values
	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")

	// Basic validation for database backends
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
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
// the full sharedSetup used by forecast commands. This avoids loading districts
// and complex config processing for simple cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the model metrics cache",
	Long: `Manage the cache of model metrics fetched from the model service.

The last metrics of every endpoint are persisted so that an unreachable service
still reports the most recent real metrics instead of the built-in defaults.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (in-memory)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data

Examples:
  # Check cache status
  binforecast cache status

  # Clear cache after retraining the model
  binforecast cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached model metrics",
	Long: `Delete all cached model metrics from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  # Clear SQLite cache (default)
  binforecast cache clear

  # Clear MySQL cache (set connection string via env variable)
  BINFORECAST_CACHE_BACKEND=mysql BINFORECAST_CACHE_DB_CONNECT="..." binforecast cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		dbFilePath := cfg.CacheDBConnect
		if dbFilePath == "" {
			dbFilePath = contract.GetCacheDBFilePath()
		}
		if err := iocache.ClearCache(cfg.CacheBackend, dbFilePath, cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the model metrics cache.

Displays:
- Backend type and connection status
- Total number of cached entries
- Last and oldest cache entry timestamps
- Cache database size

Examples:
  # Check cache status
  binforecast cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.InitCaching(cfg.CacheBackend, cfg.CacheDBConnect, "", ""); err != nil {
			contract.LogFatal("Failed to initialize cache", err)
		}
		store := iocache.Manager.GetMetricsStore()
		if store == nil {
			contract.LogFatal("Failed to get cache status", errors.New("cache store is not configured"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}
