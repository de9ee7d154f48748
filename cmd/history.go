package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/binforecast/core"
	"github.com/huangsam/binforecast/internal/contract"
	"github.com/huangsam/binforecast/internal/iocache"
	"github.com/huangsam/binforecast/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyBackendFromConfig reads the history backend, treating empty as NoneBackend.
func historyBackendFromConfig() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	// Get history-related config values
	backendStr := viper.GetString("history-backend")
	connStr := viper.GetString("history-db-connect")

	// Handle empty backend as NoneBackend
	backend := schema.NoneBackend
	if backendStr != "" {
		backend = schema.DatabaseBackend(backendStr)
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", backendStr)
	}

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// historySetup loads minimal configuration needed for history operations.
// This is used by commands that need history access without full shared setup.
func historySetup() error {
	backend, connStr, err := historyBackendFromConfig()
	if err != nil {
		return err
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

// historyStore initializes the history store only (no metrics cache for history commands).
func historyStore() contract.HistoryStore {
	if err := iocache.InitCaching("", "", cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		contract.LogFatal("Failed to initialize history", err)
	}
	return iocache.Manager.GetHistoryStore()
}

// historyMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func historyMigrateSetup() error {
	backend, connStr, err := historyBackendFromConfig()
	if err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetHistoryDBFilePath()
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	return nil
}

// historyMigrateSetupWrapper wraps historyMigrateSetup to provide PreRunE for migrate command.
func historyMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return historyMigrateSetup()
}

// historyCmd focused on forecast history management.
//
// Note: History subcommands other than show use minimal initialization
// (historySetup) instead of the full sharedSetup used by forecast commands.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage recorded forecast runs and exports",
	Long: `Manage the forecast history used for trend tracking and reporting.

When --history-backend is set, every forecast run is recorded, storing:
- Run metadata (uuid, reference and forecast date, source, endpoint, duration)
- Every district prediction of the run

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, the default)

Subcommands:
  status  - Show history statistics
  show    - Show the recorded predictions of one district with its trend
  export  - Export data to Parquet for analytics
  clear   - Remove all history
  migrate - Run database schema migrations

Examples:
  # Record forecasts in SQLite
  binforecast forecast --history-backend sqlite

  # Export for analysis in pandas/DuckDB
  binforecast history export --history-backend sqlite --output-file history`,
}

// historyClearCmd clears the forecast history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded forecast runs",
	Long: `Delete all stored forecast runs and predictions.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  binforecast history export --output-file backup
  binforecast history clear`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		dbFilePath := cfg.HistoryDBConnect
		if dbFilePath == "" {
			dbFilePath = contract.GetHistoryDBFilePath()
		}
		if err := iocache.ClearHistory(cfg.HistoryBackend, dbFilePath, cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear forecast history", err)
		}
		fmt.Println("Forecast history cleared successfully.")
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display history statistics and connection details",
	Long: `Show the number of recorded runs and predictions, the last and oldest run
and the row count of every history table.

Examples:
  binforecast history status --history-backend sqlite`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := historyStore()
		if store == nil {
			contract.LogFatal("Failed to get history status", core.ErrHistoryDisabled)
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		iocache.PrintHistoryStatus(os.Stdout, status)
	},
}

// historyExportCmd exports the history to Parquet.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export forecast history to Parquet for BI tools and analytics",
	Long: `Export all recorded runs and predictions to Parquet.

Writes two files next to --output-file:
- <output-file>.forecast_runs.parquet
- <output-file>.forecast_predictions.parquet

Requires: --output-file parameter

Examples:
  binforecast history export --output-file history
  duckdb -c "SELECT * FROM read_parquet('history.forecast_predictions.parquet') LIMIT 10"`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteHistoryExport(os.Stdout, historyStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export forecast history", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the forecast history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  binforecast history migrate --history-backend sqlite

  # Migrate to specific version
  binforecast history migrate --target-version 2

  # Rollback to initial state
  binforecast history migrate --target-version 0`,
	PreRunE: historyMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateHistory(os.Stdout, cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}

// historyShowCmd prints the recorded history of one district.
var historyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the recorded predictions of one district",
	Long: `Print every recorded prediction of a district in forecast date order,
with the average volume and the trend (increasing, decreasing or stable on a
5% first-to-last change).

Examples:
  binforecast history show --district 9 --history-backend sqlite
  binforecast history show --district Carmen --output json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor("Cannot show district history", core.ExecuteDistrictHistory),
}
