// Package cmd defines the command-line interface for binforecast.
package cmd

import (
	"github.com/huangsam/binforecast/internal/contract"
	"github.com/huangsam/binforecast/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(forecastCmd)
	rootCmd.AddCommand(rangeCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(districtCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(districtsCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the districts subcommands to the parent districts command
	districtsCmd.AddCommand(districtsListCmd)
	districtsCmd.AddCommand(districtsImportCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)
	historyCmd.AddCommand(historyShowCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("endpoints", "", "Comma-separated model service base URLs, probed in order")
	rootCmd.PersistentFlags().String("probe-timeout", contract.DefaultProbeTimeout.String(), "Timeout of each endpoint health probe")
	rootCmd.PersistentFlags().String("batch-timeout", contract.DefaultBatchTimeout.String(), "Timeout of the batch prediction call")
	rootCmd.PersistentFlags().String("metrics-ttl", contract.DefaultMetricsTTL.String(), "How long fetched model metrics stay fresh")
	rootCmd.PersistentFlags().Int64("seed", 0, "Seed of the simulation (0 = time-seeded)")
	rootCmd.PersistentFlags().Bool("offline", false, "Skip the model service and always simulate")
	rootCmd.PersistentFlags().String("districts", "", "Path to a districts file (defaults to the embedded dataset)")
	rootCmd.PersistentFlags().String("date", "", "Reference date as YYYY-MM-DD (defaults to today)")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of districts to display (0 = all)")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Bool("detail", false, "Print confidence, events and factors")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Metrics cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("history-backend", "", "Forecast history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for forecast history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Subcommand flags are bound to Viper by sharedSetup
	rangeCmd.Flags().Int("days", contract.DefaultDays, "Number of days to forecast")
	metricsCmd.Flags().Bool("force", false, "Fetch metrics even when the cached copy is fresh")
	districtCmd.Flags().String("district", "", "District id or name")
	historyShowCmd.Flags().String("district", "", "District id or name")
	watchCmd.Flags().String("refresh-interval", contract.DefaultRefreshInterval.String(), "Interval between automatic refreshes")

	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
