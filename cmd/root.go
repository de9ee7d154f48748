package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/binforecast/core"
	"github.com/huangsam/binforecast/internal/contract"
	"github.com/huangsam/binforecast/internal/iocache"
	"github.com/huangsam/binforecast/internal/outwriter"
	"github.com/huangsam/binforecast/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// cacheManager is the global persistence manager instance.
var cacheManager contract.CacheManager

// logger is the operational logger, replaced once the log level is known.
var logger = zap.NewNop()

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "binforecast",
	Short: "Forecast next-day waste volume and bin overflow risk per barangay.",
	Long: `binforecast asks a remote model service for a batch waste forecast and
falls back to a local simulation whenever the service cannot be used.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Check if a specific config file is provided
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		// Set config file name and paths
		viper.SetConfigName(".binforecast") // Name of config file (without extension)
		viper.SetConfigType("yaml")         // We'll use YAML format
		viper.AddConfigPath(".")            // Look in the current directory
		viper.AddConfigPath("$HOME")        // Look in the home directory
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("BINFORECAST")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("limit", contract.DefaultResultLimit)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("days", contract.DefaultDays)
	viper.SetDefault("probe-timeout", contract.DefaultProbeTimeout.String())
	viper.SetDefault("batch-timeout", contract.DefaultBatchTimeout.String())
	viper.SetDefault("metrics-ttl", contract.DefaultMetricsTTL.String())
	viper.SetDefault("refresh-interval", contract.DefaultRefreshInterval.String())
	viper.SetDefault("log-level", "warn")
	viper.SetDefault("cache-backend", schema.SQLiteBackend)
	viper.SetDefault("cache-db-connect", "")
	viper.SetDefault("history-backend", "")
	viper.SetDefault("history-db-connect", "")
	viper.SetDefault("color", "yes")
}

// sharedSetup unmarshals config and runs validation.
func sharedSetup(_ context.Context, cmd *cobra.Command, _ []string) error {
	// 1. Bind the flags local to this subcommand. Several subcommands share
	// flag names, so binding happens only for the command being run.
	if err := viper.BindPFlags(cmd.LocalFlags()); err != nil {
		return fmt.Errorf("failed to bind %s flags: %w", cmd.Name(), err)
	}

	// 2. Read config file. This merges defaults, file, env, and flags.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}

	// 3. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 4. Run all validation and complex parsing.
	// This function populates the global 'cfg' from 'input'.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}
	color.NoColor = !cfg.UseColors

	l, err := contract.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger = l

	// 5. Initialize persistence layer with validated config
	if err := iocache.InitCaching(cfg.CacheBackend, cfg.CacheDBConnect, cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	if cacheManager == nil {
		cacheManager = iocache.Manager
	}
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	// Load config file if present
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// buildEngine wires the forecast engine from the validated config.
func buildEngine() (*core.Engine, error) {
	return core.BuildEngine(cfg, cacheManager, logger)
}

// runExecutor adapts a core executor into a cobra Run function.
func runExecutor(action string, fn core.ExecutorFunc) func(*cobra.Command, []string) {
	return func(_ *cobra.Command, _ []string) {
		eng, err := buildEngine()
		if err != nil {
			contract.LogFatal("Cannot build forecast engine", err)
		}
		if err := fn(rootCtx, eng, cfg, outwriter.NewOutWriter()); err != nil {
			contract.LogFatal(action, err)
		}
	}
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logger.Sync() }()
	return rootCmd.Execute()
}

// SetCacheManager sets the global cache manager.
func SetCacheManager(mgr contract.CacheManager) {
	cacheManager = mgr
}
