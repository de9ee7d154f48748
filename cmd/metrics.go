package cmd

import (
	"github.com/huangsam/binforecast/core"
	"github.com/spf13/cobra"
)

// metricsCmd displays the evaluation metrics of the forecasting model.
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display evaluation metrics and feature importance of the model",
	Long: `Show the metrics reported by the model service: R2, MSE, accuracy,
explained variance, training time, version and feature importance.

Metrics are cached for --metrics-ttl and persisted per endpoint in the cache
backend. When no endpoint is reachable, the last persisted metrics are used,
or the built-in defaults when nothing was ever fetched.

Examples:
  # Show model metrics
  binforecast metrics

  # Bypass the cache
  binforecast metrics --force`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor("Cannot display metrics", core.ExecuteMetrics),
}
