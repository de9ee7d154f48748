package cmd

import (
	"github.com/huangsam/binforecast/core"
	"github.com/spf13/cobra"
)

// forecastCmd forecasts the day after the reference date.
var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Show tomorrow's waste forecast ranked by predicted volume.",
	Long: `Forecast waste volume, overflow risk and volume tier of every barangay for the
day after the reference date.

The model service is probed first. When no endpoint is healthy, or the batch call
fails, the forecast is simulated locally from the district reference data.

Examples:
  # Forecast tomorrow for all districts
  binforecast forecast

  # Top 10 districts with confidence, events and multipliers
  binforecast forecast --limit 10 --detail

  # Forecast from a given reference date without the model service
  binforecast forecast --date 2025-12-04 --offline --seed 42

  # Export for a BI tool
  binforecast forecast --output parquet --output-file forecast.parquet`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor("Cannot run forecast", core.ExecuteForecast),
}

// rangeCmd forecasts the next N days.
var rangeCmd = &cobra.Command{
	Use:   "range",
	Short: "Summarize the forecast of each of the next days.",
	Long: `Forecast each of the next days and print one summary per forecast date.

Each day is forecast independently through the same pipeline, so each day may
come from the model service or from simulation.

Examples:
  # Next week
  binforecast range

  # Next 14 days as JSON, including every prediction
  binforecast range --days 14 --output json --detail`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor("Cannot run forecast range", core.ExecuteRange),
}

// summaryCmd aggregates the forecast.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Aggregate the forecast into risk counts and top districts.",
	Long: `Summarize the forecast for the reference date.

Reports districts per overflow risk, total predicted volume, average confidence,
average capacity utilization, the volume tier distribution and the top districts
by volume (--limit, defaults to 5).

Examples:
  binforecast summary
  binforecast summary --limit 10 --output csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor("Cannot summarize forecast", core.ExecuteSummary),
}

// districtCmd forecasts a single district.
var districtCmd = &cobra.Command{
	Use:   "district",
	Short: "Show the forecast of one district with its contributing factors.",
	Long: `Forecast a single barangay, looked up by id or by name.

Examples:
  binforecast district --district 9
  binforecast district --district Carmen --date 2025-12-24`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor("Cannot forecast district", core.ExecuteDistrictForecast),
}
