//go:build basic

package integration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/binforecast/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// forecastOutput mirrors the JSON output of the forecast command.
type forecastOutput struct {
	ReferenceDate  string                      `json:"reference_date"`
	ForecastDate   string                      `json:"forecast_date"`
	Source         string                      `json:"source"`
	TotalDistricts int                         `json:"total_districts"`
	Predictions    []schema.EnrichedPrediction `json:"predictions"`
}

func runForecast(t *testing.T, args ...string) forecastOutput {
	t.Helper()
	t.Setenv("BINFORECAST_CACHE_BACKEND", "none")
	out, err := runCommand(t, append([]string{"forecast", "--output", "json"}, args...)...)
	require.NoError(t, err)

	var result forecastOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	return result
}

// TestSeededForecastIsReproducible checks the simulated forecast of the embedded dataset.
func TestSeededForecastIsReproducible(t *testing.T) {
	first := runForecast(t, "--seed", "42", "--date", "2025-12-04")
	second := runForecast(t, "--seed", "42", "--date", "2025-12-04")

	assert.Equal(t, "2025-12-05", first.ForecastDate)
	assert.Equal(t, "simulation", first.Source)
	assert.Equal(t, 80, first.TotalDistricts)
	require.Len(t, first.Predictions, 80)
	require.Len(t, second.Predictions, 80)

	seen := map[string]bool{}
	for i, p := range first.Predictions {
		assert.Equal(t, i+1, p.Rank)
		assert.False(t, seen[p.BarangayID], "duplicate district %s", p.BarangayID)
		seen[p.BarangayID] = true
		assert.GreaterOrEqual(t, p.OverflowProbability, 0.0)
		assert.LessOrEqual(t, p.OverflowProbability, 1.0)
		assert.Contains(t, schema.ValidRiskLevels, p.OverflowRisk)

		assert.Equal(t, p.BarangayID, second.Predictions[i].BarangayID)
		assert.InDelta(t, p.PredictedVolume, second.Predictions[i].PredictedVolume, 1e-9)
	}
}

// TestForecastLimit checks that --limit trims the ranking but not the total.
func TestForecastLimit(t *testing.T) {
	result := runForecast(t, "--seed", "7", "--limit", "5")
	assert.Equal(t, 80, result.TotalDistricts)
	assert.Len(t, result.Predictions, 5)
}

// TestHistoryWithSQLite records forecasts, then reads them back and exports them.
func TestHistoryWithSQLite(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BINFORECAST_CACHE_BACKEND", "none")
	t.Setenv("BINFORECAST_HISTORY_BACKEND", "sqlite")
	t.Setenv("BINFORECAST_HISTORY_DB_CONNECT", filepath.Join(dir, "history.db"))

	_, err := runCommand(t, "history", "migrate")
	require.NoError(t, err)

	_, err = runCommand(t, "forecast", "--seed", "1", "--date", "2025-12-04", "--output", "json")
	require.NoError(t, err)
	_, err = runCommand(t, "range", "--seed", "1", "--date", "2025-12-05", "--days", "2", "--output", "json")
	require.NoError(t, err)

	out, err := runCommand(t, "history", "show", "--district", "Carmen", "--output", "json")
	require.NoError(t, err)
	var history schema.DistrictHistory
	require.NoError(t, json.Unmarshal([]byte(out), &history))
	assert.Equal(t, "Carmen", history.BarangayName)
	require.Len(t, history.Predictions, 3)
	assert.Equal(t, "2025-12-05", history.Predictions[0].Date)
	assert.Equal(t, "2025-12-07", history.Predictions[2].Date)

	status, err := runCommand(t, "history", "status")
	require.NoError(t, err)
	assert.Contains(t, status, "Total Runs: 3")

	exportBase := filepath.Join(dir, "export")
	_, err = runCommand(t, "history", "export", "--output-file", exportBase)
	require.NoError(t, err)
	for _, suffix := range []string{".forecast_runs.parquet", ".forecast_predictions.parquet"} {
		info, err := os.Stat(exportBase + suffix)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}
