// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/binforecast/internal/contract"
	"github.com/huangsam/binforecast/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

var _ contract.OutputWriter = &OutWriter{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteForecast prints ranked predictions of one forecast run using the configured output format.
func (ow *OutWriter) WriteForecast(result *schema.ForecastResult, preds []schema.EnrichedPrediction, cfg *contract.Config, duration time.Duration) error {
	return WriteForecastResults(result, preds, cfg, duration)
}

// WriteRange prints a multi-day forecast using the configured output format.
func (ow *OutWriter) WriteRange(days []schema.RangeDay, cfg *contract.Config, duration time.Duration) error {
	return WriteRangeResults(days, cfg, duration)
}

// WriteMetrics prints model metrics using the configured output format.
func (ow *OutWriter) WriteMetrics(metrics *schema.ModelMetrics, endpoint string, cfg *contract.Config) error {
	return WriteModelMetrics(metrics, endpoint, cfg)
}

// WriteSummary prints an aggregated forecast summary using the configured output format.
func (ow *OutWriter) WriteSummary(summary schema.ForecastSummary, cfg *contract.Config) error {
	return WriteSummaryResults(summary, cfg)
}

// WriteDistrictForecast prints the forecast of a single district using the configured output format.
func (ow *OutWriter) WriteDistrictForecast(p schema.EnrichedPrediction, cfg *contract.Config) error {
	return WriteDistrictForecastResult(p, cfg)
}

// WriteDistrictHistory prints the recorded history of a single district using the configured output format.
func (ow *OutWriter) WriteDistrictHistory(history schema.DistrictHistory, cfg *contract.Config) error {
	return WriteDistrictHistoryResult(history, cfg)
}

// WriteDistricts prints the district reference data using the configured output format.
func (ow *OutWriter) WriteDistricts(districts []schema.District, cfg *contract.Config) error {
	return WriteDistrictList(districts, cfg)
}
