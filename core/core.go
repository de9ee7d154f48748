// Package core has core logic for forecasting, summarizing and refreshing.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/binforecast/core/algo"
	"github.com/huangsam/binforecast/internal/contract"
	"github.com/huangsam/binforecast/internal/districts"
	"github.com/huangsam/binforecast/schema"
)

// defaultTopN is the number of top districts in summaries when no limit is set.
const defaultTopN = 5

// ExecutorFunc defines the function signature for executing different forecast modes.
type ExecutorFunc func(ctx context.Context, eng *Engine, cfg *contract.Config, w contract.OutputWriter) error

// topN returns the summary ranking size for the configured limit.
func topN(cfg *contract.Config) int {
	if cfg.ResultLimit > 0 {
		return cfg.ResultLimit
	}
	return defaultTopN
}

// warnRecording reports a history failure without discarding the forecast.
func warnRecording(err error) {
	if err != nil {
		contract.LogWarn("Failed to record forecast history", err)
	}
}

// ExecuteForecast forecasts the day after the reference date and prints ranked predictions.
// It serves as the main entry point for the 'forecast' mode.
func ExecuteForecast(ctx context.Context, eng *Engine, cfg *contract.Config, w contract.OutputWriter) error {
	start := time.Now()
	result, recErr := eng.Forecast(ctx, cfg.ReferenceDate)
	preds := algo.Enrich(result.Predictions, eng.Districts(), cfg.ResultLimit)
	duration := time.Since(start)
	if err := w.WriteForecast(result, preds, cfg, duration); err != nil {
		return err
	}
	warnRecording(recErr)
	return nil
}

// ExecuteRange forecasts the configured number of days and prints one summary per day.
func ExecuteRange(ctx context.Context, eng *Engine, cfg *contract.Config, w contract.OutputWriter) error {
	start := time.Now()
	results, recErr := eng.ForecastRange(ctx, cfg.ReferenceDate, cfg.Days)
	if len(results) == 0 {
		return recErr
	}
	days := make([]schema.RangeDay, 0, len(results))
	for _, result := range results {
		days = append(days, schema.RangeDay{
			RunID:           result.RunID,
			Source:          result.Source,
			ForecastSummary: algo.Summarize(result.Predictions, eng.Districts(), topN(cfg)),
			Predictions:     algo.Enrich(result.Predictions, eng.Districts(), 0),
		})
	}
	duration := time.Since(start)
	if err := w.WriteRange(days, cfg, duration); err != nil {
		return err
	}
	warnRecording(recErr)
	return nil
}

// ExecuteMetrics prints the model metrics, fetching them when the cache is stale or forced.
func ExecuteMetrics(ctx context.Context, eng *Engine, cfg *contract.Config, w contract.OutputWriter) error {
	metrics := eng.Metrics(ctx, cfg.ForceMetrics)
	return w.WriteMetrics(metrics, eng.Forecaster().ActiveEndpoint(), cfg)
}

// ExecuteSummary prints the aggregated summary of the forecast for the reference date.
func ExecuteSummary(ctx context.Context, eng *Engine, cfg *contract.Config, w contract.OutputWriter) error {
	result, recErr := eng.ForecastForDate(ctx, cfg.ReferenceDate)
	summary := algo.Summarize(result.Predictions, eng.Districts(), topN(cfg))
	if err := w.WriteSummary(summary, cfg); err != nil {
		return err
	}
	warnRecording(recErr)
	return nil
}

// DistrictForecast returns the ranked prediction of one district, looked up by id or name.
func DistrictForecast(ctx context.Context, eng *Engine, key string, referenceDate time.Time) (schema.EnrichedPrediction, error) {
	if key == "" {
		return schema.EnrichedPrediction{}, errors.New("--district is required")
	}
	district, ok := districts.Find(eng.Districts(), key)
	if !ok {
		return schema.EnrichedPrediction{}, fmt.Errorf("unknown district %q", key)
	}
	result, err := eng.ForecastForDate(withSuppressHistory(ctx), referenceDate)
	if err != nil {
		return schema.EnrichedPrediction{}, err
	}
	for _, p := range algo.Enrich(result.Predictions, eng.Districts(), 0) {
		if p.BarangayID == district.ID {
			return p, nil
		}
	}
	return schema.EnrichedPrediction{}, fmt.Errorf("no prediction for district %s", district.ID)
}

// ExecuteDistrictForecast prints the forecast of the configured district with its factors.
func ExecuteDistrictForecast(ctx context.Context, eng *Engine, cfg *contract.Config, w contract.OutputWriter) error {
	p, err := DistrictForecast(ctx, eng, cfg.DistrictID, cfg.ReferenceDate)
	if err != nil {
		return err
	}
	return w.WriteDistrictForecast(p, cfg)
}

// ExecuteDistrictHistory prints the recorded history of the configured district.
func ExecuteDistrictHistory(_ context.Context, eng *Engine, cfg *contract.Config, w contract.OutputWriter) error {
	if cfg.DistrictID == "" {
		return errors.New("--district is required")
	}
	id := cfg.DistrictID
	if district, ok := districts.Find(eng.Districts(), id); ok {
		id = district.ID
	}
	history, err := DistrictHistory(eng.History(), id)
	if err != nil {
		return err
	}
	return w.WriteDistrictHistory(history, cfg)
}

// ExecuteDistricts prints the active district reference data.
func ExecuteDistricts(_ context.Context, eng *Engine, cfg *contract.Config, w contract.OutputWriter) error {
	return w.WriteDistricts(eng.Districts(), cfg)
}
