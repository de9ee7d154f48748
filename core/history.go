package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/binforecast/core/algo"
	"github.com/huangsam/binforecast/internal/contract"
	"github.com/huangsam/binforecast/schema"
)

// ErrHistoryDisabled is returned when history is requested without a history store.
var ErrHistoryDisabled = errors.New("forecast history is disabled (set --history-backend)")

// configParams captures the settings that shaped a run.
func configParams(cfg *contract.Config) map[string]any {
	if cfg == nil {
		return nil
	}
	params := map[string]any{
		"endpoints": cfg.Endpoints,
		"offline":   cfg.Offline,
		"seed":      cfg.Seed,
		"days":      cfg.Days,
		"events":    len(cfg.Events),
	}
	if cfg.DistrictsPath != "" {
		params["districts"] = cfg.DistrictsPath
	}
	return params
}

// recordRun stores a forecast run and all of its predictions.
func recordRun(store contract.HistoryStore, cfg *contract.Config, result *schema.ForecastResult, start, end time.Time) error {
	runID, err := store.BeginRun(schema.RunInfo{
		RunUUID:       result.RunID,
		ReferenceDate: result.ReferenceDate,
		ForecastDate:  result.ForecastDate,
		StartTime:     start,
		ConfigParams:  configParams(cfg),
	})
	if err != nil {
		return fmt.Errorf("failed to begin forecast run: %w", err)
	}

	for _, p := range result.Predictions {
		if err := store.RecordPrediction(runID, p); err != nil {
			return fmt.Errorf("failed to record prediction for %s: %w", p.BarangayID, err)
		}
	}

	if err := store.EndRun(runID, schema.RunOutcome{
		EndTime:       end,
		Source:        result.Source,
		Endpoint:      result.Endpoint,
		DistrictCount: len(result.Predictions),
	}); err != nil {
		return fmt.Errorf("failed to end forecast run %d: %w", runID, err)
	}
	return nil
}

// DistrictHistory loads the recorded predictions of one district and derives its trend.
func DistrictHistory(store contract.HistoryStore, barangayID string) (schema.DistrictHistory, error) {
	if store == nil {
		return schema.DistrictHistory{}, ErrHistoryDisabled
	}
	records, err := store.GetDistrictPredictions(barangayID)
	if err != nil {
		return schema.DistrictHistory{}, fmt.Errorf("failed to load history of district %s: %w", barangayID, err)
	}
	return algo.BuildDistrictHistory(barangayID, records), nil
}
