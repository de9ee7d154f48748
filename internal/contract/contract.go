// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/binforecast/schema"
)

// Simulator produces local predictions without any I/O.
// This allows the remote client to fall back without knowing how simulation works.
type Simulator interface {
	Generate(districts []schema.District, forecastDate time.Time) []schema.Prediction
}

// Forecaster resolves forecasts and model metrics.
// Implementations never fail: connectivity problems degrade to simulation.
type Forecaster interface {
	// Initialize probes for a remote endpoint and prefetches metrics.
	// It reports whether a remote endpoint is available.
	Initialize(ctx context.Context) bool

	// Forecast returns one prediction per district for the day after referenceDate.
	Forecast(ctx context.Context, districts []schema.District, referenceDate time.Time) *schema.ForecastResult

	// FetchMetrics returns the model metrics, reusing a fresh cached value unless force is set.
	FetchMetrics(ctx context.Context, force bool) *schema.ModelMetrics

	// ActiveEndpoint returns the remembered endpoint, or "" when none is active.
	ActiveEndpoint() string
}

// OutputWriter renders results in the configured output format.
// This allows the core logic to be tested without touching stdout or files.
type OutputWriter interface {
	WriteForecast(result *schema.ForecastResult, preds []schema.EnrichedPrediction, cfg *Config, duration time.Duration) error
	WriteRange(days []schema.RangeDay, cfg *Config, duration time.Duration) error
	WriteMetrics(metrics *schema.ModelMetrics, endpoint string, cfg *Config) error
	WriteSummary(summary schema.ForecastSummary, cfg *Config) error
	WriteDistrictForecast(p schema.EnrichedPrediction, cfg *Config) error
	WriteDistrictHistory(history schema.DistrictHistory, cfg *Config) error
	WriteDistricts(districts []schema.District, cfg *Config) error
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetMetricsStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore defines the interface for tracking forecast runs and their predictions.
type HistoryStore interface {
	// BeginRun creates a new forecast run and returns its unique ID
	BeginRun(info schema.RunInfo) (int64, error)

	// EndRun updates the forecast run with completion data
	EndRun(runID int64, outcome schema.RunOutcome) error

	// RecordPrediction stores one prediction of a run
	RecordPrediction(runID int64, p schema.Prediction) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns returns every recorded run ordered by run id
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllPredictions returns every recorded prediction ordered by run id
	GetAllPredictions() ([]schema.PredictionRecord, error)

	// GetDistrictPredictions returns the predictions of one district in chronological order
	GetDistrictPredictions(barangayID string) ([]schema.PredictionRecord, error)

	// Close closes the underlying connection
	Close() error
}
