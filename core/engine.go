package core

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/huangsam/binforecast/core/sim"
	"github.com/huangsam/binforecast/internal/contract"
	"github.com/huangsam/binforecast/internal/districts"
	"github.com/huangsam/binforecast/internal/mlclient"
	"github.com/huangsam/binforecast/schema"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxRangeWorkers bounds the number of concurrent forecasts of a range.
const maxRangeWorkers = 4

// Engine ties the district data, the forecaster and the history store together.
// The latest published forecast is swapped atomically as a whole value.
type Engine struct {
	cfg        *contract.Config
	districts  []schema.District
	forecaster contract.Forecaster
	history    contract.HistoryStore
	logger     *zap.Logger
	now        func() time.Time

	latest atomic.Pointer[schema.ForecastResult]
}

// NewEngine creates an engine. A nil history store disables recording.
func NewEngine(cfg *contract.Config, list []schema.District, forecaster contract.Forecaster, history contract.HistoryStore, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:        cfg,
		districts:  list,
		forecaster: forecaster,
		history:    history,
		logger:     logger,
		now:        time.Now,
	}
}

// BuildEngine loads the configured districts and wires the remote client, its
// simulation fallback and the stores of mgr into an engine.
func BuildEngine(cfg *contract.Config, mgr contract.CacheManager, logger *zap.Logger) (*Engine, error) {
	list, err := districts.Load(cfg.DistrictsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load districts: %w", err)
	}
	if err := districts.Validate(list); err != nil {
		return nil, err
	}

	var metricsStore contract.CacheStore
	var historyStore contract.HistoryStore
	if mgr != nil {
		metricsStore = mgr.GetMetricsStore()
		historyStore = mgr.GetHistoryStore()
	}

	endpoints := cfg.Endpoints
	if cfg.Offline {
		endpoints = []string{}
	}
	generator := sim.NewGenerator(sim.NewRand(cfg.Seed), cfg.Events).WithDateSeed(cfg.Seed)
	client := mlclient.New(generator, mlclient.Options{
		Endpoints:    endpoints,
		ProbeTimeout: cfg.ProbeTimeout,
		BatchTimeout: cfg.BatchTimeout,
		MetricsTTL:   cfg.MetricsTTL,
		Persister:    NewMetricsCache(metricsStore),
		Logger:       logger,
	})
	return NewEngine(cfg, list, client, historyStore, logger), nil
}

// Initialize probes the remote service and prefetches metrics.
func (e *Engine) Initialize(ctx context.Context) bool {
	return e.forecaster.Initialize(ctx)
}

// Districts returns the district reference data.
func (e *Engine) Districts() []schema.District {
	return e.districts
}

// Forecaster returns the underlying forecaster.
func (e *Engine) Forecaster() contract.Forecaster {
	return e.forecaster
}

// History returns the history store, or nil when recording is disabled.
func (e *Engine) History() contract.HistoryStore {
	return e.history
}

// Latest returns the most recently published forecast, or nil before the first one.
func (e *Engine) Latest() *schema.ForecastResult {
	return e.latest.Load()
}

// Forecast produces and publishes the forecast for the day after referenceDate.
// The result is always usable; a non-nil error only reports a failure to record it.
func (e *Engine) Forecast(ctx context.Context, referenceDate time.Time) (*schema.ForecastResult, error) {
	result, err := e.run(ctx, referenceDate)
	e.latest.Store(result)
	return result, err
}

// ForecastForDate returns the forecast for a reference date, reusing the
// latest published forecast when it covers the same date.
func (e *Engine) ForecastForDate(ctx context.Context, referenceDate time.Time) (*schema.ForecastResult, error) {
	if latest := e.latest.Load(); latest != nil && latest.ReferenceDate == referenceDate.Format(schema.DateLayout) {
		return latest, nil
	}
	return e.run(ctx, referenceDate)
}

// ForecastRange forecasts each of the next days starting at the reference date.
// Results are ordered by forecast date; the published forecast is left untouched.
func (e *Engine) ForecastRange(ctx context.Context, referenceDate time.Time, days int) ([]*schema.ForecastResult, error) {
	if days < 1 {
		return nil, fmt.Errorf("days must be at least 1 (received %d)", days)
	}

	// A recording failure of one day must not cancel the others
	results := make([]*schema.ForecastResult, days)
	var g errgroup.Group
	g.SetLimit(maxRangeWorkers)
	for i := range days {
		ref := referenceDate.AddDate(0, 0, i)
		g.Go(func() error {
			result, err := e.run(ctx, ref)
			results[i] = result
			return err
		})
	}
	err := g.Wait()

	slices.SortFunc(results, func(a, b *schema.ForecastResult) int {
		return cmp.Compare(a.ForecastDate, b.ForecastDate)
	})
	return results, err
}

// Metrics returns the model metrics of the forecaster.
func (e *Engine) Metrics(ctx context.Context, force bool) *schema.ModelMetrics {
	return e.forecaster.FetchMetrics(ctx, force)
}

// run forecasts one reference date and records it unless recording is suppressed.
func (e *Engine) run(ctx context.Context, referenceDate time.Time) (*schema.ForecastResult, error) {
	start := e.now()
	result := e.forecaster.Forecast(ctx, e.districts, referenceDate)
	e.logger.Debug("forecast generated",
		zap.String("run_id", result.RunID),
		zap.String("forecast_date", result.ForecastDate),
		zap.String("source", string(result.Source)),
		zap.Duration("duration", e.now().Sub(start)))

	if e.history == nil || shouldSuppressHistory(ctx) {
		return result, nil
	}
	if err := recordRun(e.history, e.cfg, result, start, e.now()); err != nil {
		return result, err
	}
	return result, nil
}
