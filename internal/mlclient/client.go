// Package mlclient talks to the waste forecasting model service. Every failure
// on the remote path degrades to local simulation, so callers always receive a
// usable forecast.
package mlclient

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/binforecast/core/sim"
	"github.com/huangsam/binforecast/internal/contract"
	"github.com/huangsam/binforecast/schema"
	"go.uber.org/zap"
)

// MetricsPersister keeps the last fetched metrics across processes.
type MetricsPersister interface {
	// Load returns persisted metrics for the first endpoint that has an entry.
	Load(endpoints []string) (*schema.ModelMetrics, bool)

	// Save persists metrics fetched from an endpoint.
	Save(endpoint string, m *schema.ModelMetrics)
}

// Options configures a Client. Zero values fall back to the defaults in contract.
type Options struct {
	Endpoints    []string
	ProbeTimeout time.Duration
	BatchTimeout time.Duration
	MetricsTTL   time.Duration
	HTTPClient   *http.Client
	Persister    MetricsPersister
	Logger       *zap.Logger
}

// Client is the remote forecast client. Its state is guarded by mu and is
// never shared between clients.
type Client struct {
	endpoints    []string
	httpClient   *http.Client
	probeTimeout time.Duration
	batchTimeout time.Duration
	metricsTTL   time.Duration
	simulator    contract.Simulator
	persister    MetricsPersister
	logger       *zap.Logger
	now          func() time.Time

	mu        sync.Mutex
	activeURL string
	metrics   *schema.ModelMetrics
	fetchedAt time.Time
}

var _ contract.Forecaster = &Client{}

// New creates a client that falls back to simulator whenever the remote path fails.
func New(simulator contract.Simulator, opts Options) *Client {
	c := &Client{
		endpoints:    slices.Clone(opts.Endpoints),
		httpClient:   opts.HTTPClient,
		probeTimeout: opts.ProbeTimeout,
		batchTimeout: opts.BatchTimeout,
		metricsTTL:   opts.MetricsTTL,
		simulator:    simulator,
		persister:    opts.Persister,
		logger:       opts.Logger,
		now:          time.Now,
	}
	if c.endpoints == nil {
		c.endpoints = slices.Clone(contract.DefaultEndpoints)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.probeTimeout <= 0 {
		c.probeTimeout = contract.DefaultProbeTimeout
	}
	if c.batchTimeout <= 0 {
		c.batchTimeout = contract.DefaultBatchTimeout
	}
	if c.metricsTTL <= 0 {
		c.metricsTTL = contract.DefaultMetricsTTL
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Initialize probes for a remote endpoint and force-prefetches metrics.
func (c *Client) Initialize(ctx context.Context) bool {
	base, ok := c.discover(ctx)
	if !ok {
		c.logger.Warn("no model endpoint reachable, using simulation", zap.Strings("endpoints", c.endpoints))
		return false
	}
	c.logger.Info("model endpoint available", zap.String("endpoint", base))
	c.FetchMetrics(ctx, true)
	return true
}

// ActiveEndpoint returns the remembered endpoint, or "" when none is active.
func (c *Client) ActiveEndpoint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeURL
}

// Forecast returns one prediction per district for the day after referenceDate.
// It never fails: any remote error yields a simulated result.
func (c *Client) Forecast(ctx context.Context, districts []schema.District, referenceDate time.Time) *schema.ForecastResult {
	forecastDate := sim.ForecastDateFor(referenceDate)

	base, ok := c.discover(ctx)
	if !ok {
		c.logger.Warn("falling back to simulation", zap.String("reason", "no endpoint reachable"))
		return c.simulate(districts, referenceDate, forecastDate)
	}

	preds, metrics, err := c.predictBatch(ctx, base, districts, forecastDate)
	if err != nil {
		c.forget(base)
		c.logger.Warn("falling back to simulation",
			zap.String("endpoint", base),
			zap.Error(err))
		return c.simulate(districts, referenceDate, forecastDate)
	}

	if metrics.IsZero() {
		metrics = c.FetchMetrics(ctx, false)
	} else {
		c.adoptMetrics(base, metrics)
	}

	c.logger.Info("remote forecast generated",
		zap.String("endpoint", base),
		zap.Int("districts", len(preds)),
		zap.String("forecast_date", forecastDate.Format(schema.DateLayout)))

	return &schema.ForecastResult{
		RunID:         uuid.NewString(),
		ReferenceDate: referenceDate.Format(schema.DateLayout),
		ForecastDate:  forecastDate.Format(schema.DateLayout),
		Source:        schema.RemoteSource,
		Endpoint:      base,
		GeneratedAt:   c.now(),
		Predictions:   preds,
		Metrics:       metrics,
	}
}

// simulate builds the fallback result. It makes no network calls.
func (c *Client) simulate(districts []schema.District, referenceDate, forecastDate time.Time) *schema.ForecastResult {
	return &schema.ForecastResult{
		RunID:         uuid.NewString(),
		ReferenceDate: referenceDate.Format(schema.DateLayout),
		ForecastDate:  forecastDate.Format(schema.DateLayout),
		Source:        schema.SimulationSource,
		GeneratedAt:   c.now(),
		Predictions:   c.simulator.Generate(districts, forecastDate),
		Metrics:       c.fallbackMetrics(),
	}
}

// forget clears the active endpoint so the next call probes again.
func (c *Client) forget(base string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activeURL == base {
		c.activeURL = ""
	}
}
