package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/huangsam/binforecast/schema"
	"go.uber.org/zap"
)

// Refresher re-runs the forecast pipeline on an interval and on demand.
// Overlapping refreshes are allowed; the engine keeps whichever finishes last.
type Refresher struct {
	engine   *Engine
	interval time.Duration
	logger   *zap.Logger
	today    func() time.Time

	outMu    sync.Mutex
	onResult func(*schema.ForecastResult)

	refreshes atomic.Int64
}

// NewRefresher creates a refresher. onResult receives every refreshed forecast
// and is never called concurrently.
func NewRefresher(eng *Engine, interval time.Duration, logger *zap.Logger, onResult func(*schema.ForecastResult)) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		engine:   eng,
		interval: interval,
		logger:   logger,
		today:    Today,
		onResult: onResult,
	}
}

// Today returns the current local date at midnight.
func Today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// Refreshes returns the number of completed refreshes.
func (r *Refresher) Refreshes() int64 {
	return r.refreshes.Load()
}

// Refresh runs one forecast cycle for today and publishes the result.
func (r *Refresher) Refresh(ctx context.Context) *schema.ForecastResult {
	trigger := getRefreshTrigger(ctx)
	result, err := r.engine.Forecast(ctx, r.today())
	if err != nil {
		r.logger.Warn("failed to record forecast history", zap.String("trigger", trigger), zap.Error(err))
	}
	r.refreshes.Add(1)
	r.logger.Info("forecast refreshed",
		zap.String("trigger", trigger),
		zap.String("forecast_date", result.ForecastDate),
		zap.String("source", string(result.Source)),
		zap.Int("districts", len(result.Predictions)))

	if r.onResult != nil {
		r.outMu.Lock()
		r.onResult(result)
		r.outMu.Unlock()
	}
	return result
}

// Run refreshes immediately, then on every interval tick and whenever manual
// receives a value. It returns once ctx is cancelled and in-flight manual
// refreshes have finished.
func (r *Refresher) Run(ctx context.Context, manual <-chan struct{}) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	r.Refresh(WithRefreshTrigger(ctx, TriggerInitial))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresh loop stopped", zap.Int64("refreshes", r.Refreshes()))
			return nil
		case <-ticker.C:
			r.Refresh(WithRefreshTrigger(ctx, TriggerInterval))
		case _, ok := <-manual:
			if !ok {
				manual = nil // a nil channel blocks forever
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				r.Refresh(WithRefreshTrigger(ctx, TriggerManual))
			}()
		}
	}
}
