package mlclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/huangsam/binforecast/schema"
	"go.uber.org/zap"
)

// metricsFresh reports whether metrics fetched at last are still usable at now.
func metricsFresh(now, last time.Time, ttl time.Duration) bool {
	return !last.IsZero() && now.Sub(last) < ttl
}

// FetchMetrics returns model metrics. A value fetched within the TTL is
// returned as the same instance unless force is set. When the service cannot
// be reached the cached, persisted or default metrics are returned instead.
func (c *Client) FetchMetrics(ctx context.Context, force bool) *schema.ModelMetrics {
	c.mu.Lock()
	if !force && c.metrics != nil && metricsFresh(c.now(), c.fetchedAt, c.metricsTTL) {
		m := c.metrics
		c.mu.Unlock()
		return m
	}
	c.mu.Unlock()

	base, ok := c.discover(ctx)
	if !ok {
		return c.fallbackMetrics()
	}
	m, err := c.getMetrics(ctx, base)
	if err != nil {
		c.logger.Warn("metrics fetch failed", zap.String("endpoint", base), zap.Error(err))
		return c.fallbackMetrics()
	}
	c.logger.Debug("metrics fetched", zap.String("endpoint", base), zap.String("model_version", m.ModelVersion))
	c.adoptMetrics(base, m)
	return m
}

// getMetrics calls GET {base}/api/metrics.
func (c *Client) getMetrics(ctx context.Context, base string) (*schema.ModelMetrics, error) {
	ctx, cancel := context.WithTimeout(ctx, c.batchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/metrics", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("metrics request returned %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	var m schema.ModelMetrics
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode metrics: %w", err)
	}
	if m.IsZero() {
		return nil, fmt.Errorf("metrics response is empty")
	}
	return &m, nil
}

// adoptMetrics replaces the cached metrics as a whole and persists them.
func (c *Client) adoptMetrics(base string, m *schema.ModelMetrics) {
	c.mu.Lock()
	c.metrics = m
	c.fetchedAt = c.now()
	c.mu.Unlock()

	if c.persister != nil {
		c.persister.Save(base, m)
	}
}

// fallbackMetrics returns the last cached metrics, then persisted metrics,
// then the documented defaults. It makes no network calls.
func (c *Client) fallbackMetrics() *schema.ModelMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.metrics != nil {
		return c.metrics
	}
	if c.persister != nil {
		if m, ok := c.persister.Load(c.endpoints); ok && !m.IsZero() {
			c.metrics = m // fetchedAt stays zero so the next fetch still goes remote
			return m
		}
	}
	return schema.DefaultModelMetrics()
}

// currentThresholds returns the volume thresholds of the cached metrics or the defaults.
func (c *Client) currentThresholds() schema.VolumeThresholds {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metrics.Thresholds()
}
