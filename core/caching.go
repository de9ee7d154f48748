package core

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/binforecast/internal/contract"
	"github.com/huangsam/binforecast/internal/mlclient"
	"github.com/huangsam/binforecast/schema"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

// maxMetricsAge bounds how old persisted metrics may be before they are ignored.
const maxMetricsAge = 30 * 24 * time.Hour

// MetricsCache persists model metrics per endpoint in a cache store.
type MetricsCache struct {
	store contract.CacheStore
	now   func() time.Time
}

var _ mlclient.MetricsPersister = &MetricsCache{}

// NewMetricsCache wraps a cache store. A nil store disables persistence.
func NewMetricsCache(store contract.CacheStore) *MetricsCache {
	return &MetricsCache{store: store, now: time.Now}
}

// Load returns the persisted metrics of the first endpoint with a valid entry.
func (mc *MetricsCache) Load(endpoints []string) (*schema.ModelMetrics, bool) {
	if mc == nil || mc.store == nil {
		return nil, false
	}
	for _, endpoint := range endpoints {
		if m := mc.checkCacheHit(generateCacheKey(endpoint)); m != nil {
			return m, true
		}
	}
	return nil, false
}

// Save stores metrics for an endpoint. Failures are ignored since the cache is best effort.
func (mc *MetricsCache) Save(endpoint string, m *schema.ModelMetrics) {
	if mc == nil || mc.store == nil || m == nil {
		return
	}
	if data, err := json.Marshal(m); err == nil {
		_ = mc.store.Set(generateCacheKey(endpoint), data, currentCacheVersion, mc.now().Unix())
	}
}

// checkCacheHit attempts to retrieve and validate a cached result
func (mc *MetricsCache) checkCacheHit(key string) *schema.ModelMetrics {
	data, version, ts, err := mc.store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion || mc.now().Sub(time.Unix(ts, 0)) > maxMetricsAge {
		return nil
	}
	var result schema.ModelMetrics
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return &result
}

// generateCacheKey creates a unique key for the metrics of an endpoint
func generateCacheKey(endpoint string) string {
	key := fmt.Sprintf("metrics:%s", endpoint)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
