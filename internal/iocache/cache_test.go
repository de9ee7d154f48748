package iocache

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/binforecast/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetManager(t *testing.T) {
	t.Helper()
	initOnce = sync.Once{}  // Reset for test
	closeOnce = sync.Once{} // Reset for test
	t.Cleanup(func() {
		CloseCaching()
		Manager = &CacheStoreManager{}
		initOnce = sync.Once{}
		closeOnce = sync.Once{}
	})
}

func TestInitCaching(t *testing.T) {
	t.Run("sqlite stores", func(t *testing.T) {
		resetManager(t)
		dir := t.TempDir()
		cachePath := filepath.Join(dir, "cache.db")
		historyPath := filepath.Join(dir, "history.db")

		err := InitCaching(schema.SQLiteBackend, cachePath, schema.SQLiteBackend, historyPath)
		require.NoError(t, err)
		assert.NotNil(t, Manager.GetMetricsStore())
		assert.NotNil(t, Manager.GetHistoryStore())

		_, err = os.Stat(cachePath)
		assert.NoError(t, err, "cache database file should be created")
		_, err = os.Stat(historyPath)
		assert.NoError(t, err, "history database file should be created")
	})

	t.Run("idempotent setup", func(t *testing.T) {
		resetManager(t)
		cachePath := filepath.Join(t.TempDir(), "cache.db")
		assert.NoError(t, InitCaching(schema.SQLiteBackend, cachePath, "", ""))
		assert.NoError(t, InitCaching(schema.MySQLBackend, "bad", "", ""), "second init is a no-op")
		assert.Nil(t, Manager.GetHistoryStore(), "empty history backend disables history")

		CloseCaching()
		CloseCaching()
	})

	t.Run("none backend", func(t *testing.T) {
		resetManager(t)
		require.NoError(t, InitCaching(schema.NoneBackend, "", schema.NoneBackend, ""))
		assert.NotNil(t, Manager.GetMetricsStore())
		assert.NotNil(t, Manager.GetHistoryStore())
	})

	t.Run("unsupported backend", func(t *testing.T) {
		resetManager(t)
		err := InitCaching("oracle", "", "", "")
		assert.Error(t, err)
	})
}

func TestCacheStoreNoneBackend(t *testing.T) {
	store, err := NewCacheStore("test_table", schema.NoneBackend, "")
	require.NoError(t, err)

	_, _, _, err = store.Get("test_key")
	assert.Error(t, err, "Get on none backend always misses")

	assert.NoError(t, store.Set("test_key", []byte("value"), 1, 123456789))
	_, _, _, err = store.Get("test_key")
	assert.Error(t, err)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.Equal(t, "none", status.Backend)

	assert.NoError(t, store.Close())
}

func TestCacheStoreSQLite(t *testing.T) {
	store, err := NewCacheStore(metricsTable, schema.SQLiteBackend, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, _, _, err = store.Get("missing")
	assert.Error(t, err)

	now := time.Now().Unix()
	require.NoError(t, store.Set("k1", []byte(`{"r2":0.9}`), 1, now-100))
	require.NoError(t, store.Set("k2", []byte(`{}`), 1, now))

	value, version, ts, err := store.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"r2":0.9}`), value)
	assert.Equal(t, 1, version)
	assert.Equal(t, now-100, ts)

	// Upsert replaces the existing entry
	require.NoError(t, store.Set("k1", []byte(`{"r2":0.95}`), 2, now+5))
	value, version, ts, err = store.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"r2":0.95}`), value)
	assert.Equal(t, 2, version)
	assert.Equal(t, now+5, ts)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 2, status.TotalEntries)
	assert.Equal(t, now+5, status.LastEntryTime.Unix())
	assert.Equal(t, now, status.OldestEntryTime.Unix())
	assert.Greater(t, status.TableSizeBytes, int64(0))
}

func TestNewCacheStoreInvalidTable(t *testing.T) {
	_, err := NewCacheStore("bad;name", schema.SQLiteBackend, ":memory:")
	assert.Error(t, err)
}

func TestClearCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	require.NoError(t, ClearCache(schema.SQLiteBackend, path, ""))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, ClearCache(schema.SQLiteBackend, path, ""), "missing file is not an error")
	assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
	assert.Error(t, ClearHistory("oracle", "", ""))
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name      string
		tableName string
		wantErr   bool
	}{
		{"valid simple name", "metrics_cache", false},
		{"valid with numbers", "table_123", false},
		{"leading underscore", "_private", false},
		{"empty", "", true},
		{"leading digit", "1table", true},
		{"injection", "t; DROP TABLE x", true},
		{"dash", "my-table", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.tableName)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteAndPlaceholders(t *testing.T) {
	assert.Equal(t, "`forecast_runs`", quoteTableName(runsTable, schema.MySQLBackend))
	assert.Equal(t, `"forecast_runs"`, quoteTableName(runsTable, schema.PostgreSQLBackend))
	assert.Equal(t, `"forecast_runs"`, quoteTableName(runsTable, schema.SQLiteBackend))

	assert.Equal(t, []string{"$1", "$2", "$3"}, placeholders(schema.PostgreSQLBackend, 3))
	assert.Equal(t, []string{"?", "?"}, placeholders(schema.MySQLBackend, 2))
}

func TestTimeScanner(t *testing.T) {
	ref := time.Date(2025, 12, 4, 9, 11, 50, 0, time.UTC)
	tests := []struct {
		name    string
		src     any
		valid   bool
		wantErr bool
	}{
		{"nil", nil, false, false},
		{"native", ref, true, false},
		{"rfc3339 text", ref.Format(time.RFC3339Nano), true, false},
		{"mysql bytes", []byte("2025-12-04 09:11:50.000000"), true, false},
		{"garbage", "yesterday", false, true},
		{"wrong type", 42, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts timeScanner
			err := ts.Scan(tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.valid, ts.Valid)
			if tt.valid {
				assert.True(t, ref.Equal(ts.Time))
			}
		})
	}
}

func TestPrintCacheStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintCacheStatus(&buf, schema.CacheStatus{Backend: "sqlite", Connected: true, TotalEntries: 2, TableSizeBytes: 4096})
	out := buf.String()
	assert.Contains(t, out, "Cache Backend: sqlite")
	assert.Contains(t, out, "Total Entries: 2")
	assert.Contains(t, out, "Table Size: 4096 bytes")

	buf.Reset()
	PrintCacheStatus(&buf, schema.CacheStatus{Backend: "none"})
	assert.NotContains(t, buf.String(), "Total Entries")
}
