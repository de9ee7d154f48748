package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/binforecast/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestToday(t *testing.T) {
	today := Today()
	assert.Zero(t, today.Hour())
	assert.Zero(t, today.Minute())
	assert.Zero(t, today.Nanosecond())
}

func TestRefresherRefresh(t *testing.T) {
	eng := newOfflineEngine(t, nil)
	var got []*schema.ForecastResult
	r := NewRefresher(eng, time.Hour, zap.NewNop(), func(result *schema.ForecastResult) {
		got = append(got, result)
	})
	r.today = func() time.Time { return referenceDate }

	result := r.Refresh(context.Background())
	require.NotNil(t, result)
	assert.Equal(t, "2025-12-05", result.ForecastDate)
	assert.Same(t, result, eng.Latest())
	assert.Equal(t, int64(1), r.Refreshes())
	require.Len(t, got, 1)
	assert.Same(t, result, got[0])
}

func TestRefresherRunManual(t *testing.T) {
	eng := newOfflineEngine(t, nil)

	var mu sync.Mutex
	count := 0
	refreshed := make(chan struct{}, 8)
	r := NewRefresher(eng, time.Hour, nil, func(*schema.ForecastResult) {
		mu.Lock()
		count++
		mu.Unlock()
		refreshed <- struct{}{}
	})
	r.today = func() time.Time { return referenceDate }

	ctx, cancel := context.WithCancel(context.Background())
	manual := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, manual) }()

	<-refreshed // initial
	manual <- struct{}{}
	<-refreshed
	manual <- struct{}{}
	<-refreshed

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("refresh loop did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, count)
	assert.Equal(t, int64(3), r.Refreshes())
}

func TestRefresherRunInterval(t *testing.T) {
	eng := newOfflineEngine(t, nil)
	refreshed := make(chan struct{}, 16)
	r := NewRefresher(eng, 10*time.Millisecond, nil, func(*schema.ForecastResult) {
		select {
		case refreshed <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, nil) }()

	for range 3 {
		select {
		case <-refreshed:
		case <-time.After(5 * time.Second):
			t.Fatal("expected interval refreshes")
		}
	}
	cancel()
	assert.NoError(t, <-done)
	assert.GreaterOrEqual(t, r.Refreshes(), int64(3))
}

func TestRefresherClosedManualChannel(t *testing.T) {
	eng := newOfflineEngine(t, nil)
	r := NewRefresher(eng, time.Hour, nil, nil)
	r.today = func() time.Time { return referenceDate }

	manual := make(chan struct{})
	close(manual)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, r.Run(ctx, manual))
	assert.Equal(t, int64(1), r.Refreshes())
}
