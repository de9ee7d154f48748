package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuppressHistory(t *testing.T) {
	ctx := context.Background()
	assert.False(t, shouldSuppressHistory(ctx))
	assert.True(t, shouldSuppressHistory(withSuppressHistory(ctx)))

	// A foreign value under the same key type is ignored
	bogus := context.WithValue(ctx, suppressHistoryKey, "yes")
	assert.False(t, shouldSuppressHistory(bogus))
}

func TestRefreshTrigger(t *testing.T) {
	tests := []struct {
		name     string
		ctx      context.Context
		expected string
	}{
		{name: "default", ctx: context.Background(), expected: TriggerManual},
		{name: "interval", ctx: WithRefreshTrigger(context.Background(), TriggerInterval), expected: TriggerInterval},
		{name: "initial", ctx: WithRefreshTrigger(context.Background(), TriggerInitial), expected: TriggerInitial},
		{name: "empty", ctx: WithRefreshTrigger(context.Background(), ""), expected: TriggerManual},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, getRefreshTrigger(tt.ctx))
		})
	}
}

// TestContextConcurrentAccess tests that context values can be safely accessed concurrently.
func TestContextConcurrentAccess(t *testing.T) {
	ctx := WithRefreshTrigger(withSuppressHistory(context.Background()), TriggerInterval)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			assert.True(t, shouldSuppressHistory(ctx), "Goroutine %d", id)
			assert.Equal(t, TriggerInterval, getRefreshTrigger(ctx), "Goroutine %d", id)
		}(i)
	}
	wg.Wait()
}
