package core

import "context"

// Context keys for forecast options
type contextKey string

const (
	suppressHistoryKey contextKey = "suppressHistory"
	refreshTriggerKey  contextKey = "refreshTrigger"
)

// Refresh triggers reported in logs.
const (
	TriggerInitial  = "initial"
	TriggerInterval = "interval"
	TriggerManual   = "manual"
)

// withSuppressHistory marks a forecast as a lookup that must not be recorded
func withSuppressHistory(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressHistoryKey, true)
}

// shouldSuppressHistory returns whether recording is suppressed for this context
func shouldSuppressHistory(ctx context.Context) bool {
	val := ctx.Value(suppressHistoryKey)
	if val == nil {
		return false // default: record
	}
	suppress, ok := val.(bool)
	return ok && suppress
}

// WithRefreshTrigger records what caused a refresh
func WithRefreshTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, refreshTriggerKey, trigger)
}

// getRefreshTrigger returns the refresh trigger, defaulting to manual
func getRefreshTrigger(ctx context.Context) string {
	if trigger, ok := ctx.Value(refreshTriggerKey).(string); ok && trigger != "" {
		return trigger
	}
	return TriggerManual
}
