package mlclient

import (
	"context"
	"time"

	"github.com/huangsam/binforecast/internal/contract"
	"github.com/huangsam/binforecast/schema"
	"github.com/stretchr/testify/mock"
)

// MockForecaster is a mock implementation of Forecaster for testing.
type MockForecaster struct {
	mock.Mock
}

var _ contract.Forecaster = &MockForecaster{} // Compile-time check

// Initialize implements the Forecaster interface.
func (m *MockForecaster) Initialize(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

// Forecast implements the Forecaster interface.
func (m *MockForecaster) Forecast(ctx context.Context, districts []schema.District, referenceDate time.Time) *schema.ForecastResult {
	args := m.Called(ctx, districts, referenceDate)
	result, _ := args.Get(0).(*schema.ForecastResult)
	return result
}

// FetchMetrics implements the Forecaster interface.
func (m *MockForecaster) FetchMetrics(ctx context.Context, force bool) *schema.ModelMetrics {
	args := m.Called(ctx, force)
	metrics, _ := args.Get(0).(*schema.ModelMetrics)
	return metrics
}

// ActiveEndpoint implements the Forecaster interface.
func (m *MockForecaster) ActiveEndpoint() string {
	args := m.Called()
	return args.String(0)
}
