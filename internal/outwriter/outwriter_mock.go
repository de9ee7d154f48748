package outwriter

import (
	"time"

	"github.com/huangsam/binforecast/internal/contract"
	"github.com/huangsam/binforecast/schema"
	"github.com/stretchr/testify/mock"
)

// MockOutputWriter is a mock implementation of OutputWriter for testing.
type MockOutputWriter struct {
	mock.Mock
}

var _ contract.OutputWriter = &MockOutputWriter{} // Compile-time check

// WriteForecast implements the OutputWriter interface.
func (m *MockOutputWriter) WriteForecast(result *schema.ForecastResult, preds []schema.EnrichedPrediction, cfg *contract.Config, duration time.Duration) error {
	args := m.Called(result, preds, cfg, duration)
	return args.Error(0)
}

// WriteRange implements the OutputWriter interface.
func (m *MockOutputWriter) WriteRange(days []schema.RangeDay, cfg *contract.Config, duration time.Duration) error {
	args := m.Called(days, cfg, duration)
	return args.Error(0)
}

// WriteMetrics implements the OutputWriter interface.
func (m *MockOutputWriter) WriteMetrics(metrics *schema.ModelMetrics, endpoint string, cfg *contract.Config) error {
	args := m.Called(metrics, endpoint, cfg)
	return args.Error(0)
}

// WriteSummary implements the OutputWriter interface.
func (m *MockOutputWriter) WriteSummary(summary schema.ForecastSummary, cfg *contract.Config) error {
	args := m.Called(summary, cfg)
	return args.Error(0)
}

// WriteDistrictForecast implements the OutputWriter interface.
func (m *MockOutputWriter) WriteDistrictForecast(p schema.EnrichedPrediction, cfg *contract.Config) error {
	args := m.Called(p, cfg)
	return args.Error(0)
}

// WriteDistrictHistory implements the OutputWriter interface.
func (m *MockOutputWriter) WriteDistrictHistory(history schema.DistrictHistory, cfg *contract.Config) error {
	args := m.Called(history, cfg)
	return args.Error(0)
}

// WriteDistricts implements the OutputWriter interface.
func (m *MockOutputWriter) WriteDistricts(districts []schema.District, cfg *contract.Config) error {
	args := m.Called(districts, cfg)
	return args.Error(0)
}
