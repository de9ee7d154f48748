package mlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/huangsam/binforecast/core/sim"
	"github.com/huangsam/binforecast/schema"
	"go.uber.org/zap"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 16 << 20

// Errors returned by the batch call. They never leave the package.
var (
	errNoPredictions = errors.New("response has no predictions")
	errCountMismatch = errors.New("prediction count does not match district count")
)

// batchItem is one district in the batch request.
type batchItem struct {
	BarangayID        string  `json:"barangay_id"`
	BarangayName      string  `json:"barangay_name"`
	Population        int     `json:"population"`
	PopulationDensity float64 `json:"population_density"`
	BinCapacity       float64 `json:"bin_capacity"`
	RainfallMm        float64 `json:"rainfall_mm"`
	TemperatureC      float64 `json:"temperature_c"`
	IsMarketDay       int     `json:"is_market_day"`
	DayOfWeek         int     `json:"day_of_week"` // 0 is Sunday
	PredictionDate    string  `json:"prediction_date"`
}

type batchRequest struct {
	Barangays []batchItem `json:"barangays"`
}

// batchResponse keeps predictions raw because field names vary between service versions.
type batchResponse struct {
	Predictions []map[string]json.RawMessage `json:"predictions"`
	Metrics     json.RawMessage              `json:"metrics"`
}

// buildBatchRequest assembles the request body for the districts.
func buildBatchRequest(districts []schema.District, forecastDate time.Time) batchRequest {
	weather := sim.WeatherFor(forecastDate.Month())
	date := forecastDate.Format(schema.DateLayout)
	req := batchRequest{Barangays: make([]batchItem, 0, len(districts))}
	for _, d := range districts {
		market := 0
		if sim.IsMarketDay(d, forecastDate) {
			market = 1
		}
		req.Barangays = append(req.Barangays, batchItem{
			BarangayID:        d.ID,
			BarangayName:      d.Name,
			Population:        d.Population,
			PopulationDensity: d.EffectiveDensity(),
			BinCapacity:       d.RequestCapacity(),
			RainfallMm:        weather.RainfallMm,
			TemperatureC:      weather.TemperatureC,
			IsMarketDay:       market,
			DayOfWeek:         int(forecastDate.Weekday()),
			PredictionDate:    date,
		})
	}
	return req
}

// predictBatch posts the batch request and normalizes the response.
// Returned metrics are nil when the response carries none.
func (c *Client) predictBatch(ctx context.Context, base string, districts []schema.District, forecastDate time.Time) ([]schema.Prediction, *schema.ModelMetrics, error) {
	body, err := json.Marshal(buildBatchRequest(districts, forecastDate))
	if err != nil {
		return nil, nil, fmt.Errorf("encode batch request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.batchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/predict-batch", bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("batch request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, fmt.Errorf("batch request returned %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("read batch response: %w", err)
	}
	var parsed batchResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, nil, fmt.Errorf("decode batch response: %w", err)
	}
	if len(parsed.Predictions) == 0 {
		return nil, nil, errNoPredictions
	}
	if len(parsed.Predictions) != len(districts) {
		return nil, nil, fmt.Errorf("%w: got %d, want %d", errCountMismatch, len(parsed.Predictions), len(districts))
	}

	metrics := c.decodeMetrics(parsed.Metrics)
	thresholds := c.currentThresholds()
	if !metrics.IsZero() {
		thresholds = metrics.Thresholds()
	}

	generatedAt := c.now()
	preds := make([]schema.Prediction, len(parsed.Predictions))
	for i, raw := range parsed.Predictions {
		preds[i] = normalizePrediction(raw, districts[i], forecastDate, thresholds, generatedAt)
	}
	return preds, metrics, nil
}

// decodeMetrics reads embedded metrics. Undecodable metrics are ignored.
func (c *Client) decodeMetrics(raw json.RawMessage) *schema.ModelMetrics {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var m schema.ModelMetrics
	if err := json.Unmarshal(raw, &m); err != nil {
		c.logger.Warn("ignoring malformed metrics in batch response", zap.Error(err))
		return nil
	}
	return &m
}
