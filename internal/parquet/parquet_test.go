package parquet

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/binforecast/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRuns() []ForecastRun {
	now := time.Date(2025, 12, 4, 9, 0, 0, 0, time.UTC)
	end := now.Add(1500 * time.Millisecond)
	duration := int32(1500)
	source := "remote"
	endpoint := "http://localhost:8000"
	config := `{"days":1}`
	return []ForecastRun{
		{
			RunID:         1,
			RunUUID:       "8c5b3a2e-8f1e-4f58-9a55-2f0d7d0e6b11",
			ReferenceDate: "2025-12-04",
			ForecastDate:  "2025-12-05",
			Source:        &source,
			Endpoint:      &endpoint,
			StartTime:     now,
			EndTime:       &end,
			RunDurationMs: &duration,
			DistrictCount: 80,
			ConfigParams:  &config,
		},
		{
			RunID:         2,
			RunUUID:       "1d3c8e67-5a0e-4a3c-8a7e-6f1a9a1f0c22",
			ReferenceDate: "2025-12-05",
			ForecastDate:  "2025-12-06",
			StartTime:     now.Add(time.Hour),
		},
	}
}

func readAll[T any](t *testing.T, content []byte) []T {
	t.Helper()
	reader := parquet.NewGenericReader[T](bytes.NewReader(content))
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return rows[:n]
}

func TestForecastRunStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(ForecastRun))
	for _, colName := range []string{
		"run_id", "run_uuid", "reference_date", "forecast_date", "source", "endpoint",
		"start_time", "end_time", "run_duration_ms", "district_count", "config_params",
	} {
		_, ok := s.Lookup(colName)
		assert.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestForecastPredictionStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(ForecastPrediction))
	for _, colName := range []string{
		"run_id", "barangay_id", "barangay_name", "forecast_date", "predicted_volume",
		"overflow_risk", "overflow_probability", "confidence", "volume_tier",
		"event_multiplier", "recorded_at",
	} {
		_, ok := s.Lookup(colName)
		assert.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestWriteForecastRunsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "runs.parquet")
	data := sampleRuns()
	require.NoError(t, WriteForecastRunsParquet(data, outputPath))

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	got := readAll[ForecastRun](t, content)
	require.Len(t, got, len(data))

	assert.Equal(t, data[0].RunUUID, got[0].RunUUID)
	require.NotNil(t, got[0].Source)
	assert.Equal(t, "remote", *got[0].Source)
	require.NotNil(t, got[0].RunDurationMs)
	assert.Equal(t, int32(1500), *got[0].RunDurationMs)
	assert.WithinDuration(t, data[0].StartTime, got[0].StartTime, time.Nanosecond)

	assert.Nil(t, got[1].Source)
	assert.Nil(t, got[1].EndTime)
	assert.Nil(t, got[1].ConfigParams)
}

func TestWriteForecastPredictionsParquet(t *testing.T) {
	records := []schema.PredictionRecord{
		{RunID: 1, BarangayID: "9", BarangayName: "Carmen", ForecastDate: "2025-12-05", PredictedVolume: 35120,
			OverflowRisk: "high", OverflowProbability: 0.91, Confidence: 0.88, VolumeTier: "High Volume",
			EventMultiplier: 1, RecordedAt: time.Date(2025, 12, 4, 9, 0, 0, 0, time.UTC)},
	}
	data := ConvertPredictionRecords(records)
	require.Len(t, data, 1)
	assert.Equal(t, "Carmen", data[0].BarangayName)

	outputPath := filepath.Join(t.TempDir(), "predictions.parquet")
	require.NoError(t, WriteForecastPredictionsParquet(data, outputPath))

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	got := readAll[ForecastPrediction](t, content)
	require.Len(t, got, 1)
	assert.Equal(t, data[0].VolumeTier, got[0].VolumeTier)
	assert.InDelta(t, 35120, got[0].PredictedVolume, 0.001)
}

func TestWriteToBuffer(t *testing.T) {
	preds := []schema.EnrichedPrediction{
		{Rank: 1, Utilization: 107.5, Prediction: schema.Prediction{
			BarangayID: "9", BarangayName: "Carmen", Date: "2025-12-05", PredictedVolume: 35120,
			OverflowRisk: schema.HighRisk, Events: []string{"Fiesta", "Payday"}, EventMultiplier: 1.8,
			VolumeRisk: schema.VolumeRisk{Category: schema.HighVolume},
		}},
		{Rank: 2, Prediction: schema.Prediction{BarangayID: "1", BarangayName: "Agusan", OverflowRisk: schema.SafeRisk}},
	}
	rows := ConvertEnrichedPredictions(preds)
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].Events)
	assert.Equal(t, "Fiesta;Payday", *rows[0].Events)
	assert.Nil(t, rows[1].Events)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rows))
	got := readAll[PredictionRow](t, buf.Bytes())
	require.Len(t, got, 2)
	assert.Equal(t, int32(1), got[0].Rank)
	assert.Equal(t, "high", got[0].OverflowRisk)
}

func TestWriteEmptyData(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteForecastRunsParquet([]ForecastRun{}, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), "Output file should contain schema even if empty")
}

func TestWriteInvalidPath(t *testing.T) {
	err := WriteForecastRunsParquet(sampleRuns(), "/nonexistent/directory/output.parquet")
	assert.Error(t, err)
}
