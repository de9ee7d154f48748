// Package parquet provides data structures and functions for exporting forecast
// data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/huangsam/binforecast/schema"
	"github.com/parquet-go/parquet-go"
)

// ForecastRun represents a single recorded forecast run.
// This struct maps to the forecast_runs database table.
type ForecastRun struct {
	RunID         int64      `parquet:"run_id,snappy"`
	RunUUID       string     `parquet:"run_uuid,snappy"`
	ReferenceDate string     `parquet:"reference_date,snappy"`
	ForecastDate  string     `parquet:"forecast_date,snappy"`
	Source        *string    `parquet:"source,optional,snappy"`
	Endpoint      *string    `parquet:"endpoint,optional,snappy"`
	StartTime     time.Time  `parquet:"start_time,snappy"`
	EndTime       *time.Time `parquet:"end_time,optional,snappy"`
	RunDurationMs *int32     `parquet:"run_duration_ms,optional,snappy"`
	DistrictCount int32      `parquet:"district_count,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// ForecastPrediction represents one recorded prediction of a run.
// This struct maps to the forecast_predictions database table.
type ForecastPrediction struct {
	RunID               int64     `parquet:"run_id,snappy"`
	BarangayID          string    `parquet:"barangay_id,snappy"`
	BarangayName        string    `parquet:"barangay_name,snappy"`
	ForecastDate        string    `parquet:"forecast_date,snappy"`
	PredictedVolume     float64   `parquet:"predicted_volume,snappy"`
	OverflowRisk        string    `parquet:"overflow_risk,snappy"`
	OverflowProbability float64   `parquet:"overflow_probability,snappy"`
	Confidence          float64   `parquet:"confidence,snappy"`
	VolumeTier          string    `parquet:"volume_tier,snappy"`
	EventMultiplier     float64   `parquet:"event_multiplier,snappy"`
	RecordedAt          time.Time `parquet:"recorded_at,snappy"`
}

// PredictionRow is a flattened live prediction used by the parquet output mode.
type PredictionRow struct {
	Rank                int32     `parquet:"rank,snappy"`
	BarangayID          string    `parquet:"barangay_id,snappy"`
	BarangayName        string    `parquet:"barangay_name,snappy"`
	ForecastDate        string    `parquet:"forecast_date,snappy"`
	PredictedVolume     float64   `parquet:"predicted_volume,snappy"`
	OverflowRisk        string    `parquet:"overflow_risk,snappy"`
	OverflowProbability float64   `parquet:"overflow_probability,snappy"`
	Confidence          float64   `parquet:"confidence,snappy"`
	Utilization         float64   `parquet:"utilization,snappy"`
	VolumeTier          string    `parquet:"volume_tier,snappy"`
	Events              *string   `parquet:"events,optional,snappy"`
	EventMultiplier     float64   `parquet:"event_multiplier,snappy"`
	GeneratedAt         time.Time `parquet:"generated_at,snappy"`
}

// Write encodes rows of any tagged struct type into w.
func Write[T any](w io.Writer, data []T) error {
	// The schema is derived from the struct tags of T
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteFile writes rows to a new Parquet file at outputPath.
func WriteFile[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Write(file, data); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// WriteForecastRunsParquet writes forecast runs to a Parquet file.
func WriteForecastRunsParquet(data []ForecastRun, outputPath string) error {
	return WriteFile(data, outputPath)
}

// WriteForecastPredictionsParquet writes recorded predictions to a Parquet file.
func WriteForecastPredictionsParquet(data []ForecastPrediction, outputPath string) error {
	return WriteFile(data, outputPath)
}

// ConvertRunRecords converts schema.RunRecord to ForecastRun for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []ForecastRun {
	result := make([]ForecastRun, len(records))
	for i, record := range records {
		result[i] = ForecastRun{
			RunID:         record.RunID,
			RunUUID:       record.RunUUID,
			ReferenceDate: record.ReferenceDate,
			ForecastDate:  record.ForecastDate,
			Source:        record.Source,
			Endpoint:      record.Endpoint,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			DistrictCount: record.DistrictCount,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertPredictionRecords converts schema.PredictionRecord to ForecastPrediction for Parquet export.
func ConvertPredictionRecords(records []schema.PredictionRecord) []ForecastPrediction {
	result := make([]ForecastPrediction, len(records))
	for i, r := range records {
		result[i] = ForecastPrediction(r)
	}
	return result
}

// ConvertEnrichedPredictions flattens ranked predictions into parquet rows.
func ConvertEnrichedPredictions(preds []schema.EnrichedPrediction) []PredictionRow {
	result := make([]PredictionRow, len(preds))
	for i, p := range preds {
		var events *string
		if len(p.Events) > 0 {
			joined := strings.Join(p.Events, ";")
			events = &joined
		}
		result[i] = PredictionRow{
			Rank:                int32(p.Rank),
			BarangayID:          p.BarangayID,
			BarangayName:        p.BarangayName,
			ForecastDate:        p.Date,
			PredictedVolume:     p.PredictedVolume,
			OverflowRisk:        string(p.OverflowRisk),
			OverflowProbability: p.OverflowProbability,
			Confidence:          p.Confidence,
			Utilization:         p.Utilization,
			VolumeTier:          string(p.VolumeRisk.Category),
			Events:              events,
			EventMultiplier:     p.EventMultiplier,
			GeneratedAt:         p.Timestamp,
		}
	}
	return result
}
