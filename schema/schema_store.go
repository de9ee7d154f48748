package schema

import "time"

// RunInfo describes a forecast run when it begins.
type RunInfo struct {
	RunUUID       string
	ReferenceDate string
	ForecastDate  string
	StartTime     time.Time
	ConfigParams  map[string]any
}

// RunOutcome describes a forecast run when it ends.
type RunOutcome struct {
	EndTime       time.Time
	Source        ForecastSource
	Endpoint      string
	DistrictCount int
}

// RunRecord represents a row from the forecast_runs table.
type RunRecord struct {
	RunID         int64
	RunUUID       string
	ReferenceDate string
	ForecastDate  string
	Source        *string
	Endpoint      *string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	DistrictCount int32
	ConfigParams  *string
}

// PredictionRecord represents a row from the forecast_predictions table.
type PredictionRecord struct {
	RunID               int64
	BarangayID          string
	BarangayName        string
	ForecastDate        string
	PredictedVolume     float64
	OverflowRisk        string
	OverflowProbability float64
	Confidence          float64
	VolumeTier          string
	EventMultiplier     float64
	RecordedAt          time.Time
}
