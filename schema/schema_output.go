package schema

// EnrichedPrediction adds presentation data to a Prediction.
type EnrichedPrediction struct {
	Rank        int     `json:"rank"`
	Utilization float64 `json:"capacity_utilization_pct"`
	Prediction
}

// ForecastSummary aggregates a prediction set.
type ForecastSummary struct {
	ForecastDate           string             `json:"forecast_date"`
	TotalDistricts         int                `json:"total_districts"`
	HighRiskCount          int                `json:"high_risk_count"`
	ModerateRiskCount      int                `json:"moderate_risk_count"`
	SafeCount              int                `json:"safe_count"`
	HighRisk               []string           `json:"high_risk"`
	ModerateRisk           []string           `json:"moderate_risk"`
	Safe                   []string           `json:"safe"`
	TotalVolume            float64            `json:"total_predicted_volume"`
	AverageConfidence      float64            `json:"average_confidence"`
	AverageUtilizationPct  float64            `json:"average_capacity_utilization_pct"`
	VolumeTierDistribution map[VolumeTier]int `json:"volume_tier_distribution"`
	TopByVolume            []VolumeEntry      `json:"top_by_volume"`
}

// RangeDay is one forecast date of a multi-day forecast.
type RangeDay struct {
	RunID  string         `json:"run_id"`
	Source ForecastSource `json:"source"`
	ForecastSummary
	Predictions []EnrichedPrediction `json:"predictions,omitempty"`
}

// VolumeEntry is a named volume used in rankings.
type VolumeEntry struct {
	BarangayID   string  `json:"barangayId"`
	BarangayName string  `json:"barangayName"`
	Volume       float64 `json:"volume"`
}

// HistoryPoint is one recorded prediction in a district's history.
type HistoryPoint struct {
	RunID           int64     `json:"run_id"`
	Date            string    `json:"date"`
	PredictedVolume float64   `json:"predictedVolume"`
	OverflowRisk    RiskLevel `json:"overflowRisk"`
	VolumeTier      string    `json:"volumeRisk"`
}

// DistrictHistory is the recorded prediction history of one district.
type DistrictHistory struct {
	BarangayID    string         `json:"barangayId"`
	BarangayName  string         `json:"barangayName"`
	Predictions   []HistoryPoint `json:"predictions"`
	AverageVolume float64        `json:"averageVolume"`
	Trend         Trend          `json:"trend"`
}
