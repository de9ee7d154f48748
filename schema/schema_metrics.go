package schema

import (
	"maps"
	"time"
)

// LastTrainedLayout is the timestamp layout the model service reports.
const LastTrainedLayout = "2006-01-02 15:04:05"

// Default volume tier thresholds in kg.
const (
	DefaultP70Threshold = 3246
	DefaultP90Threshold = 13128
)

// VolumeThresholds are the percentile cut-offs for volume tiers.
type VolumeThresholds struct {
	P70 float64 `json:"p70"`
	P90 float64 `json:"p90"`
}

// ModelMetrics holds evaluation metrics of the forecasting model.
// A cached value is only ever replaced as a whole.
type ModelMetrics struct {
	R2                   float64            `json:"r2"`
	MSE                  float64            `json:"mse"`
	Accuracy             float64            `json:"accuracy"`
	ExplainedVariance    float64            `json:"explained_variance"`
	LastTrained          string             `json:"lastTrained"`
	ModelVersion         string             `json:"modelVersion"`
	FeatureImportance    map[string]float64 `json:"featureImportance"`
	FeaturesUsed         int                `json:"featuresUsed"`
	BarangaysCovered     int                `json:"barangaysCovered"`
	VolumeRiskThresholds *VolumeThresholds  `json:"volumeRiskThresholds,omitempty"`
}

// DefaultModelMetrics returns the documented metrics used when the model service
// has never been reached.
func DefaultModelMetrics() *ModelMetrics {
	return &ModelMetrics{
		R2:                0.966,
		MSE:               1376680.44,
		Accuracy:          0.812,
		ExplainedVariance: 0.966,
		LastTrained:       "2025-12-04 09:11:50",
		ModelVersion:      "3.0",
		FeatureImportance: map[string]float64{
			"population":  0.458,
			"base_waste":  0.445,
			"rainfall":    0.296,
			"temperature": 0.145,
			"market_day":  0.350,
			"day_of_week": 0.210,
			"month":       0.195,
		},
		FeaturesUsed:     14,
		BarangaysCovered: 80,
		VolumeRiskThresholds: &VolumeThresholds{
			P70: DefaultP70Threshold,
			P90: DefaultP90Threshold,
		},
	}
}

// Thresholds returns the reported volume thresholds, or the defaults when absent
// or not increasing.
func (m *ModelMetrics) Thresholds() VolumeThresholds {
	if m == nil || m.VolumeRiskThresholds == nil {
		return VolumeThresholds{P70: DefaultP70Threshold, P90: DefaultP90Threshold}
	}
	t := *m.VolumeRiskThresholds
	if t.P70 <= 0 || t.P90 <= t.P70 {
		return VolumeThresholds{P70: DefaultP70Threshold, P90: DefaultP90Threshold}
	}
	return t
}

// LastTrainedTime parses LastTrained.
func (m *ModelMetrics) LastTrainedTime() (time.Time, error) {
	return time.Parse(LastTrainedLayout, m.LastTrained)
}

// IsZero reports whether no metric field was populated.
func (m *ModelMetrics) IsZero() bool {
	return m == nil || (m.R2 == 0 && m.MSE == 0 && m.Accuracy == 0 && m.ExplainedVariance == 0 &&
		m.LastTrained == "" && m.ModelVersion == "" && len(m.FeatureImportance) == 0)
}

// Clone returns a deep copy.
func (m *ModelMetrics) Clone() *ModelMetrics {
	if m == nil {
		return nil
	}
	clone := *m
	if m.FeatureImportance != nil {
		clone.FeatureImportance = make(map[string]float64, len(m.FeatureImportance))
		maps.Copy(clone.FeatureImportance, m.FeatureImportance)
	}
	if m.VolumeRiskThresholds != nil {
		t := *m.VolumeRiskThresholds
		clone.VolumeRiskThresholds = &t
	}
	return &clone
}
