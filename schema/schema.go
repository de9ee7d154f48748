// Package schema has models, enums and defaults shared by all parts of binforecast.
package schema

import (
	"math"
	"time"
)

// Reference data conventions used when a district omits derived fields.
const (
	PeoplePerDensityUnit = 50   // population / density when density is absent
	WastePerCapitaKg     = 0.42 // daily waste generated per resident
	CapacityHeadroom     = 1.5  // request capacity relative to baseline when capacity is absent
)

// District is static reference data for one barangay. It is loaded once and
// never mutated for the lifetime of the process.
type District struct {
	ID                string    `json:"id" yaml:"id" mapstructure:"id"`
	Name              string    `json:"name" yaml:"name" mapstructure:"name"`
	Population        int       `json:"population" yaml:"population" mapstructure:"population"`
	PopulationDensity float64   `json:"population_density" yaml:"population_density" mapstructure:"population_density"`
	BinCapacity       float64   `json:"bin_capacity" yaml:"bin_capacity" mapstructure:"bin_capacity"`
	HasMarket         bool      `json:"has_market" yaml:"has_market" mapstructure:"has_market"`
	FloodRisk         FloodRisk `json:"flood_risk" yaml:"flood_risk" mapstructure:"flood_risk"`
	TotalWaste        float64   `json:"total_waste,omitempty" yaml:"total_waste,omitempty" mapstructure:"total_waste"` // 0 means no baseline
}

// EffectiveDensity returns the configured density, or one derived from population.
func (d District) EffectiveDensity() float64 {
	if d.PopulationDensity > 0 {
		return d.PopulationDensity
	}
	return math.Floor(float64(d.Population) / PeoplePerDensityUnit)
}

// Baseline returns the historical waste baseline in kg, or an estimate from density.
func (d District) Baseline() float64 {
	if d.TotalWaste > 0 {
		return d.TotalWaste
	}
	return d.EffectiveDensity() * PeoplePerDensityUnit * WastePerCapitaKg
}

// RequestCapacity is the bin capacity sent to the remote model. A missing
// capacity is replaced by baseline headroom so that capacity exceeds waste.
func (d District) RequestCapacity() float64 {
	if d.BinCapacity > 0 {
		return d.BinCapacity
	}
	return d.Baseline() * CapacityHeadroom
}

// Factor is one contributing factor of a prediction.
type Factor struct {
	Feature    string  `json:"feature"`
	Value      string  `json:"value"`
	Importance float64 `json:"importance"`
}

// VolumeRisk describes the volume tier of a prediction.
type VolumeRisk struct {
	Category VolumeTier `json:"volume_risk"`
	Level    int        `json:"level"`
	Color    string     `json:"color"`
	Action   string     `json:"action"`
}

// Prediction is the forecast for a single district on a single date.
// Predictions are never mutated after creation.
type Prediction struct {
	BarangayID          string     `json:"barangayId"`
	BarangayName        string     `json:"barangayName"`
	Date                string     `json:"date"`
	PredictedVolume     float64    `json:"predictedVolume"`
	OverflowRisk        RiskLevel  `json:"overflowRisk"`
	OverflowProbability float64    `json:"overflowProbability"`
	Confidence          float64    `json:"confidence"`
	VolumeRisk          VolumeRisk `json:"volumeRisk"`
	Events              []string   `json:"events,omitempty"`
	EventMultiplier     float64    `json:"eventMultiplier"`
	Factors             []Factor   `json:"factors"`
	Timestamp           time.Time  `json:"timestamp"`
}

// Weather is the weather assumed for a forecast date.
type Weather struct {
	RainfallMm   float64 `json:"rainfall_mm"`
	TemperatureC float64 `json:"temperature_c"`
}

// ForecastResult is the outcome of one generation cycle. It is replaced
// wholesale by the next cycle.
type ForecastResult struct {
	RunID         string         `json:"run_id"`
	ReferenceDate string         `json:"reference_date"`
	ForecastDate  string         `json:"forecast_date"`
	Source        ForecastSource `json:"source"`
	Endpoint      string         `json:"endpoint,omitempty"`
	GeneratedAt   time.Time      `json:"generated_at"`
	Predictions   []Prediction   `json:"predictions"`
	Metrics       *ModelMetrics  `json:"metrics"`
}

// Event is a calendar entry that multiplies waste in the districts it affects.
type Event struct {
	Name       string   `json:"name" mapstructure:"name"`
	Type       string   `json:"type" mapstructure:"type"`             // festival, holiday or special
	Dates      []string `json:"dates" mapstructure:"dates"`           // MM-DD
	Districts  []string `json:"districts" mapstructure:"districts"`   // names or ids, "all" for every district
	Multiplier float64  `json:"multiplier" mapstructure:"multiplier"` // 1.0 when unset
}
