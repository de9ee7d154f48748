package mlclient

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/binforecast/core/sim"
	"github.com/huangsam/binforecast/schema"
)

// Logical prediction fields and the response keys that may carry them, in lookup order.
const (
	fieldID              = "id"
	fieldName            = "name"
	fieldVolume          = "volume"
	fieldRisk            = "risk"
	fieldProbability     = "probability"
	fieldConfidence      = "confidence"
	fieldVolumeRisk      = "volumeRisk"
	fieldEvents          = "events"
	fieldEventMultiplier = "eventMultiplier"
)

var fieldAliases = map[string][]string{
	fieldID:              {"barangayId", "barangay_id"},
	fieldName:            {"barangayName", "barangay_name"},
	fieldVolume:          {"predictedVolume", "volume"},
	fieldRisk:            {"overflowRisk", "risk"},
	fieldProbability:     {"overflowProbability", "overflow_probability"},
	fieldConfidence:      {"confidence", "confidence_score"},
	fieldVolumeRisk:      {"volumeRisk", "volume_risk"},
	fieldEvents:          {"events"},
	fieldEventMultiplier: {"eventMultiplier", "event_multiplier"},
}

// Defaults for fields the service may omit.
const (
	defaultConfidence      = 0.7
	defaultEventMultiplier = 1.0
)

// Factor importances of remote predictions.
const (
	importanceForecastDate = 0.5
	importanceWeather      = 0.4
	importanceIncrease     = 0.35
	importanceVolumeRisk   = 0.3
	importanceMarketDay    = 0.225
)

// rawPrediction is one prediction object as received.
type rawPrediction map[string]json.RawMessage

// lookup returns the first present, non-null value among the aliases of a field.
func (r rawPrediction) lookup(field string) (json.RawMessage, bool) {
	vs := r.values(field)
	if len(vs) == 0 {
		return nil, false
	}
	return vs[0], true
}

// values yields the present, non-null values of a field in alias order.
func (r rawPrediction) values(field string) []json.RawMessage {
	var out []json.RawMessage
	for _, key := range fieldAliases[field] {
		if v, ok := r[key]; ok && len(v) > 0 && string(v) != "null" {
			out = append(out, v)
		}
	}
	return out
}

// str returns the first non-blank string among the aliases of a field.
func (r rawPrediction) str(field string) (string, bool) {
	for _, v := range r.values(field) {
		if s, ok := parseString(v); ok {
			return s, true
		}
	}
	return "", false
}

// number returns the first finite, non-zero number among the aliases of a field.
func (r rawPrediction) number(field string) (float64, bool) {
	for _, v := range r.values(field) {
		if f, ok := parseNumber(v); ok && f != 0 {
			return f, true
		}
	}
	return 0, false
}

func parseString(v json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

func parseNumber(v json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f, !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, !math.IsNaN(f) && !math.IsInf(f, 0)
		}
	}
	return 0, false
}

// NormalizeRisk lower-cases a risk string and maps anything unknown to moderate.
func NormalizeRisk(s string) schema.RiskLevel {
	risk := schema.RiskLevel(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := schema.ValidRiskLevels[risk]; !ok {
		return schema.ModerateRisk
	}
	return risk
}

// normalizePrediction maps a raw prediction onto the canonical structure.
// Missing fields are derived from the district at the same index.
func normalizePrediction(r rawPrediction, d schema.District, forecastDate time.Time, thresholds schema.VolumeThresholds, generatedAt time.Time) schema.Prediction {
	id, ok := r.str(fieldID)
	if !ok {
		id = d.ID
	}
	name, ok := r.str(fieldName)
	if !ok {
		name = d.Name
	}

	volume, _ := r.number(fieldVolume)
	volume = math.Max(0, volume)

	risk := schema.ModerateRisk
	if s, ok := r.str(fieldRisk); ok {
		risk = NormalizeRisk(s)
	}

	probability, ok := r.number(fieldProbability)
	if ok {
		probability = math.Min(1, math.Max(0, probability))
	} else {
		_, probability = sim.AssessOverflow(volume, d.RequestCapacity())
	}

	confidence, ok := r.number(fieldConfidence)
	if !ok || confidence <= 0 {
		confidence = defaultConfidence
	}
	confidence = math.Min(1, confidence)

	multiplier, ok := r.number(fieldEventMultiplier)
	if !ok || multiplier <= 0 {
		multiplier = defaultEventMultiplier
	}

	volumeRisk := normalizeVolumeRisk(r, volume, thresholds)

	return schema.Prediction{
		BarangayID:          id,
		BarangayName:        name,
		Date:                forecastDate.Format(schema.DateLayout),
		PredictedVolume:     volume,
		OverflowRisk:        risk,
		OverflowProbability: probability,
		Confidence:          confidence,
		VolumeRisk:          volumeRisk,
		Events:              r.events(),
		EventMultiplier:     multiplier,
		Factors:             remoteFactors(d, volume, volumeRisk, forecastDate),
		Timestamp:           generatedAt,
	}
}

// normalizeVolumeRisk keeps a reported tier when it names a known category and
// computes one from the thresholds otherwise.
func normalizeVolumeRisk(r rawPrediction, volume float64, thresholds schema.VolumeThresholds) schema.VolumeRisk {
	computed := sim.ClassifyVolume(volume, thresholds)
	v, ok := r.lookup(fieldVolumeRisk)
	if !ok {
		return computed
	}
	var reported schema.VolumeRisk
	if err := json.Unmarshal(v, &reported); err != nil {
		return computed
	}
	canonical, ok := sim.TierInfo(reported.Category)
	if !ok {
		return computed
	}
	if reported.Level == 0 {
		reported.Level = canonical.Level
	}
	if reported.Color == "" {
		reported.Color = canonical.Color
	}
	if reported.Action == "" {
		reported.Action = canonical.Action
	}
	return reported
}

func (r rawPrediction) events() []string {
	v, ok := r.lookup(fieldEvents)
	if !ok {
		return nil
	}
	var events []string
	if err := json.Unmarshal(v, &events); err != nil {
		return nil
	}
	return events
}

// remoteFactors describes a remote prediction. The increase is measured against the district baseline.
func remoteFactors(d schema.District, volume float64, volumeRisk schema.VolumeRisk, forecastDate time.Time) []schema.Factor {
	weather := sim.WeatherFor(forecastDate.Month())
	var increase float64
	if baseline := d.Baseline(); baseline > 0 {
		increase = (volume - baseline) / baseline * 100
	}
	market := "No"
	if sim.IsMarketDay(d, forecastDate) {
		market = "Yes"
	}
	factors := []schema.Factor{
		{Feature: "Forecast Date", Value: forecastDate.Format(schema.DateLayout), Importance: importanceForecastDate},
		{Feature: "Weather", Value: fmt.Sprintf("%.1fmm, %.1f°C", weather.RainfallMm, weather.TemperatureC), Importance: importanceWeather},
		{Feature: "Increase", Value: fmt.Sprintf("%.1f%%", increase), Importance: importanceIncrease},
		{Feature: "Volume Risk", Value: string(volumeRisk.Category), Importance: importanceVolumeRisk},
		{Feature: "Market Day", Value: market, Importance: importanceMarketDay},
	}
	sim.SortFactors(factors)
	return factors
}
