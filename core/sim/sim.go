// Package sim generates local waste forecasts from district reference data.
// It is used both as the offline forecaster and as the fallback of the remote client.
package sim

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/huangsam/binforecast/schema"
)

// Volume multipliers applied on top of the baseline.
const (
	marketMultiplier = 1.4
	rainPerMm        = 0.008
	jitterLow        = 0.85
	jitterHigh       = 1.15
	confidenceLow    = 0.82
	confidenceHigh   = 0.96
)

// floodMultipliers maps flood exposure to a volume multiplier. Unknown values act as low.
var floodMultipliers = map[schema.FloodRisk]float64{
	schema.HighFlood:   1.35,
	schema.MediumFlood: 1.15,
	schema.LowFlood:    1.05,
}

// Factor importances of simulated predictions.
const (
	importanceDensity = 0.458
	importanceRecent  = 0.445
	importanceMarket  = 0.350
	importanceRain    = 0.296
	importanceEvent   = 0.210
	importanceSeason  = 0.195
)

// Generator produces simulated predictions. It is safe for concurrent use.
type Generator struct {
	mu         sync.Mutex
	rng        *rand.Rand
	dateSeed   int64
	events     []schema.Event
	thresholds schema.VolumeThresholds
	now        func() time.Time
}

// NewRand returns a random source for the seed, or a time-seeded one when seed is 0.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// NewGenerator creates a generator drawing from rng. A nil rng is time-seeded.
func NewGenerator(rng *rand.Rand, events []schema.Event) *Generator {
	if rng == nil {
		rng = NewRand(0)
	}
	return &Generator{
		rng:        rng,
		events:     events,
		thresholds: schema.VolumeThresholds{P70: schema.DefaultP70Threshold, P90: schema.DefaultP90Threshold},
		now:        time.Now,
	}
}

// WithClock replaces the clock used for prediction timestamps.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.now = now
	return g
}

// WithDateSeed gives every forecast date its own source derived from seed, so
// the predictions for a date do not depend on what was generated before.
// A seed of 0 keeps the shared source.
func (g *Generator) WithDateSeed(seed int64) *Generator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dateSeed = seed
	return g
}

// WithThresholds replaces the volume tier thresholds.
func (g *Generator) WithThresholds(t schema.VolumeThresholds) *Generator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.thresholds = t
	return g
}

// Generate returns exactly one prediction per district for the forecast date.
func (g *Generator) Generate(districts []schema.District, forecastDate time.Time) []schema.Prediction {
	g.mu.Lock()
	defer g.mu.Unlock()

	rng := g.rng
	if g.dateSeed != 0 {
		rng = NewRand(g.dateSeed + daysSinceEpoch(forecastDate))
	}

	generatedAt := g.now()
	predictions := make([]schema.Prediction, 0, len(districts))
	for _, d := range districts {
		predictions = append(predictions, g.predict(rng, d, forecastDate, generatedAt))
	}
	return predictions
}

// daysSinceEpoch numbers calendar dates so that consecutive days get consecutive seeds.
func daysSinceEpoch(date time.Time) int64 {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// predict must be called with g.mu held.
func (g *Generator) predict(rng *rand.Rand, d schema.District, date, generatedAt time.Time) schema.Prediction {
	weather := WeatherFor(date.Month())
	market := IsMarketDay(d, date)
	eventNames, eventMultiplier := ActiveEvents(g.events, d, date)

	volume := d.Baseline()
	if market {
		volume *= marketMultiplier
	}
	volume *= 1 + weather.RainfallMm*rainPerMm
	volume *= floodMultiplier(d.FloodRisk)
	volume *= eventMultiplier
	volume *= jitterLow + rng.Float64()*(jitterHigh-jitterLow)
	volume = math.Max(0, math.Round(volume))

	risk, probability := AssessOverflow(volume, d.BinCapacity)
	confidence := confidenceLow + rng.Float64()*(confidenceHigh-confidenceLow)

	factors := []schema.Factor{
		{Feature: "Population Density", Value: fmt.Sprintf("%.0f", d.EffectiveDensity()), Importance: importanceDensity},
		{Feature: "Recent Volume", Value: fmt.Sprintf("%.0f kg", d.Baseline()), Importance: importanceRecent},
		{Feature: "Market Day", Value: yesNo(market), Importance: importanceMarket},
		{Feature: "Rainfall", Value: fmt.Sprintf("%.1fmm, %.1f°C", weather.RainfallMm, weather.TemperatureC), Importance: importanceRain},
		{Feature: "Event Day", Value: eventDayValue(eventNames, date), Importance: importanceEvent},
		{Feature: "Season", Value: SeasonFor(date.Month()), Importance: importanceSeason},
	}
	SortFactors(factors)

	return schema.Prediction{
		BarangayID:          d.ID,
		BarangayName:        d.Name,
		Date:                date.Format(schema.DateLayout),
		PredictedVolume:     volume,
		OverflowRisk:        risk,
		OverflowProbability: probability,
		Confidence:          confidence,
		VolumeRisk:          ClassifyVolume(volume, g.thresholds),
		Events:              eventNames,
		EventMultiplier:     eventMultiplier,
		Factors:             factors,
		Timestamp:           generatedAt,
	}
}

// SortFactors orders factors by importance, highest first. Ties keep their order.
func SortFactors(factors []schema.Factor) {
	sort.SliceStable(factors, func(i, j int) bool {
		return factors[i].Importance > factors[j].Importance
	})
}

func floodMultiplier(risk schema.FloodRisk) float64 {
	if m, ok := floodMultipliers[risk]; ok {
		return m
	}
	return floodMultipliers[schema.LowFlood]
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
