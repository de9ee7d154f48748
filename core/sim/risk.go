package sim

import (
	"math"

	"github.com/huangsam/binforecast/schema"
)

// Overflow thresholds on the volume/capacity ratio.
const (
	HighRatio     = 0.95
	ModerateRatio = 0.75

	probabilityMidpoint  = 0.85
	probabilitySteepness = 12.0
)

// AssessOverflow derives the overflow risk and probability from a volume and a bin capacity.
// A non-positive capacity has no meaningful ratio and is treated as safe.
func AssessOverflow(volume, capacity float64) (schema.RiskLevel, float64) {
	if capacity <= 0 || math.IsNaN(volume) {
		return schema.SafeRisk, 0
	}
	ratio := volume / capacity
	return RiskForRatio(ratio), OverflowProbability(ratio)
}

// RiskForRatio maps a volume/capacity ratio onto a risk level.
func RiskForRatio(ratio float64) schema.RiskLevel {
	switch {
	case ratio >= HighRatio:
		return schema.HighRisk
	case ratio >= ModerateRatio:
		return schema.ModerateRisk
	default:
		return schema.SafeRisk
	}
}

// OverflowProbability is a logistic curve over the ratio, clamped to [0,1].
func OverflowProbability(ratio float64) float64 {
	if math.IsNaN(ratio) {
		return 0
	}
	p := 1 / (1 + math.Exp(-probabilitySteepness*(ratio-probabilityMidpoint)))
	return clamp01(p)
}

// volumeTiers holds the presentation of each volume tier.
var volumeTiers = map[schema.VolumeTier]schema.VolumeRisk{
	schema.NormalVolume:   {Category: schema.NormalVolume, Level: 1, Color: "#34c759", Action: "Standard schedule"},
	schema.ModerateVolume: {Category: schema.ModerateVolume, Level: 2, Color: "#ff9500", Action: "Monitor closely"},
	schema.HighVolume:     {Category: schema.HighVolume, Level: 3, Color: "#ff3b30", Action: "Immediate intervention needed"},
}

// ClassifyVolume assigns the capacity-independent volume tier.
func ClassifyVolume(volume float64, t schema.VolumeThresholds) schema.VolumeRisk {
	switch {
	case volume > t.P90:
		return volumeTiers[schema.HighVolume]
	case volume > t.P70:
		return volumeTiers[schema.ModerateVolume]
	default:
		return volumeTiers[schema.NormalVolume]
	}
}

// TierInfo returns the presentation of a named tier.
func TierInfo(category schema.VolumeTier) (schema.VolumeRisk, bool) {
	tier, ok := volumeTiers[category]
	return tier, ok
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
