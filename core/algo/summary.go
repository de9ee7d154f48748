package algo

import (
	"github.com/huangsam/binforecast/schema"
)

// Summarize aggregates a prediction set. Districts supply bin capacities for
// utilization; predictions of districts without a positive capacity are left
// out of the utilization average.
func Summarize(preds []schema.Prediction, districts []schema.District, topN int) schema.ForecastSummary {
	summary := schema.ForecastSummary{
		TotalDistricts: len(preds),
		HighRisk:       []string{},
		ModerateRisk:   []string{},
		Safe:           []string{},
		VolumeTierDistribution: map[schema.VolumeTier]int{
			schema.NormalVolume:   0,
			schema.ModerateVolume: 0,
			schema.HighVolume:     0,
		},
	}
	if len(preds) == 0 {
		summary.TopByVolume = []schema.VolumeEntry{}
		return summary
	}
	summary.ForecastDate = preds[0].Date

	capacities := make(map[string]float64, len(districts))
	for _, d := range districts {
		capacities[d.ID] = d.BinCapacity
	}

	var confidenceSum, utilizationSum float64
	var utilizationCount int
	for _, p := range preds {
		switch p.OverflowRisk {
		case schema.HighRisk:
			summary.HighRisk = append(summary.HighRisk, p.BarangayName)
		case schema.ModerateRisk:
			summary.ModerateRisk = append(summary.ModerateRisk, p.BarangayName)
		default:
			summary.Safe = append(summary.Safe, p.BarangayName)
		}
		summary.TotalVolume += p.PredictedVolume
		confidenceSum += p.Confidence
		summary.VolumeTierDistribution[p.VolumeRisk.Category]++

		if capacity := capacities[p.BarangayID]; capacity > 0 {
			utilizationSum += Utilization(p.PredictedVolume, capacity)
			utilizationCount++
		}
	}
	summary.HighRiskCount = len(summary.HighRisk)
	summary.ModerateRiskCount = len(summary.ModerateRisk)
	summary.SafeCount = len(summary.Safe)
	summary.AverageConfidence = confidenceSum / float64(len(preds))
	if utilizationCount > 0 {
		summary.AverageUtilizationPct = utilizationSum / float64(utilizationCount)
	}

	top := RankByVolume(preds, topN)
	summary.TopByVolume = make([]schema.VolumeEntry, 0, len(top))
	for _, p := range top {
		summary.TopByVolume = append(summary.TopByVolume, schema.VolumeEntry{
			BarangayID:   p.BarangayID,
			BarangayName: p.BarangayName,
			Volume:       p.PredictedVolume,
		})
	}
	return summary
}

// Utilization is volume as a percentage of capacity, or 0 without capacity.
func Utilization(volume, capacity float64) float64 {
	if capacity <= 0 {
		return 0
	}
	return volume / capacity * 100
}

// Enrich ranks predictions by volume and attaches capacity utilization.
func Enrich(preds []schema.Prediction, districts []schema.District, limit int) []schema.EnrichedPrediction {
	capacities := make(map[string]float64, len(districts))
	for _, d := range districts {
		capacities[d.ID] = d.BinCapacity
	}
	ranked := RankByVolume(preds, limit)
	out := make([]schema.EnrichedPrediction, 0, len(ranked))
	for i, p := range ranked {
		out = append(out, schema.EnrichedPrediction{
			Rank:        i + 1,
			Utilization: Utilization(p.PredictedVolume, capacities[p.BarangayID]),
			Prediction:  p,
		})
	}
	return out
}
