package algo

import (
	"github.com/huangsam/binforecast/schema"
)

// trendThreshold is the relative first-to-last change that counts as a trend.
const trendThreshold = 0.05

// ComputeTrend classifies a chronological series of volumes.
func ComputeTrend(volumes []float64) schema.Trend {
	if len(volumes) < 2 {
		return schema.StableTrend
	}
	first, last := volumes[0], volumes[len(volumes)-1]
	if first <= 0 {
		if last > 0 {
			return schema.IncreasingTrend
		}
		return schema.StableTrend
	}
	change := (last - first) / first
	switch {
	case change > trendThreshold:
		return schema.IncreasingTrend
	case change < -trendThreshold:
		return schema.DecreasingTrend
	default:
		return schema.StableTrend
	}
}

// BuildDistrictHistory turns chronological prediction records of one district into a history.
func BuildDistrictHistory(id string, records []schema.PredictionRecord) schema.DistrictHistory {
	history := schema.DistrictHistory{
		BarangayID:  id,
		Predictions: make([]schema.HistoryPoint, 0, len(records)),
		Trend:       schema.StableTrend,
	}
	if len(records) == 0 {
		return history
	}
	volumes := make([]float64, 0, len(records))
	var sum float64
	for _, r := range records {
		history.BarangayName = r.BarangayName
		history.Predictions = append(history.Predictions, schema.HistoryPoint{
			RunID:           r.RunID,
			Date:            r.ForecastDate,
			PredictedVolume: r.PredictedVolume,
			OverflowRisk:    schema.RiskLevel(r.OverflowRisk),
			VolumeTier:      r.VolumeTier,
		})
		volumes = append(volumes, r.PredictedVolume)
		sum += r.PredictedVolume
	}
	history.AverageVolume = sum / float64(len(records))
	history.Trend = ComputeTrend(volumes)
	return history
}
