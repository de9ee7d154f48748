// Package algo has pure aggregation logic over prediction sets.
package algo

import (
	"sort"

	"github.com/huangsam/binforecast/schema"
)

// RankByVolume sorts predictions by predicted volume in descending order
// and returns the top 'limit' predictions. If limit is not positive or greater
// than the number of predictions, all predictions are returned in sorted order.
// The input slice is not modified.
func RankByVolume(preds []schema.Prediction, limit int) []schema.Prediction {
	ranked := make([]schema.Prediction, len(preds))
	copy(ranked, preds)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PredictedVolume > ranked[j].PredictedVolume
	})
	if limit > 0 && len(ranked) > limit {
		return ranked[:limit]
	}
	return ranked
}

// RankByRisk sorts predictions from the highest overflow probability to the lowest.
func RankByRisk(preds []schema.Prediction, limit int) []schema.Prediction {
	ranked := make([]schema.Prediction, len(preds))
	copy(ranked, preds)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].OverflowProbability != ranked[j].OverflowProbability {
			return ranked[i].OverflowProbability > ranked[j].OverflowProbability
		}
		return ranked[i].PredictedVolume > ranked[j].PredictedVolume
	})
	if limit > 0 && len(ranked) > limit {
		return ranked[:limit]
	}
	return ranked
}

// FindByID returns the prediction for a district id.
func FindByID(preds []schema.Prediction, id string) (schema.Prediction, bool) {
	for _, p := range preds {
		if p.BarangayID == id {
			return p, true
		}
	}
	return schema.Prediction{}, false
}

// FilterByRisk returns predictions with the given overflow risk, preserving order.
func FilterByRisk(preds []schema.Prediction, risk schema.RiskLevel) []schema.Prediction {
	var out []schema.Prediction
	for _, p := range preds {
		if p.OverflowRisk == risk {
			out = append(out, p)
		}
	}
	return out
}
