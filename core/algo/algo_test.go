package algo

import (
	"testing"

	"github.com/huangsam/binforecast/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePredictions() []schema.Prediction {
	return []schema.Prediction{
		{BarangayID: "1", BarangayName: "Carmen", Date: "2026-01-14", PredictedVolume: 30000, OverflowRisk: schema.HighRisk, OverflowProbability: 0.9, Confidence: 0.9, VolumeRisk: schema.VolumeRisk{Category: schema.HighVolume}},
		{BarangayID: "2", BarangayName: "Bulua", Date: "2026-01-14", PredictedVolume: 5000, OverflowRisk: schema.ModerateRisk, OverflowProbability: 0.4, Confidence: 0.8, VolumeRisk: schema.VolumeRisk{Category: schema.ModerateVolume}},
		{BarangayID: "3", BarangayName: "Barangay 1", Date: "2026-01-14", PredictedVolume: 70, OverflowRisk: schema.SafeRisk, OverflowProbability: 0.0, Confidence: 0.7, VolumeRisk: schema.VolumeRisk{Category: schema.NormalVolume}},
		{BarangayID: "4", BarangayName: "Lumbia", Date: "2026-01-14", PredictedVolume: 12000, OverflowRisk: schema.SafeRisk, OverflowProbability: 0.1, Confidence: 0.8, VolumeRisk: schema.VolumeRisk{Category: schema.ModerateVolume}},
	}
}

func sampleDistricts() []schema.District {
	return []schema.District{
		{ID: "1", BinCapacity: 30000},
		{ID: "2", BinCapacity: 10000},
		{ID: "3", BinCapacity: 0},
		{ID: "4", BinCapacity: 24000},
	}
}

// TestRankByVolume tests ranking and limiting.
func TestRankByVolume(t *testing.T) {
	preds := samplePredictions()

	t.Run("rank and limit", func(t *testing.T) {
		ranked := RankByVolume(preds, 2)
		require.Len(t, ranked, 2)
		assert.Equal(t, "Carmen", ranked[0].BarangayName)
		assert.Equal(t, "Lumbia", ranked[1].BarangayName)
	})

	t.Run("limit exceeds length", func(t *testing.T) {
		assert.Len(t, RankByVolume(preds, 10), 4)
	})

	t.Run("zero limit returns all", func(t *testing.T) {
		assert.Len(t, RankByVolume(preds, 0), 4)
	})

	t.Run("input untouched", func(t *testing.T) {
		RankByVolume(preds, 0)
		assert.Equal(t, "Carmen", preds[0].BarangayName)
		assert.Equal(t, "Bulua", preds[1].BarangayName)
	})
}

// TestRankByRisk tests ordering by overflow probability.
func TestRankByRisk(t *testing.T) {
	ranked := RankByRisk(samplePredictions(), 3)
	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"1", "2", "4"}, []string{ranked[0].BarangayID, ranked[1].BarangayID, ranked[2].BarangayID})
}

// TestFindByID tests district lookup.
func TestFindByID(t *testing.T) {
	p, ok := FindByID(samplePredictions(), "4")
	assert.True(t, ok)
	assert.Equal(t, "Lumbia", p.BarangayName)

	_, ok = FindByID(samplePredictions(), "missing")
	assert.False(t, ok)
}

// TestFilterByRisk tests risk filtering.
func TestFilterByRisk(t *testing.T) {
	safe := FilterByRisk(samplePredictions(), schema.SafeRisk)
	require.Len(t, safe, 2)
	assert.Equal(t, "3", safe[0].BarangayID)
	assert.Empty(t, FilterByRisk(nil, schema.HighRisk))
}

// TestSummarize tests aggregate counts and averages.
func TestSummarize(t *testing.T) {
	s := Summarize(samplePredictions(), sampleDistricts(), 2)

	assert.Equal(t, "2026-01-14", s.ForecastDate)
	assert.Equal(t, 4, s.TotalDistricts)
	assert.Equal(t, 1, s.HighRiskCount)
	assert.Equal(t, 1, s.ModerateRiskCount)
	assert.Equal(t, 2, s.SafeCount)
	assert.Equal(t, []string{"Carmen"}, s.HighRisk)
	assert.Equal(t, []string{"Barangay 1", "Lumbia"}, s.Safe)
	assert.InDelta(t, 47070, s.TotalVolume, 1e-9)
	assert.InDelta(t, 0.8, s.AverageConfidence, 1e-9)
	// (100 + 50 + 50) / 3, the zero-capacity district is excluded
	assert.InDelta(t, 66.6667, s.AverageUtilizationPct, 1e-3)
	assert.Equal(t, 1, s.VolumeTierDistribution[schema.HighVolume])
	assert.Equal(t, 2, s.VolumeTierDistribution[schema.ModerateVolume])
	assert.Equal(t, 1, s.VolumeTierDistribution[schema.NormalVolume])
	require.Len(t, s.TopByVolume, 2)
	assert.Equal(t, "Carmen", s.TopByVolume[0].BarangayName)
}

// TestSummarizeEmpty tests that an empty set yields a zero summary.
func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, nil, 5)
	assert.Equal(t, 0, s.TotalDistricts)
	assert.Equal(t, 0.0, s.AverageConfidence)
	assert.NotNil(t, s.HighRisk)
	assert.NotNil(t, s.TopByVolume)
}

// TestEnrich tests rank and utilization attachment.
func TestEnrich(t *testing.T) {
	enriched := Enrich(samplePredictions(), sampleDistricts(), 0)
	require.Len(t, enriched, 4)
	assert.Equal(t, 1, enriched[0].Rank)
	assert.Equal(t, "Carmen", enriched[0].BarangayName)
	assert.InDelta(t, 100, enriched[0].Utilization, 1e-9)
	assert.Equal(t, 0.0, enriched[3].Utilization)
}

// TestComputeTrend tests the five percent trend band.
func TestComputeTrend(t *testing.T) {
	tests := []struct {
		name    string
		volumes []float64
		want    schema.Trend
	}{
		{"empty", nil, schema.StableTrend},
		{"single", []float64{100}, schema.StableTrend},
		{"increase", []float64{100, 90, 106}, schema.IncreasingTrend},
		{"decrease", []float64{100, 120, 94}, schema.DecreasingTrend},
		{"within band", []float64{100, 104}, schema.StableTrend},
		{"edge of band", []float64{100, 105}, schema.StableTrend},
		{"from zero", []float64{0, 10}, schema.IncreasingTrend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeTrend(tt.volumes))
		})
	}
}

// TestBuildDistrictHistory tests average and trend over records.
func TestBuildDistrictHistory(t *testing.T) {
	records := []schema.PredictionRecord{
		{RunID: 1, BarangayName: "Carmen", ForecastDate: "2026-01-14", PredictedVolume: 1000, OverflowRisk: "safe", VolumeTier: "Normal Volume"},
		{RunID: 2, BarangayName: "Carmen", ForecastDate: "2026-01-15", PredictedVolume: 2000, OverflowRisk: "high", VolumeTier: "Normal Volume"},
	}
	h := BuildDistrictHistory("1", records)
	assert.Equal(t, "Carmen", h.BarangayName)
	assert.Len(t, h.Predictions, 2)
	assert.InDelta(t, 1500, h.AverageVolume, 1e-9)
	assert.Equal(t, schema.IncreasingTrend, h.Trend)
	assert.Equal(t, schema.HighRisk, h.Predictions[1].OverflowRisk)

	empty := BuildDistrictHistory("x", nil)
	assert.Equal(t, schema.StableTrend, empty.Trend)
	assert.Empty(t, empty.Predictions)
}
