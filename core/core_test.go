package core

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/binforecast/core/sim"
	"github.com/huangsam/binforecast/internal/contract"
	"github.com/huangsam/binforecast/internal/iocache"
	"github.com/huangsam/binforecast/internal/mlclient"
	"github.com/huangsam/binforecast/internal/outwriter"
	"github.com/huangsam/binforecast/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var referenceDate = time.Date(2025, 12, 4, 0, 0, 0, 0, time.UTC)

func testDistricts() []schema.District {
	return []schema.District{
		{ID: "1", Name: "Agusan", Population: 39000, PopulationDensity: 780, BinCapacity: 20000, FloodRisk: schema.LowFlood},
		{ID: "9", Name: "Carmen", Population: 77756, PopulationDensity: 1555, BinCapacity: 30000, HasMarket: true, FloodRisk: schema.HighFlood, TotalWaste: 32657.52},
		{ID: "3", Name: "Lumbia", Population: 1200, BinCapacity: 0, FloodRisk: schema.MediumFlood},
	}
}

func testConfig() *contract.Config {
	return &contract.Config{
		ReferenceDate: referenceDate,
		Days:          3,
		Seed:          42,
		Offline:       true,
		Output:        schema.TextOut,
		CacheBackend:  schema.NoneBackend,
	}
}

// newOfflineEngine builds an engine whose forecaster always simulates.
func newOfflineEngine(t *testing.T, history contract.HistoryStore) *Engine {
	t.Helper()
	generator := sim.NewGenerator(sim.NewRand(42), nil)
	client := mlclient.New(generator, mlclient.Options{Endpoints: []string{}})
	return NewEngine(testConfig(), testDistricts(), client, history, zap.NewNop())
}

func TestEngineForecastPublishes(t *testing.T) {
	eng := newOfflineEngine(t, nil)
	assert.Nil(t, eng.Latest())

	result, err := eng.Forecast(context.Background(), referenceDate)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Same(t, result, eng.Latest())
	assert.Equal(t, "2025-12-04", result.ReferenceDate)
	assert.Equal(t, "2025-12-05", result.ForecastDate)
	assert.Equal(t, schema.SimulationSource, result.Source)
	assert.Len(t, result.Predictions, 3)
	assert.NotNil(t, result.Metrics)
}

func TestForecastForDateReusesLatest(t *testing.T) {
	eng := newOfflineEngine(t, nil)
	ctx := context.Background()

	published, err := eng.Forecast(ctx, referenceDate)
	require.NoError(t, err)

	same, err := eng.ForecastForDate(ctx, referenceDate)
	require.NoError(t, err)
	assert.Same(t, published, same)

	other, err := eng.ForecastForDate(ctx, referenceDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, "2025-12-06", other.ForecastDate)
	assert.Same(t, published, eng.Latest(), "lookups do not publish")
}

func TestForecastRange(t *testing.T) {
	eng := newOfflineEngine(t, nil)

	results, err := eng.ForecastRange(context.Background(), referenceDate, 5)
	require.NoError(t, err)
	require.Len(t, results, 5)

	expected := []string{"2025-12-05", "2025-12-06", "2025-12-07", "2025-12-08", "2025-12-09"}
	for i, result := range results {
		assert.Equal(t, expected[i], result.ForecastDate)
		assert.Len(t, result.Predictions, 3)
		for _, p := range result.Predictions {
			assert.Equal(t, expected[i], p.Date)
		}
	}
	assert.Nil(t, eng.Latest())

	_, err = eng.ForecastRange(context.Background(), referenceDate, 0)
	assert.Error(t, err)
}

func TestForecastRecordsHistory(t *testing.T) {
	store := &iocache.MockHistoryStore{}
	store.On("BeginRun", mock.MatchedBy(func(info schema.RunInfo) bool {
		return info.RunUUID != "" && info.ReferenceDate == "2025-12-04" && info.ForecastDate == "2025-12-05" &&
			info.ConfigParams["offline"] == true
	})).Return(int64(7), nil).Once()
	store.On("RecordPrediction", int64(7), mock.AnythingOfType("schema.Prediction")).Return(nil).Times(3)
	store.On("EndRun", int64(7), mock.MatchedBy(func(outcome schema.RunOutcome) bool {
		return outcome.Source == schema.SimulationSource && outcome.DistrictCount == 3 && outcome.Endpoint == ""
	})).Return(nil).Once()

	eng := newOfflineEngine(t, store)
	_, err := eng.Forecast(context.Background(), referenceDate)
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestForecastRecordFailure(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(store *iocache.MockHistoryStore)
		errMsg string
	}{
		{
			name: "begin fails",
			setup: func(store *iocache.MockHistoryStore) {
				store.On("BeginRun", mock.Anything).Return(int64(0), assert.AnError)
			},
			errMsg: "failed to begin forecast run",
		},
		{
			name: "prediction fails",
			setup: func(store *iocache.MockHistoryStore) {
				store.On("BeginRun", mock.Anything).Return(int64(3), nil)
				store.On("RecordPrediction", int64(3), mock.Anything).Return(assert.AnError)
			},
			errMsg: "failed to record prediction",
		},
		{
			name: "end fails",
			setup: func(store *iocache.MockHistoryStore) {
				store.On("BeginRun", mock.Anything).Return(int64(3), nil)
				store.On("RecordPrediction", int64(3), mock.Anything).Return(nil)
				store.On("EndRun", int64(3), mock.Anything).Return(assert.AnError)
			},
			errMsg: "failed to end forecast run 3",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &iocache.MockHistoryStore{}
			tt.setup(store)
			eng := newOfflineEngine(t, store)

			result, err := eng.Forecast(context.Background(), referenceDate)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.True(t, errors.Is(err, assert.AnError))
			require.NotNil(t, result, "the forecast survives a recording failure")
			assert.Same(t, result, eng.Latest())
		})
	}
}

func TestEngineWithSQLiteHistory(t *testing.T) {
	store, err := iocache.NewHistoryStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	eng := newOfflineEngine(t, store)
	ctx := context.Background()
	_, err = eng.Forecast(ctx, referenceDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	_, err = eng.Forecast(ctx, referenceDate)
	require.NoError(t, err)

	history, err := DistrictHistory(store, "9")
	require.NoError(t, err)
	assert.Equal(t, "Carmen", history.BarangayName)
	require.Len(t, history.Predictions, 2)
	assert.Equal(t, "2025-12-05", history.Predictions[0].Date)
	assert.Equal(t, "2025-12-06", history.Predictions[1].Date)
	assert.Greater(t, history.AverageVolume, 0.0)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalRuns)
	assert.Equal(t, 6, status.TotalPredictions)
}

func TestDistrictHistoryDisabled(t *testing.T) {
	_, err := DistrictHistory(nil, "9")
	assert.ErrorIs(t, err, ErrHistoryDisabled)

	store := &iocache.MockHistoryStore{}
	store.On("GetDistrictPredictions", "9").Return(nil, assert.AnError)
	_, err = DistrictHistory(store, "9")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestExecuteForecast(t *testing.T) {
	eng := newOfflineEngine(t, nil)
	cfg := testConfig()
	cfg.ResultLimit = 2

	w := &outwriter.MockOutputWriter{}
	w.On("WriteForecast", mock.AnythingOfType("*schema.ForecastResult"), mock.MatchedBy(func(preds []schema.EnrichedPrediction) bool {
		return len(preds) == 2 && preds[0].Rank == 1 && preds[0].PredictedVolume >= preds[1].PredictedVolume
	}), cfg, mock.AnythingOfType("time.Duration")).Return(nil).Once()

	require.NoError(t, ExecuteForecast(context.Background(), eng, cfg, w))
	w.AssertExpectations(t)
	assert.NotNil(t, eng.Latest())
}

func TestExecuteForecastWriterError(t *testing.T) {
	eng := newOfflineEngine(t, nil)
	w := &outwriter.MockOutputWriter{}
	w.On("WriteForecast", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)
	assert.ErrorIs(t, ExecuteForecast(context.Background(), eng, testConfig(), w), assert.AnError)
}

func TestExecuteRange(t *testing.T) {
	eng := newOfflineEngine(t, nil)
	cfg := testConfig()

	w := &outwriter.MockOutputWriter{}
	w.On("WriteRange", mock.MatchedBy(func(days []schema.RangeDay) bool {
		if len(days) != 3 {
			return false
		}
		for _, day := range days {
			if day.TotalDistricts != 3 || len(day.Predictions) != 3 || day.Source != schema.SimulationSource {
				return false
			}
		}
		return days[0].ForecastDate == "2025-12-05" && days[2].ForecastDate == "2025-12-07"
	}), cfg, mock.Anything).Return(nil).Once()

	require.NoError(t, ExecuteRange(context.Background(), eng, cfg, w))
	w.AssertExpectations(t)
}

func TestExecuteMetrics(t *testing.T) {
	forecaster := &mlclient.MockForecaster{}
	metrics := schema.DefaultModelMetrics()
	forecaster.On("FetchMetrics", mock.Anything, true).Return(metrics).Once()
	forecaster.On("ActiveEndpoint").Return("http://localhost:8000")

	cfg := testConfig()
	cfg.ForceMetrics = true
	eng := NewEngine(cfg, testDistricts(), forecaster, nil, nil)

	w := &outwriter.MockOutputWriter{}
	w.On("WriteMetrics", metrics, "http://localhost:8000", cfg).Return(nil).Once()

	require.NoError(t, ExecuteMetrics(context.Background(), eng, cfg, w))
	forecaster.AssertExpectations(t)
	w.AssertExpectations(t)
}

func TestExecuteSummary(t *testing.T) {
	forecaster := &mlclient.MockForecaster{}
	result := &schema.ForecastResult{
		ReferenceDate: "2025-12-04",
		ForecastDate:  "2025-12-05",
		Source:        schema.SimulationSource,
		Predictions: []schema.Prediction{
			{BarangayID: "1", BarangayName: "Agusan", Date: "2025-12-05", PredictedVolume: 10000, OverflowRisk: schema.SafeRisk, Confidence: 0.9,
				VolumeRisk: schema.VolumeRisk{Category: schema.ModerateVolume}},
			{BarangayID: "9", BarangayName: "Carmen", Date: "2025-12-05", PredictedVolume: 36000, OverflowRisk: schema.HighRisk, Confidence: 0.8,
				VolumeRisk: schema.VolumeRisk{Category: schema.HighVolume}},
		},
	}
	forecaster.On("Forecast", mock.Anything, mock.Anything, referenceDate).Return(result).Once()
	eng := NewEngine(testConfig(), testDistricts(), forecaster, nil, nil)

	w := &outwriter.MockOutputWriter{}
	w.On("WriteSummary", mock.MatchedBy(func(s schema.ForecastSummary) bool {
		return s.TotalDistricts == 2 && s.HighRiskCount == 1 && s.TotalVolume == 46000 &&
			len(s.TopByVolume) == 2 && s.TopByVolume[0].BarangayName == "Carmen"
	}), mock.Anything).Return(nil).Once()

	require.NoError(t, ExecuteSummary(context.Background(), eng, testConfig(), w))
	w.AssertExpectations(t)
	forecaster.AssertExpectations(t)
}

func TestExecuteDistrictForecast(t *testing.T) {
	store := &iocache.MockHistoryStore{}
	eng := newOfflineEngine(t, store)

	tests := []struct {
		name    string
		key     string
		wantID  string
		wantErr string
	}{
		{name: "by id", key: "9", wantID: "9"},
		{name: "by name", key: "lumbia", wantID: "3"},
		{name: "unknown", key: "Atlantis", wantErr: `unknown district "Atlantis"`},
		{name: "missing", key: "", wantErr: "--district is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.DistrictID = tt.key
			w := &outwriter.MockOutputWriter{}
			w.On("WriteDistrictForecast", mock.Anything, cfg).Return(nil)

			err := ExecuteDistrictForecast(context.Background(), eng, cfg, w)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				w.AssertNotCalled(t, "WriteDistrictForecast", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			p := w.Calls[0].Arguments.Get(0).(schema.EnrichedPrediction)
			assert.Equal(t, tt.wantID, p.BarangayID)
			assert.Positive(t, p.Rank)
		})
	}
	store.AssertNotCalled(t, "BeginRun", mock.Anything)
}

func TestExecuteDistrictHistory(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.DistrictID = "9"
		err := ExecuteDistrictHistory(context.Background(), newOfflineEngine(t, nil), cfg, &outwriter.MockOutputWriter{})
		assert.ErrorIs(t, err, ErrHistoryDisabled)
	})

	t.Run("name resolves to id", func(t *testing.T) {
		store := &iocache.MockHistoryStore{}
		store.On("GetDistrictPredictions", "9").Return([]schema.PredictionRecord{
			{RunID: 1, BarangayID: "9", BarangayName: "Carmen", ForecastDate: "2025-12-05", PredictedVolume: 30000},
			{RunID: 2, BarangayID: "9", BarangayName: "Carmen", ForecastDate: "2025-12-06", PredictedVolume: 33000},
		}, nil)
		cfg := testConfig()
		cfg.DistrictID = "Carmen"

		w := &outwriter.MockOutputWriter{}
		w.On("WriteDistrictHistory", mock.MatchedBy(func(h schema.DistrictHistory) bool {
			return h.BarangayID == "9" && len(h.Predictions) == 2 && h.Trend == schema.IncreasingTrend
		}), cfg).Return(nil).Once()

		require.NoError(t, ExecuteDistrictHistory(context.Background(), newOfflineEngine(t, store), cfg, w))
		w.AssertExpectations(t)
	})
}

func TestExecuteDistricts(t *testing.T) {
	eng := newOfflineEngine(t, nil)
	cfg := testConfig()
	w := &outwriter.MockOutputWriter{}
	w.On("WriteDistricts", eng.Districts(), cfg).Return(nil).Once()
	require.NoError(t, ExecuteDistricts(context.Background(), eng, cfg, w))
	w.AssertExpectations(t)
}

func TestBuildEngine(t *testing.T) {
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetMetricsStore").Return(nil)
	mgr.On("GetHistoryStore").Return(nil)

	eng, err := BuildEngine(testConfig(), mgr, nil)
	require.NoError(t, err)
	assert.Len(t, eng.Districts(), 80)
	assert.Nil(t, eng.History())
	assert.False(t, eng.Initialize(context.Background()), "offline engines never reach a remote endpoint")
	assert.Equal(t, "", eng.Forecaster().ActiveEndpoint())

	cfg := testConfig()
	cfg.DistrictsPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = BuildEngine(cfg, nil, nil)
	assert.Error(t, err)
}

func TestBuildEngineSeededRangeIsReproducible(t *testing.T) {
	volumes := func() map[string][]float64 {
		eng, err := BuildEngine(testConfig(), nil, nil)
		require.NoError(t, err)
		results, err := eng.ForecastRange(context.Background(), testConfig().ReferenceDate, 7)
		require.NoError(t, err)
		byDate := map[string][]float64{}
		for _, r := range results {
			for _, p := range r.Predictions {
				byDate[r.ForecastDate] = append(byDate[r.ForecastDate], p.PredictedVolume)
			}
		}
		return byDate
	}

	first := volumes()
	require.Len(t, first, 7)
	for range 5 {
		assert.Equal(t, first, volumes())
	}
}

func TestConfigParams(t *testing.T) {
	assert.Nil(t, configParams(nil))

	cfg := testConfig()
	cfg.DistrictsPath = "districts.yaml"
	params := configParams(cfg)
	assert.Equal(t, int64(42), params["seed"])
	assert.Equal(t, "districts.yaml", params["districts"])
	assert.Equal(t, 0, params["events"])
}
