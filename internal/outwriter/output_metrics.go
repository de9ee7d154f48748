package outwriter

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/huangsam/binforecast/internal/contract"
	"github.com/huangsam/binforecast/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// metricsJSON is the JSON document of the model metrics.
type metricsJSON struct {
	Endpoint string `json:"endpoint,omitempty"`
	*schema.ModelMetrics
}

// featureWeight is one entry of the feature importance ranking.
type featureWeight struct {
	Feature    string
	Importance float64
}

// rankFeatures orders feature importances from the most to the least important.
func rankFeatures(importance map[string]float64) []featureWeight {
	features := make([]featureWeight, 0, len(importance))
	for _, name := range slices.Sorted(maps.Keys(importance)) {
		features = append(features, featureWeight{Feature: name, Importance: importance[name]})
	}
	slices.SortStableFunc(features, func(a, b featureWeight) int {
		return cmp.Compare(b.Importance, a.Importance)
	})
	return features
}

// metricRows returns the scalar metrics as label/value pairs.
func metricRows(m *schema.ModelMetrics) [][]string {
	t := m.Thresholds()
	return [][]string{
		{"Model Version", m.ModelVersion},
		{"Last Trained", m.LastTrained},
		{"R2", strconv.FormatFloat(m.R2, 'f', 3, 64)},
		{"MSE", strconv.FormatFloat(m.MSE, 'f', 2, 64)},
		{"Accuracy", strconv.FormatFloat(m.Accuracy, 'f', 3, 64)},
		{"Explained Variance", strconv.FormatFloat(m.ExplainedVariance, 'f', 3, 64)},
		{"Features Used", strconv.Itoa(m.FeaturesUsed)},
		{"Barangays Covered", strconv.Itoa(m.BarangaysCovered)},
		{"Volume P70 (kg)", strconv.FormatFloat(t.P70, 'f', 0, 64)},
		{"Volume P90 (kg)", strconv.FormatFloat(t.P90, 'f', 0, 64)},
	}
}

// WriteModelMetrics outputs model metrics, dispatching based on the output format configured.
func WriteModelMetrics(m *schema.ModelMetrics, endpoint string, cfg *contract.Config) error {
	if m == nil {
		m = schema.DefaultModelMetrics()
	}
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, metricsJSON{Endpoint: endpoint, ModelMetrics: m})
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMetricsCSV(w, m)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return errUnsupportedOutput(cfg.Output, "model metrics")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMetricsTable(w, m, endpoint)
		}, "Wrote table")
	}
	return nil
}

// writeMetricsCSV writes metrics as metric/value records, feature importances last.
func writeMetricsCSV(w io.Writer, m *schema.ModelMetrics) error {
	return writeCSVWithHeader(w, []string{"metric", "value"}, func(cw *csv.Writer) error {
		for _, row := range metricRows(m) {
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		for _, f := range rankFeatures(m.FeatureImportance) {
			record := []string{"importance:" + f.Feature, strconv.FormatFloat(f.Importance, 'f', 3, 64)}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// writeMetricsTable writes a metrics table followed by a feature importance table.
func writeMetricsTable(w io.Writer, m *schema.ModelMetrics, endpoint string) error {
	source := "built-in defaults"
	if endpoint != "" {
		source = endpoint
	}
	if _, err := fmt.Fprintf(w, "Model metrics (%s)\n", source); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Metric", "Value"})
	if err := table.Bulk(metricRows(m)); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	features := rankFeatures(m.FeatureImportance)
	if len(features) == 0 {
		return nil
	}
	importance := tablewriter.NewWriter(w)
	importance.Header([]string{"Feature", "Importance"})
	importance.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for _, f := range features {
		data = append(data, []string{f.Feature, strconv.FormatFloat(f.Importance, 'f', 3, 64)})
	}
	if err := importance.Bulk(data); err != nil {
		return err
	}
	return importance.Render()
}
