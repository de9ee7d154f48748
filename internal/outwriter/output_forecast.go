package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/binforecast/internal/contract"
	"github.com/huangsam/binforecast/internal/parquet"
	"github.com/huangsam/binforecast/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// forecastJSON is the JSON document of one forecast run.
type forecastJSON struct {
	RunID          string                      `json:"run_id"`
	ReferenceDate  string                      `json:"reference_date"`
	ForecastDate   string                      `json:"forecast_date"`
	Source         schema.ForecastSource       `json:"source"`
	Endpoint       string                      `json:"endpoint,omitempty"`
	GeneratedAt    time.Time                   `json:"generated_at"`
	TotalDistricts int                         `json:"total_districts"`
	Predictions    []schema.EnrichedPrediction `json:"predictions"`
	Metrics        *schema.ModelMetrics        `json:"metrics,omitempty"`
}

// WriteForecastResults outputs ranked predictions, dispatching based on the output format configured.
func WriteForecastResults(result *schema.ForecastResult, preds []schema.EnrichedPrediction, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeForecastJSON(w, result, preds, cfg.Detail)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeForecastCSV(w, preds, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.Write(w, parquet.ConvertEnrichedPredictions(preds))
		}, "Wrote Parquet"); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeForecastTable(w, result, preds, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// writeForecastJSON writes one forecast run as a JSON document.
func writeForecastJSON(w io.Writer, result *schema.ForecastResult, preds []schema.EnrichedPrediction, detail bool) error {
	doc := forecastJSON{
		RunID:          result.RunID,
		ReferenceDate:  result.ReferenceDate,
		ForecastDate:   result.ForecastDate,
		Source:         result.Source,
		Endpoint:       result.Endpoint,
		GeneratedAt:    result.GeneratedAt,
		TotalDistricts: len(result.Predictions),
		Predictions:    preds,
	}
	if doc.Predictions == nil {
		doc.Predictions = []schema.EnrichedPrediction{}
	}
	if detail {
		doc.Metrics = result.Metrics
	}
	return writeJSON(w, doc)
}

// forecastCSVHeader lists the columns of prediction CSV output.
var forecastCSVHeader = []string{
	"rank",
	"barangay_id",
	"barangay_name",
	"forecast_date",
	"predicted_volume",
	"overflow_risk",
	"overflow_probability",
	"confidence",
	"capacity_utilization_pct",
	"volume_tier",
	"events",
	"event_multiplier",
}

// forecastCSVRecord flattens one ranked prediction into a CSV record.
func forecastCSVRecord(p schema.EnrichedPrediction, fmtFloat func(float64) string) []string {
	return []string{
		strconv.Itoa(p.Rank),
		p.BarangayID,
		p.BarangayName,
		p.Date,
		fmtFloat(p.PredictedVolume),
		string(p.OverflowRisk),
		strconv.FormatFloat(p.OverflowProbability, 'f', 3, 64),
		strconv.FormatFloat(p.Confidence, 'f', 3, 64),
		fmtFloat(p.Utilization),
		string(p.VolumeRisk.Category),
		strings.Join(p.Events, ";"),
		strconv.FormatFloat(p.EventMultiplier, 'f', 2, 64),
	}
}

// writeForecastCSV writes ranked predictions in CSV format.
func writeForecastCSV(w io.Writer, preds []schema.EnrichedPrediction, fmtFloat func(float64) string) error {
	return writeCSVWithHeader(w, forecastCSVHeader, func(cw *csv.Writer) error {
		for _, p := range preds {
			if err := cw.Write(forecastCSVRecord(p, fmtFloat)); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// writeForecastTable generates and writes the human-readable table.
func writeForecastTable(w io.Writer, result *schema.ForecastResult, preds []schema.EnrichedPrediction, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)

	headers := []string{"Rank", "District", "Volume (kg)", "Risk", "Prob", "Util %", "Tier"}
	if cfg.Detail {
		headers = append(headers, "Conf", "Events", "Mult")
	}
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	nameWidth := GetMaxTableNameWidth(cfg)
	var data [][]string
	for _, p := range preds {
		row := []string{
			strconv.Itoa(p.Rank),
			contract.TruncateName(p.BarangayName, nameWidth),
			fmtFloat(p.PredictedVolume),
			riskLabel(p.OverflowRisk, cfg),
			fmtPercent(p.OverflowProbability),
			fmtFloat(p.Utilization),
			string(p.VolumeRisk.Category),
		}
		if cfg.Detail {
			row = append(row,
				fmtPercent(p.Confidence),
				eventsLabel(p.Events, cfg),
				strconv.FormatFloat(p.EventMultiplier, 'f', 2, 64),
			)
		}
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	var high, moderate int
	for _, p := range result.Predictions {
		switch p.OverflowRisk {
		case schema.HighRisk:
			high++
		case schema.ModerateRisk:
			moderate++
		}
	}
	if _, err := fmt.Fprintf(w, "Showing %d of %d districts for %s (high: %d, moderate: %d)\n",
		len(preds), len(result.Predictions), result.ForecastDate, high, moderate); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Forecast from %s completed in %v. Cache backend: %s\n",
		sourceLabel(result.Source, result.Endpoint), duration, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}
