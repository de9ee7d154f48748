package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/binforecast/internal/contract"
	"github.com/huangsam/binforecast/internal/parquet"
	"github.com/huangsam/binforecast/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteRangeResults outputs a multi-day forecast, dispatching based on the output format configured.
func WriteRangeResults(days []schema.RangeDay, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRangeJSON(w, days, cfg.Detail)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRangeCSV(w, days, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		var rows []parquet.PredictionRow
		for _, day := range days {
			rows = append(rows, parquet.ConvertEnrichedPredictions(day.Predictions)...)
		}
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.Write(w, rows)
		}, "Wrote Parquet"); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRangeTable(w, days, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// writeRangeJSON writes the days of a range. Per-district predictions are kept only in detail mode.
func writeRangeJSON(w io.Writer, days []schema.RangeDay, detail bool) error {
	out := make([]schema.RangeDay, len(days))
	for i, day := range days {
		if !detail {
			day.Predictions = nil
		}
		out[i] = day
	}
	return writeJSON(w, out)
}

// topDistrict returns the name and volume of the largest prediction of a day.
func topDistrict(day schema.RangeDay) (string, float64) {
	if len(day.TopByVolume) == 0 {
		return "-", 0
	}
	return day.TopByVolume[0].BarangayName, day.TopByVolume[0].Volume
}

// writeRangeCSV writes one CSV record per forecast date.
func writeRangeCSV(w io.Writer, days []schema.RangeDay, fmtFloat func(float64) string) error {
	header := []string{
		"forecast_date",
		"source",
		"total_districts",
		"high_risk",
		"moderate_risk",
		"safe",
		"total_predicted_volume",
		"average_confidence",
		"average_capacity_utilization_pct",
		"top_district",
		"top_volume",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, day := range days {
			name, volume := topDistrict(day)
			record := []string{
				day.ForecastDate,
				string(day.Source),
				strconv.Itoa(day.TotalDistricts),
				strconv.Itoa(day.HighRiskCount),
				strconv.Itoa(day.ModerateRiskCount),
				strconv.Itoa(day.SafeCount),
				fmtFloat(day.TotalVolume),
				strconv.FormatFloat(day.AverageConfidence, 'f', 3, 64),
				fmtFloat(day.AverageUtilizationPct),
				name,
				fmtFloat(volume),
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// writeRangeTable writes one table row per forecast date.
func writeRangeTable(w io.Writer, days []schema.RangeDay, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Date", "Source", "High", "Moderate", "Safe", "Total (kg)", "Util %", "Top District"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	nameWidth := GetMaxTableNameWidth(cfg)
	var data [][]string
	for _, day := range days {
		name, _ := topDistrict(day)
		high := strconv.Itoa(day.HighRiskCount)
		if cfg.UseColors && day.HighRiskCount > 0 {
			high = contract.HighColor.Sprint(high)
		}
		data = append(data, []string{
			day.ForecastDate,
			string(day.Source),
			high,
			strconv.Itoa(day.ModerateRiskCount),
			strconv.Itoa(day.SafeCount),
			fmtFloat(day.TotalVolume),
			fmtFloat(day.AverageUtilizationPct),
			contract.TruncateName(name, nameWidth),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Forecast range of %d days completed in %v\n", len(days), duration); err != nil {
		return err
	}
	return nil
}
