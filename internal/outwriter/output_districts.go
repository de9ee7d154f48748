package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/binforecast/internal/contract"
	"github.com/huangsam/binforecast/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteDistrictForecastResult outputs the forecast of one district with its factors.
func WriteDistrictForecastResult(p schema.EnrichedPrediction, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, p)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, forecastCSVHeader, func(cw *csv.Writer) error {
				return cw.Write(forecastCSVRecord(p, fmtFloat))
			})
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return errUnsupportedOutput(cfg.Output, "a single district")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDistrictForecastTable(w, p, cfg, fmtFloat)
		}, "Wrote table")
	}
	return nil
}

// writeDistrictForecastTable writes the prediction fields followed by the factor breakdown.
func writeDistrictForecastTable(w io.Writer, p schema.EnrichedPrediction, cfg *contract.Config, fmtFloat func(float64) string) error {
	if _, err := fmt.Fprintf(w, "%s (%s) on %s\n", p.BarangayName, p.BarangayID, p.Date); err != nil {
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Field", "Value"})
	rows := [][]string{
		{"Predicted Volume (kg)", fmtFloat(p.PredictedVolume)},
		{"Overflow Risk", riskLabel(p.OverflowRisk, cfg)},
		{"Overflow Probability", fmtPercent(p.OverflowProbability)},
		{"Confidence", fmtPercent(p.Confidence)},
		{"Capacity Utilization %", fmtFloat(p.Utilization)},
		{"Volume Tier", string(p.VolumeRisk.Category)},
		{"Action", p.VolumeRisk.Action},
		{"Events", eventsLabel(p.Events, cfg)},
		{"Event Multiplier", strconv.FormatFloat(p.EventMultiplier, 'f', 2, 64)},
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if len(p.Factors) == 0 {
		return nil
	}
	factors := tablewriter.NewWriter(w)
	factors.Header([]string{"Factor", "Value", "Importance"})
	var data [][]string
	for _, f := range p.Factors {
		data = append(data, []string{f.Feature, f.Value, strconv.FormatFloat(f.Importance, 'f', 3, 64)})
	}
	if err := factors.Bulk(data); err != nil {
		return err
	}
	return factors.Render()
}

// WriteDistrictHistoryResult outputs the recorded prediction history of one district.
func WriteDistrictHistoryResult(h schema.DistrictHistory, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, h)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHistoryCSV(w, h, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return errUnsupportedOutput(cfg.Output, "district history")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHistoryTable(w, h, cfg, fmtFloat)
		}, "Wrote table")
	}
	return nil
}

// writeHistoryCSV writes one CSV record per recorded prediction.
func writeHistoryCSV(w io.Writer, h schema.DistrictHistory, fmtFloat func(float64) string) error {
	header := []string{"run_id", "barangay_id", "forecast_date", "predicted_volume", "overflow_risk", "volume_tier"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, point := range h.Predictions {
			record := []string{
				strconv.FormatInt(point.RunID, 10),
				h.BarangayID,
				point.Date,
				fmtFloat(point.PredictedVolume),
				string(point.OverflowRisk),
				point.VolumeTier,
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// writeHistoryTable writes the recorded predictions followed by the average and trend.
func writeHistoryTable(w io.Writer, h schema.DistrictHistory, cfg *contract.Config, fmtFloat func(float64) string) error {
	if len(h.Predictions) == 0 {
		_, err := fmt.Fprintf(w, "No recorded predictions for district %s\n", h.BarangayID)
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Run", "Date", "Volume (kg)", "Risk", "Tier"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for _, point := range h.Predictions {
		data = append(data, []string{
			strconv.FormatInt(point.RunID, 10),
			point.Date,
			fmtFloat(point.PredictedVolume),
			riskLabel(point.OverflowRisk, cfg),
			point.VolumeTier,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s (%s): %d predictions, average %s kg, trend %s\n",
		h.BarangayName, h.BarangayID, len(h.Predictions), fmtFloat(h.AverageVolume), h.Trend)
	return err
}

// WriteDistrictList outputs the district reference data.
func WriteDistrictList(districts []schema.District, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, districts)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDistrictsCSV(w, districts, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return errUnsupportedOutput(cfg.Output, "districts")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDistrictsTable(w, districts, cfg, fmtFloat)
		}, "Wrote table")
	}
	return nil
}

// districtRecord flattens one district, including its derived baseline.
func districtRecord(d schema.District, fmtFloat func(float64) string) []string {
	return []string{
		d.ID,
		d.Name,
		strconv.Itoa(d.Population),
		fmtFloat(d.EffectiveDensity()),
		fmtFloat(d.BinCapacity),
		strconv.FormatBool(d.HasMarket),
		string(d.FloodRisk),
		fmtFloat(d.Baseline()),
	}
}

// writeDistrictsCSV writes one CSV record per district.
func writeDistrictsCSV(w io.Writer, districts []schema.District, fmtFloat func(float64) string) error {
	header := []string{"id", "name", "population", "population_density", "bin_capacity", "has_market", "flood_risk", "baseline_volume"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, d := range districts {
			if err := cw.Write(districtRecord(d, fmtFloat)); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// writeDistrictsTable writes the district reference table.
func writeDistrictsTable(w io.Writer, districts []schema.District, cfg *contract.Config, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Name", "Population", "Density", "Capacity (kg)", "Market", "Flood", "Baseline (kg)"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	nameWidth := GetMaxTableNameWidth(cfg)
	var data [][]string
	for _, d := range districts {
		row := districtRecord(d, fmtFloat)
		row[1] = contract.TruncateName(row[1], nameWidth)
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d districts\n", len(districts))
	return err
}
