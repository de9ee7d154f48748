package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/binforecast/internal/contract"
	"github.com/huangsam/binforecast/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// volumeTierOrder lists tiers from the lowest to the highest volume.
var volumeTierOrder = []schema.VolumeTier{schema.NormalVolume, schema.ModerateVolume, schema.HighVolume}

// WriteSummaryResults outputs a forecast summary, dispatching based on the output format configured.
func WriteSummaryResults(summary schema.ForecastSummary, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, summary)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSummaryCSV(w, summary, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return errUnsupportedOutput(cfg.Output, "summaries")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSummaryTable(w, summary, cfg, fmtFloat)
		}, "Wrote table")
	}
	return nil
}

// summaryRows returns the headline figures of a summary as label/value pairs.
func summaryRows(s schema.ForecastSummary, fmtFloat func(float64) string) [][]string {
	rows := [][]string{
		{"Forecast Date", s.ForecastDate},
		{"Total Districts", strconv.Itoa(s.TotalDistricts)},
		{"High Risk", strconv.Itoa(s.HighRiskCount)},
		{"Moderate Risk", strconv.Itoa(s.ModerateRiskCount)},
		{"Safe", strconv.Itoa(s.SafeCount)},
		{"Total Volume (kg)", fmtFloat(s.TotalVolume)},
		{"Average Confidence", fmtPercent(s.AverageConfidence)},
		{"Average Utilization %", fmtFloat(s.AverageUtilizationPct)},
	}
	for _, tier := range volumeTierOrder {
		rows = append(rows, []string{string(tier), strconv.Itoa(s.VolumeTierDistribution[tier])})
	}
	return rows
}

// writeSummaryCSV writes a summary as metric/value records.
func writeSummaryCSV(w io.Writer, s schema.ForecastSummary, fmtFloat func(float64) string) error {
	return writeCSVWithHeader(w, []string{"metric", "value"}, func(cw *csv.Writer) error {
		rows := summaryRows(s, fmtFloat)
		rows = append(rows,
			[]string{"High Risk Districts", strings.Join(s.HighRisk, ";")},
			[]string{"Moderate Risk Districts", strings.Join(s.ModerateRisk, ";")},
		)
		for _, row := range rows {
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// writeSummaryTable writes the headline table, the top districts and the at-risk lists.
func writeSummaryTable(w io.Writer, s schema.ForecastSummary, cfg *contract.Config, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Summary", "Value"})
	if err := table.Bulk(summaryRows(s, fmtFloat)); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if len(s.TopByVolume) > 0 {
		top := tablewriter.NewWriter(w)
		top.Header([]string{"Rank", "District", "Volume (kg)"})
		top.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignRight
		})
		nameWidth := GetMaxTableNameWidth(cfg)
		var data [][]string
		for i, entry := range s.TopByVolume {
			data = append(data, []string{
				strconv.Itoa(i + 1),
				contract.TruncateName(entry.BarangayName, nameWidth),
				fmtFloat(entry.Volume),
			})
		}
		if err := top.Bulk(data); err != nil {
			return err
		}
		if err := top.Render(); err != nil {
			return err
		}
	}

	lists := []struct {
		risk  schema.RiskLevel
		names []string
	}{
		{schema.HighRisk, s.HighRisk},
		{schema.ModerateRisk, s.ModerateRisk},
	}
	for _, list := range lists {
		if len(list.names) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n", riskLabel(list.risk, cfg), strings.Join(list.names, ", ")); err != nil {
			return err
		}
	}
	return nil
}
