package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/huangsam/binforecast/internal/contract"
	"github.com/huangsam/binforecast/schema"
)

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	if err := writeRows(csvWriter); err != nil {
		return err
	}

	return nil
}

// createFormatters creates the common formatter closures used across multiple output types.
func createFormatters(precision int) (fmtFloat func(float64) string, intFmt string) {
	numFmt := "%.*f"
	intFmt = "%d"
	fmtFloat = func(v float64) string {
		return fmt.Sprintf(numFmt, precision, v)
	}
	return fmtFloat, intFmt
}

// fmtPercent renders a [0,1] fraction as a percentage.
func fmtPercent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

// errUnsupportedOutput reports an output mode that a view cannot render.
func errUnsupportedOutput(mode schema.OutputMode, view string) error {
	return fmt.Errorf("%s output is not supported for %s", mode, view)
}

// riskLabel returns a colored label for tables when colors are enabled.
func riskLabel(risk schema.RiskLevel, cfg *contract.Config) string {
	if cfg.UseColors {
		return contract.GetColorLabel(risk)
	}
	return contract.GetPlainLabel(risk)
}

// eventsLabel joins event names, highlighting them when colors are enabled.
func eventsLabel(events []string, cfg *contract.Config) string {
	if len(events) == 0 {
		return "-"
	}
	joined := strings.Join(events, ", ")
	if cfg.UseColors {
		return contract.EventColor.Sprint(joined)
	}
	return joined
}

// sourceLabel describes where a forecast came from.
func sourceLabel(source schema.ForecastSource, endpoint string) string {
	if source == schema.RemoteSource && endpoint != "" {
		return fmt.Sprintf("%s via %s", source, endpoint)
	}
	return string(source)
}
