package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/binforecast/internal/contract"
	"github.com/huangsam/binforecast/internal/parquet"
)

// ExecuteHistoryExport exports recorded runs and predictions to two Parquet files
// named after outputFile, reporting progress to w.
func ExecuteHistoryExport(w io.Writer, store contract.HistoryStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("history store is not configured")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no forecast history found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total forecast runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total prediction records: %d\n", status.TableSizes[predictionsTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve forecast runs: %w", err)
	}
	predictions, err := store.GetAllPredictions()
	if err != nil {
		return fmt.Errorf("failed to retrieve predictions: %w", err)
	}

	parquetRuns := parquet.ConvertRunRecords(runs)
	runsFile := outputFile + ".forecast_runs.parquet"
	if err := parquet.WriteForecastRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write forecast runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d forecast runs to: %s\n", len(parquetRuns), runsFile)

	parquetPredictions := parquet.ConvertPredictionRecords(predictions)
	predictionsFile := outputFile + ".forecast_predictions.parquet"
	if err := parquet.WriteForecastPredictionsParquet(parquetPredictions, predictionsFile); err != nil {
		return fmt.Errorf("failed to write predictions: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d prediction records to: %s\n", len(parquetPredictions), predictionsFile)

	return nil
}
