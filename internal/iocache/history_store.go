package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/binforecast/internal/contract"
	"github.com/huangsam/binforecast/schema"
)

// Table names for forecast history.
const (
	runsTable        = "forecast_runs"
	predictionsTable = "forecast_predictions"
)

// historyTables lists history tables in dependency order.
var historyTables = []string{runsTable, predictionsTable}

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend {
		return &HistoryStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, contract.GetHistoryDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := createHistoryTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

// createHistoryTables creates the forecast history tables.
func createHistoryTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{predictionsTable, getCreatePredictionsQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for forecast_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_uuid CHAR(36) NOT NULL,
				reference_date CHAR(10) NOT NULL,
				forecast_date CHAR(10) NOT NULL,
				source VARCHAR(20),
				endpoint VARCHAR(255),
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				district_count INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				run_uuid TEXT NOT NULL,
				reference_date TEXT NOT NULL,
				forecast_date TEXT NOT NULL,
				source TEXT,
				endpoint TEXT,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				district_count INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_uuid TEXT NOT NULL,
				reference_date TEXT NOT NULL,
				forecast_date TEXT NOT NULL,
				source TEXT,
				endpoint TEXT,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				district_count INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreatePredictionsQuery returns the CREATE TABLE query for forecast_predictions.
func getCreatePredictionsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(predictionsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				barangay_id VARCHAR(64) NOT NULL,
				barangay_name VARCHAR(255) NOT NULL,
				forecast_date CHAR(10) NOT NULL,
				predicted_volume DOUBLE NOT NULL,
				overflow_risk VARCHAR(20) NOT NULL,
				overflow_probability DOUBLE NOT NULL,
				confidence DOUBLE NOT NULL,
				volume_tier VARCHAR(50) NOT NULL,
				event_multiplier DOUBLE NOT NULL,
				recorded_at DATETIME(6) NOT NULL,
				PRIMARY KEY (run_id, barangay_id)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				barangay_id TEXT NOT NULL,
				barangay_name TEXT NOT NULL,
				forecast_date TEXT NOT NULL,
				predicted_volume DOUBLE PRECISION NOT NULL,
				overflow_risk TEXT NOT NULL,
				overflow_probability DOUBLE PRECISION NOT NULL,
				confidence DOUBLE PRECISION NOT NULL,
				volume_tier TEXT NOT NULL,
				event_multiplier DOUBLE PRECISION NOT NULL,
				recorded_at TIMESTAMPTZ NOT NULL,
				PRIMARY KEY (run_id, barangay_id)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				barangay_id TEXT NOT NULL,
				barangay_name TEXT NOT NULL,
				forecast_date TEXT NOT NULL,
				predicted_volume REAL NOT NULL,
				overflow_risk TEXT NOT NULL,
				overflow_probability REAL NOT NULL,
				confidence REAL NOT NULL,
				volume_tier TEXT NOT NULL,
				event_multiplier REAL NOT NULL,
				recorded_at TEXT NOT NULL,
				PRIMARY KEY (run_id, barangay_id)
			);
		`, quotedTableName)
	}
}

func (hs *HistoryStoreImpl) disabled() bool {
	return hs.backend == schema.NoneBackend || hs.db == nil
}

// BeginRun creates a new forecast run and returns its unique ID.
func (hs *HistoryStoreImpl) BeginRun(info schema.RunInfo) (int64, error) {
	if hs.disabled() {
		return 0, nil
	}

	configJSON, err := json.Marshal(info.ConfigParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(runsTable, hs.backend)
	ph := strings.Join(placeholders(hs.backend, 5), ", ")
	args := []any{info.RunUUID, info.ReferenceDate, info.ForecastDate, formatTime(info.StartTime, hs.backend), string(configJSON)}

	var runID int64
	switch hs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, reference_date, forecast_date, start_time, config_params) VALUES (%s) RETURNING run_id`, quotedTableName, ph)
		err = hs.db.QueryRow(query, args...).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, reference_date, forecast_date, start_time, config_params) VALUES (%s)`, quotedTableName, ph)
		var result sql.Result
		result, err = hs.db.Exec(query, args...)
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert forecast run: %w", err)
	}
	return runID, nil
}

// EndRun updates the forecast run with completion data.
func (hs *HistoryStoreImpl) EndRun(runID int64, outcome schema.RunOutcome) error {
	if hs.disabled() {
		return nil
	}

	quotedTableName := quoteTableName(runsTable, hs.backend)
	var start timeScanner
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quotedTableName, placeholders(hs.backend, 1)[0])
	if err := hs.db.QueryRow(query, runID).Scan(&start); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}

	durationMs := outcome.EndTime.Sub(start.Time).Milliseconds()
	ph := placeholders(hs.backend, 6)
	updateQuery := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, source = %s, endpoint = %s, district_count = %s WHERE run_id = %s`,
		quotedTableName, ph[0], ph[1], ph[2], ph[3], ph[4], ph[5])
	var endpoint any
	if outcome.Endpoint != "" {
		endpoint = outcome.Endpoint
	}
	_, err := hs.db.Exec(updateQuery, formatTime(outcome.EndTime, hs.backend), durationMs, string(outcome.Source), endpoint, outcome.DistrictCount, runID)
	if err != nil {
		return fmt.Errorf("failed to update forecast run: %w", err)
	}
	return nil
}

// RecordPrediction stores one prediction of a run.
func (hs *HistoryStoreImpl) RecordPrediction(runID int64, p schema.Prediction) error {
	if hs.disabled() {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, barangay_id, barangay_name, forecast_date, predicted_volume,
		                overflow_risk, overflow_probability, confidence, volume_tier,
		                event_multiplier, recorded_at)
		VALUES (%s)
	`, quoteTableName(predictionsTable, hs.backend), strings.Join(placeholders(hs.backend, 11), ", "))
	_, err := hs.db.Exec(query,
		runID, p.BarangayID, p.BarangayName, p.Date, p.PredictedVolume,
		string(p.OverflowRisk), p.OverflowProbability, p.Confidence, string(p.VolumeRisk.Category),
		p.EventMultiplier, formatTime(p.Timestamp, hs.backend),
	)
	if err != nil {
		return fmt.Errorf("failed to insert prediction for %s: %w", p.BarangayID, err)
	}
	return nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}

	if hs.disabled() {
		return status, nil
	}

	quotedRuns := quoteTableName(runsTable, hs.backend)
	if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedRuns)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var last, oldest timeScanner
		row := hs.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", quotedRuns))
		if err := row.Scan(&status.LastRunID, &last); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		status.LastRunTime = last.Time

		row = hs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quotedRuns))
		if err := row.Scan(&oldest); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldest.Time
	}

	for _, table := range historyTables {
		var count int64
		row := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, hs.backend)))
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalPredictions = int(status.TableSizes[predictionsTable])

	return status, nil
}

// GetAllRuns retrieves all forecast runs ordered by run id.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, run_uuid, reference_date, forecast_date, source, endpoint,
		start_time, end_time, run_duration_ms, district_count, config_params
		FROM %s ORDER BY run_id`, quoteTableName(runsTable, hs.backend))

	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecast runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		var start, end timeScanner
		if err := rows.Scan(&record.RunID, &record.RunUUID, &record.ReferenceDate, &record.ForecastDate,
			&record.Source, &record.Endpoint, &start, &end, &record.RunDurationMs,
			&record.DistrictCount, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan forecast run: %w", err)
		}
		record.StartTime = start.Time
		if end.Valid {
			endTime := end.Time
			record.EndTime = &endTime
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating forecast runs: %w", err)
	}
	return results, nil
}

// GetAllPredictions retrieves all recorded predictions ordered by run id.
func (hs *HistoryStoreImpl) GetAllPredictions() ([]schema.PredictionRecord, error) {
	return hs.queryPredictions("", "run_id, barangay_id", nil)
}

// GetDistrictPredictions retrieves the predictions of one district in chronological order.
func (hs *HistoryStoreImpl) GetDistrictPredictions(barangayID string) ([]schema.PredictionRecord, error) {
	where := "WHERE barangay_id = " + placeholders(hs.backend, 1)[0]
	return hs.queryPredictions(where, "forecast_date, run_id", []any{barangayID})
}

func (hs *HistoryStoreImpl) queryPredictions(where, orderBy string, args []any) ([]schema.PredictionRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, barangay_id, barangay_name, forecast_date, predicted_volume,
		overflow_risk, overflow_probability, confidence, volume_tier, event_multiplier, recorded_at
		FROM %s %s ORDER BY %s`, quoteTableName(predictionsTable, hs.backend), where, orderBy)

	rows, err := hs.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.PredictionRecord
	for rows.Next() {
		var record schema.PredictionRecord
		var recorded timeScanner
		if err := rows.Scan(&record.RunID, &record.BarangayID, &record.BarangayName, &record.ForecastDate,
			&record.PredictedVolume, &record.OverflowRisk, &record.OverflowProbability, &record.Confidence,
			&record.VolumeTier, &record.EventMultiplier, &recorded); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		record.RecordedAt = recorded.Time
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating predictions: %w", err)
	}
	return results, nil
}
