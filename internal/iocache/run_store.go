package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/barrace/internal/contract"
	"github.com/huangsam/barrace/schema"
)

// Table names for render-run tracking.
const (
	renderRunsTable = "barrace_render_runs"
	frameLogTable   = "barrace_frame_log"
)

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	if backend == schema.NoneBackend {
		return &RunStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, GetRunDBFilePath())
	if err != nil {
		return nil, err
	}
	if err := createRunTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run tables: %w", err)
	}
	return &RunStoreImpl{db: db, backend: backend}, nil
}

// createRunTables creates the run tracking tables.
func createRunTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{renderRunsTable, getCreateRenderRunsQuery(backend)},
		{frameLogTable, getCreateFrameLogQuery(backend)},
	}
	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateRenderRunsQuery returns the CREATE TABLE query for barrace_render_runs.
func getCreateRenderRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(renderRunsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_token CHAR(36) NOT NULL,
				dataset_path VARCHAR(1024) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				total_frames INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				run_token TEXT NOT NULL,
				dataset_path TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				total_frames INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_token TEXT NOT NULL,
				dataset_path TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_frames INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateFrameLogQuery returns the CREATE TABLE query for barrace_frame_log.
func getCreateFrameLogQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(frameLogTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				frame_index INT NOT NULL,
				frame_timestamp DOUBLE NOT NULL,
				leader VARCHAR(255) NOT NULL,
				aggregate_total DOUBLE NOT NULL,
				swaps INT NOT NULL,
				enters INT NOT NULL,
				exits INT NOT NULL,
				milestone_label VARCHAR(512) NOT NULL,
				PRIMARY KEY (run_id, frame_index)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				frame_index INT NOT NULL,
				frame_timestamp DOUBLE PRECISION NOT NULL,
				leader TEXT NOT NULL,
				aggregate_total DOUBLE PRECISION NOT NULL,
				swaps INT NOT NULL,
				enters INT NOT NULL,
				exits INT NOT NULL,
				milestone_label TEXT NOT NULL,
				PRIMARY KEY (run_id, frame_index)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				frame_index INTEGER NOT NULL,
				frame_timestamp REAL NOT NULL,
				leader TEXT NOT NULL,
				aggregate_total REAL NOT NULL,
				swaps INTEGER NOT NULL,
				enters INTEGER NOT NULL,
				exits INTEGER NOT NULL,
				milestone_label TEXT NOT NULL,
				PRIMARY KEY (run_id, frame_index)
			);
		`, quotedTableName)
	}
}

// BeginRun creates a new render run and returns its unique ID.
// Every run also gets a random token so exports from different databases stay distinguishable.
func (rs *RunStoreImpl) BeginRun(startTime time.Time, datasetPath string, configParams map[string]any) (int64, error) {
	if rs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}
	token := uuid.NewString()
	quotedTableName := quoteTableName(renderRunsTable, rs.backend)

	var runID int64
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (run_token, dataset_path, start_time, config_params) VALUES ($1, $2, $3, $4) RETURNING run_id`, quotedTableName)
		err = rs.db.QueryRow(query, token, datasetPath, startTime, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (run_token, dataset_path, start_time, config_params) VALUES (?, ?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = rs.db.Exec(query, token, datasetPath, formatTime(startTime, rs.backend), string(configJSON))
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert render run: %w", err)
	}
	return runID, nil
}

// EndRun updates the render run with completion data.
func (rs *RunStoreImpl) EndRun(runID int64, endTime time.Time, totalFrames int) error {
	if rs.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(renderRunsTable, rs.backend)
	ph := placeholders(rs.backend, 4)
	row := rs.db.QueryRow(fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quotedTableName, ph[0]), runID)
	startTime, err := rs.scanTime(row)
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}

	durationMs := endTime.Sub(startTime).Milliseconds()
	updateQuery := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, total_frames = %s WHERE run_id = %s`,
		quotedTableName, ph[0], ph[1], ph[2], ph[3])
	if _, err := rs.db.Exec(updateQuery, formatTime(endTime, rs.backend), durationMs, totalFrames, runID); err != nil {
		return fmt.Errorf("failed to update render run: %w", err)
	}
	return nil
}

// RecordFrame stores one notable frame of a run.
func (rs *RunStoreImpl) RecordFrame(runID int64, record schema.FrameLogRecord) error {
	if rs.db == nil {
		return nil
	}

	ph := placeholders(rs.backend, 9)
	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, frame_index, frame_timestamp, leader, aggregate_total,
		                swaps, enters, exits, milestone_label)
		VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s)
	`, append([]any{quoteTableName(frameLogTable, rs.backend)}, ph...)...)
	_, err := rs.db.Exec(query,
		runID, record.FrameIndex, record.Timestamp, record.Leader, record.AggregateTotal,
		record.Swaps, record.Enters, record.Exits, record.MilestoneLabel,
	)
	if err != nil {
		return fmt.Errorf("failed to insert frame log: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// scanTime reads one time column stored by formatTime.
func (rs *RunStoreImpl) scanTime(row *sql.Row) (time.Time, error) {
	if rs.backend != schema.SQLiteBackend {
		var t time.Time
		err := row.Scan(&t)
		return t, err
	}
	var s string
	if err := row.Scan(&s); err != nil {
		return time.Time{}, err
	}
	return parseTime(s)
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if rs.db == nil {
		return status, nil
	}

	runsTable := quoteTableName(renderRunsTable, rs.backend)
	if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runsTable)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		if err := rs.db.QueryRow(fmt.Sprintf("SELECT MAX(run_id) FROM %s", runsTable)).Scan(&status.LastRunID); err != nil {
			return status, fmt.Errorf("failed to get last run id: %w", err)
		}
		lastTime, err := rs.scanTime(rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id DESC LIMIT 1", runsTable)))
		if err != nil {
			return status, fmt.Errorf("failed to get last run time: %w", err)
		}
		status.LastRunTime = lastTime
		oldestTime, err := rs.scanTime(rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", runsTable)))
		if err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldestTime
		if err := rs.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(total_frames), 0) FROM %s", runsTable)).Scan(&status.TotalFrames); err != nil {
			return status, fmt.Errorf("failed to get total frames: %w", err)
		}
	}

	for _, table := range []string{renderRunsTable, frameLogTable} {
		var count int64
		if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, rs.backend))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllRuns retrieves all render runs from the store.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, run_token, dataset_path, start_time, end_time, run_duration_ms, total_frames, config_params
		FROM %s ORDER BY run_id`, quoteTableName(renderRunsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query render runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		if rs.backend == schema.SQLiteBackend {
			var startStr string
			var endStr *string
			if err := rows.Scan(&record.RunID, &record.RunToken, &record.DatasetPath, &startStr, &endStr,
				&record.RunDurationMs, &record.TotalFrames, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan render run: %w", err)
			}
			if record.StartTime, err = parseTime(startStr); err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			if endStr != nil {
				endTime, err := parseTime(*endStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				record.EndTime = &endTime
			}
		} else if err := rows.Scan(&record.RunID, &record.RunToken, &record.DatasetPath, &record.StartTime, &record.EndTime,
			&record.RunDurationMs, &record.TotalFrames, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan render run: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating render runs: %w", err)
	}
	return results, nil
}

// GetAllFrameLogs retrieves every logged frame from the store.
func (rs *RunStoreImpl) GetAllFrameLogs() ([]schema.FrameLogRecord, error) {
	if rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, frame_index, frame_timestamp, leader, aggregate_total, swaps, enters, exits, milestone_label
		FROM %s ORDER BY run_id, frame_index`, quoteTableName(frameLogTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query frame log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.FrameLogRecord
	for rows.Next() {
		var r schema.FrameLogRecord
		if err := rows.Scan(&r.RunID, &r.FrameIndex, &r.Timestamp, &r.Leader, &r.AggregateTotal,
			&r.Swaps, &r.Enters, &r.Exits, &r.MilestoneLabel); err != nil {
			return nil, fmt.Errorf("failed to scan frame log: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating frame log: %w", err)
	}
	return results, nil
}
