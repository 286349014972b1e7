package schema

import "time"

// CacheStatus represents the status of the chunk cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// RunStatus represents the status of the render-run history store.
type RunStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     int64            `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TotalFrames   int              `json:"total_frames"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}

// RunRecord represents a row from the barrace_render_runs table.
type RunRecord struct {
	RunID         int64
	RunToken      string
	DatasetPath   string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	TotalFrames   int32
	ConfigParams  *string
}

// FrameLogRecord represents a row from the barrace_frame_log table.
// Only frames where something notable happened are logged.
type FrameLogRecord struct {
	RunID          int64
	FrameIndex     int32
	Timestamp      float64
	Leader         string
	AggregateTotal float64
	Swaps          int32
	Enters         int32
	Exits          int32
	MilestoneLabel string
}
