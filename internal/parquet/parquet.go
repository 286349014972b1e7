// Package parquet provides data structures and functions for exporting frame
// streams and render-run history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/barrace/internal/contract"
	"github.com/huangsam/barrace/schema"
	"github.com/parquet-go/parquet-go"
)

// RenderRun represents a single render run with metadata.
// This struct maps to the barrace_render_runs database table.
type RenderRun struct {
	// RunID is the unique identifier for this run within its database
	RunID int64 `parquet:"run_id,snappy"`

	// RunToken is a random UUID that identifies the run across databases
	RunToken string `parquet:"run_token,snappy"`

	// DatasetPath is the absolute path of the rendered dataset
	DatasetPath string `parquet:"dataset_path,snappy"`

	// StartTime is when the render began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the render completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// TotalFrames is the number of frames emitted
	TotalFrames int32 `parquet:"total_frames,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// FrameLog represents one notable frame of a render run.
// This struct maps to the barrace_frame_log database table.
type FrameLog struct {
	RunID          int64   `parquet:"run_id,snappy"`
	FrameIndex     int32   `parquet:"frame_index,snappy"`
	Timestamp      float64 `parquet:"frame_timestamp,snappy"`
	Leader         string  `parquet:"leader,snappy"`
	AggregateTotal float64 `parquet:"aggregate_total,snappy"`
	Swaps          int32   `parquet:"swaps,snappy"`
	Enters         int32   `parquet:"enters,snappy"`
	Exits          int32   `parquet:"exits,snappy"`
	MilestoneLabel string  `parquet:"milestone_label,snappy"`
}

// FrameEntry is one visible entry of one frame, the row shape of a frame export.
type FrameEntry struct {
	FrameIndex     int32   `parquet:"frame_index,snappy"`
	Timestamp      float64 `parquet:"frame_timestamp,snappy"`
	EntityID       string  `parquet:"entity_id,dict,snappy"`
	Rank           int32   `parquet:"rank,snappy"`
	PreviousRank   int32   `parquet:"previous_rank,snappy"`
	Value          float64 `parquet:"value,snappy"`
	DisplayValue   float64 `parquet:"display_value,snappy"`
	Position       float64 `parquet:"position,snappy"`
	Width          float64 `parquet:"width,snappy"`
	Transition     string  `parquet:"transition,dict,snappy"`
	Swap           bool    `parquet:"swap"`
	Leader         bool    `parquet:"leader"`
	Asset          string  `parquet:"asset,dict,snappy"`
	AggregateTotal float64 `parquet:"aggregate_total,snappy"`
	MilestoneLabel string  `parquet:"milestone_label,dict,snappy"`
}

// writeParquet writes a slice of rows to a Parquet file whose schema is inferred from T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	return writer.Close()
}

// WriteRenderRunsParquet writes render runs to a Parquet file.
func WriteRenderRunsParquet(data []RenderRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteFrameLogsParquet writes logged frames to a Parquet file.
func WriteFrameLogsParquet(data []FrameLog, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertRunRecords converts schema.RunRecord to RenderRun for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []RenderRun {
	result := make([]RenderRun, len(records))
	for i, record := range records {
		result[i] = RenderRun{
			RunID:         record.RunID,
			RunToken:      record.RunToken,
			DatasetPath:   record.DatasetPath,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			TotalFrames:   record.TotalFrames,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertFrameLogRecords converts schema.FrameLogRecord to FrameLog for Parquet export.
func ConvertFrameLogRecords(records []schema.FrameLogRecord) []FrameLog {
	result := make([]FrameLog, len(records))
	for i, r := range records {
		result[i] = FrameLog(r)
	}
	return result
}

// FrameEntries flattens one frame into export rows, one per visible entry.
func FrameEntries(frame schema.FrameState) []FrameEntry {
	rows := make([]FrameEntry, len(frame.Entries))
	for i, e := range frame.Entries {
		rows[i] = FrameEntry{
			FrameIndex:     int32(frame.FrameIndex),
			Timestamp:      frame.Timestamp,
			EntityID:       e.EntityID,
			Rank:           int32(e.Rank),
			PreviousRank:   int32(e.PreviousRank),
			Value:          e.Value,
			DisplayValue:   e.DisplayValue,
			Position:       e.Position,
			Width:          e.Width,
			Transition:     string(e.Transition),
			Swap:           e.Swap,
			Leader:         e.Leader,
			Asset:          e.Asset,
			AggregateTotal: frame.AggregateTotal,
			MilestoneLabel: frame.MilestoneLabel,
		}
	}
	return rows
}

// FrameWriter streams frames into a Parquet file as they are emitted.
type FrameWriter struct {
	writer *parquet.GenericWriter[FrameEntry]
	rows   int
}

var _ contract.FrameSink = &FrameWriter{} // Compile-time check

// NewFrameWriter creates a frame writer on w. Close must be called to flush the footer.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{writer: parquet.NewGenericWriter[FrameEntry](w)}
}

// WriteFrame appends the entries of one frame.
func (fw *FrameWriter) WriteFrame(frame schema.FrameState) error {
	n, err := fw.writer.Write(FrameEntries(frame))
	fw.rows += n
	if err != nil {
		return fmt.Errorf("failed to write frame %d: %w", frame.FrameIndex, err)
	}
	return nil
}

// Rows returns the number of entry rows written so far.
func (fw *FrameWriter) Rows() int {
	return fw.rows
}

// Close flushes buffered rows and writes the file footer.
func (fw *FrameWriter) Close() error {
	return fw.writer.Close()
}
