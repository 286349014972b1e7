package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/barrace/internal/contract"
	"github.com/huangsam/barrace/internal/parquet"
)

// ExportRuns writes the run history of store to two Parquet files derived from outputFile.
func ExportRuns(w io.Writer, store contract.RunStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no render runs found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve render runs: %w", err)
	}
	frames, err := store.GetAllFrameLogs()
	if err != nil {
		return fmt.Errorf("failed to retrieve frame log: %w", err)
	}

	runsFile := outputFile + ".render_runs.parquet"
	if err := parquet.WriteRenderRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write render runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d render runs to: %s\n", len(runs), runsFile)

	framesFile := outputFile + ".frame_log.parquet"
	if err := parquet.WriteFrameLogsParquet(parquet.ConvertFrameLogRecords(frames), framesFile); err != nil {
		return fmt.Errorf("failed to write frame log: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d logged frames to: %s\n", len(frames), framesFile)
	return nil
}
