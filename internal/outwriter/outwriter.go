// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"io"

	"github.com/huangsam/barrace/internal/contract"
	"github.com/huangsam/barrace/internal/parquet"
	"github.com/huangsam/barrace/schema"
)

// FrameWriter is a FrameSink that may buffer and must be closed after the last frame.
type FrameWriter interface {
	contract.FrameSink
	Close() error
}

// NewFrameWriter returns the frame writer for the configured output format.
func NewFrameWriter(cfg *contract.Config, w io.Writer) (FrameWriter, error) {
	switch cfg.Output {
	case schema.TextOut, "":
		return newTableFrameWriter(cfg, w), nil
	case schema.CSVOut:
		return newCSVFrameWriter(cfg, w)
	case schema.JSONOut:
		return newJSONFrameWriter(w), nil
	case schema.ParquetOut:
		return parquet.NewFrameWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", cfg.Output)
	}
}
