package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/barrace/internal/contract"
	"github.com/huangsam/barrace/schema"
)

// frameCSVHeader is the header of the CSV frame stream, one row per visible entry.
var frameCSVHeader = []string{
	"frame_index",
	"timestamp",
	"rank",
	"entity",
	"value",
	"display_value",
	"previous_rank",
	"transition",
	"position",
	"width",
	"label",
	"asset",
	"aggregate_total",
	"milestone",
	"exits",
}

// csvFrameWriter writes the frame stream as CSV.
type csvFrameWriter struct {
	w        *csv.Writer
	fmtFloat func(float64) string
}

func newCSVFrameWriter(cfg *contract.Config, w io.Writer) (*csvFrameWriter, error) {
	fmtFloat, _ := createFormatters(max(cfg.Precision, 3))
	cw := csv.NewWriter(w)
	if err := cw.Write(frameCSVHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	return &csvFrameWriter{w: cw, fmtFloat: fmtFloat}, nil
}

// WriteFrame writes one row per visible entry of the frame.
func (cw *csvFrameWriter) WriteFrame(frame schema.FrameState) error {
	exits := strings.Join(frame.Exits, "|")
	for _, e := range frame.Entries {
		rec := []string{
			strconv.Itoa(frame.FrameIndex),
			strconv.FormatFloat(frame.Timestamp, 'f', -1, 64),
			strconv.Itoa(e.Rank),
			e.EntityID,
			strconv.FormatFloat(e.Value, 'f', -1, 64),
			cw.fmtFloat(e.DisplayValue),
			strconv.Itoa(e.PreviousRank),
			string(e.Transition),
			cw.fmtFloat(e.Position),
			cw.fmtFloat(e.Width),
			contract.GetPlainLabel(e),
			e.Asset,
			strconv.FormatFloat(frame.AggregateTotal, 'f', -1, 64),
			frame.MilestoneLabel,
			exits,
		}
		if err := cw.w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes buffered rows.
func (cw *csvFrameWriter) Close() error {
	cw.w.Flush()
	return cw.w.Error()
}
