package outwriter

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/huangsam/barrace/internal/contract"
	"github.com/huangsam/barrace/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// tableFrameWriter prints every Nth frame as a human-readable table.
type tableFrameWriter struct {
	cfg        *contract.Config
	w          io.Writer
	every      int
	labelWidth int
	barWidth   int
}

func newTableFrameWriter(cfg *contract.Config, w io.Writer) *tableFrameWriter {
	return &tableFrameWriter{
		cfg:        cfg,
		w:          w,
		every:      max(1, cfg.Every),
		labelWidth: getMaxLabelWidth(cfg),
		barWidth:   getMaxBarWidth(cfg),
	}
}

// shouldWrite keeps the first frame, every Nth frame and frames where the milestone changes.
func (t *tableFrameWriter) shouldWrite(frame schema.FrameState) bool {
	return frame.FrameIndex%t.every == 0 || frame.MilestoneChanged
}

// WriteFrame prints one frame as a header line, a table and the released entities.
func (t *tableFrameWriter) WriteFrame(frame schema.FrameState) error {
	if !t.shouldWrite(frame) {
		return nil
	}

	header := fmt.Sprintf("Frame %d | %s | Total %s", frame.FrameIndex,
		schema.FormatTimestamp(frame.Timestamp), schema.FormatCompact(frame.AggregateTotal, t.cfg.Precision))
	if frame.MilestoneLabel != "" {
		header += " | " + t.colorize(contract.MutedColor.Sprint, frame.MilestoneLabel)
	}
	if _, err := fmt.Fprintln(t.w, header); err != nil {
		return err
	}

	if err := t.writeTable(frame); err != nil {
		return err
	}

	if len(frame.Exits) > 0 {
		line := "Exits: " + strings.Join(frame.Exits, ", ")
		if _, err := fmt.Fprintln(t.w, t.colorize(contract.ExitColor.Sprint, line)); err != nil {
			return err
		}
	}
	return nil
}

func (t *tableFrameWriter) writeTable(frame schema.FrameState) error {
	table := tablewriter.NewWriter(t.w)
	table.Header([]string{"Rank", "Entity", "Value", "Move", "Label", "Bar"})
	table.Configure(func(tc *tablewriter.Config) {
		tc.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, e := range frame.Entries {
		data = append(data, []string{
			strconv.Itoa(e.Rank + 1),
			contract.TruncateLabel(e.EntityID, t.labelWidth),
			schema.FormatCompact(e.DisplayValue, t.cfg.Precision),
			schema.FormatRankDelta(e),
			t.label(e),
			renderBar(e.Width, t.barWidth),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func (t *tableFrameWriter) label(e schema.RankedEntry) string {
	if t.cfg.UseColors {
		return contract.GetColorLabel(e)
	}
	return contract.GetPlainLabel(e)
}

func (t *tableFrameWriter) colorize(sprint func(...any) string, s string) string {
	if t.cfg.UseColors {
		return sprint(s)
	}
	return s
}

// Close is a no-op; tables are written as frames arrive.
func (t *tableFrameWriter) Close() error {
	return nil
}

// renderBar draws a bar of width*cells block characters, at least one for a visible entry.
func renderBar(width float64, cells int) string {
	if width <= 0 || math.IsNaN(width) {
		return ""
	}
	n := int(math.Round(min(width, 1) * float64(cells)))
	return strings.Repeat("█", max(1, n))
}
