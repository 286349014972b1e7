package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/huangsam/barrace/internal/contract"
	"github.com/huangsam/barrace/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrames() []schema.FrameState {
	return []schema.FrameState{
		{
			FrameIndex: 0,
			Timestamp:  2000,
			Entries: []schema.RankedEntry{
				{EntityID: "USA", Value: 10e12, DisplayValue: 10e12, Rank: 0, PreviousRank: -1, Transition: schema.EnterTransition, Width: 1, Leader: true},
				{EntityID: "China", Value: 1.2e12, DisplayValue: 1.2e12, Rank: 1, PreviousRank: -1, Transition: schema.EnterTransition, Position: 1, Width: 0.12},
			},
			AggregateTotal:   11.2e12,
			MilestoneLabel:   "Dot-com bubble",
			MilestoneChanged: true,
		},
		{
			FrameIndex: 1,
			Timestamp:  2000.5,
			Entries: []schema.RankedEntry{
				{EntityID: "USA", Value: 10.2e12, DisplayValue: 10.2e12, Rank: 0, PreviousRank: 0, Transition: schema.StableTransition, Width: 1, Leader: true},
				{EntityID: "Japan", Value: 4e12, DisplayValue: 4e12, Rank: 1, PreviousRank: 2, Transition: schema.SwapTransition, Position: 1.5, Width: 0.4, Swap: true},
			},
			Exits:          []string{"China"},
			AggregateTotal: 15.4e12,
			MilestoneLabel: "Dot-com bubble",
		},
	}
}

func writeAll(t *testing.T, fw FrameWriter, frames []schema.FrameState) {
	t.Helper()
	for _, f := range frames {
		require.NoError(t, fw.WriteFrame(f))
	}
	require.NoError(t, fw.Close())
}

func TestNewFrameWriter(t *testing.T) {
	tests := []struct {
		name    string
		output  schema.OutputMode
		wantErr bool
	}{
		{"text", schema.TextOut, false},
		{"default", "", false},
		{"csv", schema.CSVOut, false},
		{"json", schema.JSONOut, false},
		{"parquet", schema.ParquetOut, false},
		{"unknown", schema.OutputMode("yaml"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			fw, err := NewFrameWriter(&contract.Config{Output: tt.output, Every: 1, Width: 120}, &buf)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, fw)
		})
	}
}

func TestTableFrameWriter(t *testing.T) {
	var buf bytes.Buffer
	cfg := &contract.Config{Output: schema.TextOut, Every: 1, Width: 120, Precision: 1}
	fw, err := NewFrameWriter(cfg, &buf)
	require.NoError(t, err)
	writeAll(t, fw, sampleFrames())

	out := buf.String()
	assert.Contains(t, out, "Frame 0 | 2000 | Total 11.2T | Dot-com bubble")
	assert.Contains(t, out, "Frame 1 | 2000 | Total 15.4T")
	assert.Contains(t, out, "10.0T")
	assert.Contains(t, out, "Leader")
	assert.Contains(t, out, "Swap")
	assert.Contains(t, out, "+1")
	assert.Contains(t, out, "Exits: China")
	assert.Contains(t, out, "█")
}

func TestTableFrameWriterEvery(t *testing.T) {
	frames := []schema.FrameState{
		{FrameIndex: 0, Timestamp: 1},
		{FrameIndex: 1, Timestamp: 2},
		{FrameIndex: 2, Timestamp: 3},
		{FrameIndex: 3, Timestamp: 4, MilestoneLabel: "Crash", MilestoneChanged: true},
		{FrameIndex: 4, Timestamp: 5},
	}
	var buf bytes.Buffer
	fw := newTableFrameWriter(&contract.Config{Every: 2, Width: 120}, &buf)
	writeAll(t, fw, frames)

	out := buf.String()
	assert.Contains(t, out, "Frame 0 ")
	assert.NotContains(t, out, "Frame 1 ")
	assert.Contains(t, out, "Frame 2 ")
	assert.Contains(t, out, "Frame 3 ") // milestone change is always written
	assert.Contains(t, out, "Frame 4 ")
}

func TestCSVFrameWriter(t *testing.T) {
	var buf bytes.Buffer
	fw, err := NewFrameWriter(&contract.Config{Output: schema.CSVOut}, &buf)
	require.NoError(t, err)
	writeAll(t, fw, sampleFrames())

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, frameCSVHeader, records[0])

	assert.Equal(t, "0", records[1][0])
	assert.Equal(t, "USA", records[1][3])
	assert.Equal(t, "Leader", records[1][10])
	assert.Equal(t, "Dot-com bubble", records[1][13])

	assert.Equal(t, "2000.5", records[3][1])
	assert.Equal(t, "Japan", records[4][3])
	assert.Equal(t, "swap", records[4][7])
	assert.Equal(t, "China", records[4][14])
}

func TestJSONFrameWriter(t *testing.T) {
	var buf bytes.Buffer
	fw, err := NewFrameWriter(&contract.Config{Output: schema.JSONOut}, &buf)
	require.NoError(t, err)
	writeAll(t, fw, sampleFrames())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var frame schema.FrameState
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &frame))
	assert.Equal(t, 1, frame.FrameIndex)
	assert.Equal(t, []string{"China"}, frame.Exits)
	require.Len(t, frame.Entries, 2)
	assert.True(t, frame.Entries[1].Swap)
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		name     string
		width    float64
		cells    int
		expected int
	}{
		{"full", 1, 10, 10},
		{"half", 0.5, 10, 5},
		{"tiny keeps one cell", 0.001, 10, 1},
		{"zero", 0, 10, 0},
		{"overflow clamps", 1.5, 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, strings.Count(renderBar(tt.width, tt.cells), "█"))
		})
	}
}
