package outwriter

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/barrace/internal/contract"
	"github.com/huangsam/barrace/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFormatters(t *testing.T) {
	tests := []struct {
		name      string
		precision int
		value     float64
		expected  string
	}{
		{"precision 2", 2, 3.14159, "3.14"},
		{"precision 0", 0, 3.14159, "3"},
		{"negative value", 1, -42.567, "-42.6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fmtFloat, intFmt := createFormatters(tt.precision)
			assert.Equal(t, tt.expected, fmtFloat(tt.value))
			assert.Equal(t, "%d", intFmt)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]int{"frames": 3}))
	assert.Equal(t, "{\n  \"frames\": 3\n}\n", buf.String())
}

func TestWriteWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	err := WriteWithFile(&contract.Config{}, path, func(w io.Writer) error {
		_, err := io.WriteString(w, "hello")
		return err
	}, "Wrote text")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestWriteWithFileError(t *testing.T) {
	err := WriteWithFile(&contract.Config{}, filepath.Join(t.TempDir(), "missing", "out.txt"), func(io.Writer) error {
		return nil
	}, "Wrote text")
	assert.Error(t, err)
}

func TestLabelAndBarWidths(t *testing.T) {
	tests := []struct {
		name  string
		width int
		label int
		bar   int
	}{
		{"narrow", 40, 8, 10},
		{"standard", 120, 26, 39},
		{"wide", 300, 30, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &contract.Config{Width: tt.width}
			assert.Equal(t, tt.width, getTerminalWidth(cfg))
			assert.Equal(t, tt.label, getMaxLabelWidth(cfg))
			assert.Equal(t, tt.bar, getMaxBarWidth(cfg))
		})
	}
}

func TestLogRenderHeader(t *testing.T) {
	var buf bytes.Buffer
	cfg := &contract.Config{DatasetPath: "/data/gdp.csv", TopN: 10, FrameRate: 30, Duration: 2}
	ds := schema.Dataset{
		Entities: []string{"USA", "China"},
		Series: map[string]schema.TimeSeries{
			"USA":   {{Timestamp: 1960, Value: 1}, {Timestamp: 2020, Value: 2}},
			"China": {{Timestamp: 1970, Value: 1}},
		},
	}
	LogRenderHeader(&buf, cfg, ds)

	out := buf.String()
	assert.Contains(t, out, "Dataset: gdp.csv (2 entities, top 10)")
	assert.Contains(t, out, "Range: 1960 → 2020 (60 frames at 30 fps)")
	assert.NotContains(t, out, "📅")
}
