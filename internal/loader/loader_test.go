package loader

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/barrace/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, text string, opts Options) (schema.Dataset, error) {
	t.Helper()
	return Load(strings.NewReader(text), opts)
}

func TestLoad(t *testing.T) {
	const text = `Year,USA,China,Milestone,Japan
1990,100,10,,60
1991,110,,USSR dissolves,62
1992,$120,"1,500",,
`
	ds, err := load(t, text, Options{MilestoneColumn: "milestone"})
	require.NoError(t, err)

	assert.Equal(t, []string{"USA", "China", "Japan"}, ds.Entities)
	assert.Equal(t, schema.TimeSeries{{Timestamp: 1990, Value: 100}, {Timestamp: 1991, Value: 110}, {Timestamp: 1992, Value: 120}}, ds.Series["USA"])
	assert.Equal(t, schema.TimeSeries{{Timestamp: 1990, Value: 10}, {Timestamp: 1992, Value: 1500}}, ds.Series["China"])
	assert.Len(t, ds.Series["Japan"], 2)
	assert.Equal(t, []schema.Milestone{{Timestamp: 1991, Label: "USSR dissolves"}}, ds.Milestones)
	assert.Empty(t, ds.Warnings)
}

func TestLoadTimeColumn(t *testing.T) {
	const text = "USA,year,China\n1,2000,2\n3,2001,4\n"
	ds, err := load(t, text, Options{TimeColumn: "Year"})
	require.NoError(t, err)
	assert.Equal(t, []string{"USA", "China"}, ds.Entities)
	assert.Equal(t, 2001.0, ds.Series["China"][1].Timestamp)

	_, err = load(t, text, Options{TimeColumn: "date"})
	assert.ErrorIs(t, err, schema.ErrSchema)
}

func TestLoadDropsMalformedRows(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		warnings int
		points   int
	}{
		{
			name:     "wrong field count",
			text:     "Year,A,B\n2000,1,2\n2001,3\n2002,5,6\n",
			warnings: 1,
			points:   2,
		},
		{
			name:     "non-numeric value",
			text:     "Year,A,B\n2000,1,2\n2001,x,4\n2002,5,6\n",
			warnings: 1,
			points:   2,
		},
		{
			name:     "non-numeric timestamp",
			text:     "Year,A,B\n2000,1,2\nlater,3,4\n2002,5,6\n",
			warnings: 1,
			points:   2,
		},
		{
			name:     "duplicate and decreasing timestamps",
			text:     "Year,A,B\n2000,1,2\n2000,3,4\n1999,0,0\n2002,5,6\n",
			warnings: 2,
			points:   2,
		},
		{
			name:     "NaN timestamp",
			text:     "Year,A,B\n2000,1,2\nNaN,3,4\n1990,0,0\n2002,5,6\n",
			warnings: 2,
			points:   2,
		},
		{
			name:     "infinite timestamps",
			text:     "Year,A,B\n-Inf,1,2\n2000,1,2\n+Inf,3,4\n2002,5,6\n",
			warnings: 2,
			points:   2,
		},
		{
			name:     "blank lines skipped silently",
			text:     "Year,A,B\n2000,1,2\n,,\n2002,5,6\n",
			warnings: 0,
			points:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := load(t, tt.text, Options{})
			require.NoError(t, err)
			assert.Len(t, ds.Warnings, tt.warnings)
			assert.Len(t, ds.Series["A"], tt.points)
			require.NoError(t, ds.Validate())
			for _, p := range ds.Series["A"] {
				assert.False(t, math.IsNaN(p.Timestamp) || math.IsInf(p.Timestamp, 0))
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{"empty input", "", schema.ErrSchema},
		{"no entity columns", "Year\n2000\n", schema.ErrSchema},
		{"duplicate entity", "Year,A,A\n2000,1,2\n", schema.ErrSchema},
		{"empty entity name", "Year,,B\n2000,1,2\n", schema.ErrSchema},
		{"header only", "Year,A\n", schema.ErrInvalidDataset},
		{"one row left after drops", "Year,A\n2000,1\n2001,x\n", schema.ErrInvalidDataset},
		{"no values at all", "Year,A,B\n2000,,\n2001,,\n", schema.ErrInvalidDataset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.text, Options{})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadSingleRow(t *testing.T) {
	ds, err := load(t, "Year,A\n2000,7\n", Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, ds.PointCount())
}

func TestMergeMilestones(t *testing.T) {
	merged := MergeMilestones(
		map[float64]string{2001: "column 2001", 1991: "column 1991"},
		[]schema.Milestone{{Timestamp: 2001, Label: "config 2001"}, {Timestamp: 1980, Label: "config 1980"}},
	)
	assert.Equal(t, []schema.Milestone{
		{Timestamp: 1980, Label: "config 1980"},
		{Timestamp: 1991, Label: "column 1991"},
		{Timestamp: 2001, Label: "config 2001"},
	}, merged)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(dir, "missing.csv"), Options{})
		assert.ErrorIs(t, err, schema.ErrDatasetUnavailable)
	})

	t.Run("with gap sidecar", func(t *testing.T) {
		path := filepath.Join(dir, "gdp.csv")
		require.NoError(t, os.WriteFile(path, []byte("Year,A\n2000,1\n2004,5\n"), 0o644))
		gaps := []schema.Gap{{Start: 2001, End: 2003, Reason: "chunk unavailable"}}
		require.NoError(t, WriteGaps(GapsPath(path), gaps))

		ds, err := LoadFile(path, Options{})
		require.NoError(t, err)
		assert.Equal(t, gaps, ds.Gaps)

		require.NoError(t, WriteGaps(GapsPath(path), nil))
		assert.NoFileExists(t, GapsPath(path))
	})

	t.Run("corrupt gap sidecar is a warning", func(t *testing.T) {
		path := filepath.Join(dir, "pop.csv")
		require.NoError(t, os.WriteFile(path, []byte("Year,A\n2000,1\n2001,2\n"), 0o644))
		require.NoError(t, os.WriteFile(GapsPath(path), []byte("{not json"), 0o644))

		ds, err := LoadFile(path, Options{})
		require.NoError(t, err)
		assert.Empty(t, ds.Gaps)
		assert.Len(t, ds.Warnings, 1)
	})
}
