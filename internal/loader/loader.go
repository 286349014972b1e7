// Package loader parses tabular race data into a validated Dataset.
package loader

import (
	"cmp"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/huangsam/barrace/internal/contract"
	"github.com/huangsam/barrace/schema"
)

// Options selects the special columns of the input.
type Options struct {
	TimeColumn      string             // Defaults to the first column
	MilestoneColumn string             // Matched case-insensitively, optional
	Milestones      []schema.Milestone // Extra milestones, override column entries at the same timestamp
}

// GapsPath returns the sidecar file holding the declared gaps of a dataset.
func GapsPath(datasetPath string) string {
	return datasetPath + ".gaps.json"
}

// LoadFile opens and parses a CSV dataset, attaching declared gaps from its sidecar file.
func LoadFile(path string, opts Options) (schema.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return schema.Dataset{}, fmt.Errorf("%w: %s: %v", schema.ErrDatasetUnavailable, path, err)
	}
	defer func() { _ = f.Close() }()

	ds, err := Load(f, opts)
	if err != nil {
		return schema.Dataset{}, err
	}
	gaps, err := ReadGaps(GapsPath(path))
	if err != nil {
		ds.Warnings = append(ds.Warnings, err.Error())
		contract.LogWarn("Ignoring gap file", err)
	}
	ds.Gaps = gaps
	return ds, nil
}

// ReadGaps reads a gap sidecar. A missing file means no gaps.
func ReadGaps(path string) ([]schema.Gap, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var gaps []schema.Gap
	if err := json.Unmarshal(data, &gaps); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return gaps, nil
}

// WriteGaps writes a gap sidecar, removing a stale one when there are no gaps.
func WriteGaps(path string, gaps []schema.Gap) error {
	if len(gaps) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	data, err := json.MarshalIndent(gaps, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// header describes where the special columns live.
type header struct {
	names     []string
	time      int
	milestone int // -1 when absent
	entities  []int
}

func parseHeader(names []string, opts Options) (header, error) {
	h := header{names: names, time: 0, milestone: -1}
	if opts.TimeColumn != "" {
		h.time = -1
		for i, n := range names {
			if strings.EqualFold(strings.TrimSpace(n), opts.TimeColumn) {
				h.time = i
				break
			}
		}
		if h.time < 0 {
			return h, fmt.Errorf("%w: time column %q not found", schema.ErrSchema, opts.TimeColumn)
		}
	}
	for i, n := range names {
		if i != h.time && opts.MilestoneColumn != "" && strings.EqualFold(strings.TrimSpace(n), opts.MilestoneColumn) {
			h.milestone = i
			break
		}
	}

	seen := make(map[string]int)
	for i, n := range names {
		if i == h.time || i == h.milestone {
			continue
		}
		id := strings.TrimSpace(n)
		if id == "" {
			return h, fmt.Errorf("%w: column %d has an empty entity name", schema.ErrSchema, i+1)
		}
		if prev, dup := seen[id]; dup {
			return h, fmt.Errorf("%w: entity %q appears in columns %d and %d", schema.ErrSchema, id, prev+1, i+1)
		}
		seen[id] = i
		h.entities = append(h.entities, i)
	}
	if len(h.entities) == 0 {
		return h, fmt.Errorf("%w: no entity columns", schema.ErrSchema)
	}
	return h, nil
}

// Load parses CSV from r. Rows with the wrong field count, a non-numeric
// value or a timestamp that does not increase are dropped with a warning.
// Empty entity cells are missing points, bridged later by interpolation.
func Load(r io.Reader, opts Options) (schema.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	names, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return schema.Dataset{}, fmt.Errorf("%w: empty input", schema.ErrSchema)
	}
	if err != nil {
		return schema.Dataset{}, fmt.Errorf("%w: %v", schema.ErrDatasetUnavailable, err)
	}
	h, err := parseHeader(names, opts)
	if err != nil {
		return schema.Dataset{}, err
	}

	ds := schema.Dataset{
		Entities: make([]string, len(h.entities)),
		Series:   make(map[string]schema.TimeSeries, len(h.entities)),
	}
	for i, col := range h.entities {
		ds.Entities[i] = strings.TrimSpace(names[col])
	}

	var (
		lastTS   = math.Inf(-1)
		accepted int
		dropped  int
		line     = 1
		fromCol  = map[float64]string{}
	)
	warn := func(msg string) {
		ds.Warnings = append(ds.Warnings, msg)
		contract.LogWarn("Dropped row", errors.New(msg))
		dropped++
	}

	for {
		record, err := reader.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				warn(fmt.Sprintf("line %d: %v", line, perr.Err))
				continue
			}
			return schema.Dataset{}, fmt.Errorf("%w: %v", schema.ErrDatasetUnavailable, err)
		}
		if isBlank(record) {
			continue
		}
		if len(record) != len(names) {
			warn(fmt.Sprintf("line %d: expected %d fields, got %d", line, len(names), len(record)))
			continue
		}

		ts, err := parseTimestamp(record[h.time])
		if err != nil {
			warn(fmt.Sprintf("line %d: timestamp %q is not a finite number", line, record[h.time]))
			continue
		}
		if !(ts > lastTS) {
			warn(fmt.Sprintf("line %d: timestamp %v does not increase", line, ts))
			continue
		}

		values := make([]float64, len(h.entities))
		present := make([]bool, len(h.entities))
		bad := ""
		for i, col := range h.entities {
			cell := strings.TrimSpace(record[col])
			if cell == "" {
				continue
			}
			v, err := parseNumber(cell)
			if err != nil {
				bad = fmt.Sprintf("line %d: value %q for %s is not numeric", line, cell, ds.Entities[i])
				break
			}
			values[i], present[i] = v, true
		}
		if bad != "" {
			warn(bad)
			continue
		}

		lastTS = ts
		accepted++
		for i, id := range ds.Entities {
			if present[i] {
				ds.Series[id] = append(ds.Series[id], schema.Point{Timestamp: ts, Value: values[i]})
			}
		}
		if h.milestone >= 0 {
			if label := strings.TrimSpace(record[h.milestone]); label != "" {
				fromCol[ts] = label
			}
		}
	}

	if accepted == 0 {
		return schema.Dataset{}, fmt.Errorf("%w: no valid rows", schema.ErrInvalidDataset)
	}
	if dropped > 0 && accepted < 2 {
		return schema.Dataset{}, fmt.Errorf("%w: only %d valid timestamp left after dropping %d rows", schema.ErrInvalidDataset, accepted, dropped)
	}

	ds.Milestones = MergeMilestones(fromCol, opts.Milestones)
	if err := ds.Validate(); err != nil {
		return schema.Dataset{}, err
	}
	return ds, nil
}

// MergeMilestones combines column milestones with configured ones.
// Configured entries replace column entries at the same timestamp.
func MergeMilestones(fromColumn map[float64]string, configured []schema.Milestone) []schema.Milestone {
	merged := make(map[float64]string, len(fromColumn)+len(configured))
	for ts, label := range fromColumn {
		merged[ts] = label
	}
	for _, m := range configured {
		merged[m.Timestamp] = m.Label
	}
	out := make([]schema.Milestone, 0, len(merged))
	for ts, label := range merged {
		out = append(out, schema.Milestone{Timestamp: ts, Label: label})
	}
	sortMilestones(out)
	return out
}

func sortMilestones(ms []schema.Milestone) {
	slices.SortFunc(ms, func(a, b schema.Milestone) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	return strconv.ParseFloat(s, 64)
}

// parseTimestamp is parseNumber restricted to finite values.
func parseTimestamp(s string) (float64, error) {
	ts, err := parseNumber(s)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(ts) || math.IsInf(ts, 0) {
		return 0, fmt.Errorf("non-finite timestamp %q", s)
	}
	return ts, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
