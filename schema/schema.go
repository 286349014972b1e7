// Package schema has configs, models and global variables for all parts of barrace.
package schema

import (
	"fmt"
	"math"
	"sort"
)

// Point is a single known observation of an entity.
type Point struct {
	Timestamp float64 `json:"timestamp"`
	Value     float64 `json:"value"`
}

// TimeSeries is the ordered list of known points for one entity.
// Timestamps are strictly increasing with no duplicates.
type TimeSeries []Point

// Milestone is a labeled historical event anchored to a timestamp.
type Milestone struct {
	Timestamp float64 `json:"timestamp"`
	Label     string  `json:"label"`
}

// Gap is a timestamp range declared unavailable by the acquisition layer.
// Both ends are inclusive.
type Gap struct {
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Reason string  `json:"reason"`
}

// Contains reports whether t falls inside the gap.
func (g Gap) Contains(t float64) bool {
	return t >= g.Start && t <= g.End
}

// Dataset is the validated input of the engine.
// It is constructed once by a loader and never mutated afterwards.
type Dataset struct {
	Entities   []string              `json:"entities"`   // Entity identifiers in declared order
	Series     map[string]TimeSeries `json:"series"`     // Known points per entity
	Milestones []Milestone           `json:"milestones"` // Sorted ascending by timestamp
	Gaps       []Gap                 `json:"gaps"`       // Declared acquisition gaps
	Warnings   []string              `json:"warnings"`   // Non-fatal problems recorded while loading
}

// Bounds returns the smallest and largest timestamp across all series.
// The boolean is false when the dataset has no points at all.
func (d Dataset) Bounds() (float64, float64, bool) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, id := range d.Entities {
		s := d.Series[id]
		if len(s) == 0 {
			continue
		}
		lo = math.Min(lo, s[0].Timestamp)
		hi = math.Max(hi, s[len(s)-1].Timestamp)
	}
	if math.IsInf(lo, 1) {
		return 0, 0, false
	}
	return lo, hi, true
}

// PointCount returns the total number of known points.
func (d Dataset) PointCount() int {
	total := 0
	for _, id := range d.Entities {
		total += len(d.Series[id])
	}
	return total
}

// Timestamps returns the sorted union of all known timestamps.
func (d Dataset) Timestamps() []float64 {
	seen := make(map[float64]struct{})
	for _, id := range d.Entities {
		for _, p := range d.Series[id] {
			seen[p.Timestamp] = struct{}{}
		}
	}
	out := make([]float64, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Float64s(out)
	return out
}

// Validate checks the structural invariants of the dataset.
func (d Dataset) Validate() error {
	if len(d.Entities) == 0 {
		return fmt.Errorf("%w: no entities declared", ErrInvalidDataset)
	}
	seen := make(map[string]struct{}, len(d.Entities))
	for _, id := range d.Entities {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate entity %q", ErrInvalidDataset, id)
		}
		seen[id] = struct{}{}
		s := d.Series[id]
		for i, p := range s {
			if math.IsNaN(p.Timestamp) || math.IsInf(p.Timestamp, 0) {
				return fmt.Errorf("%w: entity %q has non-finite timestamp %v", ErrInvalidDataset, id, p.Timestamp)
			}
			if i > 0 && !(p.Timestamp > s[i-1].Timestamp) {
				return fmt.Errorf("%w: entity %q has non-increasing timestamp %v", ErrInvalidDataset, id, p.Timestamp)
			}
		}
	}
	if d.PointCount() == 0 {
		return fmt.Errorf("%w: no entity has any data point", ErrInvalidDataset)
	}
	return nil
}
