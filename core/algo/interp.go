// Package algo has the pure algorithms of the race engine: resampling,
// ranking and milestone lookup. Nothing here keeps state across frames
// except the milestone resolver's last reported label.
package algo

import (
	"fmt"
	"math"
	"sort"

	"github.com/huangsam/barrace/schema"
)

// Grid is a dataset resampled onto a dense frame timeline.
// Values is indexed as [frame][entity] with entities in declared order.
type Grid struct {
	Entities   []string
	Timestamps []float64
	Values     [][]float64
}

// Interpolator resamples every entity's sparse series onto arbitrary timestamps.
type Interpolator struct {
	entities []string
	series   [][]schema.Point // cleaned, aligned with entities
	lo, hi   float64
}

// NewInterpolator validates the dataset and prepares cleaned copies of its series.
// Non-finite and negative values are treated as 0.
func NewInterpolator(ds schema.Dataset) (*Interpolator, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	lo, hi, ok := ds.Bounds()
	if !ok {
		return nil, fmt.Errorf("%w: no entity has any data point", schema.ErrInvalidDataset)
	}

	ip := &Interpolator{
		entities: append([]string(nil), ds.Entities...),
		series:   make([][]schema.Point, len(ds.Entities)),
		lo:       lo,
		hi:       hi,
	}
	for i, id := range ds.Entities {
		src := ds.Series[id]
		cleaned := make([]schema.Point, len(src))
		for j, p := range src {
			cleaned[j] = schema.Point{Timestamp: p.Timestamp, Value: CleanValue(p.Value)}
		}
		ip.series[i] = cleaned
	}
	return ip, nil
}

// CleanValue maps non-finite and negative values to 0.
func CleanValue(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Entities returns the entity identifiers in declared order.
func (ip *Interpolator) Entities() []string {
	return ip.entities
}

// Bounds returns the first and last known timestamp of the dataset.
func (ip *Interpolator) Bounds() (float64, float64) {
	return ip.lo, ip.hi
}

// At returns the interpolated value of every entity at timestamp t.
func (ip *Interpolator) At(t float64) []float64 {
	out := make([]float64, len(ip.series))
	for i, s := range ip.series {
		out[i] = valueAt(s, t)
	}
	return out
}

// ValueAt returns the interpolated value of the entity at index idx.
func (ip *Interpolator) ValueAt(idx int, t float64) float64 {
	return valueAt(ip.series[idx], t)
}

// valueAt interpolates linearly between the two known points bracketing t.
// Outside the known range the nearest known value is held.
func valueAt(s []schema.Point, t float64) float64 {
	n := len(s)
	switch {
	case n == 0:
		return 0
	case n == 1, t <= s[0].Timestamp:
		return s[0].Value
	case t >= s[n-1].Timestamp:
		return s[n-1].Value
	}

	j := sort.Search(n, func(i int) bool { return s[i].Timestamp >= t })
	if s[j].Timestamp == t {
		return s[j].Value
	}
	a, b := s[j-1], s[j]
	return a.Value + (b.Value-a.Value)*(t-a.Timestamp)/(b.Timestamp-a.Timestamp)
}

// FrameCount returns the number of frames for a duration at a frame rate, at least 1.
func FrameCount(durationSeconds, frameRate float64) int {
	return max(1, int(math.Round(durationSeconds*frameRate)))
}

// FrameTimeline returns frames timestamps evenly spaced over [lo, hi], both ends included.
func FrameTimeline(lo, hi float64, frames int) []float64 {
	if frames < 1 {
		return nil
	}
	out := make([]float64, frames)
	if frames == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(frames-1)
	for i := range frames {
		out[i] = lo + step*float64(i)
	}
	out[frames-1] = hi
	return out
}

// Resample interpolates the whole dataset onto a timeline of the given frame count.
func Resample(ds schema.Dataset, frames int) (Grid, error) {
	ip, err := NewInterpolator(ds)
	if err != nil {
		return Grid{}, err
	}
	if frames < 1 {
		return Grid{}, fmt.Errorf("frame count must be positive (received %d)", frames)
	}
	timeline := FrameTimeline(ip.lo, ip.hi, frames)
	grid := Grid{
		Entities:   ip.Entities(),
		Timestamps: timeline,
		Values:     make([][]float64, len(timeline)),
	}
	for i, t := range timeline {
		grid.Values[i] = ip.At(t)
	}
	return grid, nil
}
