package core

import (
	"fmt"
	"iter"

	"github.com/huangsam/barrace/core/algo"
	"github.com/huangsam/barrace/core/transition"
	"github.com/huangsam/barrace/internal/contract"
	"github.com/huangsam/barrace/schema"
)

// EmitterOptions configures frame production.
type EmitterOptions struct {
	Frames        int     // Number of frames on the dense timeline
	TopN          int     // Visible set bound, clamped to the entity count
	Alpha         float64 // Smoothing blend factor
	SwapThreshold int     // Minimum rank delta for the swap marker
	ValueDivisor  float64 // Display scaling, e.g. 1e9 for billions
	Assets        contract.AssetLookup
}

// Emitter produces one immutable FrameState per frame index, strictly in order.
// An emitter is single use: once drained it stays drained.
type Emitter struct {
	interp     *algo.Interpolator
	timeline   []float64
	topN       int
	divisor    float64
	controller *transition.Controller
	milestones *algo.MilestoneResolver
	assets     contract.AssetLookup
	next       int
}

// NewEmitter validates the dataset and options and prepares the frame timeline.
func NewEmitter(ds schema.Dataset, opts EmitterOptions) (*Emitter, error) {
	interp, err := algo.NewInterpolator(ds)
	if err != nil {
		return nil, err
	}
	if opts.Frames < 1 {
		return nil, fmt.Errorf("frame count must be positive (received %d)", opts.Frames)
	}
	if opts.TopN < 1 {
		return nil, fmt.Errorf("top-n must be positive (received %d)", opts.TopN)
	}
	topts := transition.Options{Alpha: opts.Alpha, SwapThreshold: opts.SwapThreshold}
	if err := topts.Validate(); err != nil {
		return nil, err
	}
	divisor := opts.ValueDivisor
	if divisor == 0 {
		divisor = 1
	}
	if divisor < 0 {
		return nil, fmt.Errorf("value divisor must be positive (received %v)", divisor)
	}

	lo, hi := interp.Bounds()
	return &Emitter{
		interp:     interp,
		timeline:   algo.FrameTimeline(lo, hi, opts.Frames),
		topN:       algo.ClampTopN(opts.TopN, len(ds.Entities)),
		divisor:    divisor,
		controller: transition.New(topts),
		milestones: algo.NewMilestoneResolver(ds.Milestones),
		assets:     opts.Assets,
	}, nil
}

// Len returns the total number of frames the emitter produces.
func (e *Emitter) Len() int {
	return len(e.timeline)
}

// TopN returns the effective visible set bound.
func (e *Emitter) TopN() int {
	return e.topN
}

// Next produces the next frame. The boolean is false once every frame was emitted.
func (e *Emitter) Next() (schema.FrameState, bool) {
	if e.next >= len(e.timeline) {
		return schema.FrameState{}, false
	}
	idx := e.next
	e.next++

	t := e.timeline[idx]
	values := e.interp.At(t)

	var total float64
	for _, v := range values {
		total += v
	}

	standings := algo.SelectTop(e.interp.Entities(), values, e.topN)
	entries, exits := e.controller.Step(standings)
	for i := range entries {
		entries[i].DisplayValue = entries[i].Value / e.divisor
		if e.assets != nil {
			entries[i].Asset = e.assets.Lookup(entries[i].EntityID)
		}
	}
	label, changed := e.milestones.Advance(t)

	return schema.FrameState{
		FrameIndex:       idx,
		Timestamp:        t,
		Entries:          entries,
		Exits:            exits,
		AggregateTotal:   total,
		MilestoneLabel:   label,
		MilestoneChanged: changed,
	}, true
}

// All yields the remaining frames in order.
func (e *Emitter) All() iter.Seq[schema.FrameState] {
	return func(yield func(schema.FrameState) bool) {
		for {
			frame, ok := e.Next()
			if !ok || !yield(frame) {
				return
			}
		}
	}
}
