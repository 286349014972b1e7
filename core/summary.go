package core

import (
	"context"

	"github.com/huangsam/barrace/internal/contract"
	"github.com/huangsam/barrace/schema"
)

// summaryBuilder accumulates run statistics frame by frame.
type summaryBuilder struct {
	summary    schema.RunSummary
	lastLeader string
}

func newSummaryBuilder(ds schema.Dataset, topN int) *summaryBuilder {
	return &summaryBuilder{summary: schema.RunSummary{
		Entities:  len(ds.Entities),
		TopN:      topN,
		FramesLed: make(map[string]int),
		Gaps:      len(ds.Gaps),
		Warnings:  len(ds.Warnings),
	}}
}

// frameEvents counts the notable events within one frame.
func frameEvents(frame schema.FrameState) (swaps, enters int) {
	for _, e := range frame.Entries {
		switch e.Transition {
		case schema.SwapTransition:
			swaps++
		case schema.EnterTransition:
			enters++
		}
	}
	return swaps, enters
}

// add folds one frame into the summary.
func (b *summaryBuilder) add(frame schema.FrameState) {
	s := &b.summary
	s.Frames++
	swaps, enters := frameEvents(frame)
	s.Swaps += swaps
	s.Enters += enters
	s.Exits += len(frame.Exits)
	if frame.MilestoneChanged {
		s.MilestoneEvents++
	}

	leader := ""
	if e, ok := frame.Leader(); ok {
		leader = e.EntityID
		s.FramesLed[leader]++
	}
	if frame.FrameIndex > 0 && leader != b.lastLeader {
		s.LeaderChanges++
	}
	b.lastLeader = leader
	s.FinalLeader = leader
}

// Run streams every frame of the dataset into the sink and summarizes the run.
// Cancellation is checked between frames only.
func Run(ctx context.Context, ds schema.Dataset, opts EmitterOptions, sink contract.FrameSink) (schema.RunSummary, error) {
	emitter, err := NewEmitter(ds, opts)
	if err != nil {
		return schema.RunSummary{}, err
	}
	builder := newSummaryBuilder(ds, emitter.TopN())
	for frame := range emitter.All() {
		if err := ctx.Err(); err != nil {
			return builder.summary, err
		}
		if err := sink.WriteFrame(frame); err != nil {
			return builder.summary, err
		}
		builder.add(frame)
	}
	return builder.summary, nil
}
