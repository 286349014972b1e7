package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/barrace/internal/contract"
	"github.com/huangsam/barrace/schema"
)

// beginRunTracking registers the render with the run store, if one is configured.
// Tracking failures are logged and never interrupt the render.
func beginRunTracking(ctx context.Context, cfg *contract.Config, store contract.RunStore) context.Context {
	if store == nil {
		return ctx
	}
	runID, err := store.BeginRun(time.Now(), cfg.DatasetPath, cfg.Params())
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return ctx
	}
	if runID <= 0 {
		return ctx
	}
	return withRunID(ctx, runID)
}

// endRunTracking finalizes the tracked run with the number of frames emitted.
func endRunTracking(ctx context.Context, store contract.RunStore, frames int) {
	runID, ok := getRunID(ctx)
	if store == nil || !ok {
		return
	}
	if err := store.EndRun(runID, time.Now(), frames); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}

// trackingSink forwards frames to the next sink and logs the notable ones.
type trackingSink struct {
	next       contract.FrameSink
	store      contract.RunStore
	runID      int64
	lastLeader string
}

// newTrackingSink wraps next when the context carries a tracked run.
func newTrackingSink(ctx context.Context, store contract.RunStore, next contract.FrameSink) contract.FrameSink {
	runID, ok := getRunID(ctx)
	if store == nil || !ok {
		return next
	}
	return &trackingSink{next: next, store: store, runID: runID}
}

// WriteFrame passes the frame on, then records it if anything happened.
func (s *trackingSink) WriteFrame(frame schema.FrameState) error {
	if err := s.next.WriteFrame(frame); err != nil {
		return err
	}

	leader := ""
	if e, ok := frame.Leader(); ok {
		leader = e.EntityID
	}
	leaderChanged := leader != s.lastLeader
	s.lastLeader = leader

	swaps, enters := frameEvents(frame)
	if !notableFrame(frame, swaps, enters, leaderChanged) {
		return nil
	}
	record := schema.FrameLogRecord{
		RunID:          s.runID,
		FrameIndex:     int32(frame.FrameIndex),
		Timestamp:      frame.Timestamp,
		Leader:         leader,
		AggregateTotal: frame.AggregateTotal,
		Swaps:          int32(swaps),
		Enters:         int32(enters),
		Exits:          int32(len(frame.Exits)),
		MilestoneLabel: frame.MilestoneLabel,
	}
	if err := s.store.RecordFrame(s.runID, record); err != nil {
		logTrackingError(frame.FrameIndex, err)
	}
	return nil
}

// notableFrame reports whether a frame changes what the viewer sees beyond motion.
func notableFrame(frame schema.FrameState, swaps, enters int, leaderChanged bool) bool {
	return frame.FrameIndex == 0 ||
		swaps > 0 ||
		enters > 0 ||
		len(frame.Exits) > 0 ||
		frame.MilestoneChanged ||
		leaderChanged
}

// logTrackingError logs database tracking errors to stderr without disrupting the render.
func logTrackingError(frameIndex int, err error) {
	contract.LogWarn(fmt.Sprintf("Run tracking failed on frame %d", frameIndex), err)
}
