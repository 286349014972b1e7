package core

import (
	"context"
	"errors"
	"testing"

	"github.com/huangsam/barrace/internal/contract"
	"github.com/huangsam/barrace/internal/iocache"
	"github.com/huangsam/barrace/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBeginRunTracking(t *testing.T) {
	cfg := &contract.Config{DatasetPath: "/data/gdp.csv", FrameRate: 30, Duration: 10, TopN: 5}

	t.Run("no store", func(t *testing.T) {
		ctx := beginRunTracking(context.Background(), cfg, nil)
		_, ok := getRunID(ctx)
		assert.False(t, ok)
	})

	t.Run("tracked", func(t *testing.T) {
		store := &iocache.MockRunStore{}
		store.On("BeginRun", mock.Anything, "/data/gdp.csv", cfg.Params()).Return(int64(9), nil)

		ctx := beginRunTracking(context.Background(), cfg, store)
		runID, ok := getRunID(ctx)
		assert.True(t, ok)
		assert.Equal(t, int64(9), runID)
		store.AssertExpectations(t)
	})

	t.Run("store failure keeps rendering untracked", func(t *testing.T) {
		store := &iocache.MockRunStore{}
		store.On("BeginRun", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))

		ctx := beginRunTracking(context.Background(), cfg, store)
		_, ok := getRunID(ctx)
		assert.False(t, ok)
	})

	t.Run("disabled backend", func(t *testing.T) {
		store := &iocache.MockRunStore{}
		store.On("BeginRun", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)

		ctx := beginRunTracking(context.Background(), cfg, store)
		_, ok := getRunID(ctx)
		assert.False(t, ok)
	})
}

func TestTrackingSinkRecordsNotableFrames(t *testing.T) {
	frames := []schema.FrameState{
		{FrameIndex: 0, Timestamp: 2000, Entries: []schema.RankedEntry{
			{EntityID: "USA", Rank: 0, PreviousRank: -1, Transition: schema.EnterTransition, Leader: true},
		}},
		{FrameIndex: 1, Timestamp: 2000.5, Entries: []schema.RankedEntry{
			{EntityID: "USA", Rank: 0, PreviousRank: 0, Transition: schema.StableTransition, Leader: true},
		}},
		{FrameIndex: 2, Timestamp: 2001, Entries: []schema.RankedEntry{
			{EntityID: "China", Rank: 0, PreviousRank: 1, Transition: schema.SwapTransition, Leader: true, Swap: true},
			{EntityID: "USA", Rank: 1, PreviousRank: 0, Transition: schema.SwapTransition},
		}},
		{FrameIndex: 3, Timestamp: 2001.5, MilestoneLabel: "Boom", MilestoneChanged: true, Entries: []schema.RankedEntry{
			{EntityID: "China", Rank: 0, PreviousRank: 0, Transition: schema.StableTransition, Leader: true},
		}, Exits: []string{"USA"}},
	}

	store := &iocache.MockRunStore{}
	store.On("RecordFrame", int64(4), mock.Anything).Return(nil)

	var written []int
	next := contract.FrameSinkFunc(func(f schema.FrameState) error {
		written = append(written, f.FrameIndex)
		return nil
	})
	sink := newTrackingSink(withRunID(context.Background(), 4), store, next)
	for _, f := range frames {
		require.NoError(t, sink.WriteFrame(f))
	}

	assert.Equal(t, []int{0, 1, 2, 3}, written)
	store.AssertNumberOfCalls(t, "RecordFrame", 3)

	swapRecord := store.Calls[1].Arguments.Get(1).(schema.FrameLogRecord)
	assert.Equal(t, int32(2), swapRecord.FrameIndex)
	assert.Equal(t, "China", swapRecord.Leader)
	assert.Equal(t, int32(2), swapRecord.Swaps)

	exitRecord := store.Calls[2].Arguments.Get(1).(schema.FrameLogRecord)
	assert.Equal(t, int32(1), exitRecord.Exits)
	assert.Equal(t, "Boom", exitRecord.MilestoneLabel)
}

func TestTrackingSinkIgnoresStoreErrors(t *testing.T) {
	store := &iocache.MockRunStore{}
	store.On("RecordFrame", int64(1), mock.Anything).Return(errors.New("disk full"))

	sink := newTrackingSink(withRunID(context.Background(), 1), store, contract.FrameSinkFunc(func(schema.FrameState) error {
		return nil
	}))
	assert.NoError(t, sink.WriteFrame(schema.FrameState{FrameIndex: 0}))
	store.AssertExpectations(t)
}

func TestTrackingSinkPassthrough(t *testing.T) {
	next := contract.FrameSinkFunc(func(schema.FrameState) error { return nil })
	sink := newTrackingSink(context.Background(), &iocache.MockRunStore{}, next)
	_, wrapped := sink.(*trackingSink)
	assert.False(t, wrapped)
}

func TestEndRunTracking(t *testing.T) {
	store := &iocache.MockRunStore{}
	store.On("EndRun", int64(5), mock.Anything, 120).Return(nil)

	endRunTracking(withRunID(context.Background(), 5), store, 120)
	endRunTracking(context.Background(), store, 99) // untracked, no call
	store.AssertExpectations(t)
	store.AssertNumberOfCalls(t, "EndRun", 1)
}
