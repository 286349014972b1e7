package transition

import (
	"testing"

	"github.com/huangsam/barrace/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func standings(pairs ...any) []schema.Standing {
	out := make([]schema.Standing, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, schema.Standing{EntityID: pairs[i].(string), Value: pairs[i+1].(float64), Order: i / 2})
	}
	return out
}

func byID(entries []schema.RankedEntry) map[string]schema.RankedEntry {
	out := make(map[string]schema.RankedEntry, len(entries))
	for _, e := range entries {
		out[e.EntityID] = e
	}
	return out
}

// TestStepEnter checks that first appearances snap to their target.
func TestStepEnter(t *testing.T) {
	c := New(FastPreset)
	entries, exits := c.Step(standings("a", 100.0, "b", 50.0, "c", 25.0))

	require.Len(t, entries, 3)
	assert.Empty(t, exits)
	for rank, e := range entries {
		assert.Equal(t, rank, e.Rank)
		assert.Equal(t, -1, e.PreviousRank)
		assert.Equal(t, schema.EnterTransition, e.Transition)
		assert.Equal(t, float64(rank), e.Position)
		assert.False(t, e.Swap)
	}
	assert.Equal(t, []float64{1, 0.5, 0.25}, []float64{entries[0].Width, entries[1].Width, entries[2].Width})
	assert.True(t, entries[0].Leader)
	assert.False(t, entries[1].Leader)
}

// TestStepStable checks that unchanged ranks are stable and unmarked.
func TestStepStable(t *testing.T) {
	c := New(FastPreset)
	c.Step(standings("a", 100.0, "b", 50.0))
	entries, exits := c.Step(standings("a", 110.0, "b", 55.0))

	assert.Empty(t, exits)
	for rank, e := range entries {
		assert.Equal(t, schema.StableTransition, e.Transition)
		assert.Equal(t, rank, e.PreviousRank)
		assert.Equal(t, float64(rank), e.Position)
		assert.False(t, e.Swap)
	}
	assert.True(t, entries[0].Leader)
}

// TestStepDropFromTop covers an entity falling from rank 0 to rank 2 in one frame.
func TestStepDropFromTop(t *testing.T) {
	c := New(FastPreset)
	c.Step(standings("a", 100.0, "b", 90.0, "c", 80.0))
	entries, exits := c.Step(standings("b", 95.0, "c", 85.0, "a", 70.0))

	assert.Empty(t, exits)
	got := byID(entries)

	assert.Equal(t, schema.SwapTransition, got["a"].Transition)
	assert.True(t, got["a"].Swap)
	assert.Equal(t, 0, got["a"].PreviousRank)
	assert.Equal(t, 2, got["a"].Rank)

	for _, id := range []string{"b", "c"} {
		assert.Equal(t, schema.SwapTransition, got[id].Transition, id)
		assert.True(t, got[id].Swap, id)
	}

	// a moves halfway from slot 0 toward slot 2; b halfway from 1 toward 0.
	assert.InDelta(t, 1.0, got["a"].Position, 1e-12)
	assert.InDelta(t, 0.5, got["b"].Position, 1e-12)
	assert.True(t, got["b"].Leader)
	assert.False(t, got["a"].Leader)
}

// TestStepExit checks that entities leaving the visible set are released.
func TestStepExit(t *testing.T) {
	c := New(SlowPreset)
	c.Step(standings("a", 10.0, "b", 9.0, "c", 8.0))
	entries, exits := c.Step(standings("a", 10.0))

	require.Len(t, entries, 1)
	assert.Equal(t, []string{"b", "c"}, exits)
	assert.Equal(t, []string{"a"}, c.Active())

	// Coming back after an exit counts as a new entry.
	entries, _ = c.Step(standings("a", 10.0, "c", 9.0))
	assert.Equal(t, schema.EnterTransition, entries[1].Transition)
	assert.Equal(t, 1.0, entries[1].Position)
}

// TestSmoothingConverges checks exponential smoothing toward a fixed target.
func TestSmoothingConverges(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		after float64
	}{
		{"fast", FastPreset, 1.0 - 0.5},
		{"slow", SlowPreset, 1.0 - 0.2},
		{"instant", Options{Alpha: 1, SwapThreshold: 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.opts)
			c.Step(standings("a", 10.0, "b", 5.0))
			entries, _ := c.Step(standings("b", 20.0, "a", 10.0))
			got := byID(entries)
			assert.InDelta(t, tt.after, got["b"].Position, 1e-12)

			for range 200 {
				entries, _ = c.Step(standings("b", 20.0, "a", 10.0))
			}
			got = byID(entries)
			assert.InDelta(t, 0.0, got["b"].Position, 1e-9)
			assert.InDelta(t, 1.0, got["a"].Position, 1e-9)
			assert.InDelta(t, 0.5, got["a"].Width, 1e-9)
			assert.Equal(t, schema.StableTransition, got["a"].Transition)
		})
	}
}

// TestSwapThreshold checks that small rank moves can be left unmarked.
func TestSwapThreshold(t *testing.T) {
	c := New(Options{Alpha: 0.5, SwapThreshold: 2})
	c.Step(standings("a", 10.0, "b", 9.0, "c", 8.0))
	entries, _ := c.Step(standings("b", 10.0, "a", 9.0, "c", 8.0))
	got := byID(entries)
	assert.Equal(t, schema.SwapTransition, got["a"].Transition)
	assert.False(t, got["a"].Swap)

	entries, _ = c.Step(standings("c", 10.0, "a", 9.0, "b", 8.0))
	got = byID(entries)
	assert.True(t, got["c"].Swap)
	assert.True(t, got["b"].Swap)
	assert.Equal(t, schema.StableTransition, got["a"].Transition)
}

// TestReset checks that reset forgets history.
func TestReset(t *testing.T) {
	c := New(FastPreset)
	c.Step(standings("a", 1.0))
	c.Reset()
	assert.Empty(t, c.Active())
	entries, exits := c.Step(standings("a", 1.0))
	assert.Empty(t, exits)
	assert.Equal(t, schema.EnterTransition, entries[0].Transition)
}

// TestOptions tests option validation and presets.
func TestOptions(t *testing.T) {
	assert.NoError(t, FastPreset.Validate())
	assert.NoError(t, SlowPreset.Validate())
	assert.Error(t, Options{Alpha: 0, SwapThreshold: 1}.Validate())
	assert.Error(t, Options{Alpha: 1.5, SwapThreshold: 1}.Validate())
	assert.Error(t, Options{Alpha: 0.5}.Validate())

	opts, err := PresetOptions(schema.SlowPreset)
	require.NoError(t, err)
	assert.Equal(t, 0.2, opts.Alpha)
	_, err = PresetOptions("turbo")
	assert.Error(t, err)

	c := New(Options{})
	assert.Equal(t, FastPreset, c.Options())
}
