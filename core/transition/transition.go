// Package transition owns the per-entity visual state carried across frames.
//
// The controller turns each frame's ranked standings into displayed geometry
// and classifies every entity as entering, exiting, swapping or stable.
package transition

import (
	"fmt"
	"sort"

	"github.com/huangsam/barrace/schema"
)

// Options tunes the controller.
type Options struct {
	Alpha         float64 // Blend factor in (0, 1]
	SwapThreshold int     // Minimum rank delta that raises the swap marker
}

// FastPreset snaps quickly and suits data with frequent swaps.
var FastPreset = Options{Alpha: schema.FastAlpha, SwapThreshold: 1}

// SlowPreset gives calmer motion.
var SlowPreset = Options{Alpha: schema.SlowAlpha, SwapThreshold: 1}

// PresetOptions returns the options for a named preset.
func PresetOptions(p schema.SmoothingPreset) (Options, error) {
	alpha, ok := schema.PresetAlphas[p]
	if !ok {
		return Options{}, fmt.Errorf("unknown smoothing preset %q", p)
	}
	return Options{Alpha: alpha, SwapThreshold: 1}, nil
}

// Validate checks the option ranges.
func (o Options) Validate() error {
	if o.Alpha <= 0 || o.Alpha > 1 {
		return fmt.Errorf("smoothing alpha must be in (0, 1] (received %v)", o.Alpha)
	}
	if o.SwapThreshold < 1 {
		return fmt.Errorf("swap threshold must be at least 1 (received %d)", o.SwapThreshold)
	}
	return nil
}

// state is what the controller remembers about one visible entity.
type state struct {
	rank     int
	position float64
	width    float64
}

// Controller smooths positions and classifies rank changes between frames.
// It is not safe for concurrent use; frames must be stepped in order.
type Controller struct {
	opts    Options
	history map[string]*state
}

// New creates a controller. Out of range options fall back to the fast preset values.
func New(opts Options) *Controller {
	if opts.Alpha <= 0 || opts.Alpha > 1 {
		opts.Alpha = FastPreset.Alpha
	}
	if opts.SwapThreshold < 1 {
		opts.SwapThreshold = 1
	}
	return &Controller{opts: opts, history: make(map[string]*state)}
}

// Options returns the effective options.
func (c *Controller) Options() Options {
	return c.opts
}

// Step consumes the standings of the next frame and returns the displayed
// entries in rank order together with the ids that left the visible set.
// Exits are ordered by the rank they held in the previous frame.
func (c *Controller) Step(standings []schema.Standing) ([]schema.RankedEntry, []string) {
	entries := make([]schema.RankedEntry, len(standings))
	present := make(map[string]struct{}, len(standings))

	var top float64
	if len(standings) > 0 {
		top = standings[0].Value
	}

	for rank, st := range standings {
		present[st.EntityID] = struct{}{}
		targetWidth := 0.0
		if top > 0 {
			targetWidth = st.Value / top
		}

		entry := schema.RankedEntry{
			EntityID:     st.EntityID,
			Value:        st.Value,
			Rank:         rank,
			PreviousRank: -1,
			Leader:       rank == 0,
		}

		prev, seen := c.history[st.EntityID]
		if !seen {
			entry.Transition = schema.EnterTransition
			entry.Position = float64(rank)
			entry.Width = targetWidth
			c.history[st.EntityID] = &state{rank: rank, position: entry.Position, width: entry.Width}
			entries[rank] = entry
			continue
		}

		entry.PreviousRank = prev.rank
		entry.Transition = schema.StableTransition
		if prev.rank != rank {
			entry.Transition = schema.SwapTransition
			entry.Swap = abs(prev.rank-rank) >= c.opts.SwapThreshold
		}
		prev.position += c.opts.Alpha * (float64(rank) - prev.position)
		prev.width += c.opts.Alpha * (targetWidth - prev.width)
		prev.rank = rank
		entry.Position = prev.position
		entry.Width = prev.width
		entries[rank] = entry
	}

	var exits []string
	for id := range c.history {
		if _, ok := present[id]; !ok {
			exits = append(exits, id)
		}
	}
	sort.Slice(exits, func(i, j int) bool {
		ri, rj := c.history[exits[i]].rank, c.history[exits[j]].rank
		if ri != rj {
			return ri < rj
		}
		return exits[i] < exits[j]
	})
	for _, id := range exits {
		delete(c.history, id)
	}
	return entries, exits
}

// Active returns the ids currently held, ordered by their last rank.
func (c *Controller) Active() []string {
	out := make([]string, 0, len(c.history))
	for id := range c.history {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return c.history[out[i]].rank < c.history[out[j]].rank
	})
	return out
}

// Reset forgets all visual state.
func (c *Controller) Reset() {
	clear(c.history)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
