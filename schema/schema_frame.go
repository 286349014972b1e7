package schema

// Standing is one entity selected into the visible set at a frame.
type Standing struct {
	EntityID string  `json:"entity_id"`
	Value    float64 `json:"value"`
	Order    int     `json:"-"` // Declared index of the entity, used for tie-breaks
}

// RankedEntry is one visible entity within a FrameState.
type RankedEntry struct {
	EntityID     string     `json:"entity_id"`
	Value        float64    `json:"value"`
	DisplayValue float64    `json:"display_value"` // Value scaled by the configured divisor
	Rank         int        `json:"rank"`          // 0-indexed, dense within the frame
	PreviousRank int        `json:"previous_rank"` // -1 when absent from the previous frame
	Transition   Transition `json:"transition"`
	Position     float64    `json:"position"` // Smoothed slot position, 0 = top
	Width        float64    `json:"width"`    // Smoothed bar length relative to the leader
	Swap         bool       `json:"swap"`     // Rank-change emphasis marker
	Leader       bool       `json:"leader"`   // Persistent emphasis for rank 0
	Asset        string     `json:"asset,omitempty"`
}

// FrameState is the sole output unit of the engine.
// Instances are immutable once produced.
type FrameState struct {
	FrameIndex       int           `json:"frame_index"`
	Timestamp        float64       `json:"timestamp"`
	Entries          []RankedEntry `json:"entries"`
	Exits            []string      `json:"exits,omitempty"`
	AggregateTotal   float64       `json:"aggregate_total"`
	MilestoneLabel   string        `json:"milestone_label"`
	MilestoneChanged bool          `json:"milestone_changed"`
}

// Leader returns the rank 0 entry if there is one.
func (f FrameState) Leader() (RankedEntry, bool) {
	if len(f.Entries) == 0 {
		return RankedEntry{}, false
	}
	return f.Entries[0], true
}

// RunSummary describes a completed frame stream.
type RunSummary struct {
	Frames          int            `json:"frames"`
	Entities        int            `json:"entities"`
	TopN            int            `json:"top_n"`
	Swaps           int            `json:"swaps"`
	Enters          int            `json:"enters"`
	Exits           int            `json:"exits"`
	LeaderChanges   int            `json:"leader_changes"`
	MilestoneEvents int            `json:"milestone_events"`
	FramesLed       map[string]int `json:"frames_led"`
	FinalLeader     string         `json:"final_leader"`
	Gaps            int            `json:"gaps"`
	Warnings        int            `json:"warnings"`
}
