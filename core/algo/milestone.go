package algo

import (
	"sort"

	"github.com/huangsam/barrace/schema"
)

// MilestoneResolver maps frame timestamps to the latest applicable milestone label.
type MilestoneResolver struct {
	milestones []schema.Milestone
	last       string
}

// NewMilestoneResolver sorts a copy of the milestones by timestamp.
// For milestones sharing a timestamp, the one declared last wins.
func NewMilestoneResolver(milestones []schema.Milestone) *MilestoneResolver {
	ms := append([]schema.Milestone(nil), milestones...)
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].Timestamp < ms[j].Timestamp
	})
	return &MilestoneResolver{milestones: ms}
}

// Resolve returns the label of the latest milestone at or before t, or "".
func (r *MilestoneResolver) Resolve(t float64) string {
	i := sort.Search(len(r.milestones), func(i int) bool {
		return r.milestones[i].Timestamp > t
	})
	if i == 0 {
		return ""
	}
	return r.milestones[i-1].Label
}

// Advance resolves t and reports whether the label differs from the one
// returned by the previous call. Consumers redraw milestone text only when
// changed is true.
func (r *MilestoneResolver) Advance(t float64) (string, bool) {
	label := r.Resolve(t)
	changed := label != r.last
	r.last = label
	return label, changed
}

// Len returns the number of milestones.
func (r *MilestoneResolver) Len() int {
	return len(r.milestones)
}
