package algo

import (
	"testing"

	"github.com/huangsam/barrace/schema"
	"github.com/stretchr/testify/assert"
)

// TestMilestoneResolve tests label lookup at and between milestones.
func TestMilestoneResolve(t *testing.T) {
	r := NewMilestoneResolver([]schema.Milestone{
		{Timestamp: 2008, Label: "Financial crisis"},
		{Timestamp: 1991, Label: "USSR dissolves"},
		{Timestamp: 2001, Label: "China joins WTO"},
	})

	tests := []struct {
		t        float64
		expected string
	}{
		{1980, ""},
		{1990.99, ""},
		{1991, "USSR dissolves"},
		{1995.5, "USSR dissolves"},
		{2001, "China joins WTO"},
		{2007.9, "China joins WTO"},
		{2008, "Financial crisis"},
		{2050, "Financial crisis"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, r.Resolve(tt.t), "timestamp %v", tt.t)
	}
	assert.Equal(t, 3, r.Len())
}

// TestMilestoneSameTimestamp checks that the last declared label wins.
func TestMilestoneSameTimestamp(t *testing.T) {
	r := NewMilestoneResolver([]schema.Milestone{
		{Timestamp: 2000, Label: "first"},
		{Timestamp: 2000, Label: "second"},
	})
	assert.Equal(t, "second", r.Resolve(2000))
}

// TestMilestoneAdvance checks that a label change is reported once per transition.
func TestMilestoneAdvance(t *testing.T) {
	r := NewMilestoneResolver([]schema.Milestone{
		{Timestamp: 1985, Label: "Plaza Accord"},
		{Timestamp: 1991, Label: "USSR dissolves"},
		{Timestamp: 1995, Label: "WTO founded"},
	})

	var changes []string
	for _, t := range FrameTimeline(1980, 1994, 57) {
		if label, changed := r.Advance(t); changed {
			changes = append(changes, label)
		}
	}
	assert.Equal(t, []string{"Plaza Accord", "USSR dissolves"}, changes)

	label, changed := r.Advance(1994)
	assert.Equal(t, "USSR dissolves", label)
	assert.False(t, changed)
}

// TestMilestoneEmpty tests a resolver without milestones.
func TestMilestoneEmpty(t *testing.T) {
	r := NewMilestoneResolver(nil)
	label, changed := r.Advance(2000)
	assert.Empty(t, label)
	assert.False(t, changed)
}
