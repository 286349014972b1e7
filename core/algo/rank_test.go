package algo

import (
	"testing"

	"github.com/huangsam/barrace/schema"
	"github.com/stretchr/testify/assert"
)

func ids(standings []schema.Standing) []string {
	out := make([]string, len(standings))
	for i, s := range standings {
		out[i] = s.EntityID
	}
	return out
}

// TestSelectTop tests ranking, tie-breaks and limits.
func TestSelectTop(t *testing.T) {
	names := []string{"low", "high", "medium", "critical"}
	values := []float64{10, 90, 50, 95}

	t.Run("rank and limit", func(t *testing.T) {
		ranked := SelectTop(names, values, 2)
		assert.Equal(t, []string{"critical", "high"}, ids(ranked))
	})

	t.Run("limit exceeds length", func(t *testing.T) {
		ranked := SelectTop(names, values, 10)
		assert.Len(t, ranked, 4)
	})

	t.Run("values in descending order", func(t *testing.T) {
		ranked := SelectTop(names, values, 10)
		for i := 1; i < len(ranked); i++ {
			assert.LessOrEqual(t, ranked[i].Value, ranked[i-1].Value)
		}
	})

	t.Run("ties keep declared order", func(t *testing.T) {
		ranked := SelectTop([]string{"b", "a", "c"}, []float64{5, 5, 5}, 3)
		assert.Equal(t, []string{"b", "a", "c"}, ids(ranked))
		assert.Equal(t, []int{0, 1, 2}, []int{ranked[0].Order, ranked[1].Order, ranked[2].Order})
	})

	t.Run("non-positive values excluded", func(t *testing.T) {
		ranked := SelectTop([]string{"a", "b", "c"}, []float64{0, 3, -1}, 3)
		assert.Equal(t, []string{"b"}, ids(ranked))
	})

	t.Run("zero limit", func(t *testing.T) {
		assert.Empty(t, SelectTop(names, values, 0))
		assert.Empty(t, SelectTop(names, values, -3))
	})

	t.Run("input is not reordered", func(t *testing.T) {
		in := []float64{1, 2, 3}
		SelectTop([]string{"a", "b", "c"}, in, 3)
		assert.Equal(t, []float64{1, 2, 3}, in)
	})
}

// TestScenarioTieAtMidpoint covers two entities meeting at the same interpolated value.
func TestScenarioTieAtMidpoint(t *testing.T) {
	ds := schema.Dataset{
		Entities: []string{"e1", "e2"},
		Series: map[string]schema.TimeSeries{
			"e1": series(2000, 10, 2002, 30),
			"e2": series(2000, 20, 2002, 20),
		},
	}
	// Two frames per year over two years, both ends included.
	grid, err := Resample(ds, 5)
	assert.NoError(t, err)
	assert.Equal(t, 2001.0, grid.Timestamps[2])
	assert.Equal(t, []float64{20, 20}, grid.Values[2])

	ranked := SelectTop(grid.Entities, grid.Values[2], 2)
	assert.Equal(t, []string{"e1", "e2"}, ids(ranked))
}

// TestClampTopN tests the top-N bound.
func TestClampTopN(t *testing.T) {
	assert.Equal(t, 3, ClampTopN(10, 3))
	assert.Equal(t, 2, ClampTopN(2, 3))
	assert.Equal(t, 0, ClampTopN(-1, 3))
}
