package algo

import (
	"sort"

	"github.com/huangsam/barrace/schema"
)

// SelectTop orders entities by value in descending order and returns the top
// 'limit' of them. Equal values keep the declared entity order. Entities whose
// value is not positive never make the visible set, even when space remains.
// If limit is greater than the number of candidates, all of them are returned.
func SelectTop(ids []string, values []float64, limit int) []schema.Standing {
	standings := make([]schema.Standing, 0, len(ids))
	for i, id := range ids {
		if values[i] > 0 {
			standings = append(standings, schema.Standing{EntityID: id, Value: values[i], Order: i})
		}
	}
	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Value != standings[j].Value {
			return standings[i].Value > standings[j].Value
		}
		return standings[i].Order < standings[j].Order
	})
	if limit < 0 {
		limit = 0
	}
	if len(standings) > limit {
		return standings[:limit]
	}
	return standings
}

// ClampTopN bounds a configured top-N by the number of entities.
func ClampTopN(topN, entities int) int {
	return max(0, min(topN, entities))
}
