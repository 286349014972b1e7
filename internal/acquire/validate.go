package acquire

import (
	"fmt"
	"math"

	"github.com/huangsam/barrace/schema"
)

// ValidateRows checks that rows cover every year of the request exactly once,
// in ascending order, with a finite non-negative value for every entity.
func ValidateRows(req schema.ChunkRequest, rows []schema.ChunkRow) error {
	if len(rows) != req.Years() {
		return fmt.Errorf("expected %d rows for %d-%d, got %d", req.Years(), req.StartYear, req.EndYear, len(rows))
	}
	for i, row := range rows {
		if want := req.StartYear + i; row.Year != want {
			return fmt.Errorf("row %d has year %d, expected %d", i, row.Year, want)
		}
		for _, id := range req.Entities {
			v, ok := row.Values[id]
			if !ok {
				return fmt.Errorf("year %d is missing entity %q", row.Year, id)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return fmt.Errorf("year %d has invalid value %v for %q", row.Year, v, id)
			}
		}
	}
	return nil
}
