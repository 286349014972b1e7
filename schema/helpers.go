package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// compactUnits are the magnitude suffixes used by FormatCompact, largest first.
var compactUnits = []struct {
	scale  float64
	suffix string
}{
	{1e12, "T"},
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

// FormatCompact renders a value with a magnitude suffix, e.g. 1.2T, 45.0B or 310.5M.
// Values below one thousand are printed as-is with the given precision.
func FormatCompact(v float64, precision int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	abs := math.Abs(v)
	for _, u := range compactUnits {
		if abs >= u.scale {
			return strconv.FormatFloat(v/u.scale, 'f', precision, 64) + u.suffix
		}
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}

// FormatTimestamp renders a frame timestamp the way the year counter shows it:
// the integer part only.
func FormatTimestamp(t float64) string {
	return strconv.FormatInt(int64(math.Floor(t)), 10)
}

// FormatMarkers renders the emphasis flags of an entry for plain-text output.
func FormatMarkers(e RankedEntry) string {
	var parts []string
	if e.Leader {
		parts = append(parts, "leader")
	}
	if e.Swap {
		parts = append(parts, "swap")
	}
	return strings.Join(parts, "|")
}

// FormatRankDelta renders the rank movement of an entry, e.g. "+2", "-1", "new" or "=".
func FormatRankDelta(e RankedEntry) string {
	if e.PreviousRank < 0 {
		return "new"
	}
	delta := e.PreviousRank - e.Rank
	switch {
	case delta > 0:
		return fmt.Sprintf("+%d", delta)
	case delta < 0:
		return fmt.Sprintf("%d", delta)
	default:
		return "="
	}
}
