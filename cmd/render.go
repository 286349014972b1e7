package cmd

import (
	"github.com/huangsam/barrace/core"
	"github.com/huangsam/barrace/internal/contract"
	"github.com/spf13/cobra"
)

// renderCmd streams the frames of a bar chart race.
var renderCmd = &cobra.Command{
	Use:   "render <dataset.csv>",
	Short: "Render a dataset into ranked, smoothed animation frames.",
	Long: `Interpolate a sparse CSV dataset onto a dense frame timeline and emit one
ranked frame per step.

Every frame carries:
- The visible top-N entities with value, rank and smoothed position/width
- Enter, exit and swap transitions relative to the previous frame
- The leader, the aggregate total and the active milestone label

The first column holds timestamps (usually years), every other column is an
entity, and an optional "Milestone" column labels historical events.

Examples:
  # Preview a 30 second race in the terminal, one table every 60 frames
  barrace render gdp.csv --every 60

  # Show values in billions with the slow preset
  barrace render gdp.csv --divisor 1e9 --preset slow

  # Stream frames as JSON lines for a renderer
  barrace render gdp.csv --output json --output-file frames.jsonl

  # Export frames to Parquet for analysis
  barrace render gdp.csv --output parquet --output-file frames.parquet`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRender(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot render dataset", err)
		}
	},
}
