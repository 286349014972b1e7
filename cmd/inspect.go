package cmd

import (
	"github.com/huangsam/barrace/core"
	"github.com/huangsam/barrace/internal/contract"
	"github.com/spf13/cobra"
)

// inspectCmd validates a dataset without rendering it.
var inspectCmd = &cobra.Command{
	Use:   "inspect <dataset.csv>",
	Short: "Validate a dataset and summarize what a render would show.",
	Long: `Load a dataset with the same rules as render and report:
- Entities, timestamps and known points
- The time range and the number of frames the animation would have
- Milestones and declared gaps
- Rows dropped while loading
- The final standings and any unusable entity images

Examples:
  barrace inspect gdp.csv
  barrace inspect gdp.csv --assets-dir flags --output json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteInspect(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot inspect dataset", err)
		}
	},
}
