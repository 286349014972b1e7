package cmd

import (
	"github.com/huangsam/barrace/core"
	"github.com/huangsam/barrace/internal/contract"
	"github.com/spf13/cobra"
)

// generateCmd acquires a dataset from a language model.
var generateCmd = &cobra.Command{
	Use:   "generate <output.csv>",
	Short: "Acquire a yearly dataset from an OpenAI-compatible model endpoint.",
	Long: `Ask a model for the values of every entity, one span of years at a time.

Chunks are requested concurrently and validated; a chunk that keeps failing
after its retries is written as a declared gap next to the dataset
(<output.csv>.gaps.json) instead of failing the whole acquisition.
Successful chunks are stored in the chunk cache.

Examples:
  # Use a local Ollama server
  barrace generate gdp.csv --entities "USA,China,Japan,Germany" --topic "GDP in US dollars"

  # Use a hosted endpoint
  BARRACE_API_KEY=... barrace generate gdp.csv --base-url https://api.openai.com/v1 --model gpt-4o-mini --entities "USA,China"`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteGenerate(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot generate dataset", err)
		}
	},
}
