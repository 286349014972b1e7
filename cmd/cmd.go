// Package cmd defines the command-line interface for barrace.
package cmd

import (
	"github.com/huangsam/barrace/internal/contract"
	"github.com/huangsam/barrace/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(runsCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().StringP("output-file", "o", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for displayed values")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Chunk cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname?parseTime=true)")
	rootCmd.PersistentFlags().String("run-backend", "", "Render run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("run-db-connect", "", "Database connection string for run tracking (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("emoji", "no", "Enable emojis in progress output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")

	// Dataset and animation flags are shared by render, inspect and mcp
	rootCmd.PersistentFlags().String("time-column", "", "Name of the timestamp column (defaults to the first column)")
	rootCmd.PersistentFlags().String("milestone-column", "Milestone", "Name of the optional milestone label column")
	rootCmd.PersistentFlags().Float64("frame-rate", contract.DefaultFrameRate, "Frames per second")
	rootCmd.PersistentFlags().Float64("duration", contract.DefaultDuration, "Animation length in seconds")
	rootCmd.PersistentFlags().IntP("top-n", "n", contract.DefaultTopN, "Number of visible bars per frame")
	rootCmd.PersistentFlags().String("preset", string(schema.FastPreset), "Smoothing preset: fast or slow")
	rootCmd.PersistentFlags().Float64("alpha", 0, "Smoothing blend factor in (0, 1], overrides --preset")
	rootCmd.PersistentFlags().Int("swap-threshold", contract.DefaultSwapThreshold, "Minimum rank change that marks a swap")
	rootCmd.PersistentFlags().Float64("divisor", contract.DefaultDivisor, "Divide displayed values by this unit, e.g. 1e9 for billions")
	rootCmd.PersistentFlags().String("assets-dir", "", "Directory of entity images (e.g. flags) named after the entities")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of renderCmd to Viper
	renderCmd.Flags().Int("every", contract.DefaultEvery, "Only print every Nth frame in text output")
	if err := viper.BindPFlags(renderCmd.Flags()); err != nil {
		contract.LogFatal("Error binding render flags", err)
	}

	// Bind all flags of generateCmd to Viper
	generateCmd.Flags().String("model", contract.DefaultModel, "Model name on the OpenAI-compatible endpoint")
	generateCmd.Flags().String("base-url", contract.DefaultBaseURL, "Base URL of the OpenAI-compatible endpoint")
	generateCmd.Flags().String("api-key", "", "API key for the endpoint (prefer BARRACE_API_KEY)")
	generateCmd.Flags().String("topic", contract.DefaultTopic, "What the values measure")
	generateCmd.Flags().String("entities", "", "Comma-separated entity names")
	generateCmd.Flags().Int("start-year", contract.DefaultStartYear, "First year to acquire")
	generateCmd.Flags().Int("end-year", contract.DefaultEndYear, "Last year to acquire")
	generateCmd.Flags().Int("chunk-years", contract.DefaultChunkYears, "Years requested per chunk")
	generateCmd.Flags().Int("retries", contract.DefaultRetries, "Attempts per chunk before it becomes a gap")
	generateCmd.Flags().String("retry-delay", contract.DefaultRetryDelay.String(), "Delay between attempts")
	if err := viper.BindPFlags(generateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding generate flags", err)
	}

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}
}
