package contract

import (
	"fmt"
	"math"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/barrace/schema"
)

// Default values for configuration.
const (
	DefaultFrameRate     = 60.0
	DefaultDuration      = 30.0
	DefaultTopN          = 10
	MaxTopN              = 100
	DefaultSwapThreshold = 1
	DefaultDivisor       = 1.0
	DefaultPrecision     = 1
	DefaultEvery         = 1
	MaxFrames            = 1_000_000
)

// Default values for dataset acquisition.
const (
	DefaultModel      = "llama3.1"
	DefaultBaseURL    = "http://localhost:11434/v1"
	DefaultStartYear  = 1960
	DefaultEndYear    = 2024
	DefaultChunkYears = 5
	DefaultRetries    = 3
	DefaultRetryDelay = 2 * time.Second
	DefaultTopic      = "GDP in US dollars"
)

// DefaultWorkers is the default number of concurrent acquisition workers.
var DefaultWorkers = min(4, runtime.GOMAXPROCS(0))

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Config holds the runtime configuration.
// This struct remains the "final, validated" config.
type Config struct {
	DatasetPath     string
	TimeColumn      string
	MilestoneColumn string
	Milestones      []schema.Milestone // From the config file, override column entries

	FrameRate     float64
	Duration      float64
	TopN          int
	Preset        schema.SmoothingPreset
	Alpha         float64
	SwapThreshold int
	Divisor       float64 // value_unit_divisor for display scaling
	Precision     int
	Every         int // Only every Nth frame is written by the table writer
	Output        schema.OutputMode
	OutputFile    string
	Width         int // Terminal width override (0 = auto-detect)
	AssetsDir     string

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	RunBackend   schema.DatabaseBackend
	RunDBConnect string // Please use env var as this is plaintext

	Model      string
	BaseURL    string
	APIKey     string // Please use env var as this is plaintext
	Topic      string
	Entities   []string
	StartYear  int
	EndYear    int
	ChunkYears int
	Workers    int
	Retries    int
	RetryDelay time.Duration

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	DatasetPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	OutputFile     string `mapstructure:"output-file"`
	Output         string `mapstructure:"output"`
	Precision      int    `mapstructure:"precision"`
	Width          int    `mapstructure:"width"`
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`
	RunBackend     string `mapstructure:"run-backend"`
	RunDBConnect   string `mapstructure:"run-db-connect"`
	Emoji          string `mapstructure:"emoji"`
	Color          string `mapstructure:"color"`

	// --- Fields from renderCmd.Flags() ---
	TimeColumn      string  `mapstructure:"time-column"`
	MilestoneColumn string  `mapstructure:"milestone-column"`
	FrameRate       float64 `mapstructure:"frame-rate"`
	Duration        float64 `mapstructure:"duration"`
	TopN            int     `mapstructure:"top-n"`
	Preset          string  `mapstructure:"preset"`
	Alpha           float64 `mapstructure:"alpha"`
	SwapThreshold   int     `mapstructure:"swap-threshold"`
	Divisor         float64 `mapstructure:"divisor"`
	Every           int     `mapstructure:"every"`
	AssetsDir       string  `mapstructure:"assets-dir"`

	// --- Fields from generateCmd.Flags() ---
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base-url"`
	APIKey     string `mapstructure:"api-key"`
	Topic      string `mapstructure:"topic"`
	Entities   string `mapstructure:"entities"`
	StartYear  int    `mapstructure:"start-year"`
	EndYear    int    `mapstructure:"end-year"`
	ChunkYears int    `mapstructure:"chunk-years"`
	Workers    int    `mapstructure:"workers"`
	Retries    int    `mapstructure:"retries"`
	RetryDelay string `mapstructure:"retry-delay"`

	// --- Milestones from config file, keyed by timestamp ---
	Milestones map[string]string `mapstructure:"milestones"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Milestones = slices.Clone(c.Milestones)
	clone.Entities = slices.Clone(c.Entities)
	return &clone
}

// FrameCount returns the number of frames to emit, at least 1.
func (c *Config) FrameCount() int {
	return max(1, int(math.Round(c.Duration*c.FrameRate)))
}

// Params returns the config values worth recording with a render run.
func (c *Config) Params() map[string]any {
	params := map[string]any{
		"frame_rate":     c.FrameRate,
		"duration":       c.Duration,
		"top_n":          c.TopN,
		"alpha":          c.Alpha,
		"swap_threshold": c.SwapThreshold,
		"divisor":        c.Divisor,
		"milestones":     len(c.Milestones),
	}
	if c.Preset != "" {
		params["preset"] = string(c.Preset)
	}
	return params
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processAnimation(cfg, input); err != nil {
		return err
	}
	if err := processMilestones(cfg, input); err != nil {
		return err
	}
	if err := processAcquisition(cfg, input); err != nil {
		return err
	}
	return resolveDatasetPath(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and run history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- Run History Backend Validation ---
	cfg.RunBackend = schema.DatabaseBackend(strings.ToLower(input.RunBackend))
	if cfg.RunBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.RunBackend]; !ok {
		return fmt.Errorf("invalid run backend '%s'. must be sqlite, mysql, postgresql, none", input.RunBackend)
	}
	cfg.RunDBConnect = input.RunDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RunBackend, cfg.RunDBConnect); err != nil {
		return err
	}

	// Both stores create their own tables, so two SQLite stores must not share a file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.RunBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		runDBPath := cfg.RunDBConnect
		if runDBPath == "" {
			runDBPath = GetRunDBFilePath()
		}
		if cacheDBPath == runDBPath {
			return fmt.Errorf("cache and run storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates output related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.AssetsDir = input.AssetsDir
	cfg.TimeColumn = strings.TrimSpace(input.TimeColumn)
	cfg.MilestoneColumn = strings.TrimSpace(input.MilestoneColumn)
	if cfg.MilestoneColumn == "" {
		cfg.MilestoneColumn = "Milestone"
	}

	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Precision < 0 || input.Precision > 3 {
		return fmt.Errorf("precision must be between 0 and 3 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	if input.Every < 1 {
		return fmt.Errorf("every must be at least 1 (received %d)", input.Every)
	}
	cfg.Every = input.Every

	return validateBackendConfigs(cfg, input)
}

// processAnimation validates timing, ranking and smoothing options.
func processAnimation(cfg *Config, input *ConfigRawInput) error {
	if input.FrameRate <= 0 {
		return fmt.Errorf("frame-rate must be greater than 0 (received %v)", input.FrameRate)
	}
	if input.Duration <= 0 {
		return fmt.Errorf("duration must be greater than 0 (received %v)", input.Duration)
	}
	cfg.FrameRate = input.FrameRate
	cfg.Duration = input.Duration
	if frames := cfg.FrameCount(); frames > MaxFrames {
		return fmt.Errorf("duration x frame-rate yields %d frames, cannot exceed %d", frames, MaxFrames)
	}

	// Larger values are clamped to the entity count once the dataset is known
	if input.TopN <= 0 || input.TopN > MaxTopN {
		return fmt.Errorf("top-n must be greater than 0 and cannot exceed %d (received %d)", MaxTopN, input.TopN)
	}
	cfg.TopN = input.TopN

	// An explicit alpha wins over the preset
	cfg.Preset = schema.SmoothingPreset(strings.ToLower(strings.TrimSpace(input.Preset)))
	switch {
	case input.Alpha != 0:
		if input.Alpha < 0 || input.Alpha > 1 {
			return fmt.Errorf("alpha must be in (0, 1] (received %v)", input.Alpha)
		}
		cfg.Alpha = input.Alpha
		cfg.Preset = ""
	case cfg.Preset == "":
		cfg.Preset = schema.FastPreset
		cfg.Alpha = schema.FastAlpha
	default:
		alpha, ok := schema.PresetAlphas[cfg.Preset]
		if !ok {
			return fmt.Errorf("invalid preset '%s'. must be fast, slow", input.Preset)
		}
		cfg.Alpha = alpha
	}

	if input.SwapThreshold < 1 {
		return fmt.Errorf("swap-threshold must be at least 1 (received %d)", input.SwapThreshold)
	}
	cfg.SwapThreshold = input.SwapThreshold

	if input.Divisor <= 0 || math.IsInf(input.Divisor, 0) || math.IsNaN(input.Divisor) {
		return fmt.Errorf("divisor must be a positive number (received %v)", input.Divisor)
	}
	cfg.Divisor = input.Divisor
	return nil
}

// processMilestones converts the config file milestone map into a sorted list.
func processMilestones(cfg *Config, input *ConfigRawInput) error {
	cfg.Milestones = nil
	for key, label := range input.Milestones {
		ts, err := strconv.ParseFloat(strings.TrimSpace(key), 64)
		if err != nil {
			return fmt.Errorf("invalid milestone timestamp '%s': %w", key, err)
		}
		cfg.Milestones = append(cfg.Milestones, schema.Milestone{Timestamp: ts, Label: strings.TrimSpace(label)})
	}
	slices.SortFunc(cfg.Milestones, func(a, b schema.Milestone) int {
		switch {
		case a.Timestamp < b.Timestamp:
			return -1
		case a.Timestamp > b.Timestamp:
			return 1
		default:
			return 0
		}
	})
	return nil
}

// processAcquisition validates the generation settings.
func processAcquisition(cfg *Config, input *ConfigRawInput) error {
	cfg.Model = strings.TrimSpace(input.Model)
	cfg.BaseURL = strings.TrimSpace(input.BaseURL)
	cfg.APIKey = input.APIKey
	cfg.Topic = strings.TrimSpace(input.Topic)

	cfg.Entities = nil
	seen := make(map[string]struct{})
	for p := range strings.SplitSeq(input.Entities, ",") {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			return fmt.Errorf("entity %q is listed more than once in entities", trimmed)
		}
		seen[trimmed] = struct{}{}
		cfg.Entities = append(cfg.Entities, trimmed)
	}

	if input.StartYear > input.EndYear {
		return fmt.Errorf("start-year (%d) cannot be after end-year (%d)", input.StartYear, input.EndYear)
	}
	cfg.StartYear = input.StartYear
	cfg.EndYear = input.EndYear

	if input.ChunkYears < 1 {
		return fmt.Errorf("chunk-years must be at least 1 (received %d)", input.ChunkYears)
	}
	cfg.ChunkYears = input.ChunkYears

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Retries < 1 {
		return fmt.Errorf("retries must be at least 1 (received %d)", input.Retries)
	}
	cfg.Retries = input.Retries

	cfg.RetryDelay = DefaultRetryDelay
	if input.RetryDelay != "" {
		d, err := time.ParseDuration(input.RetryDelay)
		if err != nil {
			return fmt.Errorf("invalid retry-delay: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("retry-delay cannot be negative (received %s)", d)
		}
		cfg.RetryDelay = d
	}
	return nil
}

// resolveDatasetPath makes the positional dataset path absolute.
// Existence is checked by the loader, which owns the unavailable error.
func resolveDatasetPath(cfg *Config, input *ConfigRawInput) error {
	if input.DatasetPathStr == "" {
		cfg.DatasetPath = ""
		return nil
	}
	abs, err := filepath.Abs(input.DatasetPathStr)
	if err != nil {
		return err
	}
	cfg.DatasetPath = filepath.Clean(abs)
	return nil
}

// RevalidateRender re-checks the render options after a caller such as the
// MCP server overrode them on a validated config.
func RevalidateRender(cfg *Config) error {
	if cfg.DatasetPath == "" {
		return fmt.Errorf("dataset_path is required")
	}
	if cfg.FrameRate <= 0 || cfg.Duration <= 0 {
		return fmt.Errorf("frame-rate and duration must be greater than 0")
	}
	if frames := cfg.FrameCount(); frames > MaxFrames {
		return fmt.Errorf("duration x frame-rate yields %d frames, cannot exceed %d", frames, MaxFrames)
	}
	if cfg.TopN <= 0 || cfg.TopN > MaxTopN {
		return fmt.Errorf("top-n must be greater than 0 and cannot exceed %d (received %d)", MaxTopN, cfg.TopN)
	}
	if cfg.Every < 1 {
		return fmt.Errorf("every must be at least 1 (received %d)", cfg.Every)
	}
	if cfg.Alpha <= 0 || cfg.Alpha > 1 {
		return fmt.Errorf("alpha must be in (0, 1] (received %v)", cfg.Alpha)
	}
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
