package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// Transition represents how an entity's rank changed between frames.
	Transition string

	// SmoothingPreset names a blend factor configuration.
	SmoothingPreset string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string
)

// All output modes supported.
const (
	TextOut    OutputMode = "text" // default
	CSVOut     OutputMode = "csv"
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All transitions produced by the transition controller.
const (
	EnterTransition  Transition = "enter"
	ExitTransition   Transition = "exit"
	SwapTransition   Transition = "swap"
	StableTransition Transition = "stable"
)

// All smoothing presets supported.
const (
	FastPreset SmoothingPreset = "fast" // default
	SlowPreset SmoothingPreset = "slow"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Blend factors for the smoothing presets.
const (
	FastAlpha = 0.5
	SlowAlpha = 0.2
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:    {},
	CSVOut:     {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid cache backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// PresetAlphas maps each smoothing preset to its blend factor.
var PresetAlphas = map[SmoothingPreset]float64{
	FastPreset: FastAlpha,
	SlowPreset: SlowAlpha,
}
