// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/barrace/schema"
)

// ChunkGenerator produces the rows of one span of years.
// This allows acquisition to be tested without a live model endpoint.
type ChunkGenerator interface {
	// Generate returns one row per year of the request or an error.
	// Errors are treated as transient and retried by the caller.
	Generate(ctx context.Context, req schema.ChunkRequest) ([]schema.ChunkRow, error)

	// Name identifies the generator (model name) for cache keys.
	Name() string
}

// AssetLookup resolves the decoration of an entity, e.g. a flag image.
type AssetLookup interface {
	// Lookup returns the asset path for the entity, or "" for the invisible placeholder.
	Lookup(entityID string) string
}

// FrameSink consumes the frame stream in order.
type FrameSink interface {
	WriteFrame(frame schema.FrameState) error
}

// FrameSinkFunc adapts a function to FrameSink.
type FrameSinkFunc func(frame schema.FrameState) error

// WriteFrame calls f(frame).
func (f FrameSinkFunc) WriteFrame(frame schema.FrameState) error {
	return f(frame)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetChunkStore() CacheStore
	GetRunStore() RunStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// RunStore defines the interface for tracking render runs and their notable frames.
type RunStore interface {
	// BeginRun creates a new render run and returns its unique ID
	BeginRun(startTime time.Time, datasetPath string, configParams map[string]any) (int64, error)

	// EndRun updates the render run with completion data
	EndRun(runID int64, endTime time.Time, totalFrames int) error

	// RecordFrame stores one notable frame of a run
	RecordFrame(runID int64, record schema.FrameLogRecord) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// GetAllRuns retrieves all render runs, oldest first
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllFrameLogs retrieves all logged frames ordered by run and frame index
	GetAllFrameLogs() ([]schema.FrameLogRecord, error)

	// Close closes the underlying connection
	Close() error
}
