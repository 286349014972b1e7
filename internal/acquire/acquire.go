// Package acquire builds race datasets by asking a generator for one span of
// years at a time. Chunks run through a bounded worker pool; a chunk that keeps
// failing after its retries becomes a declared gap instead of failing the load.
package acquire

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/huangsam/barrace/internal/contract"
	"github.com/huangsam/barrace/internal/loader"
	"github.com/huangsam/barrace/schema"
)

// currentCacheVersion defines the version of the cached chunk format
const currentCacheVersion = 1

// ErrLocked means another process is writing the same output file.
var ErrLocked = errors.New("output is locked by another process")

// Acquirer runs chunk requests through a generator.
type Acquirer struct {
	Generator contract.ChunkGenerator
	Policy    RetryPolicy
	Workers   int
	Store     contract.CacheStore // Optional chunk cache
}

// New creates an acquirer from the acquisition settings.
func New(cfg *contract.Config, gen contract.ChunkGenerator, store contract.CacheStore) *Acquirer {
	return &Acquirer{
		Generator: gen,
		Policy:    RetryPolicy{Attempts: cfg.Retries, Delay: cfg.RetryDelay},
		Workers:   cfg.Workers,
		Store:     store,
	}
}

// SplitChunks splits [start, end] into consecutive requests of at most size years.
func SplitChunks(topic string, entities []string, start, end, size int) []schema.ChunkRequest {
	size = max(1, size)
	var out []schema.ChunkRequest
	for from := start; from <= end; from += size {
		out = append(out, schema.ChunkRequest{
			Topic:     topic,
			Entities:  entities,
			StartYear: from,
			EndYear:   min(end, from+size-1),
		})
	}
	return out
}

// Acquire resolves every request with a pool of a.Workers goroutines.
// Results are returned in request order.
func (a *Acquirer) Acquire(ctx context.Context, reqs []schema.ChunkRequest) []schema.ChunkResult {
	type indexed struct {
		idx    int
		req    schema.ChunkRequest
		result schema.ChunkResult
	}
	reqCh := make(chan indexed, len(reqs))
	resultCh := make(chan indexed, len(reqs))
	var wg sync.WaitGroup

	for range max(1, a.Workers) {
		wg.Go(func() {
			for item := range reqCh {
				item.result = a.acquireOne(ctx, item.req)
				resultCh <- item
			}
		})
	}

	for i, r := range reqs {
		reqCh <- indexed{idx: i, req: r}
	}
	close(reqCh)

	wg.Wait()
	close(resultCh)

	results := make([]schema.ChunkResult, len(reqs))
	for item := range resultCh {
		results[item.idx] = item.result
	}
	return results
}

// acquireOne serves a request from the cache or the generator.
func (a *Acquirer) acquireOne(ctx context.Context, req schema.ChunkRequest) schema.ChunkResult {
	key := CacheKey(a.Generator.Name(), req)
	if rows, ok := a.checkCacheHit(key); ok {
		return schema.ChunkResult{Request: req, Rows: rows, Cached: true}
	}

	var rows []schema.ChunkRow
	attempts, err := a.Policy.Do(ctx, func(ctx context.Context) error {
		generated, err := a.Generator.Generate(ctx, req)
		if err != nil {
			return err
		}
		if err := ValidateRows(req, generated); err != nil {
			return err
		}
		rows = generated
		return nil
	})
	if err != nil {
		contract.LogWarn(fmt.Sprintf("Chunk %d-%d unavailable", req.StartYear, req.EndYear), err)
		return schema.ChunkResult{Request: req, Attempts: attempts, Err: err}
	}
	a.store(key, rows)
	return schema.ChunkResult{Request: req, Rows: rows, Attempts: attempts}
}

// CacheKey identifies a chunk by generator, topic, entities and years.
func CacheKey(generator string, req schema.ChunkRequest) string {
	key := fmt.Sprintf("%s:%s:%s:%d:%d",
		generator,
		strings.ToLower(req.Topic),
		strings.Join(req.Entities, ","),
		req.StartYear,
		req.EndYear,
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}

// checkCacheHit attempts to retrieve and validate a cached chunk
func (a *Acquirer) checkCacheHit(key string) ([]schema.ChunkRow, bool) {
	if a.Store == nil {
		return nil, false
	}
	data, version, _, err := a.Store.Get(key)
	if err != nil || version != currentCacheVersion {
		return nil, false
	}
	var rows []schema.ChunkRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func (a *Acquirer) store(key string, rows []schema.ChunkRow) {
	if a.Store == nil {
		return
	}
	data, err := json.Marshal(rows)
	if err != nil {
		contract.LogWarn("Failed to encode chunk for cache", err)
		return
	}
	if err := a.Store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
		contract.LogWarn("Failed to cache chunk", err)
	}
}

// Assemble merges chunk results into a dataset. Failed chunks become gaps.
func Assemble(entities []string, results []schema.ChunkResult) schema.Dataset {
	ds := schema.Dataset{
		Entities: slices.Clone(entities),
		Series:   make(map[string]schema.TimeSeries, len(entities)),
	}
	for _, r := range results {
		if r.Failed() {
			ds.Gaps = append(ds.Gaps, schema.Gap{
				Start:  float64(r.Request.StartYear),
				End:    float64(r.Request.EndYear),
				Reason: r.Err.Error(),
			})
			continue
		}
		for _, row := range r.Rows {
			ts := float64(row.Year)
			for _, id := range entities {
				if v, ok := row.Values[id]; ok {
					ds.Series[id] = append(ds.Series[id], schema.Point{Timestamp: ts, Value: v})
				}
			}
			if row.Milestone != "" {
				ds.Milestones = append(ds.Milestones, schema.Milestone{Timestamp: ts, Label: row.Milestone})
			}
		}
	}
	return ds
}

// WriteCSV writes the dataset as Year, entities..., Milestone with one row per known timestamp.
func WriteCSV(w io.Writer, ds schema.Dataset) error {
	writer := csv.NewWriter(w)
	header := append([]string{"Year"}, ds.Entities...)
	header = append(header, "Milestone")
	if err := writer.Write(header); err != nil {
		return err
	}

	labels := make(map[float64]string, len(ds.Milestones))
	for _, m := range ds.Milestones {
		labels[m.Timestamp] = m.Label
	}
	values := make(map[string]map[float64]float64, len(ds.Entities))
	for _, id := range ds.Entities {
		values[id] = make(map[float64]float64, len(ds.Series[id]))
		for _, p := range ds.Series[id] {
			values[id][p.Timestamp] = p.Value
		}
	}

	for _, ts := range ds.Timestamps() {
		row := make([]string, 0, len(header))
		row = append(row, strconv.FormatFloat(ts, 'f', -1, 64))
		for _, id := range ds.Entities {
			if v, ok := values[id][ts]; ok {
				row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
			} else {
				row = append(row, "")
			}
		}
		row = append(row, labels[ts])
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFile writes the dataset and its gap sidecar under an exclusive lock on path.lock.
func WriteFile(path string, ds schema.Dataset) error {
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLocked, path)
	}
	defer func() { _ = lock.Unlock() }()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, ds); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return loader.WriteGaps(loader.GapsPath(path), ds.Gaps)
}
