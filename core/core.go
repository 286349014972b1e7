// Package core has core logic for interpolation, ranking and frame emission.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/barrace/core/algo"
	"github.com/huangsam/barrace/internal/acquire"
	"github.com/huangsam/barrace/internal/assets"
	"github.com/huangsam/barrace/internal/contract"
	"github.com/huangsam/barrace/internal/loader"
	"github.com/huangsam/barrace/internal/outwriter"
	"github.com/huangsam/barrace/schema"
)

// ExecutorFunc defines the function signature for executing the different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteRender loads the dataset, streams every frame into the configured
// writer and prints a run summary to stderr.
func ExecuteRender(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	ds, err := loadDataset(cfg)
	if err != nil {
		return err
	}
	lookup, err := scanAssets(ctx, cfg, ds)
	if err != nil {
		return err
	}
	if !shouldSuppressHeader(ctx) {
		outwriter.LogRenderHeader(os.Stderr, cfg, ds)
	}

	summary, err := renderFrames(ctx, cfg, ds, lookup, runStoreOf(mgr))
	if err != nil {
		return err
	}
	contract.LogInfo(cfg, "⏱️", fmt.Sprintf("Rendered %d frames in %s", summary.Frames, time.Since(start).Round(time.Millisecond)))
	return outwriter.PrintRunSummary(os.Stderr, summary, cfg)
}

// renderFrames runs the emitter into the configured output with optional run tracking.
func renderFrames(ctx context.Context, cfg *contract.Config, ds schema.Dataset, lookup contract.AssetLookup, store contract.RunStore) (schema.RunSummary, error) {
	ctx = beginRunTracking(ctx, cfg, store)

	var summary schema.RunSummary
	err := outwriter.WriteWithFile(cfg, cfg.OutputFile, func(w io.Writer) error {
		fw, err := outwriter.NewFrameWriter(cfg, w)
		if err != nil {
			return err
		}
		sink := newTrackingSink(ctx, store, fw)
		summary, err = Run(ctx, ds, emitterOptions(cfg, lookup), sink)
		if closeErr := fw.Close(); err == nil {
			err = closeErr
		}
		return err
	}, "Wrote frames")

	endRunTracking(ctx, store, summary.Frames)
	return summary, err
}

// GetRenderResults renders into memory. Only every Nth frame and the frames
// where the milestone changes are kept; the final frame is always kept.
func GetRenderResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) ([]schema.FrameState, schema.RunSummary, error) {
	ds, err := loadDataset(cfg)
	if err != nil {
		return nil, schema.RunSummary{}, err
	}
	lookup, err := scanAssets(ctx, cfg, ds)
	if err != nil {
		return nil, schema.RunSummary{}, err
	}

	store := runStoreOf(mgr)
	ctx = beginRunTracking(ctx, cfg, store)
	every := max(1, cfg.Every)
	var (
		kept []schema.FrameState
		last schema.FrameState
	)
	collector := contract.FrameSinkFunc(func(frame schema.FrameState) error {
		if frame.FrameIndex%every == 0 || frame.MilestoneChanged {
			kept = append(kept, frame)
		}
		last = frame
		return nil
	})
	summary, err := Run(ctx, ds, emitterOptions(cfg, lookup), newTrackingSink(ctx, store, collector))
	endRunTracking(ctx, store, summary.Frames)
	if err != nil {
		return nil, summary, err
	}
	if len(kept) > 0 && kept[len(kept)-1].FrameIndex != last.FrameIndex {
		kept = append(kept, last)
	}
	return kept, summary, nil
}

// ExecuteInspect prints what a render of the dataset would work with.
func ExecuteInspect(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	info, err := InspectDataset(ctx, cfg)
	if err != nil {
		return err
	}
	return outwriter.WriteWithFile(cfg, cfg.OutputFile, func(w io.Writer) error {
		return outwriter.PrintDatasetInfo(w, info, cfg)
	}, "Wrote dataset info")
}

// InspectDataset loads and validates the dataset without emitting frames.
func InspectDataset(ctx context.Context, cfg *contract.Config) (schema.DatasetInfo, error) {
	ds, err := loadDataset(cfg)
	if err != nil {
		return schema.DatasetInfo{}, err
	}
	interp, err := algo.NewInterpolator(ds)
	if err != nil {
		return schema.DatasetInfo{}, err
	}
	lo, hi := interp.Bounds()

	info := schema.DatasetInfo{
		Path:          cfg.DatasetPath,
		Entities:      ds.Entities,
		Timestamps:    len(ds.Timestamps()),
		Points:        ds.PointCount(),
		Start:         lo,
		End:           hi,
		Frames:        cfg.FrameCount(),
		Milestones:    ds.Milestones,
		Gaps:          ds.Gaps,
		Warnings:      ds.Warnings,
		FinalStanding: algo.SelectTop(interp.Entities(), interp.At(hi), algo.ClampTopN(cfg.TopN, len(ds.Entities))),
	}
	if cfg.AssetsDir != "" {
		lookup := assets.New(cfg.AssetsDir)
		if err := lookup.Scan(ctx, ds.Entities, cfg.Workers); err != nil {
			return schema.DatasetInfo{}, err
		}
		info.AssetProblems = lookup.Problems()
	}
	return info, nil
}

// ExecuteGenerate acquires a dataset from the configured model endpoint and
// writes it as CSV to the dataset path.
func ExecuteGenerate(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	if cfg.DatasetPath == "" {
		return errors.New("an output dataset path is required")
	}
	if len(cfg.Entities) == 0 {
		return errors.New("--entities is required")
	}
	return generateDataset(ctx, cfg, acquire.NewOpenAIGenerator(cfg), chunkStoreOf(mgr))
}

// generateDataset runs the acquisition pipeline with any generator.
func generateDataset(ctx context.Context, cfg *contract.Config, gen contract.ChunkGenerator, store contract.CacheStore) error {
	start := time.Now()
	reqs := acquire.SplitChunks(cfg.Topic, cfg.Entities, cfg.StartYear, cfg.EndYear, cfg.ChunkYears)
	contract.LogInfo(cfg, "🛰️", fmt.Sprintf("Requesting %d chunks of %q from %s", len(reqs), cfg.Topic, gen.Name()))

	results := acquire.New(cfg, gen, store).Acquire(ctx, reqs)
	if err := ctx.Err(); err != nil {
		return err
	}

	ds := acquire.Assemble(cfg.Entities, results)
	if ds.PointCount() == 0 {
		return fmt.Errorf("%w: no chunk could be acquired", schema.ErrDatasetUnavailable)
	}
	if err := ds.Validate(); err != nil {
		return err
	}
	if err := acquire.WriteFile(cfg.DatasetPath, ds); err != nil {
		return err
	}

	cached := 0
	for _, r := range results {
		if r.Cached {
			cached++
		}
	}
	contract.LogInfo(cfg, "💾", fmt.Sprintf("Wrote %s (%d chunks, %d cached, %d gaps) in %s",
		cfg.DatasetPath, len(results), cached, len(ds.Gaps), time.Since(start).Round(time.Millisecond)))
	return nil
}

// loadDataset reads the configured dataset with the configured milestone overrides.
func loadDataset(cfg *contract.Config) (schema.Dataset, error) {
	if cfg.DatasetPath == "" {
		return schema.Dataset{}, fmt.Errorf("%w: no dataset path given", schema.ErrDatasetUnavailable)
	}
	return loader.LoadFile(cfg.DatasetPath, loader.Options{
		TimeColumn:      cfg.TimeColumn,
		MilestoneColumn: cfg.MilestoneColumn,
		Milestones:      cfg.Milestones,
	})
}

// scanAssets validates every decoration up front so frames never block on decoding.
func scanAssets(ctx context.Context, cfg *contract.Config, ds schema.Dataset) (contract.AssetLookup, error) {
	if cfg.AssetsDir == "" {
		return nil, nil
	}
	lookup := assets.New(cfg.AssetsDir)
	if err := lookup.Scan(ctx, ds.Entities, cfg.Workers); err != nil {
		return nil, err
	}
	return lookup, nil
}

// emitterOptions maps the validated config onto the emitter.
func emitterOptions(cfg *contract.Config, lookup contract.AssetLookup) EmitterOptions {
	return EmitterOptions{
		Frames:        cfg.FrameCount(),
		TopN:          cfg.TopN,
		Alpha:         cfg.Alpha,
		SwapThreshold: cfg.SwapThreshold,
		ValueDivisor:  cfg.Divisor,
		Assets:        lookup,
	}
}

func runStoreOf(mgr contract.CacheManager) contract.RunStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetRunStore()
}

func chunkStoreOf(mgr contract.CacheManager) contract.CacheStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetChunkStore()
}
