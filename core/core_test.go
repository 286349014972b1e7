package core

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/barrace/internal/acquire"
	"github.com/huangsam/barrace/internal/contract"
	"github.com/huangsam/barrace/internal/iocache"
	"github.com/huangsam/barrace/internal/loader"
	"github.com/huangsam/barrace/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Year,USA,China,Milestone
2000,10,5,
2001,12,14,Boom
2002,15,20,
`

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gdp.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
	return path
}

func renderConfig(datasetPath string) *contract.Config {
	return &contract.Config{
		DatasetPath:     datasetPath,
		MilestoneColumn: "Milestone",
		FrameRate:       10,
		Duration:        1,
		TopN:            2,
		Alpha:           schema.FastAlpha,
		SwapThreshold:   1,
		Divisor:         1,
		Every:           1,
		Workers:         2,
		Output:          schema.JSONOut,
	}
}

func TestExecuteRender(t *testing.T) {
	cfg := renderConfig(writeDataset(t))
	cfg.OutputFile = filepath.Join(t.TempDir(), "frames.jsonl")

	store := &iocache.MockRunStore{}
	store.On("BeginRun", mock.Anything, cfg.DatasetPath, mock.Anything).Return(int64(3), nil)
	store.On("RecordFrame", int64(3), mock.Anything).Return(nil)
	store.On("EndRun", int64(3), mock.Anything, 10).Return(nil)

	mgr := &iocache.MockCacheManager{}
	mgr.On("GetRunStore").Return(store)

	require.NoError(t, ExecuteRender(WithSuppressHeader(context.Background()), cfg, mgr))

	f, err := os.Open(cfg.OutputFile)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	var frames []schema.FrameState
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var frame schema.FrameState
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &frame))
		frames = append(frames, frame)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, frames, 10)

	assert.Equal(t, "USA", frames[0].Entries[0].EntityID)
	assert.Equal(t, "China", frames[9].Entries[0].EntityID)
	assert.InDelta(t, 2002, frames[9].Timestamp, 1e-9)
	assert.Equal(t, "Boom", frames[9].MilestoneLabel)

	store.AssertExpectations(t)
	mgr.AssertExpectations(t)
}

func TestExecuteRenderErrors(t *testing.T) {
	t.Run("missing dataset", func(t *testing.T) {
		cfg := renderConfig(filepath.Join(t.TempDir(), "missing.csv"))
		err := ExecuteRender(context.Background(), cfg, nil)
		assert.ErrorIs(t, err, schema.ErrDatasetUnavailable)
	})

	t.Run("no dataset path", func(t *testing.T) {
		err := ExecuteRender(context.Background(), renderConfig(""), nil)
		assert.ErrorIs(t, err, schema.ErrDatasetUnavailable)
	})

	t.Run("cancelled", func(t *testing.T) {
		cfg := renderConfig(writeDataset(t))
		cfg.OutputFile = filepath.Join(t.TempDir(), "frames.jsonl")
		ctx, cancel := context.WithCancel(WithSuppressHeader(context.Background()))
		cancel()
		err := ExecuteRender(ctx, cfg, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestInspectDataset(t *testing.T) {
	cfg := renderConfig(writeDataset(t))
	cfg.TopN = 1

	info, err := InspectDataset(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"USA", "China"}, info.Entities)
	assert.Equal(t, 3, info.Timestamps)
	assert.Equal(t, 6, info.Points)
	assert.InDelta(t, 2000, info.Start, 1e-9)
	assert.InDelta(t, 2002, info.End, 1e-9)
	assert.Equal(t, 10, info.Frames)
	require.Len(t, info.Milestones, 1)
	assert.Equal(t, "Boom", info.Milestones[0].Label)
	require.Len(t, info.FinalStanding, 1)
	assert.Equal(t, "China", info.FinalStanding[0].EntityID)
	assert.InDelta(t, 20, info.FinalStanding[0].Value, 1e-9)
	assert.Empty(t, info.AssetProblems)
}

func TestExecuteInspect(t *testing.T) {
	cfg := renderConfig(writeDataset(t))
	cfg.OutputFile = filepath.Join(t.TempDir(), "info.json")
	require.NoError(t, ExecuteInspect(context.Background(), cfg, nil))

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var info schema.DatasetInfo
	require.NoError(t, json.Unmarshal(data, &info))
	assert.Equal(t, 3, info.Timestamps)
}

func chunkRows(req schema.ChunkRequest) []schema.ChunkRow {
	var rows []schema.ChunkRow
	for year := req.StartYear; year <= req.EndYear; year++ {
		values := make(map[string]float64, len(req.Entities))
		for i, id := range req.Entities {
			values[id] = float64(100*(i+1) + year - 2000)
		}
		rows = append(rows, schema.ChunkRow{Year: year, Values: values})
	}
	return rows
}

func generateConfig(path string) *contract.Config {
	return &contract.Config{
		DatasetPath: path,
		Topic:       "GDP",
		Entities:    []string{"USA", "China"},
		StartYear:   2000,
		EndYear:     2003,
		ChunkYears:  2,
		Workers:     2,
		Retries:     1,
	}
}

func TestGenerateDataset(t *testing.T) {
	cfg := generateConfig(filepath.Join(t.TempDir(), "gdp.csv"))
	reqs := acquire.SplitChunks(cfg.Topic, cfg.Entities, cfg.StartYear, cfg.EndYear, cfg.ChunkYears)
	require.Len(t, reqs, 2)

	gen := &acquire.MockChunkGenerator{}
	gen.On("Name").Return("test-model")
	gen.On("Generate", mock.Anything, reqs[0]).Return(chunkRows(reqs[0]), nil)
	gen.On("Generate", mock.Anything, reqs[1]).Return(nil, errors.New("rate limited"))

	require.NoError(t, generateDataset(context.Background(), cfg, gen, nil))

	ds, err := loader.LoadFile(cfg.DatasetPath, loader.Options{MilestoneColumn: "Milestone"})
	require.NoError(t, err)
	assert.Equal(t, []string{"USA", "China"}, ds.Entities)
	assert.Len(t, ds.Series["USA"], 2)
	require.Len(t, ds.Gaps, 1)
	assert.InDelta(t, 2002, ds.Gaps[0].Start, 1e-9)
	assert.InDelta(t, 2003, ds.Gaps[0].End, 1e-9)
	gen.AssertExpectations(t)
}

func TestGenerateDatasetAllChunksFail(t *testing.T) {
	cfg := generateConfig(filepath.Join(t.TempDir(), "gdp.csv"))
	gen := &acquire.MockChunkGenerator{}
	gen.On("Name").Return("test-model")
	gen.On("Generate", mock.Anything, mock.Anything).Return(nil, errors.New("offline"))

	err := generateDataset(context.Background(), cfg, gen, nil)
	assert.ErrorIs(t, err, schema.ErrDatasetUnavailable)
	assert.NoFileExists(t, cfg.DatasetPath)
}

func TestGenerateDatasetRejectsDuplicateEntities(t *testing.T) {
	cfg := generateConfig(filepath.Join(t.TempDir(), "gdp.csv"))
	cfg.Entities = []string{"USA", "USA"}
	gen := &acquire.MockChunkGenerator{}
	gen.On("Name").Return("test-model")
	for _, req := range acquire.SplitChunks(cfg.Topic, cfg.Entities, cfg.StartYear, cfg.EndYear, cfg.ChunkYears) {
		gen.On("Generate", mock.Anything, req).Return(chunkRows(req), nil)
	}

	err := generateDataset(context.Background(), cfg, gen, nil)
	assert.ErrorIs(t, err, schema.ErrInvalidDataset)
	assert.NoFileExists(t, cfg.DatasetPath)
}

func TestExecuteGenerateValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  *contract.Config
		want string
	}{
		{"no path", &contract.Config{Entities: []string{"USA"}}, "output dataset path"},
		{"no entities", &contract.Config{DatasetPath: "gdp.csv"}, "--entities"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ExecuteGenerate(context.Background(), tt.cfg, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
