package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/huangsam/barrace/core"
	"github.com/huangsam/barrace/internal/contract"
	"github.com/huangsam/barrace/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// renderResponse is the payload of render_frames.
type renderResponse struct {
	Summary schema.RunSummary   `json:"summary"`
	Frames  []schema.FrameState `json:"frames"`
}

// datasetPath resolves a tool argument the same way the CLI resolves its positional argument.
func datasetPath(request mcp.CallToolRequest, key string) string {
	p := strings.TrimSpace(request.GetString(key, ""))
	if p == "" {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func (h *toolHandler) handleInspectDataset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.DatasetPath = datasetPath(request, "dataset_path")
	if n := request.GetInt("top_n", 0); n > 0 {
		cfg.TopN = n
	}
	if cfg.DatasetPath == "" {
		return mcp.NewToolResultError("dataset_path is required"), nil
	}

	info, err := core.InspectDataset(ctx, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("inspection failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(info, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleRenderFrames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.DatasetPath = datasetPath(request, "dataset_path")
	if n := request.GetInt("top_n", 0); n != 0 {
		cfg.TopN = n
	}
	if d := request.GetFloat("duration", 0); d != 0 {
		cfg.Duration = d
	}
	if r := request.GetFloat("frame_rate", 0); r != 0 {
		cfg.FrameRate = r
	}
	if e := request.GetInt("every", 0); e != 0 {
		cfg.Every = e
	}
	if p := request.GetString("preset", ""); p != "" {
		alpha, ok := schema.PresetAlphas[schema.SmoothingPreset(p)]
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid preset '%s'. must be fast, slow", p)), nil
		}
		cfg.Preset = schema.SmoothingPreset(p)
		cfg.Alpha = alpha
	}

	if err := contract.RevalidateRender(cfg); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid render parameters: %v", err)), nil
	}

	frames, summary, err := core.GetRenderResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("render failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(renderResponse{Summary: summary, Frames: frames}, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGenerateDataset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.DatasetPath = datasetPath(request, "output_path")
	cfg.Entities = nil
	for p := range strings.SplitSeq(request.GetString("entities", ""), ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			cfg.Entities = append(cfg.Entities, trimmed)
		}
	}
	if topic := strings.TrimSpace(request.GetString("topic", "")); topic != "" {
		cfg.Topic = topic
	}
	if y := request.GetInt("start_year", 0); y != 0 {
		cfg.StartYear = y
	}
	if y := request.GetInt("end_year", 0); y != 0 {
		cfg.EndYear = y
	}
	if cfg.StartYear > cfg.EndYear {
		return mcp.NewToolResultError(fmt.Sprintf("start_year (%d) cannot be after end_year (%d)", cfg.StartYear, cfg.EndYear)), nil
	}

	if err := core.ExecuteGenerate(ctx, cfg, h.mgr); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("generation failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("wrote %s", cfg.DatasetPath)), nil
}
