// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/barrace/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the barrace MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Bar Chart Race Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: inspect_dataset ---
	s.AddTool(mcp.NewTool("inspect_dataset",
		mcp.WithDescription("Load a CSV dataset and report its entities, time range, milestones, gaps and final standings."),
		mcp.WithString("dataset_path", mcp.Description("Path to the CSV dataset."), mcp.Required()),
		mcp.WithNumber("top_n", mcp.Description("Number of entities in the final standings.")),
	), h.handleInspectDataset)

	// --- 2. Tool: render_frames ---
	s.AddTool(mcp.NewTool("render_frames",
		mcp.WithDescription("Render a dataset into ranked animation frames and return a sample of them with a run summary."),
		mcp.WithString("dataset_path", mcp.Description("Path to the CSV dataset."), mcp.Required()),
		mcp.WithNumber("top_n", mcp.Description("Number of visible bars per frame.")),
		mcp.WithNumber("duration", mcp.Description("Animation length in seconds.")),
		mcp.WithNumber("frame_rate", mcp.Description("Frames per second.")),
		mcp.WithNumber("every", mcp.Description("Return only every Nth frame. Milestone changes and the final frame are always returned.")),
		mcp.WithString("preset", mcp.Description("Smoothing preset (fast, slow)."), mcp.Enum("fast", "slow")),
	), h.handleRenderFrames)

	// --- 3. Tool: generate_dataset ---
	s.AddTool(mcp.NewTool("generate_dataset",
		mcp.WithDescription("Ask the configured model endpoint for a yearly dataset and write it as CSV."),
		mcp.WithString("output_path", mcp.Description("Where to write the CSV dataset."), mcp.Required()),
		mcp.WithString("entities", mcp.Description("Comma-separated entity names."), mcp.Required()),
		mcp.WithString("topic", mcp.Description("What the values measure, e.g. 'GDP in US dollars'.")),
		mcp.WithNumber("start_year", mcp.Description("First year of the dataset.")),
		mcp.WithNumber("end_year", mcp.Description("Last year of the dataset.")),
	), h.handleGenerateDataset)

	return s
}

// StartMCPServer starts the barrace MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
