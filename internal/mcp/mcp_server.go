// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/binforecast/core"
	"github.com/huangsam/binforecast/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// NewMCPServer initializes and configures the forecast MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(eng *core.Engine, baseCfg *contract.Config, logger *zap.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"Bin Forecast Server",
		"1.0.0",
		server.WithLogging(),
	)

	if logger == nil {
		logger = zap.NewNop()
	}
	h := &toolHandler{
		eng:     eng,
		baseCfg: baseCfg,
		logger:  logger,
	}

	// --- 1. Tool: get_forecast ---
	s.AddTool(mcp.NewTool("get_forecast",
		mcp.WithDescription("Forecast waste volume and overflow risk of every barangay for the day after the reference date, ranked by volume."),
		mcp.WithString("date", mcp.Description("Reference date as YYYY-MM-DD (defaults to today).")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of districts returned.")),
	), h.handleGetForecast)

	// --- 2. Tool: get_forecast_range ---
	s.AddTool(mcp.NewTool("get_forecast_range",
		mcp.WithDescription("Summarize the forecast of each of the next days, starting tomorrow."),
		mcp.WithNumber("days", mcp.Description("Number of days to forecast (1-31)."), mcp.Required()),
		mcp.WithString("date", mcp.Description("Reference date of the first day as YYYY-MM-DD (defaults to today).")),
	), h.handleGetForecastRange)

	// --- 3. Tool: get_model_metrics ---
	s.AddTool(mcp.NewTool("get_model_metrics",
		mcp.WithDescription("Report evaluation metrics and feature importance of the forecasting model."),
		mcp.WithBoolean("force", mcp.Description("Fetch from the model service even when cached metrics are fresh.")),
	), h.handleGetModelMetrics)

	// --- 4. Tool: get_summary ---
	s.AddTool(mcp.NewTool("get_summary",
		mcp.WithDescription("Aggregate the forecast into risk counts, volume totals and top districts."),
		mcp.WithString("date", mcp.Description("Reference date as YYYY-MM-DD (defaults to today).")),
		mcp.WithNumber("limit", mcp.Description("Number of top districts by volume.")),
	), h.handleGetSummary)

	// --- 5. Tool: get_district_forecast ---
	s.AddTool(mcp.NewTool("get_district_forecast",
		mcp.WithDescription("Forecast a single barangay with its contributing factors."),
		mcp.WithString("district_id", mcp.Description("District id or name."), mcp.Required()),
		mcp.WithString("date", mcp.Description("Reference date as YYYY-MM-DD (defaults to today).")),
	), h.handleGetDistrictForecast)

	return s
}

// StartMCPServer starts the forecast MCP server on stdio.
func StartMCPServer(_ context.Context, eng *core.Engine, baseCfg *contract.Config, logger *zap.Logger) error {
	s := NewMCPServer(eng, baseCfg, logger)
	return server.ServeStdio(s)
}
