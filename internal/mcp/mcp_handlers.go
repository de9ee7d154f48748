package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/binforecast/core"
	"github.com/huangsam/binforecast/core/algo"
	"github.com/huangsam/binforecast/internal/contract"
	"github.com/huangsam/binforecast/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// defaultSummaryTop is the number of top districts in a summary without a limit.
const defaultSummaryTop = 5

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	eng     *core.Engine
	baseCfg *contract.Config
	logger  *zap.Logger
}

// forecastResponse is the payload of get_forecast.
type forecastResponse struct {
	RunID          string                      `json:"run_id"`
	ReferenceDate  string                      `json:"reference_date"`
	ForecastDate   string                      `json:"forecast_date"`
	Source         schema.ForecastSource       `json:"source"`
	Endpoint       string                      `json:"endpoint,omitempty"`
	GeneratedAt    time.Time                   `json:"generated_at"`
	TotalDistricts int                         `json:"total_districts"`
	Predictions    []schema.EnrichedPrediction `json:"predictions"`
}

// metricsResponse is the payload of get_model_metrics.
type metricsResponse struct {
	Endpoint string `json:"endpoint,omitempty"`
	*schema.ModelMetrics
}

// jsonResult marshals v into a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// referenceDate reads the optional date argument.
func referenceDate(request mcp.CallToolRequest) (time.Time, error) {
	return contract.ParseReferenceDate(request.GetString("date", ""))
}

// warnRecording logs a history failure; tool results are still returned.
func (h *toolHandler) warnRecording(err error) {
	if err != nil {
		h.logger.Warn("failed to record forecast history", zap.Error(err))
	}
}

func (h *toolHandler) handleGetForecast(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := referenceDate(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid forecast parameters: %v", err)), nil
	}
	limit := request.GetInt("limit", 0)
	if limit < 0 || limit > contract.MaxResultLimit {
		return mcp.NewToolResultError(fmt.Sprintf("limit must be between 0 and %d", contract.MaxResultLimit)), nil
	}

	result, recErr := h.eng.ForecastForDate(ctx, date)
	h.warnRecording(recErr)

	return jsonResult(forecastResponse{
		RunID:          result.RunID,
		ReferenceDate:  result.ReferenceDate,
		ForecastDate:   result.ForecastDate,
		Source:         result.Source,
		Endpoint:       result.Endpoint,
		GeneratedAt:    result.GeneratedAt,
		TotalDistricts: len(result.Predictions),
		Predictions:    algo.Enrich(result.Predictions, h.eng.Districts(), limit),
	})
}

func (h *toolHandler) handleGetForecastRange(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if err := contract.RevalidateDays(cfg, request.GetInt("days", 0)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid range parameters: %v", err)), nil
	}
	date, err := referenceDate(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid range parameters: %v", err)), nil
	}

	results, recErr := h.eng.ForecastRange(ctx, date, cfg.Days)
	if len(results) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("forecast range failed: %v", recErr)), nil
	}
	h.warnRecording(recErr)

	days := make([]schema.RangeDay, 0, len(results))
	for _, result := range results {
		days = append(days, schema.RangeDay{
			RunID:           result.RunID,
			Source:          result.Source,
			ForecastSummary: algo.Summarize(result.Predictions, h.eng.Districts(), defaultSummaryTop),
		})
	}
	return jsonResult(days)
}

func (h *toolHandler) handleGetModelMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metrics := h.eng.Metrics(ctx, request.GetBool("force", false))
	return jsonResult(metricsResponse{
		Endpoint:     h.eng.Forecaster().ActiveEndpoint(),
		ModelMetrics: metrics,
	})
}

func (h *toolHandler) handleGetSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := referenceDate(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid summary parameters: %v", err)), nil
	}
	top := request.GetInt("limit", defaultSummaryTop)
	if top < 1 {
		top = defaultSummaryTop
	}

	result, recErr := h.eng.ForecastForDate(ctx, date)
	h.warnRecording(recErr)
	return jsonResult(algo.Summarize(result.Predictions, h.eng.Districts(), top))
}

func (h *toolHandler) handleGetDistrictForecast(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := referenceDate(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid district parameters: %v", err)), nil
	}

	key := request.GetString("district_id", "")
	if key == "" {
		return mcp.NewToolResultError("district_id is required"), nil
	}

	p, err := core.DistrictForecast(ctx, h.eng, key, date)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("district forecast failed: %v", err)), nil
	}
	return jsonResult(p)
}
