package mcp

import (
	"context"
	"fmt"

	"github.com/claude/healthtrends/internal/metrics"
	"github.com/mark3labs/mcp-go/mcp"
)

func metricNames() []string {
	out := make([]string, len(metrics.AllMetrics))
	for i, m := range metrics.AllMetrics {
		out[i] = string(m)
	}
	return out
}

func activityKeys() []string {
	out := make([]string, len(metrics.ActivityLevels))
	for i, l := range metrics.ActivityLevels {
		out[i] = l.Key
	}
	return out
}

// --- Tool definitions ---

var toolGetChart = mcp.NewTool("get_chart",
	mcp.WithDescription("Build the chart series for a metric over a period. Week shows the last 7 days with data, month the last 30 days (thinned when dense), year one mean per month. Includes the target value and a comparison message when a target is set."),
	mcp.WithString("metric", mcp.Required(), mcp.Description("Metric name"), mcp.Enum(metricNames()...)),
	mcp.WithString("period", mcp.Description("Chart period. Defaults to week."), mcp.Enum("week", "month", "year")),
)

var toolGetDerivedMetrics = mcp.NewTool("get_derived_metrics",
	mcp.WithDescription("Compute BMI with its zone, BMR (Mifflin-St Jeor) and the daily calorie projection for each activity level from the profile and latest weight."),
)

var toolGetCalorieTarget = mcp.NewTool("get_calorie_target",
	mcp.WithDescription("Daily calorie target for an activity level and a weekly weight change goal. Uses 7700 kcal per kg of body weight."),
	mcp.WithString("level", mcp.Required(), mcp.Description("Activity level"), mcp.Enum(activityKeys()...)),
	mcp.WithNumber("weekly_change_kg", mcp.Description("Weekly weight change goal in kg, negative to lose weight. Defaults to 0.")),
)

var toolListMetrics = mcp.NewTool("list_metrics",
	mcp.WithDescription("List all chartable metrics with their family, unit, chart type and whether they support a target."),
)

// --- Tool handlers ---

func (h *handlers) getChart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("metric")
	if err != nil {
		return mcp.NewToolResultError("metric parameter is required"), nil
	}
	m, err := metrics.ParseMetric(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	period, err := metrics.ParsePeriod(req.GetString("period", string(metrics.Week)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	series, err := h.pipeline(ctx).Chart(ctx, m, period)
	if err != nil {
		h.log.Error("mcp get_chart", "metric", m, "period", period, "error", err)
		return mcp.NewToolResultError("chart failed: " + err.Error()), nil
	}
	if series.Empty() {
		return mcp.NewToolResultText(fmt.Sprintf("No %s data for this %s.", m, period)), nil
	}

	result, err := mcp.NewToolResultJSON(series)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getDerivedMetrics(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(h.pipeline(ctx).Derived(ctx))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getCalorieTarget(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	level, err := req.RequireString("level")
	if err != nil {
		return mcp.NewToolResultError("level parameter is required"), nil
	}
	change := req.GetFloat("weekly_change_kg", 0)

	d := h.pipeline(ctx).Derived(ctx)
	if d.BMR == 0 {
		return mcp.NewToolResultError("BMR not available: set weight, height, date of birth and sex"), nil
	}
	cal, err := metrics.TargetCalories(d.BMR, level, change)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"bmr":              d.BMR,
		"level":            level,
		"weekly_change_kg": change,
		"daily_adjustment": metrics.DailyAdjustment(change),
		"calories":         cal,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listMetrics(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(metrics.Catalog())
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
