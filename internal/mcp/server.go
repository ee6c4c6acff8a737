package mcp

import (
	"context"
	"log/slog"

	"github.com/claude/healthtrends/internal/metrics"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// PipelineFunc returns the chart pipeline reading the given user's data.
type PipelineFunc func(userID int) *metrics.Pipeline

// New creates an MCP server with all tools and resources registered.
func New(pipelines PipelineFunc, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("HealthTrends", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("HealthTrends chart server. Builds weekly, monthly and yearly health charts with target comparisons, and computes BMI, BMR and calorie needs. All data is scoped to the authenticated user."),
	)

	h := &handlers{pipelines: pipelines, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetChart, Handler: h.getChart},
		server.ServerTool{Tool: toolGetDerivedMetrics, Handler: h.getDerivedMetrics},
		server.ServerTool{Tool: toolGetCalorieTarget, Handler: h.getCalorieTarget},
		server.ServerTool{Tool: toolListMetrics, Handler: h.listMetrics},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resMetricCatalog, Handler: h.metricCatalog},
		server.ServerResource{Resource: resActivityLevels, Handler: h.activityLevels},
		server.ServerResource{Resource: resDerived, Handler: h.derivedSummary},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	pipelines PipelineFunc
	log       *slog.Logger
}

func (h *handlers) pipeline(ctx context.Context) *metrics.Pipeline {
	return h.pipelines(UserIDFromContext(ctx))
}

// --- Resource definitions ---

var resMetricCatalog = mcp.NewResource(
	"healthtrends://metric_catalog",
	"Metric Catalog",
	mcp.WithResourceDescription("All chartable metrics with family, unit, decimal places, chart type and target key"),
	mcp.WithMIMEType("application/json"),
)

var resActivityLevels = mcp.NewResource(
	"healthtrends://activity_levels",
	"Activity Levels",
	mcp.WithResourceDescription("Activity levels and the multipliers applied to BMR"),
	mcp.WithMIMEType("application/json"),
)

var resDerived = mcp.NewResource(
	"healthtrends://derived",
	"Derived Metrics",
	mcp.WithResourceDescription("Current BMI, BMI zone, BMR and activity calorie projection"),
	mcp.WithMIMEType("application/json"),
)
