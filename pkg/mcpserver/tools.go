package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dashdeck/dashboard-server/pkg/defaults"
	"github.com/dashdeck/dashboard-server/pkg/snapshot"
)

// registerTools adds the dashboard tool to the MCP server.
func (s *Server) registerTools() {
	s.addShowDashboardTool()
}

// ═══════════════════════════════════════════════════════════════════════════
// show-dashboard: Return the dashboard snapshot
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addShowDashboardTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:        defaults.ToolShowDashboard,
			Title:       "Show Dashboard",
			Description: "Displays the latest metrics dashboard.",
			InputSchema: map[string]any{
				"type":                 "object",
				"properties":           map[string]any{},
				"additionalProperties": false,
			},
			OutputSchema: snapshot.Schema(),
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
				Title:          "Show Dashboard",
			},
			Meta: mcp.Meta{
				"openai/outputTemplate":          defaults.ResourceWidgetURI,
				"openai/toolInvocation/invoking": "Loading dashboard",
				"openai/toolInvocation/invoked":  defaults.ToolShowDashboardStatus,
				"openai/widgetAccessible":        true,
				"openai/resultCanProduceWidget":  true,
			},
		},
		s.handleShowDashboard,
	)
}

// handleShowDashboard ignores its arguments. The structured content is the
// store's canonical encoding, the same bytes the HTTP mirror serves.
func (s *Server) handleShowDashboard(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := s.tel.Start(ctx, "mcp.tool "+defaults.ToolShowDashboard, trace.SpanKindServer,
		attribute.String("mcp.tool.name", defaults.ToolShowDashboard),
		attribute.Int("dashboard.snapshot.bytes", s.rt.Store.Size()),
	)
	defer span.End()

	s.metrics.ToolCalled(defaults.ToolShowDashboard)
	s.logger.DebugContext(ctx, "tool called", "tool", defaults.ToolShowDashboard)
	logToSession(ctx, req.Session, "debug", map[string]any{
		"tool": defaults.ToolShowDashboard,
		"etag": s.rt.Store.ETag(),
	})

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: defaults.ToolShowDashboardStatus},
		},
		StructuredContent: json.RawMessage(s.rt.Store.JSON()),
	}, nil
}
