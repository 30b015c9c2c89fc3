package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dashdeck/dashboard-server/pkg/defaults"
	"github.com/dashdeck/dashboard-server/pkg/jsonutil"
)

// registerResources adds the widget and the read-only data resources.
func (s *Server) registerResources() {
	s.addWidgetResource()
	s.addSnapshotResource()
	s.addVersionResource()
}

// ═══════════════════════════════════════════════════════════════════════════
// ui://widget/dashboard.html: Embeddable dashboard widget
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addWidgetResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			URI:         defaults.ResourceWidgetURI,
			Name:        defaults.ResourceWidgetName,
			Title:       "Dashboard Widget",
			Description: "Self-contained HTML fragment that renders the dashboard from the show-dashboard result.",
			MIMEType:    defaults.ContentTypeSkybridge,
		},
		func(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			s.observeRead(ctx, defaults.ResourceWidgetURI)
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{URI: defaults.ResourceWidgetURI, MIMEType: defaults.ContentTypeSkybridge, Text: s.widget},
				},
			}, nil
		},
	)
}

// ═══════════════════════════════════════════════════════════════════════════
// dashboard://snapshot: Canonical snapshot JSON
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addSnapshotResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			URI:         defaults.ResourceSnapshotURI,
			Name:        "dashboard-snapshot",
			Title:       "Dashboard Snapshot",
			Description: "The dashboard data as JSON. Identical to the structured content of show-dashboard.",
			MIMEType:    defaults.ContentTypeJSON,
			Size:        int64(s.rt.Store.Size()),
		},
		func(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			s.observeRead(ctx, defaults.ResourceSnapshotURI)
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{URI: defaults.ResourceSnapshotURI, MIMEType: defaults.ContentTypeJSON, Text: string(s.rt.Store.JSON())},
				},
			}, nil
		},
	)
}

// ═══════════════════════════════════════════════════════════════════════════
// dashboard://version: Server version and capability inventory
// ═══════════════════════════════════════════════════════════════════════════

type versionInfo struct {
	Name      string       `json:"name"`
	Title     string       `json:"title"`
	Version   string       `json:"version"`
	Tools     []string     `json:"tools"`
	Resources []string     `json:"resources"`
	Prompts   []string     `json:"prompts"`
	Snapshot  snapshotInfo `json:"snapshot"`
}

type snapshotInfo struct {
	ETag          string `json:"etag"`
	Bytes         int    `json:"bytes"`
	Organizations int    `json:"organizations"`
	HasStylesheet bool   `json:"widgetStylesheet"`
}

func (s *Server) addVersionResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			URI:         defaults.ResourceVersionURI,
			Name:        "dashboard-version",
			Title:       "Server Version",
			Description: "Server version, capabilities, and snapshot fingerprint.",
			MIMEType:    defaults.ContentTypeJSON,
		},
		func(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			s.observeRead(ctx, defaults.ResourceVersionURI)
			info := versionInfo{
				Name:      defaults.ServerName,
				Title:     defaults.ServerTitle,
				Version:   defaults.Version,
				Tools:     []string{defaults.ToolShowDashboard},
				Resources: []string{defaults.ResourceWidgetURI, defaults.ResourceSnapshotURI, defaults.ResourceVersionURI},
				Prompts:   []string{defaults.PromptBriefing},
				Snapshot: snapshotInfo{
					ETag:          s.rt.Store.ETag(),
					Bytes:         s.rt.Store.Size(),
					Organizations: len(s.rt.Store.Get().Organizations),
					HasStylesheet: s.rt.Assets.HasStylesheet(),
				},
			}
			data, err := jsonutil.MarshalIndent(info, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("marshaling version info: %w", err)
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{URI: defaults.ResourceVersionURI, MIMEType: defaults.ContentTypeJSON, Text: string(data)},
				},
			}, nil
		},
	)
}

func (s *Server) observeRead(ctx context.Context, uri string) {
	_, span := s.tel.Start(ctx, "mcp.resource read", trace.SpanKindServer,
		attribute.String("mcp.resource.uri", uri))
	span.End()
	s.metrics.ResourceRead(uri)
	s.logger.DebugContext(ctx, "resource read", "uri", uri)
}
