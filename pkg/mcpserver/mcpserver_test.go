package mcpserver_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashdeck/dashboard-server/pkg/assets"
	"github.com/dashdeck/dashboard-server/pkg/defaults"
	"github.com/dashdeck/dashboard-server/pkg/jsonutil"
	"github.com/dashdeck/dashboard-server/pkg/mcpserver"
	"github.com/dashdeck/dashboard-server/pkg/metrics"
	"github.com/dashdeck/dashboard-server/pkg/snapshot"
)

var testBundle = assets.Bundle{Script: "console.log(1)", Stylesheet: "#dashboard-root{display:grid}"}

func newRuntime(t *testing.T, bundle assets.Bundle) *mcpserver.Runtime {
	t.Helper()
	store, err := snapshot.NewStore(snapshot.Reference())
	require.NoError(t, err)
	return &mcpserver.Runtime{Store: store, Assets: bundle}
}

func newServer(t *testing.T, bundle assets.Bundle, opts mcpserver.Options) *mcpserver.Server {
	t.Helper()
	srv, err := mcpserver.New(newRuntime(t, bundle), opts)
	require.NoError(t, err)
	return srv
}

// newTestSession creates a connected client↔server session for testing.
func newTestSession(t *testing.T, srv *mcpserver.Server) *mcp.ClientSession {
	t.Helper()

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "0.0.1",
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() {
		// Server errors surface through the client-side assertions.
		_ = srv.MCPServer().Run(ctx, serverTransport)
	}()

	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

// decodeStructured re-encodes the client-side structured content and
// decodes it strictly into a Snapshot.
func decodeStructured(t *testing.T, v any) snapshot.Snapshot {
	t.Helper()
	raw, err := jsonutil.Marshal(v)
	require.NoError(t, err)
	var s snapshot.Snapshot
	require.NoError(t, jsonutil.UnmarshalStrict(raw, &s))
	return s
}

// ═══════════════════════════════════════════════════════════════════════════
// Server creation tests
// ═══════════════════════════════════════════════════════════════════════════

func TestNew(t *testing.T) {
	srv := newServer(t, testBundle, mcpserver.Options{})
	assert.NotNil(t, srv.MCPServer())
	assert.False(t, srv.IsReady())
	srv.MarkReady()
	assert.True(t, srv.IsReady())
}

func TestNew_RequiresRuntime(t *testing.T) {
	_, err := mcpserver.New(nil, mcpserver.Options{})
	assert.ErrorIs(t, err, mcpserver.ErrNoRuntime)

	_, err = mcpserver.New(&mcpserver.Runtime{Assets: testBundle}, mcpserver.Options{})
	assert.ErrorIs(t, err, mcpserver.ErrNoRuntime)
}

func TestNew_RecordsSnapshotSize(t *testing.T) {
	m, err := metrics.New()
	require.NoError(t, err)
	srv := newServer(t, testBundle, mcpserver.Options{Metrics: m})

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "dashboard_snapshot_bytes" {
			assert.Equal(t, float64(srv.Runtime().Store.Size()), f.GetMetric()[0].GetGauge().GetValue())
			return
		}
	}
	t.Fatal("dashboard_snapshot_bytes not registered")
}

// ═══════════════════════════════════════════════════════════════════════════
// Tool tests
// ═══════════════════════════════════════════════════════════════════════════

func TestListTools(t *testing.T) {
	cs := newTestSession(t, newServer(t, testBundle, mcpserver.Options{}))

	result, err := cs.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)
	require.Len(t, result.Tools, 1)

	tool := result.Tools[0]
	assert.Equal(t, defaults.ToolShowDashboard, tool.Name)
	assert.Equal(t, "Show Dashboard", tool.Title)
	assert.Equal(t, "Displays the latest metrics dashboard.", tool.Description)
	require.NotNil(t, tool.Annotations)
	assert.True(t, tool.Annotations.ReadOnlyHint)
	assert.True(t, tool.Annotations.IdempotentHint)
	require.NotNil(t, tool.Annotations.OpenWorldHint)
	assert.False(t, *tool.Annotations.OpenWorldHint)
	assert.Equal(t, defaults.ResourceWidgetURI, tool.Meta["openai/outputTemplate"])

	out, ok := tool.OutputSchema.(map[string]any)
	require.True(t, ok, "output schema is an object: %T", tool.OutputSchema)
	assert.Equal(t, "object", out["type"])
	assert.Contains(t, out["properties"], "organizations")
}

func TestCallShowDashboard(t *testing.T) {
	cs := newTestSession(t, newServer(t, testBundle, mcpserver.Options{}))

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: defaults.ToolShowDashboard})
	require.NoError(t, err)
	assert.False(t, res.IsError)

	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "Dashboard data loaded", text.Text)

	got := decodeStructured(t, res.StructuredContent)
	assert.Equal(t, snapshot.Reference(), got)
	assert.Equal(t, 67, got.Compliance["overallStatus"])
	assert.Len(t, got.Organizations, 5)
}

func TestCallShowDashboard_IgnoresArguments(t *testing.T) {
	cs := newTestSession(t, newServer(t, testBundle, mcpserver.Options{}))

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      defaults.ToolShowDashboard,
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, snapshot.Reference(), decodeStructured(t, res.StructuredContent))
}

func TestCallShowDashboard_Idempotent(t *testing.T) {
	m, err := metrics.New()
	require.NoError(t, err)
	cs := newTestSession(t, newServer(t, testBundle, mcpserver.Options{Metrics: m}))
	ctx := context.Background()

	first, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: defaults.ToolShowDashboard})
	require.NoError(t, err)
	second, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: defaults.ToolShowDashboard})
	require.NoError(t, err)

	assert.Equal(t, first.Content[0].(*mcp.TextContent).Text, second.Content[0].(*mcp.TextContent).Text)
	assert.Equal(t, decodeStructured(t, first.StructuredContent), decodeStructured(t, second.StructuredContent))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "dashboard_mcp_tool_calls_total" {
			assert.Equal(t, float64(2), f.GetMetric()[0].GetCounter().GetValue())
		}
	}
}

func TestCallUnknownTool(t *testing.T) {
	cs := newTestSession(t, newServer(t, testBundle, mcpserver.Options{}))
	_, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "hide-dashboard"})
	assert.Error(t, err)
}

// ═══════════════════════════════════════════════════════════════════════════
// Resource tests
// ═══════════════════════════════════════════════════════════════════════════

func TestListResources(t *testing.T) {
	cs := newTestSession(t, newServer(t, testBundle, mcpserver.Options{}))

	result, err := cs.ListResources(context.Background(), &mcp.ListResourcesParams{})
	require.NoError(t, err)

	byURI := map[string]*mcp.Resource{}
	for _, r := range result.Resources {
		byURI[r.URI] = r
	}
	require.Len(t, byURI, 3)

	w := byURI[defaults.ResourceWidgetURI]
	require.NotNil(t, w)
	assert.Equal(t, defaults.ResourceWidgetName, w.Name)
	assert.Equal(t, defaults.ContentTypeSkybridge, w.MIMEType)

	assert.Contains(t, byURI, defaults.ResourceSnapshotURI)
	assert.Contains(t, byURI, defaults.ResourceVersionURI)
}

func TestReadWidget(t *testing.T) {
	cs := newTestSession(t, newServer(t, testBundle, mcpserver.Options{}))

	res, err := cs.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: defaults.ResourceWidgetURI})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)

	c := res.Contents[0]
	assert.Equal(t, defaults.ResourceWidgetURI, c.URI)
	assert.Equal(t, "text/html+skybridge", c.MIMEType)
	assert.Equal(t, `<div id="dashboard-root"></div>
<style>#dashboard-root{display:grid}</style>
<script type="module">console.log(1)</script>`, c.Text)
}

func TestReadWidget_NoStylesheet(t *testing.T) {
	cs := newTestSession(t, newServer(t, assets.Bundle{Script: "console.log(1)"}, mcpserver.Options{}))

	res, err := cs.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: defaults.ResourceWidgetURI})
	require.NoError(t, err)
	text := res.Contents[0].Text
	assert.NotContains(t, text, "<style>")
	assert.Contains(t, text, `<script type="module">console.log(1)</script>`)
}

func TestReadWidget_Stable(t *testing.T) {
	srv := newServer(t, testBundle, mcpserver.Options{})
	cs := newTestSession(t, srv)
	ctx := context.Background()

	a, err := cs.ReadResource(ctx, &mcp.ReadResourceParams{URI: defaults.ResourceWidgetURI})
	require.NoError(t, err)
	b, err := cs.ReadResource(ctx, &mcp.ReadResourceParams{URI: defaults.ResourceWidgetURI})
	require.NoError(t, err)
	assert.Equal(t, a.Contents[0].Text, b.Contents[0].Text)
	assert.Equal(t, srv.Widget(), a.Contents[0].Text)
}

func TestReadSnapshotResource(t *testing.T) {
	srv := newServer(t, testBundle, mcpserver.Options{})
	cs := newTestSession(t, srv)

	res, err := cs.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: defaults.ResourceSnapshotURI})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, defaults.ContentTypeJSON, res.Contents[0].MIMEType)
	assert.Equal(t, string(srv.Runtime().Store.JSON()), res.Contents[0].Text)
}

func TestReadVersionResource(t *testing.T) {
	srv := newServer(t, testBundle, mcpserver.Options{})
	cs := newTestSession(t, srv)

	res, err := cs.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: defaults.ResourceVersionURI})
	require.NoError(t, err)

	var info map[string]any
	require.NoError(t, jsonutil.Unmarshal([]byte(res.Contents[0].Text), &info))
	assert.Equal(t, defaults.ServerName, info["name"])
	assert.Equal(t, defaults.Version, info["version"])
	assert.Equal(t, []any{defaults.ToolShowDashboard}, info["tools"])

	snap, ok := info["snapshot"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, srv.Runtime().Store.ETag(), snap["etag"])
	assert.Equal(t, float64(5), snap["organizations"])
	assert.Equal(t, true, snap["widgetStylesheet"])
}

func TestReadUnknownResource(t *testing.T) {
	cs := newTestSession(t, newServer(t, testBundle, mcpserver.Options{}))
	_, err := cs.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: "ui://widget/other.html"})
	assert.Error(t, err)
}

// ═══════════════════════════════════════════════════════════════════════════
// Prompt tests
// ═══════════════════════════════════════════════════════════════════════════

func TestBriefingPrompt(t *testing.T) {
	cs := newTestSession(t, newServer(t, testBundle, mcpserver.Options{}))
	ctx := context.Background()

	list, err := cs.ListPrompts(ctx, &mcp.ListPromptsParams{})
	require.NoError(t, err)
	require.Len(t, list.Prompts, 1)
	assert.Equal(t, defaults.PromptBriefing, list.Prompts[0].Name)

	tests := []struct {
		focus    string
		contains []string
		excludes []string
	}{
		{"", []string{"Focus on risk", "Focus on compliance", "Focus on inventory"}, nil},
		{"all", []string{"Focus on risk", "Focus on compliance", "Focus on inventory"}, nil},
		{"findings", []string{"toxic combination"}, []string{"Focus on compliance"}},
		{"Compliance", []string{"overallStatus"}, []string{"Focus on risk"}},
		{"inventory", []string{"compartments"}, []string{"Focus on risk"}},
	}
	for _, tt := range tests {
		t.Run("focus="+tt.focus, func(t *testing.T) {
			args := map[string]string{}
			if tt.focus != "" {
				args["focus"] = tt.focus
			}
			res, err := cs.GetPrompt(ctx, &mcp.GetPromptParams{Name: defaults.PromptBriefing, Arguments: args})
			require.NoError(t, err)
			require.Len(t, res.Messages, 1)
			assert.Equal(t, mcp.Role("user"), res.Messages[0].Role)

			text := res.Messages[0].Content.(*mcp.TextContent).Text
			assert.Contains(t, text, defaults.ToolShowDashboard)
			for _, s := range tt.contains {
				assert.Contains(t, text, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, text, s)
			}
		})
	}
}

func TestBriefingPrompt_UnknownFocus(t *testing.T) {
	cs := newTestSession(t, newServer(t, testBundle, mcpserver.Options{}))
	_, err := cs.GetPrompt(context.Background(), &mcp.GetPromptParams{
		Name:      defaults.PromptBriefing,
		Arguments: map[string]string{"focus": "weather"},
	})
	assert.Error(t, err)
}

// ═══════════════════════════════════════════════════════════════════════════
// HTTP transport tests
// ═══════════════════════════════════════════════════════════════════════════

func TestHTTPHandler_Health(t *testing.T) {
	srv := newServer(t, testBundle, mcpserver.Options{})
	h := srv.HTTPHandler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	srv.MarkReady()
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestHTTPHandler_CORSPreflight(t *testing.T) {
	h := newServer(t, testBundle, mcpserver.Options{}).HTTPHandler()

	req := httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), "Mcp-Session-Id"))
}

func TestHTTPHandler_StreamableClient(t *testing.T) {
	srv := newServer(t, testBundle, mcpserver.Options{})
	ts := httptest.NewServer(srv.HTTPHandler())
	defer ts.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "http-client", Version: "0.0.1"}, nil)
	ctx := context.Background()
	cs, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: ts.URL + "/mcp"}, nil)
	require.NoError(t, err)
	defer cs.Close()

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: defaults.ToolShowDashboard})
	require.NoError(t, err)
	assert.Equal(t, snapshot.Reference(), decodeStructured(t, res.StructuredContent))
}
