// Command mcp-smoke starts a dashboard-server binary over stdio, waits for
// its HTTP mirror to become healthy, and runs end-to-end scenarios against
// both surfaces.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dashdeck/dashboard-server/pkg/defaults"
	"github.com/dashdeck/dashboard-server/pkg/health"
	"github.com/dashdeck/dashboard-server/pkg/jsonutil"
	"github.com/dashdeck/dashboard-server/pkg/snapshot"
)

// scenarioResult tracks the outcome of a single scenario.
type scenarioResult struct {
	name   string
	passed bool
	err    error
}

// env is what every scenario gets: the live MCP session and the mirror URL.
type env struct {
	session   *mcp.ClientSession
	mirrorURL string
}

// scenario is a named test function that runs against a live server.
type scenario struct {
	name string
	fn   func(ctx context.Context, e env) error
}

func main() {
	var (
		binary  = flag.String("binary", "./dashboard-server", "Path to the dashboard-server binary")
		port    = flag.Int("port", 18080, "HTTP mirror port for the spawned server")
		timeout = flag.Duration("timeout", 60*time.Second, "Overall timeout")
		runOnly = flag.String("scenario", "", "Run only this named scenario")
	)
	flag.Parse()
	log.SetFlags(0)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, *binary, "serve", "--no-banner", "--port", strconv.Itoa(*port))
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), "LOG_LEVEL=warn")

	client := mcp.NewClient(&mcp.Implementation{Name: "mcp-smoke", Version: defaults.Version}, nil)
	session, err := client.Connect(ctx, &mcp.CommandTransport{Command: cmd}, nil)
	if err != nil {
		log.Fatalf("FATAL connect: %v", err)
	}
	defer session.Close()

	mirrorURL := fmt.Sprintf("http://127.0.0.1:%d", *port)
	if err := health.WaitFor(ctx, mirrorURL+"/healthz", 15*time.Second); err != nil {
		log.Fatalf("FATAL health_check: %v", err)
	}
	fmt.Println("server: healthy")

	e := env{session: session, mirrorURL: mirrorURL}
	var results []scenarioResult
	for _, sc := range allScenarios() {
		if *runOnly != "" && sc.name != *runOnly {
			continue
		}
		err := sc.fn(ctx, e)
		results = append(results, scenarioResult{name: sc.name, passed: err == nil, err: err})
		if err == nil {
			fmt.Printf("PASS  %s\n", sc.name)
		} else {
			fmt.Printf("FAIL  %s: %v\n", sc.name, err)
		}
	}

	passed, failed := 0, 0
	for _, r := range results {
		if r.passed {
			passed++
		} else {
			failed++
		}
	}
	fmt.Printf("\n--- %d passed, %d failed ---\n", passed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// allScenarios returns every smoke scenario in execution order.
func allScenarios() []scenario {
	return []scenario{
		{"tool_discovery", scenarioToolDiscovery},
		{"show_dashboard", scenarioShowDashboard},
		{"widget_resource", scenarioWidgetResource},
		{"snapshot_resource", scenarioSnapshotResource},
		{"prompt_catalog", scenarioPromptCatalog},
		{"http_mirror", scenarioHTTPMirror},
		{"surfaces_agree", scenarioSurfacesAgree},
	}
}

// ---------------------------------------------------------------------------
// tool_discovery: the dashboard tool is listed with widget metadata.
// ---------------------------------------------------------------------------

func scenarioToolDiscovery(ctx context.Context, e env) error {
	tools, err := e.session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return fmt.Errorf("ListTools: %w", err)
	}
	if len(tools.Tools) != 1 {
		return fmt.Errorf("tool count: want 1, got %d", len(tools.Tools))
	}
	tool := tools.Tools[0]
	if tool.Name != defaults.ToolShowDashboard {
		return fmt.Errorf("tool name: want %q, got %q", defaults.ToolShowDashboard, tool.Name)
	}
	if tool.Description == "" {
		return fmt.Errorf("tool %q has empty description", tool.Name)
	}
	if tool.OutputSchema == nil {
		return fmt.Errorf("tool %q has no output schema", tool.Name)
	}
	if got := tool.Meta["openai/outputTemplate"]; got != defaults.ResourceWidgetURI {
		return fmt.Errorf("openai/outputTemplate: want %q, got %v", defaults.ResourceWidgetURI, got)
	}

	// NEGATIVE: an unknown tool must not silently succeed.
	res, err := e.session.CallTool(ctx, &mcp.CallToolParams{Name: "nonexistent_tool"})
	if err == nil && !res.IsError {
		return fmt.Errorf("NEG nonexistent tool: expected error, got success")
	}
	return nil
}

// ---------------------------------------------------------------------------
// show_dashboard: structured snapshot plus the acknowledgment text.
// ---------------------------------------------------------------------------

func scenarioShowDashboard(ctx context.Context, e env) error {
	snap, text, err := callShowDashboard(ctx, e.session, nil)
	if err != nil {
		return err
	}
	if text != defaults.ToolShowDashboardStatus {
		return fmt.Errorf("text: want %q, got %q", defaults.ToolShowDashboardStatus, text)
	}
	if len(snap.Organizations) == 0 {
		return fmt.Errorf("snapshot has no organizations")
	}
	if _, ok := snap.Compliance[snapshot.OverallStatusKey]; !ok {
		return fmt.Errorf("snapshot has no compliance.%s", snapshot.OverallStatusKey)
	}

	// Arguments are ignored.
	again, _, err := callShowDashboard(ctx, e.session, map[string]any{"unexpected": true})
	if err != nil {
		return fmt.Errorf("with arguments: %w", err)
	}
	a, _ := jsonutil.Marshal(snap)
	b, _ := jsonutil.Marshal(again)
	if !bytes.Equal(a, b) {
		return fmt.Errorf("repeated calls returned different snapshots")
	}
	return nil
}

// ---------------------------------------------------------------------------
// widget_resource: the skybridge fragment with the mount point.
// ---------------------------------------------------------------------------

func scenarioWidgetResource(ctx context.Context, e env) error {
	res, err := e.session.ReadResource(ctx, &mcp.ReadResourceParams{URI: defaults.ResourceWidgetURI})
	if err != nil {
		return fmt.Errorf("ReadResource: %w", err)
	}
	if len(res.Contents) != 1 {
		return fmt.Errorf("contents: want 1, got %d", len(res.Contents))
	}
	c := res.Contents[0]
	if c.MIMEType != defaults.ContentTypeSkybridge {
		return fmt.Errorf("mimeType: want %q, got %q", defaults.ContentTypeSkybridge, c.MIMEType)
	}
	if !strings.HasPrefix(c.Text, `<div id="dashboard-root"></div>`) {
		return fmt.Errorf("fragment does not start with the mount point: %s", truncate(c.Text, 80))
	}
	if !strings.Contains(c.Text, `<script type="module">`) {
		return fmt.Errorf("fragment has no module script")
	}

	// NEGATIVE: unknown URIs are protocol errors.
	if _, err := e.session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "ui://widget/missing.html"}); err == nil {
		return fmt.Errorf("NEG unknown resource: expected error")
	}
	return nil
}

// ---------------------------------------------------------------------------
// snapshot_resource: the raw JSON decodes strictly.
// ---------------------------------------------------------------------------

func scenarioSnapshotResource(ctx context.Context, e env) error {
	res, err := e.session.ReadResource(ctx, &mcp.ReadResourceParams{URI: defaults.ResourceSnapshotURI})
	if err != nil {
		return fmt.Errorf("ReadResource: %w", err)
	}
	var snap snapshot.Snapshot
	if err := jsonutil.UnmarshalStrict([]byte(resourceText(res)), &snap); err != nil {
		return fmt.Errorf("decode snapshot resource: %w", err)
	}
	return snapshot.Validate(snap)
}

// ---------------------------------------------------------------------------
// prompt_catalog: briefing prompt renders, bad focus is rejected.
// ---------------------------------------------------------------------------

func scenarioPromptCatalog(ctx context.Context, e env) error {
	prompts, err := e.session.ListPrompts(ctx, &mcp.ListPromptsParams{})
	if err != nil {
		return fmt.Errorf("ListPrompts: %w", err)
	}
	if len(prompts.Prompts) != 1 || prompts.Prompts[0].Name != defaults.PromptBriefing {
		return fmt.Errorf("prompts: want only %q", defaults.PromptBriefing)
	}

	res, err := e.session.GetPrompt(ctx, &mcp.GetPromptParams{
		Name:      defaults.PromptBriefing,
		Arguments: map[string]string{"focus": "compliance"},
	})
	if err != nil {
		return fmt.Errorf("GetPrompt: %w", err)
	}
	if len(res.Messages) == 0 {
		return fmt.Errorf("prompt has no messages")
	}
	tc, ok := res.Messages[0].Content.(*mcp.TextContent)
	if !ok || !strings.Contains(tc.Text, defaults.ToolShowDashboard) {
		return fmt.Errorf("prompt does not mention %s", defaults.ToolShowDashboard)
	}

	if _, err := e.session.GetPrompt(ctx, &mcp.GetPromptParams{
		Name:      defaults.PromptBriefing,
		Arguments: map[string]string{"focus": "weather"},
	}); err == nil {
		return fmt.Errorf("NEG unknown focus: expected error")
	}
	return nil
}

// ---------------------------------------------------------------------------
// http_mirror: GET /mcp, conditional GET, static root.
// ---------------------------------------------------------------------------

func scenarioHTTPMirror(ctx context.Context, e env) error {
	resp, body, err := httpGet(ctx, e.mirrorURL+"/mcp", nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET /mcp: status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, defaults.ContentTypeJSON) {
		return fmt.Errorf("GET /mcp: content type %q", ct)
	}
	var snap snapshot.Snapshot
	if err := jsonutil.UnmarshalStrict(body, &snap); err != nil {
		return fmt.Errorf("GET /mcp: decode: %w", err)
	}

	etag := resp.Header.Get("ETag")
	if etag == "" {
		return fmt.Errorf("GET /mcp: no ETag")
	}
	resp, _, err = httpGet(ctx, e.mirrorURL+"/mcp", map[string]string{"If-None-Match": etag})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNotModified {
		return fmt.Errorf("conditional GET /mcp: want 304, got %d", resp.StatusCode)
	}

	resp, _, err = httpGet(ctx, e.mirrorURL+"/dashboard.js", nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET /dashboard.js: status %d", resp.StatusCode)
	}
	return nil
}

// ---------------------------------------------------------------------------
// surfaces_agree: tool, resource and mirror carry the same snapshot.
// ---------------------------------------------------------------------------

func scenarioSurfacesAgree(ctx context.Context, e env) error {
	fromTool, _, err := callShowDashboard(ctx, e.session, nil)
	if err != nil {
		return err
	}
	res, err := e.session.ReadResource(ctx, &mcp.ReadResourceParams{URI: defaults.ResourceSnapshotURI})
	if err != nil {
		return fmt.Errorf("ReadResource: %w", err)
	}
	_, body, err := httpGet(ctx, e.mirrorURL+"/mcp", nil)
	if err != nil {
		return err
	}

	canonical, err := snapshot.Canonical(fromTool)
	if err != nil {
		return err
	}
	if got := resourceText(res); got != string(canonical) {
		return fmt.Errorf("snapshot resource differs from tool result")
	}
	if !bytes.Equal(body, canonical) {
		return fmt.Errorf("GET /mcp differs from tool result")
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func callShowDashboard(ctx context.Context, s *mcp.ClientSession, args map[string]any) (snapshot.Snapshot, string, error) {
	var snap snapshot.Snapshot
	params := &mcp.CallToolParams{Name: defaults.ToolShowDashboard}
	if args != nil {
		params.Arguments = args
	}
	res, err := s.CallTool(ctx, params)
	if err != nil {
		return snap, "", fmt.Errorf("call %s: %w", defaults.ToolShowDashboard, err)
	}
	if res.IsError {
		return snap, "", fmt.Errorf("call %s: tool error: %s", defaults.ToolShowDashboard, truncate(extractText(res), 200))
	}
	raw, err := jsonutil.Marshal(res.StructuredContent)
	if err != nil {
		return snap, "", fmt.Errorf("re-encode structured content: %w", err)
	}
	if err := jsonutil.UnmarshalStrict(raw, &snap); err != nil {
		return snap, "", fmt.Errorf("decode structured content: %w", err)
	}
	return snap, extractText(res), nil
}

func httpGet(ctx context.Context, url string, header map[string]string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", defaults.UserAgent("smoke"))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("GET %s: read body: %w", url, err)
	}
	return resp, body, nil
}

func extractText(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	if tc, ok := result.Content[0].(*mcp.TextContent); ok {
		return tc.Text
	}
	return fmt.Sprintf("%T", result.Content[0])
}

func resourceText(res *mcp.ReadResourceResult) string {
	if len(res.Contents) == 0 {
		return ""
	}
	return res.Contents[0].Text
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
