package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dashdeck/dashboard-server/pkg/assets"
	"github.com/dashdeck/dashboard-server/pkg/defaults"
	"github.com/dashdeck/dashboard-server/pkg/health"
	"github.com/dashdeck/dashboard-server/pkg/logging"
	"github.com/dashdeck/dashboard-server/pkg/metrics"
	"github.com/dashdeck/dashboard-server/pkg/middleware"
	"github.com/dashdeck/dashboard-server/pkg/snapshot"
	"github.com/dashdeck/dashboard-server/pkg/telemetry"
	"github.com/dashdeck/dashboard-server/pkg/widget"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// ErrNoRuntime is returned by New when the runtime or its store is missing.
var ErrNoRuntime = errors.New("mcpserver: runtime with a snapshot store is required")

// Runtime is the immutable state shared by every capability. It is built
// once at startup and never modified.
type Runtime struct {
	Store  *snapshot.Store
	Assets assets.Bundle
}

// Options holds the optional collaborators of the server. Zero values are
// valid: logs are discarded, nothing is measured or traced.
type Options struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Telemetry *telemetry.Provider
}

// ---------------------------------------------------------------------------
// Server
// ---------------------------------------------------------------------------

// Server wraps the MCP server with the dashboard capabilities.
type Server struct {
	mcp     *mcp.Server
	rt      *Runtime
	widget  string
	logger  *slog.Logger
	metrics *metrics.Metrics
	tel     *telemetry.Provider
	ready   health.Readiness
}

// MCPServer returns the underlying MCP server for direct access (e.g., testing).
func (s *Server) MCPServer() *mcp.Server { return s.mcp }

// Runtime returns the shared runtime.
func (s *Server) Runtime() *Runtime { return s.rt }

// Widget returns the rendered widget fragment.
func (s *Server) Widget() string { return s.widget }

// MarkReady signals that startup finished. Until then /health returns 503.
func (s *Server) MarkReady() { s.ready.MarkReady() }

// IsReady returns true if the server has completed startup.
func (s *Server) IsReady() bool { return s.ready.IsReady() }

// New creates the MCP server with all tools, resources, and prompts
// registered. The widget fragment is rendered here, once.
func New(rt *Runtime, opts Options) (*Server, error) {
	if rt == nil || rt.Store == nil {
		return nil, ErrNoRuntime
	}
	fragment, err := widget.Render(rt.Assets)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	s := &Server{
		rt:      rt,
		widget:  fragment,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		tel:     opts.Telemetry,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    defaults.ServerName,
			Title:   defaults.ServerTitle,
			Version: defaults.Version,
		},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)

	s.registerTools()
	s.registerResources()
	s.registerPrompts()

	s.metrics.SetSnapshotSize(rt.Store.Size())
	return s, nil
}

// RunStdio runs the MCP server over stdin/stdout until the client
// disconnects or ctx is canceled. Nothing else may write to stdout.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("mcp stdio transport started")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler returns an http.Handler for the streamable HTTP transport with
// CORS support and a /health endpoint.
//
// The handler mounts:
//   - /health      → readiness/liveness probe (GET only)
//   - /sse         → legacy SSE transport for older MCP clients
//   - /mcp         → streamable HTTP transport
//   - /             → streamable HTTP transport (default mount)
func (s *Server) HTTPHandler() http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return s.mcp },
		&mcp.StreamableHTTPOptions{Stateless: false},
	)

	sse := mcp.NewSSEHandler(
		func(_ *http.Request) *mcp.Server { return s.mcp },
		nil,
	)

	mux := http.NewServeMux()
	mux.Handle("/health", health.Handler(defaults.ServerName+"-mcp", &s.ready))
	mux.Handle("/sse", sseKeepAlive(sse))
	mux.Handle("/mcp", streamable)
	mux.Handle("/", streamable)

	return middleware.Chain(mux,
		middleware.CORS(middleware.CORSOptions{
			AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders: []string{
				"Content-Type",
				"Authorization",
				"Mcp-Session-Id",
				"MCP-Protocol-Version",
				"Last-Event-ID",
				"Accept",
			},
			ExposeHeaders:    []string{"Mcp-Session-Id", "MCP-Protocol-Version"},
			AllowCredentials: true,
		}),
		middleware.Recovery(s.logger),
		middleware.SecurityHeaders,
	)
}

// ListenHTTP serves HTTPHandler on addr until ctx is canceled, then shuts
// down gracefully.
func (s *Server) ListenHTTP(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.HTTPHandler(),
		ReadHeaderTimeout: defaults.ReadHeaderTimeout,
		IdleTimeout:       defaults.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("mcp http transport listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("mcp http transport: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaults.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// sseKeepAliveInterval keeps idle SSE connections open behind proxies with
// a 60s idle timeout.
const sseKeepAliveInterval = 15 * time.Second

func sseKeepAlive(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
			next.ServeHTTP(w, r)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		kw := &keepAliveWriter{
			ResponseWriter: w,
			flusher:        flusher,
			done:           make(chan struct{}),
		}
		go kw.keepAliveLoop()
		defer close(kw.done)

		next.ServeHTTP(kw, r)
	})
}

// keepAliveWriter serializes SSE writes between the handler and the
// keep-alive goroutine.
type keepAliveWriter struct {
	mu sync.Mutex
	http.ResponseWriter
	flusher http.Flusher
	done    chan struct{}
}

func (kw *keepAliveWriter) Write(p []byte) (int, error) {
	kw.mu.Lock()
	defer kw.mu.Unlock()
	return kw.ResponseWriter.Write(p)
}

// Flush implements http.Flusher; the SDK's SSE handler asserts it.
func (kw *keepAliveWriter) Flush() {
	kw.mu.Lock()
	defer kw.mu.Unlock()
	kw.flusher.Flush()
}

func (kw *keepAliveWriter) Unwrap() http.ResponseWriter {
	return kw.ResponseWriter
}

func (kw *keepAliveWriter) keepAliveLoop() {
	ticker := time.NewTicker(sseKeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-kw.done:
			return
		case <-ticker.C:
			kw.mu.Lock()
			_, err := kw.ResponseWriter.Write([]byte(": keepalive\n\n"))
			if err != nil {
				kw.mu.Unlock()
				return
			}
			kw.flusher.Flush()
			kw.mu.Unlock()
		}
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// logToSession sends a log notification to the MCP client. Delivery is
// best-effort.
func logToSession(ctx context.Context, session *mcp.ServerSession, level mcp.LoggingLevel, data any) {
	if session == nil {
		return
	}
	_ = session.Log(ctx, &mcp.LoggingMessageParams{
		Level:  level,
		Logger: defaults.LoggerName,
		Data:   data,
	})
}

// boolPtr returns a pointer to b. Used for optional bool fields in the SDK.
func boolPtr(b bool) *bool { return &b }

const serverInstructions = `This server exposes a read-only security posture dashboard.

## TOOLS

| Tool | Purpose |
|---|---|
| show-dashboard | Returns the full dashboard snapshot as structured content and renders the dashboard widget. |

The tool takes no arguments, has no side effects, and always returns the same data for the lifetime of the server. Call it once per conversation and reuse the result.

## RESOURCES

- ui://widget/dashboard.html: the embeddable dashboard widget (text/html+skybridge)
- dashboard://snapshot: the snapshot as JSON, identical to the tool's structured content
- dashboard://version: server version and capability inventory

## SNAPSHOT LAYOUT

- organizations: cloud estates with org counts, healthy (green) and warning (yellow) counts, and one provider scope count (AWS accounts, Azure subscriptions, GCP projects, Oracle compartments)
- resourceSummary: asset inventory by category
- openFindings: open findings by severity (critical, high, medium, low) and by category
- compliance: percentages (0-100) per framework; overallStatus is the headline score
- toxicCombination: high-risk combinations of conditions, as free text
- quickActions: suggested remediations
- trends: finding activity counters

## PROMPTS

- dashboard_briefing: produces a briefing on findings, compliance, inventory, or all three`
