// Package mirror serves the dashboard snapshot over plain HTTP next to the
// MCP transport, together with the frontend files for local testing.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/netutil"

	"github.com/dashdeck/dashboard-server/pkg/defaults"
	"github.com/dashdeck/dashboard-server/pkg/health"
	"github.com/dashdeck/dashboard-server/pkg/logging"
	"github.com/dashdeck/dashboard-server/pkg/metrics"
	"github.com/dashdeck/dashboard-server/pkg/middleware"
	"github.com/dashdeck/dashboard-server/pkg/ratelimit"
	"github.com/dashdeck/dashboard-server/pkg/snapshot"
	"github.com/dashdeck/dashboard-server/pkg/telemetry"
)

// Routes.
const (
	RouteSnapshot = "/mcp"
	RouteHealth   = "/healthz"
	RouteMetrics  = "/metrics"
	routeStatic   = "static"
)

// ErrNoStore is returned by New without a snapshot store.
var ErrNoStore = errors.New("mirror: snapshot store is required")

// Options configures the mirror. Only Store is required.
type Options struct {
	Store     *snapshot.Store
	StaticDir string
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Telemetry *telemetry.Provider
	Limiter   *ratelimit.Limiter
}

// Mirror is the HTTP face of the dashboard.
type Mirror struct {
	store     *snapshot.Store
	staticDir string
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tel       *telemetry.Provider
	limiter   *ratelimit.Limiter
	ready     health.Readiness
	handler   http.Handler
}

// New builds the mirror and its handler chain.
func New(opts Options) (*Mirror, error) {
	if opts.Store == nil {
		return nil, ErrNoStore
	}
	if opts.StaticDir == "" {
		opts.StaticDir = defaults.StaticDir
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	m := &Mirror{
		store:     opts.Store,
		staticDir: opts.StaticDir,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		tel:       opts.Telemetry,
		limiter:   opts.Limiter,
	}
	if info, err := os.Stat(m.staticDir); err != nil || !info.IsDir() {
		m.logger.Warn("static directory unavailable, static files will 404", "dir", m.staticDir)
	}
	m.handler = m.buildHandler()
	return m, nil
}

// Handler returns the full middleware-wrapped handler.
func (m *Mirror) Handler() http.Handler { return m.handler }

// MarkReady flips /healthz to 200.
func (m *Mirror) MarkReady() { m.ready.MarkReady() }

func (m *Mirror) buildHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+RouteSnapshot, m.handleSnapshot)
	mux.Handle("GET "+RouteHealth, health.Handler(defaults.ServerName, &m.ready))
	mux.Handle("GET "+RouteMetrics, m.metrics.Handler())
	mux.Handle("GET /", http.FileServer(http.Dir(m.staticDir)))

	return middleware.Chain(mux,
		middleware.Recovery(m.logger),
		middleware.RequestID,
		middleware.AccessLog(m.logger, m.metrics, m.tel, routeOf),
		middleware.RateLimit(m.limiter, m.metrics),
		middleware.CORS(middleware.CORSOptions{
			AllowMethods:  []string{"GET", "HEAD", "OPTIONS"},
			AllowHeaders:  []string{"Content-Type", "If-None-Match", middleware.RequestIDHeader},
			ExposeHeaders: []string{"ETag", middleware.RequestIDHeader},
		}),
		middleware.SecurityHeaders,
	)
}

// handleSnapshot serves the canonical snapshot bytes with a strong ETag.
func (m *Mirror) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	etag := m.store.ETag()
	h := w.Header()
	h.Set("ETag", etag)
	h.Set("Cache-Control", "no-cache")

	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	h.Set("Content-Type", defaults.ContentTypeJSON)
	h.Set("Content-Length", strconv.Itoa(m.store.Size()))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(m.store.JSON())
}

// etagMatches implements the weak comparison If-None-Match uses.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}

func routeOf(r *http.Request) string {
	switch r.URL.Path {
	case RouteSnapshot, RouteHealth, RouteMetrics:
		return r.URL.Path
	default:
		return routeStatic
	}
}

// Listen opens a TCP listener on addr capped at maxConns concurrent
// connections (0 means uncapped).
func Listen(addr string, maxConns int) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	if maxConns > 0 {
		ln = netutil.LimitListener(ln, maxConns)
	}
	return ln, nil
}

// Serve answers requests on ln until ctx is canceled, then shuts down
// gracefully. It logs the dashboard URL once the listener is live.
func (m *Mirror) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           m.handler,
		ReadHeaderTimeout: defaults.ReadHeaderTimeout,
		ReadTimeout:       defaults.ReadTimeout,
		WriteTimeout:      defaults.WriteTimeout,
		IdleTimeout:       defaults.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(m.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	m.MarkReady()
	m.logger.Info("web dashboard available", "url", DashboardURL(ln.Addr()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaults.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("mirror shutdown: %w", err)
		}
		return nil
	}
}

// DashboardURL is the local URL of a listener address.
func DashboardURL(addr net.Addr) string {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return fmt.Sprintf("http://localhost:%d", tcp.Port)
	}
	return "http://" + addr.String()
}
