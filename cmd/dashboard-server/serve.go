package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dashdeck/dashboard-server/pkg/assets"
	"github.com/dashdeck/dashboard-server/pkg/config"
	"github.com/dashdeck/dashboard-server/pkg/defaults"
	"github.com/dashdeck/dashboard-server/pkg/logging"
	"github.com/dashdeck/dashboard-server/pkg/mcpserver"
	"github.com/dashdeck/dashboard-server/pkg/metrics"
	"github.com/dashdeck/dashboard-server/pkg/mirror"
	"github.com/dashdeck/dashboard-server/pkg/ratelimit"
	"github.com/dashdeck/dashboard-server/pkg/snapshot"
	"github.com/dashdeck/dashboard-server/pkg/telemetry"
	"github.com/dashdeck/dashboard-server/pkg/ui"
)

const builtInSource = "built-in reference"

type serveFlags struct {
	transport      string
	port           int
	mcpAddr        string
	snapshotPath   string
	scriptPath     string
	stylesheetPath string
	staticDir      string
	noBanner       bool
}

func newServeCmd() *cobra.Command {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server and the HTTP mirror.",
		Long: `Run the MCP server (stdio by default) and the HTTP mirror on PORT.

The mirror answers GET /mcp with the dashboard snapshot and serves the
frontend files from the static directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load()
			if err != nil {
				return classify(err)
			}
			f.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return classify(err)
			}
			return classify(runServe(ctx, cfg, !f.noBanner, cmd.ErrOrStderr()))
		},
	}

	f.register(cmd)
	return cmd
}

func (f *serveFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.transport, "transport", config.TransportStdio, "MCP transport: stdio or http (env "+config.EnvTransport+")")
	fl.IntVar(&f.port, "port", defaults.HTTPPort, "HTTP mirror port (env "+config.EnvPort+")")
	fl.StringVar(&f.mcpAddr, "mcp-addr", defaults.MCPHTTPAddr, "Listen address of the MCP HTTP transport (env "+config.EnvMCPHTTPAddr+")")
	fl.StringVar(&f.snapshotPath, "snapshot", "", "YAML or JSON snapshot file; built-in reference when empty (env "+config.EnvSnapshot+")")
	fl.StringVar(&f.scriptPath, "script", defaults.ScriptPath, "Widget script (env "+config.EnvScript+")")
	fl.StringVar(&f.stylesheetPath, "stylesheet", defaults.StylesheetPath, "Widget stylesheet, optional (env "+config.EnvStylesheet+")")
	fl.StringVar(&f.staticDir, "static-dir", defaults.StaticDir, "Directory served by the HTTP mirror (env "+config.EnvStaticDir+")")
	fl.BoolVar(&f.noBanner, "no-banner", false, "Do not print the startup banner")
}

// apply overrides cfg with the flags set on the command line.
func (f *serveFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("transport") {
		cfg.Transport = f.transport
	}
	if changed("port") {
		cfg.Port = f.port
	}
	if changed("mcp-addr") {
		cfg.MCPHTTPAddr = f.mcpAddr
	}
	if changed("snapshot") {
		cfg.SnapshotPath = f.snapshotPath
	}
	if changed("script") {
		cfg.ScriptPath = f.scriptPath
	}
	if changed("stylesheet") {
		cfg.StylesheetPath = f.stylesheetPath
	}
	if changed("static-dir") {
		cfg.StaticDir = f.staticDir
	}
}

// app is everything serve builds before it starts listening.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	source  string
	store   *snapshot.Store
	bundle  assets.Bundle
	metrics *metrics.Metrics
	mcp     *mcpserver.Server
	mirror  *mirror.Mirror
}

// buildApp loads the snapshot and the assets and constructs both servers.
// Any startup input error is returned before a server exists.
func buildApp(cfg *config.Config, logger *slog.Logger, tel *telemetry.Provider) (*app, error) {
	store, source, err := loadStore(cfg.SnapshotPath)
	if err != nil {
		return nil, err
	}

	bundle, err := assets.LoadWithOptions(cfg.ScriptPath, cfg.StylesheetPath, assets.LoadOptions{
		OnStylesheetError: func(path string, err error) {
			logger.Warn("stylesheet unavailable, widget renders without styles", "path", path, "error", err)
		},
	})
	if err != nil {
		return nil, err
	}

	m, err := metrics.New()
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	srv, err := mcpserver.New(&mcpserver.Runtime{Store: store, Assets: bundle}, mcpserver.Options{
		Logger:    logger,
		Metrics:   m,
		Telemetry: tel,
	})
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.New(&ratelimit.Config{
		RequestsPerSecond: cfg.RateLimit,
		Burst:             cfg.RateBurst,
		PerHost:           true,
		MaxHosts:          ratelimit.DefaultConfig().MaxHosts,
	})
	if err := m.TrackRateLimiter(limiter); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	mir, err := mirror.New(mirror.Options{
		Store:     store,
		StaticDir: cfg.StaticDir,
		Logger:    logger,
		Metrics:   m,
		Telemetry: tel,
		Limiter:   limiter,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		source:  source,
		store:   store,
		bundle:  bundle,
		metrics: m,
		mcp:     srv,
		mirror:  mir,
	}, nil
}

// loadStore reads the snapshot at path, or the built-in reference when
// path is empty. It also returns a description of where the data came from.
func loadStore(path string) (*snapshot.Store, string, error) {
	snap, source := snapshot.Reference(), builtInSource
	if path != "" {
		loaded, err := snapshot.LoadFile(path)
		if err != nil {
			return nil, "", err
		}
		snap, source = loaded, path
	}
	store, err := snapshot.NewStore(snap)
	if err != nil {
		return nil, "", err
	}
	return store, source, nil
}

func runServe(ctx context.Context, cfg *config.Config, banner bool, stderr io.Writer) error {
	logger, err := logging.Bootstrap(stderr, defaults.ServerName+" serve")
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	tel, err := telemetry.Setup(ctx, telemetry.Options{
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("%w: telemetry: %w", config.ErrInvalidConfig, err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaults.TelemetryTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	a, err := buildApp(cfg, logger, tel)
	if err != nil {
		return err
	}

	ln, err := mirror.Listen(cfg.Addr(), cfg.MaxConnections)
	if err != nil {
		return err
	}

	if banner && isTerminal(stderr) {
		a.printBanner(stderr, mirror.DashboardURL(ln.Addr()))
	}

	return a.run(ctx, func(ctx context.Context) error {
		return a.mirror.Serve(ctx, ln)
	})
}

// run serves the mirror and the MCP transport until the transport ends, the
// mirror fails, or ctx is canceled, then stops both.
func (a *app) run(ctx context.Context, serveMirror func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	mirrorDone := make(chan error, 1)
	go func() { mirrorDone <- serveMirror(ctx) }()

	transportDone := make(chan error, 1)
	go func() { transportDone <- a.runTransport(ctx) }()

	a.mcp.MarkReady()

	var runErr error
	mirrorStopped := false
	select {
	case err := <-transportDone:
		runErr = transportResult(ctx, err)
		a.logger.Info("mcp transport closed", "transport", a.cfg.Transport)
	case err := <-mirrorDone:
		mirrorStopped = true
		runErr = err
		if runErr == nil && ctx.Err() == nil {
			runErr = errors.New("http mirror stopped unexpectedly")
		}
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	}
	cancel()

	if !mirrorStopped {
		select {
		case err := <-mirrorDone:
			if runErr == nil {
				runErr = err
			}
		case <-time.After(defaults.ShutdownTimeout):
			a.logger.Warn("http mirror did not stop in time")
		}
	}
	return runErr
}

func (a *app) runTransport(ctx context.Context) error {
	if a.cfg.Transport == config.TransportHTTP {
		return a.mcp.ListenHTTP(ctx, a.cfg.MCPHTTPAddr)
	}
	return a.mcp.RunStdio(ctx)
}

// transportResult drops the errors that mean a normal end of session.
func transportResult(ctx context.Context, err error) error {
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *app) printBanner(w io.Writer, dashboardURL string) {
	ui.PrintBanner(w)
	s := a.store.Get()
	startup := ui.Startup{
		Transport:      a.cfg.Transport,
		DashboardURL:   dashboardURL,
		SnapshotSource: a.source,
		Organizations:  len(s.Organizations),
		OverallStatus:  s.OverallStatus(),
		Stylesheet:     a.bundle.HasStylesheet(),
	}
	if a.cfg.Transport == config.TransportHTTP {
		startup.MCPAddr = a.cfg.MCPHTTPAddr
	}
	ui.PrintStartup(w, startup)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && ui.IsTerminal(f)
}
