// Package config loads dashboard-server settings from the environment, an
// optional .env file, and command-line overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dashdeck/dashboard-server/pkg/defaults"
	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvPort           = "PORT"
	EnvSnapshot       = "DASHBOARD_SNAPSHOT"
	EnvScript         = "DASHBOARD_SCRIPT"
	EnvStylesheet     = "DASHBOARD_STYLESHEET"
	EnvStaticDir      = "DASHBOARD_STATIC_DIR"
	EnvTransport      = "MCP_TRANSPORT"
	EnvMCPHTTPAddr    = "MCP_HTTP_ADDR"
	EnvRateLimit      = "HTTP_RATE_LIMIT"
	EnvRateBurst      = "HTTP_RATE_BURST"
	EnvMaxConns       = "HTTP_MAX_CONNS"
	EnvOTLPEndpoint   = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTLPInsecure   = "OTEL_EXPORTER_OTLP_INSECURE"
	EnvOTLPServiceTag = "OTEL_SERVICE_NAME"
)

// MCP transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds all runtime configuration for the serve command.
type Config struct {
	// HTTP mirror
	Port      int    // Listen port (default: 3000)
	StaticDir string // Directory served as static files

	// Startup inputs
	SnapshotPath   string // Optional YAML/JSON snapshot; empty = built-in reference
	ScriptPath     string // Required widget script
	StylesheetPath string // Optional widget stylesheet

	// MCP transport
	Transport   string // stdio or http
	MCPHTTPAddr string // Listen address when Transport is http

	// Mirror protection
	RateLimit      float64 // Requests per second (0 = unlimited)
	RateBurst      int
	MaxConnections int // Concurrent connections (0 = unlimited)

	// Telemetry
	OTLPEndpoint string // Empty disables tracing export
	OTLPInsecure bool
	ServiceName  string
}

// Load reads .env (if present) and the process environment.
// A missing .env file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("%w: .env: %v", ErrInvalidConfig, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function. Tests pass a map-backed
// getenv instead of mutating the process environment.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:           ParsePort(getenv(EnvPort)),
		StaticDir:      valueOr(getenv(EnvStaticDir), defaults.StaticDir),
		SnapshotPath:   strings.TrimSpace(getenv(EnvSnapshot)),
		ScriptPath:     valueOr(getenv(EnvScript), defaults.ScriptPath),
		StylesheetPath: valueOr(getenv(EnvStylesheet), defaults.StylesheetPath),
		Transport:      strings.ToLower(valueOr(getenv(EnvTransport), TransportStdio)),
		MCPHTTPAddr:    valueOr(getenv(EnvMCPHTTPAddr), defaults.MCPHTTPAddr),
		RateLimit:      defaults.RateLimit,
		RateBurst:      defaults.RateBurst,
		MaxConnections: defaults.MaxConnections,
		OTLPEndpoint:   strings.TrimSpace(getenv(EnvOTLPEndpoint)),
		ServiceName:    valueOr(getenv(EnvOTLPServiceTag), defaults.ServerName),
	}

	var errs []error
	if v := strings.TrimSpace(getenv(EnvRateLimit)); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			errs = append(errs, fmt.Errorf("%s must be a non-negative number (got %q)", EnvRateLimit, v))
		} else {
			cfg.RateLimit = f
		}
	}
	if v := strings.TrimSpace(getenv(EnvRateBurst)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			errs = append(errs, fmt.Errorf("%s must be a positive integer (got %q)", EnvRateBurst, v))
		} else {
			cfg.RateBurst = n
		}
	}
	if v := strings.TrimSpace(getenv(EnvMaxConns)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = append(errs, fmt.Errorf("%s must be a non-negative integer (got %q)", EnvMaxConns, v))
		} else {
			cfg.MaxConnections = n
		}
	}
	if v := strings.TrimSpace(getenv(EnvOTLPInsecure)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s must be a boolean (got %q)", EnvOTLPInsecure, v))
		} else {
			cfg.OTLPInsecure = b
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return cfg, nil
}

// Validate checks cross-field constraints after flag overrides are applied.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportStdio:
	case TransportHTTP:
		if strings.TrimSpace(c.MCPHTTPAddr) == "" {
			return fmt.Errorf("%w: MCP HTTP address", ErrMissingRequired)
		}
	default:
		return fmt.Errorf("%w: transport must be %q or %q (got %q)",
			ErrInvalidConfig, TransportStdio, TransportHTTP, c.Transport)
	}
	if strings.TrimSpace(c.ScriptPath) == "" {
		return fmt.Errorf("%w: script path", ErrMissingRequired)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	return nil
}

// Addr returns the mirror listen address.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// ParsePort returns the port encoded in raw, or defaults.HTTPPort when raw
// is empty, not a number, or outside 1-65535.
func ParsePort(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaults.HTTPPort
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port < 1 || port > 65535 {
		return defaults.HTTPPort
	}
	return port
}

func valueOr(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
