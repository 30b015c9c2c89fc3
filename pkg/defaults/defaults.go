// Package defaults provides canonical default values for the entire codebase.
// This is the SINGLE SOURCE OF TRUTH for names, URIs, ports, and timeouts.
//
// Usage:
//
//	addr := fmt.Sprintf(":%d", defaults.HTTPPort)
//	w.Header().Set("Content-Type", defaults.ContentTypeJSON)
//
// Do not hardcode the tool name or the widget URI anywhere else.
package defaults

import (
	"fmt"
	"time"
)

// Version is the current dashboard-server version
const Version = "1.0.0"

// ============================================================================
// IDENTITY
// ============================================================================

const (
	// ServerName is the MCP implementation name and the log "app" attribute
	ServerName = "dashboard-server"

	// ServerTitle is the human-readable MCP implementation title
	ServerTitle = "Security Dashboard MCP Server"

	// LoggerName is the logger name used for MCP session log notifications
	LoggerName = "dashboard"
)

// UserAgent returns the dashboard-server user agent with optional context
func UserAgent(context string) string {
	if context == "" {
		return ServerName + "/" + Version
	}
	return fmt.Sprintf("%s/%s (%s)", ServerName, Version, context)
}

// ============================================================================
// MCP CAPABILITIES
// ============================================================================

const (
	// ToolShowDashboard is the name of the dashboard tool
	ToolShowDashboard = "show-dashboard"

	// ToolShowDashboardStatus is the text acknowledgment returned with the snapshot
	ToolShowDashboardStatus = "Dashboard data loaded"

	// ResourceWidgetName is the registered name of the widget resource
	ResourceWidgetName = "dashboard-widget"

	// ResourceWidgetURI is the stable URI of the widget resource
	ResourceWidgetURI = "ui://widget/dashboard.html"

	// ResourceSnapshotURI serves the canonical snapshot JSON
	ResourceSnapshotURI = "dashboard://snapshot"

	// ResourceVersionURI serves server version and capability inventory
	ResourceVersionURI = "dashboard://version"

	// PromptBriefing is the name of the dashboard briefing prompt
	PromptBriefing = "dashboard_briefing"
)

// ============================================================================
// CONTENT TYPES
// ============================================================================

const (
	// ContentTypeJSON is application/json
	ContentTypeJSON = "application/json"

	// ContentTypeSkybridge marks an embeddable interactive widget
	ContentTypeSkybridge = "text/html+skybridge"
)

// ============================================================================
// FILESYSTEM
// ============================================================================

const (
	// StaticDir is the asset directory served by the HTTP mirror
	StaticDir = "web/src"

	// ScriptPath is the required widget script
	ScriptPath = "web/src/dashboard.js"

	// StylesheetPath is the optional widget stylesheet
	StylesheetPath = "web/src/dashboard.css"

	// MaxAssetSize bounds every startup file read (4MB)
	MaxAssetSize int64 = 4 * 1024 * 1024
)

// ============================================================================
// NETWORK
// ============================================================================

const (
	// HTTPPort is the mirror listen port when PORT is unset or invalid
	HTTPPort = 3000

	// MCPHTTPAddr is the listen address of the MCP streamable HTTP transport
	MCPHTTPAddr = ":3001"

	// RateLimit is the steady-state mirror request rate (req/s). 0 leaves
	// the mirror unlimited; HTTP_RATE_LIMIT turns limiting on.
	RateLimit = 0

	// RateBurst is the mirror token bucket size once limiting is on
	RateBurst = 100

	// MaxConnections caps concurrent mirror connections
	MaxConnections = 256
)

// ============================================================================
// TIMEOUTS
// ============================================================================

const (
	// ReadHeaderTimeout protects the HTTP listeners against slowloris
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout bounds a full request read
	ReadTimeout = 30 * time.Second

	// WriteTimeout bounds mirror responses (not used for SSE)
	WriteTimeout = 30 * time.Second

	// IdleTimeout releases idle keep-alive connections
	IdleTimeout = 60 * time.Second

	// ShutdownTimeout bounds graceful HTTP shutdown
	ShutdownTimeout = 10 * time.Second

	// TelemetryTimeout bounds exporter connection and flush
	TelemetryTimeout = 5 * time.Second
)
