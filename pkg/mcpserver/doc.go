// Package mcpserver exposes the security dashboard as a Model Context
// Protocol (MCP) server.
//
// # Capabilities
//
//   - Tool show-dashboard: returns the snapshot as structured content plus a
//     short text acknowledgment. Read-only and idempotent.
//   - Resource ui://widget/dashboard.html: the widget fragment with the
//     frontend script and stylesheet inlined.
//   - Resources dashboard://snapshot and dashboard://version.
//   - Prompt dashboard_briefing.
//
// Every capability reads from one immutable Runtime; handlers take no locks.
//
// # Transports
//
//   - stdio:  Communicates over stdin/stdout (default).
//   - HTTP:   Streamable HTTP with legacy SSE, for remote deployments.
//
// # Usage
//
//	rt := &mcpserver.Runtime{Store: store, Assets: bundle}
//	srv, err := mcpserver.New(rt, mcpserver.Options{Logger: logger})
//	err = srv.RunStdio(ctx)
package mcpserver
