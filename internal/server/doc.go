// Package server holds the application context of the MCP server and its
// HTTP surfaces.
//
// ServerContext is created once at startup from explicit Dependencies (the
// mailbox client, the optional guidelines document fetcher, the reply
// generator and the instrumentation) and passed by reference to the tool
// handlers. Shutdown cancels its context and logs out of the mailbox.
//
// HTTPServer serves the MCP server over streamable HTTP at /mcp, with
// /healthz, /readyz and /healthz/detailed from HealthChecker and request
// metrics from MetricsMiddleware. MetricsServer exposes Prometheus metrics
// on a separate port.
package server
