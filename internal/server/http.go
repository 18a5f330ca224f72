package server

import (
	"context"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxdraft/internal/logging"
)

// MCPEndpoint is the path of the streamable HTTP transport
const MCPEndpoint = "/mcp"

// HTTPServer serves an MCP server over streamable HTTP together with the
// health endpoints
type HTTPServer struct {
	mcpServer  *mcpserver.MCPServer
	sc         *ServerContext
	health     *HealthChecker
	httpServer *http.Server
}

// NewHTTPServer creates an HTTP server for mcpServer
func NewHTTPServer(mcpServer *mcpserver.MCPServer, sc *ServerContext) *HTTPServer {
	return &HTTPServer{
		mcpServer: mcpServer,
		sc:        sc,
		health:    NewHealthChecker(sc),
	}
}

// Health returns the health checker behind /healthz and /readyz
func (s *HTTPServer) Health() *HealthChecker {
	return s.health
}

// Handler returns the routes of the server
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(MCPEndpoint),
	)
	mux.Handle(MCPEndpoint, MetricsMiddleware(s.sc.Metrics(), streamable))

	s.health.RegisterHealthEndpoints(mux)
	return mux
}

// Start listens on addr and serves until Shutdown
func (s *HTTPServer) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown
func (s *HTTPServer) Serve(ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.sc.Context() },
	}

	s.sc.logger.Info("Starting MCP HTTP server", "addr", ln.Addr().String(), "endpoint", MCPEndpoint)
	return s.httpServer.Serve(ln)
}

// Shutdown marks the server as not ready and gracefully shuts it down
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	if s.httpServer != nil {
		s.sc.logger.Info("Shutting down MCP HTTP server")
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.sc.logger.Error("HTTP server shutdown failed", logging.Err(err))
			return err
		}
	}
	return nil
}
