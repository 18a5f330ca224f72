package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxdraft/internal/config"
	"github.com/teemow/inboxdraft/internal/docs"
	"github.com/teemow/inboxdraft/internal/generator"
	"github.com/teemow/inboxdraft/internal/google"
	"github.com/teemow/inboxdraft/internal/instrumentation"
	"github.com/teemow/inboxdraft/internal/logging"
	"github.com/teemow/inboxdraft/internal/mailbox"
	"github.com/teemow/inboxdraft/internal/server"
	"github.com/teemow/inboxdraft/internal/tools/mail_tools"
)

// Transport names accepted by --transport
const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

type serveOptions struct {
	configFile string
	envFile    string
	debugMode  bool
	transport  string
	httpAddr   string
	metrics    MetricsConfig
}

func newServeCmd() *cobra.Command {
	var (
		debugMode      bool
		transport      string
		httpAddr       string
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server that provides the reply
drafting tools to AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp, with /healthz and /readyz

Configuration:
  EMAIL_USER, EMAIL_APP_PASSWORD and ANTHROPIC_API_KEY are required. The
  password may instead come from the system keyring (EMAIL_USE_KEYRING=true,
  see "inboxdraft credentials set"). Set GUIDELINES_DOC_ID to ground replies
  in a Google Doc; run "inboxdraft auth" once to authorize access to it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, envFile := configOptions(cmd)
			return runServe(serveOptions{
				configFile: configFile,
				envFile:    envFile,
				debugMode:  debugMode,
				transport:  transport,
				httpAddr:   httpAddr,
				metrics: MetricsConfig{
					Enabled: metricsEnabled,
					Addr:    metricsAddr,
				},
			})
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")

	// Metrics server flags
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(opts serveOptions) error {
	if opts.transport != transportStdio && opts.transport != transportStreamableHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.transport)
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.Options{
		ConfigFile: opts.configFile,
		EnvFile:    opts.envFile,
	})
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Logs always go to stderr; stdout carries the stdio transport
	level := cfg.LogLevel
	if opts.debugMode {
		level = "debug"
	}
	logger := logging.New(os.Stderr, level, cfg.LogFormat)
	slog.SetDefault(logger)
	log := logging.NewSlogAdapter(logger)

	// Load metrics config from environment if not set via flags
	if !opts.metrics.Enabled && os.Getenv("METRICS_ENABLED") == "true" {
		opts.metrics.Enabled = true
	}
	if opts.metrics.Addr == "" || opts.metrics.Addr == ":9090" {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			opts.metrics.Addr = addr
		}
	}

	// Initialize instrumentation provider
	instrConfig, err := instrumentation.ConfigFromEnv(os.Getenv)
	if err != nil {
		return fmt.Errorf("invalid instrumentation configuration: %w", err)
	}
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			log.Error("Error during instrumentation shutdown", logging.Err(err))
		}
	}()

	var metrics *instrumentation.Metrics
	if provider.Enabled() {
		metrics = provider.Metrics()
	}

	// The metrics server only makes sense next to a network transport
	var metricsServer *server.MetricsServer
	if opts.transport != transportStdio && opts.metrics.Enabled && provider.PrometheusHandler() != nil {
		metricsServer, err = startMetricsServer(opts.metrics, provider, logger)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				log.Error("Error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	deps := server.Dependencies{
		Mailbox: mailbox.NewClient(mailbox.Config{
			IMAPAddr:      cfg.IMAPAddr,
			SMTPAddr:      cfg.SMTPAddr,
			Username:      cfg.EmailUser,
			Password:      cfg.EmailPassword,
			DraftsMailbox: cfg.DraftsMailbox,
			Logger:        log,
			Metrics:       metrics,
		}),
		Generator: generator.NewAnthropicGenerator(generator.Config{
			APIKey:    cfg.AnthropicAPIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Logger:    log,
			Metrics:   metrics,
		}),
		GuidelinesDocID: cfg.GuidelinesDocID,
		Logger:          log,
		Metrics:         metrics,
	}
	if cfg.GuidelinesEnabled() {
		// No authorizer: without a cached token the guidelines are skipped
		// until "inboxdraft auth" has been run
		deps.Documents = docs.NewClient(docs.Config{
			CredentialsFile: cfg.GoogleCredentialsFile,
			TokenFile:       cfg.GoogleTokenFile,
			Logger:          log,
			Metrics:         metrics,
		})
		if !google.NewFileTokenStore(cfg.GoogleTokenFile).HasToken() {
			log.Warn("No Google token found, replies are drafted without guidelines",
				"token_file", cfg.GoogleTokenFile,
				"hint", "run \"inboxdraft auth\" to authorize Google Docs access")
		}
	}
	if provider.Enabled() && instrConfig.Audit.Enabled {
		deps.AuditLogger = instrumentation.NewAuditLogger(logger, instrConfig.Audit)
	}

	serverContext, err := server.NewServerContext(shutdownCtx, deps)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			log.Error("Error during server context shutdown", logging.Err(err))
		}
	}()

	mcpSrv, err := newMCPServer(serverContext)
	if err != nil {
		return err
	}

	log.Info("Starting inboxdraft MCP server",
		"transport", opts.transport,
		"version", version,
		logging.Domain(cfg.EmailUser),
		"guidelines", cfg.GuidelinesEnabled())

	switch opts.transport {
	case transportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, opts.httpAddr, log)
	default:
		return runStdioServer(mcpSrv)
	}
}

// newMCPServer creates the MCP server with every tool registered
func newMCPServer(sc *server.ServerContext) (*mcpserver.MCPServer, error) {
	mcpSrv := mcpserver.NewMCPServer(config.AppName, version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)

	if err := mail_tools.RegisterMailTools(mcpSrv, sc); err != nil {
		return nil, fmt.Errorf("failed to register mail tools: %w", err)
	}
	return mcpSrv, nil
}

func startMetricsServer(cfg MetricsConfig, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    cfg.Addr,
		Enabled:                 true,
		InstrumentationProvider: provider,
		Logger:                  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case <-metricsReady:
		logger.Info("Metrics server started", "addr", metricsServer.Addr())
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, addr string, log logging.Logger) error {
	httpServer := server.NewHTTPServer(mcpSrv, sc)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
	}

	log.Info("HTTP server gracefully stopped")
	return nil
}
