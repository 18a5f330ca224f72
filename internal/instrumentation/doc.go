// Package instrumentation provides OpenTelemetry instrumentation for the
// inboxdraft MCP server.
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Remote Service Metrics:
//   - external_operations_total: Counter of IMAP, SMTP, Docs and Anthropic calls by service, operation, status
//   - external_operation_duration_seconds: Histogram of those call durations
//
// Workflow Metrics:
//   - guidelines_fetch_total: Counter of writing-guidelines lookups by result (fetched, unconfigured, failed)
//   - drafts_total: Counter of reply drafts by mode (single, batch) and status
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>) and for calls to
// remote services (<service>.<operation>, e.g. imap.search).
//
// # Audit
//
// Every tool call writes one tool_executed or tool_failed record with the
// tool, outcome, duration, the message it acted on and the trace id. The
// mailbox is identified by hash and domain unless AUDIT_LOGGING_INCLUDE_PII
// is set.
//
// # Configuration
//
// ConfigFromEnv reads INSTRUMENTATION_ENABLED, METRICS_EXPORTER,
// TRACING_EXPORTER, OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_TRACES_SAMPLER_ARG,
// OTEL_SERVICE_NAME and the AUDIT_LOGGING_* switches. Malformed values are
// reported instead of ignored.
//
// The stdout exporters write to stderr so they never interleave with the
// stdio transport.
//
// # Example Usage
//
//	cfg, err := instrumentation.ConfigFromEnv(os.Getenv)
//	if err != nil {
//		return err
//	}
//	provider, err := instrumentation.NewProvider(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	ctx, done := instrumentation.ObserveOperation(ctx, provider.Metrics(), instrumentation.ServiceIMAP, instrumentation.OperationSearch)
//	err = search(ctx)
//	done(err)
package instrumentation
