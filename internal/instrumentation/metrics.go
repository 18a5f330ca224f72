package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/teemow/inboxdraft/internal/logging"
)

// Status label values
const (
	StatusSuccess = logging.StatusSuccess
	StatusError   = logging.StatusError
)

// Remote services the server talks to
const (
	ServiceIMAP      = "imap"
	ServiceSMTP      = "smtp"
	ServiceDocs      = "docs"
	ServiceAnthropic = "anthropic"
)

// Results of a guidelines lookup
const (
	GuidelinesFetched      = "fetched"
	GuidelinesUnconfigured = "unconfigured"
	GuidelinesFailed       = "failed"
)

// Draft modes: one reply requested by the caller, or one of a batch
const (
	DraftModeSingle = "single"
	DraftModeBatch  = "batch"
)

// unknownDomain labels an account without a usable domain
const unknownDomain = "unknown"

// Metric attribute keys
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrResult    = "result"
	attrTool      = "tool"
	attrMode      = "mode"
	attrDomain    = "user_domain"
)

// Metrics provides methods for recording observability metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Remote service metrics (IMAP, SMTP, Docs, Anthropic)
	operationsTotal   metric.Int64Counter
	operationDuration metric.Float64Histogram

	// Workflow metrics
	guidelinesFetchTotal metric.Int64Counter
	draftsTotal          metric.Int64Counter

	// MCP Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.operationsTotal, err = meter.Int64Counter(
		"external_operations_total",
		metric.WithDescription("Total number of calls to the mailbox, document and generation services"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create external_operations_total counter: %w", err)
	}

	m.operationDuration, err = meter.Float64Histogram(
		"external_operation_duration_seconds",
		metric.WithDescription("Duration of calls to the mailbox, document and generation services in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create external_operation_duration_seconds histogram: %w", err)
	}

	m.guidelinesFetchTotal, err = meter.Int64Counter(
		"guidelines_fetch_total",
		metric.WithDescription("Total number of writing-guidelines lookups by result"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create guidelines_fetch_total counter: %w", err)
	}

	m.draftsTotal, err = meter.Int64Counter(
		"drafts_total",
		metric.WithDescription("Total number of reply drafts attempted by mode and status"),
		metric.WithUnit("{draft}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create drafts_total counter: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordOperation records one call to a remote service.
//
// Parameters:
//   - service: imap, smtp, docs or anthropic
//   - operation: connect, select, search, fetch, append, login, get, generate, ...
//   - status: "success" or "error"
//   - duration: time taken by the call
func (m *Metrics) RecordOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil || m.operationsTotal == nil || m.operationDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.operationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordGuidelinesFetch records a guidelines lookup.
// Result should be one of: "fetched", "unconfigured", "failed"
func (m *Metrics) RecordGuidelinesFetch(ctx context.Context, result string) {
	if m == nil || m.guidelinesFetchTotal == nil {
		return
	}

	m.guidelinesFetchTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordDraft records one reply draft attempt.
// Mode is "single" or "batch"; status is "success" or "error".
func (m *Metrics) RecordDraft(ctx context.Context, mode, status string) {
	if m == nil || m.draftsTotal == nil {
		return
	}

	m.draftsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrMode, mode),
		attribute.String(attrStatus, status),
	))
}

// RecordToolInvocation records one MCP tool call. With detailed labels the
// domain of account is added as user_domain.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status, account string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels {
		domain := logging.ExtractDomain(account)
		if domain == "" {
			domain = unknownDomain
		}
		attrs = append(attrs, attribute.String(attrDomain, domain))
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// StatusOf maps an error to the status label value.
func StatusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}
