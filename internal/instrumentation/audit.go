package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/teemow/inboxdraft/internal/logging"
)

// Audit record messages
const (
	auditMsgExecuted = "tool_executed"
	auditMsgFailed   = "tool_failed"
)

// ToolInvocation is the audit record of one MCP tool call. Account is the
// mailbox the server acts for; records carry its hash and domain unless the
// AuditLogger is configured to include PII.
type ToolInvocation struct {
	Tool    string
	Account string

	// ResourceType and ResourceID name what the call acted on, e.g. the
	// message a draft replies to
	ResourceType string
	ResourceID   string

	Start    time.Time
	Duration time.Duration

	// Err is nil for a successful call
	Err error

	TraceID string
	SpanID  string
}

// BeginToolInvocation starts the clock for a call of tool on account. The
// trace and span ids are taken from the span in ctx, if any.
func BeginToolInvocation(ctx context.Context, tool, account string) *ToolInvocation {
	return &ToolInvocation{
		Tool:    tool,
		Account: account,
		Start:   time.Now(),
		TraceID: GetTraceID(ctx),
		SpanID:  GetSpanID(ctx),
	}
}

// OnResource sets the resource the call acts on
func (ti *ToolInvocation) OnResource(resourceType, resourceID string) *ToolInvocation {
	ti.ResourceType = resourceType
	ti.ResourceID = resourceID
	return ti
}

// Finish stops the clock and records the outcome
func (ti *ToolInvocation) Finish(err error) {
	ti.Duration = time.Since(ti.Start)
	ti.Err = err
}

// Status is the metric label of the outcome
func (ti *ToolInvocation) Status() string {
	return StatusOf(ti.Err)
}

func (ti *ToolInvocation) attrs(includePII bool) []slog.Attr {
	attrs := []slog.Attr{logging.Tool(ti.Tool)}
	if includePII {
		attrs = append(attrs, slog.String("user", ti.Account))
	} else {
		attrs = append(attrs, logging.UserHash(ti.Account), logging.Domain(ti.Account))
	}
	attrs = append(attrs,
		logging.Status(ti.Status()),
		slog.Duration("duration", ti.Duration),
	)

	if ti.ResourceType != "" {
		attrs = append(attrs, slog.String("resource_type", ti.ResourceType))
	}
	if ti.ResourceID != "" {
		attrs = append(attrs, slog.String("resource_id", ti.ResourceID))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID), slog.String("span_id", ti.SpanID))
	}
	if ti.Err != nil {
		attrs = append(attrs, slog.String(logging.KeyError, ti.Err.Error()))
	}
	return attrs
}

// AuditLogger writes one record per tool call. A nil *AuditLogger writes
// nothing.
type AuditLogger struct {
	logger *slog.Logger
	cfg    AuditConfig
}

// NewAuditLogger creates an audit logger writing to logger, or to the
// default logger when nil.
func NewAuditLogger(logger *slog.Logger, cfg AuditConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{logger: logger, cfg: cfg}
}

// Log writes the record of ti: tool_executed at info, or tool_failed at
// warn level.
func (al *AuditLogger) Log(ctx context.Context, ti *ToolInvocation) {
	if al == nil || !al.cfg.Enabled {
		return
	}

	level, msg := slog.LevelInfo, auditMsgExecuted
	if ti.Err != nil {
		level, msg = slog.LevelWarn, auditMsgFailed
	}
	al.logger.LogAttrs(ctx, level, msg, ti.attrs(al.cfg.IncludePII)...)
}
