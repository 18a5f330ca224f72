package instrumentation

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of every span the server starts
const TracerName = "github.com/teemow/inboxdraft"

// Operations on the remote services, used in span names and metric labels
const (
	OperationConnect  = "connect"
	OperationLogin    = "login"
	OperationSelect   = "select"
	OperationSearch   = "search"
	OperationFetch    = "fetch"
	OperationAppend   = "append"
	OperationGet      = "get"
	OperationGenerate = "generate"
)

// Span attribute keys
const (
	SpanAttrTool         = "mcp.tool"
	SpanAttrReadOnly     = "mcp.read_only"
	SpanAttrResourceType = "mcp.resource_type"
	SpanAttrResourceID   = "mcp.resource_id"
	SpanAttrService      = "remote.service"
	SpanAttrOperation    = "remote.operation"
)

func tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(TracerName)
}

// ResourceAttrs describes the message or document a span acts on. Empty
// values are left out.
func ResourceAttrs(resourceType, resourceID string) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if resourceType != "" {
		attrs = append(attrs, attribute.String(SpanAttrResourceType, resourceType))
	}
	if resourceID != "" {
		attrs = append(attrs, attribute.String(SpanAttrResourceID, resourceID))
	}
	return attrs
}

// StartToolSpan starts the server span "tool.<name>" of an MCP tool call
func StartToolSpan(ctx context.Context, toolName string, readOnly bool, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{
		attribute.String(SpanAttrTool, toolName),
		attribute.Bool(SpanAttrReadOnly, readOnly),
	}, attrs...)
	return tracer().Start(ctx, "tool."+toolName,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartClientSpan starts the client span "<service>.<operation>", e.g.
// imap.search
func StartClientSpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{
		attribute.String(SpanAttrService, service),
		attribute.String(SpanAttrOperation, operation),
	}, attrs...)
	return tracer().Start(ctx, service+"."+operation,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// ObserveOperation starts a client span for a remote call. The returned
// function ends the span with the call's outcome and records it in m, which
// may be nil.
//
//	ctx, done := instrumentation.ObserveOperation(ctx, m, instrumentation.ServiceIMAP, instrumentation.OperationSearch)
//	err := search(ctx)
//	done(err)
func ObserveOperation(ctx context.Context, m *Metrics, service, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := StartClientSpan(ctx, service, operation, attrs...)
	return ctx, func(err error) {
		EndSpan(span, err)
		m.RecordOperation(ctx, service, operation, StatusOf(err), time.Since(start))
	}
}

// EndSpan sets the span status from err and ends it
func EndSpan(span trace.Span, err error) {
	if err != nil {
		SetSpanError(span, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// SetSpanError records err on the span. A nil err is ignored.
func SetSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// GetTraceID returns the trace id of the span in ctx, or "" without one
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// GetSpanID returns the span id of the span in ctx, or "" without one
func GetSpanID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.SpanID().String()
}
