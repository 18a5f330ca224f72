package instrumentation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// useRecorder installs an in-memory tracer provider for the duration of the test.
func useRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func spanAttrs(attrs []attribute.KeyValue) map[string]any {
	m := make(map[string]any, len(attrs))
	for _, a := range attrs {
		m[string(a.Key)] = a.Value.AsInterface()
	}
	return m
}

func TestResourceAttrs(t *testing.T) {
	assert.Empty(t, ResourceAttrs("", ""))
	assert.Equal(t, map[string]any{SpanAttrResourceType: "document"}, spanAttrs(ResourceAttrs("document", "")))
	assert.Equal(t, map[string]any{
		SpanAttrResourceType: "message",
		SpanAttrResourceID:   "12",
	}, spanAttrs(ResourceAttrs("message", "12")))
}

func TestStartToolSpan(t *testing.T) {
	exporter := useRecorder(t)

	_, span := StartToolSpan(context.Background(), "create_draft_reply", false, ResourceAttrs("message", "12")...)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "tool.create_draft_reply", spans[0].Name)
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind)
	assert.Equal(t, map[string]any{
		SpanAttrTool:         "create_draft_reply",
		SpanAttrReadOnly:     false,
		SpanAttrResourceType: "message",
		SpanAttrResourceID:   "12",
	}, spanAttrs(spans[0].Attributes))
}

func TestObserveOperation(t *testing.T) {
	tests := []struct {
		name       string
		service    string
		operation  string
		err        error
		wantSpan   string
		wantStatus codes.Code
	}{
		{name: "imap search", service: ServiceIMAP, operation: OperationSearch, wantSpan: "imap.search", wantStatus: codes.Ok},
		{name: "smtp login failure", service: ServiceSMTP, operation: OperationLogin, err: errors.New("535 authentication failed"), wantSpan: "smtp.login", wantStatus: codes.Error},
		{name: "docs get", service: ServiceDocs, operation: OperationGet, wantSpan: "docs.get", wantStatus: codes.Ok},
		{name: "anthropic generate", service: ServiceAnthropic, operation: OperationGenerate, wantSpan: "anthropic.generate", wantStatus: codes.Ok},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter := useRecorder(t)
			m, reader := newManualMetrics(t, false)

			_, done := ObserveOperation(context.Background(), m, tt.service, tt.operation)
			done(tt.err)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.wantSpan, spans[0].Name)
			assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind)
			assert.Equal(t, tt.wantStatus, spans[0].Status.Code)
			assert.Equal(t, int64(1), counterTotal(t, reader, "external_operations_total"))
		})
	}
}

func TestObserveOperation_NilMetrics(t *testing.T) {
	exporter := useRecorder(t)

	_, done := ObserveOperation(context.Background(), nil, ServiceIMAP, OperationAppend)
	done(nil)

	assert.Len(t, exporter.GetSpans(), 1)
}

func TestSetSpanError_IgnoresNil(t *testing.T) {
	exporter := useRecorder(t)

	_, span := StartClientSpan(context.Background(), ServiceIMAP, OperationFetch)
	SetSpanError(span, nil)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
	assert.Empty(t, spans[0].Events)
}

func TestTraceAndSpanIDs(t *testing.T) {
	useRecorder(t)

	assert.Empty(t, GetTraceID(context.Background()))
	assert.Empty(t, GetSpanID(context.Background()))

	ctx, span := StartClientSpan(context.Background(), ServiceDocs, OperationGet)
	defer span.End()

	assert.Equal(t, span.SpanContext().TraceID().String(), GetTraceID(ctx))
	assert.Equal(t, span.SpanContext().SpanID().String(), GetSpanID(ctx))
}
