package common

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/teemow/inboxdraft/internal/instrumentation"
	"github.com/teemow/inboxdraft/internal/logging"
	"github.com/teemow/inboxdraft/internal/mailbox"
	"github.com/teemow/inboxdraft/internal/server"
)

type stubMailbox struct{}

func (stubMailbox) GetUnreadEmails(context.Context, int) (mailbox.Buckets, error) {
	return mailbox.NewBuckets(), nil
}

func (stubMailbox) CreateDraftReply(context.Context, string, string, string, string) error { return nil }

func (stubMailbox) Account() string { return "me@example.com" }

func (stubMailbox) Close(context.Context) error { return nil }

type stubGenerator struct{}

func (stubGenerator) Generate(context.Context, string) (string, error) { return "reply", nil }

func newServerContext(t *testing.T, metrics *instrumentation.Metrics, audit *instrumentation.AuditLogger) *server.ServerContext {
	t.Helper()
	sc, err := server.NewServerContext(context.Background(), server.Dependencies{
		Mailbox:     stubMailbox{},
		Generator:   stubGenerator{},
		Logger:      logging.Discard(),
		Metrics:     metrics,
		AuditLogger: audit,
	})
	if err != nil {
		t.Fatalf("failed to create server context: %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

// instrumented builds a ServerContext with a manual metrics reader, an
// in-memory span exporter and a JSON audit log
func instrumented(t *testing.T) (*server.ServerContext, *sdkmetric.ManualReader, *tracetest.InMemoryExporter, *bytes.Buffer) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := instrumentation.NewMetrics(mp.Meter("test"), false)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	var audit bytes.Buffer
	sc := newServerContext(t, metrics,
		instrumentation.NewAuditLogger(slog.New(slog.NewJSONHandler(&audit, nil)), instrumentation.AuditConfig{Enabled: true}))

	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return sc, reader, exporter, &audit
}

func toolInvocations(t *testing.T, reader *sdkmetric.ManualReader, status string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "mcp_tool_invocations_total" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				if v, ok := dp.Attributes.Value("status"); ok && v.AsString() == status {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestInstrumentedToolHandler_Success(t *testing.T) {
	sc, reader, exporter, audit := instrumented(t)

	called := false
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("success"), nil
	}

	wrapped := InstrumentedToolHandler("create_draft_reply",
		ToolOptions{ResourceType: "message", ResourceArg: "email_id"}, sc, handler)
	result, err := wrapped(context.Background(), callRequest(map[string]interface{}{"email_id": "42"}))

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if !called {
		t.Error("expected handler to be called")
	}
	if result == nil || result.IsError {
		t.Errorf("expected successful result, got %+v", result)
	}

	if got := toolInvocations(t, reader, instrumentation.StatusSuccess); got != 1 {
		t.Errorf("success invocations = %d, want 1", got)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("len(spans) = %d, want 1", len(spans))
	}
	if spans[0].Name != "tool.create_draft_reply" {
		t.Errorf("span name = %q, want tool.create_draft_reply", spans[0].Name)
	}

	var record map[string]interface{}
	if err := json.Unmarshal(audit.Bytes(), &record); err != nil {
		t.Fatalf("audit record is not JSON: %v (%q)", err, audit.String())
	}
	if record["msg"] != "tool_executed" {
		t.Errorf("audit msg = %v, want tool_executed", record["msg"])
	}
	if record["resource_id"] != "42" {
		t.Errorf("audit resource_id = %v, want 42", record["resource_id"])
	}
	if want := spans[0].SpanContext.TraceID().String(); record["trace_id"] != want {
		t.Errorf("audit trace_id = %v, want %s", record["trace_id"], want)
	}
	if record["user_domain"] != "example.com" {
		t.Errorf("audit user_domain = %v, want example.com", record["user_domain"])
	}
	if strings.Contains(audit.String(), "me@example.com") {
		t.Error("audit record must not contain the full address by default")
	}
}

func TestInstrumentedToolHandler_Error(t *testing.T) {
	sc, reader, exporter, _ := instrumented(t)

	expectedErr := errors.New("test error")
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, expectedErr
	}

	wrapped := InstrumentedToolHandler("test_tool", ToolOptions{}, sc, handler)
	_, err := wrapped(context.Background(), mcp.CallToolRequest{})

	if err != expectedErr {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
	if got := toolInvocations(t, reader, instrumentation.StatusError); got != 1 {
		t.Errorf("error invocations = %d, want 1", got)
	}
	if spans := exporter.GetSpans(); len(spans) != 1 || spans[0].Status.Code != codes.Error {
		t.Errorf("expected one span with error status, got %+v", spans)
	}
}

func TestInstrumentedToolHandler_ErrorResult(t *testing.T) {
	sc, reader, _, audit := instrumented(t)

	// Create a handler that returns an error result (not Go error)
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("Error fetching emails: timeout"), nil
	}

	wrapped := InstrumentedToolHandler("get_unread_emails", ToolOptions{ReadOnly: true}, sc, handler)
	result, err := wrapped(context.Background(), mcp.CallToolRequest{})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result == nil || !result.IsError {
		t.Error("expected result.IsError to be true")
	}
	if got := toolInvocations(t, reader, instrumentation.StatusError); got != 1 {
		t.Errorf("error invocations = %d, want 1", got)
	}
	if !strings.Contains(audit.String(), "Error fetching emails: timeout") {
		t.Errorf("audit record should carry the error text, got %q", audit.String())
	}
}

func TestInstrumentedToolHandler_RecoversPanic(t *testing.T) {
	sc, reader, _, _ := instrumented(t)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		panic("boom")
	}

	wrapped := InstrumentedToolHandler("test_tool", ToolOptions{}, sc, handler)
	result, err := wrapped(context.Background(), mcp.CallToolRequest{})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("expected an error result")
	}
	text := result.Content[0].(mcp.TextContent).Text
	if text != "Internal error in test_tool: boom" {
		t.Errorf("text = %q", text)
	}
	if got := toolInvocations(t, reader, instrumentation.StatusError); got != 1 {
		t.Errorf("error invocations = %d, want 1", got)
	}
}

func TestInstrumentedToolHandler_WithoutInstrumentation(t *testing.T) {
	sc := newServerContext(t, nil, nil)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("success"), nil
	}

	wrapped := InstrumentedToolHandler("test_tool", ToolOptions{}, sc, handler)
	result, err := wrapped(context.Background(), mcp.CallToolRequest{})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result == nil {
		t.Error("expected result, got nil")
	}
}
