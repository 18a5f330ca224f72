package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/inboxdraft/internal/instrumentation"
	"github.com/teemow/inboxdraft/internal/server"
)

// ToolHandler is the signature of an MCP tool handler
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// ToolOptions describe a tool for spans and audit records
type ToolOptions struct {
	// ReadOnly marks tools that do not change the mailbox
	ReadOnly bool

	// ResourceType and ResourceArg name the argument that identifies the
	// resource a call acts on, e.g. "message" and "email_id"
	ResourceType string
	ResourceArg  string
}

// InstrumentedToolHandler wraps a tool handler with a span, metrics and audit
// logging. A panic in the handler is recovered and returned as an error result.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", common.ToolOptions{}, sc, handler))
func InstrumentedToolHandler(toolName string, opts ToolOptions, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		var resourceID string
		if opts.ResourceArg != "" {
			resourceID, _ = request.GetArguments()[opts.ResourceArg].(string)
		}

		ctx, span := instrumentation.StartToolSpan(ctx, toolName, opts.ReadOnly,
			instrumentation.ResourceAttrs(opts.ResourceType, resourceID)...)
		invocation := instrumentation.BeginToolInvocation(ctx, toolName, sc.Account()).
			OnResource(opts.ResourceType, resourceID)

		defer func() {
			if r := recover(); r != nil {
				result = mcp.NewToolResultError(fmt.Sprintf("Internal error in %s: %v", toolName, r))
				err = nil
				finish(ctx, sc, span, invocation, fmt.Errorf("panic: %v", r))
			}
		}()

		result, err = handler(ctx, request)

		outcome := err
		if outcome == nil && result != nil && result.IsError {
			outcome = errors.New(resultText(result))
		}
		finish(ctx, sc, span, invocation, outcome)

		return result, err
	}
}

// finish ends the span and records the call in the metrics and audit log
func finish(ctx context.Context, sc *server.ServerContext, span trace.Span, invocation *instrumentation.ToolInvocation, err error) {
	invocation.Finish(err)
	instrumentation.EndSpan(span, err)
	sc.Metrics().RecordToolInvocation(ctx, invocation.Tool, invocation.Status(), invocation.Account, invocation.Duration)
	sc.AuditLogger().Log(ctx, invocation)
}

// resultText returns the text of the first text content of a result
func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			return tc.Text
		}
	}
	return "tool returned an error"
}
