package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/graviton-studio/logos-I/internal/instrumentation"
	"github.com/graviton-studio/logos-I/internal/server"
)

// ToolHandler is the mcp-go handler signature. An alias, not a defined
// type, so wrapped handlers pass straight into MCPServer.AddTool.
type ToolHandler = mcpserver.ToolHandlerFunc

// InstrumentedToolHandler wraps a tool handler with metrics and audit
// logging.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return instrumented(toolName, "", "", sc, handler)
}

// InstrumentedToolHandlerWithProvider additionally records which provider
// API the tool drives, feeding the per-provider operation metrics.
func InstrumentedToolHandlerWithProvider(toolName, providerKey, operation string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return instrumented(toolName, providerKey, operation, sc, handler)
}

func instrumented(toolName, providerKey, operation string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()
		if metrics == nil && auditLogger == nil {
			return handler(ctx, request)
		}

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).WithSpanContext(ctx)
		if providerKey != "" {
			invocation.WithProvider(providerKey, operation)
		}
		if userID, err := UserID(ctx, request.GetArguments()); err == nil {
			invocation.WithUser(userID)
		}

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			invocation.CompleteWithError(err)
		case result != nil && result.IsError:
			// Tool-level failures are reported in the result, not the error.
			status = instrumentation.StatusError
			invocation.Complete(false, nil)
		default:
			invocation.CompleteSuccess()
		}

		metrics.RecordToolInvocation(ctx, toolName, status, duration)
		if providerKey != "" {
			metrics.RecordProviderAPIOperation(ctx, providerKey, operation, status, duration)
		}
		if auditLogger != nil {
			auditLogger.LogToolInvocation(invocation)
		}

		return result, err
	}
}
