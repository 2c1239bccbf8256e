// Package bridge exposes the host to MCP clients over stdio. Each tool call
// is forwarded to the host as one framed request.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/blwfish/freecad-mcp-sub000/internal/ipc"
	"github.com/blwfish/freecad-mcp-sub000/internal/registry"
	"github.com/blwfish/freecad-mcp-sub000/internal/response"
	"github.com/blwfish/freecad-mcp-sub000/internal/selection"
	"github.com/blwfish/freecad-mcp-sub000/internal/tracing"
)

const (
	ServerName    = "freecad"
	ServerVersion = "2.1.1"
)

// keyContinueInteractive marks a family call that resumes an interactive
// payload returned earlier by this bridge.
const keyContinueInteractive = "_continue_from_interactive"

// Caller sends one request to the host.
type Caller interface {
	Call(ctx context.Context, req *ipc.Request) (ipc.Envelope, error)
	Ping(ctx context.Context) error
	Address() string
}

// Bridge is an MCP server backed by a host connection.
type Bridge struct {
	caller Caller
	mcp    *server.MCPServer
	tracer trace.Tracer
	logger *slog.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the bridge logger. It must not write to stdout.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithTracer records a span per forwarded call.
func WithTracer(t trace.Tracer) Option {
	return func(b *Bridge) {
		if t != nil {
			b.tracer = t
		}
	}
}

// New builds the MCP server and registers every tool.
func New(caller Caller, opts ...Option) *Bridge {
	b := &Bridge{
		caller: caller,
		tracer: noop.NewTracerProvider().Tracer("noop"),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.mcp = server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false))
	b.registerTools()
	return b
}

// MCPServer returns the underlying mcp-go server.
func (b *Bridge) MCPServer() *server.MCPServer {
	return b.mcp
}

// Serve speaks MCP over in/out until ctx is done or in closes.
func (b *Bridge) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(b.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(b.logger.Handler(), slog.LevelError))
	b.logger.Info("bridge serving", "host", b.caller.Address())
	return stdio.Listen(ctx, in, out)
}

func (b *Bridge) checkConnection(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	err := b.caller.Ping(ctx)
	status := map[string]any{
		"freecad_socket_exists": err == nil,
		"socket_path":           b.caller.Address(),
	}
	if err == nil {
		status["status"] = "FreeCAD running with AI Copilot workbench"
	} else {
		status["status"] = "FreeCAD not running. Please start FreeCAD and switch to AI Copilot workbench"
		status["error"] = err.Error()
	}
	return mcp.NewToolResultStructured(status, response.Text(status)), nil
}

func (b *Bridge) echo(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	msg := "No message provided"
	if s, ok := req.GetArguments()["message"].(string); ok && s != "" {
		msg = s
	}
	return mcp.NewToolResultText("Bridge received: " + msg), nil
}

// forwardTool sends the call to the host under its own name, or resumes an
// earlier interactive payload under the tool that produced it.
func (b *Bridge) forwardTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := registry.Args(req.GetArguments()).Clone()
	tool := req.Params.Name

	if args.Bool(keyContinueInteractive) {
		id, _ := args.String(registry.KeyPublicOperation)
		if orig, ok := args.String("tool_name"); ok && orig != "" {
			tool = orig
		}
		resumed := registry.Args{}
		if original, ok := args["original_args"].(map[string]any); ok {
			resumed = registry.Args(original).Clone()
		}
		resumed[registry.KeyContinue] = true
		resumed[registry.KeyOperationID] = id
		args = resumed
	}
	return b.forward(ctx, tool, args), nil
}

func (b *Bridge) continueSelection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := registry.Args(req.GetArguments()).String(registry.KeyPublicOperation)
	if strings.TrimSpace(id) == "" {
		return mcp.NewToolResultError("Error: operation_id is required to continue selection"), nil
	}
	return b.forward(ctx, string(registry.ToolContinueSelection), registry.Args{registry.KeyPublicOperation: id}), nil
}

func (b *Bridge) forward(ctx context.Context, tool string, args registry.Args) *mcp.CallToolResult {
	ctx, span := b.tracer.Start(ctx, "bridge.forward", trace.WithAttributes(
		attribute.String(tracing.AttrTool, tool),
	))
	defer span.End()

	env, err := b.caller.Call(ctx, &ipc.Request{Tool: tool, Args: args})
	if err != nil {
		b.logger.Warn("host call failed", "tool", tool, "error", err)
		span.SetStatus(codes.Error, err.Error())
		return mcp.NewToolResultError(fmt.Sprintf("Socket communication error: %v", err))
	}
	if env.IsError() {
		span.SetStatus(codes.Error, env.Error)
		span.SetAttributes(attribute.String(tracing.AttrOutcome, tracing.OutcomeError))
		return response.ToolResult(env)
	}

	if payload, ok := env.Result.(map[string]any); ok && payload["status"] == selection.StatusAwaiting {
		span.SetAttributes(attribute.String(tracing.AttrOutcome, tracing.OutcomeAwaiting))
		interactive := Interactive(tool, args, payload)
		data, _ := json.Marshal(interactive)
		return mcp.NewToolResultStructured(interactive, string(data))
	}
	span.SetAttributes(attribute.String(tracing.AttrOutcome, tracing.OutcomeOK))
	return response.ToolResult(env)
}

// Interactive turns an awaiting_selection payload into the prompt an MCP
// client shows the user, carrying what it needs to resume.
func Interactive(tool string, originalArgs registry.Args, payload map[string]any) map[string]any {
	message, _ := payload["message"].(string)
	if message == "" {
		message = "Please make selection in FreeCAD"
	}
	selType, _ := payload["selection_type"].(string)
	if selType == "" {
		selType = "elements"
	}
	objectName, _ := payload["object_name"].(string)

	return map[string]any{
		"interactive":    true,
		"message":        "Interactive Selection Required\n\n" + message,
		"operation_id":   payload["operation_id"],
		"selection_type": selType,
		"object_name":    objectName,
		"tool_name":      tool,
		"original_args":  map[string]any(originalArgs.WithoutControl()),
		"instructions": fmt.Sprintf("1. Go to FreeCAD and select %s on %s\n2. Return here and call continue_selection with operation_id",
			selType, objectName),
	}
}
