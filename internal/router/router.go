// Package router turns a decoded request into an envelope. It looks the tool
// up in the registry, runs the operation on the GUI thread through the
// dispatch queue and resumes suspended selections. A Router holds no mutable
// state and may be called from any goroutine.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/blwfish/freecad-mcp-sub000/internal/dispatch"
	"github.com/blwfish/freecad-mcp-sub000/internal/ipc"
	"github.com/blwfish/freecad-mcp-sub000/internal/registry"
	"github.com/blwfish/freecad-mcp-sub000/internal/selection"
	"github.com/blwfish/freecad-mcp-sub000/internal/tracing"
)

// MsgSelectionNotFound is reported for unknown, consumed or expired ids.
const MsgSelectionNotFound = "Selection operation not found or expired"

// Dispatcher runs work on the GUI thread.
type Dispatcher interface {
	Submit(ctx context.Context, work dispatch.WorkFunc, timeout time.Duration) dispatch.TaskResult
}

// Selections completes suspended operations.
type Selections interface {
	Pending(id string) (selection.Request, bool)
	CompleteSelection(ctx context.Context, id string) (selection.Result, error)
}

// Router is the error boundary between operations and client envelopes.
type Router struct {
	registry   *registry.Registry
	queue      Dispatcher
	selections Selections
	timeout    time.Duration
	tracer     trace.Tracer
	logger     *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithTimeout bounds each GUI-thread call.
func WithTimeout(d time.Duration) Option {
	return func(r *Router) { r.timeout = d }
}

// WithTracer records a span per routed request.
func WithTracer(t trace.Tracer) Option {
	return func(r *Router) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithLogger sets the router logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a router over reg.
func New(reg *registry.Registry, queue Dispatcher, selections Selections, opts ...Option) *Router {
	r := &Router{
		registry:   reg,
		queue:      queue,
		selections: selections,
		timeout:    dispatch.DefaultTimeout,
		tracer:     noop.NewTracerProvider().Tracer("noop"),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route executes req and always returns an envelope. It has the
// ipc.Handler signature.
func (r *Router) Route(ctx context.Context, req *ipc.Request) ipc.Envelope {
	tool := registry.Tool(req.Tool)
	args := registry.Args(req.Args)
	if args == nil {
		args = registry.Args{}
	}

	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "router.route", trace.WithAttributes(
		attribute.String(tracing.AttrTool, string(tool)),
	))
	defer span.End()

	env, outcome := r.route(ctx, span, tool, args)

	span.SetAttributes(attribute.String(tracing.AttrOutcome, outcome))
	if env.IsError() {
		span.SetStatus(codes.Error, env.Error)
	}
	r.logger.DebugContext(ctx, "routed request",
		"tool", tool,
		"outcome", outcome,
		"duration", time.Since(start),
	)
	return env
}

func (r *Router) route(ctx context.Context, span trace.Span, tool registry.Tool, args registry.Args) (ipc.Envelope, string) {
	if tool == registry.ToolContinueSelection {
		id, _ := args.String(registry.KeyPublicOperation)
		if id == "" {
			return ipc.Error("operation_id is required"), tracing.OutcomeError
		}
		return r.resume(ctx, span, nil, id, args)
	}

	route, ok := r.registry.Lookup(tool)
	if !ok {
		return ipc.Errorf("Unknown tool: %s", tool), tracing.OutcomeBadRoute
	}
	span.SetAttributes(attribute.String(tracing.AttrRouteKind, route.Kind.String()))

	if args.IsContinuation() {
		if route.Kind != registry.KindSelectable {
			return ipc.Errorf("%s does not support selection continuation", tool), tracing.OutcomeBadRoute
		}
		id, _ := args.String(registry.KeyOperationID)
		return r.resume(ctx, span, &route, id, args)
	}

	switch route.Kind {
	case registry.KindDirect:
		return r.submit(ctx, func(ctx context.Context) (any, error) {
			return route.Op(ctx, args.WithoutControl())
		})

	case registry.KindFamily:
		op, _ := args.String(registry.KeyOperation)
		if op == "" {
			return ipc.Errorf("%s requires an 'operation' argument", tool), tracing.OutcomeBadRoute
		}
		span.SetAttributes(attribute.String(tracing.AttrOperation, op))
		member, ok := route.Member(op)
		if !ok {
			return ipc.Errorf("Unknown %s operation: %s", tool, op), tracing.OutcomeBadRoute
		}
		return r.submit(ctx, func(ctx context.Context) (any, error) {
			return member(ctx, args.WithoutControl())
		})

	case registry.KindSelectable:
		return r.submit(ctx, func(ctx context.Context) (any, error) {
			return route.Phases.Begin(ctx, args.WithoutControl())
		})

	default:
		return ipc.Errorf("Unknown tool: %s", tool), tracing.OutcomeBadRoute
	}
}

// resume finishes the operation suspended under id. When route is nil the
// tool is taken from the stored request.
func (r *Router) resume(ctx context.Context, span trace.Span, route *registry.Route, id string, clientArgs registry.Args) (ipc.Envelope, string) {
	span.SetAttributes(attribute.String(tracing.AttrOperationID, id))

	pending, ok := r.selections.Pending(id)
	if !ok {
		return ipc.Error(MsgSelectionNotFound), tracing.OutcomeNotFound
	}
	if route == nil {
		found, ok := r.registry.Lookup(registry.Tool(pending.ToolName))
		if !ok || found.Kind != registry.KindSelectable {
			return ipc.Errorf("Unknown tool: %s", pending.ToolName), tracing.OutcomeBadRoute
		}
		route = &found
	} else if string(route.Tool) != pending.ToolName {
		return ipc.Errorf("Selection operation %s belongs to %s, not %s", id, pending.ToolName, route.Tool), tracing.OutcomeBadRoute
	}

	// Picks may come from the live GUI selection, which goes through the
	// dispatch queue, so this must run here and not inside a GUI task.
	sel, err := r.selections.CompleteSelection(ctx, id)
	if err != nil {
		if errors.Is(err, selection.ErrNotFound) {
			return ipc.Error(MsgSelectionNotFound), tracing.OutcomeNotFound
		}
		return ipc.Error(err.Error()), tracing.OutcomeError
	}

	args := registry.Args(sel.Extra).Merge(clientArgs.WithoutControl()).Without(registry.KeyPublicOperation)
	if _, ok := args.String("object_name"); !ok && sel.ObjectName != "" {
		args["object_name"] = sel.ObjectName
	}

	finish := route.Phases.Finish
	return r.submit(ctx, func(ctx context.Context) (any, error) {
		return finish(ctx, args, sel)
	})
}

func (r *Router) submit(ctx context.Context, work dispatch.WorkFunc) (ipc.Envelope, string) {
	res := r.queue.Submit(ctx, work, r.timeout)
	if res.Err != nil {
		return errorEnvelope(res.Err)
	}

	if st, ok := res.Value.(selection.State); ok {
		if req, awaiting := st.Awaiting(); awaiting {
			return ipc.Result(req.Payload()), tracing.OutcomeAwaiting
		}
		return ipc.Result(st.Value()), tracing.OutcomeOK
	}
	return ipc.Result(res.Value), tracing.OutcomeOK
}

func errorEnvelope(err error) (ipc.Envelope, string) {
	var pe *dispatch.PanicError
	switch {
	case errors.Is(err, dispatch.ErrTimeout):
		return ipc.Error(ipc.MsgTimeout), tracing.OutcomeTimeout
	case errors.Is(err, context.Canceled):
		return ipc.Error("Request canceled"), tracing.OutcomeError
	case errors.Is(err, dispatch.ErrClosed):
		return ipc.Error("Server is shutting down"), tracing.OutcomeError
	case errors.As(err, &pe):
		return ipc.Error(fmt.Sprintf("Error: %v", pe.Value)), tracing.OutcomeError
	default:
		return ipc.Error(err.Error()), tracing.OutcomeError
	}
}
