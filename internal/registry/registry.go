// Package registry maps tool names to the operations the host exposes.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/blwfish/freecad-mcp-sub000/internal/selection"
)

// Tool is a top-level tool name.
type Tool string

const (
	ToolPartOperations       Tool = "part_operations"
	ToolPartDesignOperations Tool = "partdesign_operations"
	ToolViewControl          Tool = "view_control"
	ToolCAMOperations        Tool = "cam_operations"
	ToolDraftOperations      Tool = "draft_operations"

	// ToolContinueSelection resumes a suspended operation by operation_id.
	ToolContinueSelection Tool = "continue_selection"
)

// Operation runs on the GUI thread and returns a string or structured result.
type Operation func(ctx context.Context, args Args) (any, error)

// TwoPhase is an operation that may suspend for a human selection. Begin
// either finishes or returns an awaiting state; Finish runs once the
// selection completes, with the original arguments restored.
type TwoPhase struct {
	Begin  func(ctx context.Context, args Args) (selection.State, error)
	Finish func(ctx context.Context, args Args, sel selection.Result) (any, error)
}

// Kind tells the router how to execute a Route.
type Kind int

const (
	KindDirect Kind = iota
	KindFamily
	KindSelectable
)

func (k Kind) String() string {
	switch k {
	case KindDirect:
		return "direct"
	case KindFamily:
		return "family"
	case KindSelectable:
		return "selectable"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Route is one registered tool.
type Route struct {
	Tool    Tool
	Kind    Kind
	Op      Operation
	Members map[string]Operation
	Phases  TwoPhase
}

// Member returns the family member named op.
func (r Route) Member(op string) (Operation, bool) {
	fn, ok := r.Members[op]
	return fn, ok
}

// MemberNames returns the sorted member names of a family route.
func (r Route) MemberNames() []string {
	names := make([]string, 0, len(r.Members))
	for name := range r.Members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Registry is a typed dispatch table. Registration normally happens once
// at startup; lookups are safe from any goroutine.
type Registry struct {
	mu     sync.RWMutex
	routes map[Tool]Route
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{routes: make(map[Tool]Route)}
}

// RegisterDirect binds tool to a single operation.
func (r *Registry) RegisterDirect(tool Tool, op Operation) {
	if op == nil {
		panic(fmt.Sprintf("registry: nil operation for %q", tool))
	}
	r.add(Route{Tool: tool, Kind: KindDirect, Op: op})
}

// RegisterFamily binds tool to a table of operations selected by
// args.operation.
func (r *Registry) RegisterFamily(tool Tool, members map[string]Operation) {
	copied := make(map[string]Operation, len(members))
	for name, op := range members {
		if op == nil {
			panic(fmt.Sprintf("registry: nil operation %q in family %q", name, tool))
		}
		copied[name] = op
	}
	r.add(Route{Tool: tool, Kind: KindFamily, Members: copied})
}

// RegisterSelectable binds tool to a two-phase operation.
func (r *Registry) RegisterSelectable(tool Tool, tp TwoPhase) {
	if tp.Begin == nil || tp.Finish == nil {
		panic(fmt.Sprintf("registry: incomplete two-phase operation for %q", tool))
	}
	r.add(Route{Tool: tool, Kind: KindSelectable, Phases: tp})
}

func (r *Registry) add(route Route) {
	if route.Tool == "" || route.Tool == ToolContinueSelection {
		panic(fmt.Sprintf("registry: reserved tool name %q", route.Tool))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.routes[route.Tool]; exists {
		panic(fmt.Sprintf("registry: duplicate tool %q", route.Tool))
	}
	r.routes[route.Tool] = route
}

// Lookup returns the route for tool.
func (r *Registry) Lookup(tool Tool) (Route, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	route, ok := r.routes[tool]
	return route, ok
}

// Tools returns every registered tool name, sorted.
func (r *Registry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]Tool, 0, len(r.routes))
	for t := range r.routes {
		tools = append(tools, t)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i] < tools[j] })
	return tools
}
