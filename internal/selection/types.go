package selection

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Type is the kind of element a human is asked to pick.
type Type string

const (
	TypeEdges    Type = "edges"
	TypeFaces    Type = "faces"
	TypeVertices Type = "vertices"
	TypeObjects  Type = "objects"
)

// StatusAwaiting is the status field of a suspended operation's payload.
const StatusAwaiting = "awaiting_selection"

// ErrNotFound is returned for unknown, consumed or expired operation ids.
var ErrNotFound = errors.New("selection operation not found or expired")

// Spec describes what a suspended operation needs from the user.
type Spec struct {
	ToolName   string
	Type       Type
	ObjectName string
	Message    string
	Hints      string
	// Extra holds operation arguments to restore on continuation.
	Extra map[string]any
}

// Request is a pending selection, keyed by OperationID.
type Request struct {
	OperationID string
	ToolName    string
	Type        Type
	ObjectName  string
	Message     string
	Hints       string
	Extra       map[string]any
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Payload renders the awaiting_selection response. Extra arguments are
// echoed so the client can resend them; they never shadow the fixed keys.
func (r Request) Payload() map[string]any {
	p := make(map[string]any, len(r.Extra)+5)
	for k, v := range r.Extra {
		p[k] = v
	}
	p["status"] = StatusAwaiting
	p["operation_id"] = r.OperationID
	p["selection_type"] = string(r.Type)
	p["message"] = r.Message
	p["object_name"] = r.ObjectName
	return p
}

// Pick is what the human selected in the GUI.
type Pick struct {
	Elements []int
	Objects  []string
}

// Result is a completed selection handed to the operation's second phase.
type Result struct {
	OperationID string
	ToolName    string
	Type        Type
	ObjectName  string
	Elements    []int
	Objects     []string
	Extra       map[string]any
}

// State is the outcome of a two-phase operation's first phase: either it
// suspended on a selection request or it finished outright.
type State struct {
	request *Request
	value   any
}

// Awaiting suspends on req.
func Awaiting(req Request) State { return State{request: &req} }

// Done finishes with v.
func Done(v any) State { return State{value: v} }

// Awaiting returns the pending request, if any.
func (s State) Awaiting() (Request, bool) {
	if s.request == nil {
		return Request{}, false
	}
	return *s.request, true
}

// Value returns the finished value. It is nil while awaiting.
func (s State) Value() any { return s.value }

var subElementPrefix = map[Type]string{
	TypeEdges:    "Edge",
	TypeFaces:    "Face",
	TypeVertices: "Vertex",
}

// ParseSubElements turns sub-element names such as "Edge3" into 1-based
// indices for the requested type. Names of other kinds are skipped.
func ParseSubElements(t Type, names []string) []int {
	prefix, ok := subElementPrefix[t]
	if !ok {
		return nil
	}
	var out []int
	for _, name := range names {
		rest, found := strings.CutPrefix(name, prefix)
		if !found {
			continue
		}
		idx, err := strconv.Atoi(rest)
		if err != nil || idx < 1 {
			continue
		}
		out = append(out, idx)
	}
	return out
}
