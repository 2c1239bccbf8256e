// Package cad is a headless stand-in for the FreeCAD host: an in-memory
// document plus the operations the bridge exposes. Every operation runs on
// the GUI thread via the dispatch queue; none of them lock.
package cad

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/blwfish/freecad-mcp-sub000/internal/dispatch"
	"github.com/blwfish/freecad-mcp-sub000/internal/registry"
	"github.com/blwfish/freecad-mcp-sub000/internal/selection"
)

// Host owns the active document and the operations over it.
type Host struct {
	doc        *Document
	selections *selection.Manager
	logger     *slog.Logger
}

// NewHost creates a host with an empty "Unnamed" document.
func NewHost(selections *selection.Manager, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		doc:        NewDocument("Unnamed"),
		selections: selections,
		logger:     logger,
	}
}

// Document returns the active document. Only GUI-thread code may touch it.
func (h *Host) Document() *Document {
	return h.doc
}

// Register binds every host operation into reg.
func (h *Host) Register(reg *registry.Registry) {
	reg.RegisterDirect("create_box", h.createBox)
	reg.RegisterDirect("create_cylinder", h.createCylinder)
	reg.RegisterDirect("create_sphere", h.createSphere)

	reg.RegisterSelectable("fillet_edges", h.filletEdges())
	reg.RegisterSelectable("chamfer_edges", h.chamferEdges())
	reg.RegisterSelectable("draft_faces", h.draftFaces())
	reg.RegisterSelectable("shell_solid", h.shellSolid())

	reg.RegisterFamily(registry.ToolPartOperations, map[string]registry.Operation{
		"box":      h.createBox,
		"cylinder": h.createCylinder,
		"sphere":   h.createSphere,
		"fuse":     h.fuse,
		"cut":      h.cut,
		"move":     h.move,
	})
	reg.RegisterFamily(registry.ToolPartDesignOperations, map[string]registry.Operation{
		"fillet":  h.begin(h.filletEdges()),
		"chamfer": h.begin(h.chamferEdges()),
		"shell":   h.begin(h.shellSolid()),
	})
	reg.RegisterFamily(registry.ToolViewControl, map[string]registry.Operation{
		"list_objects":    h.listObjects,
		"delete_object":   h.deleteObject,
		"select_object":   h.selectObject,
		"clear_selection": h.clearSelection,
		"get_selection":   h.getSelection,
		"hide_object":     h.setVisibility(false),
		"show_object":     h.setVisibility(true),
		"set_view":        h.setView,
		"undo":            h.undo,
		"redo":            h.redo,
	})
	reg.RegisterFamily(registry.ToolCAMOperations, map[string]registry.Operation{
		"create_job": h.createJob,
		"profile":    h.camOperation("Profile"),
		"pocket":     h.camOperation("Pocket"),
		"drilling":   h.camOperation("Drilling"),
	})
	reg.RegisterFamily(registry.ToolDraftOperations, map[string]registry.Operation{
		"clone":       h.draftClone,
		"array":       h.draftArray,
		"polar_array": h.draftPolarArray,
	})
}

// Picker returns a selection.Picker that reads the live document selection
// on the GUI thread through q. It submits with the ctx it is called with, so
// GUI-thread callers must pass their own ctx through for q to reject the
// reentrant call instead of waiting out the timeout.
func (h *Host) Picker(q *dispatch.Queue, timeout time.Duration) selection.Picker {
	return func(ctx context.Context, req selection.Request) (selection.Pick, error) {
		res := q.Submit(ctx, func(context.Context) (any, error) {
			return h.currentPick(req), nil
		}, timeout)
		if res.Err != nil {
			return selection.Pick{}, res.Err
		}
		pick, ok := res.Value.(selection.Pick)
		if !ok {
			return selection.Pick{}, fmt.Errorf("unexpected selection value %T", res.Value)
		}
		return pick, nil
	}
}

// currentPick converts the document selection into a pick for req. Only
// sub-elements of the requested object count when one was named.
func (h *Host) currentPick(req selection.Request) selection.Pick {
	var pick selection.Pick
	for _, item := range h.doc.Selection() {
		if req.ObjectName != "" && req.Type != selection.TypeObjects && item.Object != req.ObjectName {
			continue
		}
		pick.Objects = append(pick.Objects, item.Object)
		pick.Elements = append(pick.Elements, selection.ParseSubElements(req.Type, item.SubElements)...)
	}
	return pick
}

func errObjectNotFound(name string) error {
	return fmt.Errorf("Object not found: %s", name)
}

// begin exposes the first phase of a two-phase operation as a plain family
// member. A suspended result still reaches the client as awaiting_selection.
func (h *Host) begin(tp registry.TwoPhase) registry.Operation {
	return func(ctx context.Context, args registry.Args) (any, error) {
		return tp.Begin(ctx, args)
	}
}
