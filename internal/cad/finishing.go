package cad

import (
	"context"
	"fmt"

	"github.com/blwfish/freecad-mcp-sub000/internal/registry"
	"github.com/blwfish/freecad-mcp-sub000/internal/selection"
)

// finishOp describes an edge or face finishing feature that can take its
// elements explicitly, from every element of the object, or from a human
// selection in the GUI.
type finishOp struct {
	tool     string
	selType  selection.Type
	noun     string // "edges" or "faces"
	argKey   string // explicit element list argument
	feature  string
	typeID   string
	param    string
	def      float64
	allowAll bool
	prompt   string
	hints    string
	describe func(name, base string, count string, value float64) string
}

var (
	filletOp = finishOp{
		tool: "fillet_edges", selType: selection.TypeEdges, noun: "edges", argKey: "edges",
		feature: "Fillet", typeID: "Part::Fillet", param: "radius", def: 1, allowAll: true,
		prompt: "Please select edges to fillet on %s object in FreeCAD.\nTell me when you have finished selecting edges...",
		hints:  "Select edges for filleting. Ctrl+click for multiple edges.",
		describe: func(name, _ string, count string, v float64) string {
			return fmt.Sprintf("Created fillet: %s on %s with radius %smm", name, count, num(v))
		},
	}
	chamferOp = finishOp{
		tool: "chamfer_edges", selType: selection.TypeEdges, noun: "edges", argKey: "edges",
		feature: "Chamfer", typeID: "Part::Chamfer", param: "distance", def: 1, allowAll: true,
		prompt: "Please select edges to chamfer on %s object in FreeCAD.\nTell me when you have finished selecting edges...",
		hints:  "Select edges for chamfering. Ctrl+click for multiple edges.",
		describe: func(name, _ string, count string, v float64) string {
			return fmt.Sprintf("Created chamfer: %s on %s with distance %smm", name, count, num(v))
		},
	}
	draftOp = finishOp{
		tool: "draft_faces", selType: selection.TypeFaces, noun: "faces", argKey: "faces",
		feature: "Draft", typeID: "PartDesign::Draft", param: "angle", def: 5, allowAll: true,
		prompt: "Please select faces to draft on %s object in FreeCAD.\nTell me when you have finished selecting faces...",
		hints:  "Select faces to apply draft angle. Ctrl+click for multiple faces.",
		describe: func(name, _ string, count string, v float64) string {
			return fmt.Sprintf("Created draft: %s on %s with %s° angle", name, count, num(v))
		},
	}
	shellOp = finishOp{
		tool: "shell_solid", selType: selection.TypeFaces, noun: "faces", argKey: "faces",
		feature: "Shell", typeID: "Part::Thickness", param: "thickness", def: 2,
		prompt: "Please select face(s) to remove for opening the %s object in FreeCAD.\nTell me when you have finished selecting faces...",
		hints:  "Usually select the top face or access faces for openings. Ctrl+click for multiple faces.",
		describe: func(name, base string, count string, v float64) string {
			return fmt.Sprintf("Created shell: %s from %s with %smm thickness and %s removed for opening", name, base, num(v), count)
		},
	}
)

func (h *Host) filletEdges() registry.TwoPhase  { return h.twoPhase(filletOp) }
func (h *Host) chamferEdges() registry.TwoPhase { return h.twoPhase(chamferOp) }
func (h *Host) draftFaces() registry.TwoPhase   { return h.twoPhase(draftOp) }
func (h *Host) shellSolid() registry.TwoPhase   { return h.twoPhase(shellOp) }

func (h *Host) twoPhase(op finishOp) registry.TwoPhase {
	return registry.TwoPhase{
		Begin: func(ctx context.Context, args registry.Args) (selection.State, error) {
			return h.beginFinish(op, args)
		},
		Finish: func(ctx context.Context, args registry.Args, sel selection.Result) (any, error) {
			if len(sel.Elements) == 0 {
				return nil, fmt.Errorf("No %s were selected", op.noun)
			}
			return h.applyFinish(op, args, sel.Elements, "selected")
		},
	}
}

func (h *Host) beginFinish(op finishOp, args registry.Args) (selection.State, error) {
	objectName := args.StringOr("object_name", "")
	obj, ok := h.doc.Object(objectName)
	if !ok {
		return selection.State{}, errObjectNotFound(objectName)
	}
	if op.elementCount(obj) == 0 {
		return selection.State{}, fmt.Errorf("Object %s has no %s", objectName, op.noun)
	}

	if explicit := args.Ints(op.argKey); len(explicit) > 0 {
		msg, err := h.applyFinish(op, args, explicit, "")
		if err != nil {
			return selection.State{}, err
		}
		return selection.Done(msg), nil
	}

	if op.allowAll && args.Bool("auto_select_all") {
		all := make([]int, op.elementCount(obj))
		for i := range all {
			all[i] = i + 1
		}
		msg, err := h.applyFinish(op, args, all, "all")
		if err != nil {
			return selection.State{}, err
		}
		return selection.Done(msg), nil
	}

	h.doc.ClearSelection()
	req := h.selections.RequestSelection(selection.Spec{
		ToolName:   op.tool,
		Type:       op.selType,
		ObjectName: objectName,
		Message:    fmt.Sprintf(op.prompt, objectName),
		Hints:      op.hints,
		Extra: map[string]any{
			op.param: args.Float(op.param, op.def),
			"name":   args.StringOr("name", op.feature),
		},
	})
	return selection.Awaiting(req), nil
}

// applyFinish adds the feature over the given 1-based element indices.
// Indices outside the object's topology are ignored.
func (h *Host) applyFinish(op finishOp, args registry.Args, indices []int, scope string) (string, error) {
	objectName := args.StringOr("object_name", "")
	base, ok := h.doc.Object(objectName)
	if !ok {
		return "", errObjectNotFound(objectName)
	}

	limit := op.elementCount(base)
	valid := make([]int, 0, len(indices))
	for _, idx := range indices {
		if idx >= 1 && idx <= limit {
			valid = append(valid, idx)
		}
	}
	if len(valid) == 0 {
		return "", fmt.Errorf("No valid %s for %s (it has %d)", op.noun, objectName, limit)
	}

	value := args.Float(op.param, op.def)
	feature := &Object{
		Name:     args.StringOr("name", op.feature),
		Type:     op.typeID,
		Base:     objectName,
		Inputs:   []string{objectName},
		Params:   map[string]float64{op.param: value, "Elements": float64(len(valid))},
		Edges:    base.Edges,
		Faces:    base.Faces,
		Vertices: base.Vertices,
	}
	if op.selType == selection.TypeEdges {
		// Each rounded or bevelled edge becomes a new face bounded by two edges.
		feature.Faces += len(valid)
		feature.Edges += 2 * len(valid)
	}
	if op.tool == shellOp.tool {
		feature.Faces = 2*base.Faces - len(valid)
	}
	feature = h.doc.Add(feature)
	base.Visible = false

	return op.describe(feature.Name, objectName, countPhrase(op, scope, len(valid)), value), nil
}

func (op finishOp) elementCount(o *Object) int {
	if op.selType == selection.TypeFaces {
		return o.Faces
	}
	return o.Edges
}

func countPhrase(op finishOp, scope string, n int) string {
	noun := op.noun
	if op.tool == shellOp.tool {
		noun = "face(s)"
	}
	switch scope {
	case "all":
		return fmt.Sprintf("all %d %s", n, noun)
	case "selected":
		if op.tool == shellOp.tool {
			return fmt.Sprintf("%d %s", n, noun)
		}
		return fmt.Sprintf("%d selected %s", n, noun)
	default:
		return fmt.Sprintf("%d %s", n, noun)
	}
}
