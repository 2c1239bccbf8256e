package cad

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blwfish/freecad-mcp-sub000/internal/dispatch"
	"github.com/blwfish/freecad-mcp-sub000/internal/ipc"
	"github.com/blwfish/freecad-mcp-sub000/internal/registry"
	"github.com/blwfish/freecad-mcp-sub000/internal/router"
	"github.com/blwfish/freecad-mcp-sub000/internal/selection"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestHost() *Host {
	return NewHost(selection.NewManager(selection.WithLogger(quiet)), quiet)
}

func call(t *testing.T, op registry.Operation, args registry.Args) any {
	t.Helper()
	v, err := op(context.Background(), args)
	require.NoError(t, err)
	return v
}

func TestCreateBoxFormatsDimensionsAndPlacement(t *testing.T) {
	h := newTestHost()

	got := call(t, h.createBox, registry.Args{"length": 10.0, "width": 5.0, "height": 2.5, "x": 1.0})
	assert.Equal(t, "Created box: Box (10x5x2.5mm) at (1,0,0)", got)

	got = call(t, h.createBox, registry.Args{})
	assert.Equal(t, "Created box: Box001 (10x10x10mm) at (0,0,0)", got)

	box, ok := h.doc.Object("Box")
	require.True(t, ok)
	assert.Equal(t, 12, box.Edges)
	assert.Equal(t, 6, box.Faces)
}

func TestCreateBoxRejectsNonPositiveDimensions(t *testing.T) {
	h := newTestHost()
	_, err := h.createBox(context.Background(), registry.Args{"length": 0.0, "height": -1.0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "length must be positive")
	assert.Contains(t, err.Error(), "height must be positive")
	assert.Empty(t, h.doc.Objects())
}

func TestCylinderSphereAndBooleans(t *testing.T) {
	h := newTestHost()
	assert.Equal(t, "Created cylinder: Cylinder (R2, H8) at (0,0,0)",
		call(t, h.createCylinder, registry.Args{"radius": 2.0, "height": 8.0}))
	assert.Equal(t, "Created sphere: Sphere (R3) at (0,0,5)",
		call(t, h.createSphere, registry.Args{"radius": 3.0, "z": 5.0}))
	call(t, h.createBox, registry.Args{})

	assert.Equal(t, "Created fusion: Fusion from 2 objects",
		call(t, h.fuse, registry.Args{"objects": []any{"Box", "Sphere"}}))
	assert.Equal(t, "Created cut: Cut from Box minus 1 tools",
		call(t, h.cut, registry.Args{"base": "Box", "tools": []any{"Cylinder"}}))

	_, err := h.fuse(context.Background(), registry.Args{"objects": []any{"Box"}})
	assert.EqualError(t, err, "fuse requires at least 2 objects")
	_, err = h.cut(context.Background(), registry.Args{"base": "Nope", "tools": []any{"Box"}})
	assert.EqualError(t, err, "Base object not found: Nope")
}

func TestMoveUndoRedo(t *testing.T) {
	h := newTestHost()
	call(t, h.createBox, registry.Args{})

	assert.Equal(t, "Moved Box by (5, 0, -1)", call(t, h.move, registry.Args{"object_name": "Box", "x": 5.0, "z": -1.0}))
	box, _ := h.doc.Object("Box")
	assert.Equal(t, Vec{X: 5, Z: -1}, box.Placement)

	assert.Equal(t, "Undo completed", call(t, h.undo, nil))
	box, _ = h.doc.Object("Box")
	assert.Equal(t, Vec{}, box.Placement)

	assert.Equal(t, "Redo completed", call(t, h.redo, nil))
	box, _ = h.doc.Object("Box")
	assert.Equal(t, Vec{X: 5, Z: -1}, box.Placement)

	call(t, h.undo, nil)
	call(t, h.undo, nil)
	assert.Empty(t, h.doc.Objects())
	_, err := h.undo(context.Background(), nil)
	assert.EqualError(t, err, "Nothing to undo")
}

func TestUndoHistoryIsBounded(t *testing.T) {
	h := newTestHost()
	for i := 0; i < maxUndo+10; i++ {
		call(t, h.createSphere, registry.Args{})
	}
	undone := 0
	for h.doc.Undo() {
		undone++
	}
	assert.Equal(t, maxUndo, undone)
	assert.Len(t, h.doc.Objects(), 10)
}

func TestViewControlOperations(t *testing.T) {
	h := newTestHost()
	call(t, h.createBox, registry.Args{})

	assert.Equal(t, "No objects selected", call(t, h.getSelection, nil))
	assert.Equal(t, "Selected Edge1, Edge3 on 'Box'",
		call(t, h.selectObject, registry.Args{"object_name": "Box", "sub_elements": []any{"Edge1", "Edge3"}}))
	assert.Equal(t, "Selected objects: Box (Edge1, Edge3)", call(t, h.getSelection, nil))
	assert.Equal(t, "Selection cleared", call(t, h.clearSelection, nil))

	assert.Equal(t, "Object 'Box' hidden", call(t, h.setVisibility(false), registry.Args{"object_name": "Box"}))
	box, _ := h.doc.Object("Box")
	assert.False(t, box.Visible)

	assert.Equal(t, "View set to top", call(t, h.setView, registry.Args{"view_type": "Top"}))
	_, err := h.setView(context.Background(), registry.Args{"view_type": "diagonal"})
	assert.ErrorContains(t, err, "Unknown view type: diagonal")

	listed := call(t, h.listObjects, nil).(map[string]any)
	assert.Equal(t, 1, listed["count"])

	assert.Equal(t, "Deleted object: Box", call(t, h.deleteObject, registry.Args{"object_name": "Box"}))
	_, err = h.deleteObject(context.Background(), registry.Args{"object_name": "Box"})
	assert.EqualError(t, err, "Object not found: Box")
}

func TestCAMOperationsRequireJob(t *testing.T) {
	h := newTestHost()
	_, err := h.camOperation("Profile")(context.Background(), registry.Args{})
	assert.EqualError(t, err, "Error: Job 'Job' not found. Create a CAM job first.")

	call(t, h.createBox, registry.Args{})
	assert.Equal(t, "Created CAM Job 'Job' with base object 'Box'",
		call(t, h.createJob, registry.Args{"base_object": "Box"}))
	assert.Equal(t, "Created Profile operation 'Profile' in job 'Job'",
		call(t, h.camOperation("Profile"), registry.Args{}))
	assert.Equal(t, "Created Pocket operation 'Pocket' in job 'Job'",
		call(t, h.camOperation("Pocket"), registry.Args{"job_name": "Job"}))
}

func TestDraftOperations(t *testing.T) {
	h := newTestHost()
	call(t, h.createBox, registry.Args{})

	assert.Equal(t, "Created clone: Clone of Box", call(t, h.draftClone, registry.Args{"object_name": "Box"}))
	assert.Equal(t, "Created array: Array with 6 instances (3x2x1)",
		call(t, h.draftArray, registry.Args{"object_name": "Box", "count_x": 3.0, "count_y": 2.0}))
	assert.Equal(t, "Created polar array: PolarArray with 4 instances over 180°",
		call(t, h.draftPolarArray, registry.Args{"object_name": "Box", "count": 4.0, "angle": 180.0}))

	arr, _ := h.doc.Object("Array")
	assert.Equal(t, 72, arr.Edges)

	_, err := h.draftClone(context.Background(), registry.Args{"object_name": "Ghost"})
	assert.EqualError(t, err, "Object not found: Ghost")
}

func TestFilletWithExplicitAndAllEdges(t *testing.T) {
	h := newTestHost()
	call(t, h.createBox, registry.Args{})

	st, err := h.filletEdges().Begin(context.Background(), registry.Args{"object_name": "Box", "edges": []any{1.0, 2.0, 99.0}, "radius": 2.0})
	require.NoError(t, err)
	_, awaiting := st.Awaiting()
	require.False(t, awaiting)
	assert.Equal(t, "Created fillet: Fillet on 2 edges with radius 2mm", st.Value())

	st, err = h.chamferEdges().Begin(context.Background(), registry.Args{"object_name": "Box", "auto_select_all": true})
	require.NoError(t, err)
	assert.Equal(t, "Created chamfer: Chamfer on all 12 edges with distance 1mm", st.Value())

	_, err = h.filletEdges().Begin(context.Background(), registry.Args{"object_name": "Ghost"})
	assert.EqualError(t, err, "Object not found: Ghost")
}

func TestFilletSuspendsForSelection(t *testing.T) {
	h := newTestHost()
	call(t, h.createBox, registry.Args{})
	call(t, h.selectObject, registry.Args{"object_name": "Box"})

	st, err := h.filletEdges().Begin(context.Background(), registry.Args{"object_name": "Box", "radius": 1.5})
	require.NoError(t, err)
	req, awaiting := st.Awaiting()
	require.True(t, awaiting)
	assert.Equal(t, selection.TypeEdges, req.Type)
	assert.Equal(t, "fillet_edges", req.ToolName)
	assert.Contains(t, req.Message, "Please select edges to fillet on Box object")
	assert.Contains(t, req.Message, "\nTip: ")
	assert.Equal(t, 1.5, req.Extra["radius"])
	assert.Empty(t, h.doc.Selection(), "stale selection is cleared before asking")
}

func TestFinishWithoutElementsFails(t *testing.T) {
	h := newTestHost()
	call(t, h.createBox, registry.Args{})
	_, err := h.shellSolid().Finish(context.Background(), registry.Args{"object_name": "Box"}, selection.Result{})
	assert.EqualError(t, err, "No faces were selected")
}

// routedHost wires a host behind a real router, queue and pump.
func routedHost(t *testing.T) (*Host, *router.Router) {
	t.Helper()
	q := dispatch.New(dispatch.WithLogger(quiet))
	ctx, cancel := context.WithCancel(context.Background())
	go q.Pump().Run(ctx, 2*time.Millisecond) //nolint:errcheck
	t.Cleanup(func() {
		cancel()
		q.Close()
	})

	sel := selection.NewManager(selection.WithLogger(quiet))
	h := NewHost(sel, quiet)
	sel.SetPicker(h.Picker(q, time.Second))
	reg := registry.New()
	h.Register(reg)
	return h, router.New(reg, q, sel, router.WithTimeout(time.Second), router.WithLogger(quiet))
}

func route(r *router.Router, tool string, args map[string]any) ipc.Envelope {
	return r.Route(context.Background(), &ipc.Request{Tool: tool, Args: args})
}

func TestInteractiveFilletThroughRouter(t *testing.T) {
	_, r := routedHost(t)

	env := route(r, "create_box", map[string]any{"length": 10.0, "width": 10.0, "height": 10.0})
	require.False(t, env.IsError(), env.Error)

	env = route(r, "fillet_edges", map[string]any{"object_name": "Box", "radius": 2.0})
	require.False(t, env.IsError(), env.Error)
	payload := env.Result.(map[string]any)
	assert.Equal(t, selection.StatusAwaiting, payload["status"])
	id := payload["operation_id"].(string)

	env = route(r, "view_control", map[string]any{
		"operation":    "select_object",
		"object_name":  "Box",
		"sub_elements": []any{"Edge1", "Edge2", "Edge5", "Face1"},
	})
	require.False(t, env.IsError(), env.Error)

	env = route(r, "fillet_edges", map[string]any{"_continue_selection": true, "_operation_id": id})
	require.False(t, env.IsError(), env.Error)
	assert.Equal(t, "Created fillet: Fillet on 3 selected edges with radius 2mm", env.Result)

	env = route(r, "continue_selection", map[string]any{"operation_id": id})
	assert.Equal(t, router.MsgSelectionNotFound, env.Error)
}

func TestPartDesignFamilyAndUnknownOperation(t *testing.T) {
	h, r := routedHost(t)
	route(r, "part_operations", map[string]any{"operation": "box"})

	env := route(r, "partdesign_operations", map[string]any{"operation": "chamfer", "object_name": "Box", "edges": []any{1.0}})
	require.False(t, env.IsError(), env.Error)
	assert.Equal(t, "Created chamfer: Chamfer on 1 edges with distance 1mm", env.Result)

	env = route(r, "partdesign_operations", map[string]any{"operation": "loft"})
	assert.Equal(t, "Unknown partdesign_operations operation: loft", env.Error)

	env = route(r, "partdesign_operations", map[string]any{"operation": "shell", "object_name": "Box"})
	require.False(t, env.IsError(), env.Error)
	payload := env.Result.(map[string]any)
	assert.Equal(t, "faces", payload["selection_type"])

	base, _ := h.doc.Object("Box")
	assert.False(t, base.Visible)
}

func TestPickerCalledOnGUIThreadPanics(t *testing.T) {
	q := dispatch.New(dispatch.WithLogger(quiet))
	defer q.Close()
	h := newTestHost()
	pick := h.Picker(q, time.Second)

	outer := make(chan dispatch.TaskResult, 1)
	go func() {
		outer <- q.Submit(context.Background(), func(ctx context.Context) (any, error) {
			return pick(ctx, selection.Request{Type: selection.TypeEdges})
		}, 2*time.Second)
	}()
	require.Eventually(t, func() bool { return q.Len() == 1 }, 2*time.Second, time.Millisecond)

	require.PanicsWithValue(t, dispatch.ErrReentrantSubmit, func() { q.Pump().Drain() })
	res := <-outer
	require.ErrorIs(t, res.Err, dispatch.ErrReentrantSubmit)
}
