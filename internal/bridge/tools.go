package bridge

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/blwfish/freecad-mcp-sub000/internal/registry"
)

func (b *Bridge) registerTools() {
	b.mcp.AddTool(mcp.NewTool("check_freecad_connection",
		mcp.WithDescription("Check if FreeCAD is running with AI Copilot workbench"),
	), b.checkConnection)

	b.mcp.AddTool(mcp.NewTool("test_echo",
		mcp.WithDescription("Test tool that echoes back a message"),
		mcp.WithString("message", mcp.Required(), mcp.Description("Message to echo back")),
	), b.echo)

	b.mcp.AddTool(mcp.NewTool("create_box",
		mcp.WithDescription("Create a box primitive"),
		mcp.WithNumber("length", mcp.Description("Box length in mm"), mcp.DefaultNumber(10)),
		mcp.WithNumber("width", mcp.Description("Box width in mm"), mcp.DefaultNumber(10)),
		mcp.WithNumber("height", mcp.Description("Box height in mm"), mcp.DefaultNumber(10)),
		mcp.WithNumber("x", mcp.Description("X position")),
		mcp.WithNumber("y", mcp.Description("Y position")),
		mcp.WithNumber("z", mcp.Description("Z position")),
		mcp.WithString("name", mcp.Description("Name for the new object")),
	), b.forwardTool)

	b.mcp.AddTool(mcp.NewTool("fillet_edges",
		mcp.WithDescription("MODIFIES FreeCAD document: round edges of an object. Without edges or auto_select_all the user is asked to pick edges in FreeCAD."),
		mcp.WithString("object_name", mcp.Required(), mcp.Description("Object to fillet")),
		mcp.WithNumber("radius", mcp.Description("Fillet radius in mm"), mcp.DefaultNumber(1)),
		mcp.WithArray("edges", mcp.Description("1-based edge indices"), mcp.Items(map[string]any{"type": "integer"})),
		mcp.WithBoolean("auto_select_all", mcp.Description("Fillet every edge")),
		mcp.WithString("name", mcp.Description("Name for the fillet feature")),
	), b.forwardTool)

	b.mcp.AddTool(mcp.NewTool(string(registry.ToolPartOperations),
		mcp.WithDescription("Smart dispatcher for basic solid, boolean and transform operations"),
		mcp.WithString("operation", mcp.Required(), mcp.Description("Part operation to perform"),
			mcp.Enum("box", "cylinder", "sphere", "fuse", "cut", "move")),
		mcp.WithNumber("length", mcp.Description("Box length"), mcp.DefaultNumber(10)),
		mcp.WithNumber("width", mcp.Description("Box width"), mcp.DefaultNumber(10)),
		mcp.WithNumber("height", mcp.Description("Box/cylinder height"), mcp.DefaultNumber(10)),
		mcp.WithNumber("radius", mcp.Description("Sphere/cylinder radius"), mcp.DefaultNumber(5)),
		mcp.WithNumber("x", mcp.Description("X position or offset")),
		mcp.WithNumber("y", mcp.Description("Y position or offset")),
		mcp.WithNumber("z", mcp.Description("Z position or offset")),
		mcp.WithArray("objects", mcp.Description("Object names for fuse"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithString("base", mcp.Description("Base object for cut")),
		mcp.WithArray("tools", mcp.Description("Tool objects for cut"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithString("object_name", mcp.Description("Object to move")),
		mcp.WithString("name", mcp.Description("Name for result object")),
		interactiveArgs(),
	), b.forwardTool)

	b.mcp.AddTool(mcp.NewTool(string(registry.ToolPartDesignOperations),
		mcp.WithDescription("MODIFIES FreeCAD document: dress-up features. fillet/chamfer/shell ask the user to select edges or faces when none are given."),
		mcp.WithString("operation", mcp.Required(), mcp.Description("PartDesign operation to perform"),
			mcp.Enum("fillet", "chamfer", "shell")),
		mcp.WithString("object_name", mcp.Description("Object for dress-up operations")),
		mcp.WithNumber("radius", mcp.Description("Radius for fillet"), mcp.DefaultNumber(1)),
		mcp.WithNumber("distance", mcp.Description("Distance for chamfer"), mcp.DefaultNumber(1)),
		mcp.WithNumber("thickness", mcp.Description("Shell thickness"), mcp.DefaultNumber(2)),
		mcp.WithArray("edges", mcp.Description("1-based edge indices"), mcp.Items(map[string]any{"type": "integer"})),
		mcp.WithArray("faces", mcp.Description("1-based face indices"), mcp.Items(map[string]any{"type": "integer"})),
		mcp.WithBoolean("auto_select_all", mcp.Description("Apply to every edge")),
		mcp.WithString("name", mcp.Description("Name for result feature")),
		interactiveArgs(),
	), b.forwardTool)

	b.mcp.AddTool(mcp.NewTool(string(registry.ToolViewControl),
		mcp.WithDescription("Smart dispatcher for view, selection, visibility and history operations"),
		mcp.WithString("operation", mcp.Required(), mcp.Description("View control operation"),
			mcp.Enum("list_objects", "delete_object", "select_object", "clear_selection", "get_selection",
				"hide_object", "show_object", "set_view", "undo", "redo")),
		mcp.WithString("object_name", mcp.Description("Object name for operations")),
		mcp.WithArray("sub_elements", mcp.Description("Sub-elements to select, e.g. Edge1, Face2"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithString("view_type", mcp.Description("View orientation"),
			mcp.Enum("top", "bottom", "front", "rear", "left", "right", "isometric")),
		interactiveArgs(),
	), b.forwardTool)

	b.mcp.AddTool(mcp.NewTool(string(registry.ToolCAMOperations),
		mcp.WithDescription("Smart dispatcher for CAM jobs and machining operations"),
		mcp.WithString("operation", mcp.Required(), mcp.Description("CAM operation to perform"),
			mcp.Enum("create_job", "profile", "pocket", "drilling")),
		mcp.WithString("job_name", mcp.Description("CAM job name")),
		mcp.WithString("base_object", mcp.Description("Base 3D object for the job")),
		mcp.WithNumber("step_down", mcp.Description("Stepdown depth")),
		mcp.WithNumber("cut_depth", mcp.Description("Final cut depth")),
		mcp.WithNumber("tool_number", mcp.Description("Tool controller number")),
		mcp.WithString("name", mcp.Description("Name for the operation")),
		interactiveArgs(),
	), b.forwardTool)

	b.mcp.AddTool(mcp.NewTool(string(registry.ToolDraftOperations),
		mcp.WithDescription("Smart dispatcher for Draft clones and arrays"),
		mcp.WithString("operation", mcp.Required(), mcp.Description("Draft operation to perform"),
			mcp.Enum("clone", "array", "polar_array")),
		mcp.WithString("object_name", mcp.Description("Source object")),
		mcp.WithNumber("count_x", mcp.Description("Array count in X"), mcp.DefaultNumber(2)),
		mcp.WithNumber("count_y", mcp.Description("Array count in Y"), mcp.DefaultNumber(1)),
		mcp.WithNumber("count_z", mcp.Description("Array count in Z"), mcp.DefaultNumber(1)),
		mcp.WithNumber("count", mcp.Description("Polar array count"), mcp.DefaultNumber(6)),
		mcp.WithNumber("angle", mcp.Description("Polar array angle in degrees"), mcp.DefaultNumber(360)),
		mcp.WithString("name", mcp.Description("Name for result object")),
		interactiveArgs(),
	), b.forwardTool)

	b.mcp.AddTool(mcp.NewTool(string(registry.ToolContinueSelection),
		mcp.WithDescription("Continue an interactive selection operation after selecting elements in FreeCAD"),
		mcp.WithString("operation_id", mcp.Required(), mcp.Description("The operation ID from the awaiting_selection response")),
	), b.continueSelection)
}

// interactiveArgs adds the fields a client echoes back to resume an
// interactive payload through a family tool.
func interactiveArgs() mcp.ToolOption {
	return func(t *mcp.Tool) {
		mcp.WithBoolean(keyContinueInteractive, mcp.Description("Resume an interactive selection"))(t)
		mcp.WithString("operation_id", mcp.Description("Operation ID from the interactive payload"))(t)
		mcp.WithString("tool_name", mcp.Description("Tool that produced the interactive payload"))(t)
		mcp.WithObject("original_args", mcp.Description("Arguments of the suspended call"))(t)
	}
}
