// Package response turns host envelopes into client output: bytes and an
// exit code for the CLI, or an MCP tool result for the bridge.
package response

import (
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/blwfish/freecad-mcp-sub000/internal/ipc"
)

// Exit codes used by the CLI.
const (
	ExitOK       = 0
	ExitToolErr  = 1
	ExitUsageErr = 2
	ExitInternal = 3
)

// Render formats env for a terminal. Results go to stdout; errors are
// returned as stderr text with a classified exit code.
func Render(env ipc.Envelope) (stdout []byte, stderr string, exitCode int) {
	if env.IsError() {
		return nil, env.Error + "\n", Classify(env.Error)
	}
	return ensureTrailingNewline([]byte(Text(env.Result))), "", ExitOK
}

// Text renders a result value as text: strings verbatim, everything else as
// indented JSON.
func Text(v any) string {
	switch r := v.(type) {
	case nil:
		return ""
	case string:
		return r
	default:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// Classify maps a host error message to an exit code. Routing mistakes are
// usage errors; transport and GUI-thread failures are internal.
func Classify(msg string) int {
	switch {
	case msg == "":
		return ExitOK
	case strings.HasPrefix(msg, "Unknown tool: "),
		strings.HasPrefix(msg, "Unknown ") && strings.Contains(msg, " operation: "),
		strings.HasSuffix(msg, "requires an 'operation' argument"),
		msg == ipc.MsgNoTool,
		msg == ipc.MsgEmptyCommand,
		strings.HasPrefix(msg, "Invalid JSON: "),
		strings.HasPrefix(msg, "Message too large: "),
		msg == "operation_id is required":
		return ExitUsageErr
	case msg == ipc.MsgTimeout,
		strings.HasPrefix(msg, "Internal error: "),
		msg == "Server is shutting down",
		msg == "Request canceled",
		strings.HasPrefix(msg, "Response too large: "):
		return ExitInternal
	default:
		return ExitToolErr
	}
}

// ToolResult converts env into an MCP tool result. Errors become tool
// errors so the model sees them; structured results keep their JSON form.
func ToolResult(env ipc.Envelope) *mcp.CallToolResult {
	if env.IsError() {
		return mcp.NewToolResultError(env.Error)
	}
	switch r := env.Result.(type) {
	case string:
		return mcp.NewToolResultText(r)
	case nil:
		return mcp.NewToolResultText("")
	default:
		return mcp.NewToolResultStructured(r, Text(r))
	}
}

func ensureTrailingNewline(data []byte) []byte {
	if len(data) == 0 || data[len(data)-1] == '\n' {
		return data
	}
	return append(data, '\n')
}
