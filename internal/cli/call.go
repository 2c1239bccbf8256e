package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blwfish/freecad-mcp-sub000/internal/ipc"
	"github.com/blwfish/freecad-mcp-sub000/internal/response"
)

// hostCaller is the part of ipc.Client that call needs.
type hostCaller interface {
	Call(ctx context.Context, req *ipc.Request) (ipc.Envelope, error)
}

var newCallerFn = func(network, address string) hostCaller {
	return ipc.NewClient(network, address)
}

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <tool> [JSON | --key=value ...]",
		Short: "Send one request to the host and print the response",
		Example: "  freecad-mcp call create_box --length=10 --width=5 --height=2\n" +
			"  freecad-mcp call view_control '{\"operation\":\"list_objects\"}'\n" +
			"  freecad-mcp call continue_selection --operation_id=fillet_edges_<id>",
		Args:               cobra.MinimumNArgs(1),
		DisableFlagParsing: true,
		RunE:               runCall,
	}
	addEndpointFlags(cmd)
	return cmd
}

// runCall parses its own flags: tool arguments share the --key=value form
// with the CLI flags, which cobra cannot tell apart.
func runCall(cmd *cobra.Command, args []string) error {
	if args[0] == "-h" || args[0] == "--help" {
		return cmd.Help()
	}

	endpoint, rest, err := splitEndpointFlags(args)
	if err != nil {
		return withExit(response.ExitUsageErr, err)
	}
	if len(rest) == 0 {
		return withExit(response.ExitUsageErr, fmt.Errorf("missing tool name"))
	}
	tool := rest[0]

	parsed, err := parseToolCallArgs(rest[1:], cmd.InOrStdin(), stdinIsTTY())
	if err != nil {
		return withExit(response.ExitUsageErr, err)
	}
	if parsed.help {
		return cmd.Help()
	}

	for name, value := range endpoint {
		if err := cmd.Flags().Set(name, value); err != nil {
			return withExit(response.ExitUsageErr, err)
		}
	}
	cfg, err := loadRuntimeConfig(cmd)
	if err != nil {
		return err
	}

	network, address := endpointOf(cfg)
	env, err := newCallerFn(network, address).Call(cmd.Context(), &ipc.Request{Tool: tool, Args: parsed.toolArgs})
	if err != nil {
		return withExit(response.ExitInternal, err)
	}
	return printEnvelope(cmd.OutOrStdout(), cmd.ErrOrStderr(), env, parsed.jsonOut)
}

// printEnvelope writes env as text, or as the raw envelope when jsonOut is
// set. Errors still set the exit code in both forms.
func printEnvelope(stdout, stderr io.Writer, env ipc.Envelope, jsonOut bool) error {
	if jsonOut {
		data, err := json.MarshalIndent(env, "", "  ")
		if err != nil {
			return withExit(response.ExitInternal, err)
		}
		fmt.Fprintln(stdout, string(data))
		if env.IsError() {
			return withExit(response.Classify(env.Error), nil)
		}
		return nil
	}

	out, errText, code := response.Render(env)
	stdout.Write(out) //nolint:errcheck
	if errText != "" {
		fmt.Fprint(stderr, errText)
	}
	if code != response.ExitOK {
		return withExit(code, nil)
	}
	return nil
}

// endpointFlagNames are the CLI flags call accepts before the tool name.
var endpointFlagNames = map[string]bool{
	"config":      true,
	"socket-path": true,
	"tcp-addr":    true,
	"log-level":   true,
	"log-file":    true,
}

// splitEndpointFlags pulls leading --name=value / --name value endpoint
// flags off args and returns the rest, starting at the tool name.
func splitEndpointFlags(args []string) (map[string]string, []string, error) {
	flags := make(map[string]string)
	i := 0
	for i < len(args) {
		body, ok := strings.CutPrefix(args[i], "--")
		if !ok || body == "" {
			break
		}
		name, value, hasValue := strings.Cut(body, "=")
		if !endpointFlagNames[name] {
			return nil, nil, fmt.Errorf("unknown flag: --%s", name)
		}
		if !hasValue {
			if i+1 >= len(args) {
				return nil, nil, fmt.Errorf("missing value for --%s", name)
			}
			i++
			value = args[i]
		}
		flags[name] = value
		i++
	}
	return flags, args[i:], nil
}
