// Package cli implements the freecad-mcp command line: the headless host,
// the MCP stdio bridge and a one-shot client.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blwfish/freecad-mcp-sub000/internal/response"
)

// exitError carries an exit code out of a cobra command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func withExit(code int, err error) error {
	return &exitError{code: code, err: err}
}

// Run is the main CLI entry point. Returns an exit code.
func Run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(rootStdout)
	root.SetErr(rootStderr)
	root.SetIn(rootStdin)

	err := root.Execute()
	if err == nil {
		return response.ExitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(rootStderr, "freecad-mcp: %v\n", ee.err)
		}
		return ee.code
	}
	// Flag and argument errors from cobra itself.
	fmt.Fprintf(rootStderr, "freecad-mcp: %v\n", err)
	return response.ExitUsageErr
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "freecad-mcp",
		Short:         "Bridge MCP clients to a FreeCAD host over a framed local socket",
		Version:       buildVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetVersionTemplate("freecad-mcp {{.Version}}\n")
	root.PersistentFlags().String("config", "", "config file (default "+configHint()+")")

	root.AddCommand(
		newServeCmd(),
		newBridgeCmd(),
		newCallCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "freecad-mcp %s\n", buildVersion)
		},
	}
}
