package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blwfish/freecad-mcp-sub000/internal/bridge"
	"github.com/blwfish/freecad-mcp-sub000/internal/daemon"
	"github.com/blwfish/freecad-mcp-sub000/internal/response"
	"github.com/blwfish/freecad-mcp-sub000/internal/tracing"
)

var ensureHostFn = daemon.EnsureHost

func newBridgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Serve MCP over stdio, forwarding tool calls to the host",
		Long: "Serve the Model Context Protocol on stdin/stdout. Every tool call is\n" +
			"forwarded to the FreeCAD host as one framed request. Logs go to stderr\n" +
			"or --log-file; stdout carries only protocol messages.",
		Args: cobra.NoArgs,
		RunE: runBridge,
	}
	addEndpointFlags(cmd)
	cmd.Flags().Bool("spawn-host", false, "start a headless host if none is listening")
	cmd.Flags().Duration("timeout", 30*time.Second, "per-call timeout")
	return cmd
}

func runBridge(cmd *cobra.Command, _ []string) error {
	cfg, err := loadRuntimeConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := clientFor(cfg)
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		client = client.WithTimeout(timeout)
	}

	if spawn, _ := cmd.Flags().GetBool("spawn-host"); spawn {
		network, address := endpointOf(cfg)
		if err := ensureHostFn(ctx, network, address); err != nil {
			return withExit(response.ExitInternal, err)
		}
	}

	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return withExit(response.ExitUsageErr, err)
	}
	defer tp.Shutdown(context.Background()) //nolint:errcheck

	b := bridge.New(client, bridge.WithLogger(logger), bridge.WithTracer(tp.Tracer()))
	if err := b.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil && ctx.Err() == nil {
		return withExit(response.ExitInternal, err)
	}
	return nil
}
