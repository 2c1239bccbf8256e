package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/blwfish/freecad-mcp-sub000/internal/daemon"
	"github.com/blwfish/freecad-mcp-sub000/internal/response"
	"github.com/blwfish/freecad-mcp-sub000/internal/tracing"
)

var runServerFn = func(ctx context.Context, srv *daemon.Server) error {
	return srv.Run(ctx)
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a headless host with an in-memory document",
		Long: "Run a headless host that listens on the framed socket and executes\n" +
			"operations against an in-memory document. Stops on SIGINT/SIGTERM,\n" +
			"or after --idle-timeout without requests.",
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	addEndpointFlags(cmd)
	cmd.Flags().String("idle-timeout", "", "stop after this long without requests (e.g. 10m)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadRuntimeConfig(cmd)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("idle-timeout"); v != "" {
		cfg.Server.IdleTimeout = v
	}

	logger, closer, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return withExit(response.ExitUsageErr, err)
	}

	srv, err := daemon.New(cfg, daemon.WithLogger(logger), daemon.WithTracing(tp))
	if err != nil {
		return withExit(response.ExitUsageErr, err)
	}

	if err := runServerFn(cmd.Context(), srv); err != nil && !errors.Is(err, daemon.ErrIdle) {
		return withExit(response.ExitInternal, err)
	}
	return nil
}
