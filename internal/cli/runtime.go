package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/blwfish/freecad-mcp-sub000/internal/config"
	"github.com/blwfish/freecad-mcp-sub000/internal/ipc"
	"github.com/blwfish/freecad-mcp-sub000/internal/logging"
	"github.com/blwfish/freecad-mcp-sub000/internal/response"
)

var loadConfigFn = config.LoadFrom

func configHint() string {
	return config.ExampleConfigPath()
}

// addEndpointFlags registers the host address flags shared by every
// command that talks to or runs a host.
func addEndpointFlags(cmd *cobra.Command) {
	cmd.Flags().String("socket-path", "", "Unix socket path (overrides $FREECAD_MCP_SOCKET and config)")
	cmd.Flags().String("tcp-addr", "", "use TCP at host:port instead of a Unix socket")
	cmd.Flags().String("log-level", "", "log level: debug, info, warn, error")
	cmd.Flags().String("log-file", "", "log to this file instead of stderr")
}

// loadRuntimeConfig reads the config file and applies command-line
// overrides. Flags win over the environment, which wins over the file.
func loadRuntimeConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.ExampleConfigPath()
	}
	cfg, err := loadConfigFn(path)
	if err != nil {
		return nil, withExit(response.ExitUsageErr, err)
	}

	if v, _ := cmd.Flags().GetString("socket-path"); v != "" {
		cfg.Server.Transport = "unix"
		cfg.Server.SocketPath = v
	}
	if v, _ := cmd.Flags().GetString("tcp-addr"); v != "" {
		cfg.Server.Transport = "tcp"
		cfg.Server.TCPAddr = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-file"); v != "" {
		cfg.Log.File = v
	}

	if err := config.Validate(cfg); err != nil {
		return nil, withExit(response.ExitUsageErr, fmt.Errorf("invalid config: %w", err))
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	logger, closer, err := logging.Setup(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, nil, withExit(response.ExitInternal, err)
	}
	return logger, closer, nil
}

func endpointOf(cfg *config.Config) (network, address string) {
	if cfg.Server.IsTCP() {
		return "tcp", cfg.Server.TCPAddr
	}
	return "unix", cfg.Server.SocketPath
}

func clientFor(cfg *config.Config) *ipc.Client {
	return ipc.NewClient(endpointOf(cfg))
}
