package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "freecad-mcp"

// DefaultSocketPath is where the host listens when nothing overrides it.
// The FreeCAD addon and every bridge agree on this path.
const DefaultSocketPath = "/tmp/freecad_mcp.sock"

// DefaultTCPAddr is the TCP fallback used on platforms without Unix sockets.
const DefaultTCPAddr = "localhost:23456"

// SocketEnvVar overrides the socket path for both the host and the bridge.
const SocketEnvVar = "FREECAD_MCP_SOCKET"

func homeDir() string {
	if h := os.Getenv("HOME"); h != "" {
		return h
	}
	h, _ := os.UserHomeDir()
	return h
}

func xdgDir(envVar, fallbackSuffix string) string {
	if v := os.Getenv(envVar); v != "" {
		return filepath.Join(v, appName)
	}
	return filepath.Join(homeDir(), fallbackSuffix, appName)
}

// ConfigDir returns the config directory ($XDG_CONFIG_HOME/freecad-mcp).
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the state directory ($XDG_STATE_HOME/freecad-mcp).
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

// RuntimeDir returns the runtime directory for sockets.
// Falls back to StateDir if XDG_RUNTIME_DIR is unset.
func RuntimeDir() string {
	if v := os.Getenv("XDG_RUNTIME_DIR"); v != "" {
		return filepath.Join(v, appName)
	}
	return StateDir()
}

// ConfigFile returns the path to config.toml.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// LogFile returns the default log file used when logging to a file is requested
// without an explicit path.
func LogFile() string {
	return filepath.Join(StateDir(), appName+".log")
}

// LockPath returns the lock file that serializes headless host spawns.
func LockPath() string {
	return filepath.Join(RuntimeDir(), "spawn.lock")
}

// SocketPath resolves the host socket path: $FREECAD_MCP_SOCKET first, then
// the compiled-in default.
func SocketPath() string {
	if v := os.Getenv(SocketEnvVar); v != "" {
		return v
	}
	return DefaultSocketPath
}

// PreferTCP reports whether the platform lacks usable Unix domain sockets.
func PreferTCP() bool {
	return runtime.GOOS == "windows"
}

// EnsureDir creates a directory and parents if needed.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0700)
}
