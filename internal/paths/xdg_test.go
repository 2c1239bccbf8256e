package paths

import (
	"path/filepath"
	"testing"
)

func TestRuntimeDirUsesXDGStateHomeFallback(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")
	t.Setenv("XDG_STATE_HOME", "/tmp/state-home")
	t.Setenv("HOME", "/tmp/home")

	got := RuntimeDir()
	want := filepath.Join("/tmp/state-home", "freecad-mcp")
	if got != want {
		t.Fatalf("RuntimeDir() = %q, want %q", got, want)
	}
}

func TestRuntimeDirPrefersXDGRuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/tmp/xdg-runtime")
	t.Setenv("XDG_STATE_HOME", "/tmp/state-home")

	got := RuntimeDir()
	want := filepath.Join("/tmp/xdg-runtime", "freecad-mcp")
	if got != want {
		t.Fatalf("RuntimeDir() = %q, want %q", got, want)
	}
}

func TestConfigFileFallsBackToHomeConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/tmp/home")

	got := ConfigFile()
	want := filepath.Join("/tmp/home", ".config", "freecad-mcp", "config.toml")
	if got != want {
		t.Fatalf("ConfigFile() = %q, want %q", got, want)
	}
}

func TestSocketPathPrefersEnvOverride(t *testing.T) {
	t.Setenv(SocketEnvVar, "/tmp/freecad_mcp_test.sock")

	if got := SocketPath(); got != "/tmp/freecad_mcp_test.sock" {
		t.Fatalf("SocketPath() = %q, want env override", got)
	}
}

func TestSocketPathDefault(t *testing.T) {
	t.Setenv(SocketEnvVar, "")

	if got := SocketPath(); got != DefaultSocketPath {
		t.Fatalf("SocketPath() = %q, want %q", got, DefaultSocketPath)
	}
}

func TestLockPathLivesInRuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/tmp/xdg-runtime")

	got := LockPath()
	want := filepath.Join("/tmp/xdg-runtime", "freecad-mcp", "spawn.lock")
	if got != want {
		t.Fatalf("LockPath() = %q, want %q", got, want)
	}
}
