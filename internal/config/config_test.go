package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(raw), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("FREECAD_MCP_SOCKET", "")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Server.SocketPath != "/tmp/freecad_mcp.sock" {
		t.Fatalf("socket_path = %q, want default", cfg.Server.SocketPath)
	}
	if got := cfg.Selection.TTLDuration(); got != 5*time.Minute {
		t.Fatalf("selection ttl = %v, want 5m", got)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate(defaults) = %v, want nil", err)
	}
}

func TestLoadFromExpandsEnvValuesAfterParsing(t *testing.T) {
	t.Setenv("FREECAD_MCP_SOCKET", "")
	t.Setenv("MCP_RUN_DIR", "/tmp/run-dir")

	path := writeConfig(t, `
[server]
socket_path = "${MCP_RUN_DIR}/freecad.sock"

[log]
file = "${MCP_RUN_DIR}/host.log"
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Server.SocketPath != "/tmp/run-dir/freecad.sock" {
		t.Fatalf("socket_path = %q, want expanded", cfg.Server.SocketPath)
	}
	if cfg.Log.File != "/tmp/run-dir/host.log" {
		t.Fatalf("log.file = %q, want expanded", cfg.Log.File)
	}
}

func TestLoadFromLeavesUnresolvedVarsAsIs(t *testing.T) {
	t.Setenv("FREECAD_MCP_SOCKET", "")

	path := writeConfig(t, `
[server]
socket_path = "/tmp/${FREECAD_MCP_DOES_NOT_EXIST}.sock"
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Server.SocketPath != "/tmp/${FREECAD_MCP_DOES_NOT_EXIST}.sock" {
		t.Fatalf("socket_path = %q, want unresolved placeholder kept", cfg.Server.SocketPath)
	}
}

func TestLoadFromSocketEnvOverridesFile(t *testing.T) {
	t.Setenv("FREECAD_MCP_SOCKET", "/tmp/override.sock")

	path := writeConfig(t, `
[server]
socket_path = "/tmp/from-file.sock"
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Server.SocketPath != "/tmp/override.sock" {
		t.Fatalf("socket_path = %q, want env override", cfg.Server.SocketPath)
	}
}

func TestLoadFromKeepsDefaultsForOmittedSections(t *testing.T) {
	t.Setenv("FREECAD_MCP_SOCKET", "")

	path := writeConfig(t, `
[selection]
ttl = "90s"
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if got := cfg.Selection.TTLDuration(); got != 90*time.Second {
		t.Fatalf("selection ttl = %v, want 90s", got)
	}
	if got := cfg.Server.SubmitTimeoutDuration(); got != DefaultSubmitTimeout {
		t.Fatalf("submit timeout = %v, want default", got)
	}
	if cfg.Tracing.Exporter != "none" {
		t.Fatalf("tracing exporter = %q, want none", cfg.Tracing.Exporter)
	}
}

func TestLoadFromRejectsMalformedTOML(t *testing.T) {
	path := writeConfig(t, "[server\nsocket_path = 1")

	if _, err := LoadFrom(path); err == nil {
		t.Fatal("LoadFrom() error = nil, want parse error")
	}
}

func TestDurationAccessorsFallBackOnGarbage(t *testing.T) {
	srv := ServerConfig{ReadTimeout: "soon", PumpInterval: "-1s"}
	if got := srv.ReadTimeoutDuration(); got != DefaultReadTimeout {
		t.Fatalf("ReadTimeoutDuration() = %v, want default", got)
	}
	if got := srv.PumpIntervalDuration(); got != DefaultPumpInterval {
		t.Fatalf("PumpIntervalDuration() = %v, want default", got)
	}
}

func TestIdleTimeoutDisabledByDefault(t *testing.T) {
	if got := Default().Server.IdleTimeoutDuration(); got != 0 {
		t.Fatalf("IdleTimeoutDuration() = %v, want 0", got)
	}
	srv := ServerConfig{IdleTimeout: "90s"}
	if got := srv.IdleTimeoutDuration(); got != 90*time.Second {
		t.Fatalf("IdleTimeoutDuration() = %v, want 90s", got)
	}
}
