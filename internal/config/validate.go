package config

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"time"
)

// Validate checks configuration invariants and returns actionable errors.
func Validate(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	var errs []error
	errs = append(errs, validateServer(cfg.Server)...)
	errs = append(errs, validateSelection(cfg.Selection)...)
	errs = append(errs, validateLog(cfg.Log)...)
	errs = append(errs, validateTracing(cfg.Tracing)...)
	return errors.Join(errs...)
}

func validateServer(srv ServerConfig) []error {
	var errs []error

	switch srv.Transport {
	case "unix":
		if strings.TrimSpace(srv.SocketPath) == "" {
			errs = append(errs, fmt.Errorf("server.socket_path: required for unix transport"))
		} else if !filepath.IsAbs(srv.SocketPath) {
			errs = append(errs, fmt.Errorf("server.socket_path: must be absolute, got %q", srv.SocketPath))
		}
	case "tcp":
		if _, _, err := net.SplitHostPort(srv.TCPAddr); err != nil {
			errs = append(errs, fmt.Errorf("server.tcp_addr: invalid address %q: %w", srv.TCPAddr, err))
		}
	default:
		errs = append(errs, fmt.Errorf("server.transport: must be \"unix\" or \"tcp\", got %q", srv.Transport))
	}

	errs = appendDurationErr(errs, "server.read_timeout", srv.ReadTimeout)
	errs = appendDurationErr(errs, "server.submit_timeout", srv.SubmitTimeout)
	errs = appendDurationErr(errs, "server.pump_interval", srv.PumpInterval)
	errs = appendDurationErr(errs, "server.idle_timeout", srv.IdleTimeout)
	return errs
}

func validateSelection(sel SelectionConfig) []error {
	var errs []error
	errs = appendDurationErr(errs, "selection.ttl", sel.TTL)
	errs = appendDurationErr(errs, "selection.cleanup_interval", sel.CleanupInterval)
	return errs
}

func validateLog(l LogConfig) []error {
	switch strings.ToLower(l.Level) {
	case "", "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return []error{fmt.Errorf("log.level: unknown level %q", l.Level)}
	}
}

func validateTracing(tc TracingConfig) []error {
	var errs []error
	switch tc.Exporter {
	case "", "none", "stdout", "otlp":
	default:
		errs = append(errs, fmt.Errorf("tracing.exporter: unsupported exporter %q", tc.Exporter))
	}
	if tc.SampleRate < 0 || tc.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_rate: must be within [0, 1], got %v", tc.SampleRate))
	}
	return errs
}

func appendDurationErr(errs []error, field, raw string) []error {
	if raw == "" {
		return errs
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return append(errs, fmt.Errorf("%s: invalid duration %q: %w", field, raw, err))
	}
	if d <= 0 {
		return append(errs, fmt.Errorf("%s: must be > 0, got %q", field, raw))
	}
	return errs
}
