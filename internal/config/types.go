package config

import "time"

// Config is the top-level freecad-mcp configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Selection SelectionConfig `toml:"selection"`
	Log       LogConfig       `toml:"log"`
	Tracing   TracingConfig   `toml:"tracing"`
}

// ServerConfig describes the host socket and the GUI dispatch cadence.
type ServerConfig struct {
	// Transport is "unix" (default) or "tcp".
	Transport  string `toml:"transport"`
	SocketPath string `toml:"socket_path"`
	TCPAddr    string `toml:"tcp_addr"`

	// Durations are Go duration strings ("30s", "50ms").
	ReadTimeout   string `toml:"read_timeout"`
	SubmitTimeout string `toml:"submit_timeout"`
	PumpInterval  string `toml:"pump_interval"`
	// IdleTimeout stops the host after this long without requests.
	// Empty keeps it running until signaled.
	IdleTimeout string `toml:"idle_timeout"`

	// PeerCheck rejects Unix socket peers owned by another user.
	PeerCheck bool `toml:"peer_check"`
}

// SelectionConfig bounds the lifetime of pending interactive selections.
type SelectionConfig struct {
	TTL             string `toml:"ttl"`
	CleanupInterval string `toml:"cleanup_interval"`
}

// LogConfig selects the slog level and destination.
type LogConfig struct {
	Level string `toml:"level"`
	// File is a log file path. Empty means stderr.
	File string `toml:"file"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool    `toml:"enabled"`
	Exporter     string  `toml:"exporter"` // none, stdout, otlp
	OTLPEndpoint string  `toml:"otlp_endpoint"`
	SampleRate   float64 `toml:"sample_rate"`
	ServiceName  string  `toml:"service_name"`
}

// Defaults.
const (
	DefaultReadTimeout     = 30 * time.Second
	DefaultSubmitTimeout   = 5 * time.Second
	DefaultPumpInterval    = 25 * time.Millisecond
	DefaultSelectionTTL    = 5 * time.Minute
	DefaultCleanupInterval = time.Minute
)

// IsTCP returns true if the server uses the TCP transport.
func (s ServerConfig) IsTCP() bool {
	return s.Transport == "tcp"
}

// ReadTimeoutDuration returns the per-connection read timeout.
func (s ServerConfig) ReadTimeoutDuration() time.Duration {
	return durationOr(s.ReadTimeout, DefaultReadTimeout)
}

// SubmitTimeoutDuration returns how long a socket worker waits on the GUI thread.
func (s ServerConfig) SubmitTimeoutDuration() time.Duration {
	return durationOr(s.SubmitTimeout, DefaultSubmitTimeout)
}

// PumpIntervalDuration returns the cadence of the headless GUI pump.
func (s ServerConfig) PumpIntervalDuration() time.Duration {
	return durationOr(s.PumpInterval, DefaultPumpInterval)
}

// IdleTimeoutDuration returns the idle shutdown delay, or 0 when disabled.
func (s ServerConfig) IdleTimeoutDuration() time.Duration {
	return durationOr(s.IdleTimeout, 0)
}

// TTLDuration returns how long a selection request stays pending.
func (s SelectionConfig) TTLDuration() time.Duration {
	return durationOr(s.TTL, DefaultSelectionTTL)
}

// CleanupIntervalDuration returns how often expired selections are reaped.
func (s SelectionConfig) CleanupIntervalDuration() time.Duration {
	return durationOr(s.CleanupInterval, DefaultCleanupInterval)
}

func durationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
