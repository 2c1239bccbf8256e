package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
	"github.com/blwfish/freecad-mcp-sub000/internal/paths"
)

var envVarRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads the config file and returns the parsed Config.
// If the config file does not exist, it returns the defaults (no error).
func Load() (*Config, error) {
	return LoadFrom(paths.ConfigFile())
}

// LoadFrom reads and parses a config file at the given path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	expandConfigEnvVars(cfg)
	fillDefaults(cfg)
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns a Config with every field populated.
func Default() *Config {
	transport := "unix"
	if paths.PreferTCP() {
		transport = "tcp"
	}
	return &Config{
		Server: ServerConfig{
			Transport:     transport,
			SocketPath:    paths.DefaultSocketPath,
			TCPAddr:       paths.DefaultTCPAddr,
			ReadTimeout:   DefaultReadTimeout.String(),
			SubmitTimeout: DefaultSubmitTimeout.String(),
			PumpInterval:  DefaultPumpInterval.String(),
		},
		Selection: SelectionConfig{
			TTL:             DefaultSelectionTTL.String(),
			CleanupInterval: DefaultCleanupInterval.String(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Tracing: TracingConfig{
			Exporter:     "none",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
			ServiceName:  "freecad-mcp",
		},
	}
}

// ExampleConfigPath returns the default config file path (for help messages).
func ExampleConfigPath() string {
	return paths.ConfigFile()
}

func fillDefaults(cfg *Config) {
	def := Default()
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = def.Server.Transport
	}
	if cfg.Server.SocketPath == "" {
		cfg.Server.SocketPath = def.Server.SocketPath
	}
	if cfg.Server.TCPAddr == "" {
		cfg.Server.TCPAddr = def.Server.TCPAddr
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Tracing.Exporter == "" {
		cfg.Tracing.Exporter = def.Tracing.Exporter
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = def.Tracing.ServiceName
	}
	if cfg.Tracing.SampleRate <= 0 {
		cfg.Tracing.SampleRate = def.Tracing.SampleRate
	}
}

// applyEnvOverrides lets $FREECAD_MCP_SOCKET win over the file, so several
// headless hosts can run side by side with one shared config.
func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv(paths.SocketEnvVar); ok && v != "" {
		cfg.Server.SocketPath = v
	}
}

func expandConfigEnvVars(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.Server.SocketPath = expandEnvVars(cfg.Server.SocketPath)
	cfg.Server.TCPAddr = expandEnvVars(cfg.Server.TCPAddr)
	cfg.Log.File = expandEnvVars(cfg.Log.File)
	cfg.Tracing.OTLPEndpoint = expandEnvVars(cfg.Tracing.OTLPEndpoint)
}

// expandEnvVars replaces ${VAR_NAME} with the value of the environment variable.
func expandEnvVars(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarRe.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match // leave unresolved vars as-is
	})
}
