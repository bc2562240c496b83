package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path, applies environment
// variable overrides, and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies environment variable
// overrides, and validates the result. Useful in tests where configs are
// constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: apply env overrides: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a config with all defaults applied. The zero values of
// [ScanConfig] mean "use the built-in pipeline defaults".
func Default() *Config {
	return &Config{
		Server:  ServerConfig{LogLevel: LogInfo},
		Storage: StorageConfig{Backend: BackendMemory},
		Telemetry: TelemetryConfig{
			ServiceName: "canonry",
		},
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Storage.Backend != "" && !cfg.Storage.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("storage.backend %q is invalid; valid values: memory, postgres", cfg.Storage.Backend))
	}
	if cfg.Storage.Backend == BackendPostgres && cfg.Storage.PostgresDSN == "" {
		errs = append(errs, errors.New("storage.postgres_dsn is required when storage.backend is postgres"))
	}

	if cfg.Scan.ContextRadius < 0 {
		errs = append(errs, fmt.Errorf("scan.context_radius %d must not be negative", cfg.Scan.ContextRadius))
	}
	if cfg.Scan.VerbWindow < 0 {
		errs = append(errs, fmt.Errorf("scan.verb_window %d must not be negative", cfg.Scan.VerbWindow))
	}
	if cfg.Scan.NearThreshold < 0 || cfg.Scan.NearThreshold > 1 {
		errs = append(errs, fmt.Errorf("scan.near_threshold %.2f is out of range [0, 1]", cfg.Scan.NearThreshold))
	}

	return errors.Join(errs...)
}
