package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a YAML document. An empty document yields
// the default configuration with no experiments.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Variables follow the naming
// convention CHAOS_SECTION_FIELD (e.g. CHAOS_SETTINGS_DRY_RUN) and always
// take precedence over the file.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration invalid after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies CHAOS_* environment variable overrides.
// Unparseable values are ignored.
func applyEnvOverrides(cfg *Config) {
	envBool("CHAOS_SETTINGS_ENABLED", &cfg.Settings.Enabled)
	envBool("CHAOS_SETTINGS_DRY_RUN", &cfg.Settings.DryRun)
	envBool("CHAOS_SETTINGS_LOG_INJECTIONS", &cfg.Settings.LogInjections)

	envString("CHAOS_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envString("CHAOS_SERVER_UPSTREAM", &cfg.Server.Upstream)

	envString("CHAOS_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("CHAOS_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("CHAOS_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)

	envBool("CHAOS_JOURNAL_ENABLED", &cfg.Journal.Enabled)
	envString("CHAOS_JOURNAL_BACKEND", &cfg.Journal.Backend)
	envString("CHAOS_JOURNAL_SQLITE_PATH", &cfg.Journal.SQLite.Path)
}

func envString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}
