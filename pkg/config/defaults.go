package config

import "time"

// Default values for configuration fields.
const (
	// Settings defaults
	DefaultEnabled       = true
	DefaultDryRun        = false
	DefaultLogInjections = true

	// Safety defaults
	DefaultMaxAffectedPercent = 50
	DefaultTimezone           = "UTC"

	// Experiment defaults
	DefaultExperimentEnabled = true
	DefaultPercentage        = 100

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "chaos"

	// Journal defaults
	DefaultJournalEnabled           = false
	DefaultJournalBackend           = "memory"
	DefaultJournalSQLitePath        = "data/journal.db"
	DefaultJournalSQLiteBusyTimeout = 5 * time.Second
	DefaultJournalBuffer            = 1024
	DefaultJournalRetentionDays     = 7
	DefaultJournalRetentionSchedule = "0 3 * * *"
)

// DefaultExcludedPaths returns the paths excluded when safety.excluded_paths
// is absent. A fresh slice is returned on every call.
func DefaultExcludedPaths() []string {
	return []string{"/health", "/ready", "/metrics"}
}

// Default returns a configuration with every field at its default value.
// Decoding YAML on top of it keeps the defaults for absent keys, which is
// how booleans that default to true survive a partial document.
func Default() *Config {
	return &Config{
		Settings: Settings{
			Enabled:       DefaultEnabled,
			DryRun:        DefaultDryRun,
			LogInjections: DefaultLogInjections,
		},
		Safety: SafetyConfig{
			MaxAffectedPercent: DefaultMaxAffectedPercent,
			ExcludedPaths:      DefaultExcludedPaths(),
		},
		Server: ServerConfig{
			ListenAddress:   DefaultListenAddress,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				Level:  DefaultLoggingLevel,
				Format: DefaultLoggingFormat,
			},
			Metrics: MetricsConfig{
				Enabled:   DefaultMetricsEnabled,
				Path:      DefaultMetricsPath,
				Namespace: DefaultMetricsNamespace,
			},
		},
		Journal: JournalConfig{
			Enabled: DefaultJournalEnabled,
			Backend: DefaultJournalBackend,
			SQLite: JournalSQLiteConfig{
				Path:        DefaultJournalSQLitePath,
				BusyTimeout: DefaultJournalSQLiteBusyTimeout,
			},
			Buffer: DefaultJournalBuffer,
			Retention: JournalRetentionConfig{
				Days:          DefaultJournalRetentionDays,
				PruneSchedule: DefaultJournalRetentionSchedule,
			},
		},
	}
}

// ApplyDefaults fills zero-valued string and duration fields that a
// document explicitly blanked. Booleans and numeric limits are left alone
// because their zero value is meaningful.
func ApplyDefaults(cfg *Config) {
	applyScheduleDefaults(cfg.Safety.Schedule)
	applyServerDefaults(&cfg.Server)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyJournalDefaults(&cfg.Journal)
}

func applyScheduleDefaults(schedules []Schedule) {
	for i := range schedules {
		if schedules[i].Timezone == "" {
			schedules[i].Timezone = DefaultTimezone
		}
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
}

func applyJournalDefaults(cfg *JournalConfig) {
	if cfg.Backend == "" {
		cfg.Backend = DefaultJournalBackend
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = DefaultJournalSQLitePath
	}
	if cfg.SQLite.BusyTimeout == 0 {
		cfg.SQLite.BusyTimeout = DefaultJournalSQLiteBusyTimeout
	}
	if cfg.Buffer == 0 {
		cfg.Buffer = DefaultJournalBuffer
	}
}
