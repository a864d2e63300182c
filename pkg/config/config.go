package config

import (
	"time"
)

// Config is the root configuration structure for the chaos agent.
// The Settings, Safety and Experiments sections drive fault injection;
// Server, Telemetry and Journal configure the surrounding process.
type Config struct {
	// Settings contains the global switches for fault injection.
	Settings Settings `yaml:"settings"`

	// Safety contains the activation limits applied before any experiment
	// is considered.
	Safety SafetyConfig `yaml:"safety"`

	// Experiments is the ordered list of fault experiments. Order matters:
	// the first matching experiment that wins its percentage roll is applied.
	Experiments []Experiment `yaml:"experiments"`

	// Server contains HTTP listener configuration.
	Server ServerConfig `yaml:"server"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Journal contains configuration for the injection journal.
	Journal JournalConfig `yaml:"journal"`
}

// Settings contains global fault injection switches.
type Settings struct {
	// Enabled is the global kill switch. When false no experiment runs.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// DryRun computes and reports fault decisions without applying them.
	// Default: false
	DryRun bool `yaml:"dry_run"`

	// LogInjections logs every injected fault at info level.
	// Default: true
	LogInjections bool `yaml:"log_injections"`
}

// SafetyConfig contains activation limits.
type SafetyConfig struct {
	// MaxAffectedPercent is the intended ceiling on affected traffic (0-100).
	// It is validated and exported, but not enforced per request.
	// Default: 50
	MaxAffectedPercent int `yaml:"max_affected_percent"`

	// Schedule lists the windows during which chaos may activate. Windows
	// are OR'd together; an empty list means always active.
	Schedule []Schedule `yaml:"schedule"`

	// ExcludedPaths are never affected. An entry excludes the exact path and
	// every child path below it ("/health" excludes "/health/live").
	// Default: ["/health", "/ready", "/metrics"]
	ExcludedPaths []string `yaml:"excluded_paths"`
}

// Schedule is a weekly time window in a named timezone.
type Schedule struct {
	// Days lists the weekdays on which the window applies.
	Days []time.Weekday

	// Start is the inclusive start of the window.
	Start TimeOfDay

	// End is the inclusive end of the window.
	End TimeOfDay

	// Timezone is an IANA zone name such as "UTC" or "America/New_York".
	// Unknown names fall back to UTC at evaluation time.
	// Default: "UTC"
	Timezone string
}

// Experiment is a named rule pairing a targeting predicate with a fault.
type Experiment struct {
	// ID uniquely identifies the experiment. Required.
	ID string

	// Enabled controls whether the experiment is considered.
	// Default: true
	Enabled bool

	// Description is free-form text.
	Description string

	// Targeting selects which requests the experiment may affect.
	Targeting Targeting

	// Fault is the fault injected into selected requests.
	Fault Fault
}

// Targeting selects requests by path, method and headers, then samples
// a percentage of the matches.
type Targeting struct {
	// Paths are OR'd together. Empty matches every path.
	Paths []PathMatcher `yaml:"paths"`

	// Methods are compared case-insensitively. Empty matches every method.
	Methods []string `yaml:"methods"`

	// Headers must all be present with exactly these values. Names are
	// case-insensitive, values are not.
	Headers map[string]string `yaml:"headers"`

	// Percentage of matching requests to affect (0-100).
	// Default: 100
	Percentage int `yaml:"percentage"`
}

// PathMatchKind identifies how a PathMatcher compares paths.
type PathMatchKind string

const (
	// PathExact requires full equality.
	PathExact PathMatchKind = "exact"
	// PathPrefix requires the path to start with the value.
	PathPrefix PathMatchKind = "prefix"
	// PathRegex performs an unanchored regular expression search.
	PathRegex PathMatchKind = "regex"
)

// PathMatcher is one path predicate. In YAML it is written as a single-key
// mapping: {exact: "/a"}, {prefix: "/api/"} or {regex: "^/v[0-9]+/"}.
type PathMatcher struct {
	Kind  PathMatchKind
	Value string
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// ListenAddress is the address the agent listens on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// Upstream, when set, enables reverse-proxy mode: traffic that is not
	// blocked by a fault is forwarded to this URL.
	Upstream string `yaml:"upstream"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response. It must
	// exceed the longest configured latency or timeout fault.
	// Default: 60s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is one of "json", "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled exposes the metrics endpoint.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path of the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	// Default: "chaos"
	Namespace string `yaml:"namespace"`
}

// JournalConfig configures the injection journal.
type JournalConfig struct {
	// Enabled records every injected fault.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend is "memory" or "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLite configures the sqlite backend.
	SQLite JournalSQLiteConfig `yaml:"sqlite"`

	// Buffer is the size of the asynchronous write queue. Events are
	// dropped when it is full.
	// Default: 1024
	Buffer int `yaml:"buffer"`

	// Retention configures pruning of old events.
	Retention JournalRetentionConfig `yaml:"retention"`
}

// JournalSQLiteConfig configures the sqlite journal backend.
type JournalSQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/journal.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// JournalRetentionConfig configures journal pruning.
type JournalRetentionConfig struct {
	// Days is how long events are kept. Zero keeps them forever.
	// Default: 7
	Days int `yaml:"days"`

	// PruneSchedule is a standard cron expression. Empty disables pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}
