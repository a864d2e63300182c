package config

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "experiments[0].fault.status").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// HasField reports whether any error refers to the given field path.
func (e ValidationError) HasField(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All errors are collected and returned
// together; none of them can surface later while serving requests.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateSafety(&cfg.Safety)...)
	errs = append(errs, validateExperiments(cfg.Experiments)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateJournal(&cfg.Journal)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateSafety(cfg *SafetyConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxAffectedPercent < 0 || cfg.MaxAffectedPercent > 100 {
		errs = append(errs, FieldError{
			Field:   "safety.max_affected_percent",
			Message: fmt.Sprintf("must be between 0 and 100, got %d", cfg.MaxAffectedPercent),
		})
	}

	for i, s := range cfg.Schedule {
		if s.Start >= s.End {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("safety.schedule[%d]", i),
				Message: fmt.Sprintf("start time (%s) must be before end time (%s)", s.Start, s.End),
			})
		}
	}

	for i, p := range cfg.ExcludedPaths {
		if p == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("safety.excluded_paths[%d]", i),
				Message: "excluded path cannot be empty",
			})
		}
	}

	return errs
}

func validateExperiments(experiments []Experiment) []FieldError {
	var errs []FieldError
	seen := make(map[string]int, len(experiments))

	for i := range experiments {
		exp := &experiments[i]
		field := fmt.Sprintf("experiments[%d]", i)

		if exp.ID == "" {
			errs = append(errs, FieldError{Field: field + ".id", Message: "experiment id cannot be empty"})
		} else if first, dup := seen[exp.ID]; dup {
			errs = append(errs, FieldError{
				Field:   field + ".id",
				Message: fmt.Sprintf("duplicate experiment id %q (first declared at experiments[%d])", exp.ID, first),
			})
		} else {
			seen[exp.ID] = i
		}

		errs = append(errs, validateTargeting(field+".targeting", &exp.Targeting)...)
		errs = append(errs, validateFault(field+".fault", exp.Fault)...)
	}

	return errs
}

func validateTargeting(field string, t *Targeting) []FieldError {
	var errs []FieldError

	if t.Percentage < 0 || t.Percentage > 100 {
		errs = append(errs, FieldError{
			Field:   field + ".percentage",
			Message: fmt.Sprintf("must be between 0 and 100, got %d", t.Percentage),
		})
	}

	for i, p := range t.Paths {
		if p.Kind != PathRegex {
			continue
		}
		if _, err := regexp.Compile(p.Value); err != nil {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("%s.paths[%d].regex", field, i),
				Message: fmt.Sprintf("invalid regex pattern %q: %v", p.Value, err),
			})
		}
	}

	// Header names match case-insensitively.
	names := make([]string, 0, len(t.Headers))
	for name := range t.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	seen := make(map[string]string, len(names))
	for _, name := range names {
		key := strings.ToLower(name)
		if prev, ok := seen[key]; ok {
			errs = append(errs, FieldError{
				Field:   field + ".headers",
				Message: fmt.Sprintf("header %q duplicates %q (names are case-insensitive)", name, prev),
			})
			continue
		}
		seen[key] = name
	}

	return errs
}

// validateFault checks the parameters of each fault kind.
func validateFault(field string, fault Fault) []FieldError {
	fe := func(sub, msg string) []FieldError {
		return []FieldError{{Field: field + sub, Message: msg}}
	}

	switch f := fault.(type) {
	case nil:
		return fe("", "fault is required")
	case LatencyFault:
		if f.FixedMs == 0 && f.MinMs == 0 && f.MaxMs == 0 {
			return fe("", "latency fault must specify either fixed_ms or min_ms/max_ms")
		}
		if f.FixedMs == 0 && f.MaxMs < f.MinMs {
			return fe(".max_ms", fmt.Sprintf("max_ms (%d) must be >= min_ms (%d)", f.MaxMs, f.MinMs))
		}
	case ErrorFault:
		if f.Status < 100 || f.Status > 599 {
			return fe(".status", fmt.Sprintf("invalid HTTP status code: %d", f.Status))
		}
	case TimeoutFault:
		if f.DurationMs == 0 {
			return fe(".duration_ms", "timeout duration_ms must be > 0")
		}
	case ThrottleFault:
		if f.BytesPerSecond == 0 {
			return fe(".bytes_per_second", "throttle bytes_per_second must be > 0")
		}
	case CorruptFault:
		if f.Probability < 0 || f.Probability > 1 || math.IsNaN(f.Probability) {
			return fe(".probability", fmt.Sprintf("corrupt probability must be between 0.0 and 1.0, got %v", f.Probability))
		}
	case ResetFault:
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: "listen address is required"})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "read timeout must be positive"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "write timeout must be positive"})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.idle_timeout", Message: "idle timeout must be positive"})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.shutdown_timeout", Message: "shutdown timeout must be positive"})
	}
	if cfg.Upstream != "" && !strings.HasPrefix(cfg.Upstream, "http://") && !strings.HasPrefix(cfg.Upstream, "https://") {
		errs = append(errs, FieldError{Field: "server.upstream", Message: fmt.Sprintf("upstream must be an http(s) URL, got %q", cfg.Upstream)})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be debug, info, warn or error)", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be json or text)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "metrics path must start with /"})
	}

	return errs
}

func validateJournal(cfg *JournalConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return nil
	}

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{Field: "journal.sqlite.path", Message: "SQLite path is required when backend is 'sqlite'"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "journal.backend",
			Message: fmt.Sprintf("invalid backend %q (must be memory or sqlite)", cfg.Backend),
		})
	}

	if cfg.Buffer < 0 {
		errs = append(errs, FieldError{Field: "journal.buffer", Message: "buffer must be non-negative"})
	}
	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{Field: "journal.retention.days", Message: "retention days must be non-negative"})
	}
	if cfg.Retention.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "journal.retention.prune_schedule",
				Message: fmt.Sprintf("invalid cron schedule %q: %v", cfg.Retention.PruneSchedule, err),
			})
		}
	}

	return errs
}
