package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chaos.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error = %v", err)
	}

	if !cfg.Settings.Enabled {
		t.Error("expected settings.enabled to default to true")
	}
	if cfg.Settings.DryRun {
		t.Error("expected settings.dry_run to default to false")
	}
	if !cfg.Settings.LogInjections {
		t.Error("expected settings.log_injections to default to true")
	}
	if cfg.Safety.MaxAffectedPercent != DefaultMaxAffectedPercent {
		t.Errorf("expected max_affected_percent %d, got %d", DefaultMaxAffectedPercent, cfg.Safety.MaxAffectedPercent)
	}
	if got := strings.Join(cfg.Safety.ExcludedPaths, ","); got != "/health,/ready,/metrics" {
		t.Errorf("unexpected default excluded paths: %q", got)
	}
	if len(cfg.Experiments) != 0 {
		t.Errorf("expected no experiments, got %d", len(cfg.Experiments))
	}
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("expected listen address %q, got %q", DefaultListenAddress, cfg.Server.ListenAddress)
	}
}

func TestParse_PartialSettingsKeepDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
settings:
  dry_run: true
safety:
  max_affected_percent: 20
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !cfg.Settings.Enabled {
		t.Error("absent settings.enabled should stay true")
	}
	if !cfg.Settings.DryRun {
		t.Error("expected dry_run true")
	}
	if len(cfg.Safety.ExcludedPaths) != 3 {
		t.Errorf("absent excluded_paths should keep defaults, got %v", cfg.Safety.ExcludedPaths)
	}
}

func TestParse_ExplicitEmptyExcludedPaths(t *testing.T) {
	cfg, err := Parse([]byte(`
safety:
  excluded_paths: []
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(cfg.Safety.ExcludedPaths) != 0 {
		t.Errorf("expected no excluded paths, got %v", cfg.Safety.ExcludedPaths)
	}
}

func TestParse_Experiments(t *testing.T) {
	cfg, err := Parse([]byte(`
experiments:
  - id: "api-latency"
    description: "Add latency to API calls"
    targeting:
      paths:
        - prefix: "/api/"
        - exact: "/login"
        - regex: "^/v[0-9]+/"
      methods: ["get", "POST"]
      headers:
        X-Chaos: "on"
      percentage: 10
    fault:
      type: latency
      fixed_ms: 500
  - id: "payment-errors"
    enabled: false
    targeting:
      percentage: 5
    fault:
      type: error
      status: 503
      message: "Service Unavailable"
      headers:
        retry-after: "30"
  - id: "timeouts"
    fault:
      type: timeout
      duration_ms: 30000
  - id: "slow"
    fault:
      type: throttle
      bytes_per_second: 1024
  - id: "garbage"
    fault:
      type: corrupt
      probability: 0.25
  - id: "reset"
    fault:
      type: reset
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(cfg.Experiments) != 6 {
		t.Fatalf("expected 6 experiments, got %d", len(cfg.Experiments))
	}

	latency := cfg.Experiments[0]
	if latency.ID != "api-latency" || !latency.Enabled {
		t.Errorf("unexpected first experiment: %+v", latency)
	}
	if latency.Targeting.Percentage != 10 {
		t.Errorf("expected percentage 10, got %d", latency.Targeting.Percentage)
	}
	wantPaths := []PathMatcher{
		{Kind: PathPrefix, Value: "/api/"},
		{Kind: PathExact, Value: "/login"},
		{Kind: PathRegex, Value: "^/v[0-9]+/"},
	}
	if len(latency.Targeting.Paths) != len(wantPaths) {
		t.Fatalf("expected %d paths, got %d", len(wantPaths), len(latency.Targeting.Paths))
	}
	for i, want := range wantPaths {
		if latency.Targeting.Paths[i] != want {
			t.Errorf("paths[%d] = %+v, want %+v", i, latency.Targeting.Paths[i], want)
		}
	}
	if lf, ok := latency.Fault.(LatencyFault); !ok || lf.FixedMs != 500 {
		t.Errorf("expected latency fault with fixed_ms 500, got %#v", latency.Fault)
	}

	errExp := cfg.Experiments[1]
	if errExp.Enabled {
		t.Error("expected payment-errors to be disabled")
	}
	ef, ok := errExp.Fault.(ErrorFault)
	if !ok {
		t.Fatalf("expected error fault, got %#v", errExp.Fault)
	}
	if ef.Status != 503 || ef.Message == nil || *ef.Message != "Service Unavailable" {
		t.Errorf("unexpected error fault: %+v", ef)
	}
	if ef.Headers["retry-after"] != "30" {
		t.Errorf("expected retry-after header, got %v", ef.Headers)
	}

	if cfg.Experiments[2].Targeting.Percentage != DefaultPercentage {
		t.Errorf("absent targeting should default percentage to %d, got %d", DefaultPercentage, cfg.Experiments[2].Targeting.Percentage)
	}

	wantKinds := []FaultKind{KindLatency, KindError, KindTimeout, KindThrottle, KindCorrupt, KindReset}
	for i, want := range wantKinds {
		if got := cfg.Experiments[i].Fault.Kind(); got != want {
			t.Errorf("experiments[%d] kind = %q, want %q", i, got, want)
		}
	}
}

func TestParse_Schedule(t *testing.T) {
	cfg, err := Parse([]byte(`
safety:
  schedule:
    - days: [mon, Tuesday, WED]
      start: "09:00"
      end: "17:30"
      timezone: "America/New_York"
    - days: [sat]
      start: "10:00"
      end: "11:00:30"
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(cfg.Safety.Schedule) != 2 {
		t.Fatalf("expected 2 schedules, got %d", len(cfg.Safety.Schedule))
	}
	s := cfg.Safety.Schedule[0]
	want := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday}
	if len(s.Days) != len(want) {
		t.Fatalf("expected %d days, got %v", len(want), s.Days)
	}
	for i := range want {
		if s.Days[i] != want[i] {
			t.Errorf("days[%d] = %v, want %v", i, s.Days[i], want[i])
		}
	}
	if s.Start != NewTimeOfDay(9, 0, 0) || s.End != NewTimeOfDay(17, 30, 0) {
		t.Errorf("unexpected window %s-%s", s.Start, s.End)
	}
	if s.Timezone != "America/New_York" {
		t.Errorf("unexpected timezone %q", s.Timezone)
	}
	if cfg.Safety.Schedule[1].Timezone != DefaultTimezone {
		t.Errorf("expected default timezone, got %q", cfg.Safety.Schedule[1].Timezone)
	}
	if got := cfg.Safety.Schedule[1].End.String(); got != "11:00:30" {
		t.Errorf("End.String() = %q", got)
	}
}

func TestParse_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown fault type",
			yaml: "experiments:\n  - id: x\n    fault:\n      type: explode\n",
			want: "unknown fault type",
		},
		{
			name: "missing fault type",
			yaml: "experiments:\n  - id: x\n    fault:\n      fixed_ms: 10\n",
			want: "fault type is required",
		},
		{
			name: "invalid weekday",
			yaml: "safety:\n  schedule:\n    - days: [funday]\n      start: \"09:00\"\n      end: \"10:00\"\n",
			want: "invalid weekday",
		},
		{
			name: "invalid time",
			yaml: "safety:\n  schedule:\n    - days: [mon]\n      start: \"9am\"\n      end: \"10:00\"\n",
			want: "invalid time of day",
		},
		{
			name: "ambiguous path matcher",
			yaml: "experiments:\n  - id: x\n    targeting:\n      paths:\n        - exact: /a\n          prefix: /b\n    fault:\n      type: reset\n",
			want: "exactly one of",
		},
		{
			name: "unknown path matcher",
			yaml: "experiments:\n  - id: x\n    targeting:\n      paths:\n        - glob: /a/*\n    fault:\n      type: reset\n",
			want: "unknown path matcher",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
settings:
  enabled: true
  log_injections: false
server:
  listen_address: "0.0.0.0:9090"
  write_timeout: "90s"
telemetry:
  logging:
    level: debug
    format: text
experiments: []
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Settings.LogInjections {
		t.Error("expected log_injections false")
	}
	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:9090", cfg.Server.ListenAddress)
	}
	if cfg.Server.WriteTimeout != 90*time.Second {
		t.Errorf("expected write timeout 90s, got %v", cfg.Server.WriteTimeout)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level debug, got %q", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/chaos.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got: %v", err)
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "settings:\n  enabled: [\n")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
settings:
  dry_run: false
`)
	t.Setenv("CHAOS_SETTINGS_DRY_RUN", "true")
	t.Setenv("CHAOS_SETTINGS_ENABLED", "not-a-bool")
	t.Setenv("CHAOS_SERVER_LISTEN_ADDRESS", "127.0.0.1:7000")
	t.Setenv("CHAOS_TELEMETRY_LOGGING_LEVEL", "warn")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}
	if !cfg.Settings.DryRun {
		t.Error("expected CHAOS_SETTINGS_DRY_RUN to override dry_run")
	}
	if !cfg.Settings.Enabled {
		t.Error("unparseable CHAOS_SETTINGS_ENABLED should be ignored")
	}
	if cfg.Server.ListenAddress != "127.0.0.1:7000" {
		t.Errorf("unexpected listen address %q", cfg.Server.ListenAddress)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("unexpected logging level %q", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfigWithEnvOverrides_Invalid(t *testing.T) {
	path := writeConfig(t, "settings:\n  enabled: true\n")
	t.Setenv("CHAOS_TELEMETRY_LOGGING_LEVEL", "loud")

	_, err := LoadConfigWithEnvOverrides(path)
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !verr.HasField("telemetry.logging.level") {
		t.Errorf("expected telemetry.logging.level error, got %v", verr)
	}
}
