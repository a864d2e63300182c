package faults

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/chaos/pkg/config"
	"mercator-hq/chaos/pkg/random"
)

// recordingSleeper records requested waits without blocking.
type recordingSleeper struct {
	mu    sync.Mutex
	slept []time.Duration
}

func (s *recordingSleeper) Sleep(_ context.Context, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slept = append(s.slept, d)
}

func (s *recordingSleeper) calls() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.slept...)
}

func strPtr(s string) *string { return &s }

func TestApply_LatencyFixedSleeps(t *testing.T) {
	e := NewExecutor()

	start := time.Now()
	out := e.Apply(context.Background(), config.LatencyFault{FixedMs: 100}, "lat", false)
	elapsed := time.Since(start)

	if out.Blocked() {
		t.Fatal("latency fault should allow")
	}
	if !out.HasDelay() || *out.Delay != 100*time.Millisecond {
		t.Errorf("Delay = %v, want 100ms", out.Delay)
	}
	if elapsed < 100*time.Millisecond {
		t.Errorf("elapsed %v, want >= 100ms", elapsed)
	}
}

func TestApply_LatencyDryRunDoesNotSleep(t *testing.T) {
	e := NewExecutor()

	start := time.Now()
	out := e.Apply(context.Background(), config.LatencyFault{FixedMs: 100}, "lat", true)
	elapsed := time.Since(start)

	if out.Blocked() {
		t.Fatal("dry-run latency should allow")
	}
	if !out.HasDelay() || out.DelayMs() != 100 {
		t.Errorf("dry-run should still report the computed delay, got %v", out.Delay)
	}
	if elapsed >= 10*time.Millisecond {
		t.Errorf("dry-run took %v, want < 10ms", elapsed)
	}
}

func TestApply_LatencyRange(t *testing.T) {
	tests := []struct {
		name   string
		fault  config.LatencyFault
		draws  []int64
		wantMs int64
	}{
		{name: "fixed wins over range", fault: config.LatencyFault{FixedMs: 7, MinMs: 100, MaxMs: 200}, wantMs: 7},
		{name: "lower bound", fault: config.LatencyFault{MinMs: 100, MaxMs: 200}, draws: []int64{0}, wantMs: 100},
		{name: "upper bound inclusive", fault: config.LatencyFault{MinMs: 100, MaxMs: 200}, draws: []int64{100}, wantMs: 200},
		{name: "min only", fault: config.LatencyFault{MinMs: 50}, wantMs: 50},
		{name: "max equal to min", fault: config.LatencyFault{MinMs: 80, MaxMs: 80}, wantMs: 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sleeper := &recordingSleeper{}
			e := NewExecutor(WithRandom(random.NewSequence(tt.draws...)), WithSleeper(sleeper))

			out := e.Apply(context.Background(), tt.fault, "lat", false)
			if out.DelayMs() != tt.wantMs {
				t.Errorf("DelayMs() = %d, want %d", out.DelayMs(), tt.wantMs)
			}
			calls := sleeper.calls()
			if len(calls) != 1 || calls[0] != time.Duration(tt.wantMs)*time.Millisecond {
				t.Errorf("sleeper calls = %v", calls)
			}
		})
	}
}

func TestApply_LatencyRangeStaysInBounds(t *testing.T) {
	e := NewExecutor(WithSleeper(&recordingSleeper{}))
	for i := 0; i < 200; i++ {
		ms := e.Apply(context.Background(), config.LatencyFault{MinMs: 10, MaxMs: 20}, "lat", false).DelayMs()
		if ms < 10 || ms > 20 {
			t.Fatalf("delay %dms outside [10,20]", ms)
		}
	}
}

func TestApply_Error(t *testing.T) {
	e := NewExecutor()

	out := e.Apply(context.Background(), config.ErrorFault{Status: 503}, "payment-errors", false)
	if !out.Blocked() || out.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected block 503, got %+v", out)
	}
	if string(out.Body) != DefaultErrorBody {
		t.Errorf("Body = %q, want %q", out.Body, DefaultErrorBody)
	}
	if out.Headers.Get(HeaderInjected) != "true" {
		t.Errorf("missing injected marker: %v", out.Headers)
	}
	if out.Headers.Get(HeaderExperiment) != "payment-errors" {
		t.Errorf("missing experiment marker: %v", out.Headers)
	}
	if out.Headers.Get("Content-Type") != "text/plain; charset=utf-8" {
		t.Errorf("unexpected content type %q", out.Headers.Get("Content-Type"))
	}
	if out.HasDelay() {
		t.Error("error fault should not carry a delay")
	}
}

func TestApply_ErrorMessageAndHeaderOverride(t *testing.T) {
	e := NewExecutor()

	fault := config.ErrorFault{
		Status:  429,
		Message: strPtr("slow down"),
		Headers: map[string]string{
			"retry-after":  "30",
			"content-type": "application/json",
		},
	}
	out := e.Apply(context.Background(), fault, "rate", false)

	if string(out.Body) != "slow down" {
		t.Errorf("Body = %q", out.Body)
	}
	if out.Headers.Get("Retry-After") != "30" {
		t.Errorf("missing extra header: %v", out.Headers)
	}
	if got := out.Headers.Values("Content-Type"); len(got) != 1 || got[0] != "application/json" {
		t.Errorf("configured header should override marker, got %v", got)
	}
}

func TestApply_ErrorDryRun(t *testing.T) {
	e := NewExecutor()

	out := e.Apply(context.Background(), config.ErrorFault{Status: 503}, "payment-errors", true)
	if out.Blocked() {
		t.Fatal("dry-run error should allow")
	}
	if len(out.Headers) != 0 || out.Body != nil || out.HasDelay() {
		t.Errorf("dry-run should add nothing, got %+v", out)
	}
}

func TestApply_Timeout(t *testing.T) {
	sleeper := &recordingSleeper{}
	e := NewExecutor(WithSleeper(sleeper))

	out := e.Apply(context.Background(), config.TimeoutFault{DurationMs: 30000}, "slow", false)
	if !out.Blocked() || out.Status != http.StatusGatewayTimeout {
		t.Fatalf("expected block 504, got %+v", out)
	}
	if string(out.Body) != TimeoutBody {
		t.Errorf("Body = %q", out.Body)
	}
	if calls := sleeper.calls(); len(calls) != 1 || calls[0] != 30*time.Second {
		t.Errorf("sleeper calls = %v, want [30s]", calls)
	}

	dry := e.Apply(context.Background(), config.TimeoutFault{DurationMs: 30000}, "slow", true)
	if dry.Blocked() || dry.HasDelay() {
		t.Errorf("dry-run timeout should be a plain allow, got %+v", dry)
	}
	if len(sleeper.calls()) != 1 {
		t.Error("dry-run timeout should not wait")
	}
}

func TestApply_TimeoutHonorsRequestContext(t *testing.T) {
	e := NewExecutor()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	out := e.Apply(ctx, config.TimeoutFault{DurationMs: 5000}, "slow", false)
	if time.Since(start) > time.Second {
		t.Error("wait should end when the request context is done")
	}
	if out.Status != http.StatusGatewayTimeout {
		t.Errorf("Status = %d, want 504", out.Status)
	}
}

func TestApply_Throttle(t *testing.T) {
	sleeper := &recordingSleeper{}
	e := NewExecutor(WithSleeper(sleeper))

	out := e.Apply(context.Background(), config.ThrottleFault{BytesPerSecond: 1024}, "bw", false)
	if out.Blocked() {
		t.Fatal("throttle should allow")
	}
	if out.DelayMs() != 10000 {
		t.Errorf("DelayMs() = %d, want 10000", out.DelayMs())
	}
	if len(sleeper.calls()) != 0 {
		t.Error("throttle should never wait")
	}

	dry := e.Apply(context.Background(), config.ThrottleFault{BytesPerSecond: 1024}, "bw", true)
	if dry.Blocked() || dry.HasDelay() {
		t.Errorf("dry-run throttle should be a plain allow, got %+v", dry)
	}
}

func TestApply_CorruptAlways(t *testing.T) {
	e := NewExecutor()

	for i := 0; i < 100; i++ {
		out := e.Apply(context.Background(), config.CorruptFault{Probability: 1.0}, "garbage", false)
		if !out.Blocked() || out.Status != http.StatusOK {
			t.Fatalf("trial %d: expected block 200, got %+v", i, out)
		}
		if n := len(out.Body); n < 50 || n >= 500 {
			t.Fatalf("trial %d: body length %d outside [50,500)", i, n)
		}
		for _, b := range out.Body {
			if b < 0x20 || b > 0x7d {
				t.Fatalf("trial %d: byte %#x outside printable range", i, b)
			}
		}
		if out.Headers.Get("Content-Type") != "application/octet-stream" {
			t.Fatalf("unexpected content type %q", out.Headers.Get("Content-Type"))
		}
		if out.Headers.Get(HeaderExperiment) != "garbage" {
			t.Fatalf("missing experiment marker")
		}
	}
}

func TestApply_CorruptNever(t *testing.T) {
	e := NewExecutor()

	for i := 0; i < 100; i++ {
		out := e.Apply(context.Background(), config.CorruptFault{Probability: 0.0}, "garbage", false)
		if out.Blocked() || out.HasDelay() {
			t.Fatalf("trial %d: expected plain allow, got %+v", i, out)
		}
	}
}

func TestApply_CorruptDryRun(t *testing.T) {
	e := NewExecutor(WithRandom(&random.Sequence{Floats: []float64{0.1}}))

	out := e.Apply(context.Background(), config.CorruptFault{Probability: 0.5}, "garbage", true)
	if out.Blocked() || out.HasDelay() {
		t.Errorf("triggered dry-run corrupt should be a plain allow, got %+v", out)
	}
}

func TestApply_CorruptDrawThreshold(t *testing.T) {
	rng := &random.Sequence{Floats: []float64{0.49, 0.5}}
	e := NewExecutor(WithRandom(rng))

	if out := e.Apply(context.Background(), config.CorruptFault{Probability: 0.5}, "g", false); !out.Blocked() {
		t.Error("draw below probability should trigger")
	}
	if out := e.Apply(context.Background(), config.CorruptFault{Probability: 0.5}, "g", false); out.Blocked() {
		t.Error("draw equal to probability should not trigger")
	}
}

func TestApply_Reset(t *testing.T) {
	e := NewExecutor()

	out := e.Apply(context.Background(), config.ResetFault{}, "reset", false)
	if !out.Blocked() || out.Status != http.StatusBadGateway {
		t.Fatalf("expected block 502, got %+v", out)
	}
	if string(out.Body) != ResetBody {
		t.Errorf("Body = %q", out.Body)
	}

	if dry := e.Apply(context.Background(), config.ResetFault{}, "reset", true); dry.Blocked() {
		t.Error("dry-run reset should allow")
	}
}

func TestApply_NilFaultAllows(t *testing.T) {
	e := NewExecutor()
	if out := e.Apply(context.Background(), nil, "none", false); out.Blocked() {
		t.Error("nil fault should allow")
	}
}

func TestApply_LogInjections(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		want    bool
	}{
		{name: "enabled", enabled: true, want: true},
		{name: "disabled", enabled: false, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))
			e := NewExecutor(WithLogger(logger), WithLogInjections(tt.enabled))

			e.Apply(context.Background(), config.ResetFault{}, "reset-exp", false)

			logged := strings.Contains(buf.String(), "injecting connection reset fault")
			if logged != tt.want {
				t.Errorf("logged = %v, want %v (output %q)", logged, tt.want, buf.String())
			}
			if tt.want && !strings.Contains(buf.String(), `"experiment":"reset-exp"`) {
				t.Errorf("log line missing experiment attribute: %q", buf.String())
			}
		})
	}
}

func TestTimerSleeper(t *testing.T) {
	var s TimerSleeper

	start := time.Now()
	s.Sleep(context.Background(), 20*time.Millisecond)
	if time.Since(start) < 20*time.Millisecond {
		t.Error("Sleep returned early")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start = time.Now()
	s.Sleep(ctx, time.Second)
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Sleep should return when ctx is done")
	}
}

func TestTimerSleeper_ConcurrentRequestsDoNotSerialize(t *testing.T) {
	e := NewExecutor()

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Apply(context.Background(), config.LatencyFault{FixedMs: 100}, "lat", false)
		}()
	}
	wg.Wait()

	if elapsed := time.Since(start); elapsed > 900*time.Millisecond {
		t.Errorf("10 concurrent 100ms faults took %v", elapsed)
	}
}
