// Package faults executes the six fault kinds and produces the outcome the
// host applies to the request.
package faults

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"time"

	"mercator-hq/chaos/pkg/config"
	"mercator-hq/chaos/pkg/random"
)

// Marker header names and bodies used on synthetic responses.
const (
	HeaderInjected   = "X-Chaos-Injected"
	HeaderExperiment = "X-Chaos-Experiment"

	contentTypeText   = "text/plain; charset=utf-8"
	contentTypeBinary = "application/octet-stream"

	DefaultErrorBody = "Chaos fault injected"
	TimeoutBody      = "Gateway Timeout (chaos fault)"
	ResetBody        = "Connection reset (chaos fault)"

	// throttleEstimatedBytes is the assumed response size used to turn a
	// bandwidth limit into a delay hint.
	throttleEstimatedBytes = 10240

	garbageMinLen = 50
	garbageMaxLen = 500
)

// Executor applies faults. It is safe for concurrent use.
type Executor struct {
	rng           random.Source
	sleeper       Sleeper
	logger        *slog.Logger
	logInjections bool
}

// Option customizes an Executor.
type Option func(*Executor)

// WithRandom sets the random source used for latency ranges, corruption
// draws and garbage bodies.
func WithRandom(rng random.Source) Option {
	return func(e *Executor) { e.rng = rng }
}

// WithSleeper sets how latency and timeout faults wait.
func WithSleeper(s Sleeper) Option {
	return func(e *Executor) { e.sleeper = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithLogInjections enables an info log line for every injection.
func WithLogInjections(enabled bool) Option {
	return func(e *Executor) { e.logInjections = enabled }
}

// NewExecutor creates an executor with the default random source and a
// timer-based sleeper.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		rng:     random.Default(),
		sleeper: TimerSleeper{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("component", "faults")
	return e
}

// Apply executes fault for the given experiment. It never fails. In dry-run
// mode nothing is applied to the request: every kind returns an allow
// outcome, latency keeps its computed delay hint and nothing waits.
func (e *Executor) Apply(ctx context.Context, fault config.Fault, experimentID string, dryRun bool) Outcome {
	switch f := fault.(type) {
	case config.LatencyFault:
		return e.latency(ctx, f, experimentID, dryRun)
	case config.ErrorFault:
		return e.httpError(f, experimentID, dryRun)
	case config.TimeoutFault:
		return e.timeout(ctx, f, experimentID, dryRun)
	case config.ThrottleFault:
		return e.throttle(f, experimentID, dryRun)
	case config.CorruptFault:
		return e.corrupt(f, experimentID, dryRun)
	case config.ResetFault:
		return e.reset(experimentID, dryRun)
	default:
		// Unreachable for configurations that passed validation.
		return Allow()
	}
}

func (e *Executor) latency(ctx context.Context, f config.LatencyFault, id string, dryRun bool) Outcome {
	var ms uint64
	switch {
	case f.FixedMs > 0:
		ms = f.FixedMs
	case f.MaxMs > f.MinMs:
		ms = f.MinMs + e.uniform(f.MaxMs-f.MinMs)
	default:
		ms = f.MinMs
	}
	delay := time.Duration(ms) * time.Millisecond

	e.logInjection(ctx, "injecting latency fault", id, dryRun, "delay_ms", ms)

	if !dryRun {
		e.sleeper.Sleep(ctx, delay)
	}
	return AllowWithDelay(delay)
}

// uniform returns a value in [0, span] inclusive.
func (e *Executor) uniform(span uint64) uint64 {
	if span >= math.MaxInt64 {
		return uint64(e.rng.Int64N(math.MaxInt64))
	}
	return uint64(e.rng.Int64N(int64(span) + 1))
}

func (e *Executor) httpError(f config.ErrorFault, id string, dryRun bool) Outcome {
	e.logInjection(context.Background(), "injecting error fault", id, dryRun, "status", f.Status)

	if dryRun {
		return Allow()
	}

	body := DefaultErrorBody
	if f.Message != nil {
		body = *f.Message
	}

	headers := markerHeaders(contentTypeText, id)
	for name, value := range f.Headers {
		headers.Set(name, value)
	}
	return Block(f.Status, headers, []byte(body))
}

func (e *Executor) timeout(ctx context.Context, f config.TimeoutFault, id string, dryRun bool) Outcome {
	e.logInjection(ctx, "injecting timeout fault", id, dryRun, "duration_ms", f.DurationMs)

	if dryRun {
		return Allow()
	}

	e.sleeper.Sleep(ctx, time.Duration(f.DurationMs)*time.Millisecond)
	return Block(http.StatusGatewayTimeout, markerHeaders(contentTypeText, id), []byte(TimeoutBody))
}

// throttle approximates a bandwidth limit with a delay hint for an assumed
// response size. It never waits.
func (e *Executor) throttle(f config.ThrottleFault, id string, dryRun bool) Outcome {
	e.logInjection(context.Background(), "injecting throttle fault", id, dryRun, "bytes_per_second", f.BytesPerSecond)

	if dryRun || f.BytesPerSecond == 0 {
		return Allow()
	}

	ms := uint64(throttleEstimatedBytes*1000) / f.BytesPerSecond
	return AllowWithDelay(time.Duration(ms) * time.Millisecond)
}

// corrupt draws before the dry-run branch; an untriggered draw is a plain
// allow whatever the mode.
func (e *Executor) corrupt(f config.CorruptFault, id string, dryRun bool) Outcome {
	if e.rng.Float64() >= f.Probability {
		e.logger.Debug("corrupt fault not triggered",
			"experiment", id,
			"probability", f.Probability,
		)
		return Allow()
	}

	e.logInjection(context.Background(), "injecting corrupt fault", id, dryRun, "probability", f.Probability)

	if dryRun {
		return Allow()
	}
	return Block(http.StatusOK, markerHeaders(contentTypeBinary, id), e.garbage())
}

func (e *Executor) reset(id string, dryRun bool) Outcome {
	e.logInjection(context.Background(), "injecting connection reset fault", id, dryRun)

	if dryRun {
		return Allow()
	}
	return Block(http.StatusBadGateway, markerHeaders(contentTypeText, id), []byte(ResetBody))
}

// garbage returns printable ASCII (0x20..0x7d) of length [50, 500).
func (e *Executor) garbage() []byte {
	n := garbageMinLen + e.rng.IntN(garbageMaxLen-garbageMinLen)
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(0x20 + e.rng.IntN(0x7e-0x20))
	}
	return buf
}

func (e *Executor) logInjection(ctx context.Context, msg, id string, dryRun bool, args ...any) {
	if !e.logInjections {
		return
	}
	attrs := append([]any{"experiment", id, "dry_run", dryRun}, args...)
	e.logger.InfoContext(ctx, msg, attrs...)
}

func markerHeaders(contentType, id string) http.Header {
	h := make(http.Header, 3)
	h.Set("Content-Type", contentType)
	h.Set(HeaderInjected, "true")
	h.Set(HeaderExperiment, id)
	return h
}
