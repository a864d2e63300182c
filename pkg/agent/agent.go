package agent

import (
	"context"
	"log/slog"
	"time"

	"mercator-hq/chaos/pkg/config"
	"mercator-hq/chaos/pkg/faults"
	"mercator-hq/chaos/pkg/journal"
	"mercator-hq/chaos/pkg/random"
	"mercator-hq/chaos/pkg/safety"
	"mercator-hq/chaos/pkg/targeting"
)

// Request is the engine's view of one incoming request.
type Request struct {
	// ID is the host's request identifier, recorded in the journal.
	ID string

	Method string

	// Path is the raw request path, without query-string normalization.
	Path string

	// Headers may hold several values per name; only the first is matched.
	Headers map[string][]string
}

// Decision is the result of evaluating a request.
type Decision struct {
	Outcome faults.Outcome

	// ExperimentID names the experiment that fired, empty when none did.
	ExperimentID string
}

// Journal receives an event for every injected fault.
type Journal interface {
	Record(journal.Event)
}

// ExperimentInfo is a read-only description of a compiled experiment.
type ExperimentInfo struct {
	ID          string
	Description string
	Enabled     bool
	Kind        config.FaultKind
	Percentage  int
}

type compiledExperiment struct {
	id          string
	description string
	enabled     bool
	matcher     *targeting.Matcher
	fault       config.Fault
}

// Agent evaluates requests against the compiled experiments.
type Agent struct {
	settings           config.Settings
	maxAffectedPercent int
	experiments        []compiledExperiment

	gate     *safety.Gate
	executor *faults.Executor
	rng      random.Source
	journal  Journal
	logger   *slog.Logger
	clock    safety.Clock

	stats *Stats
}

// Option customizes an Agent.
type Option func(*options)

type options struct {
	clock   safety.Clock
	rng     random.Source
	sleeper faults.Sleeper
	logger  *slog.Logger
	journal Journal
}

// WithClock sets the clock used for schedule checks and journal times.
func WithClock(c safety.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithRandom sets the random source for sampling and fault parameters.
func WithRandom(rng random.Source) Option {
	return func(o *options) { o.rng = rng }
}

// WithSleeper sets how latency and timeout faults wait.
func WithSleeper(s faults.Sleeper) Option {
	return func(o *options) { o.sleeper = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithJournal records every injection.
func WithJournal(j Journal) Option {
	return func(o *options) { o.journal = j }
}

// New compiles cfg into an Agent. cfg must already be validated. One
// compiled experiment is built per declared experiment, in declaration
// order.
func New(cfg *config.Config, opts ...Option) *Agent {
	o := options{
		clock:   safety.SystemClock{},
		rng:     random.Default(),
		sleeper: faults.TimerSleeper{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger.With("component", "agent")

	ids := make([]string, 0, len(cfg.Experiments))
	compiled := make([]compiledExperiment, 0, len(cfg.Experiments))
	for _, exp := range cfg.Experiments {
		m := targeting.Compile(exp.Targeting)
		for _, pattern := range m.Dropped() {
			logger.Warn("path regex failed to compile and was dropped",
				"experiment", exp.ID,
				"pattern", pattern,
			)
		}
		if exp.Enabled && exp.Targeting.Percentage > cfg.Safety.MaxAffectedPercent {
			logger.Warn("experiment percentage exceeds safety.max_affected_percent, which is not enforced",
				"experiment", exp.ID,
				"percentage", exp.Targeting.Percentage,
				"max_affected_percent", cfg.Safety.MaxAffectedPercent,
			)
		}

		compiled = append(compiled, compiledExperiment{
			id:          exp.ID,
			description: exp.Description,
			enabled:     exp.Enabled,
			matcher:     m,
			fault:       exp.Fault,
		})
		ids = append(ids, exp.ID)
	}

	a := &Agent{
		settings:           cfg.Settings,
		maxAffectedPercent: cfg.Safety.MaxAffectedPercent,
		experiments:        compiled,
		rng:                o.rng,
		journal:            o.journal,
		logger:             logger,
		clock:              o.clock,
		stats:              newStats(ids),
	}
	a.gate = safety.NewGate(cfg.Settings.Enabled, cfg.Safety, o.clock, a)
	a.executor = faults.NewExecutor(
		faults.WithRandom(o.rng),
		faults.WithSleeper(o.sleeper),
		faults.WithLogger(o.logger),
		faults.WithLogInjections(cfg.Settings.LogInjections),
	)

	logger.Info("chaos agent initialized",
		"experiments", len(compiled),
		"enabled_experiments", a.EnabledExperiments(),
		"enabled", cfg.Settings.Enabled,
		"dry_run", cfg.Settings.DryRun,
	)
	return a
}

// Evaluate decides what to do with one request. The first enabled
// experiment, in declaration order, that matches the request and wins its
// percentage roll has its fault executed; experiments that lose the roll are
// skipped. ctx bounds only the wait of latency and timeout faults.
func (a *Agent) Evaluate(ctx context.Context, req Request) Decision {
	a.stats.requests.Add(1)

	if verdict := a.gate.Check(req.Path); !verdict.Passed() {
		a.logger.Debug("fault injection skipped",
			"reason", string(verdict),
			"path", req.Path,
		)
		return Decision{Outcome: faults.Allow()}
	}

	headers := FlattenHeaders(req.Headers)

	for i := range a.experiments {
		exp := &a.experiments[i]
		if !exp.enabled || !exp.matcher.Matches(req.Method, req.Path, headers) {
			continue
		}
		if !exp.matcher.ShouldApply(a.rng) {
			a.logger.Debug("experiment matched but not selected by percentage",
				"experiment", exp.id,
			)
			continue
		}

		outcome := a.executor.Apply(ctx, exp.fault, exp.id, a.settings.DryRun)
		a.stats.recordInjection(exp.id)
		a.record(req, exp, outcome)

		if outcome.HasDelay() {
			a.logger.Debug("fault applied with delay",
				"experiment", exp.id,
				"delay_ms", outcome.DelayMs(),
			)
		}
		return Decision{Outcome: outcome, ExperimentID: exp.id}
	}

	return Decision{Outcome: faults.Allow()}
}

func (a *Agent) record(req Request, exp *compiledExperiment, outcome faults.Outcome) {
	if a.journal == nil {
		return
	}
	a.journal.Record(journal.Event{
		Time:         a.clock.Now(),
		RequestID:    req.ID,
		ExperimentID: exp.id,
		Kind:         string(exp.fault.Kind()),
		Action:       string(outcome.Action),
		Status:       outcome.Status,
		DelayMs:      outcome.DelayMs(),
		DryRun:       a.settings.DryRun,
		Method:       req.Method,
		Path:         req.Path,
	})
}

// Drain stops selection of new experiments. In-flight faults finish. The
// duration and reason are advisory and only logged.
func (a *Agent) Drain(durationMs uint64, reason string) {
	if a.stats.startDrain() {
		a.logger.Warn("drain requested, stopping fault injection",
			"reason", reason,
			"duration_ms", durationMs,
		)
	}
}

// Shutdown sets the drain flag like Drain. The grace period is advisory.
func (a *Agent) Shutdown(reason string, graceMs uint64) {
	first := a.stats.startDrain()
	a.logger.Info("shutdown requested",
		"reason", reason,
		"grace_period_ms", graceMs,
		"already_draining", !first,
	)
}

// IsDraining reports whether the drain flag is set.
func (a *Agent) IsDraining() bool {
	return a.stats.draining.Load()
}

// TotalRequests returns the number of evaluated requests.
func (a *Agent) TotalRequests() uint64 {
	return a.stats.requests.Load()
}

// TotalFaultsInjected returns the number of executed faults, dry-run
// included.
func (a *Agent) TotalFaultsInjected() uint64 {
	return a.stats.injected.Load()
}

// InjectionCount returns the injections of one experiment; 0 for unknown
// ids.
func (a *Agent) InjectionCount(id string) uint64 {
	if c, ok := a.stats.experiment[id]; ok {
		return c.Load()
	}
	return 0
}

// InjectionCounts returns a copy of every per-experiment counter.
func (a *Agent) InjectionCounts() map[string]uint64 {
	counts := make(map[string]uint64, len(a.stats.experiment))
	for id, c := range a.stats.experiment {
		counts[id] = c.Load()
	}
	return counts
}

// EnabledExperiments returns how many compiled experiments are enabled.
func (a *Agent) EnabledExperiments() int {
	n := 0
	for i := range a.experiments {
		if a.experiments[i].enabled {
			n++
		}
	}
	return n
}

// Enabled reports the global kill switch.
func (a *Agent) Enabled() bool {
	return a.settings.Enabled
}

// DryRun reports whether faults are only computed.
func (a *Agent) DryRun() bool {
	return a.settings.DryRun
}

// MaxAffectedPercent returns the configured (unenforced) traffic cap.
func (a *Agent) MaxAffectedPercent() int {
	return a.maxAffectedPercent
}

// Experiments describes the compiled experiments in declaration order.
func (a *Agent) Experiments() []ExperimentInfo {
	infos := make([]ExperimentInfo, 0, len(a.experiments))
	for i := range a.experiments {
		exp := &a.experiments[i]
		var kind config.FaultKind
		if exp.fault != nil {
			kind = exp.fault.Kind()
		}
		infos = append(infos, ExperimentInfo{
			ID:          exp.id,
			Description: exp.description,
			Enabled:     exp.enabled,
			Kind:        kind,
			Percentage:  exp.matcher.Percentage(),
		})
	}
	return infos
}

// Snapshot is a point-in-time copy of the agent's exported state.
type Snapshot struct {
	Time               time.Time
	TotalRequests      uint64
	FaultsInjected     uint64
	Injections         map[string]uint64
	ExperimentsEnabled int
	Enabled            bool
	Draining           bool
	MaxAffectedPercent int
}

// Snapshot reads every counter and flag. Counters are read independently,
// so concurrent evaluations may be partially reflected.
func (a *Agent) Snapshot() Snapshot {
	return Snapshot{
		Time:               a.clock.Now(),
		TotalRequests:      a.TotalRequests(),
		FaultsInjected:     a.TotalFaultsInjected(),
		Injections:         a.InjectionCounts(),
		ExperimentsEnabled: a.EnabledExperiments(),
		Enabled:            a.Enabled(),
		Draining:           a.IsDraining(),
		MaxAffectedPercent: a.maxAffectedPercent,
	}
}
