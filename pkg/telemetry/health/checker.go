package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"mercator-hq/chaos/pkg/agent"
)

// CheckFunc checks one component. It returns nil when the component is
// healthy.
type CheckFunc func(ctx context.Context) error

// Source provides the agent's own health contract.
type Source interface {
	Health() agent.HealthStatus
}

// Component check statuses.
const (
	StatusOK        = "ok"
	StatusUnhealthy = "unhealthy"
)

// CheckResult is the result of a single component check.
type CheckResult struct {
	Status     string  `json:"status"`
	Message    string  `json:"message,omitempty"`
	DurationMs float64 `json:"duration_ms"`
}

// Report is the body of the readiness endpoint.
type Report struct {
	Agent     string                 `json:"agent"`
	Status    agent.HealthState      `json:"status"`
	Degraded  []string               `json:"degraded,omitempty"`
	Severity  float64                `json:"severity,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Healthy reports whether the readiness endpoint should answer 200.
func (r Report) Healthy() bool {
	return r.Status == agent.Healthy
}

// Checker combines the agent health with registered component checks.
type Checker struct {
	source Source

	mu     sync.RWMutex
	checks map[string]CheckFunc

	checkTimeout time.Duration
	now          func() time.Time
}

// New creates a checker over source. A zero timeout defaults to five
// seconds per component check.
func New(source Source, checkTimeout time.Duration) *Checker {
	if checkTimeout == 0 {
		checkTimeout = 5 * time.Second
	}
	return &Checker{
		source:       source,
		checks:       make(map[string]CheckFunc),
		checkTimeout: checkTimeout,
		now:          time.Now,
	}
}

// RegisterCheck registers or replaces the check for a named component.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// ListChecks returns the registered component names, sorted.
func (c *Checker) ListChecks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check builds the readiness report. Component checks run concurrently;
// an unhealthy component degrades the report with full severity and is
// added to the degraded list.
func (c *Checker) Check(ctx context.Context) Report {
	status := c.source.Health()
	report := Report{
		Agent:     status.Agent,
		Status:    status.State,
		Degraded:  append([]string(nil), status.Degraded...),
		Severity:  status.Severity,
		Timestamp: c.now().UTC(),
	}

	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	if len(checks) == 0 {
		return report
	}

	report.Checks = make(map[string]CheckResult, len(checks))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for name, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := c.runCheck(ctx, check)
			mu.Lock()
			report.Checks[name] = result
			mu.Unlock()
		}()
	}
	wg.Wait()

	var failed []string
	for name, result := range report.Checks {
		if result.Status == StatusUnhealthy {
			failed = append(failed, name)
		}
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		report.Status = agent.Degraded
		report.Degraded = append(report.Degraded, failed...)
		report.Severity = 1.0
	}
	return report
}

func (c *Checker) runCheck(ctx context.Context, check CheckFunc) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()
	errCh := make(chan error, 1)
	go func() {
		errCh <- check(checkCtx)
	}()

	select {
	case err := <-errCh:
		result := CheckResult{Status: StatusOK, DurationMs: millis(time.Since(start))}
		if err != nil {
			result.Status = StatusUnhealthy
			result.Message = err.Error()
		}
		return result
	case <-checkCtx.Done():
		return CheckResult{
			Status:     StatusUnhealthy,
			Message:    "health check timeout",
			DurationMs: millis(time.Since(start)),
		}
	}
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
