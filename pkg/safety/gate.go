// Package safety implements the activation checks that can suppress fault
// injection for a request regardless of targeting.
package safety

import (
	"strings"
	"time"

	"mercator-hq/chaos/pkg/config"
)

// Verdict names the outcome of a gate check.
type Verdict string

const (
	// Pass means injection may proceed to targeting.
	Pass Verdict = "pass"
	// Disabled means the global kill switch is off.
	Disabled Verdict = "disabled"
	// Draining means the agent stopped selecting new experiments.
	Draining Verdict = "draining"
	// OutsideSchedule means no schedule window is currently open.
	OutsideSchedule Verdict = "outside_schedule"
	// ExcludedPath means the request path is protected.
	ExcludedPath Verdict = "excluded_path"
)

// Passed reports whether the verdict allows injection.
func (v Verdict) Passed() bool {
	return v == Pass
}

// Clock returns the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. Useful in tests.
type FixedClock time.Time

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return time.Time(c) }

// DrainState exposes the one-way drain flag owned by the agent.
type DrainState interface {
	IsDraining() bool
}

// window is a schedule with its location resolved.
type window struct {
	days  [7]bool
	start config.TimeOfDay
	end   config.TimeOfDay
	loc   *time.Location
}

func compileWindow(s config.Schedule) window {
	w := window{
		start: s.Start,
		end:   s.End,
		loc:   loadLocation(s.Timezone),
	}
	for _, d := range s.Days {
		if d >= time.Sunday && d <= time.Saturday {
			w.days[d] = true
		}
	}
	return w
}

func (w window) contains(now time.Time) bool {
	local := now.In(w.loc)
	if !w.days[local.Weekday()] {
		return false
	}
	tod := config.TimeOfDayOf(local)
	return tod >= w.start && tod <= w.end
}

// loadLocation resolves a zone name, falling back to UTC.
func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Gate runs the ordered activation checks. It is immutable after NewGate
// and safe for concurrent use.
type Gate struct {
	enabled  bool
	windows  []window
	excluded []string
	clock    Clock
	drain    DrainState
}

// NewGate builds a gate from the settings and safety configuration. Schedule
// timezones are resolved once here. A nil clock means SystemClock; a nil
// drain state never drains.
func NewGate(enabled bool, safety config.SafetyConfig, clock Clock, drain DrainState) *Gate {
	if clock == nil {
		clock = SystemClock{}
	}
	g := &Gate{
		enabled:  enabled,
		excluded: append([]string(nil), safety.ExcludedPaths...),
		clock:    clock,
		drain:    drain,
	}
	for _, s := range safety.Schedule {
		g.windows = append(g.windows, compileWindow(s))
	}
	return g
}

// Check evaluates, in order, the kill switch, the drain flag, the schedule
// and the excluded paths, stopping at the first failure.
func (g *Gate) Check(path string) Verdict {
	if !g.enabled {
		return Disabled
	}
	if g.drain != nil && g.drain.IsDraining() {
		return Draining
	}
	if !g.withinSchedule(g.clock.Now()) {
		return OutsideSchedule
	}
	if IsExcludedPath(path, g.excluded) {
		return ExcludedPath
	}
	return Pass
}

func (g *Gate) withinSchedule(now time.Time) bool {
	if len(g.windows) == 0 {
		return true
	}
	for _, w := range g.windows {
		if w.contains(now) {
			return true
		}
	}
	return false
}

// WithinSchedule reports whether now falls inside any schedule. An empty
// list means always active.
func WithinSchedule(now time.Time, schedules []config.Schedule) bool {
	if len(schedules) == 0 {
		return true
	}
	for _, s := range schedules {
		if InWindow(now, s) {
			return true
		}
	}
	return false
}

// InWindow reports whether now, converted to the schedule's timezone, is on
// a listed weekday and within [Start, End] inclusive. Unknown timezones are
// treated as UTC.
func InWindow(now time.Time, s config.Schedule) bool {
	return compileWindow(s).contains(now)
}

// IsExcludedPath reports whether path equals an excluded entry or is a child
// of one ("/health" excludes "/health/live" but not "/healthy").
func IsExcludedPath(path string, excluded []string) bool {
	for _, e := range excluded {
		if path == e || (strings.HasPrefix(path, e) && len(path) > len(e) && path[len(e)] == '/') {
			return true
		}
	}
	return false
}
