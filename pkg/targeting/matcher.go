package targeting

import (
	"regexp"
	"strings"

	"mercator-hq/chaos/pkg/config"
	"mercator-hq/chaos/pkg/random"
)

// pathMatcher is one compiled path predicate.
type pathMatcher struct {
	kind  config.PathMatchKind
	value string
	re    *regexp.Regexp
}

func (p pathMatcher) match(path string) bool {
	switch p.kind {
	case config.PathExact:
		return path == p.value
	case config.PathPrefix:
		return strings.HasPrefix(path, p.value)
	case config.PathRegex:
		return p.re.MatchString(path)
	default:
		return false
	}
}

type headerRequirement struct {
	name  string
	value string
}

// Matcher is the compiled form of config.Targeting.
type Matcher struct {
	methods    map[string]struct{}
	paths      []pathMatcher
	headers    []headerRequirement
	percentage int
	dropped    []string
}

// Compile builds a Matcher. Methods are uppercased, header names are
// lower-cased, and exact and prefix paths are kept verbatim. A regex that
// fails to compile is left out of the path list and reported by Dropped.
func Compile(t config.Targeting) *Matcher {
	m := &Matcher{
		percentage: t.Percentage,
	}

	if len(t.Methods) > 0 {
		m.methods = make(map[string]struct{}, len(t.Methods))
		for _, method := range t.Methods {
			m.methods[strings.ToUpper(method)] = struct{}{}
		}
	}

	for _, p := range t.Paths {
		pm := pathMatcher{kind: p.Kind, value: p.Value}
		if p.Kind == config.PathRegex {
			re, err := regexp.Compile(p.Value)
			if err != nil {
				m.dropped = append(m.dropped, p.Value)
				continue
			}
			pm.re = re
		}
		m.paths = append(m.paths, pm)
	}

	// Names that differ only by case stay separate requirements, so a
	// request must satisfy all of them.
	for name, value := range t.Headers {
		m.headers = append(m.headers, headerRequirement{name: strings.ToLower(name), value: value})
	}

	return m
}

// Matches reports whether the request satisfies the method, path and header
// predicates. headers must be keyed by lower-cased name.
func (m *Matcher) Matches(method, path string, headers map[string]string) bool {
	return m.matchMethod(method) && m.matchPath(path) && m.matchHeaders(headers)
}

func (m *Matcher) matchMethod(method string) bool {
	if len(m.methods) == 0 {
		return true
	}
	_, ok := m.methods[strings.ToUpper(method)]
	return ok
}

func (m *Matcher) matchPath(path string) bool {
	if len(m.paths) == 0 {
		return true
	}
	for _, p := range m.paths {
		if p.match(path) {
			return true
		}
	}
	return false
}

func (m *Matcher) matchHeaders(headers map[string]string) bool {
	for _, req := range m.headers {
		got, ok := headers[req.name]
		if !ok || got != req.value {
			return false
		}
	}
	return true
}

// ShouldApply performs one independent percentage trial.
func (m *Matcher) ShouldApply(rng random.Source) bool {
	return ShouldApply(m.percentage, rng)
}

// Percentage returns the configured sampling percentage.
func (m *Matcher) Percentage() int {
	return m.percentage
}

// Dropped returns the regex patterns that failed to compile.
func (m *Matcher) Dropped() []string {
	return m.dropped
}

// ShouldApply returns true for percentage >= 100, false for percentage <= 0,
// and otherwise true iff a uniform draw in [0,100) is below percentage.
func ShouldApply(percentage int, rng random.Source) bool {
	switch {
	case percentage >= 100:
		return true
	case percentage <= 0:
		return false
	default:
		return rng.IntN(100) < percentage
	}
}
