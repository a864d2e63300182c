package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// FaultKind names a fault variant. It is the value of the "type" key in YAML.
type FaultKind string

const (
	KindLatency  FaultKind = "latency"
	KindError    FaultKind = "error"
	KindTimeout  FaultKind = "timeout"
	KindThrottle FaultKind = "throttle"
	KindCorrupt  FaultKind = "corrupt"
	KindReset    FaultKind = "reset"
)

// Fault is the closed set of injectable faults. The unexported method keeps
// the set sealed to this package, so a type switch over the six variants
// below is exhaustive.
type Fault interface {
	Kind() FaultKind
	sealed()
}

// LatencyFault delays the request before it continues.
// FixedMs wins when non-zero; otherwise a uniform delay in [MinMs, MaxMs].
type LatencyFault struct {
	FixedMs uint64 `yaml:"fixed_ms"`
	MinMs   uint64 `yaml:"min_ms"`
	MaxMs   uint64 `yaml:"max_ms"`
}

// ErrorFault answers the request with an HTTP error.
type ErrorFault struct {
	Status  int               `yaml:"status"`
	Message *string           `yaml:"message"`
	Headers map[string]string `yaml:"headers"`
}

// TimeoutFault waits DurationMs and then answers 504.
type TimeoutFault struct {
	DurationMs uint64 `yaml:"duration_ms"`
}

// ThrottleFault approximates a bandwidth limit with a delay hint.
type ThrottleFault struct {
	BytesPerSecond uint64 `yaml:"bytes_per_second"`
}

// CorruptFault replaces the response with garbage with the given probability.
type CorruptFault struct {
	Probability float64 `yaml:"probability"`
}

// ResetFault approximates a connection reset with a 502.
type ResetFault struct{}

func (LatencyFault) Kind() FaultKind  { return KindLatency }
func (ErrorFault) Kind() FaultKind    { return KindError }
func (TimeoutFault) Kind() FaultKind  { return KindTimeout }
func (ThrottleFault) Kind() FaultKind { return KindThrottle }
func (CorruptFault) Kind() FaultKind  { return KindCorrupt }
func (ResetFault) Kind() FaultKind    { return KindReset }

// MaxWait returns the longest time f can hold a request before it is
// answered or forwarded. Throttle only produces a hint and never waits.
func MaxWait(f Fault) time.Duration {
	switch f := f.(type) {
	case LatencyFault:
		if f.FixedMs > 0 {
			return time.Duration(f.FixedMs) * time.Millisecond
		}
		return time.Duration(f.MaxMs) * time.Millisecond
	case TimeoutFault:
		return time.Duration(f.DurationMs) * time.Millisecond
	}
	return 0
}

// MaxFaultWait returns the longest MaxWait over the enabled experiments.
func (c *Config) MaxFaultWait() time.Duration {
	var longest time.Duration
	for _, exp := range c.Experiments {
		if !exp.Enabled || exp.Fault == nil {
			continue
		}
		if d := MaxWait(exp.Fault); d > longest {
			longest = d
		}
	}
	return longest
}

func (LatencyFault) sealed()  {}
func (ErrorFault) sealed()    {}
func (TimeoutFault) sealed()  {}
func (ThrottleFault) sealed() {}
func (CorruptFault) sealed()  {}
func (ResetFault) sealed()    {}

// decodeFault decodes a fault mapping discriminated by its "type" key.
func decodeFault(node *yaml.Node) (Fault, error) {
	var head struct {
		Type FaultKind `yaml:"type"`
	}
	if err := node.Decode(&head); err != nil {
		return nil, err
	}

	var (
		fault Fault
		err   error
	)
	switch head.Type {
	case KindLatency:
		var f LatencyFault
		err = node.Decode(&f)
		fault = f
	case KindError:
		var f ErrorFault
		err = node.Decode(&f)
		fault = f
	case KindTimeout:
		var f TimeoutFault
		err = node.Decode(&f)
		fault = f
	case KindThrottle:
		var f ThrottleFault
		err = node.Decode(&f)
		fault = f
	case KindCorrupt:
		var f CorruptFault
		err = node.Decode(&f)
		fault = f
	case KindReset:
		fault = ResetFault{}
	case "":
		return nil, fmt.Errorf("line %d: fault type is required", node.Line)
	default:
		return nil, fmt.Errorf("line %d: unknown fault type %q", node.Line, head.Type)
	}
	if err != nil {
		return nil, err
	}
	return fault, nil
}

// UnmarshalYAML decodes an experiment, applying defaults for absent keys.
func (e *Experiment) UnmarshalYAML(value *yaml.Node) error {
	raw := struct {
		ID          string    `yaml:"id"`
		Enabled     bool      `yaml:"enabled"`
		Description string    `yaml:"description"`
		Targeting   Targeting `yaml:"targeting"`
		Fault       yaml.Node `yaml:"fault"`
	}{
		Enabled:   DefaultExperimentEnabled,
		Targeting: Targeting{Percentage: DefaultPercentage},
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	e.ID = raw.ID
	e.Enabled = raw.Enabled
	e.Description = raw.Description
	e.Targeting = raw.Targeting
	e.Fault = nil

	if raw.Fault.Kind != 0 {
		fault, err := decodeFault(&raw.Fault)
		if err != nil {
			return fmt.Errorf("experiment %q: %w", raw.ID, err)
		}
		e.Fault = fault
	}
	return nil
}

// UnmarshalYAML decodes targeting; an absent percentage means 100.
func (t *Targeting) UnmarshalYAML(value *yaml.Node) error {
	type plain Targeting
	p := plain{Percentage: DefaultPercentage}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*t = Targeting(p)
	return nil
}

// UnmarshalYAML decodes a single-key {exact|prefix|regex: value} mapping.
func (p *PathMatcher) UnmarshalYAML(value *yaml.Node) error {
	var m map[string]string
	if err := value.Decode(&m); err != nil {
		return err
	}
	if len(m) != 1 {
		return fmt.Errorf("line %d: path matcher must have exactly one of exact, prefix or regex", value.Line)
	}
	for k, v := range m {
		switch kind := PathMatchKind(k); kind {
		case PathExact, PathPrefix, PathRegex:
			p.Kind = kind
			p.Value = v
		default:
			return fmt.Errorf("line %d: unknown path matcher %q", value.Line, k)
		}
	}
	return nil
}
