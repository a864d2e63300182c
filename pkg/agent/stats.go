package agent

import "sync/atomic"

// Stats holds the agent's counters. All fields are updated atomically; the
// per-experiment map is built once and never resized.
type Stats struct {
	requests   atomic.Uint64
	injected   atomic.Uint64
	experiment map[string]*atomic.Uint64
	draining   atomic.Bool
}

func newStats(ids []string) *Stats {
	s := &Stats{experiment: make(map[string]*atomic.Uint64, len(ids))}
	for _, id := range ids {
		s.experiment[id] = new(atomic.Uint64)
	}
	return s
}

func (s *Stats) recordInjection(id string) {
	if c, ok := s.experiment[id]; ok {
		c.Add(1)
	}
	s.injected.Add(1)
}

// startDrain sets the drain flag and reports whether this call flipped it.
func (s *Stats) startDrain() bool {
	return s.draining.CompareAndSwap(false, true)
}
