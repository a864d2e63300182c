package random

import "sync"

// Sequence is a deterministic Source that replays fixed values.
// Ints feeds IntN and Int64N, Floats feeds Float64; each wraps around when
// exhausted. Replayed values are reduced modulo n so they stay in range.
type Sequence struct {
	mu     sync.Mutex
	Ints   []int64
	Floats []float64
	ii, fi int
}

// NewSequence returns a Sequence replaying ints for integer draws.
func NewSequence(ints ...int64) *Sequence {
	return &Sequence{Ints: ints}
}

// IntN returns the next integer value modulo n.
func (s *Sequence) IntN(n int) int {
	return int(s.Int64N(int64(n)))
}

// Int64N returns the next integer value modulo n.
func (s *Sequence) Int64N(n int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[s.ii%len(s.Ints)]
	s.ii++
	if v < 0 {
		v = -v
	}
	return v % n
}

// Float64 returns the next float value; 0 when Floats is empty.
func (s *Sequence) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[s.fi%len(s.Floats)]
	s.fi++
	return v
}
