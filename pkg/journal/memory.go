package journal

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrClosed is returned by operations on a closed storage.
var ErrClosed = errors.New("journal storage closed")

// MemoryStorage keeps events in memory.
type MemoryStorage struct {
	mu     sync.RWMutex
	events []*Event
	closed bool
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Store appends a copy of event.
func (s *MemoryStorage) Store(ctx context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageError("memory", "store", ErrClosed)
	}
	e := *event
	s.events = append(s.events, &e)
	return nil
}

// Query returns copies of matching events, newest first.
func (s *MemoryStorage) Query(ctx context.Context, filter *Filter) ([]*Event, error) {
	if filter == nil {
		filter = &Filter{}
	}

	s.mu.RLock()
	var results []*Event
	for _, e := range s.events {
		if filter.matches(e) {
			c := *e
			results = append(results, &c)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Time.After(results[j].Time)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(results) {
			return []*Event{}, nil
		}
		results = results[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(results) {
		results = results[:filter.Limit]
	}
	return results, nil
}

// Count returns the number of matching events.
func (s *MemoryStorage) Count(ctx context.Context, filter *Filter) (int64, error) {
	if filter == nil {
		filter = &Filter{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, e := range s.events {
		if filter.matches(e) {
			n++
		}
	}
	return n, nil
}

// DeleteBefore removes events older than cutoff.
func (s *MemoryStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	var deleted int64
	for _, e := range s.events {
		if e.Time.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(s.events); i++ {
		s.events[i] = nil
	}
	s.events = kept
	return deleted, nil
}

// Close marks the storage closed.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
