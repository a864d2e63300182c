package journal

import (
	"context"
	"time"
)

// Event is one injected fault.
type Event struct {
	// ID uniquely identifies the event (UUID). Assigned by the Recorder
	// when empty.
	ID string `json:"id"`

	// Time is when the fault was injected.
	Time time.Time `json:"time"`

	// RequestID is the host's request identifier, if any.
	RequestID string `json:"request_id,omitempty"`

	// ExperimentID is the experiment that fired.
	ExperimentID string `json:"experiment"`

	// Kind is the fault kind (latency, error, ...).
	Kind string `json:"kind"`

	// Action is "allow" or "block".
	Action string `json:"action"`

	// Status is the synthetic response status for block outcomes.
	Status int `json:"status,omitempty"`

	// DelayMs is the delay hint in milliseconds, 0 when absent.
	DelayMs int64 `json:"delay_ms,omitempty"`

	// DryRun is true when the fault was computed but not applied.
	DryRun bool `json:"dry_run"`

	Method string `json:"method"`
	Path   string `json:"path"`
}

// Filter selects events. Zero fields do not filter.
type Filter struct {
	ExperimentID string
	Kind         string
	Since        time.Time
	Until        time.Time

	// Limit caps the number of events returned; 0 means no limit.
	Limit int
	// Offset skips events from the start of the result.
	Offset int
}

// matches reports whether e passes every non-zero field of f.
func (f *Filter) matches(e *Event) bool {
	if f.ExperimentID != "" && e.ExperimentID != f.ExperimentID {
		return false
	}
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if !f.Since.IsZero() && e.Time.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !e.Time.Before(f.Until) {
		return false
	}
	return true
}

// Storage persists journal events. Implementations must be safe for
// concurrent use.
type Storage interface {
	// Store persists one event.
	Store(ctx context.Context, event *Event) error

	// Query returns matching events, newest first.
	Query(ctx context.Context, filter *Filter) ([]*Event, error)

	// Count returns the number of matching events, ignoring Limit and Offset.
	Count(ctx context.Context, filter *Filter) (int64, error)

	// DeleteBefore removes events older than cutoff and returns how many
	// were removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases resources held by the backend.
	Close() error
}
