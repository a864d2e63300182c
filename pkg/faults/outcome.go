package faults

import (
	"net/http"
	"time"
)

// Action is what the host should do with the request.
type Action string

const (
	// ActionAllow lets the request continue upstream.
	ActionAllow Action = "allow"
	// ActionBlock answers the request with the outcome's response.
	ActionBlock Action = "block"
)

// Outcome is the result of executing a fault.
type Outcome struct {
	Action Action

	// Delay is an optional telemetry hint. It is set for allow outcomes
	// of latency and throttle faults; nil means no delay was computed.
	Delay *time.Duration

	// Status, Headers and Body are set only when Action is ActionBlock.
	Status  int
	Headers http.Header
	Body    []byte
}

// Allow returns a pass-through outcome without a delay hint.
func Allow() Outcome {
	return Outcome{Action: ActionAllow}
}

// AllowWithDelay returns a pass-through outcome carrying a delay hint.
func AllowWithDelay(d time.Duration) Outcome {
	return Outcome{Action: ActionAllow, Delay: &d}
}

// Block returns an outcome that answers the request directly.
func Block(status int, headers http.Header, body []byte) Outcome {
	return Outcome{Action: ActionBlock, Status: status, Headers: headers, Body: body}
}

// Blocked reports whether the outcome answers the request.
func (o Outcome) Blocked() bool {
	return o.Action == ActionBlock
}

// HasDelay reports whether a delay hint is present.
func (o Outcome) HasDelay() bool {
	return o.Delay != nil
}

// DelayMs returns the delay hint in milliseconds, or 0 when absent.
func (o Outcome) DelayMs() int64 {
	if o.Delay == nil {
		return 0
	}
	return o.Delay.Milliseconds()
}
