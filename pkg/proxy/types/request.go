package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecideRequest describes one host request to evaluate.
type DecideRequest struct {
	// ID is an optional host request id recorded in the journal.
	ID string `json:"id,omitempty"`

	Method string `json:"method"`
	Path   string `json:"path"`

	// Headers holds the request headers. Each value may be a string or a
	// list of strings.
	Headers HeaderMap `json:"headers,omitempty"`
}

// HeaderMap is a multi-valued header set that also decodes from the
// single-valued {"name": "value"} form.
type HeaderMap map[string][]string

// UnmarshalJSON accepts a string or an array of strings for each header.
func (h *HeaderMap) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(HeaderMap, len(raw))
	for name, value := range raw {
		var single string
		if err := json.Unmarshal(value, &single); err == nil {
			out[name] = []string{single}
			continue
		}
		var multi []string
		if err := json.Unmarshal(value, &multi); err != nil {
			return fmt.Errorf("header %q: value must be a string or an array of strings", name)
		}
		out[name] = multi
	}
	*h = out
	return nil
}

// Validate checks the required fields. It returns the offending field
// name alongside the error.
func (r *DecideRequest) Validate() (string, error) {
	if strings.TrimSpace(r.Method) == "" {
		return "method", fmt.Errorf("method is required")
	}
	if !strings.HasPrefix(r.Path, "/") {
		return "path", fmt.Errorf("path must start with '/'")
	}
	return "", nil
}

// HeaderValues returns Headers in the form the engine takes.
func (r *DecideRequest) HeaderValues() map[string][]string {
	if len(r.Headers) == 0 {
		return nil
	}
	return map[string][]string(r.Headers)
}

// DrainRequest asks the agent to stop injecting faults.
type DrainRequest struct {
	Reason     string `json:"reason"`
	DurationMs uint64 `json:"duration_ms"`
}
