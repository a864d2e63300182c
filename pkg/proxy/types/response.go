package types

import (
	"net/http"
	"time"

	"mercator-hq/chaos/pkg/agent"
	"mercator-hq/chaos/pkg/faults"
	"mercator-hq/chaos/pkg/journal"
)

// DecideResponse is the verdict for one request.
type DecideResponse struct {
	Action  faults.Action     `json:"action"`
	Status  int               `json:"status,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`

	// DelayMs is present only when the fault computed a delay.
	DelayMs *int64 `json:"delay_ms,omitempty"`

	Experiment string `json:"experiment,omitempty"`
}

// NewDecideResponse converts an engine decision.
func NewDecideResponse(d agent.Decision) DecideResponse {
	out := d.Outcome
	resp := DecideResponse{
		Action:     out.Action,
		Experiment: d.ExperimentID,
	}
	if out.HasDelay() {
		ms := out.DelayMs()
		resp.DelayMs = &ms
	}
	if out.Blocked() {
		resp.Status = out.Status
		resp.Headers = flatten(out.Headers)
		resp.Body = string(out.Body)
	}
	return resp
}

func flatten(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for name, values := range h {
		if len(values) > 0 {
			out[name] = values[0]
		}
	}
	return out
}

// DrainResponse reports the drain state after a drain request.
type DrainResponse struct {
	Draining bool   `json:"draining"`
	Reason   string `json:"reason,omitempty"`
}

// ExperimentResponse describes one configured experiment.
type ExperimentResponse struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
	Kind        string `json:"kind"`
	Percentage  int    `json:"percentage"`
	Injections  uint64 `json:"injections"`
}

// ExperimentsResponse lists the experiments in evaluation order.
type ExperimentsResponse struct {
	Experiments []ExperimentResponse `json:"experiments"`
}

// NewExperimentsResponse joins experiment descriptions with their counters.
func NewExperimentsResponse(infos []agent.ExperimentInfo, counts map[string]uint64) ExperimentsResponse {
	resp := ExperimentsResponse{Experiments: make([]ExperimentResponse, 0, len(infos))}
	for _, info := range infos {
		resp.Experiments = append(resp.Experiments, ExperimentResponse{
			ID:          info.ID,
			Description: info.Description,
			Enabled:     info.Enabled,
			Kind:        string(info.Kind),
			Percentage:  info.Percentage,
			Injections:  counts[info.ID],
		})
	}
	return resp
}

// StatsResponse is the JSON form of an agent snapshot.
type StatsResponse struct {
	Time               time.Time         `json:"time"`
	TotalRequests      uint64            `json:"total_requests"`
	FaultsInjected     uint64            `json:"faults_injected"`
	Injections         map[string]uint64 `json:"injections"`
	ExperimentsEnabled int               `json:"experiments_enabled"`
	Enabled            bool              `json:"enabled"`
	Draining           bool              `json:"draining"`
	MaxAffectedPercent int               `json:"max_affected_percent"`
}

// NewStatsResponse converts a snapshot.
func NewStatsResponse(s agent.Snapshot) StatsResponse {
	return StatsResponse{
		Time:               s.Time.UTC(),
		TotalRequests:      s.TotalRequests,
		FaultsInjected:     s.FaultsInjected,
		Injections:         s.Injections,
		ExperimentsEnabled: s.ExperimentsEnabled,
		Enabled:            s.Enabled,
		Draining:           s.Draining,
		MaxAffectedPercent: s.MaxAffectedPercent,
	}
}

// JournalResponse is a page of journal events, newest first.
type JournalResponse struct {
	Events []*journal.Event `json:"events"`
	Total  int64            `json:"total"`
}
