// Package agent implements the per-request decision pipeline of the chaos
// agent.
//
// An Agent is built once from a validated configuration. Evaluate then runs,
// for every request, the safety gate, targeting, percentage sampling and the
// fault executor, and returns the decision the host should apply:
//
//	a := agent.New(cfg, agent.WithLogger(logger))
//	d := a.Evaluate(ctx, agent.Request{Method: "GET", Path: "/api/users"})
//	if d.Outcome.Blocked() {
//		// write d.Outcome.Status, Headers and Body
//	}
//
// Compiled experiments and safety settings never change after New. The only
// runtime state is a set of atomic counters and a one-way drain flag, so
// Evaluate is safe to call from any number of goroutines.
package agent
