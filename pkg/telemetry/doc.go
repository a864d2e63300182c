// Package telemetry groups the observability packages of the chaos agent.
//
// # Components
//
//   - logging: slog construction with request id and experiment context fields
//   - metrics: Prometheus export of the agent counters and HTTP metrics
//   - health: liveness and readiness endpoints fed by the agent health contract
//
// The packages are independent; cmd/chaos-agent wires them together.
package telemetry
