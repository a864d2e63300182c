// Package metrics exports the chaos agent's counters and gauges in the
// Prometheus exposition format.
//
// # Metrics
//
// Agent state, read from an agent snapshot on every scrape:
//   - chaos_requests_total: requests evaluated
//   - chaos_faults_injected_total: faults executed, dry-run included
//   - chaos_experiment_injections_total{experiment}: faults per experiment
//   - chaos_experiments_enabled: enabled experiments
//   - chaos_agent_enabled: global kill switch (0/1)
//   - chaos_agent_draining: drain flag (0/1)
//   - chaos_max_affected_percent: configured traffic cap
//
// HTTP surface of the agent itself:
//   - chaos_http_requests_total{route,code}
//   - chaos_http_request_duration_seconds{route}
//
// # Usage
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil, a)
//	mux.Handle("/metrics", collector.Handler())
package metrics
