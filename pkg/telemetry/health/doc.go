// Package health serves the liveness and readiness endpoints of the chaos
// agent.
//
// Liveness (/healthz) always answers 200 while the process runs. Readiness
// (/health) combines the agent's own health contract with any registered
// component checks, such as journal storage:
//
//	checker := health.New(a, 2*time.Second)
//	checker.RegisterCheck("journal", func(ctx context.Context) error {
//	    _, err := storage.Count(ctx, &journal.Filter{Limit: 1})
//	    return err
//	})
//	mux.HandleFunc("GET /health", checker.ReadinessHandler())
//
// A draining agent reports itself degraded and readiness answers 503:
//
//	{
//	    "agent": "chaos-agent",
//	    "status": "degraded",
//	    "degraded": ["fault-injection"],
//	    "severity": 1,
//	    "timestamp": "2026-10-14T10:30:00Z"
//	}
package health
