// Package proxy adapts the chaos agent to HTTP hosts.
//
// Two integration styles are supported:
//
//   - Decision API: the host calls POST /v1/decide for each request and acts
//     on the returned verdict itself.
//   - Reverse proxy: when server.upstream is set, traffic goes through
//     ChaosMiddleware. Blocked requests are answered by the agent; allowed
//     requests are forwarded to the upstream with httputil.ReverseProxy.
//
// Latency and timeout faults wait inside the evaluation, bounded by the
// request context. Throttle faults only compute a delay; the proxy exposes
// it to the client in the X-Chaos-Delay-Ms header without waiting.
//
// Admin endpoints:
//
//	POST /admin/drain        {"reason": "...", "duration_ms": 0}
//	GET  /admin/experiments  experiment list with injection counters
//	GET  /admin/stats        agent counters snapshot
//	GET  /admin/journal      recorded injections, filtered by query string
package proxy
