// Package server runs the chaos agent HTTP listener.
//
// The server mounts, on one ServeMux:
//
//   - the decision and admin API from pkg/proxy
//   - /healthz, /health and /version from pkg/telemetry/health
//   - the Prometheus endpoint (telemetry.metrics.path) when metrics are enabled
//   - a catch-all route through proxy.ChaosMiddleware to server.upstream,
//     when an upstream is configured
//
// and wraps it in Recovery(RequestID(Logging(mux))).
//
// # Basic Usage
//
//	srv, err := server.New(cfg, server.Options{
//	    Agent:   a,
//	    Checker: checker,
//	    Metrics: collector,
//	    Journal: storage,
//	    Logger:  logger,
//	})
//	if err != nil {
//	    return err
//	}
//	// Start blocks until ctx is cancelled, then shuts down gracefully.
//	return srv.Start(ctx)
//
// Routes registered by the API take precedence over the upstream catch-all,
// so excluded paths such as /health are served by the agent itself.
package server
