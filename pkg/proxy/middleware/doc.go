// Package middleware provides the HTTP middleware of the chaos agent.
//
// The chain, outermost first, is:
//
//	handler = WriteDeadline(Recovery(RequestID(Logging(mux))))
//
// WriteDeadline is only installed when the server has a write timeout and
// an enabled experiment can hold a request.
//
// RequestID must wrap Logging: Logging passes its request straight to the
// ServeMux so it can read the matched route pattern afterwards.
//
// # Request ID
//
// RequestIDMiddleware keeps a client supplied X-Request-ID or generates a
// UUID v4, stores it in the context with logging.WithRequestID and echoes it
// in the response header. Loggers built by pkg/telemetry/logging add it to
// every record logged with that context.
//
// # Logging
//
// LoggingMiddleware logs one record per request at info, warn (4xx) or
// error (5xx) level and reports the route, status and duration to an
// optional Recorder, usually the metrics collector.
//
// # Recovery
//
// RecoveryMiddleware turns a handler panic into a 500 JSON error and logs
// the stack.
//
// # Write deadline
//
// WriteDeadlineMiddleware resets the connection write deadline at the start
// of each request through http.ResponseController.
package middleware
