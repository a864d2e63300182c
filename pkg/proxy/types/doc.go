// Package types defines the JSON bodies of the chaos agent HTTP API.
//
// The decision API lets a host that cannot route its traffic through the
// agent ask for a verdict per request:
//
//	POST /v1/decide
//	{"method": "GET", "path": "/api/users", "headers": {"x-user": "alice"}}
//
//	200 OK
//	{"action": "block", "status": 503, "headers": {...}, "body": "Chaos...",
//	 "experiment": "checkout-errors"}
//
// Errors use a single envelope:
//
//	{"error": {"message": "...", "type": "invalid_request_error"}}
package types
