// Package journal records every injected fault so operators can see what the
// agent did to which requests.
//
// Events are written asynchronously by a Recorder so the request path never
// waits on storage; when the buffer is full the event is dropped and counted.
// Two storage backends are provided:
//
//   - MemoryStorage keeps events in process memory (tests, short runs)
//   - SQLiteStorage persists events with modernc.org/sqlite (no cgo)
//
// A Pruner deletes events older than the retention period on a cron
// schedule.
package journal
