package journal

// SchemaVersion is the current journal schema version.
const SchemaVersion = 1

// schema creates the events table. Times are stored as Unix nanoseconds so
// range filters compare integers.
const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS events (
	id            TEXT PRIMARY KEY,
	time_ns       INTEGER NOT NULL,
	request_id    TEXT,
	experiment_id TEXT NOT NULL,
	kind          TEXT NOT NULL,
	action        TEXT NOT NULL,
	status        INTEGER NOT NULL DEFAULT 0,
	delay_ms      INTEGER NOT NULL DEFAULT 0,
	dry_run       INTEGER NOT NULL DEFAULT 0,
	method        TEXT,
	path          TEXT
);

CREATE INDEX IF NOT EXISTS idx_events_time ON events(time_ns);
CREATE INDEX IF NOT EXISTS idx_events_experiment ON events(experiment_id, time_ns);
`

const (
	insertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`
	getSchemaVersion    = `SELECT MAX(version) FROM schema_version`

	insertEvent = `
		INSERT INTO events (
			id, time_ns, request_id, experiment_id, kind, action,
			status, delay_ms, dry_run, method, path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectEvents = `
		SELECT id, time_ns, request_id, experiment_id, kind, action,
			status, delay_ms, dry_run, method, path
		FROM events`

	countEvents  = `SELECT COUNT(*) FROM events`
	deleteBefore = `DELETE FROM events WHERE time_ns < ?`
)
