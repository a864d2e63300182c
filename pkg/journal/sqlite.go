package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteConfig contains configuration for the SQLite backend.
type SQLiteConfig struct {
	// Path is the database file path. The parent directory is created if
	// missing.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteStorage implements Storage on a SQLite database file.
type SQLiteStorage struct {
	db        *sql.DB
	path      string
	logger    *slog.Logger
	closeOnce sync.Once
}

// NewSQLiteStorage opens (or creates) the database and initializes the
// schema.
func NewSQLiteStorage(cfg SQLiteConfig, logger *slog.Logger) (*SQLiteStorage, error) {
	if cfg.Path == "" {
		return nil, NewStorageError("sqlite", "open", fmt.Errorf("db path cannot be empty"))
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, NewStorageError("sqlite", "mkdir", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, NewStorageError("sqlite", "open", err)
	}

	// SQLite allows a single writer; one connection avoids SQLITE_BUSY
	// between pooled connections.
	db.SetMaxOpenConns(1)

	s := &SQLiteStorage{
		db:     db,
		path:   cfg.Path,
		logger: logger.With("component", "journal.sqlite"),
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("journal storage initialized", "path", cfg.Path)
	return s, nil
}

func (s *SQLiteStorage) initialize() error {
	if _, err := s.db.Exec(schema); err != nil {
		return NewStorageError("sqlite", "create_schema", err)
	}
	if _, err := s.db.Exec(insertSchemaVersion, SchemaVersion); err != nil {
		return NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(getSchemaVersion).Scan(&version); err != nil {
		return NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	return nil
}

// Store inserts one event.
func (s *SQLiteStorage) Store(ctx context.Context, e *Event) error {
	_, err := s.db.ExecContext(ctx, insertEvent,
		e.ID, e.Time.UnixNano(), nullString(e.RequestID), e.ExperimentID, e.Kind, e.Action,
		e.Status, e.DelayMs, e.DryRun, e.Method, e.Path,
	)
	if err != nil {
		return NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Query returns matching events, newest first.
func (s *SQLiteStorage) Query(ctx context.Context, filter *Filter) ([]*Event, error) {
	where, args := buildWhere(filter)

	var sb strings.Builder
	sb.WriteString(selectEvents)
	sb.WriteString(where)
	sb.WriteString(" ORDER BY time_ns DESC")
	if filter != nil && (filter.Limit > 0 || filter.Offset > 0) {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		sb.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		var (
			e         Event
			timeNs    int64
			requestID sql.NullString
			method    sql.NullString
			path      sql.NullString
		)
		if err := rows.Scan(&e.ID, &timeNs, &requestID, &e.ExperimentID, &e.Kind, &e.Action,
			&e.Status, &e.DelayMs, &e.DryRun, &method, &path); err != nil {
			return nil, NewStorageError("sqlite", "scan", err)
		}
		e.Time = time.Unix(0, timeNs).UTC()
		e.RequestID = requestID.String
		e.Method = method.String
		e.Path = path.String
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("sqlite", "query", err)
	}
	return events, nil
}

// Count returns the number of matching events.
func (s *SQLiteStorage) Count(ctx context.Context, filter *Filter) (int64, error) {
	where, args := buildWhere(filter)

	var n int64
	if err := s.db.QueryRowContext(ctx, countEvents+where, args...).Scan(&n); err != nil {
		return 0, NewStorageError("sqlite", "count", err)
	}
	return n, nil
}

// DeleteBefore removes events older than cutoff.
func (s *SQLiteStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, deleteBefore, cutoff.UnixNano())
	if err != nil {
		return 0, NewStorageError("sqlite", "delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, NewStorageError("sqlite", "delete", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.db.Close()
	})
	return err
}

func buildWhere(filter *Filter) (string, []any) {
	if filter == nil {
		return "", nil
	}

	var (
		clauses []string
		args    []any
	)
	if filter.ExperimentID != "" {
		clauses = append(clauses, "experiment_id = ?")
		args = append(args, filter.ExperimentID)
	}
	if filter.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, filter.Kind)
	}
	if !filter.Since.IsZero() {
		clauses = append(clauses, "time_ns >= ?")
		args = append(args, filter.Since.UnixNano())
	}
	if !filter.Until.IsZero() {
		clauses = append(clauses, "time_ns < ?")
		args = append(args, filter.Until.UnixNano())
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
