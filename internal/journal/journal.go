// Package journal keeps a SQLite record of every file a run looked at: what
// happened to it, which page files were written and where the original went.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/joe/tiff-splitter/internal/splitter"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Exported variables.
var (
	ErrSchemaMismatch = errors.New("schema version mismatch")
	ErrNoRunID        = errors.New("journal needs a run id")
)

// Entry is one recorded outcome.
type Entry struct {
	ID         int64
	RunID      string
	StartedAt  time.Time
	Source     string
	State      string
	SkipReason string
	Pages      int
	Outputs    []string
	Relocated  string
	Error      string
	Duration   time.Duration
}

// Journal appends outcomes of one run to a SQLite database. It implements
// splitter.Recorder.
type Journal struct {
	db    *sql.DB
	path  string
	runID string
	now   func() time.Time
}

// Open creates or opens the journal database at path. Outcomes recorded
// through the returned journal are tagged with runID.
func Open(path, runID string) (*Journal, error) {
	if runID == "" {
		return nil, ErrNoRunID
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	journal := &Journal{db: db, path: path, runID: runID, now: time.Now}
	if err := journal.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return journal, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}

	return j.db.Close()
}

// Record appends outcome to the journal.
func (j *Journal) Record(ctx context.Context, outcome splitter.Outcome) error {
	ctx = ensureContext(ctx)

	outputs := outcome.Outputs
	if outputs == nil {
		outputs = []string{}
	}

	encoded, err := json.Marshal(outputs)
	if err != nil {
		return fmt.Errorf("encode outputs: %w", err)
	}

	errText := ""
	if outcome.Err != nil {
		errText = outcome.Err.Error()
	}

	started := j.now().UTC().Add(-outcome.Duration)

	err = retryOnBusy(ctx, func() error {
		_, execErr := j.db.ExecContext(ctx,
			`INSERT INTO outcomes (
                run_id, started_at, source, state, skip_reason,
                pages, outputs, relocated, error, duration_ms
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			j.runID,
			started.Format(time.RFC3339Nano),
			outcome.Path,
			outcome.State.String(),
			outcome.Skip.String(),
			outcome.Pages,
			string(encoded),
			outcome.Relocated,
			errText,
			outcome.Duration.Milliseconds(),
		)

		return execErr
	})
	if err != nil {
		return fmt.Errorf("record %s: %w", outcome.Path, err)
	}

	return nil
}

// Recent returns up to limit entries, newest first. A limit <= 0 returns
// every entry.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, run_id, started_at, source, state, skip_reason,
        pages, outputs, relocated, error, duration_ms
        FROM outcomes ORDER BY id DESC`

	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	return j.query(ensureContext(ctx), query, args...)
}

// Run returns the entries of one run in the order they were recorded.
func (j *Journal) Run(ctx context.Context, runID string) ([]Entry, error) {
	return j.query(ensureContext(ctx),
		`SELECT id, run_id, started_at, source, state, skip_reason,
        pages, outputs, relocated, error, duration_ms
        FROM outcomes WHERE run_id = ? ORDER BY id`,
		runID,
	)
}

func (j *Journal) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var entries []Entry

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}

	return entries, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		entry      Entry
		startedAt  string
		outputs    string
		durationMS int64
	)

	err := rows.Scan(
		&entry.ID,
		&entry.RunID,
		&startedAt,
		&entry.Source,
		&entry.State,
		&entry.SkipReason,
		&entry.Pages,
		&outputs,
		&entry.Relocated,
		&entry.Error,
		&durationMS,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("scan outcome: %w", err)
	}

	entry.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parse started_at %q: %w", startedAt, err)
	}

	if err := json.Unmarshal([]byte(outputs), &entry.Outputs); err != nil {
		return Entry{}, fmt.Errorf("decode outputs of entry %d: %w", entry.ID, err)
	}

	entry.Duration = time.Duration(durationMS) * time.Millisecond

	return entry, nil
}

func (j *Journal) initSchema(ctx context.Context) error {
	// Check if schema_version table exists (indicates an initialized database)
	var tableExists int
	err := j.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return j.createSchema(ctx)
	}

	var version int
	err = j.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version != schemaVersion {
		return fmt.Errorf("%w: %s has version %d, expected %d (delete the journal to start over)",
			ErrSchemaMismatch, j.path, version, schemaVersion)
	}

	return nil
}

func (j *Journal) createSchema(ctx context.Context) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}

	return nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}

	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}

	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}

	msg := err.Error()

	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff

	var lastErr error

	for attempt := range busyRetryAttempts {
		lastErr = op()
		if lastErr == nil {
			return nil
		}

		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}

	return lastErr
}
