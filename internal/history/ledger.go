// Package history keeps an append-only SQLite ledger of update check cycles.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver, WAL-friendly

	apperrors "relwatch/internal/errors"
	"relwatch/internal/update"
)

const schema = `
	CREATE TABLE IF NOT EXISTS checks (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		checked_at TEXT NOT NULL,
		outcome    TEXT NOT NULL,
		previous   TEXT NOT NULL,
		latest     TEXT NOT NULL DEFAULT '',
		error      TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_checks_checked_at ON checks (checked_at);
`

// Entry is one recorded check cycle.
type Entry struct {
	ID        int64
	CheckedAt time.Time
	Outcome   update.Outcome
	Previous  string
	Latest    string
	Error     string
}

// Ledger records check cycles in a SQLite database.
type Ledger struct {
	db *sql.DB
}

// buildDSN creates a read-write WAL DSN for the given path.
func buildDSN(dbPath string) string {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(dbPath),
	}
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(3000)")
	u.RawQuery = q.Encode()
	return u.String()
}

// Open opens (creating if needed) the ledger at path.
func Open(ctx context.Context, path string) (*Ledger, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, apperrors.New(apperrors.CodeConfigurationError, "history path is empty", nil)
	}
	//nolint:gosec // G301: ledger directory needs standard permissions
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, apperrors.New(apperrors.CodeHistoryFailed, "create history directory", err)
	}

	db, err := sql.Open("sqlite", buildDSN(trimmed))
	if err != nil {
		return nil, apperrors.New(apperrors.CodeHistoryFailed, "open history db", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, apperrors.New(apperrors.CodeHistoryFailed, "ping history db", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, apperrors.New(apperrors.CodeHistoryFailed, "create history schema", err)
	}
	return &Ledger{db: db}, nil
}

// Close releases the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record implements update.Recorder.
func (l *Ledger) Record(ctx context.Context, r update.CycleResult) error {
	e := Entry{
		CheckedAt: r.CheckedAt,
		Outcome:   r.Outcome,
		Previous:  r.Previous.String(),
	}
	if r.Outcome != update.OutcomeFailed {
		e.Latest = r.Latest.String()
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}
	return l.Append(ctx, e)
}

// Append inserts e. A zero CheckedAt is stamped with the current time.
func (l *Ledger) Append(ctx context.Context, e Entry) error {
	if e.CheckedAt.IsZero() {
		e.CheckedAt = time.Now()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO checks (checked_at, outcome, previous, latest, error)
		VALUES (?, ?, ?, ?, ?)
	`, e.CheckedAt.UTC().Format(time.RFC3339Nano), string(e.Outcome), e.Previous, e.Latest, e.Error)
	if err != nil {
		return apperrors.New(apperrors.CodeHistoryFailed, "insert check", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return []Entry{}, nil
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, checked_at, outcome, previous, latest, error
		FROM checks
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, apperrors.New(apperrors.CodeHistoryFailed, "query checks", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := []Entry{}
	for rows.Next() {
		var (
			e         Entry
			checkedAt string
			outcome   string
		)
		if err := rows.Scan(&e.ID, &checkedAt, &outcome, &e.Previous, &e.Latest, &e.Error); err != nil {
			return nil, apperrors.New(apperrors.CodeHistoryFailed, "scan check", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, checkedAt)
		if err != nil {
			return nil, apperrors.New(apperrors.CodeHistoryFailed, fmt.Sprintf("parse checked_at %q", checkedAt), err)
		}
		e.CheckedAt = ts
		e.Outcome = update.Outcome(outcome)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.New(apperrors.CodeHistoryFailed, "iterate checks", err)
	}
	return entries, nil
}
