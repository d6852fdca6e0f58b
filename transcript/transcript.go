// Package transcript stores evaluation traces in a SQLite database so runs
// of the CLI and the MCP server can be inspected and replayed later.
package transcript

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	cirno "github.com/dgu123/Cirno"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS traces (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	entry     TEXT NOT NULL,
	result    TEXT NOT NULL DEFAULT '',
	error     TEXT NOT NULL DEFAULT '',
	steps     INTEGER NOT NULL DEFAULT 0,
	timestamp TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS output (
	trace_id INTEGER NOT NULL REFERENCES traces(id) ON DELETE CASCADE,
	seq      INTEGER NOT NULL,
	message  TEXT NOT NULL,
	PRIMARY KEY (trace_id, seq)
);`

// ErrNotFound is returned by Get for an unknown trace id.
var ErrNotFound = errors.New("trace not found")

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes tr and its output lines in one transaction and sets tr.ID.
func (s *Store) Save(ctx context.Context, tr *cirno.Trace) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO traces (entry, result, error, steps, timestamp) VALUES (?, ?, ?, ?, ?)`,
		tr.Entry, tr.Result, tr.Error, tr.Steps, tr.Timestamp)
	if err != nil {
		return 0, fmt.Errorf("insert trace: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert trace: %w", err)
	}

	for i, msg := range tr.Output {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO output (trace_id, seq, message) VALUES (?, ?, ?)`, id, i, msg); err != nil {
			return 0, fmt.Errorf("insert output %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	tr.ID = id
	return id, nil
}

// Get loads one trace with its output.
func (s *Store) Get(ctx context.Context, id int64) (*cirno.Trace, error) {
	traces, err := s.query(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(traces) == 0 {
		return nil, fmt.Errorf("trace %d: %w", id, ErrNotFound)
	}
	return traces[0], nil
}

// Recent returns up to n traces, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]*cirno.Trace, error) {
	if n <= 0 {
		return nil, nil
	}
	return s.query(ctx, `ORDER BY id DESC LIMIT ?`, n)
}

func (s *Store) query(ctx context.Context, clause string, args ...any) ([]*cirno.Trace, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entry, result, error, steps, timestamp FROM traces `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("query traces: %w", err)
	}
	defer rows.Close()

	var traces []*cirno.Trace
	byID := make(map[int64]*cirno.Trace)
	for rows.Next() {
		tr := &cirno.Trace{}
		if err := rows.Scan(&tr.ID, &tr.Entry, &tr.Result, &tr.Error, &tr.Steps, &tr.Timestamp); err != nil {
			return nil, fmt.Errorf("scan trace: %w", err)
		}
		traces = append(traces, tr)
		byID[tr.ID] = tr
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query traces: %w", err)
	}
	if len(traces) == 0 {
		return traces, nil
	}

	if err := s.loadOutput(ctx, byID); err != nil {
		return nil, err
	}
	return traces, nil
}

func (s *Store) loadOutput(ctx context.Context, byID map[int64]*cirno.Trace) error {
	ids := make([]any, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	rows, err := s.db.QueryContext(ctx,
		`SELECT trace_id, message FROM output WHERE trace_id IN (`+placeholders+`) ORDER BY trace_id, seq`, ids...)
	if err != nil {
		return fmt.Errorf("query output: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var msg string
		if err := rows.Scan(&id, &msg); err != nil {
			return fmt.Errorf("scan output: %w", err)
		}
		tr := byID[id]
		tr.Output = append(tr.Output, msg)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("query output: %w", err)
	}
	return nil
}
