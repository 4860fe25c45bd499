// Package history keeps a sqlite log of console commands across sessions.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"fluid/internal/logging"
)

// Entry is one recorded console command.
type Entry struct {
	ID      int64
	Session uuid.UUID
	Command string
	OK      bool
	At      time.Time
}

// Store manages the history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open creates or opens the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logging.HistoryDebug("history store opened at %s", dbPath)
	return s, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS commands (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session TEXT NOT NULL,
		command TEXT NOT NULL,
		ok INTEGER NOT NULL,
		at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_commands_session ON commands(session)`,
}

func (s *Store) initSchema() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Record stores e. A zero At is set to the current time.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO commands (session, command, ok, at) VALUES (?, ?, ?, ?)`,
		e.Session.String(), e.Command, e.OK, e.At.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record command: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return s.query(ctx, `
		SELECT id, session, command, ok, at FROM commands
		ORDER BY id DESC
		LIMIT ?`, limit)
}

// Session returns the entries of one session in the order they were recorded.
func (s *Store) Session(ctx context.Context, session uuid.UUID) ([]Entry, error) {
	return s.query(ctx, `
		SELECT id, session, command, ok, at FROM commands
		WHERE session = ?
		ORDER BY id ASC`, session.String())
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			session string
			at      int64
		)
		if err := rows.Scan(&e.ID, &session, &e.Command, &e.OK, &at); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if e.Session, err = uuid.Parse(session); err != nil {
			return nil, fmt.Errorf("bad session id %q: %w", session, err)
		}
		e.At = time.Unix(0, at)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
