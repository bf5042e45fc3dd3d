package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// migration upgrades a log whose user_version is below version.
type migration struct {
	version int
	stmt    string
}

// migrations run in order after schema.sql. schema.sql only ever gains
// tables, so indexes added after the first release live here.
var migrations = []migration{
	{1, `CREATE INDEX IF NOT EXISTS idx_firings_ruleset ON firings(ruleset, seq)`},
	{2, `CREATE INDEX IF NOT EXISTS idx_firings_outcome ON firings(outcome, seq)`},
}

// schemaVersion is the user_version of a fully migrated log.
var schemaVersion = migrations[len(migrations)-1].version

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// Store is the durable firing log.
type Store struct {
	db    *sql.DB
	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithIDs replaces the UUIDv7 firing ID source, for tests and golden logs.
func WithIDs(next func() string) Option {
	return func(s *Store) { s.newID = next }
}

// Open creates or opens the firing log at path and brings its schema up to
// date. ":memory:" gives a private in-memory log.
//
// The pool is pinned to one connection: SQLite has a single writer, and an
// in-memory database exists only on the connection that created it.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open firing log: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := prepare(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open firing log %s: %w", path, err)
	}

	s := &Store{db: db, newID: newFiringID}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func prepare(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		return err
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return migrate(db)
}

// migrate applies every migration newer than the log's user_version.
func migrate(db *sql.DB) error {
	var current int
	if err := db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
		// PRAGMA does not take bind parameters.
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			return fmt.Errorf("set user_version %d: %w", m.version, err)
		}
	}
	return nil
}

func newFiringID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Close closes the database. It is safe on a zero Store.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
