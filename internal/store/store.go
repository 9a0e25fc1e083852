// Package store keeps gesture action bindings and service settings in a
// single SQLite file.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// busyTimeoutMillis is how long a statement waits on a locked database
// before failing.
const busyTimeoutMillis = 5000

// Store owns the database handle. Table access goes through the
// repositories returned by Actions and Settings.
type Store struct {
	db   *sql.DB
	path string
}

// New opens or creates the database at dbPath and brings its schema up
// to date.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}

	// One connection: SQLite has a single writer, and pragmas are
	// per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMillis),
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	s := &Store{db: db, path: dbPath}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dbPath, err)
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the handle for tests and one-off queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the file New was given.
func (s *Store) Path() string {
	return s.path
}
