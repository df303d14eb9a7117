// Package store wraps the VFK SQLite database holding the OPSUB table. The
// pipeline opens a store for each operation that needs one (reading the
// posident set, persisting one batch) and closes it on every exit path, so
// no connection outlives the operation it serves.
package store

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Fixed schema names of the enrichment target.
const (
	Table           = "OPSUB"
	KeyColumn       = "ID"
	ServiceIDColumn = "OS_ID"
)

// UnavailableError reports a database that cannot be opened or queried.
type UnavailableError struct {
	Path string
	Err  error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("database %s unavailable: %v", e.Path, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// EmptyResultError reports a posident query that matched fewer than two
// rows. A single or zero posidents is treated as a caller error, not a
// valid small run.
type EmptyResultError struct {
	Query string
	Count int
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("posident query returned %d rows, need at least 2 (query: %s)", e.Count, e.Query)
}

// PersistenceError reports a write fault during a batch transaction. The
// batch's updates are rolled back before this is returned.
type PersistenceError struct {
	Posident string
	Err      error
}

func (e *PersistenceError) Error() string {
	if e.Posident != "" {
		return fmt.Sprintf("failed to persist posident %s: %v", e.Posident, e.Err)
	}
	return fmt.Sprintf("failed to persist batch: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Store is a scoped handle on the VFK database.
type Store struct {
	db   *sql.DB
	path string
	log  *zap.Logger
}

// Open opens the SQLite database at path. The file must already exist: the
// pipeline enriches an existing VFK export and never creates a database.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if _, err := os.Stat(path); err != nil {
		return nil, &UnavailableError{Path: path, Err: err}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &UnavailableError{Path: path, Err: err}
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		log.Debug("failed to set sqlite busy_timeout", zap.Error(err))
	}

	return &Store{db: db, path: path, log: log}, nil
}

// OpenMemory opens a fresh in-memory database. Test helper.
func OpenMemory(log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, &UnavailableError{Path: ":memory:", Err: err}
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return &Store{db: db, path: ":memory:", log: log}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying connection. Test helper.
func (s *Store) DB() *sql.DB {
	return s.db
}
