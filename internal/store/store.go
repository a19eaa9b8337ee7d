package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema history, tracked in PRAGMA user_version:
//
//	0  sessions, commands, snapshots and snapshot_fds tables
//	1  idx_snapshot_fds_fd_id, so `history --fd` finds sessions by FD ID
const currentSchemaVersion = 1

// sessionPragmas configure every connection. The log is written by one
// shell at a time and read by history and replay, hence WAL with a single
// pooled connection.
var sessionPragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// Store is the SQLite-backed session log: recorded sessions, their command
// lines and the working set each one ended with.
type Store struct {
	db *sql.DB
}

// Open opens the session log at path, creating the file and tables on
// first use and upgrading an older schema in place. Opening an existing
// log again is harmless.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open session log: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to session log %s: %w", path, err)
	}

	// Sessions append rows in one transaction per command; a second
	// connection would only contend for the write lock.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database. Closing a zero Store is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the handle for ad hoc queries in tests and tooling.
func (s *Store) DB() *sql.DB {
	return s.db
}

func applyPragmas(db *sql.DB) error {
	for _, pragma := range sessionPragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates the session tables if missing, then brings
// user_version up to currentSchemaVersion.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create session tables: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version < 1 {
		if err := indexSnapshotFDs(db); err != nil {
			return err
		}
	}
	if version != currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
	}
	return nil
}

// indexSnapshotFDs is the version 1 upgrade: an index on snapshot_fds.fd_id
// for looking up which sessions ended holding a given FD.
func indexSnapshotFDs(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_snapshot_fds_fd_id
		ON snapshot_fds(fd_id)
	`)
	if err != nil {
		return fmt.Errorf("schema v1: index snapshot_fds.fd_id: %w", err)
	}
	return nil
}

// verifyPragma reports an error unless PRAGMA name reads back as expected.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("read pragma %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("pragma %s = %q, want %q", name, value, expected)
	}
	return nil
}
