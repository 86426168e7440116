// Package store persists region saves in a sqlite database whose schema is
// managed by embedded migrations.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// Store is a save-game database.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (creating if needed) the database at path. Call Migrate before
// reading or writing saves.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open save database: %w", err)
	}
	// One connection keeps per-connection pragmas in force.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return &Store{db: db, log: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }
