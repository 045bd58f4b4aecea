package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store keeps the provider fetch log. It lives only as long as the process.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// OpenMemory opens an in-memory SQLite database. Every connection to
// ":memory:" is a separate database, so the pool is pinned to one.
func OpenMemory() (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
	return db, nil
}
