package shared

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryDatabase is the path of a throwaway in-memory profile.
const MemoryDatabase = ":memory:"

// busyTimeoutMs bounds how long a write waits for another process holding the profile.
const busyTimeoutMs = 5000

// NewDatabase opens the SQLite profile at path.
//
// The CLI and a running TUI may share one profile, so file databases use WAL
// journaling and wait on a busy lock instead of failing. An in-memory database
// is pinned to a single connection so every query sees the same database.
func NewDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", databaseDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == MemoryDatabase {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func databaseDSN(path string) string {
	if path == MemoryDatabase || strings.Contains(path, "?") {
		return path
	}
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=%d", path, busyTimeoutMs)
}
