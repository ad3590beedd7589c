package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/wishx/internal/shared"
)

// Storage is a durable string key-value map scoped to one profile.
type Storage interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)

	// Set writes value for key, replacing any existing value.
	Set(key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// PutIfAbsent stores value only when key has no value yet and returns whatever
	// is stored afterwards.
	PutIfAbsent(key, value string) (string, error)
}

// SQLiteStorage implements [Storage] on the profile_values table.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new [SQLiteStorage] with the given database connection
func NewSQLiteStorage(db *sql.DB) *SQLiteStorage {
	return &SQLiteStorage{db: db}
}

// OpenProfile opens (or creates) the profile database at path and applies migrations.
func OpenProfile(path string) (*SQLiteStorage, *sql.DB, error) {
	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", shared.ErrStorageUnavailable, err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("%w: %v", shared.ErrStorageUnavailable, err)
	}

	return NewSQLiteStorage(db), db, nil
}

func (s *SQLiteStorage) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM profile_values WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStorage) Set(key, value string) error {
	query := `
		INSERT INTO profile_values (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	if _, err := s.db.Exec(query, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStorage) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM profile_values WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// PutIfAbsent relies on INSERT OR IGNORE so a value written by another process
// between our read and write wins over ours.
func (s *SQLiteStorage) PutIfAbsent(key, value string) (string, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT OR IGNORE INTO profile_values (key, value, updated_at) VALUES (?, ?, ?)`
	if _, err := tx.Exec(query, key, value, time.Now()); err != nil {
		return "", fmt.Errorf("failed to insert %s: %w", key, err)
	}

	var stored string
	if err := tx.QueryRow(`SELECT value FROM profile_values WHERE key = ?`, key).Scan(&stored); err != nil {
		return "", fmt.Errorf("failed to read back %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit %s: %w", key, err)
	}
	return stored, nil
}

// MemoryStorage implements [Storage] in process memory, for tests and ephemeral profiles.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStorage creates an empty [MemoryStorage].
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryStorage) PutIfAbsent(key, value string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.values[key]; ok {
		return existing, nil
	}
	m.values[key] = value
	return value, nil
}
