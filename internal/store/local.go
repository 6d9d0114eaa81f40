package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"crocsthepen/internal/logging"
)

// Local implements KV on top of a single-table SQLite database. The schema
// is a plain key/value shape so every record stays readable with one query.
type Local struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewLocal initializes the SQLite database at the given path.
func NewLocal(path string) (*Local, error) {
	logging.Store("Initializing local store at path: %s", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}

	s := &Local{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logging.StoreDebug("Local store schema initialized")
	return s, nil
}

func (s *Local) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("failed to create kv table: %w", err)
	}
	return nil
}

// Get returns the JSON blob stored under key.
func (s *Local) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to read key %s: %v", key, err)
		return nil, err
	}
	return []byte(value), nil
}

// Set stores the JSON blob under key, replacing any previous value.
func (s *Local) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(value),
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to write key %s: %v", key, err)
		return err
	}
	logging.StoreDebug("Wrote key %s (%d bytes)", key, len(value))
	return nil
}

// Delete removes key. Missing keys are not an error.
func (s *Local) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to delete key %s: %v", key, err)
		return err
	}
	return nil
}

// Close closes the underlying database.
func (s *Local) Close() error {
	return s.db.Close()
}
