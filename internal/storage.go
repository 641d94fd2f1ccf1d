package internal

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
)

// KeyValueStore is durable string storage keyed by name, the local
// equivalent of browser localStorage
type KeyValueStore interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
	Close() error
}

// Store drivers
const (
	StoreSQLite = "sqlite"
	StoreBadger = "badger"
	StoreMemory = "memory"
)

// OpenKeyValueStore opens the store selected by driver under dataDir
func OpenKeyValueStore(driver, dataDir string) (KeyValueStore, error) {
	if driver == StoreMemory {
		return NewMemoryKV(), nil
	}
	if err := NewDataPaths(dataDir).EnsureDir(); err != nil {
		return nil, &StorageError{Key: dataDir, Op: "open", Err: err}
	}

	switch driver {
	case StoreSQLite, "":
		db, err := OpenDatabase(filepath.Join(dataDir, "horizon-chat.db"))
		if err != nil {
			return nil, &StorageError{Key: dataDir, Op: "open", Err: err}
		}
		return NewSQLiteKV(db), nil
	case StoreBadger:
		return OpenBadgerKV(filepath.Join(dataDir, "badger"))
	default:
		return nil, fmt.Errorf("unsupported store: %s (supported: sqlite, badger, memory)", driver)
	}
}

// SQLiteKV stores items in the kv table of a SQLite database
type SQLiteKV struct {
	db *sqlx.DB
}

// NewSQLiteKV creates a new SQLiteKV instance
func NewSQLiteKV(db *sqlx.DB) *SQLiteKV {
	return &SQLiteKV{db: db}
}

// GetItem returns the value stored under key
func (s *SQLiteKV) GetItem(key string) (string, bool, error) {
	var value sql.NullString
	err := s.db.Get(&value, "SELECT value FROM kv WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Key: key, Op: "get", Err: err}
	}
	if !value.Valid {
		return "", false, nil
	}
	return value.String, true, nil
}

// SetItem stores value under key, replacing any previous value
func (s *SQLiteKV) SetItem(key, value string) error {
	query := "INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value"
	if _, err := s.db.Exec(query, key, value); err != nil {
		return &StorageError{Key: key, Op: "set", Err: err}
	}
	return nil
}

// RemoveItem deletes key; removing a missing key is not an error
func (s *SQLiteKV) RemoveItem(key string) error {
	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return &StorageError{Key: key, Op: "remove", Err: err}
	}
	return nil
}

// Keys lists stored keys matching a LIKE pattern
func (s *SQLiteKV) Keys(pattern string) ([]string, error) {
	pairs, err := QueryKV(s.db, pattern)
	if err != nil {
		return nil, &StorageError{Key: pattern, Op: "get", Err: err}
	}
	keys := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		keys = append(keys, pair.Key)
	}
	return keys, nil
}

func (s *SQLiteKV) Close() error {
	return s.db.Close()
}

// MemoryKV is an in-process KeyValueStore
type MemoryKV struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemoryKV creates an empty MemoryKV
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{items: make(map[string]string)}
}

func (m *MemoryKV) GetItem(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.items[key]
	return value, ok, nil
}

func (m *MemoryKV) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MemoryKV) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *MemoryKV) Close() error {
	return nil
}

var (
	_ KeyValueStore = (*SQLiteKV)(nil)
	_ KeyValueStore = (*MemoryKV)(nil)
)
