package internal

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const createKVTable = `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT
	)`

// OpenDatabase opens (creating if needed) the SQLite database backing the
// local key-value store
func OpenDatabase(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := db.Exec(createKVTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}

	return db, nil
}

// KeyValuePair represents a row of the kv table
type KeyValuePair struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// QueryKV returns the rows whose key matches a LIKE pattern
func QueryKV(db *sqlx.DB, pattern string) ([]KeyValuePair, error) {
	var pairs []KeyValuePair
	err := db.Select(&pairs, "SELECT key, value FROM kv WHERE key LIKE ? AND value IS NOT NULL ORDER BY key", pattern)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return pairs, nil
}
