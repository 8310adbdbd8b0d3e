// Package sqlite provides a file-backed medium over a single key-value table.
// It gives the persistent store real durability across process restarts while
// keeping the medium contract synchronous.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

type Medium struct {
	db *sql.DB
}

// Open creates or reuses the backing database at path and prepares the
// entries table. Use ":memory:" for an ephemeral database.
func Open(path string) (*Medium, error) {
	if path == "" {
		return nil, errors.New("sqlite medium requires a database path")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}

	// The medium is shared process-wide; a single connection keeps writes
	// serialized the same way the synchronous contract promises.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare entries table: %w", err)
	}

	return &Medium{db: db}, nil
}

func (m *Medium) Get(key string) (string, bool, error) {
	var value string
	err := m.db.QueryRow(`SELECT value FROM entries WHERE key = ?`, key).Scan(&value)
	switch {
	case err == nil:
		return value, true, nil
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	default:
		return "", false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
}

func (m *Medium) Set(key, value string) error {
	_, err := m.db.Exec(
		`INSERT INTO entries (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}

	return nil
}

func (m *Medium) Remove(key string) error {
	if _, err := m.db.Exec(`DELETE FROM entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to remove key %s: %w", key, err)
	}

	return nil
}

func (m *Medium) Keys(prefix string) ([]string, error) {
	// substr comparison instead of LIKE so keys containing wildcard
	// characters cannot widen the match.
	rows, err := m.db.Query(
		`SELECT key FROM entries WHERE substr(key, 1, length(?)) = ? ORDER BY key`,
		prefix, prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys under %s: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate keys: %w", err)
	}

	return keys, nil
}

func (m *Medium) Close() error {
	return m.db.Close()
}
