package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Namespaces of the key-value table.
const (
	NamespaceGame  = "game"
	NamespacePrefs = "prefs"
)

// HistoryRow is one archived game as stored.
type HistoryRow struct {
	Seq       int64
	ID        string
	EntryJSON string
	CreatedAt time.Time
}

// Store handles SQLite persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection: SQLite has a single writer, and ":memory:" databases
	// are per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			namespace  TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (namespace, key)
		);
		CREATE TABLE IF NOT EXISTS history (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT NOT NULL UNIQUE,
			entry_json TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

// Get returns the value stored under namespace/key, or sql.ErrNoRows.
func (s *Store) Get(namespace, key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE namespace = ? AND key = ?", namespace, key).Scan(&value)
	return value, err
}

// Set upserts a single value.
func (s *Store) Set(namespace, key, value string) error {
	return s.SetMany(namespace, map[string]string{key: value})
}

// SetMany upserts several values in one transaction; either all are
// written or none.
func (s *Store) SetMany(namespace string, values map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO kv (namespace, key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for k, v := range values {
		if _, err := stmt.Exec(namespace, k, v); err != nil {
			return fmt.Errorf("set %s/%s: %w", namespace, k, err)
		}
	}
	return tx.Commit()
}

// Delete removes the given keys from a namespace. Missing keys are ignored.
func (s *Store) Delete(namespace string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	args := make([]any, 0, len(keys)+1)
	args = append(args, namespace)
	for _, k := range keys {
		args = append(args, k)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	_, err := s.db.Exec("DELETE FROM kv WHERE namespace = ? AND key IN ("+placeholders+")", args...)
	return err
}

// AppendHistory adds an entry after all existing ones.
func (s *Store) AppendHistory(id, entryJSON string) error {
	_, err := s.db.Exec("INSERT INTO history (id, entry_json) VALUES (?, ?)", id, entryJSON)
	return err
}

// ListHistory returns every entry in the order it was appended.
func (s *Store) ListHistory() ([]HistoryRow, error) {
	rows, err := s.db.Query("SELECT seq, id, entry_json, created_at FROM history ORDER BY seq ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []HistoryRow
	for rows.Next() {
		var hr HistoryRow
		if err := rows.Scan(&hr.Seq, &hr.ID, &hr.EntryJSON, &hr.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, hr)
	}
	return result, rows.Err()
}

// GetHistory returns one entry by id, or sql.ErrNoRows.
func (s *Store) GetHistory(id string) (*HistoryRow, error) {
	row := s.db.QueryRow("SELECT seq, id, entry_json, created_at FROM history WHERE id = ?", id)
	var hr HistoryRow
	if err := row.Scan(&hr.Seq, &hr.ID, &hr.EntryJSON, &hr.CreatedAt); err != nil {
		return nil, err
	}
	return &hr, nil
}

// DeleteLastHistory removes the most recently appended entry and reports
// whether there was one.
func (s *Store) DeleteLastHistory() (bool, error) {
	res, err := s.db.Exec("DELETE FROM history WHERE seq = (SELECT MAX(seq) FROM history)")
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
