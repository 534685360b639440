package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dupesweep/dupesweep/internal/scanner"
)

const schema = `
CREATE TABLE IF NOT EXISTS scan_results (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL,
	result     TEXT NOT NULL
);
`

// SQLiteStore persists scan results in a SQLite database so history
// survives process restarts.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) a SQLite-backed store at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Put stores a result as a JSON row.
func (s *SQLiteStore) Put(id string, result *scanner.ScanResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode scan result: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO scan_results (id, created_at, result) VALUES (?, ?, ?)`,
		id, time.Now().UTC(), string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to store scan result: %w", err)
	}
	return nil
}

// Get returns the result stored under id.
func (s *SQLiteStore) Get(id string) (*scanner.ScanResult, error) {
	var data string
	err := s.db.QueryRow(`SELECT result FROM scan_results WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load scan result: %w", err)
	}

	var result scanner.ScanResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to decode scan result: %w", err)
	}
	return &result, nil
}

// List returns stored ids, oldest first.
func (s *SQLiteStore) List() ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM scan_results ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan results: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
