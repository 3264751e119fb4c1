package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"

	"nickandperla.net/decaxis/internal/ast"
)

// Current schema version. Databases with the same major version are accepted.
const SchemaVersion = "1.1.0"

var schemaConstraint = mustConstraint("^1.0.0")

func mustConstraint(c string) *semver.Constraints {
	cs, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return cs
}

// SQLite is a SQLite-backed store.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLite creates a new SQLite store at the given path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}

	// Create tables if not exists
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS programs (
			name TEXT NOT NULL,
			version INTEGER NOT NULL,
			id TEXT NOT NULL,
			source TEXT NOT NULL,
			ts TEXT NOT NULL,
			PRIMARY KEY (name, version)
		);
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{db: db}
	if err := EnsureSchema(s); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func checkSchema(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid schema version %q: %w", version, err)
	}
	if !schemaConstraint.Check(v) {
		return fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}
	return nil
}

// Get retrieves the latest version of a program by name.
func (s *SQLite) Get(name string) (ast.Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var source string
	err := s.db.QueryRow(
		"SELECT source FROM programs WHERE name = ? ORDER BY version DESC LIMIT 1", name,
	).Scan(&source)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return decode(name, source)
}

// Put stores a program as a new version.
func (s *SQLite) Put(name string, p ast.Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	source := p.String()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var latest int
	var latestSource string
	err = tx.QueryRow(
		"SELECT version, source FROM programs WHERE name = ? ORDER BY version DESC LIMIT 1", name,
	).Scan(&latest, &latestSource)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return err
	case latestSource == source:
		return nil
	}

	_, err = tx.Exec(
		"INSERT INTO programs (name, version, id, source, ts) VALUES (?, ?, ?, ?, ?)",
		name, latest+1, uuid.NewString(), source, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes every version of a program.
func (s *SQLite) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM programs WHERE name = ?", name)
	return err
}

// List returns stored program names.
func (s *SQLite) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT DISTINCT name FROM programs ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// GetHistory returns versions of a program newest-first.
func (s *SQLite) GetHistory(name string, limit int) ([]VersionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		"SELECT version, id, source, ts FROM programs WHERE name = ? ORDER BY version DESC LIMIT ?",
		name, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []VersionEntry
	for rows.Next() {
		var e VersionEntry
		if err := rows.Scan(&e.Version, &e.ID, &e.Source, &e.Ts); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// GetMetadata retrieves a metadata value by key.
func (s *SQLite) GetMetadata(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetMetadata stores a metadata value by key.
func (s *SQLite) SetMetadata(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
