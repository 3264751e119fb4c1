package store

import (
	"database/sql"
	"path/filepath"
	"reflect"
	"testing"

	"nickandperla.net/decaxis/internal/ast"
	"nickandperla.net/decaxis/internal/parser"
)

func mustParse(t *testing.T, src string) ast.Program {
	t.Helper()
	p, err := parser.ParseString(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return p
}

// exercise runs the behaviour shared by every Store implementation.
func exercise(t *testing.T, s interface {
	Store
	HistoryStore
}) {
	t.Helper()

	got, err := s.Get("missing")
	if err != nil {
		t.Fatalf("Get missing failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing program, got %q", got)
	}

	// Put creates version 1
	if err := s.Put("loop", mustParse(t, "[+-]")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err = s.Get("loop")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.String() != "[+-]" {
		t.Errorf("expected '[+-]', got '%s'", got)
	}

	// Put again with different program creates version 2
	if err := s.Put("loop", mustParse(t, "[M1x2]")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	// Same program is a no-op
	if err := s.Put("loop", mustParse(t, "[M1x2]")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, _ = s.Get("loop")
	if !ast.Equal(got, mustParse(t, "[M1x2]")) {
		t.Errorf("expected latest version, got '%s'", got)
	}

	entries, err := s.GetHistory("loop", 0)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Version != 2 || entries[0].Source != "[M1x2]" {
		t.Errorf("entry[0]: expected v2 '[M1x2]', got v%d '%s'", entries[0].Version, entries[0].Source)
	}
	if entries[1].Version != 1 || entries[1].Source != "[+-]" {
		t.Errorf("entry[1]: expected v1 '[+-]', got v%d '%s'", entries[1].Version, entries[1].Source)
	}
	if entries[0].ID == "" || entries[0].ID == entries[1].ID {
		t.Errorf("expected distinct revision ids, got %q and %q", entries[0].ID, entries[1].ID)
	}
	if entries[0].Ts == "" {
		t.Error("expected non-empty timestamp")
	}

	entries, err = s.GetHistory("loop", 1)
	if err != nil {
		t.Fatalf("GetHistory with limit failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Version != 2 {
		t.Fatalf("expected only v2 with limit, got %+v", entries)
	}

	if err := s.Put("empty", ast.Program{}); err != nil {
		t.Fatalf("Put empty failed: %v", err)
	}
	got, err = s.Get("empty")
	if err != nil {
		t.Fatalf("Get empty failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil program, got %#v", got)
	}

	names, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"empty", "loop"}) {
		t.Errorf("unexpected names: %v", names)
	}

	// Delete removes all versions
	if err := s.Delete("loop"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	got, _ = s.Get("loop")
	if got != nil {
		t.Errorf("expected nil after delete, got '%s'", got)
	}
	entries, _ = s.GetHistory("loop", 0)
	if len(entries) != 0 {
		t.Errorf("expected no history after delete, got %d", len(entries))
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory()
	defer s.Close()
	exercise(t, s)
}

func TestEnsureSchema(t *testing.T) {
	m := NewMemory()
	if err := EnsureSchema(m); err != nil {
		t.Fatalf("EnsureSchema on fresh store: %v", err)
	}
	if v, _ := m.GetMetadata(schemaKey); v != SchemaVersion {
		t.Errorf("expected schema version %s, got %s", SchemaVersion, v)
	}

	tests := []struct {
		version string
		wantErr bool
	}{
		{"1.0.0", false},
		{"1.9.3", false},
		{"2.0.0", true},
		{"0.9.0", true},
		{"not-a-version", true},
	}
	for _, tt := range tests {
		m.SetMetadata(schemaKey, tt.version)
		err := EnsureSchema(m)
		if (err != nil) != tt.wantErr {
			t.Errorf("EnsureSchema(%s): err = %v, wantErr %v", tt.version, err, tt.wantErr)
		}
		if v, _ := m.GetMetadata(schemaKey); v != tt.version {
			t.Errorf("EnsureSchema(%s) rewrote the version to %s", tt.version, v)
		}
	}
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decaxis-test.db")

	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("Failed to create SQLite store: %v", err)
	}
	exercise(t, s)

	if err := s.Put("kept", mustParse(t, "ukoj")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	s.Close()

	// Reopen to verify persistence
	s2, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("Failed to reopen SQLite store: %v", err)
	}
	defer s2.Close()

	got, err := s2.Get("kept")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if got.String() != "ukoj" {
		t.Errorf("expected 'ukoj' after reopen, got '%s'", got)
	}
	if v, _ := s2.GetMetadata("schema_version"); v != SchemaVersion {
		t.Errorf("expected schema version %s, got %s", SchemaVersion, v)
	}
}

func setSchemaVersion(t *testing.T, path, version string) {
	t.Helper()
	db, err := sql.Open(driverName, path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`UPDATE metadata SET value = ? WHERE key = 'schema_version'`, version); err != nil {
		t.Fatalf("update schema version: %v", err)
	}
}

func TestSQLiteSchemaCompatibility(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.db")
	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	s.Close()

	// Older minor of the same major opens fine.
	setSchemaVersion(t, path, "1.0.0")
	s, err = NewSQLite(path)
	if err != nil {
		t.Fatalf("expected 1.0.0 to be accepted: %v", err)
	}
	s.Close()

	// A different major is rejected.
	setSchemaVersion(t, path, "2.0.0")
	if _, err := NewSQLite(path); err == nil {
		t.Error("expected schema 2.0.0 to be rejected")
	}

	setSchemaVersion(t, path, "not-a-version")
	if _, err := NewSQLite(path); err == nil {
		t.Error("expected invalid schema version to be rejected")
	}
}

func TestSQLiteCorruptSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.db")
	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer s.Close()

	_, err = s.db.Exec(`INSERT INTO programs (name, version, id, source, ts) VALUES ('bad', 1, 'x', '[[', 'now')`)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.Get("bad"); err == nil {
		t.Error("expected parse error for corrupt stored source")
	}
}
