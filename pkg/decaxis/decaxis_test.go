package decaxis

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nickandperla.net/decaxis/internal/store"
)

func newFrontend(t *testing.T, opts ...Option) *Frontend {
	t.Helper()
	f, err := New(opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestParse(t *testing.T) {
	f := newFrontend(t)

	p, err := f.Parse("M9m8x0X2ukoj[+-|.,]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p) != 9 {
		t.Errorf("expected 9 top-level instructions, got %d", len(p))
	}

	_, err = f.Parse("[+-|[[++]M5X2]oj]m2]")
	if !errors.Is(err, ErrUnmatchedClose) {
		t.Errorf("expected ErrUnmatchedClose, got %v", err)
	}
	_, err = f.Parse("X4[+-|[[++]M5X2]ojm2")
	if !errors.Is(err, ErrUnmatchedOpen) {
		t.Errorf("expected ErrUnmatchedOpen, got %v", err)
	}
}

func TestParseOptions(t *testing.T) {
	f := newFrontend(t, WithIgnoreUnknown(), WithMaxDepth(1))

	p, err := f.Parse("M1 [ + ]\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.String() != "M1[+]" {
		t.Errorf("unexpected program %q", p.String())
	}

	if _, err := f.Parse("[[]]"); !errors.Is(err, ErrTooDeep) {
		t.Errorf("expected ErrTooDeep, got %v", err)
	}
}

func TestParseLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f := newFrontend(t, WithLogger(logger))

	f.Parse("[+]")
	f.Parse("]")

	out := buf.String()
	if !strings.Contains(out, "parsed program") || !strings.Contains(out, "loops=1") {
		t.Errorf("expected success log, got %q", out)
	}
	if !strings.Contains(out, "parse failed") || !strings.Contains(out, "kind=UnmatchedClose") {
		t.Errorf("expected failure log, got %q", out)
	}
}

func TestParseReader(t *testing.T) {
	f := newFrontend(t)
	p, err := f.ParseReader(strings.NewReader("[x3]"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.String() != "[x3]" {
		t.Errorf("unexpected program %q", p.String())
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	f := newFrontend(t)

	p, err := f.ParseFile(writeFile(t, dir, "ok.dx", "ukoj"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p) != 4 {
		t.Errorf("expected 4 instructions, got %d", len(p))
	}

	bad := writeFile(t, dir, "bad.dx", "X")
	_, err = f.ParseFile(bad)
	if !errors.Is(err, ErrMissingOperand) {
		t.Errorf("expected ErrMissingOperand, got %v", err)
	}
	if err == nil || !strings.HasPrefix(err.Error(), bad) {
		t.Errorf("expected error prefixed with path, got %v", err)
	}

	if _, err := f.ParseFile(filepath.Join(dir, "missing.dx")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestParseFiles(t *testing.T) {
	dir := t.TempDir()
	f := newFrontend(t, WithConcurrency(2))

	paths := []string{
		writeFile(t, dir, "a.dx", "M1"),
		writeFile(t, dir, "b.dx", "]"),
		writeFile(t, dir, "c.dx", "[+]"),
		writeFile(t, dir, "d.dx", "5"),
	}
	results, err := f.ParseFiles(context.Background(), paths...)
	if err != nil {
		t.Fatalf("ParseFiles failed: %v", err)
	}
	if len(results) != len(paths) {
		t.Fatalf("expected %d results, got %d", len(paths), len(results))
	}
	for i, r := range results {
		if r.Path != paths[i] {
			t.Errorf("result %d: path %s, want %s", i, r.Path, paths[i])
		}
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("expected a.dx and c.dx to parse: %v, %v", results[0].Err, results[2].Err)
	}
	if !errors.Is(results[1].Err, ErrUnmatchedClose) {
		t.Errorf("b.dx: expected ErrUnmatchedClose, got %v", results[1].Err)
	}
	if !errors.Is(results[3].Err, ErrUnexpectedToken) {
		t.Errorf("d.dx: expected ErrUnexpectedToken, got %v", results[3].Err)
	}
}

func TestParseFilesCancelled(t *testing.T) {
	f := newFrontend(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.ParseFiles(ctx, "x.dx"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestStoreRequired(t *testing.T) {
	f := newFrontend(t)
	if _, err := f.Save("x", "+"); !errors.Is(err, ErrNoStore) {
		t.Errorf("Save: expected ErrNoStore, got %v", err)
	}
	if _, err := f.Load("x"); !errors.Is(err, ErrNoStore) {
		t.Errorf("Load: expected ErrNoStore, got %v", err)
	}
	if err := f.Delete("x"); !errors.Is(err, ErrNoStore) {
		t.Errorf("Delete: expected ErrNoStore, got %v", err)
	}
	if _, err := f.List(); !errors.Is(err, ErrNoStore) {
		t.Errorf("List: expected ErrNoStore, got %v", err)
	}
	if _, err := f.History("x", 0); !errors.Is(err, ErrNoStore) {
		t.Errorf("History: expected ErrNoStore, got %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	for _, tc := range []struct {
		name string
		opt  func(t *testing.T) Option
	}{
		{"memory", func(t *testing.T) Option { return WithMemoryStore() }},
		{"sqlite", func(t *testing.T) Option { return WithSQLiteStore(filepath.Join(t.TempDir(), "p.db")) }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFrontend(t, tc.opt(t))

			if _, err := f.Save("bad", "[["); !errors.Is(err, ErrUnmatchedOpen) {
				t.Errorf("expected parse error on save, got %v", err)
			}

			if _, err := f.Save("prog", "[+]M1"); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			if _, err := f.Save("prog", "[-]m1"); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			p, err := f.Load("prog")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if p.String() != "[-]m1" {
				t.Errorf("expected latest version, got %q", p.String())
			}

			history, err := f.History("prog", 0)
			if err != nil {
				t.Fatalf("History failed: %v", err)
			}
			if len(history) != 2 || history[1].Source != "[+]M1" {
				t.Errorf("unexpected history: %+v", history)
			}

			names, err := f.List()
			if err != nil || len(names) != 1 || names[0] != "prog" {
				t.Errorf("unexpected names %v (%v)", names, err)
			}

			if err := f.Delete("prog"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if _, err := f.Load("prog"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound after delete, got %v", err)
			}
		})
	}
}

func TestSQLiteStoreError(t *testing.T) {
	// SQLite cannot create a file under a missing directory.
	_, err := New(WithSQLiteStore(filepath.Join(t.TempDir(), "missing", "dir", "p.db")))
	if err == nil {
		t.Error("expected error for unusable database path")
	}
}

func TestNewStampsStoreSchema(t *testing.T) {
	m := store.NewMemory()
	newFrontend(t, WithStore(m))
	if v, _ := m.GetMetadata("schema_version"); v != store.SchemaVersion {
		t.Errorf("expected schema version %s, got %q", store.SchemaVersion, v)
	}
}

func TestNewRejectsIncompatibleStore(t *testing.T) {
	m := store.NewMemory()
	m.SetMetadata("schema_version", "2.0.0")
	if _, err := New(WithStore(m)); err == nil || !strings.Contains(err.Error(), "unsupported schema version") {
		t.Errorf("expected schema error, got %v", err)
	}
}
