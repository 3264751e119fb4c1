// Package decaxis provides the public API for the decaxis front end.
package decaxis

import (
	"log/slog"

	"nickandperla.net/decaxis/internal/ast"
	"nickandperla.net/decaxis/internal/parser"
	"nickandperla.net/decaxis/internal/store"
	"nickandperla.net/decaxis/internal/token"
)

// Option configures a Frontend.
type Option func(*Frontend)

// WithSQLiteStore configures SQLite persistence at the given path.
func WithSQLiteStore(path string) Option {
	return func(f *Frontend) {
		s, err := store.NewSQLite(path)
		if err != nil {
			if f.optErr == nil {
				f.optErr = err
			}
			return
		}
		f.store = s
	}
}

// WithMemoryStore configures an in-memory store (for testing).
func WithMemoryStore() Option {
	return func(f *Frontend) {
		f.store = store.NewMemory()
	}
}

// WithStore configures a custom store.
func WithStore(s Store) Option {
	return func(f *Frontend) {
		f.store = s
	}
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(f *Frontend) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithMaxDepth bounds loop nesting. Zero means unlimited.
func WithMaxDepth(n int) Option {
	return func(f *Frontend) {
		f.maxDepth = n
	}
}

// WithIgnoreUnknown skips characters outside the alphabet instead of
// rejecting them.
func WithIgnoreUnknown() Option {
	return func(f *Frontend) {
		f.ignoreUnknown = true
	}
}

// WithConcurrency sets how many files ParseFiles parses at once.
func WithConcurrency(n int) Option {
	return func(f *Frontend) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// Program is a parsed instruction sequence.
type Program = ast.Program

// Instruction is a single node of a Program.
type Instruction = ast.Instruction

// Token is a lexical unit.
type Token = token.Token

// Store interface for custom stores.
type Store = store.Store

// VersionEntry is one stored version of a program.
type VersionEntry = store.VersionEntry

// Parse error sentinels, matched with errors.Is.
var (
	ErrUnmatchedClose  = parser.ErrUnmatchedClose
	ErrUnmatchedOpen   = parser.ErrUnmatchedOpen
	ErrMissingOperand  = parser.ErrMissingOperand
	ErrUnexpectedToken = parser.ErrUnexpectedToken
	ErrTooDeep         = parser.ErrTooDeep
)
