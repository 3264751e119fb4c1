// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package decaxis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"nickandperla.net/decaxis/internal/parser"
	"nickandperla.net/decaxis/internal/scanner"
	"nickandperla.net/decaxis/internal/store"
)

var (
	// ErrNoStore is returned by persistence methods when no store is configured.
	ErrNoStore = errors.New("no program store configured")
	// ErrNotFound is returned by Load when no program has the given name.
	ErrNotFound = errors.New("program not found")
)

// Frontend lexes and parses decaxis source and optionally persists programs.
type Frontend struct {
	store         Store
	logger        *slog.Logger
	maxDepth      int
	ignoreUnknown bool
	concurrency   int
	optErr        error // First error raised while applying options
}

// New creates a new Frontend with the given options. A store that keeps
// metadata is stamped with the schema version, or rejected if it was
// written by an incompatible one.
func New(opts ...Option) (*Frontend, error) {
	f := &Frontend{
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		concurrency: 4,
	}

	for _, opt := range opts {
		opt(f)
	}
	if ms, ok := f.store.(store.MetadataStore); ok && f.optErr == nil {
		if err := store.EnsureSchema(ms); err != nil {
			f.optErr = fmt.Errorf("program store: %w", err)
		}
	}
	if f.optErr != nil {
		if f.store != nil {
			f.store.Close()
		}
		return nil, f.optErr
	}
	return f, nil
}

func (f *Frontend) parserOptions() []parser.Option {
	var opts []parser.Option
	if f.maxDepth > 0 {
		opts = append(opts, parser.WithMaxDepth(f.maxDepth))
	}
	if f.ignoreUnknown {
		opts = append(opts, parser.WithIgnoreUnknown())
	}
	return opts
}

// Parse lexes and parses src.
func (f *Frontend) Parse(src string) (Program, error) {
	return f.parse(scanner.Tokenize(src))
}

// ParseReader reads all of r, then parses it. A single trailing line ending
// is dropped so ordinary text files parse.
func (f *Frontend) ParseReader(r io.Reader) (Program, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return f.Parse(TrimLineEnding(string(src)))
}

// Tokenize streams r through the lexer.
func (f *Frontend) Tokenize(r io.Reader) ([]Token, error) {
	return scanner.TokenizeReader(r)
}

// TrimLineEnding removes one trailing "\n" or "\r\n" from s.
func TrimLineEnding(s string) string {
	if strings.HasSuffix(s, "\r\n") {
		return s[:len(s)-2]
	}
	return strings.TrimSuffix(s, "\n")
}

func (f *Frontend) parse(tokens []Token) (Program, error) {
	p, err := parser.Parse(tokens, f.parserOptions()...)
	if err != nil {
		f.logger.Debug("parse failed", "tokens", len(tokens), "kind", parser.KindOf(err), "error", err)
		return nil, err
	}
	s := p.Stats()
	f.logger.Debug("parsed program",
		"tokens", len(tokens), "instructions", s.Instructions, "loops", s.Loops, "depth", s.MaxDepth)
	return p, nil
}

// ParseFile parses the file at path.
func (f *Frontend) ParseFile(path string) (Program, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	p, err := f.ParseReader(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// FileResult is the outcome of parsing one file in a batch.
type FileResult struct {
	Path    string
	Program Program
	Err     error
}

// ParseFiles parses paths concurrently. Per-file failures are reported in
// the results; the returned error is non-nil only if ctx ends first.
func (f *Frontend) ParseFiles(ctx context.Context, paths ...string) ([]FileResult, error) {
	results := make([]FileResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := f.ParseFile(path)
			results[i] = FileResult{Path: path, Program: p, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Save parses src and stores it under name.
func (f *Frontend) Save(name, src string) (Program, error) {
	if f.store == nil {
		return nil, ErrNoStore
	}
	p, err := f.Parse(src)
	if err != nil {
		return nil, err
	}
	if err := f.store.Put(name, p); err != nil {
		return nil, fmt.Errorf("save %s: %w", name, err)
	}
	f.logger.Info("saved program", "name", name, "instructions", p.Stats().Instructions)
	return p, nil
}

// Load retrieves the latest stored program named name.
func (f *Frontend) Load(name string) (Program, error) {
	if f.store == nil {
		return nil, ErrNoStore
	}
	p, err := f.store.Get(name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	if p == nil {
		return nil, fmt.Errorf("load %s: %w", name, ErrNotFound)
	}
	return p, nil
}

// Delete removes every stored version of name.
func (f *Frontend) Delete(name string) error {
	if f.store == nil {
		return ErrNoStore
	}
	if err := f.store.Delete(name); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	f.logger.Info("deleted program", "name", name)
	return nil
}

// List returns the names of stored programs.
func (f *Frontend) List() ([]string, error) {
	if f.store == nil {
		return nil, ErrNoStore
	}
	return f.store.List()
}

// History returns stored versions of name, newest first.
func (f *Frontend) History(name string, limit int) ([]VersionEntry, error) {
	if f.store == nil {
		return nil, ErrNoStore
	}
	hs, ok := f.store.(store.HistoryStore)
	if !ok {
		return nil, fmt.Errorf("history %s: store does not keep versions", name)
	}
	return hs.GetHistory(name, limit)
}

// Close releases resources.
func (f *Frontend) Close() error {
	if f.store != nil {
		return f.store.Close()
	}
	return nil
}
