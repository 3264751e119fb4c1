// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package decaxis

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"nickandperla.net/decaxis/internal/parser"
)

// FileExt is the conventional extension of decaxis source files.
const FileExt = ".dx"

const directivePrefix = "# EXPECTED:"

// CheckResult holds the outcome of checking a single file.
type CheckResult struct {
	Path string
	// Expect is "" when the file must parse, otherwise the expected error
	// kind name (e.g. "UnmatchedClose").
	Expect string
	Err    error
}

// OK reports whether the parse outcome matched the expectation.
func (r CheckResult) OK() bool {
	if r.Expect == "" {
		return r.Err == nil
	}
	return r.Err != nil && parser.KindOf(r.Err).String() == r.Expect
}

// SplitDirectives strips leading "# EXPECTED:" lines from content and
// returns the expectation and the remaining source. Like ParseFile, only one
// trailing line ending is dropped from the source.
func SplitDirectives(content string) (expect, code string) {
	lines := strings.Split(content, "\n")
	i := 0
	for ; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r")
		if !strings.HasPrefix(line, directivePrefix) {
			break
		}
		rest := strings.TrimSpace(strings.TrimPrefix(line, directivePrefix))
		if kind, ok := strings.CutPrefix(rest, "Error:"); ok {
			expect = strings.TrimSpace(kind)
		}
	}
	return expect, TrimLineEnding(strings.Join(lines[i:], "\n"))
}

// CheckFile parses a file honoring its directives.
func (f *Frontend) CheckFile(path string) CheckResult {
	content, err := os.ReadFile(path)
	if err != nil {
		return CheckResult{Path: path, Err: fmt.Errorf("read error: %w", err)}
	}
	expect, code := SplitDirectives(string(content))
	_, err = f.Parse(code)
	return CheckResult{Path: path, Expect: expect, Err: err}
}

// CheckDir checks every source file under dir concurrently, in path order.
func (f *Frontend) CheckDir(ctx context.Context, dir string) ([]CheckResult, error) {
	files, err := FindSourceFiles(dir)
	if err != nil {
		return nil, err
	}
	results := make([]CheckResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = f.CheckFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// FindSourceFiles recursively finds all source files under dir.
func FindSourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), FileExt) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}
