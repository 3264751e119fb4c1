// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package store provides persistence for named decaxis programs.
//
// Programs are stored in their canonical source form and re-parsed on read,
// so a stored program always satisfies the parser's invariants.
package store

import (
	"fmt"

	"nickandperla.net/decaxis/internal/ast"
	"nickandperla.net/decaxis/internal/parser"
)

// Store is the interface for program persistence.
type Store interface {
	// Get retrieves the latest version of a program by name. Returns nil if not found.
	Get(name string) (ast.Program, error)
	// Put stores a program by name as a new version. Storing the same source
	// as the latest version is a no-op.
	Put(name string, p ast.Program) error
	// Delete removes every version of a program.
	Delete(name string) error
	// List returns stored program names in ascending order.
	List() ([]string, error)
	// Close releases resources.
	Close() error
}

// VersionEntry represents a single version of a persisted program.
type VersionEntry struct {
	Version int
	ID      string
	Source  string
	Ts      string
}

// HistoryStore extends Store with version history queries.
type HistoryStore interface {
	// GetHistory returns versions newest-first. limit <= 0 returns all.
	GetHistory(name string, limit int) ([]VersionEntry, error)
}

// MetadataStore is implemented by stores that keep key/value metadata.
type MetadataStore interface {
	GetMetadata(key string) (string, error)
	SetMetadata(key, value string) error
}

// schemaKey is the metadata key holding the schema version.
const schemaKey = "schema_version"

// EnsureSchema records SchemaVersion in a fresh store and rejects stores
// written by an incompatible schema.
func EnsureSchema(m MetadataStore) error {
	version, err := m.GetMetadata(schemaKey)
	if err != nil {
		return err
	}
	if version == "" {
		return m.SetMetadata(schemaKey, SchemaVersion)
	}
	return checkSchema(version)
}

// decode re-parses stored source.
func decode(name, source string) (ast.Program, error) {
	p, err := parser.ParseString(source)
	if err != nil {
		return nil, fmt.Errorf("stored program %s: %w", name, err)
	}
	return p, nil
}
