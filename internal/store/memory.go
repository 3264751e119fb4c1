package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"nickandperla.net/decaxis/internal/ast"
)

// Memory is an in-memory store for testing.
type Memory struct {
	mu       sync.RWMutex
	versions map[string][]VersionEntry // oldest first
	metadata map[string]string
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{
		versions: make(map[string][]VersionEntry),
		metadata: make(map[string]string),
	}
}

// Get retrieves the latest version of a program by name.
func (m *Memory) Get(name string) (ast.Program, error) {
	m.mu.RLock()
	vs := m.versions[name]
	m.mu.RUnlock()
	if len(vs) == 0 {
		return nil, nil
	}
	return decode(name, vs[len(vs)-1].Source)
}

// Put stores a program as a new version.
func (m *Memory) Put(name string, p ast.Program) error {
	source := p.String()

	m.mu.Lock()
	defer m.mu.Unlock()
	vs := m.versions[name]
	if n := len(vs); n > 0 && vs[n-1].Source == source {
		return nil
	}
	m.versions[name] = append(vs, VersionEntry{
		Version: len(vs) + 1,
		ID:      uuid.NewString(),
		Source:  source,
		Ts:      time.Now().UTC().Format(time.RFC3339Nano),
	})
	return nil
}

// Delete removes every version of a program.
func (m *Memory) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.versions, name)
	return nil
}

// List returns stored program names.
func (m *Memory) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var names []string
	for name := range m.versions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// GetHistory returns versions of a program newest-first.
func (m *Memory) GetHistory(name string, limit int) ([]VersionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vs := m.versions[name]
	if len(vs) == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > len(vs) {
		limit = len(vs)
	}
	entries := make([]VersionEntry, 0, limit)
	for i := len(vs) - 1; i >= len(vs)-limit; i-- {
		entries = append(entries, vs[i])
	}
	return entries, nil
}

// Close is a no-op for memory store.
func (m *Memory) Close() error {
	return nil
}

// GetMetadata retrieves a metadata value by key.
func (m *Memory) GetMetadata(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metadata[key], nil
}

// SetMetadata stores a metadata value by key.
func (m *Memory) SetMetadata(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata[key] = value
	return nil
}
