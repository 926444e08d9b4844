package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Mock is an in-memory Store for tests, with optional failure injection.
type Mock struct {
	mu      sync.Mutex
	objects map[string][]byte

	// FailPaths causes Put to fail for paths containing any of these
	// substrings.
	FailPaths []string
	// FailAll causes every Put to fail.
	FailAll bool
}

// NewMock creates an empty in-memory store.
func NewMock() *Mock {
	return &Mock{objects: make(map[string][]byte)}
}

// Put stores the bytes in memory and returns a mock URL.
func (m *Mock) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailAll {
		return "", fmt.Errorf("mock storage configured to fail")
	}
	for _, p := range m.FailPaths {
		if p != "" && strings.Contains(path, p) {
			return "", fmt.Errorf("mock storage configured to fail for %s", path)
		}
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[path] = cp
	return "mock://" + path, nil
}

// Get returns stored bytes by path.
func (m *Mock) Get(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[path]
	return b, ok
}

// Len returns the number of stored objects.
func (m *Mock) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// Paths returns all stored object paths.
func (m *Mock) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for p := range m.objects {
		out = append(out, p)
	}
	return out
}

// Verify interface
var _ Store = (*Mock)(nil)
