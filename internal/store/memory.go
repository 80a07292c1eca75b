package store

import (
	"context"
	"crypto/sha1"
	"fmt"
	"sort"
	"sync"
)

// Memory is an in-process Store used by tests and offline runs. Its
// version tags follow git's blob-sha convention so conflict behavior
// matches the real store.
type Memory struct {
	mu      sync.Mutex
	files   map[string]*File
	commits int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{files: make(map[string]*File)}
}

// Seed inserts or replaces a file without a precondition check.
func (m *Memory) Seed(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = &File{Path: path, Content: content, SHA: blobSHA(content)}
}

// Get fetches a file.
func (m *Memory) Get(ctx context.Context, path string) (*File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", path, ErrNotFound)
	}
	cp := *f
	return &cp, nil
}

// Put writes a file, enforcing the sha precondition.
func (m *Memory) Put(ctx context.Context, path, content, sha string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.files[path]
	if sha == "" && exists {
		return "", fmt.Errorf("put %s: %w", path, ErrVersionConflict)
	}
	if sha != "" {
		if !exists || existing.SHA != sha {
			return "", fmt.Errorf("put %s: %w", path, ErrVersionConflict)
		}
	}

	m.files[path] = &File{Path: path, Content: content, SHA: blobSHA(content)}
	return m.nextCommit(), nil
}

// Delete removes a file, enforcing the sha precondition.
func (m *Memory) Delete(ctx context.Context, path, sha string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.files[path]
	if !exists {
		return "", fmt.Errorf("delete %s: %w", path, ErrNotFound)
	}
	if existing.SHA != sha {
		return "", fmt.Errorf("delete %s: %w", path, ErrVersionConflict)
	}

	delete(m.files, path)
	return m.nextCommit(), nil
}

// List returns all paths sorted.
func (m *Memory) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

// Content returns a file's current content for assertions; the bool
// reports existence.
func (m *Memory) Content(path string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[path]
	if !ok {
		return "", false
	}
	return f.Content, true
}

func (m *Memory) nextCommit() string {
	m.commits++
	return fmt.Sprintf("commit-%04d", m.commits)
}

func blobSHA(content string) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00%s", len(content), content)
	return fmt.Sprintf("%x", h.Sum(nil))
}
