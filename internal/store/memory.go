// internal/store/memory.go
//
// In-memory keyed blob storage: the server-side stand-in for browser local
// storage. Each browser client gets its own namespace.
//
// Characteristics:
//   - Values are opaque byte slices (JSON-encoded state blobs).
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sync"
)

// Blobs is a namespaced key-value store.
type Blobs interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Set(ctx context.Context, namespace, key string, value []byte) error
	Delete(ctx context.Context, namespace string) error
}

type memory struct {
	mu    sync.RWMutex                 // guards blobs
	blobs map[string]map[string][]byte // namespace -> key -> value
}

// NewMemoryBlobs constructs an empty in-memory Blobs.
func NewMemoryBlobs() Blobs {
	return &memory{blobs: make(map[string]map[string][]byte)}
}

// Set stores a copy of value.
func (m *memory) Set(_ context.Context, namespace, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.blobs[namespace]
	if !ok {
		ns = make(map[string][]byte)
		m.blobs[namespace] = ns
	}
	ns[key] = append([]byte(nil), value...)
	return nil
}

// Get returns a copy of the stored value or ErrNotFound.
func (m *memory) Get(_ context.Context, namespace, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.blobs[namespace][key]; ok {
		return append([]byte(nil), v...), nil
	}
	return nil, ErrNotFound
}

// Delete drops every key in namespace. Missing namespaces are not an error.
func (m *memory) Delete(_ context.Context, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, namespace)
	return nil
}
