package tokenstore

import (
	"context"
	"sync"
)

// MemoryBackend is a map-backed Backend. Credentials are lost when the
// process exits.
type MemoryBackend struct {
	mu   sync.Mutex
	data map[string]string
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]string)}
}

func (m *MemoryBackend) Load(_ context.Context) (Pair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Pair{Access: m.data[KeyAccessToken], Refresh: m.data[KeyRefreshToken]}, nil
}

func (m *MemoryBackend) Save(_ context.Context, p Pair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[KeyAccessToken] = p.Access
	m.data[KeyRefreshToken] = p.Refresh
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, KeyAccessToken)
	delete(m.data, KeyRefreshToken)
	return nil
}
