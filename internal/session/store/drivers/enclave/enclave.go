// Package enclave keeps credentials sealed in memguard enclaves. Nothing is
// written to disk and plaintext exists only while a value is being read.
// The backend is ReadThrough, so a tokenstore.Store over it holds no copy
// of its own. Credentials do not survive a restart.
package enclave

import (
	"context"
	"sync"

	"github.com/aussiebroadwan/tabsession/pkg/tokenstore"
	"github.com/awnumar/memguard"
)

type Store struct {
	mu      sync.Mutex
	access  *memguard.Enclave
	refresh *memguard.Enclave
}

var _ tokenstore.ReadThrough = (*Store)(nil)

func NewStore() *Store {
	return &Store{}
}

// ReadThrough makes the enclaves the only holder of the pair.
func (s *Store) ReadThrough() bool { return true }

func (s *Store) Load(_ context.Context) (tokenstore.Pair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	access, err := open(s.access)
	if err != nil {
		return tokenstore.Pair{}, err
	}
	refresh, err := open(s.refresh)
	if err != nil {
		return tokenstore.Pair{}, err
	}
	return tokenstore.Pair{Access: access, Refresh: refresh}, nil
}

func (s *Store) Save(_ context.Context, p tokenstore.Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.access = seal(p.Access)
	s.refresh = seal(p.Refresh)
	return nil
}

func (s *Store) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.access = nil
	s.refresh = nil
	return nil
}

// Close wipes all memguard-managed memory. Call it once at process exit.
func (s *Store) Close() error {
	_ = s.Delete(context.Background())
	memguard.Purge()
	return nil
}

func seal(v string) *memguard.Enclave {
	if v == "" {
		return nil
	}
	return memguard.NewEnclave([]byte(v))
}

func open(e *memguard.Enclave) (string, error) {
	if e == nil {
		return "", nil
	}
	buf, err := e.Open()
	if err != nil {
		return "", err
	}
	defer buf.Destroy()
	return string(buf.Bytes()), nil
}
