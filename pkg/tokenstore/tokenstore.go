// Package tokenstore holds the current access/refresh token pair for one
// process. It has no validation logic of its own: the Codec decides what a
// token is worth, the Store only remembers it.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Kind selects one half of the credential pair.
type Kind int

const (
	Access Kind = iota
	Refresh
)

// Storage keys used by every persistent backend.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

func (k Kind) String() string {
	switch k {
	case Access:
		return KeyAccessToken
	case Refresh:
		return KeyRefreshToken
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ErrBackend wraps failures of the persistent backend.
var ErrBackend = errors.New("tokenstore: backend failure")

// Pair is the credential pair. An empty string means "absent".
type Pair struct {
	Access  string
	Refresh string
}

// Empty reports whether neither token is present.
func (p Pair) Empty() bool { return p.Access == "" && p.Refresh == "" }

// Backend is the host's persistent keyed storage. Save must write both
// entries atomically; Delete must be idempotent.
type Backend interface {
	Load(ctx context.Context) (Pair, error)
	Save(ctx context.Context, p Pair) error
	Delete(ctx context.Context) error
}

// ReadThrough is implemented by backends that hold the live pair
// themselves, such as sealed memory. A Store over one keeps no plaintext
// copy and loads from the backend on every read.
type ReadThrough interface {
	Backend
	ReadThrough() bool
}

// Store is the process-wide credential holder. Reads come from the
// in-process pair unless the backend is ReadThrough; writes update the pair
// under one lock and then write through.
type Store struct {
	mu          sync.RWMutex
	pair        Pair
	backend     Backend
	readThrough bool
	logger      *slog.Logger
}

// New creates a Store backed by b and rehydrates it from b. A nil backend
// keeps the pair in process memory only.
func New(ctx context.Context, b Backend, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{backend: b, logger: logger}
	if b == nil {
		return s, nil
	}
	if rt, ok := b.(ReadThrough); ok && rt.ReadThrough() {
		s.readThrough = true
		return s, nil
	}

	pair, err := b.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load: %w", ErrBackend, err)
	}
	s.pair = pair

	if !pair.Empty() {
		logger.Debug("credentials rehydrated",
			"has_access", pair.Access != "",
			"has_refresh", pair.Refresh != "",
		)
	}

	return s, nil
}

// Get returns the token of the given kind and whether it is present.
func (s *Store) Get(kind Kind) (string, bool) {
	p := s.Pair()

	var v string
	switch kind {
	case Access:
		v = p.Access
	case Refresh:
		v = p.Refresh
	}
	return v, v != ""
}

// Pair returns a copy of both tokens read under a single lock. A
// ReadThrough backend that fails to load reads as an empty pair.
func (s *Store) Pair() Pair {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.readThrough {
		return s.pair
	}
	p, err := s.backend.Load(context.Background())
	if err != nil {
		s.logger.Error("credentials unreadable", "err", err)
		return Pair{}
	}
	return p
}

// Set replaces both tokens. Concurrent readers observe either the old pair
// or the new one, never a mix. The in-process pair is updated even when the
// backend write fails; the backend error is returned for the caller to log.
// With a ReadThrough backend the backend's copy is the only one.
func (s *Store) Set(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := Pair{Access: access, Refresh: refresh}
	if !s.readThrough {
		s.pair = p
	}
	if s.backend == nil {
		return nil
	}

	if err := s.backend.Save(context.Background(), p); err != nil {
		return fmt.Errorf("%w: save: %w", ErrBackend, err)
	}
	return nil
}

// Clear removes both tokens. Calling it on an empty store is a no-op.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pair = Pair{}
	if s.backend == nil {
		return nil
	}

	if err := s.backend.Delete(context.Background()); err != nil {
		return fmt.Errorf("%w: delete: %w", ErrBackend, err)
	}
	return nil
}

// Ping checks the backend when it supports it.
func (s *Store) Ping(ctx context.Context) error {
	p, ok := s.backend.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	return p.Ping(ctx)
}

// Close releases the backend when it holds resources.
func (s *Store) Close() error {
	c, ok := s.backend.(interface{ Close() error })
	if !ok {
		return nil
	}
	return c.Close()
}
