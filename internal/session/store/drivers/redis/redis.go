// Package redis provides a Redis-backed credential backend.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tabsession/pkg/tokenstore"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces credential keys.
const DefaultPrefix = "tabsession:"

// Store implements tokenstore.Backend on a Redis client.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ tokenstore.Backend = (*Store)(nil)

type Option func(*Store)

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithTTL expires stored credentials after d. Zero keeps them forever.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// NewStore creates a Redis store.
func NewStore(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(name string) string { return s.prefix + name }

func (s *Store) Load(ctx context.Context) (tokenstore.Pair, error) {
	vals, err := s.client.MGet(ctx,
		s.key(tokenstore.KeyAccessToken),
		s.key(tokenstore.KeyRefreshToken),
	).Result()
	if err != nil {
		return tokenstore.Pair{}, fmt.Errorf("failed to load credentials: %w", err)
	}

	var p tokenstore.Pair
	if v, ok := vals[0].(string); ok {
		p.Access = v
	}
	if v, ok := vals[1].(string); ok {
		p.Refresh = v
	}
	return p, nil
}

// Save writes both keys in a MULTI/EXEC block.
func (s *Store) Save(ctx context.Context, p tokenstore.Pair) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		s.setOrDel(ctx, pipe, tokenstore.KeyAccessToken, p.Access)
		s.setOrDel(ctx, pipe, tokenstore.KeyRefreshToken, p.Refresh)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context) error {
	err := s.client.Del(ctx,
		s.key(tokenstore.KeyAccessToken),
		s.key(tokenstore.KeyRefreshToken),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) setOrDel(ctx context.Context, pipe redis.Pipeliner, name, value string) {
	if value == "" {
		pipe.Del(ctx, s.key(name))
		return
	}
	pipe.Set(ctx, s.key(name), value, s.ttl)
}
