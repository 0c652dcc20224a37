// Package bbolt provides a BBolt-backed credential backend.
package bbolt

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/tabsession/pkg/tokenstore"
	"go.etcd.io/bbolt"
)

var bucketCredentials = []byte("credentials")

// Store implements tokenstore.Backend backed by a BBolt database.
type Store struct {
	db *bbolt.DB
}

var _ tokenstore.Backend = (*Store)(nil)

// NewStore returns a Backend backed by the given BBolt database.
func NewStore(db *bbolt.DB) (*Store, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCredentials)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating credentials bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStoreFromFile opens a BBolt database at the given path.
func NewStoreFromFile(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}

	s, err := NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Load(_ context.Context) (tokenstore.Pair, error) {
	var p tokenstore.Pair
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCredentials)
		if b == nil {
			return nil
		}
		p.Access = string(b.Get([]byte(tokenstore.KeyAccessToken)))
		p.Refresh = string(b.Get([]byte(tokenstore.KeyRefreshToken)))
		return nil
	})
	return p, err
}

// Save writes both entries in one transaction. Empty values delete the key.
func (s *Store) Save(_ context.Context, p tokenstore.Pair) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketCredentials)
		if err != nil {
			return err
		}
		if err := putOrDelete(b, tokenstore.KeyAccessToken, p.Access); err != nil {
			return err
		}
		return putOrDelete(b, tokenstore.KeyRefreshToken, p.Refresh)
	})
}

func (s *Store) Delete(_ context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCredentials)
		if b == nil {
			return nil
		}
		if err := b.Delete([]byte(tokenstore.KeyAccessToken)); err != nil {
			return err
		}
		return b.Delete([]byte(tokenstore.KeyRefreshToken))
	})
}

// Ping checks the database is still open.
func (s *Store) Ping(_ context.Context) error {
	return s.db.View(func(*bbolt.Tx) error { return nil })
}

func putOrDelete(b *bbolt.Bucket, key, value string) error {
	if value == "" {
		return b.Delete([]byte(key))
	}
	return b.Put([]byte(key), []byte(value))
}
