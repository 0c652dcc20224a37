// Package sqlite provides a SQLite-backed credential backend.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/tabsession/pkg/tokenstore"
	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	dsn string
}

var _ tokenstore.Backend = (*Store)(nil)

// NewStore opens the database at dsn. Call ApplyMigrations before use.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	return &Store{db: db, dsn: dsn}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

const (
	queryLoad = `SELECT key, value FROM credentials WHERE key IN (?, ?)`

	queryUpsert = `INSERT INTO credentials (key, value, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	queryDelete = `DELETE FROM credentials WHERE key IN (?, ?)`

	queryDeleteOne = `DELETE FROM credentials WHERE key = ?`
)

func (s *Store) Load(ctx context.Context) (tokenstore.Pair, error) {
	rows, err := s.db.QueryContext(ctx, queryLoad, tokenstore.KeyAccessToken, tokenstore.KeyRefreshToken)
	if err != nil {
		return tokenstore.Pair{}, err
	}
	defer rows.Close()

	var p tokenstore.Pair
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return tokenstore.Pair{}, err
		}
		switch key {
		case tokenstore.KeyAccessToken:
			p.Access = value
		case tokenstore.KeyRefreshToken:
			p.Refresh = value
		}
	}
	return p, rows.Err()
}

// Save writes both entries in one transaction. Empty values delete the row.
func (s *Store) Save(ctx context.Context, p tokenstore.Pair) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if err := upsertOrDelete(ctx, tx, tokenstore.KeyAccessToken, p.Access); err != nil {
			return err
		}
		return upsertOrDelete(ctx, tx, tokenstore.KeyRefreshToken, p.Refresh)
	})
}

func (s *Store) Delete(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, queryDelete, tokenstore.KeyAccessToken, tokenstore.KeyRefreshToken)
	return err
}

func upsertOrDelete(ctx context.Context, tx *sql.Tx, key, value string) error {
	if value == "" {
		_, err := tx.ExecContext(ctx, queryDeleteOne, key)
		return err
	}
	_, err := tx.ExecContext(ctx, queryUpsert, key, value)
	return err
}
