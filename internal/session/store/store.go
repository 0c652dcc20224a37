// Package store selects and opens the credential backend configured for the
// host process.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	boltstore "github.com/aussiebroadwan/tabsession/internal/session/store/drivers/bbolt"
	"github.com/aussiebroadwan/tabsession/internal/session/store/drivers/enclave"
	redisstore "github.com/aussiebroadwan/tabsession/internal/session/store/drivers/redis"
	"github.com/aussiebroadwan/tabsession/internal/session/store/drivers/sqlite"
	"github.com/aussiebroadwan/tabsession/pkg/tokenstore"
	"github.com/redis/go-redis/v9"
	"go.etcd.io/bbolt"
)

// Backend names accepted by Open.
const (
	BackendMemory  = "memory"
	BackendEnclave = "enclave"
	BackendBolt    = "bbolt"
	BackendSQLite  = "sqlite"
	BackendRedis   = "redis"
)

var ErrUnknownBackend = errors.New("store: unknown backend")

type Options struct {
	Backend     string
	BoltPath    string
	SQLiteFile  string
	RedisAddr   string
	RedisPrefix string
	RedisTTL    time.Duration
}

// Open constructs the configured backend and checks it is reachable.
func Open(ctx context.Context, opts Options) (tokenstore.Backend, error) {
	switch opts.Backend {
	case "", BackendMemory:
		return tokenstore.NewMemoryBackend(), nil

	case BackendEnclave:
		return enclave.NewStore(), nil

	case BackendBolt:
		s, err := boltstore.NewStoreFromFile(opts.BoltPath, &bbolt.Options{Timeout: time.Second})
		if err != nil {
			return nil, err
		}
		return s, nil

	case BackendSQLite:
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", opts.SQLiteFile)
		s, err := sqlite.NewStore(dsn)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		if err := s.ApplyMigrations(); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("applying migrations: %w", err)
		}
		return s, nil

	case BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		ropts := []redisstore.Option{redisstore.WithTTL(opts.RedisTTL)}
		if opts.RedisPrefix != "" {
			ropts = append(ropts, redisstore.WithPrefix(opts.RedisPrefix))
		}
		return redisstore.NewStore(client, ropts...), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
