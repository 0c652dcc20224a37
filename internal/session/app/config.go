package app

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/tabsession/internal/session/store"
	"github.com/aussiebroadwan/tabsession/pkg/authsdk"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all environment-based configuration for the session host.
type Config struct {
	// Issuer
	AuthBaseURL     string `env:"AUTH_BASE_URL" envDefault:"http://localhost:8080"`
	AuthClientID    string `env:"AUTH_CLIENT_ID" envDefault:"tabsession"`
	AuthRedirectURI string `env:"AUTH_REDIRECT_URI" envDefault:"http://localhost:8081/callback"`
	AuthScopes      string `env:"AUTH_SCOPES" envDefault:"openid profile"`
	// Empty means the issuer's standard token endpoint.
	AuthRefreshPath     string `env:"AUTH_REFRESH_PATH"`
	AuthRefreshEncoding string `env:"AUTH_REFRESH_ENCODING" envDefault:"form"` // form, json

	// Protected API the /api/ prefix forwards to.
	APIBaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:8082"`

	// Credential storage
	SessionBackend     string        `env:"SESSION_BACKEND" envDefault:"memory"` // memory, enclave, bbolt, sqlite, redis
	SessionBoltPath    string        `env:"SESSION_BBOLT_PATH" envDefault:"session.db"`
	SessionSQLiteFile  string        `env:"SESSION_SQLITE_FILE" envDefault:"session.sqlite"`
	SessionRedisAddr   string        `env:"SESSION_REDIS_ADDR" envDefault:"localhost:6379"`
	SessionRedisPrefix string        `env:"SESSION_REDIS_PREFIX" envDefault:"tabsession:"`
	SessionRedisTTL    time.Duration `env:"SESSION_REDIS_TTL" envDefault:"0s"`

	// Renewal and pipeline
	RenewalTimeout     time.Duration `env:"RENEWAL_TIMEOUT" envDefault:"10s"`
	RenewOnForbidden   bool          `env:"RENEW_ON_FORBIDDEN" envDefault:"false"`
	OutboundRatePerSec float64       `env:"OUTBOUND_RATE_PER_SEC" envDefault:"0"` // 0 disables pacing
	OutboundBurst      int           `env:"OUTBOUND_BURST" envDefault:"10"`

	SignInPath string `env:"SIGNIN_PATH" envDefault:"/login"`

	Env                 string        `env:"ENV" envDefault:"dev"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT" envDefault:"json"`
	Port                int           `env:"PORT" envDefault:"8081"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
}

// LoadConfig reads a .env file if present, then parses the environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// StoreOptions maps the SESSION_* settings onto store.Options.
func (c Config) StoreOptions() store.Options {
	return store.Options{
		Backend:     c.SessionBackend,
		BoltPath:    c.SessionBoltPath,
		SQLiteFile:  c.SessionSQLiteFile,
		RedisAddr:   c.SessionRedisAddr,
		RedisPrefix: c.SessionRedisPrefix,
		RedisTTL:    c.SessionRedisTTL,
	}
}

// Scopes splits AuthScopes on whitespace.
func (c Config) Scopes() []string {
	return strings.Fields(c.AuthScopes)
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	for name, raw := range map[string]string{
		"AUTH_BASE_URL":     c.AuthBaseURL,
		"AUTH_REDIRECT_URI": c.AuthRedirectURI,
		"API_BASE_URL":      c.APIBaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute URL, got %q", name, raw))
		}
	}

	if c.AuthClientID == "" {
		errs = append(errs, errors.New("AUTH_CLIENT_ID is required"))
	}

	switch authsdk.RefreshEncoding(c.AuthRefreshEncoding) {
	case authsdk.RefreshEncodingForm, authsdk.RefreshEncodingJSON:
	default:
		errs = append(errs, fmt.Errorf("AUTH_REFRESH_ENCODING must be form or json, got %q", c.AuthRefreshEncoding))
	}

	switch c.SessionBackend {
	case store.BackendMemory, store.BackendEnclave:
	case store.BackendBolt:
		if c.SessionBoltPath == "" {
			errs = append(errs, errors.New("SESSION_BBOLT_PATH is required for the bbolt backend"))
		}
	case store.BackendSQLite:
		if c.SessionSQLiteFile == "" {
			errs = append(errs, errors.New("SESSION_SQLITE_FILE is required for the sqlite backend"))
		}
	case store.BackendRedis:
		if c.SessionRedisAddr == "" {
			errs = append(errs, errors.New("SESSION_REDIS_ADDR is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("SESSION_BACKEND %q is not one of memory, enclave, bbolt, sqlite, redis", c.SessionBackend))
	}

	if c.RenewalTimeout <= 0 {
		errs = append(errs, errors.New("RENEWAL_TIMEOUT must be positive"))
	}
	if c.OutboundRatePerSec < 0 {
		errs = append(errs, errors.New("OUTBOUND_RATE_PER_SEC must not be negative"))
	}
	if c.OutboundRatePerSec > 0 && c.OutboundBurst < 1 {
		errs = append(errs, errors.New("OUTBOUND_BURST must be at least 1 when pacing is enabled"))
	}
	if !strings.HasPrefix(c.SignInPath, "/") {
		errs = append(errs, fmt.Errorf("SIGNIN_PATH must start with /, got %q", c.SignInPath))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}

	return errors.Join(errs...)
}
