package jwtx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/tabsession/pkg/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

// Codec decodes bearer tokens and decides whether they are still usable.
//
// Signatures are NOT verified. The client has no key material and the
// server remains the only party that decides whether a signature is
// genuine; a token with a tampered signature segment decodes and validates
// here exactly like the original. Treat the result as "worth sending", not
// as "trusted".
type Codec struct {
	parser *jwt.Parser
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// WithLogger sets the logger used for expired/malformed token reports.
func WithLogger(l *slog.Logger) Option {
	return func(c *Codec) { c.logger = l }
}

// NewCodec returns a Codec using the wall clock and slog.Default().
func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		parser: jwt.NewParser(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Codec) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// Decode parses the token payload without verifying its signature.
// Any structural problem is reported as ErrMalformed.
func (c *Codec) Decode(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformed)
	}

	claims := &Claims{}
	_, parts, err := c.parser.ParseUnverified(token, claims)
	// An unknown or missing "alg" only matters to a verifier; the payload
	// was still decoded.
	if err != nil && !errors.Is(err, jwt.ErrTokenUnverifiable) {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	payload, err := c.parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if err := json.Unmarshal(payload, &claims.Raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return claims, nil
}

// Validate returns nil when the token decodes and its exp is strictly
// after the current second. A token without exp fails closed.
func (c *Codec) Validate(token string) error {
	claims, err := c.Decode(token)
	if err != nil {
		c.log().Error("invalid token", "token_fp", cryptox.FingerprintToken(token), "err", err)
		return err
	}

	exp, ok := claims.Expiry()
	if !ok {
		c.log().Warn("token has no expiry", "token_fp", cryptox.FingerprintToken(token))
		return ErrNoExpiry
	}

	if !exp.After(c.now().Truncate(time.Second)) {
		c.log().Warn("token expired",
			"token_fp", cryptox.FingerprintToken(token),
			"exp", exp.Unix(),
		)
		return ErrExpired
	}

	return nil
}

// IsValid reports whether Validate succeeds.
func (c *Codec) IsValid(token string) bool {
	return c.Validate(token) == nil
}

// ExpiresIn returns the remaining lifetime of a valid token.
func (c *Codec) ExpiresIn(token string) (time.Duration, error) {
	if err := c.Validate(token); err != nil {
		return 0, err
	}
	claims, _ := c.Decode(token)
	exp, _ := claims.Expiry()
	return max(exp.Sub(c.now()), 0), nil
}

var defaultCodec = NewCodec()

// Decode parses a token with the default Codec.
func Decode(token string) (*Claims, error) { return defaultCodec.Decode(token) }

// IsValid checks a token with the default Codec.
func IsValid(token string) bool { return defaultCodec.IsValid(token) }
