// Package jwtxtest mints signed bearer tokens for tests. The signing key is
// a fixed HMAC secret; nothing in this module verifies it.
package jwtxtest

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/tabsession/pkg/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

var signingKey = []byte("jwtxtest-not-a-secret")

// Sign signs arbitrary claims with HS256.
func Sign(tb testing.TB, claims jwt.MapClaims) string {
	tb.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		tb.Fatalf("jwtxtest: sign token: %v", err)
	}
	return token
}

// Token returns a token for subject "user-1" expiring at exp. Every call
// carries a fresh jti so two tokens minted in the same second differ.
func Token(tb testing.TB, exp time.Time) string {
	tb.Helper()

	jti, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		tb.Fatalf("jwtxtest: jti: %v", err)
	}

	return Sign(tb, jwt.MapClaims{
		"sub":      "user-1",
		"username": "alice",
		"scopes":   []string{"chat:read", "chat:write"},
		"exp":      exp.Unix(),
		"iat":      time.Now().Unix(),
		"jti":      jti,
	})
}

// Fresh returns a token valid for the next hour.
func Fresh(tb testing.TB) string {
	tb.Helper()
	return Token(tb, time.Now().Add(time.Hour))
}

// Expired returns a token that expired a minute ago.
func Expired(tb testing.TB) string {
	tb.Helper()
	return Token(tb, time.Now().Add(-time.Minute))
}
