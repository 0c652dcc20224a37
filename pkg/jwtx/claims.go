package jwtx

import (
	"math"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded payload of a bearer token. Registered claims are
// typed; everything else the issuer put in the payload lives in Raw so
// callers can read service-specific fields without this package knowing them.
type Claims struct {
	jwt.RegisteredClaims

	// Raw is the full payload as decoded JSON, registered claims included.
	Raw map[string]any `json:"-"`
}

// String returns a string claim, or "" when absent or not a string.
func (c *Claims) String(key string) string {
	if v, ok := c.Raw[key].(string); ok {
		return v
	}
	return ""
}

// Strings returns a string-list claim. A single space-delimited string is
// split, matching how OAuth2 servers disagree on the "scope" shape.
func (c *Claims) Strings(key string) []string {
	switch v := c.Raw[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return strings.Fields(v)
	default:
		return nil
	}
}

// Username returns the "username" claim the BarTab issuer sets, falling
// back to the subject.
func (c *Claims) Username() string {
	if u := c.String("username"); u != "" {
		return u
	}
	return c.Subject
}

// Scopes returns the granted scopes from "scopes" or "scope".
func (c *Claims) Scopes() []string {
	if s := c.Strings("scopes"); len(s) > 0 {
		return s
	}
	return c.Strings("scope")
}

// Expiry returns exp including any fractional seconds, which the typed
// ExpiresAt drops.
func (c *Claims) Expiry() (time.Time, bool) {
	if v, ok := c.Raw["exp"].(float64); ok {
		sec, frac := math.Modf(v)
		return time.Unix(int64(sec), int64(frac*1e9)), true
	}
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time, true
	}
	return time.Time{}, false
}
