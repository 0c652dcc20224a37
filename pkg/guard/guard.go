// Package guard decides whether a protected page may render. It never
// renews: an expired session ends here and the user signs in again.
package guard

import (
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/tabsession/pkg/jwtx"
	"github.com/aussiebroadwan/tabsession/pkg/slogx"
	"github.com/aussiebroadwan/tabsession/pkg/tokenstore"
)

// DefaultSignInPath is where Middleware sends unauthenticated visitors.
const DefaultSignInPath = "/login"

type Guard struct {
	store      *tokenstore.Store
	codec      *jwtx.Codec
	logger     *slog.Logger
	signInPath string
	onDenied   func(*http.Request)
}

type Option func(*Guard)

func WithCodec(c *jwtx.Codec) Option {
	return func(g *Guard) { g.codec = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) { g.logger = l }
}

// WithSignInPath overrides the redirect target.
func WithSignInPath(path string) Option {
	return func(g *Guard) {
		if path != "" {
			g.signInPath = path
		}
	}
}

// WithOnDenied runs fn after a denied request has cleared the store.
func WithOnDenied(fn func(*http.Request)) Option {
	return func(g *Guard) { g.onDenied = fn }
}

func New(store *tokenstore.Store, opts ...Option) *Guard {
	g := &Guard{
		store:      store,
		logger:     slog.Default(),
		signInPath: DefaultSignInPath,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.codec == nil {
		g.codec = jwtx.NewCodec(jwtx.WithLogger(g.logger))
	}
	return g
}

// SignInPath returns the redirect target.
func (g *Guard) SignInPath() string { return g.signInPath }

// Allow reports whether the stored access token is present and valid. When
// it is not, both tokens are cleared before returning false. A valid token
// leaves the store untouched.
func (g *Guard) Allow() bool {
	token, ok := g.store.Get(tokenstore.Access)
	if ok && g.codec.IsValid(token) {
		return true
	}

	if err := g.store.Clear(); err != nil {
		g.logger.Warn("credential clear not persisted", "err", err)
	}
	return false
}

// Middleware redirects to the sign-in path unless Allow passes. Nothing is
// written by next for a denied request.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.Allow() {
			next.ServeHTTP(w, r)
			return
		}

		slogx.FromContext(r.Context()).Info("session required, redirecting to sign-in",
			"path", r.URL.Path,
			"to", g.signInPath,
		)
		if g.onDenied != nil {
			g.onDenied(r)
		}
		http.Redirect(w, r, g.signInPath, http.StatusSeeOther)
	})
}
