// Package http is the session host's HTTP surface: sign-in, the guarded
// application pages and the authenticated /api/ pass-through.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/aussiebroadwan/tabsession/pkg/authsdk"
	"github.com/aussiebroadwan/tabsession/pkg/guard"
	"github.com/aussiebroadwan/tabsession/pkg/httpx"
	"github.com/aussiebroadwan/tabsession/pkg/jwtx"
	"github.com/aussiebroadwan/tabsession/pkg/pipeline"
	"github.com/aussiebroadwan/tabsession/pkg/renewal"
	"github.com/aussiebroadwan/tabsession/pkg/slogx"
	"github.com/aussiebroadwan/tabsession/pkg/tokenstore"

	_ "github.com/aussiebroadwan/tabsession/api/session" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        *tokenstore.Store

	Issuer      *authsdk.SDKClient
	Codec       *jwtx.Codec
	Guard       *guard.Guard
	Coordinator *renewal.Coordinator
	Transport   *pipeline.Transport
	APIBaseURL  *url.URL
	RedirectURI string
	Scopes      []string

	// OnCleared runs after the host itself clears the session (logout).
	OnCleared func(ctx context.Context, reason string)
}

func NewRouter(st *tokenstore.Store, buildVersion string, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSignIn()
	r.registerApp()
	r.registerAPI()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			TabSession Host API
//	@version		0.1.0
//	@description	Browser-facing session host. Signs users in against the BarTab issuer with
//	@description	PKCE, keeps the credential pair server-side and forwards /api/ calls with a
//	@description	bearer token, renewing it once when the upstream answers 401.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/tabsession
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8081
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) clearSession(ctx context.Context, reason string) {
	if err := r.store.Clear(); err != nil {
		slogx.FromContext(ctx).Warn("credential clear not persisted", "err", err)
	}
	if r.OnCleared != nil {
		r.OnCleared(ctx, reason)
	}
}

func (r *Router) signInPath() string {
	if r.Guard != nil {
		return r.Guard.SignInPath()
	}
	return guard.DefaultSignInPath
}

func (r *Router) registerSignIn() {
	h := &SignInHandler{
		Issuer:      r.Issuer,
		Store:       r.store,
		RedirectURI: r.RedirectURI,
		Scopes:      r.Scopes,
		SignInPath:  r.signInPath(),
		ClearFunc:   r.clearSession,
	}

	// Each sign-in step costs a round trip to the issuer.
	r.Mux.Handle("GET "+r.signInPath(),
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.SignInLimit),
		),
	)
	r.Mux.Handle("GET /callback",
		httpx.Chain(http.HandlerFunc(h.HandleCallback),
			httpx.RateLimitByIP(httpx.SignInLimit),
		),
	)
	r.Mux.Handle("POST /logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.SignInLimit),
		),
	)
}

func (r *Router) registerApp() {
	h := &SessionHandler{
		Store:       r.store,
		Codec:       r.Codec,
		Coordinator: r.Coordinator,
	}

	r.Mux.Handle("GET /app/", r.Guard.Middleware(h))
	r.Mux.Handle("GET /{$}", http.RedirectHandler("/app/", http.StatusSeeOther))
}

func (r *Router) registerAPI() {
	r.Mux.Handle("/api/",
		httpx.Chain(NewAPIProxy(r.APIBaseURL, r.Transport),
			httpx.RateLimitByIP(httpx.ProxyLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
