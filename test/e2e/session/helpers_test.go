package session_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/tabsession/internal/session/app"
	"github.com/aussiebroadwan/tabsession/pkg/authsdk"
	"github.com/aussiebroadwan/tabsession/pkg/jwtx"
	"github.com/aussiebroadwan/tabsession/pkg/jwtx/jwtxtest"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Helpers for session end-to-end tests: a real Redis credential backend in
 * a container, plus in-process fake issuer and protected API.
 */

const redisImage = "redis:7-alpine"

// setupRedisContainer starts Redis and returns its address.
func setupRedisContainer(t *testing.T) (testcontainers.Container, string) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        redisImage,
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	return container, fmt.Sprintf("%s:%s", host, mappedPort.Port())
}

// issuer is a token endpoint that counts refresh grants.
type issuer struct {
	refreshes atomic.Int32
	reject    atomic.Bool
	delay     time.Duration
	t         *testing.T
}

func (i *issuer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != authsdk.DefaultTokenPath {
		_, _ = w.Write([]byte("{}"))
		return
	}

	i.refreshes.Add(1)
	time.Sleep(i.delay)
	if i.reject.Load() {
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidGrant, "refresh token revoked").WriteError(w)
		return
	}
	_ = json.NewEncoder(w).Encode(authsdk.TokenResponse{
		AccessToken:  jwtxtest.Fresh(i.t),
		RefreshToken: fmt.Sprintf("refresh-%d", i.refreshes.Load()),
		TokenType:    "Bearer",
	})
}

// protectedAPI answers 200 to a valid bearer and 401 otherwise.
func protectedAPI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || !jwtx.IsValid(token) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"path": r.URL.Path})
	})
}

type env struct {
	cfg    app.Config
	issuer *issuer
}

// setupEnv wires a config for the Redis at addr and fresh fake servers.
func setupEnv(t *testing.T, addr string) *env {
	t.Helper()

	iss := &issuer{t: t, delay: 50 * time.Millisecond}
	issuerSrv := httptest.NewServer(iss)
	t.Cleanup(issuerSrv.Close)

	apiSrv := httptest.NewServer(protectedAPI())
	t.Cleanup(apiSrv.Close)

	cfg := app.Config{
		AuthBaseURL:         issuerSrv.URL,
		AuthClientID:        "tabsession-e2e",
		AuthRedirectURI:     "http://localhost/callback",
		AuthRefreshEncoding: string(authsdk.RefreshEncodingForm),
		APIBaseURL:          apiSrv.URL,
		SessionBackend:      "redis",
		SessionRedisAddr:    addr,
		SessionRedisPrefix:  fmt.Sprintf("e2e:%s:", t.Name()),
		RenewalTimeout:      5 * time.Second,
		SignInPath:          "/login",
		ShutdownGracePeriod: time.Second,
	}
	require.NoError(t, cfg.Validate())

	return &env{cfg: cfg, issuer: iss}
}

func (e *env) openSession(t *testing.T) *app.Session {
	t.Helper()
	s, err := app.NewSession(context.Background(), e.cfg, nil, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return s
}
