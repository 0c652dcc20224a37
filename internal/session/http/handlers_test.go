package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/aussiebroadwan/tabsession/pkg/authsdk"
	"github.com/aussiebroadwan/tabsession/pkg/jwtx/jwtxtest"
	"github.com/aussiebroadwan/tabsession/pkg/pipeline"
	"github.com/aussiebroadwan/tabsession/pkg/renewal"
	"github.com/aussiebroadwan/tabsession/pkg/tokenstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReadyzHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		ping       error
		wantCode   int
		wantStatus string
	}{
		{"ok", nil, http.StatusOK, "ok"},
		{"backend down", errors.New("connection refused"), http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := ReadyzHandler(time.Now(), "v-test", pingerFunc(func(context.Context) error { return tt.ping }))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			require.Equal(t, tt.wantCode, rec.Code)

			var resp authsdk.HealthResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, "v-test", resp.Version)
			require.NotNil(t, resp.Checks)
			if tt.ping != nil {
				assert.Contains(t, resp.Checks.CredentialStore, "connection refused")
			}
		})
	}
}

func newStore(t *testing.T) *tokenstore.Store {
	t.Helper()
	st, err := tokenstore.New(context.Background(), nil, nil)
	require.NoError(t, err)
	return st
}

type renewerFunc func(ctx context.Context, stale string) (string, error)

func (f renewerFunc) Renew(ctx context.Context, stale string) (string, error) { return f(ctx, stale) }

func TestAPIProxy_StripsBrowserCredentials(t *testing.T) {
	t.Parallel()

	var gotAuth, gotCookie, gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCookie = r.Header.Get("Cookie")
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer upstream.Close()

	st := newStore(t)
	access := jwtxtest.Fresh(t)
	require.NoError(t, st.Set(access, "r1"))

	target, err := url.Parse(upstream.URL)
	require.NoError(t, err)
	proxy := NewAPIProxy(target, pipeline.NewTransport(st, renewerFunc(func(context.Context, string) (string, error) {
		t.Fatal("unexpected renewal")
		return "", nil
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/things", nil)
	req.Header.Set("Authorization", "Bearer browser-supplied")
	req.Header.Set("Cookie", "tabsession_pkce=x")
	rec := httptest.NewRecorder()
	proxy.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "Bearer "+access, gotAuth)
	assert.Empty(t, gotCookie)
	assert.Equal(t, "/api/things", gotPath)
}

func TestAPIProxy_ErrorMapping(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer upstream.Close()
	target, err := url.Parse(upstream.URL)
	require.NoError(t, err)

	tests := []struct {
		name          string
		renewErr      error
		wantCode      int
		wantExpiredHd string
	}{
		{"renewal failed", renewal.ErrRenewalFailed, http.StatusUnauthorized, "1"},
		{"other failure", errors.New("dial tcp: refused"), http.StatusBadGateway, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proxy := NewAPIProxy(target, pipeline.NewTransport(newStore(t), renewerFunc(func(context.Context, string) (string, error) {
				return "", tt.renewErr
			})))

			rec := httptest.NewRecorder()
			proxy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/things", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantExpiredHd, rec.Header().Get(HeaderSessionExpired))
		})
	}
}

func TestSignInHandler_Callback(t *testing.T) {
	t.Parallel()

	h := &SignInHandler{
		Issuer:      authsdk.NewSDKClient("http://issuer.invalid", "tabsession"),
		Store:       newStore(t),
		RedirectURI: "http://host.test/callback",
		SignInPath:  "/login",
	}

	t.Run("user declined", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleCallback(rec, httptest.NewRequest(http.MethodGet, "/callback?error=access_denied&error_description=nope", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "access_denied")
	})

	t.Run("issuer error is surfaced", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleCallback(rec, httptest.NewRequest(http.MethodGet, "/callback?error=invalid_scope&error_description=nope", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid_scope")
	})

	t.Run("missing code", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleCallback(rec, httptest.NewRequest(http.MethodGet, "/callback?state=abc", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no pkce cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleCallback(rec, httptest.NewRequest(http.MethodGet, "/callback?code=c&state=s", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "not started")
	})
}

func TestSignInHandler_LoginSetsCookie(t *testing.T) {
	t.Parallel()

	h := &SignInHandler{
		Issuer:      authsdk.NewSDKClient("http://issuer.test", "tabsession"),
		Store:       newStore(t),
		RedirectURI: "http://host.test/callback",
		Scopes:      []string{"chat:read"},
	}

	rec := httptest.NewRecorder()
	h.HandleLogin(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	resp := rec.Result()
	defer resp.Body.Close()
	require.Len(t, resp.Cookies(), 1)
	cookie := resp.Cookies()[0]
	assert.Equal(t, pkceCookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)

	u, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "chat:read", u.Query().Get("scope"))
	assert.Contains(t, cookie.Value, u.Query().Get("state")+".")
}
