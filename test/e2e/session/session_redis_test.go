package session_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/tabsession/internal/session/app"
	"github.com/aussiebroadwan/tabsession/pkg/authsdk"
	"github.com/aussiebroadwan/tabsession/pkg/jwtx/jwtxtest"
	"github.com/aussiebroadwan/tabsession/pkg/pipeline"
	"github.com/aussiebroadwan/tabsession/pkg/tokenstore"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// TestSessionSurvivesRestart verifies a pair written by one process is
// rehydrated by the next one from Redis.
func TestSessionSurvivesRestart(t *testing.T) {
	_, addr := setupRedisContainer(t)
	e := setupEnv(t, addr)

	access := jwtxtest.Fresh(t)

	first := e.openSession(t)
	require.NoError(t, first.Store.Set(access, "r1"))
	require.NoError(t, first.Close())

	second := e.openSession(t)
	defer second.Close()

	require.Equal(t, tokenstore.Pair{Access: access, Refresh: "r1"}, second.Store.Pair())
	require.True(t, second.Guard.Allow())
}

// TestConcurrentCallsShareOneRenewal sends parallel API calls with an
// expired access token and expects exactly one refresh grant.
func TestConcurrentCallsShareOneRenewal(t *testing.T) {
	_, addr := setupRedisContainer(t)
	e := setupEnv(t, addr)

	s := e.openSession(t)
	defer s.Close()
	require.NoError(t, s.Store.Set(jwtxtest.Expired(t), "r1"))

	g, ctx := errgroup.WithContext(t.Context())
	for range 8 {
		g.Go(func() error {
			var out map[string]string
			return s.API.GetJSON(ctx, "/things", &out)
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, int32(1), e.issuer.refreshes.Load())

	// The renewed pair is what a restarted process sees.
	restarted := e.openSession(t)
	defer restarted.Close()
	require.Equal(t, s.Store.Pair(), restarted.Store.Pair())
	require.Equal(t, "refresh-1", restarted.Store.Pair().Refresh)
}

// TestRenewalFailureClearsRedis verifies a rejected refresh wipes the
// persisted pair.
func TestRenewalFailureClearsRedis(t *testing.T) {
	_, addr := setupRedisContainer(t)
	e := setupEnv(t, addr)
	e.issuer.reject.Store(true)

	s := e.openSession(t)
	defer s.Close()
	require.NoError(t, s.Store.Set(jwtxtest.Expired(t), "r1"))

	var out map[string]string
	err := s.API.GetJSON(t.Context(), "/things", &out)
	require.True(t, pipeline.IsSessionExpired(err), "got %v", err)

	restarted := e.openSession(t)
	defer restarted.Close()
	require.True(t, restarted.Store.Pair().Empty())
}

// TestHostReadiness checks /readyz tracks the Redis backend.
func TestHostReadiness(t *testing.T) {
	container, addr := setupRedisContainer(t)
	e := setupEnv(t, addr)

	application, err := app.NewWithLogger(context.Background(), e.cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer application.Session().Close()

	srv := httptest.NewServer(application.Handler())
	defer srv.Close()

	client := authsdk.NewSDKClient(srv.URL, "")
	health, err := client.GetReadiness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)

	require.NoError(t, container.Stop(context.Background(), nil))

	resp, err := http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
