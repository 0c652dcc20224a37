package pipeline_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/tabsession/pkg/authsdk"
	"github.com/aussiebroadwan/tabsession/pkg/jwtx"
	"github.com/aussiebroadwan/tabsession/pkg/jwtx/jwtxtest"
	"github.com/aussiebroadwan/tabsession/pkg/pipeline"
	"github.com/aussiebroadwan/tabsession/pkg/renewal"
	"github.com/aussiebroadwan/tabsession/pkg/tokenstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// issuer hands out one fresh pair per refresh and counts calls.
type issuer struct {
	tb       testing.TB
	calls    atomic.Int32
	fail     bool
	mu       sync.Mutex
	current  string
	released chan struct{}
}

func (i *issuer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	i.calls.Add(1)
	if i.released != nil {
		<-i.released
	}
	if i.fail {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"refresh token expired"}`))
		return
	}

	access := jwtxtest.Fresh(i.tb)
	i.mu.Lock()
	i.current = access
	i.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(authsdk.TokenResponse{AccessToken: access, RefreshToken: "r2"})
}

func (i *issuer) issued() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.current
}

type wiring struct {
	store  *tokenstore.Store
	coord  *renewal.Coordinator
	client *pipeline.Client
	issuer *issuer
}

func wire(t *testing.T, iss *issuer, access, refresh string) *wiring {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	codec := jwtx.NewCodec(jwtx.WithLogger(logger))

	issuerSrv := httptest.NewServer(iss)
	t.Cleanup(issuerSrv.Close)

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if tok == "" || tok != iss.issued() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"messages":[]}`))
	}))
	t.Cleanup(api.Close)

	store, err := tokenstore.New(context.Background(), tokenstore.NewMemoryBackend(), logger)
	require.NoError(t, err)
	require.NoError(t, store.Set(access, refresh))

	sdk := authsdk.NewSDKClient(issuerSrv.URL, "web-app")
	coord := renewal.NewCoordinator(store, renewal.RenewerFunc(func(ctx context.Context, refresh string) (renewal.Tokens, error) {
		resp, err := sdk.RefreshGrant(ctx, refresh)
		if err != nil {
			return renewal.Tokens{}, err
		}
		return renewal.Tokens{Access: resp.AccessToken, Refresh: resp.RefreshToken}, nil
	}), renewal.WithLogger(logger), renewal.WithCodec(codec))

	tr := pipeline.NewTransport(store, coord, pipeline.WithLogger(logger), pipeline.WithCodec(codec))
	return &wiring{store: store, coord: coord, client: pipeline.NewClient(api.URL, tr), issuer: iss}
}

func TestScenario_ExpiredAccessValidRefresh(t *testing.T) {
	t.Parallel()

	w := wire(t, &issuer{tb: t}, jwtxtest.Expired(t), "r1")

	var out map[string]any
	require.NoError(t, w.client.GetJSON(context.Background(), "/v1/messages", &out))

	assert.Equal(t, int32(1), w.issuer.calls.Load())
	access, _ := w.store.Get(tokenstore.Access)
	refresh, _ := w.store.Get(tokenstore.Refresh)
	assert.Equal(t, w.issuer.issued(), access, "new access token persisted")
	assert.Equal(t, "r2", refresh, "new refresh token persisted")
}

func TestScenario_ConcurrentRequestsShareOneRenewal(t *testing.T) {
	t.Parallel()

	iss := &issuer{tb: t, released: make(chan struct{})}
	w := wire(t, iss, jwtxtest.Expired(t), "r1")

	const n = 12
	var g errgroup.Group
	for range n {
		g.Go(func() error {
			return w.client.GetJSON(context.Background(), "/v1/messages", nil)
		})
	}

	require.Eventually(t, func() bool { return w.coord.Stats().Waiting == n }, 5*time.Second, time.Millisecond)
	close(iss.released)

	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), iss.calls.Load(), "one renewal for all concurrent 401s")
	assert.Equal(t, uint64(1), w.coord.Stats().Renewals)
}

func TestScenario_RenewalFailureEndsSession(t *testing.T) {
	t.Parallel()

	w := wire(t, &issuer{tb: t, fail: true}, jwtxtest.Expired(t), "r1")

	err := w.client.GetJSON(context.Background(), "/v1/messages", nil)
	require.Error(t, err)
	assert.True(t, pipeline.IsSessionExpired(err))

	var oauthErr *authsdk.OAuth2Error
	require.ErrorAs(t, err, &oauthErr)
	assert.Equal(t, authsdk.ErrorCodeInvalidGrant, oauthErr.Code)

	assert.True(t, w.store.Pair().Empty(), "store cleared")
}
