package guard

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/tabsession/pkg/jwtx"
	"github.com/aussiebroadwan/tabsession/pkg/jwtx/jwtxtest"
	"github.com/aussiebroadwan/tabsession/pkg/tokenstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.DiscardHandler)

func newStore(t *testing.T, access, refresh string) *tokenstore.Store {
	t.Helper()
	s, err := tokenstore.New(context.Background(), tokenstore.NewMemoryBackend(), discard)
	require.NoError(t, err)
	require.NoError(t, s.Set(access, refresh))
	return s
}

func TestAllow(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	codec := jwtx.NewCodec(jwtx.WithClock(func() time.Time { return now }), jwtx.WithLogger(discard))

	t.Run("exp one second ago denies and clears", func(t *testing.T) {
		t.Parallel()
		store := newStore(t, jwtxtest.Token(t, now.Add(-time.Second)), "r1")
		g := New(store, WithCodec(codec), WithLogger(discard))

		assert.False(t, g.Allow())
		assert.True(t, store.Pair().Empty(), "both tokens cleared")
	})

	t.Run("exp in an hour allows without mutation", func(t *testing.T) {
		t.Parallel()
		access := jwtxtest.Token(t, now.Add(time.Hour))
		store := newStore(t, access, "r1")
		g := New(store, WithCodec(codec), WithLogger(discard))

		assert.True(t, g.Allow())
		assert.Equal(t, tokenstore.Pair{Access: access, Refresh: "r1"}, store.Pair())
	})

	t.Run("absent token denies", func(t *testing.T) {
		t.Parallel()
		store := newStore(t, "", "r1")
		g := New(store, WithCodec(codec), WithLogger(discard))

		assert.False(t, g.Allow())
		assert.True(t, store.Pair().Empty())
	})

	t.Run("malformed token denies", func(t *testing.T) {
		t.Parallel()
		store := newStore(t, "garbage", "r1")
		g := New(store, WithCodec(codec), WithLogger(discard))

		assert.False(t, g.Allow())
		assert.True(t, store.Pair().Empty())
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	protected := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("secret page"))
	})

	t.Run("redirects before rendering", func(t *testing.T) {
		t.Parallel()
		store := newStore(t, jwtxtest.Expired(t), "r1")

		var denied int
		g := New(store, WithLogger(discard), WithSignInPath("/signin"), WithOnDenied(func(*http.Request) { denied++ }))

		rec := httptest.NewRecorder()
		g.Middleware(protected).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app/", nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/signin", rec.Header().Get("Location"))
		assert.NotContains(t, rec.Body.String(), "secret page")
		assert.Equal(t, 1, denied)
		assert.True(t, store.Pair().Empty())
	})

	t.Run("renders for a valid session", func(t *testing.T) {
		t.Parallel()
		store := newStore(t, jwtxtest.Fresh(t), "r1")
		g := New(store, WithLogger(discard))

		rec := httptest.NewRecorder()
		g.Middleware(protected).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "secret page", rec.Body.String())
		assert.Equal(t, DefaultSignInPath, g.SignInPath())
	})
}
