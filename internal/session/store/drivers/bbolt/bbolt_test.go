package bbolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/tabsession/pkg/tokenstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.db")
	s, err := NewStoreFromFile(path, nil)
	require.NoError(t, err)
	return s, path
}

func TestStore_EmptyLoad(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	defer s.Close()

	p, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, p.Empty())
}

func TestStore_SaveLoadDelete(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, tokenstore.Pair{Access: "a1", Refresh: "r1"}))

	p, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, tokenstore.Pair{Access: "a1", Refresh: "r1"}, p)

	require.NoError(t, s.Delete(ctx))
	p, err = s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, p.Empty())

	// Idempotent.
	require.NoError(t, s.Delete(ctx))
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()
	s, path := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, tokenstore.Pair{Access: "a1", Refresh: "r1"}))
	require.NoError(t, s.Close())

	reopened, err := NewStoreFromFile(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	ts, err := tokenstore.New(ctx, reopened, nil)
	require.NoError(t, err)

	access, ok := ts.Get(tokenstore.Access)
	require.True(t, ok)
	assert.Equal(t, "a1", access)
}

func TestStore_Ping(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())
	assert.Error(t, s.Ping(context.Background()))
}
