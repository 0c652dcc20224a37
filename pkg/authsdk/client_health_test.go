package authsdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitReady(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/readyz", r.URL.Path)
		status := http.StatusServiceUnavailable
		resp := HealthResponse{Status: "degraded"}
		if calls.Add(1) >= 3 {
			status = http.StatusOK
			resp = HealthResponse{Status: "ok", Checks: &HealthChecks{CredentialStore: "ok"}}
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	health, err := NewSDKClient(srv.URL, "").WaitReady(ctx, 5*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWaitReady_ContextEnds(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewSDKClient(srv.URL, "").WaitReady(ctx, 5*time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetLiveness(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(HealthResponse{Status: "ok", Version: "v1"})
	}))
	defer srv.Close()

	health, err := NewSDKClient(srv.URL, "").GetLiveness(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1", health.Version)
}
