package bridge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psst-builder-api/internal/config"
)

func newTestBridge(t *testing.T, h http.Handler) *HTTPBridge {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.Credential.Bridge.BaseURL = srv.URL + "/"
	b := NewHTTPBridge(cfg)
	require.NotNil(t, b)
	return b
}

func TestNewHTTPBridge_Unconfigured(t *testing.T) {
	assert.Nil(t, NewHTTPBridge(&config.Config{}))
}

func TestHTTPBridge_Selection(t *testing.T) {
	var selected atomic.Bool
	var opened atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /credential", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if selected.Load() {
			_, _ = w.Write([]byte(`{"selected":true,"api_key":"host-key-123"}`))
			return
		}
		_, _ = w.Write([]byte(`{"selected":false}`))
	})
	mux.HandleFunc("POST /credential/selector", func(w http.ResponseWriter, _ *http.Request) {
		opened.Add(1)
		selected.Store(true)
		w.WriteHeader(http.StatusNoContent)
	})
	b := newTestBridge(t, mux)
	ctx := context.Background()

	ok, err := b.HasSelectedCredential(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	key, err := b.SelectedCredential(ctx)
	require.NoError(t, err)
	assert.Empty(t, key)

	require.NoError(t, b.OpenCredentialSelector(ctx))
	assert.EqualValues(t, 1, opened.Load())

	ok, err = b.HasSelectedCredential(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	key, err = b.SelectedCredential(ctx)
	require.NoError(t, err)
	assert.Equal(t, "host-key-123", key)
}

func TestHTTPBridge_Errors(t *testing.T) {
	b := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`not json`))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := b.HasSelectedCredential(context.Background())
	assert.Error(t, err)
	assert.Error(t, b.OpenCredentialSelector(context.Background()))
}
