package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/tick/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Invoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/hooks/shop:price", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "shop:price", req.Handler)
		assert.Equal(t, "pizza", req.Contexts["ITEM"])

		_ = json.NewEncoder(w).Encode(Response{Contexts: map[string]any{"PRICE": 12.5, "DISCOUNT": nil}})
	}))
	defer srv.Close()

	repo, err := New(srv.URL+"/hooks/", WithHeader("Authorization", "Bearer secret"))
	require.NoError(t, err)

	out, err := repo.Invoke(context.Background(), "shop:price", map[string]any{"ITEM": "pizza"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"PRICE": 12.5, "DISCOUNT": nil}, out)
}

func TestRepository_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing:handler":
			http.NotFound(w, r)
		case "/broken:handler":
			http.Error(w, "database unavailable", http.StatusBadGateway)
		default:
			_, _ = w.Write([]byte("{not json"))
		}
	}))
	defer srv.Close()

	repo, err := New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("Not Found", func(t *testing.T) {
		_, err := repo.Invoke(ctx, "missing:handler", nil)
		assert.ErrorIs(t, err, domain.ErrHandlerNotFound)
	})

	t.Run("Non 2xx", func(t *testing.T) {
		_, err := repo.Invoke(ctx, "broken:handler", nil)
		var status *StatusError
		require.ErrorAs(t, err, &status)
		assert.Equal(t, http.StatusBadGateway, status.Code)
		assert.Equal(t, "database unavailable", status.Body)
	})

	t.Run("Undecodable", func(t *testing.T) {
		_, err := repo.Invoke(ctx, "garbled:handler", nil)
		assert.Error(t, err)
	})
}

func TestRepository_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	repo, err := New(srv.URL)
	require.NoError(t, err)
	out, err := repo.Invoke(context.Background(), "dev:noop", nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRepository_Catalog(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"contexts":{}}`))
	}))
	defer srv.Close()

	repo, err := New(srv.URL, WithHandlers("shop:price", "shop:order"))
	require.NoError(t, err)

	assert.True(t, repo.Has("shop:order"))
	assert.False(t, repo.Has("shop:refund"))

	_, err = repo.Invoke(context.Background(), "shop:refund", nil)
	assert.ErrorIs(t, err, domain.ErrHandlerNotFound)
	assert.Zero(t, calls.Load())

	open, err := New(srv.URL)
	require.NoError(t, err)
	assert.True(t, open.Has("anything:at_all"))
}

func TestRepository_RateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"contexts":{}}`))
	}))
	defer srv.Close()

	// One token, refilled every hour: the second call has to wait.
	repo, err := New(srv.URL, WithRateLimit(1.0/3600, 1))
	require.NoError(t, err)

	_, err = repo.Invoke(context.Background(), "dev:noop", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = repo.Invoke(ctx, "dev:noop", nil)
	assert.Error(t, err)
}

func TestNew_InvalidBase(t *testing.T) {
	_, err := New("ftp://example.com")
	assert.Error(t, err)
	_, err = New("://nope")
	assert.Error(t, err)
}
