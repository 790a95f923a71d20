package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchReturnsDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"name": "Moon Cat",
			"symbol": "MCAT",
			"description": "to the moon",
			"image": "https://img.example/mcat.png",
			"twitter": "https://x.com/mcat"
		}`))
	}))
	defer srv.Close()

	f := NewFetcher(FetcherOptions{})
	meta := f.Fetch(context.Background(), "mintA", srv.URL)
	require.NotNil(t, meta)

	assert.Equal(t, "Moon Cat", meta.Name)
	assert.Equal(t, "MCAT", meta.Symbol)
	assert.Equal(t, "https://img.example/mcat.png", meta.Image)
	assert.Equal(t, "https://x.com/mcat", meta.Twitter)
}

func TestFetchDegradesToNil(t *testing.T) {
	t.Run("empty uri", func(t *testing.T) {
		f := NewFetcher(FetcherOptions{})
		assert.Nil(t, f.Fetch(context.Background(), "mintA", ""))
	})

	t.Run("non-http uri", func(t *testing.T) {
		f := NewFetcher(FetcherOptions{})
		assert.Nil(t, f.Fetch(context.Background(), "mintA", "ipfs://bafy..."))
	})

	t.Run("upstream 404", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer srv.Close()

		f := NewFetcher(FetcherOptions{})
		assert.Nil(t, f.Fetch(context.Background(), "mintA", srv.URL))
	})

	t.Run("undecodable body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>not json</html>"))
		}))
		defer srv.Close()

		f := NewFetcher(FetcherOptions{})
		assert.Nil(t, f.Fetch(context.Background(), "mintA", srv.URL))
	})
}

func TestFetchHonorsCancelledContext(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"name":"x"}`))
	}))
	defer srv.Close()

	f := NewFetcher(FetcherOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Nil(t, f.Fetch(ctx, "mintA", srv.URL))
	assert.Zero(t, hits.Load(), "cancelled context must not reach upstream")
}
