package fetcher

import (
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticFetcher_PlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		assert.Contains(t, r.Header.Get("Accept"), "text/html")
		assert.Contains(t, r.Header.Get("Accept-Encoding"), "br")
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	f := NewStatic(StaticOptions{})
	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, body, "hello")
}

func TestStaticFetcher_GzipBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte("<html><body>compressed content</body></html>"))
		_ = gz.Close()
	}))
	defer srv.Close()

	f := NewStatic(StaticOptions{})
	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, body, "compressed content")
}

func TestStaticFetcher_BrotliBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		br := brotli.NewWriter(w)
		_, _ = br.Write([]byte("<html><body>brotli content</body></html>"))
		_ = br.Close()
	}))
	defer srv.Close()

	f := NewStatic(StaticOptions{})
	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, body, "brotli content")
}

func TestStaticFetcher_UnknownEncodingPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "zstd")
		_, _ = w.Write([]byte("raw bytes"))
	}))
	defer srv.Close()

	f := NewStatic(StaticOptions{})
	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "raw bytes", body)
}

// redirectChain serves n redirect hops before a 200 with the final body.
func redirectChain(t *testing.T, hops int) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var hop int
		_, _ = fmt.Sscanf(r.URL.Path, "/hop/%d", &hop)
		if hop < hops {
			// Relative redirect on purpose; resolution happens client-side.
			w.Header().Set("Location", fmt.Sprintf("/hop/%d", hop+1))
			w.WriteHeader(http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("final body"))
	}))
	return srv
}

func TestStaticFetcher_FollowsRedirectChain(t *testing.T) {
	srv := redirectChain(t, 3)
	defer srv.Close()

	f := NewStatic(StaticOptions{})
	body, err := f.Fetch(context.Background(), srv.URL+"/hop/0")
	require.NoError(t, err)
	assert.Equal(t, "final body", body)
}

func TestStaticFetcher_RedirectBudgetExceeded(t *testing.T) {
	var requests atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Location", srv.URL+r.URL.Path+"x")
		w.WriteHeader(http.StatusMovedPermanently)
	}))
	defer srv.Close()

	f := NewStatic(StaticOptions{MaxRedirects: 5})
	_, err := f.Fetch(context.Background(), srv.URL+"/start")
	require.Error(t, err)

	var redirectErr *RedirectError
	require.ErrorAs(t, err, &redirectErr)
	assert.Equal(t, 5, redirectErr.Budget)
	// The sixth hop is never followed.
	assert.Equal(t, int32(6), requests.Load())
}

func TestStaticFetcher_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewStatic(StaticOptions{})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
}

func TestStaticFetcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte("too late"))
	}))
	defer srv.Close()

	f := NewStatic(StaticOptions{Timeout: 50 * time.Millisecond})
	start := time.Now()
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, IsTimeout(err), "expected a timeout error, got: %v", err)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}
