package streamconfig

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Verifies the conventional request URL shape, including the URL-encoded
// streams delimiter
func TestStreamConfigAPIRequestBuilder(t *testing.T) {
	build := StreamConfigAPIRequestBuilder("https://config.test/api.php")

	all, err := build(nil)
	require.NoError(t, err)
	assert.Equal(t, "https://config.test/api.php?format=json&action=streamconfigs&all_settings=true", all)

	specific, err := build([]string{"stream.a", "stream.b"})
	require.NoError(t, err)
	assert.Equal(t, all+"&streams=stream.a%7Cstream.b", specific)
}

func TestAPIFetcher(t *testing.T) {
	var requestedQuery atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedQuery.Store(r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"stream.a": {"topics": ["t1"], "schema_title": "a/schema"}}`))
	}))
	defer server.Close()

	fetcher := NewAPIFetcher(server.URL)
	document, err := fetcher.Fetch(context.Background(), []string{"stream.a"})
	require.NoError(t, err)

	assert.Contains(t, requestedQuery.Load().(string), "streams=stream.a")
	require.Contains(t, document, "stream.a")
	assert.Equal(t, []any{"t1"}, document["stream.a"]["topics"])
}

func TestAPIFetcherErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := NewAPIFetcher(server.URL)
	_, err := fetcher.Fetch(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestStaticFetcherFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streams.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"stream.a": {"topics": "t1"}}`), 0o644))

	fetcher := NewStaticFetcher(path)

	// The requested names are irrelevant to a static document
	document, err := fetcher.Fetch(context.Background(), []string{"anything"})
	require.NoError(t, err)
	assert.Contains(t, document, "stream.a")
}

// Verifies the static document is loaded once and served for every call
func TestStaticFetcherLoadsOnce(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(`{"stream.a": {"topics": "t1"}}`))
	}))
	defer server.Close()

	fetcher := NewStaticFetcher(server.URL)
	for i := 0; i < 3; i++ {
		_, err := fetcher.Fetch(context.Background(), nil)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), requests.Load())
}
