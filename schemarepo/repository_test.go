package schemarepo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schemaServer(t *testing.T, schemas map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := schemas[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func TestLatestProbesBasesInOrder(t *testing.T) {
	empty := schemaServer(t, nil)
	defer empty.Close()
	serving := schemaServer(t, map[string]string{
		"/my/schema/latest": `{"title": "my/schema"}`,
	})
	defer serving.Close()

	repo := New([]string{empty.URL, serving.URL})
	repo.SetClient(serving.Client())

	resolved, err := repo.Latest(context.Background(), "/my/schema/latest")
	require.NoError(t, err)
	assert.Equal(t, serving.URL+"/my/schema/latest", resolved)
}

func TestLatestPrefersFirstBase(t *testing.T) {
	schemas := map[string]string{"/my/schema/latest": `{"title": "my/schema"}`}
	first := schemaServer(t, schemas)
	defer first.Close()
	second := schemaServer(t, schemas)
	defer second.Close()

	repo := New([]string{first.URL, second.URL})
	repo.SetClient(first.Client())

	resolved, err := repo.Latest(context.Background(), "/my/schema/latest")
	require.NoError(t, err)
	assert.Equal(t, first.URL+"/my/schema/latest", resolved)
}

func TestLatestNotFound(t *testing.T) {
	empty := schemaServer(t, nil)
	defer empty.Close()

	repo := New([]string{empty.URL})
	repo.SetClient(empty.Client())

	_, err := repo.Latest(context.Background(), "/missing/latest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLatestNoBasesConfigured(t *testing.T) {
	repo := New(nil)
	_, err := repo.Latest(context.Background(), "/my/schema/latest")
	require.Error(t, err)
}

func TestNewTrimsTrailingSlashes(t *testing.T) {
	serving := schemaServer(t, map[string]string{
		"/my/schema/latest": `{"title": "my/schema"}`,
	})
	defer serving.Close()

	repo := New([]string{serving.URL + "/"})
	repo.SetClient(serving.Client())

	resolved, err := repo.Latest(context.Background(), "/my/schema/latest")
	require.NoError(t, err)
	assert.Equal(t, serving.URL+"/my/schema/latest", resolved)
}

func TestLoadParsesSchema(t *testing.T) {
	serving := schemaServer(t, map[string]string{
		"/my/schema/latest": `{"title": "my/schema", "examples": [{"v": 1}]}`,
	})
	defer serving.Close()

	repo := New([]string{serving.URL})
	repo.SetClient(serving.Client())

	schema, err := repo.Load(context.Background(), serving.URL+"/my/schema/latest")
	require.NoError(t, err)
	assert.Equal(t, "my/schema", schema["title"])

	examples, ok := schema["examples"].([]any)
	require.True(t, ok)
	assert.Len(t, examples, 1)
}

func TestLoadErrorStatus(t *testing.T) {
	empty := schemaServer(t, nil)
	defer empty.Close()

	repo := New([]string{empty.URL})
	repo.SetClient(empty.Client())

	_, err := repo.Load(context.Background(), empty.URL+"/missing/latest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestLoadParseFailure(t *testing.T) {
	serving := schemaServer(t, map[string]string{
		"/broken/latest": `{not json`,
	})
	defer serving.Close()

	repo := New([]string{serving.URL})
	repo.SetClient(serving.Client())

	_, err := repo.Load(context.Background(), serving.URL+"/broken/latest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse schema")
}
