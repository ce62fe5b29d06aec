package eventstream

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Log-Tools/event-canary/streamconfig"
)

// documentFetcher serves a fixed full document and never answers per-name
// fetches with anything new
type documentFetcher struct {
	document streamconfig.Document
}

func (f *documentFetcher) Fetch(ctx context.Context, streamNames []string) (streamconfig.Document, error) {
	if len(streamNames) == 0 {
		return f.document, nil
	}
	result := make(streamconfig.Document)
	for _, name := range streamNames {
		if settings, ok := f.document[name]; ok {
			result[name] = settings
		}
	}
	return result, nil
}

// fakeResolver resolves latest pointers against a fixed host and serves
// schemas from memory
type fakeResolver struct {
	schemas       map[string]map[string]any // keyed by relative pointer
	latestCalls   []string
	failToResolve bool
}

func (r *fakeResolver) Latest(ctx context.Context, schemaURI string) (string, error) {
	r.latestCalls = append(r.latestCalls, schemaURI)
	if r.failToResolve {
		return "", fmt.Errorf("schema %s not found", schemaURI)
	}
	return "https://schemas.test" + schemaURI, nil
}

func (r *fakeResolver) Load(ctx context.Context, schemaURI string) (map[string]any, error) {
	for pointer, schema := range r.schemas {
		if "https://schemas.test"+pointer == schemaURI {
			return schema, nil
		}
	}
	return nil, fmt.Errorf("failed to load schema at %s", schemaURI)
}

func newTestFactory(t *testing.T, resolver SchemaResolver) *Factory {
	t.Helper()
	fetcher := &documentFetcher{document: streamconfig.Document{
		"mediawiki.page-create": {
			"topics":                    []any{"dc1.mediawiki.page-create", "dc2.mediawiki.page-create"},
			"schema_title":              "mediawiki/page/create",
			"destination_event_service": "svc-main",
		},
		"test.event": {
			"topics":                    "test.event",
			"schema_title":              "test/event",
			"destination_event_service": "svc-analytics",
		},
	}}
	cache, err := streamconfig.NewCache(context.Background(), fetcher)
	require.NoError(t, err)

	directory := NewServiceDirectory(map[string]string{
		"svc-main":     "https://svc-main.discovery.test/v1/events",
		"svc-main-dc1": "https://svc-main.dc1.test/v1/events",
	})
	return NewFactory(cache, directory, resolver)
}

func TestStreamTopics(t *testing.T) {
	factory := newTestFactory(t, &fakeResolver{})
	ctx := context.Background()

	topics, err := factory.Stream("mediawiki.page-create").Topics(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dc1.mediawiki.page-create", "dc2.mediawiki.page-create"}, topics)

	// Scalar topics settings flatten to a single-element list
	topics, err = factory.Stream("test.event").Topics(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"test.event"}, topics)
}

func TestStreamEventServiceURL(t *testing.T) {
	factory := newTestFactory(t, &fakeResolver{})
	ctx := context.Background()
	stream := factory.Stream("mediawiki.page-create")

	name, ok, err := stream.EventServiceName(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "svc-main", name)

	url, ok, err := stream.EventServiceURL(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "https://svc-main.discovery.test/v1/events", url)
}

// Verifies datacenter-qualified resolution and its absence semantics
func TestStreamEventServiceURLForDatacenter(t *testing.T) {
	factory := newTestFactory(t, &fakeResolver{})
	ctx := context.Background()
	stream := factory.Stream("mediawiki.page-create")

	url, ok, err := stream.EventServiceURLForDatacenter(ctx, "dc1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "https://svc-main.dc1.test/v1/events", url)

	_, ok, err = stream.EventServiceURLForDatacenter(ctx, "dc2")
	require.NoError(t, err)
	assert.False(t, ok)

	// A stream whose service has no directory entry at all resolves nothing
	_, ok, err = factory.Stream("test.event").EventServiceURLForDatacenter(ctx, "dc1")
	require.NoError(t, err)
	assert.False(t, ok)
}

// Verifies the conventional latest pointer is built from schema_title and
// handed to the resolver
func TestStreamSchemaLocation(t *testing.T) {
	resolver := &fakeResolver{}
	factory := newTestFactory(t, resolver)

	location, err := factory.Stream("mediawiki.page-create").SchemaLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://schemas.test/mediawiki/page/create/latest", location)
	assert.Equal(t, []string{"/mediawiki/page/create/latest"}, resolver.latestCalls)
}

func TestStreamExampleEvent(t *testing.T) {
	resolver := &fakeResolver{schemas: map[string]map[string]any{
		"/mediawiki/page/create/latest": {
			"title": "mediawiki/page/create",
			"examples": []any{
				map[string]any{"meta": map[string]any{"stream": "mediawiki.page-create"}, "page_id": float64(1)},
				map[string]any{"meta": map[string]any{"stream": "mediawiki.page-create"}, "page_id": float64(2)},
			},
		},
		"/test/event/latest": {
			"title": "test/event",
		},
	}}
	factory := newTestFactory(t, resolver)
	ctx := context.Background()

	example, ok, err := factory.Stream("mediawiki.page-create").ExampleEvent(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, float64(1), example["page_id"], "the first example is used")

	// A schema without examples reports absent, not an error
	_, ok, err = factory.Stream("test.event").ExampleEvent(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStreamSchemaResolutionFailure(t *testing.T) {
	resolver := &fakeResolver{failToResolve: true}
	factory := newTestFactory(t, resolver)

	_, err := factory.Stream("mediawiki.page-create").Schema(context.Background())
	require.Error(t, err)
}
