package streamconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// Fetcher loads stream configuration documents. An empty streamNames slice
// means "fetch everything known". Implementations may perform network I/O
// and should honor the context for cancellation and timeouts.
type Fetcher interface {
	Fetch(ctx context.Context, streamNames []string) (Document, error)
}

// RequestBuilder produces the fetch URL for a set of stream names. It is the
// injection point for deployments whose config APIs build request URLs
// differently; APIFetcher calls it once per fetch.
type RequestBuilder func(streamNames []string) (string, error)

// StreamConfigAPIRequestBuilder builds request URLs for the conventional
// stream config API:
//
//	<endpoint>?format=json&action=streamconfigs&all_settings=true[&streams=a|b]
//
// The streams parameter joins names with "|", URL-encoded so the resulting
// string parses as a valid URL.
func StreamConfigAPIRequestBuilder(endpoint string) RequestBuilder {
	return func(streamNames []string) (string, error) {
		requestURL := endpoint + "?format=json&action=streamconfigs&all_settings=true"
		if len(streamNames) == 0 {
			// No name filter requests all known streams
			return requestURL, nil
		}

		encoded := make([]string, len(streamNames))
		for i, streamName := range streamNames {
			encoded[i] = url.QueryEscape(streamName)
		}
		return requestURL + "&streams=" + strings.Join(encoded, url.QueryEscape("|")), nil
	}
}

// APIFetcher fetches stream config from a remote API endpoint. The request
// URL for each fetch is produced by an injected RequestBuilder strategy.
type APIFetcher struct {
	client          *http.Client
	buildRequestURL RequestBuilder
}

// NewAPIFetcher creates an APIFetcher for the conventional stream config API
// at endpoint
func NewAPIFetcher(endpoint string) *APIFetcher {
	return NewAPIFetcherWithRequestBuilder(StreamConfigAPIRequestBuilder(endpoint))
}

// NewAPIFetcherWithRequestBuilder creates an APIFetcher with a custom
// request URL strategy
func NewAPIFetcherWithRequestBuilder(buildRequestURL RequestBuilder) *APIFetcher {
	return &APIFetcher{
		client:          &http.Client{Timeout: 30 * time.Second},
		buildRequestURL: buildRequestURL,
	}
}

// SetClient replaces the HTTP client, e.g. to adjust timeouts or TLS settings
func (f *APIFetcher) SetClient(client *http.Client) {
	f.client = client
}

// Fetch requests the config document for streamNames from the remote API
func (f *APIFetcher) Fetch(ctx context.Context, streamNames []string) (Document, error) {
	requestURL, err := f.buildRequestURL(streamNames)
	if err != nil {
		return nil, fmt.Errorf("failed to build stream config request URL: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream config request: %w", err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := f.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("stream config request to %s failed: %w", requestURL, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("stream config request to %s returned status %d", requestURL, response.StatusCode)
	}

	return decodeDocument(response.Body, requestURL)
}

// StaticFetcher loads one fixed stream config document the first time it is
// asked to fetch and serves that same document for every call, regardless of
// the requested names. The URI may be http(s) or a local file path.
type StaticFetcher struct {
	uri    string
	client *http.Client

	mu       sync.Mutex
	document Document
}

// NewStaticFetcher creates a StaticFetcher for uri
func NewStaticFetcher(uri string) *StaticFetcher {
	return &StaticFetcher{
		uri:    uri,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch returns the static document, loading it on first use
func (f *StaticFetcher) Fetch(ctx context.Context, streamNames []string) (Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.document != nil {
		return f.document, nil
	}

	document, err := f.load(ctx)
	if err != nil {
		return nil, err
	}
	f.document = document
	return document, nil
}

func (f *StaticFetcher) load(ctx context.Context) (Document, error) {
	if strings.HasPrefix(f.uri, "http://") || strings.HasPrefix(f.uri, "https://") {
		request, err := http.NewRequestWithContext(ctx, http.MethodGet, f.uri, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create stream config request: %w", err)
		}

		response, err := f.client.Do(request)
		if err != nil {
			return nil, fmt.Errorf("stream config request to %s failed: %w", f.uri, err)
		}
		defer response.Body.Close()

		if response.StatusCode < 200 || response.StatusCode >= 300 {
			return nil, fmt.Errorf("stream config request to %s returned status %d", f.uri, response.StatusCode)
		}
		return decodeDocument(response.Body, f.uri)
	}

	path := strings.TrimPrefix(f.uri, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stream config file %s: %w", path, err)
	}

	var document Document
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("failed to parse stream config from %s: %w", path, err)
	}
	return document, nil
}

func decodeDocument(body io.Reader, source string) (Document, error) {
	var document Document
	if err := json.NewDecoder(body).Decode(&document); err != nil {
		return nil, fmt.Errorf("failed to parse stream config from %s: %w", source, err)
	}
	return document, nil
}
