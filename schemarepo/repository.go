// Package schemarepo resolves and loads event schemas from HTTP schema
// repositories. It implements eventstream.SchemaResolver: given a relative
// schema pointer like "/my/schema/latest", it probes a configured list of
// repository base URIs and serves the schema from the first one that has it.
package schemarepo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Repository locates schemas across an ordered list of schema repository
// base URIs
type Repository struct {
	baseURIs []string
	client   *http.Client
}

// New creates a Repository probing baseURIs in order
func New(baseURIs []string) *Repository {
	bases := make([]string, len(baseURIs))
	for i, base := range baseURIs {
		bases[i] = strings.TrimRight(base, "/")
	}
	return &Repository{
		baseURIs: bases,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// SetClient replaces the HTTP client used for schema requests
func (r *Repository) SetClient(client *http.Client) {
	r.client = client
}

// Latest resolves a relative schema pointer to the concrete URL serving it,
// probing each configured base URI in order and returning the first hit
func (r *Repository) Latest(ctx context.Context, schemaURI string) (string, error) {
	if len(r.baseURIs) == 0 {
		return "", fmt.Errorf("no schema repository base URIs configured")
	}

	var lastErr error
	for _, base := range r.baseURIs {
		candidate := base + schemaURI
		found, err := r.exists(ctx, candidate)
		if err != nil {
			lastErr = err
			continue
		}
		if found {
			return candidate, nil
		}
	}

	if lastErr != nil {
		return "", fmt.Errorf("failed to resolve schema %s in repositories %v: %w", schemaURI, r.baseURIs, lastErr)
	}
	return "", fmt.Errorf("schema %s not found in repositories %v", schemaURI, r.baseURIs)
}

// Load fetches and parses the schema document at schemaURI
func (r *Repository) Load(ctx context.Context, schemaURI string) (map[string]any, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, schemaURI, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema request: %w", err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := r.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema at %s: %w", schemaURI, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to load schema at %s: status %d", schemaURI, response.StatusCode)
	}

	var schema map[string]any
	if err := json.NewDecoder(response.Body).Decode(&schema); err != nil {
		return nil, fmt.Errorf("failed to parse schema at %s: %w", schemaURI, err)
	}
	return schema, nil
}

func (r *Repository) exists(ctx context.Context, schemaURI string) (bool, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodHead, schemaURI, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create schema request: %w", err)
	}

	response, err := r.client.Do(request)
	if err != nil {
		return false, fmt.Errorf("schema request to %s failed: %w", schemaURI, err)
	}
	defer response.Body.Close()

	return response.StatusCode >= 200 && response.StatusCode < 300, nil
}
