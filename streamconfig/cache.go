package streamconfig

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Cache holds one generation of stream configuration fetched through a
// Fetcher. It is populated in full at construction and on Reset, and filled
// in incrementally when callers ask for stream names that are not yet
// resident. Merges only ever add new stream entries or replace an entry
// wholesale with freshly fetched data; a fetch failure leaves the resident
// generation untouched.
//
// A Cache is safe for concurrent use. At most one fetch is in flight per
// missing stream name at a time: concurrent callers racing on the same
// missing name wait on and reuse the in-flight result instead of issuing a
// duplicate fetch, while callers with disjoint missing sets proceed in
// parallel.
type Cache struct {
	fetcher Fetcher

	mu         sync.Mutex
	entries    map[string]Settings
	order      []string // stream names in merge order
	inflight   map[string]*inflightFetch
	generation uint64
}

// inflightFetch tracks one pending fetch result for a single stream name.
// done is closed once the owning fetch call has completed.
type inflightFetch struct {
	done     chan struct{}
	settings Settings
	found    bool
	err      error
}

// NewCache constructs a Cache and populates generation 0 by fetching with an
// empty name filter, which means "everything known" to the fetcher.
func NewCache(ctx context.Context, fetcher Fetcher) (*Cache, error) {
	cache := &Cache{
		fetcher:  fetcher,
		entries:  make(map[string]Settings),
		inflight: make(map[string]*inflightFetch),
	}
	if err := cache.Reset(ctx); err != nil {
		return nil, err
	}
	return cache, nil
}

// Reset discards the current generation and re-fetches all stream configs.
// The fetch result becomes the entire new generation, even if it is a strict
// subset of the previous one: streams can disappear across resets. A fetch
// that was already in flight when Reset was called will not merge into the
// new generation.
func (c *Cache) Reset(ctx context.Context) error {
	document, err := c.fetcher.Fetch(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to fetch stream configs: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.entries = make(map[string]Settings, len(document))
	c.order = nil
	c.mergeLocked(document)
	return nil
}

// GetMany returns the config entries for the requested stream names. Names
// already resident are served from the cache; the missing remainder is
// fetched in a single batched call and merged into the current generation.
// Names absent from both cache and fetch result are omitted from the
// returned document, not reported as errors. The returned document is a deep
// copy and safe to mutate.
func (c *Cache) GetMany(ctx context.Context, streamNames []string) (Document, error) {
	result := make(Document, len(streamNames))

	c.mu.Lock()
	generation := c.generation
	var toFetch []string
	waiting := make(map[string]*inflightFetch)
	requested := make(map[string]bool, len(streamNames))
	for _, streamName := range streamNames {
		if requested[streamName] {
			continue
		}
		requested[streamName] = true

		if settings, ok := c.entries[streamName]; ok {
			result[streamName] = settings.Clone()
			continue
		}
		if pending, ok := c.inflight[streamName]; ok {
			waiting[streamName] = pending
			continue
		}
		c.inflight[streamName] = &inflightFetch{done: make(chan struct{})}
		toFetch = append(toFetch, streamName)
	}
	c.mu.Unlock()

	var fetchErr error
	if len(toFetch) > 0 {
		sort.Strings(toFetch)
		document, err := c.fetcher.Fetch(ctx, toFetch)

		c.mu.Lock()
		if err == nil && generation == c.generation {
			c.mergeLocked(document)
		}
		for _, streamName := range toFetch {
			pending := c.inflight[streamName]
			delete(c.inflight, streamName)
			if err != nil {
				pending.err = err
			} else {
				pending.settings, pending.found = document[streamName]
			}
			close(pending.done)
		}
		c.mu.Unlock()

		if err != nil {
			fetchErr = fmt.Errorf("failed to fetch stream configs for %v: %w", toFetch, err)
		} else {
			for _, streamName := range toFetch {
				if settings, ok := document[streamName]; ok {
					result[streamName] = settings.Clone()
				}
			}
		}
	}

	// Wait for names another caller is already fetching and reuse its result
	for streamName, pending := range waiting {
		select {
		case <-pending.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if pending.err != nil {
			if fetchErr == nil {
				fetchErr = fmt.Errorf("failed to fetch stream config for %s: %w", streamName, pending.err)
			}
			continue
		}
		if pending.found {
			result[streamName] = pending.settings.Clone()
		}
	}

	if fetchErr != nil {
		return nil, fetchErr
	}
	return result, nil
}

// GetOne returns the config entry for a single stream, reporting absence
// explicitly if the stream is unknown after an on-demand fetch
func (c *Cache) GetOne(ctx context.Context, streamName string) (Settings, bool, error) {
	document, err := c.GetMany(ctx, []string{streamName})
	if err != nil {
		return nil, false, err
	}
	settings, ok := document[streamName]
	return settings, ok, nil
}

// CachedStreamNames returns all resident stream names in merge order,
// independent of what was ever explicitly requested. Within one merge, new
// names are appended in sorted order because JSON object order does not
// survive decoding.
func (c *Cache) CachedStreamNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

// CachedDocument returns a deep copy of every resident config entry
func (c *Cache) CachedDocument() Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Document(c.entries).Clone()
}

// Setting returns one setting for a stream, fetching the stream's config on
// demand if it is not resident. An unknown stream and a missing setting both
// report absent.
func (c *Cache) Setting(ctx context.Context, streamName, settingName string) (any, bool, error) {
	document, err := c.GetMany(ctx, []string{streamName})
	if err != nil {
		return nil, false, err
	}
	value, ok := document.Setting(streamName, settingName)
	return value, ok, nil
}

// SettingString returns one setting coerced to its textual form
func (c *Cache) SettingString(ctx context.Context, streamName, settingName string) (string, bool, error) {
	value, ok, err := c.Setting(ctx, streamName, settingName)
	if err != nil || !ok {
		return "", ok, err
	}
	return AsString(value), true, nil
}

// CollectSetting returns the flattened setting values for one stream
func (c *Cache) CollectSetting(ctx context.Context, streamName, settingName string) ([]any, error) {
	return c.CollectSettings(ctx, []string{streamName}, settingName)
}

// CollectSettings returns the flattened setting values for the given streams,
// concatenated in the order the names are given
func (c *Cache) CollectSettings(ctx context.Context, streamNames []string, settingName string) ([]any, error) {
	document, err := c.GetMany(ctx, streamNames)
	if err != nil {
		return nil, err
	}
	return document.CollectSettings(streamNames, settingName), nil
}

// CollectAllCachedSettings flattens the setting values of every resident
// stream in cache order. This only inspects what is already resident and
// never triggers a fetch.
func (c *Cache) CollectAllCachedSettings(settingName string) []any {
	c.mu.Lock()
	order := make([]string, len(c.order))
	copy(order, c.order)
	document := Document(c.entries).Clone()
	c.mu.Unlock()

	return document.CollectSettings(order, settingName)
}

// mergeLocked adds every entry of document to the cache, replacing existing
// entries wholesale and appending new names to the order in sorted order.
// Callers must hold c.mu.
func (c *Cache) mergeLocked(document Document) {
	newNames := make([]string, 0, len(document))
	for streamName, settings := range document {
		if _, exists := c.entries[streamName]; !exists {
			newNames = append(newNames, streamName)
		}
		c.entries[streamName] = settings.Clone()
	}
	sort.Strings(newNames)
	c.order = append(c.order, newNames...)
}
