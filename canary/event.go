// Package canary assembles synthetic canary events from stream schema
// examples and distributes them to the per-datacenter event services
// configured for each stream.
package canary

import (
	"errors"
	"fmt"
)

// CanaryDomain is the value written to meta.domain of every canary event so
// downstream consumers can tell canary traffic from real data
const CanaryDomain = "canary"

// ErrNoExample reports that a stream's schema declares no example event to
// derive a canary event from
var ErrNoExample = errors.New("schema has no example event")

// AssembleEvent derives a canary event for streamName from an example event.
// It deep-copies the example and rewrites exactly three fields: meta.domain
// becomes the canary domain, meta.stream becomes the stream name, and
// meta.dt is removed so the receiving event service stamps the event itself.
// The input example is never mutated.
//
// A nil example fails with ErrNoExample; an example without a meta object is
// reported as malformed, which is a different failure than having no example
// at all.
func AssembleEvent(streamName string, example map[string]any) (map[string]any, error) {
	if example == nil {
		return nil, fmt.Errorf("cannot assemble canary event for stream %s: %w", streamName, ErrNoExample)
	}

	event := copyObject(example)
	meta, ok := event["meta"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("cannot assemble canary event for stream %s: example has no meta object", streamName)
	}

	meta["domain"] = CanaryDomain
	meta["stream"] = streamName
	delete(meta, "dt")
	return event, nil
}

func copyObject(object map[string]any) map[string]any {
	clone := make(map[string]any, len(object))
	for key, value := range object {
		clone[key] = copyJSONValue(value)
	}
	return clone
}

func copyJSONValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return copyObject(v)
	case []any:
		list := make([]any, len(v))
		for i, element := range v {
			list[i] = copyJSONValue(element)
		}
		return list
	default:
		return v
	}
}
