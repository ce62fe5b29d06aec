package events

import (
	"fmt"
	"strings"
)

// CanaryEventKey represents the components of a canary monitoring event key
type CanaryEventKey struct {
	RunID      string
	ServiceURL string
}

// GenerateCanaryEventKey creates a standardized key for canary monitoring events
// Format: {runId}:{serviceUrl}
// Run summary events use an empty service URL and keep the trailing colon so
// every key parses the same way
func GenerateCanaryEventKey(runID, serviceURL string) string {
	return fmt.Sprintf("%s:%s", runID, serviceURL)
}

// ParseCanaryEventKey parses a canary monitoring event key into its components
// Returns error if the key doesn't have the expected format
func ParseCanaryEventKey(key string) (*CanaryEventKey, error) {
	// Split into exactly 2 parts: the run ID never contains a colon, the
	// service URL may
	parts := strings.SplitN(key, ":", 2)
	if len(parts) != 2 || parts[0] == "" {
		return nil, fmt.Errorf("invalid canary event key format: expected {runId}:{serviceUrl}, got: %s", key)
	}

	return &CanaryEventKey{
		RunID:      parts[0],
		ServiceURL: parts[1],
	}, nil
}

// String returns the key in the standard format
func (k *CanaryEventKey) String() string {
	return GenerateCanaryEventKey(k.RunID, k.ServiceURL)
}
