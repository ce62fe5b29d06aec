package eventstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceDirectoryResolve(t *testing.T) {
	directory := NewServiceDirectory(map[string]string{
		"svc-main":     "https://svc-main.discovery.test/v1/events",
		"svc-main-dc1": "https://svc-main.dc1.test/v1/events",
	})

	url, ok := directory.Resolve("svc-main")
	assert.True(t, ok)
	assert.Equal(t, "https://svc-main.discovery.test/v1/events", url)

	_, ok = directory.Resolve("svc-other")
	assert.False(t, ok)
}

// Verifies datacenter qualification appends -<datacenter> with no fallback
// to the bare service name
func TestServiceDirectoryResolveForDatacenter(t *testing.T) {
	directory := NewServiceDirectory(map[string]string{
		"svc-main":     "https://svc-main.discovery.test/v1/events",
		"svc-main-dc1": "https://svc-main.dc1.test/v1/events",
	})

	url, ok := directory.ResolveForDatacenter("svc-main", "dc1")
	assert.True(t, ok)
	assert.Equal(t, "https://svc-main.dc1.test/v1/events", url)

	_, ok = directory.ResolveForDatacenter("svc-main", "dc2")
	assert.False(t, ok, "missing qualified entry must not fall back to the bare name")
}

// Verifies the directory copies its input map rather than sharing it
func TestServiceDirectoryIsImmutable(t *testing.T) {
	source := map[string]string{"svc-main": "https://svc-main.test/v1/events"}
	directory := NewServiceDirectory(source)

	source["svc-main"] = "https://hijacked.test"

	url, ok := directory.Resolve("svc-main")
	assert.True(t, ok)
	assert.Equal(t, "https://svc-main.test/v1/events", url)
}
