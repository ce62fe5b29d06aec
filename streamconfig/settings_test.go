package streamconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testDocument() Document {
	return Document{
		"s1": {"topics": []any{"t1", "t2"}},
		"s2": {"topics": "t3"},
		"s3": {"partitions": float64(12), "active": true},
	}
}

// Verifies array settings flatten element by element and scalars contribute
// themselves, concatenated in the requested stream order
func TestCollectSettingsFlattens(t *testing.T) {
	doc := testDocument()

	values := doc.CollectSettings([]string{"s1", "s2"}, "topics")
	assert.Equal(t, []string{"t1", "t2", "t3"}, AsStrings(values))

	// Reversed order reverses the concatenation
	values = doc.CollectSettings([]string{"s2", "s1"}, "topics")
	assert.Equal(t, []string{"t3", "t1", "t2"}, AsStrings(values))
}

// Verifies an absent setting contributes nothing rather than failing
func TestCollectSettingAbsent(t *testing.T) {
	doc := testDocument()

	assert.Empty(t, doc.CollectSetting("unknown-stream", "topics"))
	assert.Empty(t, doc.CollectSetting("s3", "topics"))
}

// Verifies an unknown stream and a known stream without the setting are
// indistinguishable: both report absent, never an error
func TestSettingAbsenceIsUniform(t *testing.T) {
	doc := testDocument()

	_, ok := doc.Setting("unknown-stream", "x")
	assert.False(t, ok)

	_, ok = doc.Setting("s1", "missing-setting")
	assert.False(t, ok)

	value, ok := doc.Setting("s2", "topics")
	assert.True(t, ok)
	assert.Equal(t, "t3", value)
}

// Verifies scalar JSON values render as their textual form
func TestAsStringCoercion(t *testing.T) {
	assert.Equal(t, "t3", AsString("t3"))
	assert.Equal(t, "true", AsString(true))
	assert.Equal(t, "12", AsString(float64(12)))
	assert.Equal(t, "0.5", AsString(0.5))
	assert.Equal(t, "", AsString(nil))
}

func TestSettingString(t *testing.T) {
	doc := testDocument()

	partitions, ok := doc.SettingString("s3", "partitions")
	assert.True(t, ok)
	assert.Equal(t, "12", partitions)

	_, ok = doc.SettingString("s3", "missing")
	assert.False(t, ok)
}

// Verifies Clone produces a deep copy sharing no nested structure
func TestDocumentClone(t *testing.T) {
	doc := testDocument()
	clone := doc.Clone()

	clone["s1"]["topics"].([]any)[0] = "mutated"
	clone["s3"]["partitions"] = float64(99)

	assert.Equal(t, "t1", doc["s1"]["topics"].([]any)[0])
	assert.Equal(t, float64(12), doc["s3"]["partitions"])
}
