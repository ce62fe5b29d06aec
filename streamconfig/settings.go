package streamconfig

import "strconv"

// Well-known setting names
// These constants identify the stream config settings the rest of the
// repository interprets; all other settings are opaque JSON values
const (
	// TopicsSetting holds the Kafka topic (or list of topics) composing a stream
	TopicsSetting = "topics"

	// SchemaTitleSetting holds the schema title used to locate a stream's schema
	SchemaTitleSetting = "schema_title"

	// EventServiceSetting holds the destination event service name for a stream
	EventServiceSetting = "destination_event_service"
)

// Settings maps setting names to arbitrary JSON values for one stream.
// Settings are not individually typed; callers coerce the values they
// understand at the call site.
type Settings map[string]any

// Document maps stream names (or regex pattern strings, which are only ever
// matched by literal key equality here) to their Settings. This is the shape
// returned by config fetches and held by the Cache.
type Document map[string]Settings

// Setting returns the named setting for a stream. An unknown stream and a
// known stream without the setting are indistinguishable: both report absent.
func (d Document) Setting(streamName, settingName string) (any, bool) {
	settings, ok := d[streamName]
	if !ok {
		return nil, false
	}
	value, ok := settings[settingName]
	return value, ok
}

// SettingString returns the named setting coerced to its textual form
func (d Document) SettingString(streamName, settingName string) (string, bool) {
	value, ok := d.Setting(streamName, settingName)
	if !ok {
		return "", false
	}
	return AsString(value), true
}

// CollectSetting returns the flattened values of a setting for one stream.
// Array values contribute their elements one by one, scalar values contribute
// themselves, and an absent setting contributes nothing.
func (d Document) CollectSetting(streamName, settingName string) []any {
	return d.CollectSettings([]string{streamName}, settingName)
}

// CollectSettings concatenates CollectSetting over streamNames in the order given
func (d Document) CollectSettings(streamNames []string, settingName string) []any {
	var values []any
	for _, streamName := range streamNames {
		value, ok := d.Setting(streamName, settingName)
		if !ok {
			continue
		}
		if list, isList := value.([]any); isList {
			values = append(values, list...)
		} else {
			values = append(values, value)
		}
	}
	return values
}

// AsString coerces a scalar JSON setting value to its textual form.
// Objects are not expected as setting scalars; they fall through to an
// empty string.
func AsString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case nil:
		return ""
	default:
		return ""
	}
}

// AsStrings applies AsString to every value
func AsStrings(values []any) []string {
	strings := make([]string, len(values))
	for i, value := range values {
		strings[i] = AsString(value)
	}
	return strings
}

// Clone deep-copies the settings so callers cannot mutate cached state
func (s Settings) Clone() Settings {
	if s == nil {
		return nil
	}
	clone := make(Settings, len(s))
	for name, value := range s {
		clone[name] = copyValue(value)
	}
	return clone
}

// Clone deep-copies the document
func (d Document) Clone() Document {
	clone := make(Document, len(d))
	for streamName, settings := range d {
		clone[streamName] = settings.Clone()
	}
	return clone
}

func copyValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		m := make(map[string]any, len(v))
		for key, element := range v {
			m[key] = copyValue(element)
		}
		return m
	case []any:
		list := make([]any, len(v))
		for i, element := range v {
			list[i] = copyValue(element)
		}
		return list
	default:
		return v
	}
}
