package eventstream

import (
	"context"
	"fmt"

	"github.com/Log-Tools/event-canary/streamconfig"
)

// SchemaResolver locates and loads event schemas. Latest turns a relative
// schema pointer like "/my/schema/latest" into the concrete URL of the
// latest schema version; Load fetches and parses the schema document at a
// URL. Implementations live outside this package (see schemarepo).
type SchemaResolver interface {
	Latest(ctx context.Context, schemaURI string) (string, error)
	Load(ctx context.Context, schemaURI string) (map[string]any, error)
}

// Stream is a read-only per-stream view over shared stream config, the event
// service directory and a schema resolver. It answers the stream-specific
// questions the rest of the repository needs: which topics compose the
// stream, where its events should be POSTed, and what an example event
// looks like.
type Stream struct {
	name      string
	config    *streamconfig.Cache
	directory *ServiceDirectory
	schemas   SchemaResolver
}

// Name returns the stream name
func (s *Stream) Name() string {
	return s.name
}

// Setting returns one raw config setting for this stream
func (s *Stream) Setting(ctx context.Context, settingName string) (any, bool, error) {
	return s.config.Setting(ctx, s.name, settingName)
}

// Topics returns the topics composing this stream
func (s *Stream) Topics(ctx context.Context) ([]string, error) {
	values, err := s.config.CollectSetting(ctx, s.name, streamconfig.TopicsSetting)
	if err != nil {
		return nil, err
	}
	return streamconfig.AsStrings(values), nil
}

// SchemaTitle returns this stream's schema_title setting
func (s *Stream) SchemaTitle(ctx context.Context) (string, bool, error) {
	return s.config.SettingString(ctx, s.name, streamconfig.SchemaTitleSetting)
}

// EventServiceName returns this stream's destination event service name
func (s *Stream) EventServiceName(ctx context.Context) (string, bool, error) {
	return s.config.SettingString(ctx, s.name, streamconfig.EventServiceSetting)
}

// EventServiceURL returns the URL events for this stream should be POSTed
// to, looked up by the stream's destination event service name
func (s *Stream) EventServiceURL(ctx context.Context) (string, bool, error) {
	serviceName, ok, err := s.EventServiceName(ctx)
	if err != nil || !ok {
		return "", false, err
	}
	serviceURL, ok := s.directory.Resolve(serviceName)
	return serviceURL, ok, nil
}

// EventServiceURLForDatacenter returns the datacenter-specific URL for this
// stream's destination event service, or absent if no qualified directory
// entry exists for that datacenter
func (s *Stream) EventServiceURLForDatacenter(ctx context.Context, datacenter string) (string, bool, error) {
	serviceName, ok, err := s.EventServiceName(ctx)
	if err != nil || !ok {
		return "", false, err
	}
	serviceURL, ok := s.directory.ResolveForDatacenter(serviceName, datacenter)
	return serviceURL, ok, nil
}

// SchemaLocation builds the conventional latest pointer for this stream's
// schema_title ("/<schema_title>/latest") and resolves it to the concrete
// location of the latest schema version
func (s *Stream) SchemaLocation(ctx context.Context) (string, error) {
	schemaTitle, ok, err := s.SchemaTitle(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("stream %s has no %s setting", s.name, streamconfig.SchemaTitleSetting)
	}
	return s.schemas.Latest(ctx, "/"+schemaTitle+"/latest")
}

// Schema loads the latest schema for this stream
func (s *Stream) Schema(ctx context.Context) (map[string]any, error) {
	location, err := s.SchemaLocation(ctx)
	if err != nil {
		return nil, err
	}
	schema, err := s.schemas.Load(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema for stream %s: %w", s.name, err)
	}
	return schema, nil
}

// ExampleEvent returns the first element of this stream's schema examples
// array, or absent if the schema declares no examples
func (s *Stream) ExampleEvent(ctx context.Context) (map[string]any, bool, error) {
	schema, err := s.Schema(ctx)
	if err != nil {
		return nil, false, err
	}

	examples, ok := schema["examples"].([]any)
	if !ok || len(examples) == 0 {
		return nil, false, nil
	}
	example, ok := examples[0].(map[string]any)
	if !ok {
		return nil, false, fmt.Errorf("stream %s schema example is not a JSON object", s.name)
	}
	return example, true, nil
}

// Factory constructs Streams sharing one config cache, service directory
// and schema resolver
type Factory struct {
	config    *streamconfig.Cache
	directory *ServiceDirectory
	schemas   SchemaResolver
}

// NewFactory creates a Factory from the shared collaborators
func NewFactory(config *streamconfig.Cache, directory *ServiceDirectory, schemas SchemaResolver) *Factory {
	return &Factory{
		config:    config,
		directory: directory,
		schemas:   schemas,
	}
}

// Stream returns the per-stream view for streamName
func (f *Factory) Stream(streamName string) *Stream {
	return &Stream{
		name:      streamName,
		config:    f.config,
		directory: f.directory,
		schemas:   f.schemas,
	}
}

// Streams returns per-stream views for every name given
func (f *Factory) Streams(streamNames []string) []*Stream {
	streams := make([]*Stream, len(streamNames))
	for i, streamName := range streamNames {
		streams[i] = f.Stream(streamName)
	}
	return streams
}

// Config returns the shared stream config cache
func (f *Factory) Config() *streamconfig.Cache {
	return f.config
}

// Directory returns the shared event service directory
func (f *Factory) Directory() *ServiceDirectory {
	return f.directory
}
