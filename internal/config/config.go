package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Log-Tools/event-canary/events"
)

// Stream config source kinds accepted in stream_config.source
const (
	SourceAPI    = "api"
	SourceStatic = "static"
	SourceBlob   = "blob"
)

// Config represents the complete configuration for the canary monitor service
type Config struct {
	StreamConfig     StreamConfigConfig     `yaml:"stream_config"`
	SchemaRepository SchemaRepositoryConfig `yaml:"schema_repository"`
	EventServices    map[string]string      `yaml:"event_services"`
	Datacenters      []string               `yaml:"datacenters"`
	Streams          []string               `yaml:"streams,omitempty"` // empty means all cached streams
	Monitor          MonitorConfig          `yaml:"monitor"`
	Kafka            KafkaConfig            `yaml:"kafka"`
}

// StreamConfigConfig defines where stream configuration is fetched from
type StreamConfigConfig struct {
	Source   string           `yaml:"source"`             // api, static or blob
	Endpoint string           `yaml:"endpoint,omitempty"` // api: base API endpoint
	URI      string           `yaml:"uri,omitempty"`      // static: http(s) URL or file path
	Blob     BlobSourceConfig `yaml:"blob,omitempty"`     // blob: Azure snapshot location
}

// BlobSourceConfig defines the Azure blob holding a stream config snapshot
type BlobSourceConfig struct {
	AccountName   string `yaml:"account_name"`
	AccessKey     string `yaml:"access_key"`
	ContainerName string `yaml:"container_name"`
	BlobName      string `yaml:"blob_name"`
}

// SchemaRepositoryConfig defines where event schemas are served from
type SchemaRepositoryConfig struct {
	BaseURIs []string `yaml:"base_uris"`
}

// MonitorConfig defines delivery pass scheduling and behavior
type MonitorConfig struct {
	IntervalMinutes       int  `yaml:"interval_minutes"`
	DeliveryConcurrency   int  `yaml:"delivery_concurrency"`
	RequestTimeoutSeconds int  `yaml:"request_timeout_seconds"`
	DryRun                bool `yaml:"dry_run"` // build batches but skip POSTing and publishing
}

// KafkaConfig defines Kafka connection and producer settings for publishing
// canary monitoring events
type KafkaConfig struct {
	Enabled        bool                   `yaml:"enabled"`
	Brokers        string                 `yaml:"brokers"`
	DeliveryTopic  string                 `yaml:"delivery_topic"`
	RunTopic       string                 `yaml:"run_topic"`
	ProducerConfig map[string]interface{} `yaml:"producer_config"`
}

// LoadConfig parses YAML configuration file and validates all settings
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	setDefaults(&config)

	return &config, nil
}

// validateConfig performs comprehensive validation to catch configuration
// errors before runtime
func validateConfig(config *Config) error {
	switch config.StreamConfig.Source {
	case SourceAPI:
		if config.StreamConfig.Endpoint == "" {
			return fmt.Errorf("stream_config.endpoint is required for source: api")
		}
	case SourceStatic:
		if config.StreamConfig.URI == "" {
			return fmt.Errorf("stream_config.uri is required for source: static")
		}
	case SourceBlob:
		blob := config.StreamConfig.Blob
		if blob.AccountName == "" || blob.AccessKey == "" || blob.ContainerName == "" || blob.BlobName == "" {
			return fmt.Errorf("stream_config.blob requires account_name, access_key, container_name and blob_name")
		}
	case "":
		return fmt.Errorf("stream_config.source is required (api, static or blob)")
	default:
		return fmt.Errorf("unknown stream_config.source: %s", config.StreamConfig.Source)
	}

	if len(config.SchemaRepository.BaseURIs) == 0 {
		return fmt.Errorf("schema_repository.base_uris must not be empty")
	}

	if len(config.EventServices) == 0 {
		return fmt.Errorf("event_services must not be empty")
	}

	if len(config.Datacenters) == 0 {
		return fmt.Errorf("datacenters must not be empty")
	}

	if config.Monitor.IntervalMinutes < 0 {
		return fmt.Errorf("monitor.interval_minutes must not be negative")
	}

	if config.Kafka.Enabled && config.Kafka.Brokers == "" {
		return fmt.Errorf("kafka.brokers is required when kafka.enabled is true")
	}

	return nil
}

// setDefaults fills in safe defaults for optional settings
func setDefaults(config *Config) {
	if config.Monitor.IntervalMinutes == 0 {
		config.Monitor.IntervalMinutes = 15
	}
	if config.Monitor.DeliveryConcurrency == 0 {
		config.Monitor.DeliveryConcurrency = 8
	}
	if config.Monitor.RequestTimeoutSeconds == 0 {
		config.Monitor.RequestTimeoutSeconds = 30
	}
	if config.Kafka.DeliveryTopic == "" {
		config.Kafka.DeliveryTopic = events.TopicCanaryDeliveries
	}
	if config.Kafka.RunTopic == "" {
		config.Kafka.RunTopic = events.TopicCanaryRuns
	}
}
