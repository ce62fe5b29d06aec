package service

import (
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/Log-Tools/event-canary/internal/config"
	"github.com/Log-Tools/event-canary/streamconfig"
)

// DefaultFetcherFactory creates production stream config fetchers from the
// configured source kind
type DefaultFetcherFactory struct{}

func (f *DefaultFetcherFactory) CreateFetcher(cfg *config.Config) (streamconfig.Fetcher, error) {
	switch cfg.StreamConfig.Source {
	case config.SourceAPI:
		return streamconfig.NewAPIFetcher(cfg.StreamConfig.Endpoint), nil
	case config.SourceStatic:
		return streamconfig.NewStaticFetcher(cfg.StreamConfig.URI), nil
	case config.SourceBlob:
		blob := cfg.StreamConfig.Blob
		fetcher, err := streamconfig.NewBlobFetcher(blob.AccountName, blob.AccessKey, blob.ContainerName, blob.BlobName)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob stream config fetcher: %w", err)
		}
		return fetcher, nil
	default:
		return nil, fmt.Errorf("unknown stream config source: %s", cfg.StreamConfig.Source)
	}
}

// newKafkaProducer creates a confluent Kafka producer from config, applying
// any extra producer settings from YAML
func newKafkaProducer(cfg *config.Config) (Producer, error) {
	kafkaConfig := &kafka.ConfigMap{
		"bootstrap.servers": cfg.Kafka.Brokers,
	}
	for key, value := range cfg.Kafka.ProducerConfig {
		if err := kafkaConfig.SetKey(key, value); err != nil {
			return nil, fmt.Errorf("invalid kafka producer config %s: %w", key, err)
		}
	}

	producer, err := kafka.NewProducer(kafkaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return producer, nil
}
