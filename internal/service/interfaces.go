package service

import (
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/Log-Tools/event-canary/internal/config"
	"github.com/Log-Tools/event-canary/streamconfig"
)

// Producer abstracts Kafka producer operations to enable testing with mocks
type Producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Events() chan kafka.Event
	Flush(timeoutMs int) int
	Close()
}

// FetcherFactory abstracts stream config fetcher creation to enable
// dependency injection and testing
type FetcherFactory interface {
	CreateFetcher(cfg *config.Config) (streamconfig.Fetcher, error)
}
