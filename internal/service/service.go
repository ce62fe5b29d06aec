package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/google/uuid"

	"github.com/Log-Tools/event-canary/canary"
	"github.com/Log-Tools/event-canary/events"
	"github.com/Log-Tools/event-canary/eventstream"
	canaryConfig "github.com/Log-Tools/event-canary/internal/config"
	"github.com/Log-Tools/event-canary/schemarepo"
	"github.com/Log-Tools/event-canary/streamconfig"
)

// CanaryMonitorService periodically assembles canary events for the
// configured streams and POSTs them to every datacenter-specific event
// service, publishing per-destination outcomes and per-pass summaries to
// Kafka
type CanaryMonitorService struct {
	config      *canaryConfig.Config
	producer    Producer // nil when Kafka publishing is disabled
	streamCache *streamconfig.Cache
	engine      *canary.Engine
	post        canary.PostFunc
	stopChannel chan struct{}
}

// NewCanaryMonitorServiceFromFile constructs the service with production
// collaborators from a configuration file path
func NewCanaryMonitorServiceFromFile(ctx context.Context, configPath string) (*CanaryMonitorService, error) {
	cfg, err := canaryConfig.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var producer Producer
	if cfg.Kafka.Enabled {
		producer, err = newKafkaProducer(cfg)
		if err != nil {
			return nil, err
		}
	}

	resolver := schemarepo.New(cfg.SchemaRepository.BaseURIs)
	return NewCanaryMonitorService(ctx, cfg, &DefaultFetcherFactory{}, resolver, producer)
}

// NewCanaryMonitorService constructs the service with dependency injection
// for testing and flexibility. The stream config cache is populated here, so
// construction performs one full config fetch.
func NewCanaryMonitorService(
	ctx context.Context,
	cfg *canaryConfig.Config,
	fetcherFactory FetcherFactory,
	resolver eventstream.SchemaResolver,
	producer Producer,
) (*CanaryMonitorService, error) {
	fetcher, err := fetcherFactory.CreateFetcher(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream config fetcher: %w", err)
	}

	streamCache, err := streamconfig.NewCache(ctx, fetcher)
	if err != nil {
		return nil, fmt.Errorf("failed to populate stream config cache: %w", err)
	}

	directory := eventstream.NewServiceDirectory(cfg.EventServices)
	factory := eventstream.NewFactory(streamCache, directory, resolver)
	engine := canary.NewEngine(factory, cfg.Datacenters, cfg.Monitor.DeliveryConcurrency)

	httpClient := &http.Client{
		Timeout: time.Duration(cfg.Monitor.RequestTimeoutSeconds) * time.Second,
	}

	return &CanaryMonitorService{
		config:      cfg,
		producer:    producer,
		streamCache: streamCache,
		engine:      engine,
		post:        canary.HTTPPoster(httpClient, canary.IntakeAccepted),
		stopChannel: make(chan struct{}),
	}, nil
}

// Start runs delivery passes on the configured interval until Stop is called
// or the context is cancelled. The first pass runs immediately.
func (s *CanaryMonitorService) Start(ctx context.Context) error {
	log.Printf("🚀 Starting canary monitor service")
	log.Printf("📋 Stream config source: %s, datacenters: %v", s.config.StreamConfig.Source, s.config.Datacenters)
	if s.config.Monitor.DryRun {
		log.Printf("🧪 Dry run enabled: batches will be built but not POSTed")
	}

	if s.producer != nil {
		go s.handleKafkaDeliveryReports()
	}

	interval := time.Duration(s.config.Monitor.IntervalMinutes) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.RunPass(ctx); err != nil {
		log.Printf("❌ Canary delivery pass failed: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("🛑 Context cancelled, stopping canary monitor")
			return ctx.Err()
		case <-s.stopChannel:
			log.Printf("🛑 Canary monitor service stopped")
			return nil
		case <-ticker.C:
			if err := s.RunPass(ctx); err != nil {
				log.Printf("❌ Canary delivery pass failed: %v", err)
			}
		}
	}
}

// Stop coordinates graceful shutdown, flushing any pending Kafka messages
func (s *CanaryMonitorService) Stop() {
	log.Printf("🔄 Stopping canary monitor service...")
	close(s.stopChannel)

	if s.producer != nil {
		s.producer.Flush(30 * 1000) // 30 second timeout
		s.producer.Close()
	}
}

// RunPass executes one complete canary delivery pass: refresh stream config,
// build per-destination batches, deliver them, and publish the outcomes.
// Failures to deliver to individual destinations are recorded in the
// published events, not returned as errors; only config or schema failures
// abort a pass.
func (s *CanaryMonitorService) RunPass(ctx context.Context) error {
	runID := uuid.NewString()
	startTime := time.Now().UTC()

	// Pick up streams added or removed since the previous pass
	if err := s.streamCache.Reset(ctx); err != nil {
		return fmt.Errorf("failed to refresh stream configs: %w", err)
	}

	streamNames := s.config.Streams
	if len(streamNames) == 0 {
		streamNames = s.streamCache.CachedStreamNames()
	}
	log.Printf("🐤 Run %s: building canary batches for %d streams", runID, len(streamNames))

	batches, err := s.engine.BuildBatches(ctx, streamNames)
	if err != nil {
		return fmt.Errorf("failed to build canary event batches: %w", err)
	}

	if s.config.Monitor.DryRun {
		for serviceURL, batch := range batches {
			log.Printf("🧪 Would POST %d canary events to %s", len(batch), serviceURL)
		}
		return nil
	}

	results := s.engine.Deliver(ctx, batches, s.post)

	failureCount := 0
	for serviceURL, result := range results {
		if result.Success {
			log.Printf("✅ Delivered %d canary events to %s (status %d)", len(batches[serviceURL]), serviceURL, result.Status)
		} else {
			failureCount++
			log.Printf("❌ Failed to deliver canary events to %s: %s", serviceURL, result.Message)
		}

		if err := s.publishDeliveryEvent(runID, serviceURL, len(batches[serviceURL]), result); err != nil {
			log.Printf("❌ Failed to publish delivery event for %s: %v", serviceURL, err)
		}
	}

	if err := s.publishRunCompletedEvent(runID, startTime, len(streamNames), len(results), failureCount); err != nil {
		log.Printf("❌ Failed to publish run completed event: %v", err)
	}

	log.Printf("🏁 Run %s complete: %d destinations, %d failures", runID, len(results), failureCount)
	return nil
}

// publishDeliveryEvent publishes one per-destination outcome event
func (s *CanaryMonitorService) publishDeliveryEvent(runID, serviceURL string, eventCount int, result canary.Result) error {
	if s.producer == nil {
		return nil
	}

	event := events.CanaryDeliveryEvent{
		RunID:         runID,
		ServiceURL:    serviceURL,
		EventCount:    eventCount,
		Success:       result.Success,
		Status:        result.Status,
		Message:       result.Message,
		AttemptedDate: time.Now().UTC(),
	}
	return s.publish(s.config.Kafka.DeliveryTopic, events.GenerateCanaryEventKey(runID, serviceURL), event)
}

// publishRunCompletedEvent publishes the per-pass summary event
func (s *CanaryMonitorService) publishRunCompletedEvent(runID string, startTime time.Time, streamCount, destinationCount, failureCount int) error {
	if s.producer == nil {
		return nil
	}

	event := events.CanaryRunCompletedEvent{
		RunID:            runID,
		StartTime:        startTime,
		EndTime:          time.Now().UTC(),
		Datacenters:      s.engine.Datacenters(),
		StreamCount:      streamCount,
		DestinationCount: destinationCount,
		FailureCount:     failureCount,
	}
	return s.publish(s.config.Kafka.RunTopic, events.GenerateCanaryEventKey(runID, ""), event)
}

func (s *CanaryMonitorService) publish(topic, key string, event any) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic: &topic,
		},
		Key:   []byte(key),
		Value: value,
	}
	return s.producer.Produce(message, nil)
}

// handleKafkaDeliveryReports drains producer delivery reports so failed
// publishes are visible in the logs
func (s *CanaryMonitorService) handleKafkaDeliveryReports() {
	for e := range s.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				log.Printf("❌ Kafka delivery failed for %s: %v", string(ev.Key), ev.TopicPartition.Error)
			}
		case kafka.Error:
			log.Printf("❌ Kafka error: %v", ev)
		}
	}
}
