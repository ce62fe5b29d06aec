package events

// Kafka Topics
// These constants define the Kafka topics where canary monitoring events
// are published
const (
	// TopicCanaryDeliveries contains one event per event service destination
	// per delivery pass, recording whether the POST was accepted
	TopicCanaryDeliveries = "Monitoring.CanaryDeliveries"

	// TopicCanaryRuns contains one summary event per completed delivery pass
	TopicCanaryRuns = "Monitoring.CanaryRuns"
)
