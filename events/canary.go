package events

import "time"

// CanaryDeliveryEvent records the outcome of POSTing one canary event batch
// to one event service URL during a delivery pass
// Published by the canary monitor service after each destination's attempt
type CanaryDeliveryEvent struct {
	RunID         string    `json:"runId"`
	ServiceURL    string    `json:"serviceUrl"`
	EventCount    int       `json:"eventCount"`
	Success       bool      `json:"success"`
	Status        int       `json:"status,omitempty"`
	Message       string    `json:"message,omitempty"`
	AttemptedDate time.Time `json:"attemptedDate"`
}

// CanaryRunCompletedEvent summarizes one complete canary delivery pass
// across all destinations
// Published by the canary monitor service when a pass finishes
type CanaryRunCompletedEvent struct {
	RunID            string    `json:"runId"`
	StartTime        time.Time `json:"startTime"`
	EndTime          time.Time `json:"endTime"`
	Datacenters      []string  `json:"datacenters"`
	StreamCount      int       `json:"streamCount"`
	DestinationCount int       `json:"destinationCount"`
	FailureCount     int       `json:"failureCount"`
}
