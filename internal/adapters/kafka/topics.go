package kafka

// Topic definitions for Kafka event streaming
const (
	// TopicBatchCompleted carries one JSON event per finished batch run
	TopicBatchCompleted = "oi.batch.completed"
)

// Consumer groups
const (
	// GroupStreamRelay is prefixed to a per-instance suffix so every API
	// replica receives every batch event
	GroupStreamRelay = "oitracker-stream-relay"
)
