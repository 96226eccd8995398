package events

import (
	"context"

	"oitracker/internal/adapters/kafka"
	"oitracker/pkg/errors"
)

// MessagePublisher is the slice of the Kafka producer the publisher needs
type MessagePublisher interface {
	Publish(ctx context.Context, topic string, key string, event interface{}) error
}

var _ MessagePublisher = (*kafka.Producer)(nil)

// Publisher publishes batch events to Kafka as JSON keyed by run id
type Publisher struct {
	producer MessagePublisher
	topic    string
}

// NewPublisher creates a Kafka batch event publisher
func NewPublisher(producer MessagePublisher) *Publisher {
	return &Publisher{producer: producer, topic: kafka.TopicBatchCompleted}
}

// Name identifies the sink in logs
func (p *Publisher) Name() string {
	return "kafka"
}

// PublishBatchCompleted implements Sink
func (p *Publisher) PublishBatchCompleted(ctx context.Context, event *BatchCompleted) error {
	if err := p.producer.Publish(ctx, p.topic, event.RunID, event); err != nil {
		return errors.Wrapf(err, "publish %s", p.topic)
	}
	return nil
}
