package consumers

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"

	"oitracker/internal/adapters/kafka"
	"oitracker/internal/events"
	"oitracker/pkg/errors"
	"oitracker/pkg/logger"
)

// MessageSource yields Kafka messages until ctx is cancelled.
// *kafka.Consumer satisfies it.
type MessageSource interface {
	Consume(ctx context.Context, handler kafka.MessageHandler) error
	Close() error
}

// StreamRelay forwards batch events from Kafka to a local sink, so every
// API replica pushes every batch to its own websocket clients.
type StreamRelay struct {
	source MessageSource
	sink   events.Sink
	log    *logger.Logger
}

// NewStreamRelay creates a relay from source to sink
func NewStreamRelay(source MessageSource, sink events.Sink) *StreamRelay {
	return &StreamRelay{
		source: source,
		sink:   sink,
		log:    logger.Get().With("component", "stream_relay"),
	}
}

// Start consumes until ctx is cancelled and closes the source on return
func (r *StreamRelay) Start(ctx context.Context) error {
	r.log.Infow("Starting stream relay", "topic", kafka.TopicBatchCompleted)

	defer func() {
		if err := r.source.Close(); err != nil {
			r.log.Errorw("Failed to close stream relay consumer", "error", err)
		}
	}()

	err := r.source.Consume(ctx, r.handleMessage)
	if ctx.Err() != nil {
		r.log.Info("Stream relay stopped")
		return nil
	}
	return err
}

func (r *StreamRelay) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var event events.BatchCompleted
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return errors.Wrap(err, "unmarshal batch event")
	}
	if event.RunID == "" {
		return errors.Wrap(errors.ErrInvalidInput, "batch event without run id")
	}

	r.log.Debugw("Relaying batch event", "run_id", event.RunID, "status", event.Status)
	return r.sink.PublishBatchCompleted(ctx, &event)
}
