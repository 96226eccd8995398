package events

import (
	"context"
	"time"

	"oitracker/pkg/errors"
	"oitracker/pkg/logger"
)

// BatchCompleted is emitted once per finished batch run.
type BatchCompleted struct {
	RunID        string    `json:"run_id"`
	ProcessType  string    `json:"process_type"`
	Status       string    `json:"status"`
	SuccessCount int       `json:"success_count"`
	TotalCount   int       `json:"total_count"`
	Errors       []string  `json:"errors"`
	DurationMS   int64     `json:"duration_ms"`
	CompletedAt  time.Time `json:"completed_at"`
}

// Failed reports whether any symbol or the batch itself failed
func (e *BatchCompleted) Failed() bool {
	return e.Status == "error" || len(e.Errors) > 0
}

// Sink receives batch events
type Sink interface {
	PublishBatchCompleted(ctx context.Context, event *BatchCompleted) error
}

// Fanout delivers each event to every sink. A failing sink does not
// stop delivery to the rest.
type Fanout struct {
	sinks []Sink
	log   *logger.Logger
}

// NewFanout builds a fanout over the non-nil sinks
func NewFanout(sinks ...Sink) *Fanout {
	f := &Fanout{log: logger.Get().With("component", "event_fanout")}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Add registers another sink
func (f *Fanout) Add(sink Sink) {
	if sink != nil {
		f.sinks = append(f.sinks, sink)
	}
}

// Len returns the number of sinks
func (f *Fanout) Len() int {
	return len(f.sinks)
}

// PublishBatchCompleted implements Sink
func (f *Fanout) PublishBatchCompleted(ctx context.Context, event *BatchCompleted) error {
	errs := &errors.MultiError{}
	for _, s := range f.sinks {
		if err := s.PublishBatchCompleted(ctx, event); err != nil {
			f.log.Warnw("Batch event delivery failed", "sink", sinkName(s), "run_id", event.RunID, "error", err)
			errs.Add(err)
		}
	}
	return errs.ToError()
}

func sinkName(s Sink) string {
	if n, ok := s.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "unnamed"
}
