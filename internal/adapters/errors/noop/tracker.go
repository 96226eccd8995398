package noop

import (
	"context"
	"sync/atomic"

	"oitracker/pkg/errors"
	"oitracker/pkg/logger"
)

// Tracker stands in for Sentry when SENTRY_DSN is empty. Captures go to
// the debug log and are counted.
type Tracker struct {
	captured atomic.Int64
}

var _ errors.Tracker = (*Tracker)(nil)

// New creates a new no-op tracker
func New() *Tracker {
	return &Tracker{}
}

// Captured returns how many errors and messages were captured
func (t *Tracker) Captured() int64 {
	return t.captured.Load()
}

// CaptureError logs err at debug level
func (t *Tracker) CaptureError(ctx context.Context, err error, tags map[string]string) error {
	t.captured.Add(1)
	runID, _ := errors.RunIDFromContext(ctx)
	logger.Get().Debugw("Captured error", "error", err, "tags", tags, "run_id", runID)
	return nil
}

// CaptureMessage logs message at debug level
func (t *Tracker) CaptureMessage(ctx context.Context, message string, level errors.Level, tags map[string]string) error {
	t.captured.Add(1)
	logger.Get().Debugw("Captured message", "message", message, "level", level, "tags", tags)
	return nil
}

// AddBreadcrumb does nothing
func (t *Tracker) AddBreadcrumb(ctx context.Context, message string, category string, level errors.Level, data map[string]interface{}) {
}

// Flush does nothing
func (t *Tracker) Flush(ctx context.Context) error {
	return nil
}
