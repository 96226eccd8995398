package workers

import (
	"context"
	"sync"
	"time"

	"oitracker/pkg/logger"
)

// Worker is a background task driven by the Scheduler
type Worker interface {
	// Name returns the unique identifier for this worker
	Name() string

	// Run executes one iteration and returns
	Run(ctx context.Context) error

	// Interval is the default pause between iterations
	Interval() time.Duration

	// Enabled reports whether the next iteration should run. A disabled
	// worker keeps its loop but skips Run until enabled again.
	Enabled() bool
}

// Paced workers choose the pause after each iteration themselves.
// elapsed is how long Run took, err is what it returned. ran is false
// when the iteration was skipped because the worker was disabled.
type Paced interface {
	NextDelay(elapsed time.Duration, ran bool, err error) time.Duration
}

// Waker workers can cut a pending pause short, e.g. when they are
// re-enabled or reconfigured.
type Waker interface {
	Wake() <-chan struct{}
}

// Health contains health information for a worker
type Health struct {
	LastRun     time.Time
	LastError   error
	RunCount    int64
	ErrorCount  int64
	AvgDuration time.Duration
	Enabled     bool
}

// BaseWorker provides name, interval, enable switch and run bookkeeping
type BaseWorker struct {
	name string
	log  *logger.Logger

	mu            sync.RWMutex
	interval      time.Duration
	enabled       bool
	lastRun       time.Time
	lastError     error
	runCount      int64
	errorCount    int64
	totalDuration time.Duration

	wake chan struct{}
}

// NewBaseWorker creates a new base worker
func NewBaseWorker(name string, interval time.Duration, enabled bool) *BaseWorker {
	return &BaseWorker{
		name:     name,
		interval: interval,
		enabled:  enabled,
		log:      logger.Get().With("worker", name),
		wake:     make(chan struct{}, 1),
	}
}

// Name returns the worker name
func (w *BaseWorker) Name() string {
	return w.name
}

// Interval returns the run interval
func (w *BaseWorker) Interval() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.interval
}

// SetInterval changes the pause between iterations and wakes the loop
func (w *BaseWorker) SetInterval(d time.Duration) {
	w.mu.Lock()
	w.interval = d
	w.mu.Unlock()
	w.log.Infow("Worker interval changed", "interval", d)
	w.notify()
}

// Enabled returns whether the worker is enabled
func (w *BaseWorker) Enabled() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.enabled
}

// SetEnabled updates the enabled status and wakes the loop
func (w *BaseWorker) SetEnabled(enabled bool) {
	w.mu.Lock()
	w.enabled = enabled
	w.mu.Unlock()
	w.log.Infof("Worker enabled state changed to: %v", enabled)
	w.notify()
}

// Wake implements Waker
func (w *BaseWorker) Wake() <-chan struct{} {
	return w.wake
}

func (w *BaseWorker) notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Log returns the logger
func (w *BaseWorker) Log() *logger.Logger {
	return w.log
}

// Health returns health information for the worker
func (w *BaseWorker) Health() Health {
	w.mu.RLock()
	defer w.mu.RUnlock()

	avg := time.Duration(0)
	if w.runCount > 0 {
		avg = time.Duration(int64(w.totalDuration) / w.runCount)
	}
	return Health{
		LastRun:     w.lastRun,
		LastError:   w.lastError,
		RunCount:    w.runCount,
		ErrorCount:  w.errorCount,
		AvgDuration: avg,
		Enabled:     w.enabled,
	}
}

// RecordRun records a finished iteration, err may be nil
func (w *BaseWorker) RecordRun(duration time.Duration, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.lastRun = time.Now()
	w.runCount++
	w.totalDuration += duration
	w.lastError = err
	if err != nil {
		w.errorCount++
	}
}
