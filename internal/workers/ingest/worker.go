package ingest

import (
	"context"
	"sync/atomic"
	"time"

	ingestsvc "oitracker/internal/services/ingest"
	"oitracker/internal/workers"
	"oitracker/pkg/errors"
)

// Name is the scheduler name of the ingest worker
const Name = "ingest"

// Batcher runs full batches. *ingestsvc.Service satisfies it.
type Batcher interface {
	ProcessAll(ctx context.Context, opts ingestsvc.Options) (*ingestsvc.BatchResult, error)
	LastBatch() (time.Time, int)
}

// Config tunes the worker's pacing
type Config struct {
	Interval     time.Duration
	IdleInterval time.Duration
	ErrorBackoff time.Duration
	Hours        MarketHours
	AutoStart    bool
}

// Status is the background-processor view served over HTTP
type Status struct {
	IsRunning        bool       `json:"is_running"`
	IsMarketHours    bool       `json:"is_market_hours"`
	ProcessInterval  int        `json:"process_interval"`
	LastProcessTime  *time.Time `json:"last_process_time"`
	LastProcessCount int        `json:"last_process_count"`
}

// Worker re-processes the workbooks every interval while the market is
// open and idles outside market hours.
type Worker struct {
	*workers.BaseWorker
	batcher Batcher
	cfg     Config
	now     func() time.Time

	marketClosed atomic.Bool
}

var (
	_ workers.Worker = (*Worker)(nil)
	_ workers.Paced  = (*Worker)(nil)
	_ workers.Waker  = (*Worker)(nil)
)

// NewWorker creates the ingest worker. It only processes after Start
// unless cfg.AutoStart is set.
func NewWorker(batcher Batcher, cfg Config) *Worker {
	if cfg.Interval < time.Second {
		cfg.Interval = time.Second
	}
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = 5 * time.Minute
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = time.Minute
	}
	return &Worker{
		BaseWorker: workers.NewBaseWorker(Name, cfg.Interval, cfg.AutoStart),
		batcher:    batcher,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Run processes one batch if the market is open
func (w *Worker) Run(ctx context.Context) error {
	if !w.cfg.Hours.Contains(w.now()) {
		w.marketClosed.Store(true)
		w.Log().Infow("Market closed, next check later", "idle_interval", w.cfg.IdleInterval)
		return nil
	}
	w.marketClosed.Store(false)

	res, err := w.batcher.ProcessAll(ctx, ingestsvc.Options{ClearExisting: true, Trigger: Name})
	if errors.Is(err, errors.ErrBatchInProgress) {
		w.Log().Debug("Another batch is running, skipping this tick")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "background batch")
	}

	w.Log().Infow("Stocks updated",
		"processed", res.SuccessCount,
		"total", res.TotalCount,
		"duration_ms", res.DurationMS,
	)
	return nil
}

// NextDelay keeps a fixed cadence while the market is open
func (w *Worker) NextDelay(elapsed time.Duration, ran bool, err error) time.Duration {
	switch {
	case !ran:
		return w.cfg.IdleInterval
	case err != nil:
		return w.cfg.ErrorBackoff
	case w.marketClosed.Load():
		return w.cfg.IdleInterval
	}
	if d := w.Interval() - elapsed; d > time.Second {
		return d
	}
	return time.Second
}

// Start resumes processing. It reports false if already running.
func (w *Worker) Start() bool {
	if w.Enabled() {
		w.Log().Warn("Background processor already running")
		return false
	}
	w.SetEnabled(true)
	return true
}

// Stop pauses processing after the in-flight batch. It reports false if
// not running.
func (w *Worker) Stop() bool {
	if !w.Enabled() {
		w.Log().Warn("Background processor not running")
		return false
	}
	w.SetEnabled(false)
	return true
}

// UpdateInterval changes the cadence used during market hours
func (w *Worker) UpdateInterval(d time.Duration) error {
	if d < time.Second {
		return errors.NewValidationError("seconds", "Interval must be at least 1 second", int(d/time.Second))
	}
	w.SetInterval(d)
	return nil
}

// Status reports the worker and last batch state
func (w *Worker) Status() Status {
	st := Status{
		IsRunning:       w.Enabled(),
		IsMarketHours:   w.cfg.Hours.Contains(w.now()),
		ProcessInterval: int(w.Interval() / time.Second),
	}
	if last, count := w.batcher.LastBatch(); !last.IsZero() {
		st.LastProcessTime = &last
		st.LastProcessCount = count
	}
	return st
}
