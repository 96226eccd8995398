package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"oitracker/internal/metrics"
	"oitracker/pkg/errors"
	"oitracker/pkg/logger"
)

// recorder is implemented by workers embedding BaseWorker
type recorder interface {
	RecordRun(duration time.Duration, err error)
}

// Scheduler runs each registered worker in its own loop
type Scheduler struct {
	workers []Worker
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	log     *logger.Logger
	started bool

	shutdownTimeout time.Duration
}

// NewScheduler creates a new worker scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{
		workers:         make([]Worker, 0),
		log:             logger.Get().With("component", "scheduler"),
		shutdownTimeout: time.Minute,
	}
}

// RegisterWorker adds a worker to the scheduler
func (s *Scheduler) RegisterWorker(w Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		s.log.Warnw("Cannot register worker after scheduler has started", "worker", w.Name())
		return
	}

	s.workers = append(s.workers, w)
	s.log.Infow("Worker registered", "worker", w.Name(), "interval", w.Interval())
}

// Start launches a loop per registered worker
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrInternal, "scheduler already started")
	}

	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.log.Infow("Starting worker scheduler", "workers", len(s.workers))
	for _, worker := range s.workers {
		s.wg.Add(1)
		go s.runWorker(worker)
	}
	return nil
}

// Stop cancels every loop and waits for in-flight iterations.
// A batch in progress completes its launched symbols before returning.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrInternal, "scheduler not started")
	}
	s.cancel()
	s.mu.Unlock()

	s.log.Info("Stopping worker scheduler...")

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var shutdownErr error
	select {
	case <-done:
		s.log.Info("All workers stopped gracefully")
	case <-time.After(s.shutdownTimeout):
		s.log.Warnw("Worker shutdown timed out", "timeout", s.shutdownTimeout)
		shutdownErr = errors.Wrapf(errors.ErrTimeout, "shutdown timeout after %s", s.shutdownTimeout)
	}

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()

	return shutdownErr
}

// runWorker iterates immediately, then after each pause
func (s *Scheduler) runWorker(worker Worker) {
	defer s.wg.Done()

	s.log.Infow("Worker started", "worker", worker.Name())

	var wake <-chan struct{}
	if w, ok := worker.(Waker); ok {
		wake = w.Wake()
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.log.Infow("Worker stopping due to context cancellation", "worker", worker.Name())
			return
		case <-wake:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-timer.C:
		}

		timer.Reset(s.executeWorker(worker))
	}
}

// executeWorker runs one iteration, if enabled, and returns the pause
// before the next one
func (s *Scheduler) executeWorker(worker Worker) (delay time.Duration) {
	start := time.Now()
	ran := worker.Enabled()
	var err error

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panicked: %v", r)
			s.log.Errorw("Worker panicked", "worker", worker.Name(), "panic", r)
			delay = s.pause(worker, time.Since(start), ran, err)
		}
	}()

	if ran {
		err = worker.Run(s.ctx)
		s.observe(worker, time.Since(start), err)
	}
	return s.pause(worker, time.Since(start), ran, err)
}

func (s *Scheduler) observe(worker Worker, elapsed time.Duration, err error) {
	if rec, ok := worker.(recorder); ok {
		rec.RecordRun(elapsed, err)
	}

	outcome := "success"
	if err != nil {
		outcome = "error"
		s.log.Errorw("Worker execution failed",
			"worker", worker.Name(),
			"error", err,
			"duration", elapsed,
		)
	} else {
		s.log.Debugw("Worker execution completed",
			"worker", worker.Name(),
			"duration", elapsed,
		)
	}
	metrics.RecordWorkerRun(worker.Name(), outcome)
}

func (s *Scheduler) pause(worker Worker, elapsed time.Duration, ran bool, err error) time.Duration {
	if p, ok := worker.(Paced); ok {
		return p.NextDelay(elapsed, ran, err)
	}
	return worker.Interval()
}

// GetWorkers returns a list of all registered workers
func (s *Scheduler) GetWorkers() []Worker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workers := make([]Worker, len(s.workers))
	copy(workers, s.workers)
	return workers
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
