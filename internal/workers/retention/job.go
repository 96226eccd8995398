package retention

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"oitracker/internal/metrics"
	"oitracker/pkg/errors"
	"oitracker/pkg/logger"
)

// Name labels the job in logs and metrics
const Name = "retention"

// Pruner deletes processing runs older than a cutoff.
// processing.Repository satisfies it.
type Pruner interface {
	DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Job prunes processing history on a cron schedule
type Job struct {
	pruner   Pruner
	schedule string
	keep     time.Duration
	cron     *cron.Cron
	log      *logger.Logger
	now      func() time.Time

	mu      sync.Mutex
	running bool
}

// NewJob validates the standard five-field schedule. Runs older than
// days are deleted on every firing.
func NewJob(pruner Pruner, schedule string, days int, loc *time.Location) (*Job, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, errors.NewValidationError("RETENTION_SCHEDULE", err.Error(), schedule)
	}
	if days < 1 {
		return nil, errors.NewValidationError("RETENTION_DAYS", "must be at least 1", days)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Job{
		pruner:   pruner,
		schedule: schedule,
		keep:     time.Duration(days) * 24 * time.Hour,
		cron:     cron.New(cron.WithLocation(loc)),
		log:      logger.Get().With("component", "retention"),
		now:      time.Now,
	}, nil
}

// Start registers the schedule and starts the cron runner
func (j *Job) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return errors.Wrap(errors.ErrInternal, "retention job already started")
	}
	if _, err := j.cron.AddFunc(j.schedule, func() {
		_, _ = j.RunOnce(ctx)
	}); err != nil {
		return errors.Wrap(err, "schedule retention job")
	}

	j.cron.Start()
	j.running = true
	j.log.Infow("Retention job scheduled", "schedule", j.schedule, "keep", j.keep)
	return nil
}

// Stop halts the scheduler and waits for a running prune
func (j *Job) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		return
	}
	<-j.cron.Stop().Done()
	j.running = false
	j.log.Info("Retention job stopped")
}

// RunOnce deletes runs older than the retention window
func (j *Job) RunOnce(ctx context.Context) (int64, error) {
	cutoff := j.now().UTC().Add(-j.keep)

	deleted, err := j.pruner.DeleteRunsBefore(ctx, cutoff)
	if err != nil {
		metrics.RecordWorkerRun(Name, "error")
		j.log.Errorw("Pruning processing runs failed", "cutoff", cutoff, "error", err)
		return 0, errors.Wrap(err, "prune processing runs")
	}

	metrics.RecordWorkerRun(Name, "success")
	j.log.Infow("Pruned processing runs", "deleted", deleted, "cutoff", cutoff)
	return deleted, nil
}
