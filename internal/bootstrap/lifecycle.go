package bootstrap

import (
	"context"
	"sync"
	"time"

	chclient "oitracker/internal/adapters/clickhouse"
	"oitracker/internal/adapters/kafka"
	pgclient "oitracker/internal/adapters/postgres"
	redisclient "oitracker/internal/adapters/redis"
	"oitracker/internal/api"
	"oitracker/internal/api/stream"
	chrepo "oitracker/internal/repository/clickhouse"
	"oitracker/internal/workers"
	"oitracker/internal/workers/retention"
	"oitracker/pkg/errors"
	"oitracker/pkg/logger"
)

// Lifecycle manages graceful startup and shutdown of components
type Lifecycle struct {
	shutdownTimeout time.Duration
}

// NewLifecycle creates a new lifecycle manager
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		shutdownTimeout: 90 * time.Second,
	}
}

// ShutdownTargets lists everything Shutdown closes. Nil fields are skipped.
type ShutdownTargets struct {
	HTTPServer      *api.Server
	WorkerScheduler *workers.Scheduler
	Retention       *retention.Job
	Hub             *stream.Hub
	RelayConsumer   *kafka.Consumer
	KafkaProducer   *kafka.Producer
	History         *chrepo.HistoryRepository
	PG              *pgclient.Client
	CH              *chclient.Client
	Redis           *redisclient.Client
	ErrorTracker    errors.Tracker
}

// Shutdown performs coordinated cleanup of all components in the correct order:
// 1. No new requests accepted
// 2. Workers finish the batch in flight
// 3. Kafka consumer unblocks before waiting for goroutines
// 4. Buffered history points are flushed
// 5. Producer closes after the last batch event
// 6. Database connections last (other components may need them)
func (l *Lifecycle) Shutdown(wg *sync.WaitGroup, t ShutdownTargets, log *logger.Logger) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), l.shutdownTimeout)
	defer shutdownCancel()

	// ========================================
	// Step 1: Stop HTTP Server (5s timeout)
	// ========================================
	log.Info("[1/9] Stopping HTTP server...")
	if t.HTTPServer != nil {
		httpCtx, httpCancel := context.WithTimeout(shutdownCtx, 5*time.Second)
		if err := t.HTTPServer.Shutdown(httpCtx); err != nil {
			log.Errorw("HTTP server shutdown failed", "error", err)
		}
		httpCancel()
	}
	if t.Hub != nil {
		t.Hub.Close()
		log.Info("✓ Stream clients disconnected")
	}

	// ========================================
	// Step 2: Stop Background Workers
	// ========================================
	log.Info("[2/9] Stopping background workers...")
	if t.WorkerScheduler != nil {
		if err := t.WorkerScheduler.Stop(); err != nil {
			log.Errorw("Workers shutdown failed", "error", err)
		} else {
			log.Info("✓ Workers stopped")
		}
	}
	if t.Retention != nil {
		t.Retention.Stop()
		log.Info("✓ Retention job stopped")
	}

	// ========================================
	// Step 3: Close Kafka Consumer
	// Critical: close BEFORE waiting for goroutines to unblock ReadMessage()
	// ========================================
	log.Info("[3/9] Closing Kafka consumer...")
	if t.RelayConsumer != nil {
		if err := t.RelayConsumer.Close(); err != nil {
			log.Errorw("Kafka consumer close failed", "error", err)
		}
	}

	// ========================================
	// Step 4: Wait for Goroutines
	// ========================================
	log.Info("[4/9] Waiting for background goroutines...")
	l.waitForGoroutines(wg, 10*time.Second, log)

	// ========================================
	// Step 5: Flush History Writer
	// ========================================
	log.Info("[5/9] Flushing history writer...")
	if t.History != nil {
		if err := t.History.Stop(shutdownCtx); err != nil {
			log.Errorw("History flush failed", "error", err)
		} else {
			log.Info("✓ History flushed")
		}
	}

	// ========================================
	// Step 6: Close Kafka Producer
	// ========================================
	log.Info("[6/9] Closing Kafka producer...")
	if t.KafkaProducer != nil {
		if err := t.KafkaProducer.Close(); err != nil {
			log.Errorw("Kafka producer close failed", "error", err)
		} else {
			log.Info("✓ Kafka producer closed")
		}
	}

	// ========================================
	// Step 7: Flush Error Tracker
	// ========================================
	log.Info("[7/9] Flushing error tracker...")
	l.flushErrorTracker(shutdownCtx, t.ErrorTracker, log)

	// ========================================
	// Step 8: Sync Logs
	// ========================================
	log.Info("[8/9] Syncing logs...")
	_ = logger.Sync()

	// ========================================
	// Step 9: Close Database Connections
	// LAST - other components may need them during shutdown
	// ========================================
	log.Info("[9/9] Closing database connections...")
	l.closeDatabases(t.PG, t.CH, t.Redis, log)

	log.Info("✅ Graceful shutdown complete")
}

// waitForGoroutines waits for all goroutines with a timeout
func (l *Lifecycle) waitForGoroutines(wg *sync.WaitGroup, timeout time.Duration, log *logger.Logger) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("✓ All goroutines finished")
	case <-time.After(timeout):
		log.Warnw("⚠ Some goroutines did not finish within timeout", "timeout", timeout)
	}
}

// flushErrorTracker flushes the error tracker (Sentry, etc.)
func (l *Lifecycle) flushErrorTracker(ctx context.Context, tracker errors.Tracker, log *logger.Logger) {
	if tracker == nil {
		return
	}

	flushCtx, flushCancel := context.WithTimeout(ctx, 3*time.Second)
	defer flushCancel()

	if err := tracker.Flush(flushCtx); err != nil {
		log.Errorw("Error tracker flush failed", "error", err)
	} else {
		log.Info("✓ Error tracker flushed")
	}
}

// closeDatabases closes all database connections
func (l *Lifecycle) closeDatabases(
	pgClient *pgclient.Client,
	chClient *chclient.Client,
	redisClient *redisclient.Client,
	log *logger.Logger,
) {
	merr := &errors.MultiError{}

	if pgClient != nil {
		if err := pgClient.Close(); err != nil {
			merr.Add(errors.Wrap(err, "postgres"))
		}
	}

	if chClient != nil {
		if err := chClient.Close(); err != nil {
			merr.Add(errors.Wrap(err, "clickhouse"))
		}
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			merr.Add(errors.Wrap(err, "redis"))
		}
	}

	if merr.HasErrors() {
		log.Errorw("Database close errors", "errors", merr.Messages(0))
	} else {
		log.Info("✓ Database connections closed")
	}
}
