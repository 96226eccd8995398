package bootstrap

import (
	"oitracker/internal/adapters/config"
	ingestsvc "oitracker/internal/services/ingest"
	"oitracker/internal/workers"
	ingestworker "oitracker/internal/workers/ingest"
	"oitracker/internal/workers/retention"
	"oitracker/pkg/logger"
)

// provideWorkers builds the ingest worker and registers it with a scheduler
func provideWorkers(cfg *config.Config, batcher *ingestsvc.Service) (*ingestworker.Worker, *workers.Scheduler, error) {
	hours, err := ingestworker.ParseMarketHours(cfg.Ingest.MarketTZ, cfg.Ingest.MarketOpen, cfg.Ingest.MarketClose)
	if err != nil {
		return nil, nil, err
	}

	worker := ingestworker.NewWorker(batcher, ingestworker.Config{
		Interval:     cfg.Ingest.Interval,
		IdleInterval: cfg.Ingest.IdleInterval,
		ErrorBackoff: cfg.Ingest.ErrorBackoff,
		Hours:        hours,
		AutoStart:    cfg.Ingest.AutoStart,
	})

	scheduler := workers.NewScheduler()
	scheduler.RegisterWorker(worker)

	logger.Get().Infow("✓ Ingest worker registered",
		"interval", cfg.Ingest.Interval,
		"market_open", cfg.Ingest.MarketOpen,
		"market_close", cfg.Ingest.MarketClose,
		"timezone", cfg.Ingest.MarketTZ,
		"enabled", cfg.Ingest.AutoStart,
	)
	return worker, scheduler, nil
}

// provideRetention builds the nightly pruning job for processing runs
func provideRetention(cfg *config.Config, pruner retention.Pruner) (*retention.Job, error) {
	return retention.NewJob(pruner, cfg.Retention.Schedule, cfg.Retention.Days, cfg.Ingest.Location())
}
