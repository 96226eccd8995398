package bootstrap

import (
	"context"
	"sync"

	chclient "oitracker/internal/adapters/clickhouse"
	"oitracker/internal/adapters/config"
	"oitracker/internal/adapters/kafka"
	pgclient "oitracker/internal/adapters/postgres"
	redisclient "oitracker/internal/adapters/redis"
	"oitracker/internal/adapters/telegram"
	"oitracker/internal/api"
	"oitracker/internal/api/health"
	"oitracker/internal/api/stream"
	"oitracker/internal/consumers"
	"oitracker/internal/domain/history"
	"oitracker/internal/domain/snapshot"
	"oitracker/internal/events"
	chrepo "oitracker/internal/repository/clickhouse"
	pgrepo "oitracker/internal/repository/postgres"
	redisrepo "oitracker/internal/repository/redis"
	ingestsvc "oitracker/internal/services/ingest"
	"oitracker/internal/workers"
	ingestworker "oitracker/internal/workers/ingest"
	"oitracker/internal/workers/retention"
	"oitracker/pkg/errors"
	"oitracker/pkg/logger"
)

// Container holds all application dependencies and their lifecycle
// Components are organized in initialization order
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure Layer (Data stores). CH and Redis are optional.
	PG    *pgclient.Client
	CH    *chclient.Client
	Redis *redisclient.Client

	Repos       *Repositories
	Services    *Services
	Adapters    *Adapters
	Application *Application
	Background  *Background

	// Lifecycle management
	Lifecycle *Lifecycle
	WG        *sync.WaitGroup
	Context   context.Context
	Cancel    context.CancelFunc
}

// Repositories groups all storage implementations
type Repositories struct {
	Snapshot     *pgrepo.SnapshotRepository
	Processing   *pgrepo.ProcessingRepository
	History      *chrepo.HistoryRepository // nil without ClickHouse
	SummaryCache *redisrepo.SummaryCache   // nil without Redis
	RunLock      ingestsvc.Lock
}

// Services groups all domain services
type Services struct {
	Snapshot *snapshot.Service
	History  *history.Service // nil without ClickHouse
	Ingest   *ingestsvc.Service
}

// Adapters groups all external adapters
type Adapters struct {
	KafkaProducer *kafka.Producer
	RelayConsumer *kafka.Consumer
	TelegramBot   *telegram.Bot

	// Events fans batch completions out to every configured sink
	Events *events.Fanout
	Hub    *stream.Hub
}

// Application groups application layer components
type Application struct {
	HTTPServer    *api.Server
	HealthHandler *health.Handler
}

// Background groups all background processing components
type Background struct {
	WorkerScheduler *workers.Scheduler
	IngestWorker    *ingestworker.Worker
	Retention       *retention.Job
	StreamRelay     *consumers.StreamRelay // nil without Kafka
}

// NewContainer creates a new dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Repos:       &Repositories{},
		Services:    &Services{},
		Adapters:    &Adapters{},
		Application: &Application{},
		Background:  &Background{},
		Lifecycle:   NewLifecycle(),
		WG:          &sync.WaitGroup{},
		Context:     ctx,
		Cancel:      cancel,
	}
}

// MustInit initializes all components in the correct order
// Panics on any initialization error (fail-fast at startup)
func (c *Container) MustInit() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitRepositories()
	c.MustInitAdapters()
	c.MustInitServices()
	c.MustInitBackground()
	c.MustInitApplication()
}

// Start starts all background components
func (c *Container) Start() error {
	c.Log.Info("Starting all systems...")

	if c.Repos.History != nil {
		c.Repos.History.Start(c.Context)
		c.Log.Info("✓ History writer started")
	}

	if err := c.Background.WorkerScheduler.Start(c.Context); err != nil {
		return errors.Wrap(err, "failed to start workers")
	}
	if err := c.Background.Retention.Start(c.Context); err != nil {
		return errors.Wrap(err, "failed to start retention job")
	}

	if relay := c.Background.StreamRelay; relay != nil {
		c.WG.Add(1)
		go func() {
			defer c.WG.Done()
			if err := relay.Start(c.Context); err != nil && c.Context.Err() == nil {
				c.Log.Errorw("Stream relay failed", "error", err)
			}
		}()
		c.Log.Info("✓ Stream relay started")
	}

	// Start HTTP server
	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.Application.HTTPServer.Start(); err != nil {
			c.Log.Errorf("HTTP server failed: %v", err)
			c.Cancel() // Trigger shutdown on fatal HTTP error
		}
	}()

	c.Log.Infow("✓ All systems operational",
		"stocks", len(c.Config.Data.Universe()),
		"background_autostart", c.Config.Ingest.AutoStart,
	)
	return nil
}

// Shutdown performs graceful shutdown in the correct order
func (c *Container) Shutdown() {
	c.Log.Info("Initiating graceful shutdown...")

	// Cancel application context to signal all other components to stop
	c.Cancel()

	c.Lifecycle.Shutdown(c.WG, c.shutdownTargets(), c.Log)
}

func (c *Container) shutdownTargets() ShutdownTargets {
	return ShutdownTargets{
		HTTPServer:      c.Application.HTTPServer,
		WorkerScheduler: c.Background.WorkerScheduler,
		Retention:       c.Background.Retention,
		Hub:             c.Adapters.Hub,
		RelayConsumer:   c.Adapters.RelayConsumer,
		KafkaProducer:   c.Adapters.KafkaProducer,
		History:         c.Repos.History,
		PG:              c.PG,
		CH:              c.CH,
		Redis:           c.Redis,
		ErrorTracker:    c.ErrorTracker,
	}
}
