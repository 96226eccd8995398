package bootstrap

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	chclient "oitracker/internal/adapters/clickhouse"
	"oitracker/internal/adapters/config"
	errnoop "oitracker/internal/adapters/errors/noop"
	"oitracker/internal/adapters/errors/sentry"
	"oitracker/internal/adapters/kafka"
	pgclient "oitracker/internal/adapters/postgres"
	redisclient "oitracker/internal/adapters/redis"
	"oitracker/internal/adapters/telegram"
	"oitracker/internal/api"
	"oitracker/internal/api/handlers"
	"oitracker/internal/api/health"
	"oitracker/internal/api/stream"
	"oitracker/internal/consumers"
	"oitracker/internal/domain/history"
	"oitracker/internal/domain/snapshot"
	"oitracker/internal/events"
	"oitracker/internal/metrics"
	chrepo "oitracker/internal/repository/clickhouse"
	pgrepo "oitracker/internal/repository/postgres"
	redisrepo "oitracker/internal/repository/redis"
	ingestsvc "oitracker/internal/services/ingest"
	"oitracker/pkg/errors"
	"oitracker/pkg/logger"
)

// runLockName keys the Redis lock shared by every replica
const runLockName = "batch"

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes logger
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.InitWithOptions(logger.Options{
		Level:      cfg.Log.Level,
		Env:        cfg.App.Env,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s %s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Env)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure connects the data stores. Postgres is required,
// ClickHouse and Redis only when enabled.
func (c *Container) MustInitInfrastructure() {
	var err error

	c.Log.Info("Connecting to PostgreSQL...")
	c.PG, err = pgclient.NewClient(c.Config.Postgres)
	if err != nil {
		c.Log.Fatalf("failed to connect postgres: %v", err)
	}
	if err := c.PG.Migrate(c.Context); err != nil {
		c.Log.Fatalf("failed to migrate postgres: %v", err)
	}
	c.Log.Info("✓ PostgreSQL connected")

	if c.Config.ClickHouse.Enabled {
		c.Log.Info("Connecting to ClickHouse...")
		c.CH, err = chclient.NewClient(c.Config.ClickHouse)
		if err != nil {
			c.Log.Fatalf("failed to connect clickhouse: %v", err)
		}
		if err := c.CH.Migrate(c.Context); err != nil {
			c.Log.Fatalf("failed to migrate clickhouse: %v", err)
		}
		c.Log.Info("✓ ClickHouse connected")
	}

	if c.Config.Redis.Enabled {
		c.Log.Info("Connecting to Redis...")
		c.Redis, err = redisclient.NewClient(c.Config.Redis)
		if err != nil {
			c.Log.Fatalf("failed to connect redis: %v", err)
		}
		c.Log.Info("✓ Redis connected")
	}

	metrics.Init()
	prometheus.MustRegister(metrics.NewStoreCollector(c.PG.DB()))
}

// ========================================
// Phase 3: Repositories
// ========================================

// MustInitRepositories initializes all storage implementations
func (c *Container) MustInitRepositories() {
	c.Repos.Snapshot = pgrepo.NewSnapshotRepository(c.PG.DB())
	c.Repos.Processing = pgrepo.NewProcessingRepository(c.PG.DB())

	if c.CH != nil {
		c.Repos.History = chrepo.NewHistoryRepository(
			c.CH.Conn(),
			c.Config.ClickHouse.BatchSize,
			c.Config.ClickHouse.FlushEvery,
		)
	}

	if c.Redis != nil {
		c.Repos.SummaryCache = redisrepo.NewSummaryCache(c.Redis.Client(), c.Config.Redis.CacheTTL)
		c.Repos.RunLock = redisrepo.NewRunLock(c.Redis.Client(), runLockName, c.Config.Redis.LockTTL)
	} else {
		c.Repos.RunLock = ingestsvc.NewLocalLock()
	}

	c.Log.Info("✓ Repositories initialized")
}

// ========================================
// Phase 4: External Adapters
// ========================================

// MustInitAdapters wires the event sinks: the websocket hub always, Kafka
// and Telegram when enabled
func (c *Container) MustInitAdapters() {
	c.Adapters.Hub = stream.NewHub(c.Config.HTTP.AllowedOrigins)
	c.Adapters.Events = events.NewFanout()

	if c.Config.Kafka.Enabled {
		// Batch events reach the local hub through the relay so every
		// replica sees every batch exactly once
		c.Adapters.KafkaProducer = provideKafkaProducer(c.Config, c.Log)
		c.Adapters.Events.Add(events.NewPublisher(c.Adapters.KafkaProducer))
		c.Adapters.RelayConsumer = provideRelayConsumer(c.Config, c.Log)
	} else {
		c.Adapters.Events.Add(c.Adapters.Hub)
	}

	if c.Config.Telegram.Enabled {
		bot, err := telegram.NewBot(telegram.Config{
			Token: c.Config.Telegram.BotToken,
			Debug: c.Config.App.Debug,
		})
		if err != nil {
			c.Log.Fatalf("failed to create telegram bot: %v", err)
		}
		c.Adapters.TelegramBot = bot
		c.Adapters.Events.Add(telegram.NewNotifier(bot, c.Config.Telegram.ChatID, c.Config.App.Name))
		c.Log.Info("✓ Telegram alerts enabled")
	}

	c.Log.Infow("✓ Event sinks configured", "sinks", c.Adapters.Events.Len())
}

// ========================================
// Phase 5: Domain Services
// ========================================

// MustInitServices initializes the snapshot, history and ingest services
func (c *Container) MustInitServices() {
	cfg := c.Config

	// Typed nils must not leak into the optional interfaces
	var cache snapshot.Cache
	if c.Repos.SummaryCache != nil {
		cache = c.Repos.SummaryCache
	}
	c.Services.Snapshot = snapshot.NewService(c.Repos.Snapshot, cache, cfg.Data.Universe(), cfg.Data.FavoritesFile)

	var recorder ingestsvc.HistoryRecorder
	if c.Repos.History != nil {
		c.Services.History = history.NewService(c.Repos.History)
		recorder = c.Services.History
	}

	c.Services.Ingest = ingestsvc.NewService(ingestsvc.Config{
		Source:        ingestsvc.NewFileSource(cfg.Data.HistPath(), cfg.Data.LivePath(), cfg.Ingest.Location()),
		Store:         c.Repos.Snapshot,
		Runs:          c.Repos.Processing,
		Lock:          c.Repos.RunLock,
		History:       recorder,
		Invalidator:   c.Services.Snapshot,
		Events:        c.Adapters.Events,
		Tracker:       c.ErrorTracker,
		Universe:      cfg.Data.Universe(),
		Concurrency:   cfg.Ingest.Concurrency,
		SymbolTimeout: cfg.Ingest.SymbolTimeout,
	})

	c.Log.Infow("✓ Services initialized",
		"historical", cfg.Data.HistPath(),
		"live", cfg.Data.LivePath(),
		"concurrency", cfg.Ingest.Concurrency,
	)
}

// ========================================
// Phase 6: Background Processing
// ========================================

// MustInitBackground initializes the scheduler, retention job and relay
func (c *Container) MustInitBackground() {
	var err error

	c.Background.IngestWorker, c.Background.WorkerScheduler, err = provideWorkers(c.Config, c.Services.Ingest)
	if err != nil {
		c.Log.Fatalf("failed to init workers: %v", err)
	}

	c.Background.Retention, err = provideRetention(c.Config, c.Repos.Processing)
	if err != nil {
		c.Log.Fatalf("failed to init retention job: %v", err)
	}

	if c.Adapters.RelayConsumer != nil {
		c.Background.StreamRelay = consumers.NewStreamRelay(c.Adapters.RelayConsumer, c.Adapters.Hub)
	}

	c.Log.Info("✓ Background components initialized")
}

// ========================================
// Phase 7: Application Layer
// ========================================

// MustInitApplication initializes the health checks and the HTTP server
func (c *Container) MustInitApplication() {
	c.Application.HealthHandler = provideHealthHandler(c)
	c.Application.HTTPServer = provideHTTPServer(c)
	c.Log.Infow("✓ HTTP server configured", "addr", c.Config.HTTP.Addr())
}

// ========================================
// Providers
// ========================================

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(sentry.Options{
		DSN:         cfg.ErrorTracking.SentryDSN,
		Environment: cfg.ErrorTracking.Environment,
		Release:     cfg.App.Version,
	})
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

func provideKafkaProducer(cfg *config.Config, log *logger.Logger) *kafka.Producer {
	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
	})
	log.Infow("✓ Kafka producer created", "brokers", cfg.Kafka.Brokers)
	return producer
}

// provideRelayConsumer joins a group of its own, so each replica reads
// every batch event
func provideRelayConsumer(cfg *config.Config, log *logger.Logger) *kafka.Consumer {
	instance, err := os.Hostname()
	if err != nil || instance == "" {
		instance = "local"
	}
	return kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		GroupID: kafka.GroupStreamRelay + "-" + instance,
		Topic:   kafka.TopicBatchCompleted,
	})
}

func provideHealthHandler(c *Container) *health.Handler {
	h := health.New(c.Config.App.Name, c.Config.App.Version)
	h.AddCheck("postgres", c.PG.Health)
	if c.CH != nil {
		h.AddCheck("clickhouse", c.CH.Health)
	}
	if c.Redis != nil {
		h.AddCheck("redis", c.Redis.Health)
	}
	h.AddCheck("workbooks", func(ctx context.Context) error {
		for _, path := range []string{c.Config.Data.HistPath(), c.Config.Data.LivePath()} {
			if _, err := os.Stat(path); err != nil {
				return errors.Wrapf(errors.ErrDocumentsMissing, "%s", path)
			}
		}
		return nil
	})
	return h
}

func provideHTTPServer(c *Container) *api.Server {
	cfg := c.Config

	var hist handlers.HistoryReader
	if c.Services.History != nil {
		hist = c.Services.History
	}

	return api.NewServer(api.ServerConfig{
		Addr:           cfg.HTTP.Addr(),
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		TriggerRPS:     cfg.HTTP.TriggerRPS,
		TriggerBurst:   cfg.HTTP.TriggerBurst,
	}, api.Handlers{
		Health: c.Application.HealthHandler,
		Stocks: handlers.NewStocks(c.Services.Snapshot, hist),
		Upload: handlers.NewUpload(handlers.UploadConfig{
			HistPath: cfg.Data.HistPath(),
			LivePath: cfg.Data.LivePath(),
			MaxBytes: cfg.HTTP.MaxUploadMB << 20,
		}, c.Services.Ingest, c.Services.Snapshot, c.Repos.Processing),
		Process:    handlers.NewProcess(c.Context, c.Services.Ingest),
		Background: handlers.NewBackground(c.Background.IngestWorker),
		Stream:     c.Adapters.Hub,
	})
}
