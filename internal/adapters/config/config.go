package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"

	"oitracker/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	Log           LogConfig
	Postgres      PostgresConfig
	ClickHouse    ClickHouseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Telegram      TelegramConfig
	ErrorTracking ErrorTrackingConfig
	Data          DataConfig
	Ingest        IngestConfig
	Retention     RetentionConfig
}

type AppConfig struct {
	Name    string `envconfig:"APP_NAME" default:"Options Dashboard API"`
	Version string `envconfig:"APP_VERSION" default:"1.0.0"`
	Env     string `envconfig:"APP_ENV" default:"development"`
	Debug   bool   `envconfig:"DEBUG" default:"false"`
}

type HTTPConfig struct {
	Host           string   `envconfig:"HOST" default:"0.0.0.0"`
	Port           int      `envconfig:"PORT" default:"8000"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
	MaxUploadMB    int64    `envconfig:"MAX_UPLOAD_MB" default:"50"`

	// Token bucket guarding the manual processing triggers
	TriggerRPS   float64 `envconfig:"TRIGGER_RATE_PER_SEC" default:"0.5"`
	TriggerBurst int     `envconfig:"TRIGGER_BURST" default:"3"`
}

func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	File       string `envconfig:"LOG_FILE"`
	MaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"100"`
	MaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"5"`
	MaxAgeDays int    `envconfig:"LOG_MAX_AGE_DAYS" default:"14"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// ClickHouseConfig configures the intraday live-row history store
type ClickHouseConfig struct {
	Enabled  bool   `envconfig:"CLICKHOUSE_ENABLED" default:"false"`
	Host     string `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"oitracker"`

	BatchSize  int           `envconfig:"CLICKHOUSE_BATCH_SIZE" default:"2000"`
	FlushEvery time.Duration `envconfig:"CLICKHOUSE_FLUSH_INTERVAL" default:"10s"`
}

// RedisConfig configures the summary cache and the batch run lock
type RedisConfig struct {
	Enabled  bool          `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int           `envconfig:"REDIS_PORT" default:"6379"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL time.Duration `envconfig:"REDIS_SUMMARY_TTL" default:"30s"`
	LockTTL  time.Duration `envconfig:"REDIS_BATCH_LOCK_TTL" default:"5m"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
}

// TelegramConfig configures batch failure alerts
type TelegramConfig struct {
	Enabled  bool   `envconfig:"TELEGRAM_ENABLED" default:"false"`
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `envconfig:"TELEGRAM_CHAT_ID"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// DataConfig locates the exported workbooks and the security universe
type DataConfig struct {
	Dir           string   `envconfig:"LIVE_DATA_DIR" default:"./live_data"`
	HistFile      string   `envconfig:"HIST_FILE" default:"Historical.xlsx"`
	LiveFile      string   `envconfig:"LIVE_FILE" default:"Live.xlsx"`
	FavoritesFile string   `envconfig:"FAVORITES_FILE" default:"favorites.txt"`
	Stocks        []string `envconfig:"STOCKS"`
}

// HistPath is the absolute location of the historical workbook
func (c DataConfig) HistPath() string {
	return filepath.Join(c.Dir, c.HistFile)
}

// LivePath is the absolute location of the live workbook
func (c DataConfig) LivePath() string {
	return filepath.Join(c.Dir, c.LiveFile)
}

// Universe returns the configured securities, or the default F&O list
func (c DataConfig) Universe() []string {
	if len(c.Stocks) > 0 {
		return c.Stocks
	}
	return DefaultStocks
}

// IngestConfig drives the batch orchestrator and its background worker
type IngestConfig struct {
	Concurrency   int           `envconfig:"INGEST_CONCURRENCY" default:"1"`
	Interval      time.Duration `envconfig:"INGEST_INTERVAL" default:"6s"`
	IdleInterval  time.Duration `envconfig:"INGEST_IDLE_INTERVAL" default:"5m"`
	ErrorBackoff  time.Duration `envconfig:"INGEST_ERROR_BACKOFF" default:"1m"`
	AutoStart     bool          `envconfig:"INGEST_AUTOSTART" default:"false"`
	MarketTZ      string        `envconfig:"MARKET_TIMEZONE" default:"Asia/Kolkata"`
	MarketOpen    string        `envconfig:"MARKET_OPEN" default:"09:15"`
	MarketClose   string        `envconfig:"MARKET_CLOSE" default:"15:30"`
	SymbolTimeout time.Duration `envconfig:"INGEST_SYMBOL_TIMEOUT" default:"30s"`
}

// Location resolves the market time zone, UTC if unknown
func (c IngestConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.MarketTZ)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RetentionConfig controls pruning of processing history
type RetentionConfig struct {
	Schedule string `envconfig:"RETENTION_SCHEDULE" default:"0 3 * * *"`
	Days     int    `envconfig:"RETENTION_DAYS" default:"30"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express
func (c *Config) Validate() error {
	if c.Ingest.Concurrency < 1 {
		return errors.NewValidationError("INGEST_CONCURRENCY", "must be at least 1", c.Ingest.Concurrency)
	}
	if c.Ingest.Interval < time.Second {
		return errors.NewValidationError("INGEST_INTERVAL", "must be at least 1s", c.Ingest.Interval)
	}
	if _, err := time.LoadLocation(c.Ingest.MarketTZ); err != nil {
		return errors.NewValidationError("MARKET_TIMEZONE", err.Error(), c.Ingest.MarketTZ)
	}
	for _, v := range []struct{ key, val string }{
		{"MARKET_OPEN", c.Ingest.MarketOpen},
		{"MARKET_CLOSE", c.Ingest.MarketClose},
	} {
		if _, err := time.Parse("15:04", v.val); err != nil {
			return errors.NewValidationError(v.key, "expected HH:MM", v.val)
		}
	}
	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == 0) {
		return errors.NewValidationError("TELEGRAM_BOT_TOKEN", "token and chat id required when telegram is enabled", "")
	}
	if _, err := cron.ParseStandard(c.Retention.Schedule); err != nil {
		return errors.NewValidationError("RETENTION_SCHEDULE", err.Error(), c.Retention.Schedule)
	}
	if c.Retention.Days < 1 {
		return errors.NewValidationError("RETENTION_DAYS", "must be at least 1", c.Retention.Days)
	}
	return nil
}
