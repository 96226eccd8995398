package metrics

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"oitracker/pkg/logger"
)

// StoreCollector reports the size of the relational store at scrape time
type StoreCollector struct {
	log      *logger.Logger
	postgres *sqlx.DB

	storedStocks *prometheus.Desc
	storedRows   *prometheus.Desc
	lastRun      *prometheus.Desc
}

// NewStoreCollector creates a new store collector
func NewStoreCollector(postgres *sqlx.DB) *StoreCollector {
	return &StoreCollector{
		log:      logger.Get().With("component", "store_collector"),
		postgres: postgres,

		storedStocks: prometheus.NewDesc(
			"oitracker_stored_stocks",
			"Number of securities with stored rows",
			nil, nil,
		),
		storedRows: prometheus.NewDesc(
			"oitracker_stored_rows",
			"Number of stored rows by kind",
			[]string{"kind"}, nil,
		),
		lastRun: prometheus.NewDesc(
			"oitracker_last_run_timestamp",
			"Unix timestamp of the last logged processing run",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.storedStocks
	ch <- c.storedRows
	ch <- c.lastRun
}

// Collect implements prometheus.Collector
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var counts struct {
		Stocks     int `db:"stocks"`
		Historical int `db:"historical"`
		Live       int `db:"live"`
	}
	err := c.postgres.GetContext(ctx, &counts, `
		SELECT
			(SELECT COUNT(*) FROM (SELECT stock FROM historical_data UNION SELECT stock FROM live_data) s) AS stocks,
			(SELECT COUNT(*) FROM historical_data) AS historical,
			(SELECT COUNT(*) FROM live_data) AS live`)
	if err != nil {
		c.log.Warnw("Failed to collect store counts", "error", err)
	} else {
		ch <- prometheus.MustNewConstMetric(c.storedStocks, prometheus.GaugeValue, float64(counts.Stocks))
		ch <- prometheus.MustNewConstMetric(c.storedRows, prometheus.GaugeValue, float64(counts.Historical), "historical")
		ch <- prometheus.MustNewConstMetric(c.storedRows, prometheus.GaugeValue, float64(counts.Live), "live")
	}

	var last *time.Time
	if err := c.postgres.GetContext(ctx, &last, `SELECT MAX(processed_at) FROM processing_metadata`); err != nil {
		c.log.Warnw("Failed to collect last run", "error", err)
		return
	}
	if last != nil {
		ch <- prometheus.MustNewConstMetric(c.lastRun, prometheus.GaugeValue, float64(last.Unix()))
	}
}
