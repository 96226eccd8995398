package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"oitracker/internal/domain/history"
	"oitracker/pkg/clickhouse"
	"oitracker/pkg/errors"
)

// Compile-time check
var _ history.Repository = (*HistoryRepository)(nil)

// HistoryRepository implements history.Repository for ClickHouse.
// Writes go through a batch writer, one INSERT per flush.
type HistoryRepository struct {
	conn        driver.Conn
	batchWriter *clickhouse.BatchWriter[history.Point]
}

// NewHistoryRepository creates a history repository with its batch writer
func NewHistoryRepository(conn driver.Conn, batchSize int, flushEvery time.Duration) *HistoryRepository {
	repo := &HistoryRepository{conn: conn}

	repo.batchWriter = clickhouse.NewBatchWriter(clickhouse.BatchWriterConfig[history.Point]{
		FlushFunc:    repo.flushBatch,
		TableName:    "live_row_history",
		MaxBatchSize: batchSize,
		MaxAge:       flushEvery,
	})

	return repo
}

// Start begins the background flush loop
func (r *HistoryRepository) Start(ctx context.Context) {
	r.batchWriter.Start(ctx)
}

// Stop flushes buffered points and shuts the writer down
func (r *HistoryRepository) Stop(ctx context.Context) error {
	return r.batchWriter.Stop(ctx)
}

// Stats reports the batch writer state
func (r *HistoryRepository) Stats() clickhouse.BatchWriterStats {
	return r.batchWriter.GetStats()
}

// Append buffers points until the next flush
func (r *HistoryRepository) Append(ctx context.Context, points []history.Point) error {
	return r.batchWriter.Add(ctx, points...)
}

// Query returns points of one security, newest first
func (r *HistoryRepository) Query(ctx context.Context, q history.Query) ([]history.Point, error) {
	var points []history.Point

	query := `
		SELECT captured_at, run_id, stock, section, label, strike, prev_oi, oi_diff, is_new_strike
		FROM live_row_history
		WHERE stock = ?`
	args := []interface{}{q.Stock}

	if q.Strike != "" {
		query += ` AND strike = ?`
		args = append(args, q.Strike)
	}
	query += ` ORDER BY captured_at DESC LIMIT ?`
	args = append(args, q.Limit)

	if err := r.conn.Select(ctx, &points, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to query live row history")
	}
	return points, nil
}

func (r *HistoryRepository) flushBatch(ctx context.Context, batch []history.Point) error {
	if len(batch) == 0 {
		return nil
	}

	stmt, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO live_row_history (
			captured_at, run_id, stock, section, label, strike, prev_oi, oi_diff, is_new_strike
		)`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare batch")
	}
	defer stmt.Close()

	for i := range batch {
		if err := stmt.AppendStruct(&batch[i]); err != nil {
			return errors.Wrap(err, "failed to append to batch")
		}
	}

	if err := stmt.Send(); err != nil {
		return errors.Wrap(err, "failed to send batch")
	}
	return nil
}
