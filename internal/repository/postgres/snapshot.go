package postgres

import (
	"context"
	"strings"

	"oitracker/internal/domain/snapshot"
	"oitracker/pkg/errors"
)

// Compile-time check
var _ snapshot.Repository = (*SnapshotRepository)(nil)

// SnapshotRepository implements snapshot.Repository using sqlx
type SnapshotRepository struct {
	db DBTX
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db DBTX) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

type historicalRecord struct {
	snapshot.HistoricalRow
	Position int `db:"position"`
}

type liveRecord struct {
	snapshot.LiveRow
	Position int `db:"position"`
}

// ReplaceStock swaps every stored row of a security for the given rows
// in a single transaction. Row order is kept through the position column.
func (r *SnapshotRepository) ReplaceStock(ctx context.Context, stock string, historical []snapshot.HistoricalRow, live []snapshot.LiveRow) error {
	stock = normalizeStock(stock)

	return inTx(ctx, r.db, func(tx DBTX) error {
		if err := clearStock(ctx, tx, stock); err != nil {
			return err
		}

		histQuery := `
			INSERT INTO historical_data (
				stock, position, category, strike, prev_oi, latest_oi,
				call_oi_difference, put_oi_difference, ltp, additional_strike
			) VALUES (
				:stock, :position, :category, :strike, :prev_oi, :latest_oi,
				:call_oi_difference, :put_oi_difference, :ltp, :additional_strike
			)`
		for i, row := range historical {
			row.Stock = stock
			if _, err := tx.NamedExecContext(ctx, histQuery, historicalRecord{HistoricalRow: row, Position: i}); err != nil {
				return errors.Wrapf(err, "failed to insert historical row %d of %s", i, stock)
			}
		}

		liveQuery := `
			INSERT INTO live_data (
				stock, position, section, label, prev_oi, strike,
				oi_diff, is_new_strike, add_strike
			) VALUES (
				:stock, :position, :section, :label, :prev_oi, :strike,
				:oi_diff, :is_new_strike, :add_strike
			)`
		for i, row := range live {
			row.Stock = stock
			if _, err := tx.NamedExecContext(ctx, liveQuery, liveRecord{LiveRow: row, Position: i}); err != nil {
				return errors.Wrapf(err, "failed to insert live row %d of %s", i, stock)
			}
		}

		return nil
	})
}

// GetHistorical returns the stored historical rows of a security in sheet order
func (r *SnapshotRepository) GetHistorical(ctx context.Context, stock string) ([]snapshot.HistoricalRow, error) {
	rows := []snapshot.HistoricalRow{}

	query := `
		SELECT stock, category, strike, prev_oi, latest_oi,
			call_oi_difference, put_oi_difference, ltp, additional_strike
		FROM historical_data
		WHERE stock = $1
		ORDER BY position`

	if err := r.db.SelectContext(ctx, &rows, query, normalizeStock(stock)); err != nil {
		return nil, errors.Wrap(err, "failed to select historical rows")
	}
	return rows, nil
}

// GetLive returns the stored live rows of a security in sheet order
func (r *SnapshotRepository) GetLive(ctx context.Context, stock string) ([]snapshot.LiveRow, error) {
	rows := []snapshot.LiveRow{}

	query := `
		SELECT section, label, prev_oi, strike, stock,
			oi_diff, is_new_strike, add_strike
		FROM live_data
		WHERE stock = $1
		ORDER BY position`

	if err := r.db.SelectContext(ctx, &rows, query, normalizeStock(stock)); err != nil {
		return nil, errors.Wrap(err, "failed to select live rows")
	}
	return rows, nil
}

// ListStocks returns every security with stored rows, sorted
func (r *SnapshotRepository) ListStocks(ctx context.Context) ([]string, error) {
	stocks := []string{}

	query := `
		SELECT stock FROM historical_data
		UNION
		SELECT stock FROM live_data
		ORDER BY stock`

	if err := r.db.SelectContext(ctx, &stocks, query); err != nil {
		return nil, errors.Wrap(err, "failed to list stocks")
	}
	return stocks, nil
}

// ClearStock deletes every stored row of a security
func (r *SnapshotRepository) ClearStock(ctx context.Context, stock string) error {
	return inTx(ctx, r.db, func(tx DBTX) error {
		return clearStock(ctx, tx, normalizeStock(stock))
	})
}

// ClearAll deletes every stored row
func (r *SnapshotRepository) ClearAll(ctx context.Context) error {
	return inTx(ctx, r.db, func(tx DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM historical_data`); err != nil {
			return errors.Wrap(err, "failed to clear historical rows")
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM live_data`); err != nil {
			return errors.Wrap(err, "failed to clear live rows")
		}
		return nil
	})
}

func clearStock(ctx context.Context, tx DBTX, stock string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM historical_data WHERE stock = $1`, stock); err != nil {
		return errors.Wrapf(err, "failed to clear historical rows of %s", stock)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM live_data WHERE stock = $1`, stock); err != nil {
		return errors.Wrapf(err, "failed to clear live rows of %s", stock)
	}
	return nil
}

func normalizeStock(stock string) string {
	return strings.ToUpper(strings.TrimSpace(stock))
}
