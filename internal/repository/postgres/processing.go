package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"oitracker/internal/domain/processing"
	"oitracker/pkg/errors"
)

// Compile-time check
var _ processing.Repository = (*ProcessingRepository)(nil)

// ProcessingRepository implements processing.Repository using sqlx
type ProcessingRepository struct {
	db DBTX
}

// NewProcessingRepository creates a new processing repository
func NewProcessingRepository(db DBTX) *ProcessingRepository {
	return &ProcessingRepository{db: db}
}

// LogRun inserts a processing run, assigning ID and timestamp when unset
func (r *ProcessingRepository) LogRun(ctx context.Context, run *processing.Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.ProcessedAt.IsZero() {
		run.ProcessedAt = time.Now().UTC()
	}
	if run.Errors == nil {
		run.Errors = []string{}
	}

	query := `
		INSERT INTO processing_metadata (
			id, process_type, stocks_processed, total_stocks, status,
			message, errors, duration_ms, processed_at
		) VALUES (
			:id, :process_type, :stocks_processed, :total_stocks, :status,
			:message, :errors, :duration_ms, :processed_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return errors.Wrap(err, "failed to log processing run")
	}
	return nil
}

// LastRun returns the most recent processing run
func (r *ProcessingRepository) LastRun(ctx context.Context) (*processing.Run, error) {
	var run processing.Run

	query := `SELECT * FROM processing_metadata ORDER BY processed_at DESC LIMIT 1`

	err := r.db.GetContext(ctx, &run, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get last run")
	}

	return &run, nil
}

// DeleteRunsBefore prunes runs older than cutoff and reports how many went
func (r *ProcessingRepository) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM processing_metadata WHERE processed_at < $1`, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete old runs")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get rows affected")
	}
	return rows, nil
}

// LogUpload records a replaced workbook
func (r *ProcessingRepository) LogUpload(ctx context.Context, upload *processing.Upload) error {
	if upload.ID == uuid.Nil {
		upload.ID = uuid.New()
	}
	if upload.UploadedAt.IsZero() {
		upload.UploadedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO uploaded_files (id, file_type, file_name, file_size, uploaded_at)
		VALUES (:id, :file_type, :file_name, :file_size, :uploaded_at)`

	if _, err := r.db.NamedExecContext(ctx, query, upload); err != nil {
		return errors.Wrap(err, "failed to log upload")
	}
	return nil
}

// RecentUploads returns the newest uploads first
func (r *ProcessingRepository) RecentUploads(ctx context.Context, limit int) ([]*processing.Upload, error) {
	if limit <= 0 {
		limit = 10
	}

	var uploads []*processing.Upload

	query := `SELECT * FROM uploaded_files ORDER BY uploaded_at DESC LIMIT $1`

	if err := r.db.SelectContext(ctx, &uploads, query, limit); err != nil {
		return nil, errors.Wrap(err, "failed to list uploads")
	}
	return uploads, nil
}
