package processing

import (
	"context"
	"time"
)

// Repository persists processing runs and workbook uploads.
type Repository interface {
	LogRun(ctx context.Context, run *Run) error
	// LastRun returns errors.ErrNotFound before the first run
	LastRun(ctx context.Context) (*Run, error)
	DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	LogUpload(ctx context.Context, upload *Upload) error
	RecentUploads(ctx context.Context, limit int) ([]*Upload, error)
}
