package snapshot

import "context"

// Repository stores the latest extraction of every security. Each security's
// rows are replaced as a unit, never merged.
type Repository interface {
	ReplaceStock(ctx context.Context, stock string, historical []HistoricalRow, live []LiveRow) error
	GetHistorical(ctx context.Context, stock string) ([]HistoricalRow, error)
	GetLive(ctx context.Context, stock string) ([]LiveRow, error)
	ListStocks(ctx context.Context) ([]string, error)
	ClearStock(ctx context.Context, stock string) error
	ClearAll(ctx context.Context) error
}

// Cache holds rendered summaries between batches.
// GetSummary returns errors.ErrNotFound on a miss.
type Cache interface {
	GetSummary(ctx context.Context, stock string) (*Summary, error)
	SetSummary(ctx context.Context, stock string, summary *Summary) error
	Invalidate(ctx context.Context, stocks ...string) error
	InvalidateAll(ctx context.Context) error
}
