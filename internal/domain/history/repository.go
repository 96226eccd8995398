package history

import "context"

// Repository stores live-row points over time.
type Repository interface {
	// Append buffers points; they become queryable after the next flush
	Append(ctx context.Context, points []Point) error
	Query(ctx context.Context, q Query) ([]Point, error)
}
