package history

import (
	"context"
	"strings"
	"time"

	"oitracker/internal/domain/snapshot"
	"oitracker/pkg/errors"
)

const (
	DefaultLimit = 200
	MaxLimit     = 5000
)

// Service records and serves intraday live-row history.
type Service struct {
	repo Repository
}

// NewService creates a history service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record appends the live rows of one security captured by a batch.
func (s *Service) Record(ctx context.Context, runID string, at time.Time, stock string, rows []snapshot.LiveRow) error {
	if len(rows) == 0 {
		return nil
	}
	points := PointsFromLive(runID, at.UTC(), strings.ToUpper(stock), rows)
	if err := s.repo.Append(ctx, points); err != nil {
		return errors.Wrapf(err, "record history of %s", stock)
	}
	return nil
}

// Points returns stored points of a security, newest first.
func (s *Service) Points(ctx context.Context, q Query) ([]Point, error) {
	q.Stock = strings.ToUpper(strings.TrimSpace(q.Stock))
	if q.Stock == "" {
		return nil, errors.NewValidationError("stock", "is required", q.Stock)
	}
	q.Strike = strings.TrimSpace(q.Strike)
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultLimit
	case q.Limit > MaxLimit:
		q.Limit = MaxLimit
	}

	points, err := s.repo.Query(ctx, q)
	if err != nil {
		return nil, errors.Wrapf(err, "query history of %s", q.Stock)
	}
	if points == nil {
		points = []Point{}
	}
	return points, nil
}
