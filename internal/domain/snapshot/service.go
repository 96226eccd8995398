package snapshot

import (
	"bufio"
	"context"
	"os"
	"strings"

	"oitracker/pkg/errors"
	"oitracker/pkg/logger"
)

// Service serves stored extractions to the query API.
type Service struct {
	repo          Repository
	cache         Cache
	universe      []string
	favoritesPath string
	log           *logger.Logger
}

// NewService constructs a snapshot service. cache may be nil.
func NewService(repo Repository, cache Cache, universe []string, favoritesPath string) *Service {
	return &Service{
		repo:          repo,
		cache:         cache,
		universe:      universe,
		favoritesPath: favoritesPath,
		log:           logger.Get().With("component", "snapshot_service"),
	}
}

// ListStocks returns stored securities, or the configured universe while
// nothing has been stored yet.
func (s *Service) ListStocks(ctx context.Context) ([]string, error) {
	stocks, err := s.repo.ListStocks(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list stocks")
	}
	if len(stocks) > 0 {
		return stocks, nil
	}
	out := make([]string, len(s.universe))
	copy(out, s.universe)
	return out, nil
}

// Summary returns both row-sets of a security. Unknown securities yield an
// empty summary, not an error.
func (s *Service) Summary(ctx context.Context, stock string) (*Summary, error) {
	stock = strings.ToUpper(strings.TrimSpace(stock))
	if stock == "" {
		return nil, errors.NewValidationError("stock", "is required", stock)
	}

	if s.cache != nil {
		cached, err := s.cache.GetSummary(ctx, stock)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, errors.ErrNotFound) {
			s.log.Warnw("Summary cache read failed", "stock", stock, "error", err)
		}
	}

	hist, err := s.repo.GetHistorical(ctx, stock)
	if err != nil {
		return nil, errors.Wrapf(err, "get historical rows for %s", stock)
	}
	live, err := s.repo.GetLive(ctx, stock)
	if err != nil {
		return nil, errors.Wrapf(err, "get live rows for %s", stock)
	}

	summary := &Summary{Historical: hist, Live: live}
	if summary.Historical == nil {
		summary.Historical = []HistoricalRow{}
	}
	if summary.Live == nil {
		summary.Live = []LiveRow{}
	}

	if s.cache != nil {
		if err := s.cache.SetSummary(ctx, stock, summary); err != nil {
			s.log.Warnw("Summary cache write failed", "stock", stock, "error", err)
		}
	}
	return summary, nil
}

// Favorites reads one symbol per non-empty line of the favorites file.
// A missing file means no favorites.
func (s *Service) Favorites(ctx context.Context) ([]string, error) {
	f, err := os.Open(s.favoritesPath)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "open favorites")
	}
	defer f.Close()

	favorites := []string{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			favorites = append(favorites, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read favorites")
	}
	return favorites, nil
}

// ClearAll deletes every stored row and drops cached summaries.
func (s *Service) ClearAll(ctx context.Context) error {
	if err := s.repo.ClearAll(ctx); err != nil {
		return errors.Wrap(err, "clear stock data")
	}
	s.dropCache(ctx)
	return nil
}

// Invalidate drops cached summaries of the given securities.
func (s *Service) Invalidate(ctx context.Context, stocks ...string) {
	if s.cache == nil || len(stocks) == 0 {
		return
	}
	if err := s.cache.Invalidate(ctx, stocks...); err != nil {
		s.log.Warnw("Summary cache invalidation failed", "stocks", len(stocks), "error", err)
	}
}

func (s *Service) dropCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.log.Warnw("Summary cache flush failed", "error", err)
	}
}
