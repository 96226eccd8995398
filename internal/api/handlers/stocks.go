package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"oitracker/internal/domain/history"
	"oitracker/internal/domain/snapshot"
	"oitracker/pkg/errors"
	"oitracker/pkg/logger"
)

// StockReader serves stored row-sets. *snapshot.Service satisfies it.
type StockReader interface {
	ListStocks(ctx context.Context) ([]string, error)
	Summary(ctx context.Context, stock string) (*snapshot.Summary, error)
	Favorites(ctx context.Context) ([]string, error)
}

// HistoryReader serves the intraday live-row history.
// *history.Service satisfies it.
type HistoryReader interface {
	Points(ctx context.Context, q history.Query) ([]history.Point, error)
}

// Stocks handles /api/v1/stocks
type Stocks struct {
	stocks  StockReader
	history HistoryReader
	log     *logger.Logger
}

// NewStocks creates the stock handlers. history may be nil.
func NewStocks(stocks StockReader, hist HistoryReader) *Stocks {
	return &Stocks{
		stocks:  stocks,
		history: hist,
		log:     logger.Get().With("component", "stocks_api"),
	}
}

// List returns {"all_stocks": [...]}
func (h *Stocks) List(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.stocks.ListStocks(r.Context())
	if err != nil {
		writeError(w, h.log, "Error fetching stocks", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"all_stocks": stocks})
}

// Summary returns {"historical": [...], "live": [...]}
func (h *Stocks) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.stocks.Summary(r.Context(), r.PathValue("stock"))
	if err != nil {
		writeError(w, h.log, "Error fetching stock summary", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Favorites returns {"favorites": [...]}
func (h *Stocks) Favorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.stocks.Favorites(r.Context())
	if err != nil {
		writeError(w, h.log, "Error fetching favorites", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"favorites": favorites})
}

// Export writes one row-set of a stock as CSV, ?kind=historical|live
func (h *Stocks) Export(w http.ResponseWriter, r *http.Request) {
	kind := strings.ToLower(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = "historical"
	}
	if kind != "historical" && kind != "live" {
		writeDetail(w, http.StatusBadRequest, "kind must be historical or live")
		return
	}

	summary, err := h.stocks.Summary(r.Context(), r.PathValue("stock"))
	if err != nil {
		writeError(w, h.log, "Error exporting stock", err)
		return
	}

	var rows interface{} = summary.Historical
	if kind == "live" {
		rows = summary.Live
	}
	body, err := gocsv.MarshalBytes(rows)
	if err != nil {
		writeError(w, h.log, "Error exporting stock", err)
		return
	}

	stock := strings.ToUpper(strings.TrimSpace(r.PathValue("stock")))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_%s.csv"`, stock, kind))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// History returns {"stock", "points"} for ?strike=&limit=
func (h *Stocks) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, h.log, "Error fetching history", errors.Wrap(errors.ErrUnavailable, "history store is disabled"))
		return
	}

	q := history.Query{
		Stock:  r.PathValue("stock"),
		Strike: r.URL.Query().Get("strike"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeDetail(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		q.Limit = limit
	}

	points, err := h.history.Points(r.Context(), q)
	if err != nil {
		writeError(w, h.log, "Error fetching history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stock":  strings.ToUpper(strings.TrimSpace(q.Stock)),
		"points": points,
	})
}
