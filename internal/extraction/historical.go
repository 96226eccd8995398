package extraction

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"oitracker/internal/domain/snapshot"
	"oitracker/internal/spreadsheet"
	"oitracker/pkg/errors"
)

var symbolColumnPattern = regexp.MustCompile(`(?i)stock|symbol|name`)

// Historical sheet column labels.
const (
	colStock            = "Stock"
	colCategory         = "Category"
	colStrike           = "Strike"
	colPrevOI           = "Prev_OI"
	colLatestOI         = "Latest_OI"
	colCallOIDifference = "Call_OI_Difference"
	colPutOIDifference  = "Put_OI_Difference"
	colLTP              = "LTP"
	colAdditionalStrike = "Additional_Strike"
)

// HistoricalTable is the latest historical sheet, parsed once and grouped
// by cleaned symbol. It is read-only after construction and safe to share
// across goroutines.
type HistoricalTable struct {
	sheet    string
	grid     *spreadsheet.Grid
	bySymbol map[string][]int
}

// NewHistoricalTable reads the latest dated sheet of doc. A sheet without a
// symbol column yields a table that matches no security.
func NewHistoricalTable(doc *spreadsheet.Document) (*HistoricalTable, error) {
	sheet := spreadsheet.PickLatestSheet(doc.SheetNames(), nil)
	grid, err := doc.ReadSheet(sheet, true)
	if err != nil {
		return nil, errors.Wrap(err, "read historical sheet")
	}

	t := &HistoricalTable{
		sheet:    sheet,
		grid:     grid,
		bySymbol: make(map[string][]int),
	}

	col := -1
	for i, label := range grid.Header {
		if symbolColumnPattern.MatchString(label) {
			col = i
			break
		}
	}
	if col < 0 {
		return t, nil
	}

	for r := range grid.Rows {
		key := CleanSymbol(grid.Cell(r, col))
		t.bySymbol[key] = append(t.bySymbol[key], r)
	}
	return t, nil
}

// Sheet is the name of the sheet the table was read from.
func (t *HistoricalTable) Sheet() string { return t.sheet }

// Symbols lists the cleaned symbols present, in no particular order.
func (t *HistoricalTable) Symbols() []string {
	out := make([]string, 0, len(t.bySymbol))
	for s := range t.bySymbol {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Rows returns the normalized rows of symbol in sheet order.
func (t *HistoricalTable) Rows(symbol string) []snapshot.HistoricalRow {
	idx := t.bySymbol[CleanSymbol(symbol)]
	if len(idx) == 0 || CleanSymbol(symbol) == "" {
		return nil
	}

	g := t.grid
	rows := make([]snapshot.HistoricalRow, 0, len(idx))
	for _, r := range idx {
		rows = append(rows, snapshot.HistoricalRow{
			Stock:            g.Value(r, colStock),
			Category:         g.Value(r, colCategory),
			Strike:           g.Value(r, colStrike),
			PrevOI:           FormatParsed(g.Value(r, colPrevOI)),
			LatestOI:         FormatParsed(g.Value(r, colLatestOI)),
			CallOIDifference: FormatParsed(g.Value(r, colCallOIDifference)),
			PutOIDifference:  FormatParsed(g.Value(r, colPutOIDifference)),
			LTP:              g.Value(r, colLTP),
			AdditionalStrike: strings.TrimSpace(g.Value(r, colAdditionalStrike)),
		})
	}
	return rows
}

// OIIndex is the per-security open-interest lookup used to reconcile live
// rows. Call and Put hold latest open interest by strike.
type OIIndex struct {
	Call       map[StrikeKey]decimal.Decimal
	Put        map[StrikeKey]decimal.Decimal
	All        map[StrikeKey]struct{}
	Additional map[StrikeKey]string
}

func newOIIndex() OIIndex {
	return OIIndex{
		Call:       make(map[StrikeKey]decimal.Decimal),
		Put:        make(map[StrikeKey]decimal.Decimal),
		All:        make(map[StrikeKey]struct{}),
		Additional: make(map[StrikeKey]string),
	}
}

// Has reports whether history knows the strike.
func (x OIIndex) Has(k StrikeKey) bool {
	_, ok := x.All[k]
	return ok
}

// Base returns the historical open interest a live row is compared to.
func (x OIIndex) Base(k StrikeKey, call bool) decimal.Decimal {
	m := x.Put
	if call {
		m = x.Call
	}
	if v, ok := m[k]; ok {
		return v
	}
	return decimal.Zero
}

// Index builds the open-interest index of symbol from raw cell text.
// Later rows overwrite earlier ones for the same strike.
func (t *HistoricalTable) Index(symbol string) OIIndex {
	x := newOIIndex()
	if CleanSymbol(symbol) == "" {
		return x
	}

	g := t.grid
	for _, r := range t.bySymbol[CleanSymbol(symbol)] {
		k := StrikeKeyOf(g.Value(r, colStrike))
		x.All[k] = struct{}{}

		category := strings.ToLower(g.Value(r, colCategory))
		if v, ok := ToNumber(g.Value(r, colLatestOI)); ok {
			if strings.Contains(category, "call") {
				x.Call[k] = v
			}
			if strings.Contains(category, "put") {
				x.Put[k] = v
			}
		}

		if marker := canonicalMarker(g.Value(r, colAdditionalStrike)); marker != "" {
			x.Additional[k] = marker
		}
	}
	return x
}
