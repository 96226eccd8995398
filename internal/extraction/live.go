package extraction

import (
	"regexp"
	"strings"
	"time"

	"oitracker/internal/domain/snapshot"
	"oitracker/internal/spreadsheet"
	"oitracker/pkg/errors"
)

// blockEndPattern marks the first row of any security's live block.
var blockEndPattern = regexp.MustCompile(`(?i)^\s*OPT[_\-\s]?[A-Za-z0-9]+`)

// LiveSheet is the chosen live sheet, read once without a header row.
// It is read-only after construction.
type LiveSheet struct {
	sheet  string
	grid   *spreadsheet.Grid
	texts  []string
	layout Layout
}

// NewLiveSheet picks the sheet dated today (else the latest dated, else the
// last one) and reads it as a raw grid.
func NewLiveSheet(doc *spreadsheet.Document, today time.Time, layout Layout) (*LiveSheet, error) {
	sheet := spreadsheet.PickLiveSheet(doc.SheetNames(), today)
	grid, err := doc.ReadSheet(sheet, false)
	if err != nil {
		return nil, errors.Wrap(err, "read live sheet")
	}

	texts := make([]string, len(grid.Rows))
	for i, row := range grid.Rows {
		texts[i] = spreadsheet.RowText(row)
	}

	return &LiveSheet{
		sheet:  sheet,
		grid:   grid,
		texts:  texts,
		layout: layout,
	}, nil
}

// Sheet is the name of the sheet the block search runs on.
func (l *LiveSheet) Sheet() string { return l.sheet }

// Block returns the row range [start, end) of symbol's block.
func (l *LiveSheet) Block(symbol string) (start, end int, ok bool) {
	norm := CleanSymbol(symbol)
	if norm == "" {
		return 0, 0, false
	}
	startPattern := regexp.MustCompile(`(?i)OPT[_\-\s]*` + regexp.QuoteMeta(norm))

	start = -1
	for i, text := range l.texts {
		if startPattern.MatchString(text) {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, 0, false
	}

	end = len(l.texts)
	for j := start + 1; j < len(l.texts); j++ {
		if blockEndPattern.MatchString(l.texts[j]) {
			end = j
			break
		}
	}
	return start, end, true
}

// Rows reconciles symbol's live block against its historical index.
// A symbol without a block yields no rows.
func (l *LiveSheet) Rows(symbol string, index OIIndex) []snapshot.LiveRow {
	start, end, ok := l.Block(symbol)
	if !ok {
		return nil
	}

	scanner := newSectionScanner(l.layout)
	for r := start; r < end; r++ {
		scanner.Feed(l.grid.Rows[r])
	}

	stock := strings.ToUpper(strings.TrimSpace(symbol))
	var out []snapshot.LiveRow
	for _, sec := range scanner.Result() {
		for _, raw := range sec.Rows {
			out = append(out, reconcile(stock, sec.Section, raw, index))
		}
	}
	return out
}

func reconcile(stock string, sec snapshot.Section, raw sectionRow, index OIIndex) snapshot.LiveRow {
	key := StrikeKeyOf(raw.Strike)

	row := snapshot.LiveRow{
		Section:   sec,
		Label:     raw.Label,
		Strike:    raw.Strike,
		Stock:     stock,
		AddStrike: index.Additional[key],
	}

	if prev, ok := ToNumber(raw.PrevOI); ok {
		row.PrevOI = FormatDecimal(prev)
		row.OIDiff = FormatDecimal(prev.Sub(index.Base(key, sec.IsCall())))
	}
	if !index.Has(key) {
		row.IsNewStrike = snapshot.NewStrikeFlag
	}
	return row
}
