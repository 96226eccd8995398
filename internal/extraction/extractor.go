package extraction

import (
	"fmt"
	"strings"
	"time"

	"oitracker/internal/domain/snapshot"
	"oitracker/internal/spreadsheet"
	"oitracker/pkg/errors"
)

// Result holds both row-sets extracted for one security.
type Result struct {
	Symbol     string
	Historical []snapshot.HistoricalRow
	Live       []snapshot.LiveRow
}

// Empty reports whether neither document had data for the security.
func (r Result) Empty() bool {
	return len(r.Historical) == 0 && len(r.Live) == 0
}

// Workbooks holds the parsed historical and live documents of one batch.
// Both are parsed once and shared read-only by every symbol.
type Workbooks struct {
	historical *HistoricalTable
	live       *LiveSheet
}

// Load parses the two documents for a batch run. today selects the live
// sheet and should be the current date in the market's time zone.
func Load(historical, live *spreadsheet.Document, today time.Time, layout Layout) (*Workbooks, error) {
	hist, err := NewHistoricalTable(historical)
	if err != nil {
		return nil, err
	}
	ls, err := NewLiveSheet(live, today, layout)
	if err != nil {
		return nil, err
	}
	return &Workbooks{historical: hist, live: ls}, nil
}

// LoadFiles opens both workbooks from disk. Each file is read fully into
// memory and released before parsing.
func LoadFiles(historicalPath, livePath string, today time.Time, layout Layout) (*Workbooks, error) {
	hdoc, err := spreadsheet.Open(historicalPath)
	if err != nil {
		return nil, errors.Newf("%w: %w", errors.ErrDocumentsMissing, err)
	}
	defer hdoc.Close()

	ldoc, err := spreadsheet.Open(livePath)
	if err != nil {
		return nil, errors.Newf("%w: %w", errors.ErrDocumentsMissing, err)
	}
	defer ldoc.Close()

	return Load(hdoc, ldoc, today, layout)
}

// HistoricalSheet is the sheet name historical rows came from.
func (w *Workbooks) HistoricalSheet() string { return w.historical.Sheet() }

// LiveSheet is the sheet name live rows came from.
func (w *Workbooks) LiveSheet() string { return w.live.Sheet() }

// Extract produces both row-sets for symbol. Missing structure is not an
// error. A failure inside either step empties that step's rows and is
// returned, the other step's rows are kept.
func (w *Workbooks) Extract(symbol string) (Result, error) {
	res := Result{Symbol: strings.ToUpper(strings.TrimSpace(symbol))}
	var errs errors.MultiError

	errs.Add(guard("historical", func() {
		res.Historical = w.historical.Rows(symbol)
	}))
	if errs.HasErrors() {
		res.Historical = nil
	}

	liveErr := guard("live", func() {
		res.Live = w.live.Rows(symbol, w.historical.Index(symbol))
	})
	if liveErr != nil {
		res.Live = nil
		errs.Add(liveErr)
	}

	return res, errs.ToError()
}

// guard runs step and converts a panic into an error.
func guard(step string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s extraction failed: %v", step, r)
		}
	}()
	fn()
	return nil
}
