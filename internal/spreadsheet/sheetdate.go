package spreadsheet

import (
	"strings"
	"time"
)

// Sheet-name date layouts, tried in order. The first full parse wins.
var sheetDateLayouts = []string{
	"2.1.2006",
	"2-1-2006",
	"2006-1-2",
	"2/1/2006",
	"2-Jan-2006",
	"2 Jan 2006",
}

// ParseSheetDate interprets a sheet name as a calendar date.
func ParseSheetDate(name string) (time.Time, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.Time{}, false
	}
	for _, layout := range sheetDateLayouts {
		if t, err := time.Parse(layout, name); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// PickLatestSheet selects the sheet whose name is the most recent date.
//
// When target is non-nil the first sheet dated on that calendar day is
// returned instead. When no name parses as a date the last name is
// returned, so the choice then depends on workbook sheet order.
func PickLatestSheet(names []string, target *time.Time) string {
	if len(names) == 0 {
		return ""
	}

	var (
		latest     string
		latestDate time.Time
		found      bool
	)
	for _, name := range names {
		d, ok := ParseSheetDate(name)
		if !ok {
			continue
		}
		if target != nil && sameDay(d, *target) {
			return name
		}
		if !found || d.After(latestDate) {
			latest, latestDate, found = name, d, true
		}
	}

	if !found {
		return names[len(names)-1]
	}
	return latest
}

// PickLiveSheet prefers the sheet dated today, then the latest dated sheet,
// then the last sheet.
func PickLiveSheet(names []string, today time.Time) string {
	return PickLatestSheet(names, &today)
}

// sameDay compares calendar dates, each in its own location. Sheet dates
// carry no zone, target carries the market's.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
