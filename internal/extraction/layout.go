package extraction

import "oitracker/internal/domain/snapshot"

// ColumnSet locates the three positional fields of a live data row.
type ColumnSet struct {
	Label  int
	PrevOI int
	Strike int
}

// Layout maps each side of a live block to its column group.
type Layout struct {
	Call ColumnSet
	Put  ColumnSet

	// MinColumns is the sheet width below which data rows are skipped.
	MinColumns int
}

// DefaultLayout is the two-group export: calls in columns A-C, puts in G-I.
var DefaultLayout = Layout{
	Call:       ColumnSet{Label: 0, PrevOI: 1, Strike: 2},
	Put:        ColumnSet{Label: 6, PrevOI: 7, Strike: 8},
	MinColumns: 10,
}

// Columns returns the column group a section reads from.
func (l Layout) Columns(s snapshot.Section) ColumnSet {
	if s.IsCall() {
		return l.Call
	}
	return l.Put
}
