package extraction

import (
	"strings"

	"oitracker/internal/domain/snapshot"
	"oitracker/internal/spreadsheet"
)

type scanState int

const (
	stateNoSection scanState = iota
	stateInSection
)

// sectionRow is the positional text of one live data row.
type sectionRow struct {
	Label  string
	PrevOI string
	Strike string
}

// sectionRows is the output of one section, in sheet order.
type sectionRows struct {
	Section snapshot.Section
	Rows    []sectionRow
}

// sectionScanner segments a live block into its four sections.
//
// A header row closes every open section and opens each section it names;
// one row may name several when call and put groups sit side by side. A
// blank row closes all sections. Rows narrower than the layout minimum are
// skipped. A section whose header appears again keeps its first position
// in the output and restarts its rows.
type sectionScanner struct {
	layout  Layout
	state   scanState
	active  []snapshot.Section
	order   []snapshot.Section
	buckets map[snapshot.Section][]sectionRow
}

func newSectionScanner(layout Layout) *sectionScanner {
	return &sectionScanner{
		layout:  layout,
		state:   stateNoSection,
		buckets: make(map[snapshot.Section][]sectionRow),
	}
}

// Feed advances the scanner by one sheet row.
func (s *sectionScanner) Feed(row []string) {
	if headers := sectionHeaders(row); len(headers) > 0 {
		s.enter(headers)
		return
	}

	switch s.state {
	case stateNoSection:
		return
	case stateInSection:
		if spreadsheet.IsBlank(row) {
			s.state = stateNoSection
			s.active = nil
			return
		}
		if len(row) < s.layout.MinColumns {
			return
		}
		for _, sec := range s.active {
			cols := s.layout.Columns(sec)
			s.buckets[sec] = append(s.buckets[sec], sectionRow{
				Label:  cellAt(row, cols.Label),
				PrevOI: cellAt(row, cols.PrevOI),
				Strike: cellAt(row, cols.Strike),
			})
		}
	}
}

func (s *sectionScanner) enter(headers []snapshot.Section) {
	s.active = headers
	s.state = stateInSection
	for _, sec := range headers {
		if _, seen := s.buckets[sec]; !seen {
			s.order = append(s.order, sec)
		}
		s.buckets[sec] = []sectionRow{}
	}
}

// Result returns sections in discovery order.
func (s *sectionScanner) Result() []sectionRows {
	out := make([]sectionRows, 0, len(s.order))
	for _, sec := range s.order {
		out = append(out, sectionRows{Section: sec, Rows: s.buckets[sec]})
	}
	return out
}

// sectionHeaders lists the sections a row names, in detection order.
func sectionHeaders(row []string) []snapshot.Section {
	cells := make([]string, len(row))
	for i, c := range row {
		cells[i] = strings.TrimSpace(c)
	}
	text := strings.ToLower(strings.Join(cells, " "))

	var found []snapshot.Section
	for _, sec := range snapshot.Sections {
		if strings.Contains(text, strings.ToLower(sec.String())) {
			found = append(found, sec)
		}
	}
	return found
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
