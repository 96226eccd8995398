package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oitracker/internal/domain/snapshot"
)

func cells(vals ...string) []string {
	out := make([]string, 10)
	copy(out, vals)
	return out
}

func scan(rows ...[]string) []sectionRows {
	s := newSectionScanner(DefaultLayout)
	for _, r := range rows {
		s.Feed(r)
	}
	return s.Result()
}

func TestSectionScanner_RowsBeforeAnyHeaderIgnored(t *testing.T) {
	got := scan(
		cells("OPT RELIANCE"),
		cells("a", "1", "100"),
	)
	assert.Empty(t, got)
}

func TestSectionScanner_SingleSection(t *testing.T) {
	got := scan(
		cells("Call Support"),
		cells("c1", "10", "100"),
		cells("c2", "20", "200"),
	)

	require.Len(t, got, 1)
	assert.Equal(t, snapshot.SectionCallSupport, got[0].Section)
	assert.Equal(t, []sectionRow{
		{Label: "c1", PrevOI: "10", Strike: "100"},
		{Label: "c2", PrevOI: "20", Strike: "200"},
	}, got[0].Rows)
}

func TestSectionScanner_PutSideColumns(t *testing.T) {
	got := scan(
		cells("", "", "", "", "", "", "PUT SUPPORT"),
		cells("x", "x", "x", "", "", "", "p1", "30", "300"),
	)

	require.Len(t, got, 1)
	assert.Equal(t, snapshot.SectionPutSupport, got[0].Section)
	assert.Equal(t, []sectionRow{{Label: "p1", PrevOI: "30", Strike: "300"}}, got[0].Rows)
}

func TestSectionScanner_BlankRowClosesSection(t *testing.T) {
	got := scan(
		cells("Call Resistance"),
		cells("c1", "10", "100"),
		cells(),
		cells("after blank", "1", "1"),
	)

	require.Len(t, got, 1)
	assert.Len(t, got[0].Rows, 1)
}

func TestSectionScanner_NarrowRowsSkipped(t *testing.T) {
	got := scan(
		cells("Call Resistance"),
		[]string{"narrow", "1", "1"},
		cells("c1", "10", "100"),
	)

	require.Len(t, got, 1)
	assert.Equal(t, []sectionRow{{Label: "c1", PrevOI: "10", Strike: "100"}}, got[0].Rows)
}

func TestSectionScanner_NextHeaderClosesPrevious(t *testing.T) {
	got := scan(
		cells("Put Resistance"),
		cells("", "", "", "", "", "", "p1", "1", "10"),
		cells("Call Support"),
		cells("c1", "2", "20"),
	)

	require.Len(t, got, 2)
	assert.Equal(t, snapshot.SectionPutResistance, got[0].Section, "discovery order, not fixed order")
	assert.Len(t, got[0].Rows, 1)
	assert.Equal(t, snapshot.SectionCallSupport, got[1].Section)
	assert.Len(t, got[1].Rows, 1)
}

func TestSectionScanner_SideBySideHeaders(t *testing.T) {
	got := scan(
		cells("Call Resistance", "", "", "", "", "", "Put Support"),
		cells("c1", "10", "100", "", "", "", "p1", "30", "300"),
	)

	require.Len(t, got, 2)
	// put support is detected before call resistance on a shared row
	assert.Equal(t, snapshot.SectionPutSupport, got[0].Section)
	assert.Equal(t, "p1", got[0].Rows[0].Label)
	assert.Equal(t, snapshot.SectionCallResistance, got[1].Section)
	assert.Equal(t, "c1", got[1].Rows[0].Label)
}

func TestSectionScanner_RepeatedHeaderRestartsKeepingPosition(t *testing.T) {
	got := scan(
		cells("Call Support"),
		cells("old", "1", "1"),
		cells("Put Support"),
		cells("", "", "", "", "", "", "p", "2", "2"),
		cells("Call Support"),
		cells("new", "3", "3"),
	)

	require.Len(t, got, 2)
	assert.Equal(t, snapshot.SectionCallSupport, got[0].Section)
	assert.Equal(t, []sectionRow{{Label: "new", PrevOI: "3", Strike: "3"}}, got[0].Rows)
	assert.Equal(t, snapshot.SectionPutSupport, got[1].Section)
}

func TestSectionScanner_HeaderWithoutRows(t *testing.T) {
	got := scan(cells("call support"))

	require.Len(t, got, 1)
	assert.Empty(t, got[0].Rows)
}

func TestSectionScanner_CustomLayout(t *testing.T) {
	layout := Layout{
		Call:       ColumnSet{Label: 1, PrevOI: 2, Strike: 3},
		Put:        ColumnSet{Label: 4, PrevOI: 5, Strike: 6},
		MinColumns: 7,
	}
	s := newSectionScanner(layout)
	s.Feed([]string{"Call Support", "", "", "", "", "", ""})
	s.Feed([]string{"#", "c", "5", "50", "", "", ""})

	got := s.Result()
	require.Len(t, got, 1)
	assert.Equal(t, []sectionRow{{Label: "c", PrevOI: "5", Strike: "50"}}, got[0].Rows)
}

func TestSectionHeaders(t *testing.T) {
	assert.Equal(t, []snapshot.Section{snapshot.SectionCallSupport}, sectionHeaders([]string{" CALL SUPPORT "}))
	assert.Nil(t, sectionHeaders([]string{"Call", "", "Support"}))
	assert.Equal(t,
		[]snapshot.Section{snapshot.SectionPutSupport, snapshot.SectionPutResistance},
		sectionHeaders([]string{"Put Resistance", "Put Support"}),
	)
}
