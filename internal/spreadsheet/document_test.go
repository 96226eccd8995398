package spreadsheet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oitracker/internal/testsupport"
	"oitracker/pkg/errors"
)

func TestOpenBytes_SheetNamesInOrder(t *testing.T) {
	data := testsupport.BuildWorkbook(t,
		testsupport.Sheet{Name: "01.01.2025", Rows: [][]interface{}{testsupport.Row("a")}},
		testsupport.Sheet{Name: "15.03.2025", Rows: [][]interface{}{testsupport.Row("b")}},
		testsupport.Sheet{Name: "NotesSheet", Rows: [][]interface{}{testsupport.Row("c")}},
	)

	doc, err := OpenBytes(data)
	require.NoError(t, err)
	defer doc.Close()

	assert.Equal(t, []string{"01.01.2025", "15.03.2025", "NotesSheet"}, doc.SheetNames())
	assert.Equal(t, len(data), doc.Size())
}

func TestOpen_ReleasesFile(t *testing.T) {
	data := testsupport.BuildWorkbook(t,
		testsupport.Sheet{Name: "Data", Rows: [][]interface{}{testsupport.Row("x", "y")}},
	)
	path := filepath.Join(t.TempDir(), "Live.xlsx")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	doc, err := Open(path)
	require.NoError(t, err)
	defer doc.Close()

	// the exporter replaces the workbook while the parsed copy is in use
	require.NoError(t, os.Remove(path))

	grid, err := doc.ReadSheet("Data", false)
	require.NoError(t, err)
	assert.Equal(t, "x", grid.Cell(0, 0))
	assert.Equal(t, path, doc.Name())
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadSheet_PadsRowsToSheetWidth(t *testing.T) {
	data := testsupport.BuildWorkbook(t,
		testsupport.Sheet{Name: "Live", Rows: [][]interface{}{
			testsupport.Row("OPT RELIANCE"),
			nil,
			testsupport.Row("a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"),
		}},
	)

	doc, err := OpenBytes(data)
	require.NoError(t, err)
	defer doc.Close()

	grid, err := doc.ReadSheet("Live", false)
	require.NoError(t, err)

	require.Len(t, grid.Rows, 3)
	assert.Equal(t, 11, grid.Width)
	for _, row := range grid.Rows {
		assert.Len(t, row, 11)
	}
	assert.True(t, IsBlank(grid.Rows[1]))
	assert.Equal(t, "OPT RELIANCE", RowText(grid.Rows[0]))
}

func TestReadSheet_Header(t *testing.T) {
	data := testsupport.BuildWorkbook(t,
		testsupport.Sheet{Name: "Hist", Rows: [][]interface{}{
			testsupport.Row(" Stock ", "Category", "Strike", "Latest_OI"),
			testsupport.Row("RELIANCE", "Call Resistance", "3000", 12000),
		}},
	)

	doc, err := OpenBytes(data)
	require.NoError(t, err)
	defer doc.Close()

	grid, err := doc.ReadSheet("Hist", true)
	require.NoError(t, err)

	assert.Equal(t, []string{"Stock", "Category", "Strike", "Latest_OI"}, grid.Header)
	require.Len(t, grid.Rows, 1)
	assert.Equal(t, "RELIANCE", grid.Value(0, "Stock"))
	assert.Equal(t, "12000", grid.Value(0, "Latest_OI"))
	assert.Equal(t, "", grid.Value(0, "LTP"))
}

func TestReadSheet_BooleanCellsReadAsText(t *testing.T) {
	data := testsupport.BuildWorkbook(t,
		testsupport.Sheet{Name: "Hist", Rows: [][]interface{}{
			testsupport.Row("Stock", "Strike", "Latest_OI", "Additional_Strike"),
			testsupport.Row("RELIANCE", "3000", 1, true),
			testsupport.Row("RELIANCE", "3100", 0, false),
		}},
	)

	doc, err := OpenBytes(data)
	require.NoError(t, err)
	defer doc.Close()

	grid, err := doc.ReadSheet("Hist", true)
	require.NoError(t, err)

	require.Len(t, grid.Rows, 2)
	assert.Equal(t, "TRUE", grid.Value(0, "Additional_Strike"))
	assert.Equal(t, "FALSE", grid.Value(1, "Additional_Strike"))
	assert.Equal(t, "1", grid.Value(0, "Latest_OI"), "numeric cells keep their value")
	assert.Equal(t, "0", grid.Value(1, "Latest_OI"))
}

func TestReadSheet_UnknownSheet(t *testing.T) {
	data := testsupport.BuildWorkbook(t, testsupport.Sheet{Name: "Only"})

	doc, err := OpenBytes(data)
	require.NoError(t, err)
	defer doc.Close()

	_, err = doc.ReadSheet("Other", false)
	assert.ErrorIs(t, err, errors.ErrSheetNotFound)
}

func TestRowText(t *testing.T) {
	assert.Equal(t, "Call Support 12 3000", RowText([]string{"Call Support", "", " 12 ", "3000", ""}))
	assert.Equal(t, "", RowText([]string{"", "  "}))
}
