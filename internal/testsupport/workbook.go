package testsupport

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

// Sheet describes one worksheet of a generated workbook. A nil row leaves
// the spreadsheet row empty.
type Sheet struct {
	Name string
	Rows [][]interface{}
}

// Row is shorthand for a sheet row literal.
func Row(cells ...interface{}) []interface{} {
	return cells
}

// BuildWorkbook renders sheets into xlsx bytes, in the given order.
func BuildWorkbook(t testing.TB, sheets ...Sheet) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				t.Fatalf("rename first sheet: %v", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			t.Fatalf("create sheet %q: %v", s.Name, err)
		}

		for r, row := range s.Rows {
			if row == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			values := row
			if err := f.SetSheetRow(s.Name, cell, &values); err != nil {
				t.Fatalf("write row %d of %q: %v", r+1, s.Name, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("render workbook: %v", err)
	}
	return buf.Bytes()
}
