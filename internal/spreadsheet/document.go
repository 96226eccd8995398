package spreadsheet

import (
	"bytes"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"oitracker/pkg/errors"
)

// Document is a workbook parsed from an in-memory copy of its bytes.
// Nothing on disk stays open once Open returns, so an exporter can
// replace the file between batches.
type Document struct {
	name   string
	size   int
	file   *excelize.File
	sheets []string
}

// Open reads the whole file at path and parses it.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read workbook %s", path)
	}
	doc, err := OpenBytes(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse workbook %s", path)
	}
	doc.name = path
	return doc, nil
}

// OpenBytes parses a workbook already held in memory.
func OpenBytes(data []byte) (*Document, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "open workbook")
	}
	return &Document{
		size:   len(data),
		file:   f,
		sheets: f.GetSheetList(),
	}, nil
}

// Name is the path the document was read from, empty for OpenBytes.
func (d *Document) Name() string { return d.name }

// Size is the byte length of the parsed content.
func (d *Document) Size() int { return d.size }

// SheetNames returns sheet names in workbook order.
func (d *Document) SheetNames() []string {
	out := make([]string, len(d.sheets))
	copy(out, d.sheets)
	return out
}

// ReadSheet returns the sheet as a rectangular grid of cell text.
// With header set, the first row becomes trimmed column labels.
func (d *Document) ReadSheet(name string, header bool) (*Grid, error) {
	if !d.hasSheet(name) {
		return nil, errors.Wrapf(errors.ErrSheetNotFound, "sheet %q", name)
	}

	rows, err := d.file.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q", name)
	}
	if err := d.boolText(name, rows); err != nil {
		return nil, err
	}

	return newGrid(rows, header), nil
}

// boolText rewrites boolean cells, which raw values report as "1"/"0", to
// the TRUE/FALSE text the spreadsheet displays.
func (d *Document) boolText(sheet string, rows [][]string) error {
	for r, row := range rows {
		for c, v := range row {
			if v != "1" && v != "0" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return errors.Wrapf(err, "sheet %q", sheet)
			}
			typ, err := d.file.GetCellType(sheet, cell)
			if err != nil {
				return errors.Wrapf(err, "cell type of %s!%s", sheet, cell)
			}
			if typ != excelize.CellTypeBool {
				continue
			}
			if v == "1" {
				row[c] = "TRUE"
			} else {
				row[c] = "FALSE"
			}
		}
	}
	return nil
}

// Close releases parser resources.
func (d *Document) Close() error {
	if d.file == nil {
		return nil
	}
	return d.file.Close()
}

func (d *Document) hasSheet(name string) bool {
	for _, s := range d.sheets {
		if s == name {
			return true
		}
	}
	return false
}

// Grid is a rectangular block of cell text. Every row has Width cells.
type Grid struct {
	Header []string
	Rows   [][]string
	Width  int

	columns map[string]int
}

func newGrid(raw [][]string, header bool) *Grid {
	width := 0
	for _, r := range raw {
		if len(r) > width {
			width = len(r)
		}
	}

	pad := func(r []string) []string {
		out := make([]string, width)
		copy(out, r)
		return out
	}

	g := &Grid{Width: width, columns: make(map[string]int)}
	start := 0
	if header && len(raw) > 0 {
		g.Header = pad(raw[0])
		for i, h := range g.Header {
			h = strings.TrimSpace(h)
			g.Header[i] = h
			if _, seen := g.columns[h]; !seen {
				g.columns[h] = i
			}
		}
		start = 1
	}

	g.Rows = make([][]string, 0, len(raw)-start)
	for _, r := range raw[start:] {
		g.Rows = append(g.Rows, pad(r))
	}
	return g
}

// Column returns the index of a header label, first occurrence wins.
func (g *Grid) Column(label string) (int, bool) {
	i, ok := g.columns[label]
	return i, ok
}

// Cell returns the text at row, col or "" when out of range.
func (g *Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g.Rows) || col < 0 || col >= len(g.Rows[row]) {
		return ""
	}
	return g.Rows[row][col]
}

// Value returns the cell under a header label, "" if the label is absent.
func (g *Grid) Value(row int, label string) string {
	col, ok := g.Column(label)
	if !ok {
		return ""
	}
	return g.Cell(row, col)
}

// RowText joins the non-empty cells of a row with single spaces.
func RowText(row []string) string {
	parts := make([]string, 0, len(row))
	for _, c := range row {
		c = strings.TrimSpace(c)
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}

// IsBlank reports whether every cell of the row is empty.
func IsBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
