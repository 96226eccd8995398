package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oitracker/internal/testsupport"
	"oitracker/pkg/errors"
)

var row = testsupport.Row

// writeFixtures lays out a historical and a live workbook dated 2025-03-15
func writeFixtures(t *testing.T) (hist, live string) {
	t.Helper()
	dir := t.TempDir()
	hist = filepath.Join(dir, "Historical.xlsx")
	live = filepath.Join(dir, "Live.xlsx")

	require.NoError(t, os.WriteFile(hist, testsupport.BuildWorkbook(t,
		testsupport.Sheet{Name: "14.03.2025", Rows: [][]interface{}{
			row("Stock", "Category", "Strike", "Prev_OI", "Latest_OI",
				"Call_OI_Difference", "Put_OI_Difference", "LTP", "Additional_Strike"),
			row("RELIANCE", "Call Resistance", "3000", "11000", "12000", "1000", "", "2950.5", "yes"),
			row("TCS", "Put Support", "4000", "500", "700", "", "200", "3900", ""),
		}},
	), 0o644))

	require.NoError(t, os.WriteFile(live, testsupport.BuildWorkbook(t,
		testsupport.Sheet{Name: "14.03.2025"},
		testsupport.Sheet{Name: "15.03.2025", Rows: [][]interface{}{
			row("OPT RELIANCE"),
			row("Call Resistance"),
			row("R1", "12500", "3000", "", "", "", "", "", "", "-"),
		}},
	), 0o644))
	return hist, live
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExtract_JSON(t *testing.T) {
	hist, live := writeFixtures(t)

	out, err := run(t, "extract", "reliance", "--historical", hist, "--live", live,
		"--date", "2025-03-15", "--timezone", "UTC", "--format", "json")
	require.NoError(t, err)

	var got extractOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "RELIANCE", got.Stock)
	require.Len(t, got.Historical, 1)
	assert.Equal(t, "12,000", got.Historical[0].LatestOI)
	require.Len(t, got.Live, 1)
	assert.Equal(t, "R1", got.Live[0].Label)
	assert.Equal(t, "500", got.Live[0].OIDiff)
	assert.Equal(t, "Yes", got.Live[0].AddStrike)
}

func TestExtract_UnknownSymbolPrintsEmptyTables(t *testing.T) {
	hist, live := writeFixtures(t)

	out, err := run(t, "extract", "INFY", "--historical", hist, "--live", live, "--date", "2025-03-15")
	require.NoError(t, err)
	assert.Contains(t, out, "INFY historical (0 rows)")
	assert.Contains(t, out, "INFY live (0 rows)")
	assert.Contains(t, out, "Additional_Strike")
}

func TestExtract_CSV(t *testing.T) {
	hist, live := writeFixtures(t)

	out, err := run(t, "extract", "TCS", "--historical", hist, "--live", live, "--format", "csv")
	require.NoError(t, err)

	parts := strings.Split(out, "\n\n")
	require.Len(t, parts, 2)
	assert.True(t, strings.HasPrefix(parts[0], "Stock,Category,Strike"))
	assert.Contains(t, parts[0], "TCS,Put Support,4000")
	assert.True(t, strings.HasPrefix(parts[1], "Section,Label"))
}

func TestExtract_BadFormat(t *testing.T) {
	hist, live := writeFixtures(t)

	_, err := run(t, "extract", "TCS", "--historical", hist, "--live", live, "--format", "xml")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestExtract_MissingWorkbook(t *testing.T) {
	_, live := writeFixtures(t)

	_, err := run(t, "extract", "TCS", "--historical", filepath.Join(t.TempDir(), "nope.xlsx"), "--live", live)
	assert.ErrorIs(t, err, errors.ErrDocumentsMissing)
}

func TestSheets(t *testing.T) {
	_, live := writeFixtures(t)

	out, err := run(t, "sheets", live, "--date", "2025-03-14", "--timezone", "UTC")
	require.NoError(t, err)

	var selected []string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "*") {
			selected = append(selected, strings.Join(strings.Fields(strings.ReplaceAll(line, "|", " ")), " "))
		}
	}
	assert.Equal(t, []string{
		"14.03.2025 2025-03-14 *",
		"15.03.2025 2025-03-15 *",
	}, selected)
}

func TestBatch_JSON(t *testing.T) {
	hist, live := writeFixtures(t)

	out, err := run(t, "batch", "--historical", hist, "--live", live, "--date", "2025-03-15",
		"--timezone", "UTC", "--stocks", "RELIANCE,TCS,INFY", "--format", "json")
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "success", got["status"])
	assert.Equal(t, float64(2), got["stocks_processed"])
	assert.Equal(t, float64(3), got["total_stocks"])
	assert.Equal(t, "15.03.2025", got["live_sheet"])
}

func TestBatch_Table(t *testing.T) {
	hist, live := writeFixtures(t)

	out, err := run(t, "batch", "--historical", hist, "--live", live, "--date", "2025-03-15",
		"--stocks", "RELIANCE,TCS")
	require.NoError(t, err)
	assert.Contains(t, out, "RELIANCE")
	assert.Contains(t, out, "Processed 2/2 stocks successfully")
}

func TestBatch_MissingWorkbooks(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "batch", "--historical", filepath.Join(dir, "h.xlsx"), "--live", filepath.Join(dir, "l.xlsx"),
		"--stocks", "TCS")
	assert.ErrorIs(t, err, errors.ErrDocumentsMissing)
	assert.Contains(t, out, "(error,")
}
