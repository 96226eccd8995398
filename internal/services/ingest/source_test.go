package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oitracker/internal/testsupport"
	"oitracker/pkg/errors"
)

var row = testsupport.Row

func writeWorkbook(t *testing.T, path string, sheets ...testsupport.Sheet) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, testsupport.BuildWorkbook(t, sheets...), 0o644))
}

func TestFileSource_Open(t *testing.T) {
	dir := t.TempDir()
	hist := filepath.Join(dir, "Historical.xlsx")
	live := filepath.Join(dir, "Live.xlsx")

	writeWorkbook(t, hist, testsupport.Sheet{
		Name: "14.03.2025",
		Rows: [][]interface{}{
			row("Stock", "Category", "Strike", "Prev_OI", "Latest_OI",
				"Call_OI_Difference", "Put_OI_Difference", "LTP", "Additional_Strike"),
			row("RELIANCE", "Call Resistance", "3000", "11000", "12000", "1000", "", "2950.5", ""),
		},
	})
	writeWorkbook(t, live, testsupport.Sheet{Name: "15.03.2025"}, testsupport.Sheet{Name: "Notes"})

	src := NewFileSource(hist, live, time.UTC)
	src.Now = func() time.Time { return time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC) }

	books, err := src.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "14.03.2025", books.HistoricalSheet())
	assert.Equal(t, "15.03.2025", books.LiveSheet())

	res, err := books.Extract("RELIANCE")
	require.NoError(t, err)
	assert.Len(t, res.Historical, 1)
	assert.Empty(t, res.Live)
}

func TestFileSource_MissingFile(t *testing.T) {
	dir := t.TempDir()
	src := NewFileSource(filepath.Join(dir, "Historical.xlsx"), filepath.Join(dir, "Live.xlsx"), nil)

	_, err := src.Open(context.Background())
	assert.ErrorIs(t, err, errors.ErrDocumentsMissing)
}

func TestProcessAll_EndToEndWithFiles(t *testing.T) {
	dir := t.TempDir()
	hist := filepath.Join(dir, "Historical.xlsx")
	live := filepath.Join(dir, "Live.xlsx")

	writeWorkbook(t, hist, testsupport.Sheet{
		Name: "14.03.2025",
		Rows: [][]interface{}{
			row("Stock", "Category", "Strike", "Prev_OI", "Latest_OI",
				"Call_OI_Difference", "Put_OI_Difference", "LTP", "Additional_Strike"),
			row("RELIANCE", "Call Resistance", "3000", "11000", "12000", "1000", "", "2950.5", ""),
			row("TCS", "Put Support", "4000", "500", "700", "", "200", "3900", ""),
		},
	})
	writeWorkbook(t, live, testsupport.Sheet{Name: "15.03.2025"})

	src := NewFileSource(hist, live, time.UTC)
	src.Now = func() time.Time { return time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC) }

	store := newMemStore()
	svc := NewService(Config{
		Source:      src,
		Store:       store,
		Runs:        &memRuns{},
		Universe:    []string{"RELIANCE", "TCS", "INFY"},
		Concurrency: 2,
	})

	res, err := svc.ProcessAll(context.Background(), Options{ClearExisting: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, 3, res.TotalCount)
	assert.Empty(t, res.Errors)
	assert.Equal(t, "3000", store.rows["RELIANCE"].Historical[0].Strike)
}
