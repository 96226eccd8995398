package ingest

import (
	"context"
	"time"

	"oitracker/internal/extraction"
)

// FileSource opens the historical and live workbooks from disk on every
// batch, so an upload between batches is picked up without a restart.
type FileSource struct {
	HistPath string
	LivePath string
	Layout   extraction.Layout
	// Location decides which calendar day the live sheet must match
	Location *time.Location
	Now      func() time.Time
}

// NewFileSource builds a source over the two workbook paths
func NewFileSource(histPath, livePath string, loc *time.Location) *FileSource {
	if loc == nil {
		loc = time.UTC
	}
	return &FileSource{
		HistPath: histPath,
		LivePath: livePath,
		Layout:   extraction.DefaultLayout,
		Location: loc,
		Now:      time.Now,
	}
}

// Open parses both workbooks. Failures wrap errors.ErrDocumentsMissing.
func (s *FileSource) Open(ctx context.Context) (Workbooks, error) {
	today := s.Now().In(s.Location)
	books, err := extraction.LoadFiles(s.HistPath, s.LivePath, today, s.Layout)
	if err != nil {
		return nil, err
	}
	return books, nil
}
