package processing

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Run records one processing pass over the security universe.
type Run struct {
	ID              uuid.UUID      `db:"id" json:"id"`
	ProcessType     ProcessType    `db:"process_type" json:"process_type"`
	StocksProcessed int            `db:"stocks_processed" json:"stocks_processed"`
	TotalStocks     int            `db:"total_stocks" json:"total_stocks"`
	Status          Status         `db:"status" json:"status"`
	Message         string         `db:"message" json:"message"`
	Errors          pq.StringArray `db:"errors" json:"errors"`
	DurationMS      int64          `db:"duration_ms" json:"duration_ms"`
	ProcessedAt     time.Time      `db:"processed_at" json:"processed_at"`
}

// ProcessType distinguishes how a run was scoped
type ProcessType string

const (
	ProcessFull   ProcessType = "full_process"
	ProcessSingle ProcessType = "single_process"
)

// Status is the outcome of a run
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// FileType names which workbook an upload replaced
type FileType string

const (
	FileHistorical FileType = "Historical"
	FileLive       FileType = "Live"
)

// Upload records one replaced workbook.
type Upload struct {
	ID         uuid.UUID `db:"id" json:"id"`
	FileType   FileType  `db:"file_type" json:"file_type"`
	FileName   string    `db:"file_name" json:"file_name"`
	FileSize   int64     `db:"file_size" json:"file_size"`
	UploadedAt time.Time `db:"uploaded_at" json:"uploaded_at"`
}
