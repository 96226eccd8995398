package handlers

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"oitracker/internal/domain/processing"
	ingestsvc "oitracker/internal/services/ingest"
	"oitracker/pkg/errors"
	"oitracker/pkg/logger"
)

// Batcher runs batches for the manual triggers. *ingest.Service satisfies it.
type Batcher interface {
	ProcessAll(ctx context.Context, opts ingestsvc.Options) (*ingestsvc.BatchResult, error)
	Status() ingestsvc.Status
	LastRun(ctx context.Context) (*processing.Run, error)
}

// DataClearer wipes stored rows. *snapshot.Service satisfies it.
type DataClearer interface {
	ClearAll(ctx context.Context) error
}

// UploadLog records replaced workbooks
type UploadLog interface {
	LogUpload(ctx context.Context, upload *processing.Upload) error
}

// UploadConfig locates the workbooks an upload replaces
type UploadConfig struct {
	HistPath string
	LivePath string
	MaxBytes int64
}

// Upload handles /api/v1/upload
type Upload struct {
	cfg     UploadConfig
	batcher Batcher
	clearer DataClearer
	uploads UploadLog
	log     *logger.Logger
}

// NewUpload creates the upload handlers
func NewUpload(cfg UploadConfig, batcher Batcher, clearer DataClearer, uploads UploadLog) *Upload {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 50 << 20
	}
	return &Upload{
		cfg:     cfg,
		batcher: batcher,
		clearer: clearer,
		uploads: uploads,
		log:     logger.Get().With("component", "upload_api"),
	}
}

type savedFile struct {
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	SavedAs   string `json:"saved_as"`
}

// ExcelFiles replaces both workbooks and reprocesses every stock
func (h *Upload) ExcelFiles(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*h.cfg.MaxBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "expected multipart form with historical_file and live_file")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	hist, histHeader, err := r.FormFile("historical_file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "historical_file is required")
		return
	}
	defer hist.Close()
	live, liveHeader, err := r.FormFile("live_file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "live_file is required")
		return
	}
	defer live.Close()

	if !isExcelName(histHeader.Filename) {
		writeDetail(w, http.StatusBadRequest, "Historical file must be an Excel file (.xlsx or .xls)")
		return
	}
	if !isExcelName(liveHeader.Filename) {
		writeDetail(w, http.StatusBadRequest, "Live file must be an Excel file (.xlsx or .xls)")
		return
	}

	ctx := r.Context()
	histStaged, err := h.stage(hist, histHeader, h.cfg.HistPath, processing.FileHistorical)
	if err != nil {
		writeError(w, h.log, "Error uploading files", err)
		return
	}
	defer histStaged.discard()
	liveStaged, err := h.stage(live, liveHeader, h.cfg.LivePath, processing.FileLive)
	if err != nil {
		writeError(w, h.log, "Error uploading files", err)
		return
	}
	defer liveStaged.discard()

	// both uploads are staged before either workbook is replaced
	histSaved, err := h.commit(ctx, histStaged)
	if err != nil {
		writeError(w, h.log, "Error uploading files", err)
		return
	}
	liveSaved, err := h.commit(ctx, liveStaged)
	if err != nil {
		writeError(w, h.log, "Error uploading files", err)
		return
	}

	result, err := h.batcher.ProcessAll(ctx, ingestsvc.Options{ClearExisting: true, Trigger: "upload"})
	if err != nil && result == nil {
		writeError(w, h.log, "Error processing uploaded files", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Files uploaded and processed successfully",
		"files_uploaded": map[string]savedFile{
			"historical": histSaved,
			"live":       liveSaved,
		},
		"processing_result": result,
	})
}

// stagedFile is an upload written next to its destination but not yet
// renamed into place.
type stagedFile struct {
	tmp    string
	dst    string
	size   int64
	kind   processing.FileType
	header *multipart.FileHeader
}

func (f *stagedFile) discard() {
	_ = os.Remove(f.tmp)
}

// stage copies src into a temp file beside dst and enforces the size cap.
// dst is untouched.
func (h *Upload) stage(src multipart.File, header *multipart.FileHeader, dst string, kind processing.FileType) (*stagedFile, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, errors.Wrap(err, "create data dir")
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return nil, errors.Wrap(err, "create temp file")
	}
	staged := &stagedFile{tmp: tmp.Name(), dst: dst, kind: kind, header: header}

	size, err := io.Copy(tmp, io.LimitReader(src, h.cfg.MaxBytes+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		staged.discard()
		return nil, errors.Wrapf(err, "write %s", filepath.Base(dst))
	}
	if size > h.cfg.MaxBytes {
		staged.discard()
		return nil, errors.Wrapf(errors.ErrInvalidUpload, "%s file exceeds %s", kind, humanize.IBytes(uint64(h.cfg.MaxBytes)))
	}

	staged.size = size
	return staged, nil
}

// commit renames a staged file into place, so a batch reading dst never
// sees a partial file, and logs the upload.
func (h *Upload) commit(ctx context.Context, f *stagedFile) (savedFile, error) {
	if err := os.Rename(f.tmp, f.dst); err != nil {
		return savedFile{}, errors.Wrapf(err, "replace %s", filepath.Base(f.dst))
	}

	h.log.Infow("Workbook replaced",
		"kind", f.kind,
		"filename", f.header.Filename,
		"size", humanize.Bytes(uint64(f.size)),
	)
	if err := h.uploads.LogUpload(ctx, &processing.Upload{
		FileType: f.kind,
		FileName: f.header.Filename,
		FileSize: f.size,
	}); err != nil {
		h.log.Warnw("Failed to log upload", "kind", f.kind, "error", err)
	}

	return savedFile{Filename: f.header.Filename, SizeBytes: f.size, SavedAs: filepath.Base(f.dst)}, nil
}

func isExcelName(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls")
}

// Process reprocesses the workbooks already on disk
func (h *Upload) Process(w http.ResponseWriter, r *http.Request) {
	result, err := h.batcher.ProcessAll(r.Context(), ingestsvc.Options{ClearExisting: true, Trigger: "api"})
	if err != nil && result == nil {
		writeError(w, h.log, "Error processing data", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Status returns the most recent persisted run
func (h *Upload) Status(w http.ResponseWriter, r *http.Request) {
	run, err := h.batcher.LastRun(r.Context())
	if errors.Is(err, errors.ErrNotFound) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "no_data",
			"message": "No processing has been performed yet",
		})
		return
	}
	if err != nil {
		writeError(w, h.log, "Error fetching processing status", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "success",
		"last_processing": run,
	})
}

// ClearData deletes every stored row. Workbooks on disk are kept.
func (h *Upload) ClearData(w http.ResponseWriter, r *http.Request) {
	if err := h.clearer.ClearAll(r.Context()); err != nil {
		writeError(w, h.log, "Error clearing data", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "All stock data cleared from database",
	})
}
