package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"oitracker/internal/domain/processing"
	"oitracker/internal/domain/snapshot"
	"oitracker/internal/events"
	"oitracker/internal/extraction"
	"oitracker/internal/metrics"
	"oitracker/pkg/errors"
	"oitracker/pkg/logger"
)

// MaxReportedErrors caps the per-symbol messages returned with a batch.
const MaxReportedErrors = 10

// Workbooks extracts row-sets from one opened pair of documents.
// *extraction.Workbooks satisfies it.
type Workbooks interface {
	Extract(symbol string) (extraction.Result, error)
	HistoricalSheet() string
	LiveSheet() string
}

// Source opens the documents of one batch.
type Source interface {
	Open(ctx context.Context) (Workbooks, error)
}

// Lock guards a batch against concurrent triggers. TryAcquire returns
// errors.ErrBatchInProgress while another batch holds it.
type Lock interface {
	TryAcquire(ctx context.Context) (release func(), err error)
}

// Store persists the rows of each symbol.
type Store interface {
	ReplaceStock(ctx context.Context, stock string, historical []snapshot.HistoricalRow, live []snapshot.LiveRow) error
	ClearStock(ctx context.Context, stock string) error
	ClearAll(ctx context.Context) error
}

// HistoryRecorder appends live rows to the intraday history.
type HistoryRecorder interface {
	Record(ctx context.Context, runID string, at time.Time, stock string, rows []snapshot.LiveRow) error
}

// Invalidator drops cached summaries after their rows change.
type Invalidator interface {
	Invalidate(ctx context.Context, stocks ...string)
}

// Options scopes a single batch.
type Options struct {
	// Stocks overrides the configured universe when non-empty
	Stocks        []string
	ClearExisting bool
	// Trigger names who started the batch (worker, upload, api, cli)
	Trigger string
}

// BatchResult is the aggregate outcome of ProcessAll.
type BatchResult struct {
	RunID           string            `json:"run_id"`
	Status          processing.Status `json:"status"`
	Message         string            `json:"message"`
	SuccessCount    int               `json:"stocks_processed"`
	TotalCount      int               `json:"total_stocks"`
	Errors          []string          `json:"errors"`
	DurationMS      int64             `json:"duration_ms"`
	StartedAt       time.Time         `json:"started_at"`
	CompletedAt     time.Time         `json:"completed_at"`
	HistoricalSheet string            `json:"historical_sheet,omitempty"`
	LiveSheet       string            `json:"live_sheet,omitempty"`
}

// SymbolResult is the outcome of ProcessSingle.
type SymbolResult struct {
	Stock          string `json:"stock"`
	HistoricalRows int    `json:"historical_rows"`
	LiveRows       int    `json:"live_rows"`
}

// Status is the last-batch view served by the process status endpoint.
type Status struct {
	Status          string    `json:"status"`
	Message         string    `json:"message"`
	StocksProcessed int       `json:"stocks_processed"`
	Timestamp       time.Time `json:"timestamp"`
}

// Config holds the orchestrator's collaborators. Lock, History,
// Invalidator, Events and Tracker are optional.
type Config struct {
	Source      Source
	Store       Store
	Runs        processing.Repository
	Lock        Lock
	History     HistoryRecorder
	Invalidator Invalidator
	Events      events.Sink
	Tracker     errors.Tracker

	Universe      []string
	Concurrency   int
	SymbolTimeout time.Duration
}

// Service runs extraction batches over the security universe.
type Service struct {
	cfg Config
	log *logger.Logger
	now func() time.Time

	mu        sync.RWMutex
	lastTime  time.Time
	lastCount int
}

// NewService builds the batch orchestrator
func NewService(cfg Config) *Service {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.SymbolTimeout <= 0 {
		cfg.SymbolTimeout = 30 * time.Second
	}
	if cfg.Lock == nil {
		cfg.Lock = NewLocalLock()
	}
	return &Service{
		cfg: cfg,
		log: logger.Get().With("component", "ingest"),
		now: time.Now,
	}
}

// Universe returns the configured securities
func (s *Service) Universe() []string {
	out := make([]string, len(s.cfg.Universe))
	copy(out, s.cfg.Universe)
	return out
}

// symbolOutcome is written by exactly one goroutine, indexed by symbol position.
type symbolOutcome struct {
	stock string
	ok    bool
	err   error
}

// ProcessAll extracts and stores every symbol of the universe. A missing
// document aborts the batch with errors.ErrDocumentsMissing before any
// symbol is touched. Per-symbol failures are collected, never returned.
func (s *Service) ProcessAll(ctx context.Context, opts Options) (*BatchResult, error) {
	release, err := s.cfg.Lock.TryAcquire(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrBatchInProgress) {
			metrics.RecordBatch("skipped", 0, 0, 0)
		}
		return nil, err
	}
	defer release()

	stocks := opts.Stocks
	if len(stocks) == 0 {
		stocks = s.cfg.Universe
	}

	runID := uuid.New()
	ctx = errors.WithRunID(ctx, runID.String())
	started := s.now()
	log := s.log.With("run_id", runID.String(), "trigger", opts.Trigger)
	log.Infow("Batch started", "stocks", len(stocks), "clear_existing", opts.ClearExisting)

	result := &BatchResult{
		RunID:      runID.String(),
		TotalCount: len(stocks),
		Errors:     []string{},
		StartedAt:  started,
	}

	books, err := s.cfg.Source.Open(ctx)
	if err != nil {
		if !errors.Is(err, errors.ErrDocumentsMissing) {
			err = errors.Newf("%w: %w", errors.ErrDocumentsMissing, err)
		}
		log.Errorw("Batch aborted, documents unavailable", "error", err)
		result.Status = processing.StatusError
		result.Message = err.Error()
		s.finish(ctx, runID, result, 0)
		return result, err
	}
	result.HistoricalSheet = books.HistoricalSheet()
	result.LiveSheet = books.LiveSheet()

	if opts.ClearExisting {
		if err := s.cfg.Store.ClearAll(ctx); err != nil {
			log.Errorw("Clearing stored rows failed", "error", err)
			result.Status = processing.StatusError
			result.Message = fmt.Sprintf("clear existing data: %v", err)
			s.finish(ctx, runID, result, 0)
			return result, errors.Wrap(err, "clear existing data")
		}
	}

	outcomes := make([]symbolOutcome, len(stocks))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, s.cfg.Concurrency)

	for i, stock := range stocks {
		if ctx.Err() == nil {
			select {
			case <-ctx.Done():
			case semaphore <- struct{}{}:
			}
		}
		if ctx.Err() != nil {
			log.Warnw("Batch cancelled, not launching remaining symbols", "launched", i, "total", len(stocks))
			break
		}

		wg.Add(1)
		go func(i int, stock string) {
			defer wg.Done()
			defer func() { <-semaphore }()
			outcomes[i] = s.processSymbol(ctx, books, runID.String(), started, stock)
		}(i, stock)
	}
	wg.Wait()

	var failures errors.MultiError
	for _, o := range outcomes {
		if o.stock == "" {
			continue // never launched
		}
		if o.err != nil {
			failures.Add(errors.NewSymbolError(o.stock, o.err))
			log.Warnw("Symbol failed", "stock", o.stock, "error", o.err, "stored", o.ok)
			if s.cfg.Tracker != nil {
				_ = s.cfg.Tracker.CaptureError(ctx, o.err, map[string]string{"stock": o.stock, "component": "ingest"})
			}
		}
		if o.ok {
			result.SuccessCount++
		}
	}

	if s.cfg.Invalidator != nil {
		s.cfg.Invalidator.Invalidate(context.WithoutCancel(ctx), stocks...)
	}

	result.Status = processing.StatusSuccess
	result.Errors = failures.Messages(MaxReportedErrors)
	result.Message = fmt.Sprintf("Processed %d/%d stocks successfully", result.SuccessCount, result.TotalCount)
	if failures.HasErrors() {
		result.Message += fmt.Sprintf(". %d errors occurred.", len(failures.Errors))
	}

	s.mu.Lock()
	s.lastTime = s.now()
	s.lastCount = result.SuccessCount
	s.mu.Unlock()

	s.finish(ctx, runID, result, len(failures.Errors))
	log.Infow("Batch finished",
		"succeeded", result.SuccessCount,
		"failed", len(failures.Errors),
		"duration_ms", result.DurationMS,
	)
	return result, nil
}

// processSymbol extracts and stores one symbol. When one extraction step
// fails the other step's rows are still stored and the failure is reported
// alongside them.
func (s *Service) processSymbol(ctx context.Context, books Workbooks, runID string, at time.Time, stock string) symbolOutcome {
	stock = strings.ToUpper(strings.TrimSpace(stock))
	out := symbolOutcome{stock: stock}

	res, err := books.Extract(stock)
	out.err = err
	if res.Empty() {
		return out
	}

	// in-flight symbols finish their writes after cancellation
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SymbolTimeout)
	defer cancel()

	if err := s.cfg.Store.ReplaceStock(wctx, stock, res.Historical, res.Live); err != nil {
		if out.err != nil {
			out.err = errors.Newf("%w; store rows: %w", out.err, err)
		} else {
			out.err = errors.Wrap(err, "store rows")
		}
		return out
	}
	metrics.RecordRows(len(res.Historical), len(res.Live))

	if s.cfg.History != nil && len(res.Live) > 0 {
		if err := s.cfg.History.Record(wctx, runID, at, stock, res.Live); err != nil {
			s.log.Warnw("Recording live history failed", "stock", stock, "error", err)
		}
	}

	out.ok = true
	return out
}

// finish logs the run and publishes the completion event. Both outlive
// the caller's context.
func (s *Service) finish(ctx context.Context, runID uuid.UUID, result *BatchResult, failed int) {
	ctx = context.WithoutCancel(ctx)
	result.CompletedAt = s.now()
	duration := result.CompletedAt.Sub(result.StartedAt)
	result.DurationMS = duration.Milliseconds()

	run := &processing.Run{
		ID:              runID,
		ProcessType:     processing.ProcessFull,
		StocksProcessed: result.SuccessCount,
		TotalStocks:     result.TotalCount,
		Status:          result.Status,
		Message:         result.Message,
		Errors:          result.Errors,
		DurationMS:      result.DurationMS,
		ProcessedAt:     result.CompletedAt,
	}
	if err := s.cfg.Runs.LogRun(ctx, run); err != nil {
		s.log.Errorw("Logging processing run failed", "run_id", result.RunID, "error", err)
	}

	metrics.RecordBatch(metricStatus(result, failed), duration, result.SuccessCount, failed)

	if s.cfg.Events == nil {
		return
	}
	event := &events.BatchCompleted{
		RunID:        result.RunID,
		ProcessType:  string(processing.ProcessFull),
		Status:       string(result.Status),
		SuccessCount: result.SuccessCount,
		TotalCount:   result.TotalCount,
		Errors:       result.Errors,
		DurationMS:   result.DurationMS,
		CompletedAt:  result.CompletedAt,
	}
	if err := s.cfg.Events.PublishBatchCompleted(ctx, event); err != nil {
		s.log.Warnw("Publishing batch event failed", "run_id", result.RunID, "error", err)
	}
}

func metricStatus(result *BatchResult, failed int) string {
	switch {
	case result.Status == processing.StatusError:
		return "error"
	case failed > 0:
		return "partial"
	default:
		return "success"
	}
}

// ProcessSingle replaces the stored rows of one symbol. Unlike ProcessAll
// an extraction failure is returned to the caller.
func (s *Service) ProcessSingle(ctx context.Context, symbol string) (*SymbolResult, error) {
	stock := strings.ToUpper(strings.TrimSpace(symbol))
	if stock == "" {
		return nil, errors.NewValidationError("stock", "is required", symbol)
	}

	release, err := s.cfg.Lock.TryAcquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	books, err := s.cfg.Source.Open(ctx)
	if err != nil {
		return nil, err
	}

	res, err := books.Extract(stock)
	if err != nil {
		return nil, errors.NewSymbolError(stock, err)
	}

	if res.Empty() {
		if err := s.cfg.Store.ClearStock(ctx, stock); err != nil {
			return nil, errors.Wrapf(err, "clear %s", stock)
		}
	} else if err := s.cfg.Store.ReplaceStock(ctx, stock, res.Historical, res.Live); err != nil {
		return nil, errors.Wrapf(err, "store %s", stock)
	}
	if s.cfg.Invalidator != nil {
		s.cfg.Invalidator.Invalidate(ctx, stock)
	}

	run := &processing.Run{
		ProcessType:     processing.ProcessSingle,
		StocksProcessed: 1,
		TotalStocks:     1,
		Status:          processing.StatusSuccess,
		Message:         fmt.Sprintf("Processed %s", stock),
	}
	if res.Empty() {
		run.StocksProcessed = 0
	}
	if err := s.cfg.Runs.LogRun(ctx, run); err != nil {
		s.log.Warnw("Logging single run failed", "stock", stock, "error", err)
	}

	s.log.Infow("Symbol processed", "stock", stock, "historical_rows", len(res.Historical), "live_rows", len(res.Live))
	return &SymbolResult{
		Stock:          stock,
		HistoricalRows: len(res.Historical),
		LiveRows:       len(res.Live),
	}, nil
}

// Status reports the last batch completed by this process.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastTime.IsZero() {
		return Status{
			Status:    "idle",
			Message:   "No processing has been performed yet",
			Timestamp: s.now(),
		}
	}
	return Status{
		Status:          "completed",
		Message:         "Last processing completed successfully",
		StocksProcessed: s.lastCount,
		Timestamp:       s.lastTime,
	}
}

// LastBatch returns when the last batch of this process finished and how
// many symbols it stored. The time is zero before the first batch.
func (s *Service) LastBatch() (time.Time, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastTime, s.lastCount
}

// LastRun returns the most recent persisted run of any process.
func (s *Service) LastRun(ctx context.Context) (*processing.Run, error) {
	return s.cfg.Runs.LastRun(ctx)
}
