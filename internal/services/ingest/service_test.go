package ingest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oitracker/internal/domain/processing"
	"oitracker/internal/domain/snapshot"
	"oitracker/internal/events"
	"oitracker/internal/extraction"
	"oitracker/pkg/errors"
)

type fakeBooks struct {
	results map[string]extraction.Result
	fail    map[string]error
}

func (b *fakeBooks) Extract(symbol string) (extraction.Result, error) {
	res, ok := b.results[symbol]
	if !ok {
		res = extraction.Result{Symbol: symbol}
	}
	return res, b.fail[symbol]
}

func (b *fakeBooks) HistoricalSheet() string { return "15.03.2025" }
func (b *fakeBooks) LiveSheet() string       { return "15.03.2025" }

type fakeSource struct {
	books Workbooks
	err   error
}

func (s *fakeSource) Open(ctx context.Context) (Workbooks, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.books, nil
}

type memStore struct {
	mu       sync.Mutex
	rows     map[string]snapshot.Summary
	cleared  int
	failFor  string
	replaced []string
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]snapshot.Summary{}}
}

func (s *memStore) ReplaceStock(ctx context.Context, stock string, h []snapshot.HistoricalRow, l []snapshot.LiveRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stock == s.failFor {
		return errors.New("connection reset")
	}
	s.rows[stock] = snapshot.Summary{Historical: h, Live: l}
	s.replaced = append(s.replaced, stock)
	return nil
}

func (s *memStore) ClearStock(ctx context.Context, stock string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, stock)
	return nil
}

func (s *memStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = map[string]snapshot.Summary{}
	s.cleared++
	return nil
}

type memRuns struct {
	mu   sync.Mutex
	runs []*processing.Run
}

func (r *memRuns) LogRun(ctx context.Context, run *processing.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

func (r *memRuns) LastRun(ctx context.Context) (*processing.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.runs) == 0 {
		return nil, errors.ErrNotFound
	}
	return r.runs[len(r.runs)-1], nil
}

func (r *memRuns) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (r *memRuns) LogUpload(ctx context.Context, upload *processing.Upload) error { return nil }

func (r *memRuns) RecentUploads(ctx context.Context, limit int) ([]*processing.Upload, error) {
	return nil, nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []*events.BatchCompleted
}

func (s *recordingSink) PublishBatchCompleted(ctx context.Context, e *events.BatchCompleted) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

type recordingHistory struct {
	mu     sync.Mutex
	stocks []string
}

func (h *recordingHistory) Record(ctx context.Context, runID string, at time.Time, stock string, rows []snapshot.LiveRow) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stocks = append(h.stocks, stock)
	return nil
}

type recordingInvalidator struct {
	stocks []string
}

func (i *recordingInvalidator) Invalidate(ctx context.Context, stocks ...string) {
	i.stocks = append(i.stocks, stocks...)
}

func withRows(symbol string) extraction.Result {
	return extraction.Result{
		Symbol:     symbol,
		Historical: []snapshot.HistoricalRow{{Stock: symbol, Strike: "3000"}},
		Live:       []snapshot.LiveRow{{Stock: symbol, Section: snapshot.SectionCallSupport, Strike: "3000"}},
	}
}

type fixture struct {
	svc     *Service
	books   *fakeBooks
	store   *memStore
	runs    *memRuns
	sink    *recordingSink
	history *recordingHistory
	inval   *recordingInvalidator
}

func newFixture(t *testing.T, universe []string, concurrency int) *fixture {
	t.Helper()
	f := &fixture{
		books:   &fakeBooks{results: map[string]extraction.Result{}, fail: map[string]error{}},
		store:   newMemStore(),
		runs:    &memRuns{},
		sink:    &recordingSink{},
		history: &recordingHistory{},
		inval:   &recordingInvalidator{},
	}
	f.svc = NewService(Config{
		Source:      &fakeSource{books: f.books},
		Store:       f.store,
		Runs:        f.runs,
		History:     f.history,
		Invalidator: f.inval,
		Events:      f.sink,
		Universe:    universe,
		Concurrency: concurrency,
	})
	return f
}

func TestProcessAll_IsolatesFailingSymbol(t *testing.T) {
	for _, concurrency := range []int{1, 4} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			f := newFixture(t, []string{"RELIANCE", "TCS", "INFY"}, concurrency)
			f.books.results["RELIANCE"] = withRows("RELIANCE")
			f.books.results["INFY"] = withRows("INFY")
			f.books.fail["TCS"] = errors.New("live extraction failed: index out of range")

			res, err := f.svc.ProcessAll(context.Background(), Options{ClearExisting: true, Trigger: "test"})
			require.NoError(t, err)

			assert.Equal(t, processing.StatusSuccess, res.Status)
			assert.Equal(t, 2, res.SuccessCount)
			assert.Equal(t, 3, res.TotalCount)
			require.Len(t, res.Errors, 1)
			assert.Equal(t, "TCS: live extraction failed: index out of range", res.Errors[0])
			assert.Equal(t, "Processed 2/3 stocks successfully. 1 errors occurred.", res.Message)
			assert.Equal(t, "15.03.2025", res.LiveSheet)

			assert.Contains(t, f.store.rows, "RELIANCE")
			assert.Contains(t, f.store.rows, "INFY")
			assert.NotContains(t, f.store.rows, "TCS")
			assert.Equal(t, 1, f.store.cleared)
			assert.ElementsMatch(t, []string{"RELIANCE", "INFY"}, f.history.stocks)
			assert.ElementsMatch(t, []string{"RELIANCE", "TCS", "INFY"}, f.inval.stocks)

			require.Len(t, f.runs.runs, 1)
			assert.Equal(t, 2, f.runs.runs[0].StocksProcessed)
			assert.Equal(t, processing.ProcessFull, f.runs.runs[0].ProcessType)

			require.Len(t, f.sink.events, 1)
			assert.Equal(t, res.RunID, f.sink.events[0].RunID)
			assert.True(t, f.sink.events[0].Failed())
		})
	}
}

func TestProcessAll_StoresSurvivingStepOfPartialFailure(t *testing.T) {
	f := newFixture(t, []string{"RELIANCE", "TCS"}, 1)
	f.books.results["RELIANCE"] = withRows("RELIANCE")
	f.books.results["TCS"] = extraction.Result{
		Symbol:     "TCS",
		Historical: []snapshot.HistoricalRow{{Stock: "TCS", Strike: "4000"}},
	}
	f.books.fail["TCS"] = errors.New("live extraction failed: index out of range")

	res, err := f.svc.ProcessAll(context.Background(), Options{ClearExisting: true})
	require.NoError(t, err)

	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, []string{"TCS: live extraction failed: index out of range"}, res.Errors)

	require.Contains(t, f.store.rows, "TCS")
	assert.Len(t, f.store.rows["TCS"].Historical, 1)
	assert.Empty(t, f.store.rows["TCS"].Live)
	assert.ElementsMatch(t, []string{"RELIANCE"}, f.history.stocks)
}

func TestProcessAll_EmptySymbolIsNeitherSuccessNorError(t *testing.T) {
	f := newFixture(t, []string{"RELIANCE", "UNKNOWN"}, 1)
	f.books.results["RELIANCE"] = withRows("RELIANCE")

	res, err := f.svc.ProcessAll(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, res.SuccessCount)
	assert.Empty(t, res.Errors)
	assert.Equal(t, "Processed 1/2 stocks successfully", res.Message)
	assert.Zero(t, f.store.cleared)
}

func TestProcessAll_StoreFailureIsRecorded(t *testing.T) {
	f := newFixture(t, []string{"RELIANCE", "TCS"}, 2)
	f.books.results["RELIANCE"] = withRows("RELIANCE")
	f.books.results["TCS"] = withRows("TCS")
	f.store.failFor = "TCS"

	res, err := f.svc.ProcessAll(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, []string{"TCS: store rows: connection reset"}, res.Errors)
}

func TestProcessAll_ErrorsCapped(t *testing.T) {
	universe := make([]string, 15)
	f := newFixture(t, nil, 3)
	for i := range universe {
		universe[i] = fmt.Sprintf("SYM%02d", i)
		f.books.fail[universe[i]] = errors.New("boom")
	}

	res, err := f.svc.ProcessAll(context.Background(), Options{Stocks: universe})
	require.NoError(t, err)

	assert.Equal(t, 15, res.TotalCount)
	assert.Zero(t, res.SuccessCount)
	require.Len(t, res.Errors, MaxReportedErrors)
	assert.Equal(t, "SYM00: boom", res.Errors[0])
	assert.Equal(t, "SYM09: boom", res.Errors[9])
	assert.Contains(t, res.Message, "15 errors occurred")
}

func TestProcessAll_MissingDocuments(t *testing.T) {
	f := newFixture(t, []string{"RELIANCE"}, 1)
	f.svc.cfg.Source = &fakeSource{err: errors.Newf("%w: open Live.xlsx", errors.ErrDocumentsMissing)}

	res, err := f.svc.ProcessAll(context.Background(), Options{ClearExisting: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDocumentsMissing)

	require.NotNil(t, res)
	assert.Equal(t, processing.StatusError, res.Status)
	assert.Zero(t, res.SuccessCount)
	assert.Zero(t, f.store.cleared, "nothing is cleared when documents are missing")
	assert.Empty(t, f.store.replaced)

	require.Len(t, f.runs.runs, 1)
	assert.Equal(t, processing.StatusError, f.runs.runs[0].Status)
	require.Len(t, f.sink.events, 1)
	assert.Equal(t, "error", f.sink.events[0].Status)

	st := f.svc.Status()
	assert.Equal(t, "idle", st.Status)
}

func TestProcessAll_UnwrappedOpenFailureIsDocumentsMissing(t *testing.T) {
	f := newFixture(t, []string{"RELIANCE"}, 1)
	f.svc.cfg.Source = &fakeSource{err: errors.New("zip: not a valid zip file")}

	_, err := f.svc.ProcessAll(context.Background(), Options{})
	assert.ErrorIs(t, err, errors.ErrDocumentsMissing)
}

func TestProcessAll_LockContention(t *testing.T) {
	f := newFixture(t, []string{"RELIANCE"}, 1)
	lock := NewLocalLock()
	f.svc.cfg.Lock = lock

	release, err := lock.TryAcquire(context.Background())
	require.NoError(t, err)

	_, err = f.svc.ProcessAll(context.Background(), Options{})
	assert.ErrorIs(t, err, errors.ErrBatchInProgress)
	assert.Empty(t, f.runs.runs)

	release()
	_, err = f.svc.ProcessAll(context.Background(), Options{})
	assert.NoError(t, err)
}

func TestProcessAll_CancelledBeforeStart(t *testing.T) {
	f := newFixture(t, []string{"RELIANCE", "TCS"}, 1)
	f.books.results["RELIANCE"] = withRows("RELIANCE")
	f.books.results["TCS"] = withRows("TCS")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.svc.ProcessAll(ctx, Options{})
	require.NoError(t, err)
	assert.Zero(t, res.SuccessCount)
	assert.Equal(t, 2, res.TotalCount)
	assert.Empty(t, f.store.replaced)
	require.Len(t, f.runs.runs, 1, "a cancelled batch is still logged")
}

func TestProcessSingle(t *testing.T) {
	f := newFixture(t, []string{"RELIANCE"}, 1)
	f.books.results["RELIANCE"] = withRows("RELIANCE")

	res, err := f.svc.ProcessSingle(context.Background(), " reliance ")
	require.NoError(t, err)
	assert.Equal(t, &SymbolResult{Stock: "RELIANCE", HistoricalRows: 1, LiveRows: 1}, res)
	assert.Contains(t, f.store.rows, "RELIANCE")
	assert.Equal(t, []string{"RELIANCE"}, f.inval.stocks)
	require.Len(t, f.runs.runs, 1)
	assert.Equal(t, processing.ProcessSingle, f.runs.runs[0].ProcessType)

	_, err = f.svc.ProcessSingle(context.Background(), "  ")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	f.books.fail["TCS"] = errors.New("boom")
	_, err = f.svc.ProcessSingle(context.Background(), "tcs")
	require.Error(t, err)
	assert.Equal(t, "TCS: boom", err.Error())
}

func TestStatus(t *testing.T) {
	f := newFixture(t, []string{"RELIANCE"}, 1)
	f.books.results["RELIANCE"] = withRows("RELIANCE")

	st := f.svc.Status()
	assert.Equal(t, "idle", st.Status)
	assert.Equal(t, "No processing has been performed yet", st.Message)
	assert.Zero(t, st.StocksProcessed)

	_, err := f.svc.ProcessAll(context.Background(), Options{})
	require.NoError(t, err)

	st = f.svc.Status()
	assert.Equal(t, "completed", st.Status)
	assert.Equal(t, 1, st.StocksProcessed)
	assert.False(t, st.Timestamp.IsZero())

	last, count := f.svc.LastBatch()
	assert.Equal(t, st.Timestamp, last)
	assert.Equal(t, 1, count)

	run, err := f.svc.LastRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, run.StocksProcessed)
}

func TestLocalLock_ReleaseIsIdempotent(t *testing.T) {
	lock := NewLocalLock()

	release, err := lock.TryAcquire(context.Background())
	require.NoError(t, err)
	release()
	release()

	second, err := lock.TryAcquire(context.Background())
	require.NoError(t, err)
	_, err = lock.TryAcquire(context.Background())
	assert.ErrorIs(t, err, errors.ErrBatchInProgress)
	second()
}
