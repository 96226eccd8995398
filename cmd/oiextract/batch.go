package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"oitracker/internal/adapters/config"
	"oitracker/internal/domain/processing"
	"oitracker/internal/domain/snapshot"
	ingestsvc "oitracker/internal/services/ingest"
	"oitracker/pkg/errors"
)

func newBatchCmd() *cobra.Command {
	var (
		stocks      []string
		concurrency int
		format      string
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run a full batch over the security universe into memory",
		Long: `batch runs the same orchestration the service runs, with an in-memory
store, and prints per-security row counts and the batch outcome.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatTable && format != formatJSON {
				return errors.NewValidationError("format", "must be table or json", format)
			}

			today, loc, err := marketToday(cmd)
			if err != nil {
				return err
			}
			histPath, _ := cmd.Flags().GetString("historical")
			livePath, _ := cmd.Flags().GetString("live")

			if len(stocks) == 0 {
				stocks = config.DefaultStocks
			}

			source := ingestsvc.NewFileSource(histPath, livePath, loc)
			source.Now = func() time.Time { return today }

			store := newMemStore()
			svc := ingestsvc.NewService(ingestsvc.Config{
				Source:      source,
				Store:       store,
				Runs:        store,
				Universe:    stocks,
				Concurrency: concurrency,
			})

			result, err := svc.ProcessAll(cmd.Context(), ingestsvc.Options{ClearExisting: true, Trigger: "cli"})
			if result == nil {
				return err
			}

			w := cmd.OutOrStdout()
			if format == formatJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(result); encErr != nil {
					return encErr
				}
			} else {
				table := newTable(w, []string{"Stock", "Historical", "Live"})
				for _, stock := range store.Stocks() {
					s := store.rows[stock]
					table.Append([]string{stock, strconv.Itoa(len(s.Historical)), strconv.Itoa(len(s.Live))})
				}
				table.Render()
				fmt.Fprintf(w, "\n%s (%s, %dms)\n", result.Message, result.Status, result.DurationMS)
				for _, e := range result.Errors {
					fmt.Fprintf(w, "  - %s\n", e)
				}
			}
			return err
		},
	}

	cmd.Flags().StringSliceVar(&stocks, "stocks", nil, "Securities to process, default the built-in F&O list")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 4, "Securities extracted in parallel")
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "Output format: table, json")
	return cmd
}

// memStore keeps one batch in memory. It serves as both the row store and
// the run log.
type memStore struct {
	mu   sync.Mutex
	rows map[string]snapshot.Summary
	runs []*processing.Run
}

var (
	_ ingestsvc.Store       = (*memStore)(nil)
	_ processing.Repository = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]snapshot.Summary)}
}

func (m *memStore) ReplaceStock(ctx context.Context, stock string, historical []snapshot.HistoricalRow, live []snapshot.LiveRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[strings.ToUpper(stock)] = snapshot.Summary{Historical: historical, Live: live}
	return nil
}

func (m *memStore) ClearStock(ctx context.Context, stock string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, strings.ToUpper(stock))
	return nil
}

func (m *memStore) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = make(map[string]snapshot.Summary)
	return nil
}

// Stocks returns the stored securities in name order
func (m *memStore) Stocks() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.rows))
	for s := range m.rows {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (m *memStore) LogRun(ctx context.Context, run *processing.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *memStore) LastRun(ctx context.Context) (*processing.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.runs) == 0 {
		return nil, errors.ErrNotFound
	}
	return m.runs[len(m.runs)-1], nil
}

func (m *memStore) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (m *memStore) LogUpload(ctx context.Context, upload *processing.Upload) error {
	return nil
}

func (m *memStore) RecentUploads(ctx context.Context, limit int) ([]*processing.Upload, error) {
	return nil, nil
}
