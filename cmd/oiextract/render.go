package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/olekukonko/tablewriter"

	"oitracker/internal/domain/snapshot"
	"oitracker/internal/extraction"
	"oitracker/pkg/errors"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatCSV:
		return nil
	}
	return errors.NewValidationError("format", "must be table, json or csv", format)
}

var (
	historicalColumns = []string{"Stock", "Category", "Strike", "Prev_OI", "Latest_OI",
		"Call_OI_Difference", "Put_OI_Difference", "LTP", "Additional_Strike"}
	liveColumns = []string{"Section", "Label", "Prev_OI", "Strike", "OI_Diff", "Is_NewStrike", "Add_Strike"}
)

type extractOutput struct {
	Stock      string                   `json:"stock"`
	Historical []snapshot.HistoricalRow `json:"historical"`
	Live       []snapshot.LiveRow       `json:"live"`
}

func render(w io.Writer, format string, res extraction.Result) error {
	out := extractOutput{Stock: res.Symbol, Historical: res.Historical, Live: res.Live}
	if out.Historical == nil {
		out.Historical = []snapshot.HistoricalRow{}
	}
	if out.Live == nil {
		out.Live = []snapshot.LiveRow{}
	}

	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case formatCSV:
		return renderCSV(w, out)
	default:
		renderTables(w, out)
		return nil
	}
}

// renderCSV writes the historical rows, a blank line, then the live rows
func renderCSV(w io.Writer, out extractOutput) error {
	if err := gocsv.Marshal(out.Historical, w); err != nil {
		return errors.Wrap(err, "write historical csv")
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	if err := gocsv.Marshal(out.Live, w); err != nil {
		return errors.Wrap(err, "write live csv")
	}
	return nil
}

func renderTables(w io.Writer, out extractOutput) {
	fmt.Fprintf(w, "%s historical (%d rows)\n", out.Stock, len(out.Historical))
	hist := newTable(w, historicalColumns)
	for _, r := range out.Historical {
		hist.Append([]string{r.Stock, r.Category, r.Strike, r.PrevOI, r.LatestOI,
			r.CallOIDifference, r.PutOIDifference, r.LTP, r.AdditionalStrike})
	}
	hist.Render()

	fmt.Fprintf(w, "\n%s live (%d rows)\n", out.Stock, len(out.Live))
	live := newTable(w, liveColumns)
	for _, r := range out.Live {
		live.Append([]string{r.Section.String(), r.Label, r.PrevOI, r.Strike, r.OIDiff, r.IsNewStrike, r.AddStrike})
	}
	live.Render()
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	return table
}
