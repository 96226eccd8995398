package main

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"oitracker/internal/spreadsheet"
)

func newSheetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets FILE",
		Short: "List the sheets of a workbook and the ones a batch would read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			today, _, err := marketToday(cmd)
			if err != nil {
				return err
			}

			doc, err := spreadsheet.Open(args[0])
			if err != nil {
				return err
			}
			defer doc.Close()

			names := doc.SheetNames()
			historical := spreadsheet.PickLatestSheet(names, nil)
			live := spreadsheet.PickLiveSheet(names, today)

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Sheet", "Date", "Historical", "Live"})
			table.SetAutoFormatHeaders(false)
			for _, name := range names {
				date := "-"
				if d, ok := spreadsheet.ParseSheetDate(name); ok {
					date = d.Format("2006-01-02")
				}
				table.Append([]string{name, date, mark(name == historical), mark(name == live)})
			}
			table.Render()
			return nil
		},
	}
}

func mark(selected bool) string {
	if selected {
		return "*"
	}
	return ""
}
