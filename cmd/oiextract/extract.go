package main

import (
	"strings"

	"github.com/spf13/cobra"

	"oitracker/internal/extraction"
	"oitracker/pkg/errors"
)

func newExtractCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "extract SYMBOL",
		Short: "Print the historical and live rows of one security",
		Example: `  oiextract extract RELIANCE
  oiextract extract "TCS" --format json --date 2025-03-15`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := strings.TrimSpace(args[0])
			if symbol == "" {
				return errors.NewValidationError("symbol", "is required", args[0])
			}
			if err := checkFormat(format); err != nil {
				return err
			}

			today, _, err := marketToday(cmd)
			if err != nil {
				return err
			}
			histPath, _ := cmd.Flags().GetString("historical")
			livePath, _ := cmd.Flags().GetString("live")

			books, err := extraction.LoadFiles(histPath, livePath, today, extraction.DefaultLayout)
			if err != nil {
				return err
			}

			// A failed step still leaves the other step's rows to print
			res, extractErr := books.Extract(symbol)
			if err := render(cmd.OutOrStdout(), format, res); err != nil {
				return err
			}
			if extractErr != nil {
				return errors.Wrapf(extractErr, "extract %s", res.Symbol)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "Output format: table, json, csv")
	return cmd
}
