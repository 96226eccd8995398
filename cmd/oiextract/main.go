package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"oitracker/pkg/logger"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "oiextract",
		Short: "Extract open-interest rows from the historical and live workbooks",
		Long: `oiextract reads the exported Historical and Live workbooks directly,
without the API or any data store. Use it to inspect what a batch would
store for a security, or to check which sheets a workbook resolves to.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(logLevel, "development")
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "error", "Log level: debug, info, warn, error")
	root.PersistentFlags().String("historical", "live_data/Historical.xlsx", "Path to the historical workbook")
	root.PersistentFlags().String("live", "live_data/Live.xlsx", "Path to the live workbook")
	root.PersistentFlags().String("timezone", "Asia/Kolkata", "Market time zone, decides which live sheet is today's")
	root.PersistentFlags().String("date", "", "Treat this day (YYYY-MM-DD) as today")

	root.AddCommand(newExtractCmd(), newSheetsCmd(), newBatchCmd())
	return root
}

// marketToday resolves the --date and --timezone flags
func marketToday(cmd *cobra.Command) (time.Time, *time.Location, error) {
	tz, _ := cmd.Flags().GetString("timezone")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, nil, err
	}

	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		return time.Now().In(loc), loc, nil
	}
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, nil, err
	}
	return day, loc, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
