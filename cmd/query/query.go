// Package query implements the CLI dataset query command.
package query

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lapalma/sunscan-go/internal/conf"
	"github.com/lapalma/sunscan-go/internal/dataset"
	"github.com/lapalma/sunscan-go/internal/filter"
	"github.com/lapalma/sunscan-go/internal/stats"
)

// options collects the filter flags of one query invocation.
type options struct {
	yearMin     int
	yearMax     int
	dateStart   string
	dateEnd     string
	timeStart   string
	timeEnd     string
	instruments []string
	matchMode   string
	polarimetry string
	targets     []string
	keyword     string
	limit       int
	summary     bool
}

// Command creates the query command, which filters the dataset and prints
// the matching observations.
func Command(settings *conf.Settings) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query the observation dataset",
		Long:  "Filter the observation dataset by date, time, instrument, polarimetry, target and keyword, and print the matching rows.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(settings, opts)
		},
	}

	cmd.Flags().IntVar(&opts.yearMin, "year-min", 0, "Keep observations from this year on")
	cmd.Flags().IntVar(&opts.yearMax, "year-max", 0, "Keep observations up to this year")
	cmd.Flags().StringVar(&opts.dateStart, "date-start", "", "Keep observations from this date on (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.dateEnd, "date-end", "", "Keep observations up to this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.timeStart, "time-start", "", "Keep observations from this time of day on (HH:MM)")
	cmd.Flags().StringVar(&opts.timeEnd, "time-end", "", "Keep observations up to this time of day (HH:MM)")
	cmd.Flags().StringSliceVar(&opts.instruments, "instruments", viper.GetStringSlice("dataset.defaultinstruments"), "Instrument tags to match")
	cmd.Flags().StringVar(&opts.matchMode, "match", "any", "Instrument match mode: any or all")
	cmd.Flags().StringVar(&opts.polarimetry, "polarimetry", "all", "Polarimetry filter: all, true or false")
	cmd.Flags().StringSliceVar(&opts.targets, "targets", nil, "Target names to match")
	cmd.Flags().StringVar(&opts.keyword, "keyword", "", "Free-text phrase over target and comments")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Maximum number of rows to print, 0 for all")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "Print summary statistics instead of rows")

	return cmd
}

func runQuery(settings *conf.Settings, opts *options) error {
	loader := dataset.NewLoader()
	defer loader.Close()

	ds, err := loader.Load(settings.Dataset.Path)
	if err != nil {
		return err
	}
	if ds.Empty() {
		fmt.Println("The observation dataset is empty.")
		return nil
	}

	criteria, err := buildCriteria(opts)
	if err != nil {
		return err
	}
	rows := dataset.SortByTimestampDesc(filter.Apply(ds.Rows, criteria))

	if opts.summary {
		printSummary(rows)
		return nil
	}

	if opts.limit > 0 && opts.limit < len(rows) {
		rows = rows[:opts.limit]
	}

	if settings.Output.File.Enabled && settings.Output.File.Type == "csv" {
		return writeCSVOutput(settings, ds, rows)
	}

	printTable(rows)
	fmt.Printf("\n%d observation(s)\n", len(rows))
	return nil
}

func buildCriteria(opts *options) (filter.Criteria, error) {
	polarimetry, ok := filter.ParsePolarimetryMode(opts.polarimetry)
	if !ok {
		return filter.Criteria{}, fmt.Errorf("invalid --polarimetry value %q, expected all, true or false", opts.polarimetry)
	}

	criteria := filter.Criteria{
		TimeStart:      opts.timeStart,
		TimeEnd:        opts.timeEnd,
		Instruments:    opts.instruments,
		InstrumentMode: filter.ParseMatchMode(opts.matchMode),
		Polarimetry:    polarimetry,
		Targets:        opts.targets,
		Keyword:        opts.keyword,
	}
	if opts.yearMin > 0 {
		criteria.YearMin = &opts.yearMin
	}
	if opts.yearMax > 0 {
		criteria.YearMax = &opts.yearMax
	}

	var err error
	if criteria.DateStart, err = parseDateFlag(opts.dateStart, "date-start"); err != nil {
		return criteria, err
	}
	if criteria.DateEnd, err = parseDateFlag(opts.dateEnd, "date-end"); err != nil {
		return criteria, err
	}
	return criteria, nil
}

func parseDateFlag(raw, name string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s value %q, expected YYYY-MM-DD", name, raw)
	}
	return &t, nil
}

func printTable(rows []dataset.Observation) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTIME\tINSTRUMENTS\tPOLARIMETRY\tTARGET")
	for i := range rows {
		date := ""
		if rows[i].Timestamp != nil {
			date = rows[i].Timestamp.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			date,
			rows[i].TimeOfDay,
			strings.Join(rows[i].Instruments, ","),
			rows[i].Polarimetry,
			rows[i].Target)
	}
	w.Flush()
}

func printSummary(rows []dataset.Observation) {
	summary := stats.Summarize(rows)
	fmt.Printf("Observations:       %d\n", summary.Observations)
	fmt.Printf("Years covered:      %d\n", summary.YearsCovered)
	fmt.Printf("Unique instruments: %d\n", summary.UniqueInstruments)
	fmt.Printf("With polarimetry:   %d\n", summary.WithPolarimetry)
}

func writeCSVOutput(settings *conf.Settings, ds *dataset.Dataset, rows []dataset.Observation) error {
	data, err := ds.ExportCSV(rows)
	if err != nil {
		return err
	}

	dir := settings.Output.File.Path
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %q: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("query-%s.csv", time.Now().Format("20060102-150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write query output: %w", err)
	}

	fmt.Printf("Wrote %d observation(s) to %s\n", len(rows), path)
	return nil
}
