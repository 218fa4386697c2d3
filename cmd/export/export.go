// Package export implements the CSV export command.
package export

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lapalma/sunscan-go/internal/conf"
	"github.com/lapalma/sunscan-go/internal/dataset"
	"github.com/lapalma/sunscan-go/internal/filter"
)

// Command creates the export command, which writes the normalized dataset
// back out as CSV, optionally limited to one year range.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		output  string
		yearMin int
		yearMax int
	)

	cmd := &cobra.Command{
		Use:   "export [output.csv]",
		Short: "Export the normalized dataset as CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				output = args[0]
			}
			return runExport(settings, output, yearMin, yearMax)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "observations.csv", "Output file path")
	cmd.Flags().IntVar(&yearMin, "year-min", 0, "Export observations from this year on")
	cmd.Flags().IntVar(&yearMax, "year-max", 0, "Export observations up to this year")

	return cmd
}

func runExport(settings *conf.Settings, output string, yearMin, yearMax int) error {
	loader := dataset.NewLoader()
	defer loader.Close()

	ds, err := loader.Load(settings.Dataset.Path)
	if err != nil {
		return err
	}

	criteria := filter.Criteria{}
	if yearMin > 0 {
		criteria.YearMin = &yearMin
	}
	if yearMax > 0 {
		criteria.YearMax = &yearMax
	}
	rows := filter.Apply(ds.Rows, criteria)

	data, err := ds.ExportCSV(rows)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %q: %w", output, err)
	}

	fmt.Printf("Exported %d observation(s) to %s\n", len(rows), output)
	return nil
}
