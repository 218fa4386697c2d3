package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lapalma/sunscan-go/cmd/export"
	"github.com/lapalma/sunscan-go/cmd/query"
	"github.com/lapalma/sunscan-go/cmd/serve"
	"github.com/lapalma/sunscan-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sunscan",
		Short: "Solar observation dataset browser and query tool",
		Long: "sunscan loads the La Palma solar observation dataset, normalizes it " +
			"and serves it for querying, analytics and literature search.",
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
	}

	subcommands := []*cobra.Command{
		serve.Command(settings),
		query.Command(settings),
		export.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Dataset.Path, "dataset", viper.GetString("dataset.path"), "Path to the observation CSV file")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
