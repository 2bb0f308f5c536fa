package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Validate a subject list and print the names in processing order",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if runCSV != "" {
			cfg.Pipeline.SourcePath = runCSV
		}
		subjects, err := loadSubjects(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for i, name := range subjects {
			fmt.Fprintf(out, "%4d  %s\n", i+1, name)
		}
		fmt.Fprintf(out, "%d subjects from %s\n", len(subjects), cfg.Pipeline.SourcePath)
		return nil
	},
}

func init() {
	sourceCmd.Flags().StringVar(&runCSV, "csv", "", "subject list (.csv or .xlsx); defaults to pipeline.source_path")
	sourceCmd.Flags().IntVar(&runLimit, "limit", 0, "max subjects to print (0 = all)")
	rootCmd.AddCommand(sourceCmd)
}
