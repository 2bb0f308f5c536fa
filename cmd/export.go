package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/contact-cli/internal/export"
)

var (
	exportAll    bool
	exportFormat string
	exportDir    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored contacts to a timestamped CSV or XLSX file",
	Long: `By default only businesses with a website or a Facebook link are exported.
Use --all for every stored record.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if cmd.Flags().Changed("format") {
			cfg.Export.Format = exportFormat
		}
		if exportDir != "" {
			cfg.Export.Dir = exportDir
		}
		if err := cfg.Validate("export"); err != nil {
			return err
		}
		format, err := export.ParseFormat(cfg.Export.Format)
		if err != nil {
			return err
		}

		repo, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer repo.Close() //nolint:errcheck

		exp := export.New(repo, export.Config{Dir: cfg.Export.Dir, Format: format})
		if stats, err := exp.Stats(ctx); err == nil {
			zap.L().Info("export: store summary",
				zap.Int("total", stats.Total),
				zap.Int("with_uri", stats.WithURI),
				zap.Int("without_uri", stats.WithoutURI),
			)
		}

		var res export.Result
		if exportAll {
			res, err = exp.ExportAll(ctx)
		} else {
			res, err = exp.ExportWithURIFilter(ctx)
		}
		if errors.Is(err, export.ErrNothingToExport) {
			fmt.Fprintln(cmd.OutOrStdout(), "nothing to export")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s (%d rows)\n", res.Path, res.Rows)
		return nil
	},
}

func init() {
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "export every record, not only those with a website or social link")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or xlsx")
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "output directory (default export.dir)")
	rootCmd.AddCommand(exportCmd)
}
