package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/contact-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "contact-cli",
	Short: "Business contact extraction from search panels and social profiles",
	Long: `Reads a list of business names, looks each one up on the search engine's
business panel, follows the social profile for email and messaging numbers,
and stores one merged record per business for CSV or XLSX export.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		// The full-screen UI owns the terminal; logs go to the file only.
		if f := cmd.Flags().Lookup("tui"); f != nil && f.Value.String() == "true" {
			cfg.Log.Quiet = true
		}

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
