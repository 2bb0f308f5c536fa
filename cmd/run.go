package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/contact-cli/internal/export"
	"github.com/sells-group/contact-cli/internal/model"
	"github.com/sells-group/contact-cli/internal/pipeline"
	"github.com/sells-group/contact-cli/internal/source"
	"github.com/sells-group/contact-cli/internal/store"
	"github.com/sells-group/contact-cli/internal/tui"
)

var (
	runCSV      string
	runLimit    int
	runHeadless bool
	runTUI      bool
	runDryRun   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract contacts for every business in a CSV or XLSX file",
	Long: `Processes each business name in file order: search panel lookup, optional
social profile enrichment, then a merge into the contact store.

Examples:
  # Visible browser, CAPTCHAs solved by hand
  contact-cli run --csv empresas.csv

  # Headless, challenged businesses are skipped
  contact-cli run --csv empresas.csv --headless --limit 10

  # Full-screen progress view
  contact-cli run --csv empresas.csv --tui`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cmd.Flags().Changed("headless") {
			cfg.Browser.Headless = runHeadless
		}
		if runCSV != "" {
			cfg.Pipeline.SourcePath = runCSV
		}
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		subjects, err := loadSubjects(ctx)
		if err != nil {
			return err
		}
		if len(subjects) == 0 {
			zap.L().Warn("run: no subjects to process", zap.String("source", cfg.Pipeline.SourcePath))
			return nil
		}

		var repo store.Repository
		if !runDryRun {
			repo, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer repo.Close() //nolint:errcheck
		}

		env, err := initExtraction(ctx)
		if err != nil {
			return eris.Wrap(err, "run: init browser")
		}
		defer env.Close()

		var enricher pipeline.Enricher
		if env.Enricher != nil {
			enricher = env.Enricher
		}

		if runTUI {
			return runWithTUI(ctx, subjects, repo, env, enricher)
		}

		listener := pipeline.LogListener{}
		env.Gate.SetNotifier(listener)
		orch := pipeline.New(env.Search, enricher, repo, listener, paceOption())

		stats, runErr := orch.Run(ctx, subjects)
		if err := writeStats(stats); err != nil {
			return err
		}
		if runErr != nil && ctx.Err() != nil {
			zap.L().Warn("run: interrupted", zap.Int("processed", stats.Processed), zap.Int("total", stats.Total))
			return nil
		}
		return runErr
	},
}

func init() {
	runCmd.Flags().StringVar(&runCSV, "csv", "", "subject list (.csv or .xlsx); defaults to pipeline.source_path")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "max subjects to process (0 = all)")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "run the browser without a window")
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "show the full-screen progress view")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "extract without writing to the store")
	rootCmd.AddCommand(runCmd)
}

func loadSubjects(ctx context.Context) ([]string, error) {
	subjects, err := source.Load(ctx, cfg.Pipeline.SourcePath, source.Options{Column: cfg.Pipeline.Column})
	if err != nil {
		return nil, eris.Wrap(err, "load subjects")
	}
	if runLimit > 0 && runLimit < len(subjects) {
		subjects = subjects[:runLimit]
	}
	return subjects, nil
}

func paceOption() pipeline.Option {
	return pipeline.WithPace(secs(cfg.Pipeline.PaceMinSecs), secs(cfg.Pipeline.PaceMaxSecs))
}

func writeStats(stats model.RunStatistics) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

// runWithTUI runs the UI and the event forwarder side by side. The pipeline
// itself is started from the UI with the p key.
func runWithTUI(ctx context.Context, subjects []string, repo store.Repository, env *extractionEnv, enricher pipeline.Enricher) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := pipeline.NewChannelListener(256)
	listener := pipeline.MultiListener{pipeline.LogListener{}, events}
	env.Gate.SetNotifier(listener)
	orch := pipeline.New(env.Search, enricher, repo, listener, paceOption())

	// One run at a time; shutdown waits for the in-flight run to stop.
	var (
		runMu  sync.Mutex
		closed bool
	)
	handlers := tui.Handlers{
		Process: func(ctx context.Context) (model.RunStatistics, error) {
			runMu.Lock()
			defer runMu.Unlock()
			if closed {
				return model.RunStatistics{}, context.Canceled
			}
			return orch.Run(ctx, subjects)
		},
	}
	if repo != nil {
		exp := export.New(repo, export.Config{Dir: cfg.Export.Dir, Format: export.Format(cfg.Export.Format)})
		handlers.Export = exp.ExportWithURIFilter
	}

	p := tea.NewProgram(
		tui.New(ctx, handlers, cfg.Pipeline.SourcePath, len(subjects)),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tui.Forward(gctx, events.Events(), p)
		return nil
	})
	g.Go(func() error {
		defer cancel()
		defer events.Stop()
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return eris.Wrap(err, "run: tui")
		}
		return nil
	})
	err := g.Wait()

	runMu.Lock()
	closed = true
	runMu.Unlock()
	events.Close()

	return err
}
