package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contact-cli/internal/browser"
	"github.com/sells-group/contact-cli/internal/challenge"
	"github.com/sells-group/contact-cli/internal/config"
	"github.com/sells-group/contact-cli/internal/extract"
	"github.com/sells-group/contact-cli/internal/profile"
	"github.com/sells-group/contact-cli/internal/resilience"
	"github.com/sells-group/contact-cli/internal/search"
	"github.com/sells-group/contact-cli/internal/store"
)

func initStore(ctx context.Context) (store.Repository, error) {
	repo, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL, &store.PoolConfig{
		MaxConns: cfg.Store.MaxConns,
		MinConns: cfg.Store.MinConns,
	})
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	return repo, nil
}

func ms(n int) time.Duration   { return time.Duration(n) * time.Millisecond }
func secs(n int) time.Duration { return time.Duration(n) * time.Second }

func browserOptions(c config.BrowserConfig) browser.Options {
	opts := browser.DefaultOptions()
	opts.Headless = c.Headless
	opts.ExecPath = c.ExecPath
	if c.UserAgent != "" {
		opts.UserAgent = c.UserAgent
	}
	if c.Width > 0 && c.Height > 0 {
		opts.Width, opts.Height = c.Width, c.Height
	}
	if c.Locale != "" {
		opts.Locale = c.Locale
	}
	if c.Timezone != "" {
		opts.Timezone = c.Timezone
	}
	if c.AcceptLanguage != "" {
		opts.AcceptLanguage = c.AcceptLanguage
	}
	opts.SlowMo = ms(c.SlowMoMs)
	if c.NavigationTimeoutSecs > 0 {
		opts.NavigationTimeout = secs(c.NavigationTimeoutSecs)
	}
	return opts
}

func challengeConfig(c *config.Config) challenge.Config {
	return challenge.Config{
		Attended:          c.Challenge.Attended(c.Browser.Headless),
		ResolutionTimeout: secs(c.Challenge.ResolutionTimeoutSecs),
		PollInterval:      ms(c.Challenge.PollIntervalMs),
		ResolvedSelector:  c.Challenge.ResolvedSelector,
		Settle:            ms(c.Challenge.SettleMs),
	}
}

func searchConfig(c config.SearchConfig) search.Config {
	return search.Config{
		BaseURL:       c.BaseURL,
		Locality:      c.Locality,
		PanelSelector: extract.PanelSelector,
		PanelTimeout:  secs(c.PanelTimeoutSecs),
		SettleMin:     ms(c.SettleMinMs),
		SettleMax:     ms(c.SettleMaxMs),
		Retry:         resilience.FromSettings(c.RetryAttempts, ms(c.RetryBackoffMs), ms(c.RetryMaxBackoffMs)),
	}
}

// extractionEnv holds the browser-backed stages of a run.
type extractionEnv struct {
	Session  browser.Session
	Gate     *challenge.Gate
	Search   *search.Extractor
	Enricher *profile.Enricher // nil when profiles are disabled
}

func (e *extractionEnv) Close() {
	if e.Search != nil {
		_ = e.Search.Close()
	}
	if e.Session != nil {
		_ = e.Session.Close()
	}
}

func initExtraction(ctx context.Context) (*extractionEnv, error) {
	session, err := browser.NewChrome(ctx, browserOptions(cfg.Browser))
	if err != nil {
		return nil, err
	}

	gcfg := challengeConfig(cfg)
	if !gcfg.Attended {
		zap.L().Info("challenge handling is unattended; challenged subjects are skipped")
	}
	gate := challenge.NewGate(gcfg, challenge.DefaultDetector(), nil)

	env := &extractionEnv{
		Session: session,
		Gate:    gate,
		Search:  search.New(session, gate, extract.NewGooglePanel(extract.DefaultSearchRules(cfg.Search.AreaCode)), searchConfig(cfg.Search)),
	}
	if cfg.Profile.Enabled {
		env.Enricher = profile.New(session,
			extract.NewFacebookAbout(extract.DefaultProfileRules(cfg.Search.AreaCode)),
			profile.Config{Settle: ms(cfg.Profile.SettleMs), Timeout: secs(cfg.Profile.TimeoutSecs)},
		)
	}
	return env, nil
}
