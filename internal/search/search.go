// Package search looks a subject up on the search engine and reads the
// business panel.
package search

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contact-cli/internal/browser"
	"github.com/sells-group/contact-cli/internal/challenge"
	"github.com/sells-group/contact-cli/internal/extract"
	"github.com/sells-group/contact-cli/internal/model"
	"github.com/sells-group/contact-cli/internal/resilience"
)

// Guard clears challenge pages before extraction.
type Guard interface {
	Guard(ctx context.Context, page challenge.Page, subject string) error
}

// Config controls the lookup.
type Config struct {
	BaseURL       string
	Locality      string
	PanelSelector string
	PanelTimeout  time.Duration
	SettleMin     time.Duration
	SettleMax     time.Duration
	Retry         resilience.RetryConfig
}

// DefaultConfig searches google.com for businesses in Mogi Mirim.
func DefaultConfig() Config {
	return Config{
		BaseURL:       "https://www.google.com",
		Locality:      "Mogi Mirim",
		PanelSelector: extract.PanelSelector,
		PanelTimeout:  5 * time.Second,
		SettleMin:     time.Second,
		SettleMax:     2 * time.Second,
		Retry:         resilience.DefaultRetryConfig(),
	}
}

// Extractor runs searches on a single reused tab.
type Extractor struct {
	session browser.Session
	guard   Guard
	fields  extract.SearchFieldExtractor
	cfg     Config
	sleep   func(context.Context, time.Duration) error

	mu  sync.Mutex
	tab browser.Tab
}

// New builds an Extractor. The tab is opened on first use.
func New(session browser.Session, guard Guard, fields extract.SearchFieldExtractor, cfg Config) *Extractor {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	if cfg.PanelSelector == "" {
		cfg.PanelSelector = extract.PanelSelector
	}
	return &Extractor{session: session, guard: guard, fields: fields, cfg: cfg, sleep: browser.Sleep}
}

// Query builds the search phrase for name.
func Query(name, locality string) string {
	q := `"` + strings.TrimSpace(name) + `"`
	if locality != "" {
		q += " " + locality
	}
	return q
}

// URL returns the results page address for query.
func URL(base, query string) string {
	return strings.TrimRight(base, "/") + "/search?q=" + url.QueryEscape(query)
}

// Search looks up name and returns the outcome. It never panics on markup
// it does not recognize; missing fields are simply empty.
func (e *Extractor) Search(ctx context.Context, name string) model.Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	log := zap.L().With(zap.String("subject", name))

	tab, err := e.openTab(ctx)
	if err != nil {
		return model.Failed(eris.Wrapf(model.ErrNavigation, "search %q: open tab: %v", name, err))
	}

	target := URL(e.cfg.BaseURL, Query(name, e.cfg.Locality))
	retry := e.cfg.Retry
	retry.OnRetry = resilience.RetryLogger("navigate", name)
	if err := resilience.Do(ctx, retry, func(ctx context.Context) error {
		return tab.Navigate(ctx, target)
	}); err != nil {
		e.dropTab()
		if ctx.Err() != nil {
			return model.Failed(ctx.Err())
		}
		return model.Failed(eris.Wrapf(model.ErrNavigation, "search %q: %v", name, err))
	}

	if err := e.sleep(ctx, e.settle()); err != nil {
		return model.Failed(err)
	}

	if e.guard != nil {
		if err := e.guard.Guard(ctx, tab, name); err != nil {
			if errors.Is(err, model.ErrChallengeUnresolved) {
				return model.Challenged(err)
			}
			return model.Failed(err)
		}
	}

	if err := tab.WaitVisible(ctx, e.cfg.PanelSelector, e.cfg.PanelTimeout); err != nil {
		if errors.Is(err, browser.ErrTimeout) {
			log.Info("search: no business panel")
			return model.NoWidget()
		}
		return model.Failed(eris.Wrapf(model.ErrRenderTimeout, "search %q: wait for panel: %v", name, err))
	}

	html, err := tab.HTML(ctx)
	if err != nil {
		return model.Failed(eris.Wrapf(model.ErrRenderTimeout, "search %q: capture: %v", name, err))
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return model.Failed(eris.Wrapf(err, "search %q: parse", name))
	}

	fields := e.fields.Extract(doc)
	log.Info("search: panel read",
		zap.Bool("phone", fields.Phone != ""),
		zap.Bool("website", fields.Website != ""),
		zap.Bool("social", fields.SocialLink != ""),
	)
	return model.Found(fields)
}

func (e *Extractor) settle() time.Duration {
	lo, hi := e.cfg.SettleMin, e.cfg.SettleMax
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo)
}

func (e *Extractor) openTab(ctx context.Context) (browser.Tab, error) {
	if e.tab != nil {
		return e.tab, nil
	}
	tab, err := e.session.NewTab(ctx)
	if err != nil {
		return nil, err
	}
	e.tab = tab
	return tab, nil
}

// dropTab discards a tab that failed to navigate; the next search opens a new one.
func (e *Extractor) dropTab() {
	if e.tab != nil {
		_ = e.tab.Close()
		e.tab = nil
	}
}

// Close releases the search tab.
func (e *Extractor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dropTab()
	return nil
}
