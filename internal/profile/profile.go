// Package profile enriches a subject from its social profile page.
package profile

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contact-cli/internal/browser"
	"github.com/sells-group/contact-cli/internal/model"
)

// Fields reads contact fields and the about-section link from a profile page.
type Fields interface {
	Extract(doc *goquery.Document) model.ProfileContact
	AboutLink(doc *goquery.Document) string
}

// Config controls enrichment.
type Config struct {
	// Settle is the pause after each navigation.
	Settle time.Duration
	// Timeout bounds one Enrich call.
	Timeout time.Duration
}

// DefaultConfig settles two seconds after each page load.
func DefaultConfig() Config {
	return Config{Settle: 2 * time.Second, Timeout: 60 * time.Second}
}

// Enricher opens each profile on a fresh tab of the shared session.
type Enricher struct {
	session browser.Session
	fields  Fields
	cfg     Config
	sleep   func(context.Context, time.Duration) error
}

// New builds an Enricher.
func New(session browser.Session, fields Fields, cfg Config) *Enricher {
	return &Enricher{session: session, fields: fields, cfg: cfg, sleep: browser.Sleep}
}

// Enrich returns whatever contact fields the profile exposes. Failures are
// logged and yield an empty contact.
func (e *Enricher) Enrich(ctx context.Context, profileURL string) model.ProfileContact {
	log := zap.L().With(zap.String("profile", profileURL))

	c, err := e.enrich(ctx, profileURL)
	if err != nil {
		log.Warn("profile: enrichment failed", zap.Error(err))
		return model.ProfileContact{}
	}
	log.Info("profile: enriched",
		zap.Bool("email", c.Email != ""),
		zap.Bool("messaging", c.MessagingNumber != ""),
	)
	return c
}

func (e *Enricher) enrich(ctx context.Context, profileURL string) (model.ProfileContact, error) {
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	tab, err := e.session.NewTab(ctx)
	if err != nil {
		return model.ProfileContact{}, eris.Wrap(err, "profile: open tab")
	}
	defer func() { _ = tab.Close() }()

	if err := tab.Navigate(ctx, profileURL); err != nil {
		return model.ProfileContact{}, eris.Wrapf(model.ErrNavigation, "profile: %v", err)
	}
	if err := e.sleep(ctx, e.cfg.Settle); err != nil {
		return model.ProfileContact{}, err
	}

	doc, err := capture(ctx, tab)
	if err != nil {
		return model.ProfileContact{}, err
	}

	if about := resolve(profileURL, e.fields.AboutLink(doc)); about != "" {
		if err := tab.Navigate(ctx, about); err != nil {
			zap.L().Debug("profile: about section unreachable", zap.String("about", about), zap.Error(err))
		} else if err := e.sleep(ctx, e.cfg.Settle); err != nil {
			return model.ProfileContact{}, err
		}
		if doc, err = capture(ctx, tab); err != nil {
			return model.ProfileContact{}, err
		}
	}

	return e.fields.Extract(doc), nil
}

func capture(ctx context.Context, tab browser.Tab) (*goquery.Document, error) {
	html, err := tab.HTML(ctx)
	if err != nil {
		return nil, eris.Wrapf(model.ErrRenderTimeout, "profile: capture: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "profile: parse")
	}
	return doc, nil
}

// resolve makes href absolute against base. Script and fragment links are
// dropped.
func resolve(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return b.ResolveReference(ref).String()
}
