package challenge

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/contact-cli/internal/extract"
)

// Kind describes the kind of interstitial detected.
type Kind string

const (
	KindNone           Kind = ""
	KindCaptcha        Kind = "captcha"
	KindUnusualTraffic Kind = "unusual_traffic"
	KindBrowserCheck   Kind = "browser_check"
)

// Detector recognizes anti-automation interstitials in rendered HTML.
type Detector struct {
	// Selectors that only appear on challenge pages.
	Selectors []string
	// Phrases matched against the folded page text.
	Phrases []string
	// BrowserCheck phrases identify generic proxy verification pages.
	BrowserCheck []string
}

// DefaultDetector returns the markers used by the search engine and common
// bot-protection vendors.
func DefaultDetector() *Detector {
	return &Detector{
		Selectors: []string{
			"form#captcha-form",
			"#captcha-form",
			"div.g-recaptcha",
			`iframe[src*="recaptcha"]`,
			`iframe[src*="hcaptcha"]`,
			"div.h-captcha",
		},
		Phrases: []string{
			"our systems have detected unusual traffic",
			"unusual traffic",
			"trafego incomum",
			"sistemas automatizados",
			"automated queries",
		},
		BrowserCheck: []string{
			"checking your browser",
			"verificando seu navegador",
		},
	}
}

// Detect reports the kind of challenge present in html, or KindNone.
func (d *Detector) Detect(html string) Kind {
	if strings.TrimSpace(html) == "" {
		return KindNone
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return KindNone
	}

	for _, sel := range d.Selectors {
		if doc.Find(sel).Length() > 0 {
			return KindCaptcha
		}
	}

	text := extract.Fold(extract.Text(doc.Find("body")))
	for _, p := range d.Phrases {
		if strings.Contains(text, extract.Fold(p)) {
			return KindUnusualTraffic
		}
	}
	for _, p := range d.BrowserCheck {
		if strings.Contains(text, extract.Fold(p)) {
			return KindBrowserCheck
		}
	}
	return KindNone
}
