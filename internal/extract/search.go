package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/contact-cli/internal/model"
)

// PanelSelector locates the structured business panel on a results page.
const PanelSelector = `[data-attrid="kc:/local:all in one"]`

// SearchFieldExtractor reads contact fields from a rendered results page.
type SearchFieldExtractor interface {
	Extract(doc *goquery.Document) model.SearchFields
}

// SearchRules configures the results-page heuristics.
type SearchRules struct {
	AreaCode        string
	PanelSelector   string
	CallSelector    string
	SocialDomains   []string // domains accepted as the social profile link
	NonSiteDomains  []string // domains never accepted as the business website
	WebsiteKeywords []string // folded keywords near a fallback website link
}

// DefaultSearchRules returns the rules for the given local area code.
func DefaultSearchRules(areaCode string) SearchRules {
	return SearchRules{
		AreaCode:      areaCode,
		PanelSelector: PanelSelector,
		CallSelector:  `[aria-label*="Ligar para"], [aria-label*="Call phone number"]`,
		SocialDomains: []string{"facebook.com"},
		NonSiteDomains: []string{
			"facebook.com", "instagram.com", "twitter.com", "x.com",
			"linkedin.com", "youtube.com", "tiktok.com", "wa.me", "whatsapp.com",
		},
		WebsiteKeywords: []string{"website", "site", "pagina", "page", "visit"},
	}
}

// GooglePanel extracts phone, website and social link from a search results page.
type GooglePanel struct {
	rules  SearchRules
	phones []*regexp.Regexp
}

// NewGooglePanel builds the extractor for rules.
func NewGooglePanel(rules SearchRules) *GooglePanel {
	if rules.PanelSelector == "" {
		rules.PanelSelector = PanelSelector
	}
	return &GooglePanel{rules: rules, phones: localPhonePatterns(rules.AreaCode)}
}

// Extract runs the three independent field heuristics.
func (g *GooglePanel) Extract(doc *goquery.Document) model.SearchFields {
	return model.SearchFields{
		Phone:      g.Phone(doc),
		Website:    g.Website(doc),
		SocialLink: g.SocialLink(doc),
	}
}

// Phone prefers the call control's accessible label, then local phone
// patterns in the rendered text, then any phone-shaped substring.
func (g *GooglePanel) Phone(doc *goquery.Document) string {
	if g.rules.CallSelector != "" {
		label := doc.Find(g.rules.CallSelector).First().AttrOr("aria-label", "")
		if d := Digits(label); len(d) >= 8 {
			return FormatPhone(d)
		}
	}

	text := Text(doc.Find("body"))
	if text == "" {
		text = Text(doc.Selection)
	}
	for _, re := range g.phones {
		if m := re.FindString(text); m != "" {
			return FormatPhone(m)
		}
	}
	return ""
}

// Website prefers an outbound panel link, falling back to any link whose
// surrounding text names a site.
func (g *GooglePanel) Website(doc *goquery.Document) string {
	var site string
	doc.Find(g.rules.PanelSelector).Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if href := g.siteCandidate(s); href != "" {
			site = href
			return false
		}
		return true
	})
	if site != "" {
		return site
	}

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href := g.siteCandidate(s)
		if href == "" || !g.nearSiteKeyword(s) {
			return true
		}
		site = href
		return false
	})
	return site
}

func (g *GooglePanel) siteCandidate(s *goquery.Selection) string {
	href := UnwrapRedirect(s.AttrOr("href", ""))
	if !isAbsoluteHTTP(href) {
		return ""
	}
	host := Host(href)
	if host == "" || isEngineHost(host) || matchesAny(host, g.rules.NonSiteDomains) {
		return ""
	}
	return href
}

func (g *GooglePanel) nearSiteKeyword(s *goquery.Selection) bool {
	text := Fold(Text(s) + " " + s.AttrOr("aria-label", "") + " " + Text(s.Parent()))
	for _, kw := range g.rules.WebsiteKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// SocialLink returns the first link to a social profile, skipping links to
// individual posts.
func (g *GooglePanel) SocialLink(doc *goquery.Document) string {
	var link string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href := UnwrapRedirect(s.AttrOr("href", ""))
		if !isAbsoluteHTTP(href) || !matchesAny(Host(href), g.rules.SocialDomains) || isPostLink(href) {
			return true
		}
		link = stripQuery(href)
		return false
	})
	return link
}
