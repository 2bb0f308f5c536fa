package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/contact-cli/internal/model"
)

// ProfileFieldExtractor reads contact fields from a rendered profile page.
type ProfileFieldExtractor interface {
	Extract(doc *goquery.Document) model.ProfileContact
}

// ProfileRules configures the profile-page heuristics.
type ProfileRules struct {
	AreaCode             string
	ExcludedEmailDomains []string
	AboutSelectors       []string // hrefs tried first, in order
	AboutLinkTexts       []string // folded anchor texts tried next
}

// DefaultProfileRules returns the rules for the given local area code.
func DefaultProfileRules(areaCode string) ProfileRules {
	return ProfileRules{
		AreaCode: areaCode,
		ExcludedEmailDomains: []string{
			"facebook.com", "instagram.com", "twitter.com",
			"google.com", "outlook.com", "example.com",
		},
		AboutSelectors: []string{`a[href*="/about"]`},
		AboutLinkTexts: []string{"sobre", "about", "informacoes", "info"},
	}
}

var (
	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)

	// Asset names such as logo@2x.png look like addresses.
	assetSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg"}
)

// FacebookAbout extracts email and messaging number from a profile page.
type FacebookAbout struct {
	rules   ProfileRules
	mobiles []*regexp.Regexp
}

// NewFacebookAbout builds the extractor for rules.
func NewFacebookAbout(rules ProfileRules) *FacebookAbout {
	return &FacebookAbout{rules: rules, mobiles: mobilePatterns(rules.AreaCode)}
}

// Extract scans the rendered text first and the raw markup second.
func (f *FacebookAbout) Extract(doc *goquery.Document) model.ProfileContact {
	sources := []string{Text(doc.Selection)}
	if raw, err := doc.Html(); err == nil {
		sources = append(sources, raw)
	}

	var c model.ProfileContact
	for _, src := range sources {
		if c.Email == "" {
			c.Email = f.Email(src)
		}
		if c.MessagingNumber == "" {
			c.MessagingNumber = f.MessagingNumber(src)
		}
	}
	return c
}

// Email returns the first address in content whose domain is not excluded,
// lowercased.
func (f *FacebookAbout) Email(content string) string {
	for _, m := range emailRe.FindAllString(content, -1) {
		email := strings.ToLower(m)
		domain := email[strings.LastIndex(email, "@")+1:]
		if matchesAny(domain, f.rules.ExcludedEmailDomains) || hasAssetSuffix(email) {
			continue
		}
		return email
	}
	return ""
}

func hasAssetSuffix(s string) bool {
	for _, suf := range assetSuffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

// MessagingNumber returns the first local mobile number in content. When no
// full number is present it looks for a nine digit mobile right after a
// contact keyword and prefixes the local area code.
func (f *FacebookAbout) MessagingNumber(content string) string {
	ac := f.rules.AreaCode
	for _, re := range f.mobiles {
		for _, m := range re.FindAllString(content, -1) {
			d := Digits(m)
			if len(d) < 11 {
				continue
			}
			d = d[len(d)-11:]
			if d[:len(ac)] == ac && d[len(ac)] == '9' {
				return FormatPhone(d)
			}
		}
	}

	if sm := contextMobileRe.FindStringSubmatch(content); sm != nil {
		if d := Digits(sm[1]); len(d) == 9 {
			return FormatPhone(ac + d)
		}
	}
	return ""
}

// AboutLink returns the href of the first about/info link on the page, or "".
func (f *FacebookAbout) AboutLink(doc *goquery.Document) string {
	for _, sel := range f.rules.AboutSelectors {
		if href, ok := doc.Find(sel).First().Attr("href"); ok && href != "" {
			return href
		}
	}

	var href string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := Fold(strings.TrimSpace(s.Text()))
		for _, want := range f.rules.AboutLinkTexts {
			if text == want {
				href = s.AttrOr("href", "")
				return false
			}
		}
		return true
	})
	return href
}
