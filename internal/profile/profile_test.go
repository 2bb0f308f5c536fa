package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/contact-cli/internal/browser/browsertest"
	"github.com/sells-group/contact-cli/internal/extract"
	"github.com/sells-group/contact-cli/internal/model"
)

const (
	landingPage = `<html><body><a href="/lojaxyz/about">Sobre</a><p>Bem-vindo</p></body></html>`
	aboutPage   = `<html><body><ul>
<li>support@facebook.com</li>
<li>contato@lojaxyz.com.br</li>
<li>WhatsApp (19) 99123-4567</li>
</ul></body></html>`
)

func newTestEnricher(s *browsertest.Session) *Enricher {
	e := New(s, extract.NewFacebookAbout(extract.DefaultProfileRules("19")), Config{Timeout: time.Second})
	e.sleep = func(context.Context, time.Duration) error { return nil }
	return e
}

func TestEnrich_FollowsAboutLink(t *testing.T) {
	s := browsertest.NewSession().
		Route("/lojaxyz/about", aboutPage).
		Route("facebook.com/lojaxyz", landingPage)

	c := newTestEnricher(s).Enrich(context.Background(), "https://www.facebook.com/lojaxyz")

	assert.Equal(t, model.ProfileContact{Email: "contato@lojaxyz.com.br", MessagingNumber: "(19) 99123-4567"}, c)
	assert.Equal(t, []string{
		"https://www.facebook.com/lojaxyz",
		"https://www.facebook.com/lojaxyz/about",
	}, s.Navigations())

	opened, closed := s.TabCounts()
	assert.Equal(t, 1, opened)
	assert.Equal(t, 1, closed)
}

func TestEnrich_NoAboutLinkUsesLandingPage(t *testing.T) {
	s := browsertest.NewSession().Route("facebook.com/padaria", `<html><body>Email: oi@padaria.com.br</body></html>`)

	c := newTestEnricher(s).Enrich(context.Background(), "https://facebook.com/padaria")
	assert.Equal(t, "oi@padaria.com.br", c.Email)
	assert.Len(t, s.Navigations(), 1)
}

func TestEnrich_AboutNavigationFailsIsNotFatal(t *testing.T) {
	s := browsertest.NewSession().
		FailNavigation("/lojaxyz/about", errors.New("net::ERR_ABORTED")).
		Route("facebook.com/lojaxyz", `<html><body><a href="/lojaxyz/about">Sobre</a> <p>vendas@lojaxyz.com.br</p></body></html>`)

	c := newTestEnricher(s).Enrich(context.Background(), "https://www.facebook.com/lojaxyz")
	assert.Equal(t, "vendas@lojaxyz.com.br", c.Email)
}

func TestEnrich_NavigationErrorSwallowed(t *testing.T) {
	s := browsertest.NewSession().FailNavigation("facebook", errors.New("net::ERR_TIMED_OUT"))

	c := newTestEnricher(s).Enrich(context.Background(), "https://facebook.com/x")
	assert.True(t, c.Empty())

	_, closed := s.TabCounts()
	assert.Equal(t, 1, closed)
}

func TestEnrich_TabErrorSwallowed(t *testing.T) {
	s := browsertest.NewSession()
	s.NewTabErr = errors.New("browser gone")
	assert.True(t, newTestEnricher(s).Enrich(context.Background(), "https://facebook.com/x").Empty())
}

func TestResolve(t *testing.T) {
	base := "https://www.facebook.com/lojaxyz"
	assert.Equal(t, "https://www.facebook.com/lojaxyz/about", resolve(base, "/lojaxyz/about"))
	assert.Equal(t, "https://www.facebook.com/lojaxyz?sk=info", resolve(base, "?sk=info"))
	assert.Equal(t, "https://m.facebook.com/a", resolve(base, "https://m.facebook.com/a"))
	assert.Empty(t, resolve(base, "#"))
	assert.Empty(t, resolve(base, "javascript:void(0)"))
	assert.Empty(t, resolve(base, ""))
}
