// Package browsertest provides an in-memory browser.Session for tests.
package browsertest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/contact-cli/internal/browser"
)

const blank = "<html><head></head><body></body></html>"

type route struct {
	match     string
	snapshots []string
	navErrs   []error
}

// Session serves canned HTML by URL substring. Each route holds a sequence
// of snapshots: a selector lookup that misses advances the tab to the next
// snapshot, which models a page changing while something waits on it.
type Session struct {
	mu          sync.Mutex
	routes      []*route
	NewTabErr   error
	navigations []string
	opened      int
	closed      int
}

// NewSession returns an empty fake session.
func NewSession() *Session {
	return &Session{}
}

// Route serves snapshots for any URL containing match. The first matching
// route wins.
func (s *Session) Route(match string, snapshots ...string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = append(s.routes, &route{match: match, snapshots: snapshots})
	return s
}

// FailNavigation queues errors returned by successive navigations to a URL
// containing match, before it is served normally.
func (s *Session) FailNavigation(match string, errs ...error) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.routes {
		if r.match == match {
			r.navErrs = append(r.navErrs, errs...)
			return s
		}
	}
	s.routes = append(s.routes, &route{match: match, navErrs: errs, snapshots: []string{blank}})
	return s
}

// Navigations returns every URL navigated to, in order.
func (s *Session) Navigations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.navigations...)
}

// TabCounts returns how many tabs were opened and closed.
func (s *Session) TabCounts() (opened, closed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened, s.closed
}

func (s *Session) NewTab(ctx context.Context) (browser.Tab, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.NewTabErr != nil {
		return nil, s.NewTabErr
	}
	s.opened++
	return &Tab{session: s, snapshots: []string{blank}}, nil
}

func (s *Session) Close() error { return nil }

// Tab is a fake browser.Tab.
type Tab struct {
	session   *Session
	snapshots []string
	idx       int
	closed    bool
}

func (t *Tab) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := t.session
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigations = append(s.navigations, url)

	for _, r := range s.routes {
		if !strings.Contains(url, r.match) {
			continue
		}
		if len(r.navErrs) > 0 {
			err := r.navErrs[0]
			r.navErrs = r.navErrs[1:]
			return err
		}
		t.snapshots = r.snapshots
		if len(t.snapshots) == 0 {
			t.snapshots = []string{blank}
		}
		t.idx = 0
		return nil
	}
	t.snapshots = []string{blank}
	t.idx = 0
	return nil
}

func (t *Tab) current() string {
	return t.snapshots[t.idx]
}

func (t *Tab) advance() {
	if t.idx < len(t.snapshots)-1 {
		t.idx++
	}
}

func (t *Tab) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t.session.mu.Lock()
	defer t.session.mu.Unlock()
	return t.current(), nil
}

func (t *Tab) has(sel string) (bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(t.current()))
	if err != nil {
		return false, eris.Wrap(err, "browsertest: parse snapshot")
	}
	return doc.Find(sel).Length() > 0, nil
}

// Exists reports whether sel matches the current snapshot, advancing to the
// next snapshot on a miss.
func (t *Tab) Exists(ctx context.Context, sel string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	t.session.mu.Lock()
	defer t.session.mu.Unlock()
	ok, err := t.has(sel)
	if err == nil && !ok {
		t.advance()
	}
	return ok, err
}

// WaitVisible returns immediately: nil when sel matches the current
// snapshot, browser.ErrTimeout otherwise.
func (t *Tab) WaitVisible(ctx context.Context, sel string, _ time.Duration) error {
	ok, err := t.Exists(ctx, sel)
	if err != nil {
		return err
	}
	if !ok {
		return eris.Wrapf(browser.ErrTimeout, "browsertest: wait for %s", sel)
	}
	return nil
}

func (t *Tab) Close() error {
	t.session.mu.Lock()
	defer t.session.mu.Unlock()
	if !t.closed {
		t.closed = true
		t.session.closed++
	}
	return nil
}
