// Package browser drives a real browser session for page rendering.
package browser

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// ErrTimeout is returned when a wait for a selector expires.
var ErrTimeout = eris.New("browser: wait timed out")

// Session is a long-lived browser shared by every stage of a run.
type Session interface {
	NewTab(ctx context.Context) (Tab, error)
	Close() error
}

// Tab is a single page inside a Session. Tabs are not safe for concurrent use.
type Tab interface {
	Navigate(ctx context.Context, url string) error
	HTML(ctx context.Context) (string, error)
	// WaitVisible blocks until sel is visible or timeout expires, returning
	// ErrTimeout in the latter case.
	WaitVisible(ctx context.Context, sel string, timeout time.Duration) error
	Exists(ctx context.Context, sel string) (bool, error)
	Close() error
}

// Options configures the browser context.
type Options struct {
	Headless       bool
	ExecPath       string
	UserAgent      string
	Width          int
	Height         int
	Locale         string
	Timezone       string
	AcceptLanguage string
	// SlowMo is the minimum spacing between browser actions.
	SlowMo time.Duration
	// NavigationTimeout bounds a single Navigate call.
	NavigationTimeout time.Duration
}

// DefaultOptions matches a desktop Chrome in Brazil.
func DefaultOptions() Options {
	return Options{
		UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		Width:             1920,
		Height:            1080,
		Locale:            "pt-BR",
		Timezone:          "America/Sao_Paulo",
		AcceptLanguage:    "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7",
		SlowMo:            2 * time.Second,
		NavigationTimeout: 30 * time.Second,
	}
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
