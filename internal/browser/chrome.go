package browser

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/contact-cli/internal/resilience"
)

// hideWebdriver runs before any page script on every document.
const hideWebdriver = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});
Object.defineProperty(navigator, 'languages', {get: () => ['pt-BR', 'pt', 'en-US', 'en']});
window.chrome = window.chrome || {runtime: {}};`

// Chrome is a Session backed by a local Chrome through the DevTools protocol.
type Chrome struct {
	opts    Options
	limiter *rate.Limiter

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	closeOnce sync.Once
}

// NewChrome starts the browser. The returned session must be closed.
func NewChrome(ctx context.Context, opts Options) (*Chrome, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocatorOptions(opts)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// The first Run launches the process.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, eris.Wrap(err, "browser: launch chrome")
	}

	zap.L().Info("browser: started",
		zap.Bool("headless", opts.Headless),
		zap.Duration("slow_mo", opts.SlowMo),
	)

	return &Chrome{
		opts:          opts,
		limiter:       newLimiter(opts.SlowMo),
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	out := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("lang", opts.Locale),
		chromedp.WindowSize(opts.Width, opts.Height),
	)
	if opts.UserAgent != "" {
		out = append(out, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ExecPath != "" {
		out = append(out, chromedp.ExecPath(opts.ExecPath))
	}
	return out
}

func newLimiter(slowMo time.Duration) *rate.Limiter {
	if slowMo <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(slowMo), 1)
}

// NewTab opens a new target in the shared browser with the context overrides applied.
func (c *Chrome) NewTab(ctx context.Context) (Tab, error) {
	tabCtx, cancel := chromedp.NewContext(c.browserCtx)
	t := &chromeTab{ctx: tabCtx, cancel: cancel, limiter: c.limiter, navTimeout: c.opts.NavigationTimeout}

	if err := t.run(ctx, c.emulate()); err != nil {
		cancel()
		return nil, eris.Wrap(err, "browser: prepare tab")
	}
	return t, nil
}

func (c *Chrome) emulate() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return err
		}
		if c.opts.AcceptLanguage != "" {
			if err := network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": c.opts.AcceptLanguage}).Do(ctx); err != nil {
				return err
			}
		}
		if err := emulation.SetDeviceMetricsOverride(int64(c.opts.Width), int64(c.opts.Height), 1, false).Do(ctx); err != nil {
			return err
		}
		if c.opts.Locale != "" {
			if err := emulation.SetLocaleOverride().WithLocale(c.opts.Locale).Do(ctx); err != nil {
				return err
			}
		}
		if c.opts.Timezone != "" {
			if err := emulation.SetTimezoneOverride(c.opts.Timezone).Do(ctx); err != nil {
				return err
			}
		}
		_, err := page.AddScriptToEvaluateOnNewDocument(hideWebdriver).Do(ctx)
		return err
	})
}

// Close shuts the browser down. Safe to call more than once.
func (c *Chrome) Close() error {
	c.closeOnce.Do(func() {
		c.browserCancel()
		c.allocCancel()
		zap.L().Info("browser: closed")
	})
	return nil
}

type chromeTab struct {
	ctx        context.Context
	cancel     context.CancelFunc
	limiter    *rate.Limiter
	navTimeout time.Duration
}

// run executes actions on the tab, cancelled when either the tab or ctx ends.
func (t *chromeTab) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (t *chromeTab) Navigate(ctx context.Context, url string) error {
	if t.navTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.navTimeout)
		defer cancel()
	}
	if err := t.run(ctx, chromedp.Navigate(url)); err != nil {
		return navigateErr(url, err)
	}
	return nil
}

// navigateErr marks network-level navigation failures transient so the
// caller's retry policy picks them up.
func navigateErr(url string, err error) error {
	if resilience.IsTransient(err) {
		err = resilience.NewTransientError(err, "navigate")
	}
	return eris.Wrapf(err, "browser: navigate %s", url)
}

func (t *chromeTab) HTML(ctx context.Context) (string, error) {
	var html string
	if err := t.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", eris.Wrap(err, "browser: capture html")
	}
	return html, nil
}

func (t *chromeTab) WaitVisible(ctx context.Context, sel string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := t.run(waitCtx, chromedp.WaitVisible(sel, chromedp.ByQuery))
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
		return eris.Wrapf(ErrTimeout, "browser: wait for %s", sel)
	}
	return eris.Wrapf(err, "browser: wait for %s", sel)
}

func (t *chromeTab) Exists(ctx context.Context, sel string) (bool, error) {
	var nodes []*cdp.Node
	if err := t.run(ctx, chromedp.Nodes(sel, &nodes, chromedp.ByQuery, chromedp.AtLeast(0))); err != nil {
		return false, eris.Wrapf(err, "browser: query %s", sel)
	}
	return len(nodes) > 0, nil
}

func (t *chromeTab) Close() error {
	t.cancel()
	return nil
}
