// Package challenge detects CAPTCHA interstitials and waits for a human to
// clear them.
package challenge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contact-cli/internal/browser"
	"github.com/sells-group/contact-cli/internal/model"
)

// State is the gate's position in the challenge lifecycle.
type State int

const (
	Idle State = iota
	Detected
	AwaitingResolution
	Resolved
	TimedOut
	Escalated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Detected:
		return "detected"
	case AwaitingResolution:
		return "awaiting_resolution"
	case Resolved:
		return "resolved"
	case TimedOut:
		return "timed_out"
	case Escalated:
		return "escalated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Page is the part of a browser tab the gate inspects.
type Page interface {
	HTML(ctx context.Context) (string, error)
	Exists(ctx context.Context, sel string) (bool, error)
}

// Notifier is told about a challenge before the gate acts on it.
type Notifier interface {
	OnChallenge(subject, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(subject, message string)

func (f NotifierFunc) OnChallenge(subject, message string) { f(subject, message) }

// Config controls how a detected challenge is handled.
type Config struct {
	// Attended waits for a human to solve the challenge in a visible
	// browser. Otherwise the challenge is escalated immediately.
	Attended          bool
	ResolutionTimeout time.Duration
	PollInterval      time.Duration
	// ResolvedSelector appears once the page is past the challenge.
	ResolvedSelector string
	// Settle is the pause after resolution before extraction resumes.
	Settle time.Duration
}

// DefaultConfig waits up to five minutes for the results container.
func DefaultConfig() Config {
	return Config{
		Attended:          true,
		ResolutionTimeout: 300 * time.Second,
		PollInterval:      time.Second,
		ResolvedSelector:  "div#search",
		Settle:            2 * time.Second,
	}
}

// Transition records one state change.
type Transition struct {
	From    State
	To      State
	Subject string
	At      time.Time
}

// Gate is a per-session challenge state machine. Guard calls are serialized
// so at most one challenge is outstanding.
type Gate struct {
	cfg      Config
	detector *Detector
	notifier Notifier
	now      func() time.Time

	guardMu sync.Mutex

	mu      sync.Mutex
	state   State
	history []Transition
}

// NewGate builds a gate. A nil detector uses DefaultDetector; a nil notifier
// is allowed.
func NewGate(cfg Config, detector *Detector, notifier Notifier) *Gate {
	def := DefaultConfig()
	if cfg.ResolutionTimeout <= 0 {
		cfg.ResolutionTimeout = def.ResolutionTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.ResolvedSelector == "" {
		cfg.ResolvedSelector = def.ResolvedSelector
	}
	if detector == nil {
		detector = DefaultDetector()
	}
	return &Gate{cfg: cfg, detector: detector, notifier: notifier, now: time.Now}
}

// SetNotifier replaces the notifier. Used to bind the run's listener after
// construction.
func (g *Gate) SetNotifier(n Notifier) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.notifier = n
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// History returns every transition so far.
func (g *Gate) History() []Transition {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Transition(nil), g.history...)
}

func (g *Gate) transition(to State, subject string) {
	g.mu.Lock()
	from := g.state
	g.state = to
	g.history = append(g.history, Transition{From: from, To: to, Subject: subject, At: g.now()})
	g.mu.Unlock()

	zap.L().Info("challenge: state change",
		zap.String("subject", subject),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
	)
}

func (g *Gate) notify(subject, message string) {
	g.mu.Lock()
	n := g.notifier
	g.mu.Unlock()
	if n != nil {
		n.OnChallenge(subject, message)
	}
}

// Guard inspects page and returns nil when no challenge is present or the
// challenge was cleared. It returns an error wrapping
// model.ErrChallengeUnresolved when the challenge escalates or times out.
// The gate is back in Idle when Guard returns.
func (g *Gate) Guard(ctx context.Context, page Page, subject string) error {
	g.guardMu.Lock()
	defer g.guardMu.Unlock()

	html, err := page.HTML(ctx)
	if err != nil {
		return eris.Wrap(err, "challenge: capture page")
	}
	kind := g.detector.Detect(html)
	if kind == KindNone {
		return nil
	}

	g.transition(Detected, subject)
	defer g.transition(Idle, subject)
	g.notify(subject, fmt.Sprintf("challenge page detected (%s)", kind))

	if !g.cfg.Attended {
		g.transition(Escalated, subject)
		zap.L().Warn("challenge: cannot be solved unattended; re-run with a visible browser",
			zap.String("subject", subject),
			zap.String("kind", string(kind)),
		)
		return eris.Wrapf(model.ErrChallengeUnresolved, "challenge: escalated for %q", subject)
	}

	g.transition(AwaitingResolution, subject)
	zap.L().Warn("challenge: solve it in the browser window",
		zap.String("subject", subject),
		zap.Duration("timeout", g.cfg.ResolutionTimeout),
	)
	return g.await(ctx, page, subject)
}

func (g *Gate) await(ctx context.Context, page Page, subject string) error {
	deadline := g.now().Add(g.cfg.ResolutionTimeout)
	for {
		ok, err := page.Exists(ctx, g.cfg.ResolvedSelector)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			zap.L().Debug("challenge: poll failed", zap.String("subject", subject), zap.Error(err))
		}
		if ok {
			g.transition(Resolved, subject)
			return browser.Sleep(ctx, g.cfg.Settle)
		}
		if !g.now().Before(deadline) {
			g.transition(TimedOut, subject)
			return eris.Wrapf(model.ErrChallengeUnresolved,
				"challenge: %q not resolved within %s", subject, g.cfg.ResolutionTimeout)
		}
		if err := browser.Sleep(ctx, g.cfg.PollInterval); err != nil {
			return err
		}
	}
}
