package challenge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contact-cli/internal/browser/browsertest"
	"github.com/sells-group/contact-cli/internal/model"
)

const (
	captchaPage = `<html><body><form id="captcha-form"><div class="g-recaptcha"></div></form></body></html>`
	resultsPage = `<html><body><div id="search"><div class="g">result</div></div></body></html>`
)

func TestDetect(t *testing.T) {
	d := DefaultDetector()
	tests := []struct {
		name string
		html string
		want Kind
	}{
		{"captcha form", captchaPage, KindCaptcha},
		{"recaptcha iframe", `<html><body><iframe src="https://www.google.com/recaptcha/api2/anchor"></iframe></body></html>`, KindCaptcha},
		{"unusual traffic en", `<html><body>Our systems have detected unusual traffic from your computer network.</body></html>`, KindUnusualTraffic},
		{"unusual traffic pt", `<html><body>Nossos sistemas detectaram TRÁFEGO INCOMUM na sua rede.</body></html>`, KindUnusualTraffic},
		{"browser check", `<html><body><h1>Checking your browser before accessing</h1></body></html>`, KindBrowserCheck},
		{"results page", resultsPage, KindNone},
		{"empty", "", KindNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Detect(tt.html))
		})
	}
}

func tabWith(t *testing.T, snapshots ...string) *browsertest.Tab {
	t.Helper()
	s := browsertest.NewSession().Route("search", snapshots...)
	tab, err := s.NewTab(context.Background())
	require.NoError(t, err)
	require.NoError(t, tab.Navigate(context.Background(), "https://www.google.com/search?q=x"))
	return tab.(*browsertest.Tab)
}

func states(hist []Transition) []State {
	out := make([]State, len(hist))
	for i, tr := range hist {
		out[i] = tr.To
	}
	return out
}

func fastConfig(attended bool) Config {
	return Config{
		Attended:          attended,
		ResolutionTimeout: 20 * time.Millisecond,
		PollInterval:      time.Millisecond,
	}
}

func TestGuard_NoChallenge(t *testing.T) {
	g := NewGate(fastConfig(true), nil, nil)
	require.NoError(t, g.Guard(context.Background(), tabWith(t, resultsPage), "Padaria Central"))
	assert.Equal(t, Idle, g.State())
	assert.Empty(t, g.History())
}

func TestGuard_UnattendedEscalates(t *testing.T) {
	var notified []string
	g := NewGate(fastConfig(false), nil, nil)
	g.SetNotifier(NotifierFunc(func(subject, _ string) {
		assert.Equal(t, Detected, g.State())
		notified = append(notified, subject)
	}))

	err := g.Guard(context.Background(), tabWith(t, captchaPage), "Loja XYZ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrChallengeUnresolved))
	assert.Equal(t, []string{"Loja XYZ"}, notified)
	assert.Equal(t, []State{Detected, Escalated, Idle}, states(g.History()))
	assert.Equal(t, Idle, g.State())
}

func TestGuard_AttendedResolves(t *testing.T) {
	g := NewGate(fastConfig(true), nil, nil)
	tab := tabWith(t, captchaPage, captchaPage, resultsPage)

	require.NoError(t, g.Guard(context.Background(), tab, "Padaria Central"))
	assert.Equal(t, []State{Detected, AwaitingResolution, Resolved, Idle}, states(g.History()))
	for _, tr := range g.History() {
		assert.Equal(t, "Padaria Central", tr.Subject)
	}
}

func TestGuard_AttendedTimesOut(t *testing.T) {
	g := NewGate(fastConfig(true), nil, nil)

	err := g.Guard(context.Background(), tabWith(t, captchaPage), "Loja XYZ")
	assert.True(t, errors.Is(err, model.ErrChallengeUnresolved))
	assert.Equal(t, []State{Detected, AwaitingResolution, TimedOut, Idle}, states(g.History()))
}

func TestGuard_CancelledWhileWaiting(t *testing.T) {
	cfg := fastConfig(true)
	cfg.ResolutionTimeout = time.Minute
	cfg.PollInterval = 5 * time.Millisecond
	g := NewGate(cfg, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := g.Guard(ctx, tabWith(t, captchaPage), "Loja XYZ")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, errors.Is(err, model.ErrChallengeUnresolved))
	assert.Equal(t, Idle, g.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "awaiting_resolution", AwaitingResolution.String())
	assert.Equal(t, "escalated", Escalated.String())
	assert.Equal(t, "state(42)", State(42).String())
}
