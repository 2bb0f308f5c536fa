package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"github.com/sells-group/contact-cli/internal/resilience"
)

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	assert.Equal(t, 1920, o.Width)
	assert.Equal(t, 1080, o.Height)
	assert.Equal(t, "pt-BR", o.Locale)
	assert.Equal(t, "America/Sao_Paulo", o.Timezone)
	assert.Contains(t, o.UserAgent, "Chrome/119")
	assert.Equal(t, 2*time.Second, o.SlowMo)
}

func TestAllocatorOptions_Extras(t *testing.T) {
	base := len(allocatorOptions(Options{}))
	with := len(allocatorOptions(Options{UserAgent: "ua", ExecPath: "/usr/bin/chromium"}))
	assert.Equal(t, base+2, with)
}

func TestNewLimiter(t *testing.T) {
	assert.Equal(t, rate.Inf, newLimiter(0).Limit())
	assert.InDelta(t, 0.5, float64(newLimiter(2*time.Second).Limit()), 1e-9)
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}

func TestSleep_Elapses(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
	assert.NoError(t, Sleep(context.Background(), 0))
}

func TestNavigateErr(t *testing.T) {
	var te *resilience.TransientError

	err := navigateErr("https://www.google.com/search", errors.New("page load error net::ERR_CONNECTION_RESET"))
	assert.True(t, errors.As(err, &te))
	assert.Equal(t, "navigate", te.Op)
	assert.True(t, resilience.IsTransient(err))

	err = navigateErr("https://www.google.com/search", errors.New("page load error net::ERR_ABORTED"))
	assert.False(t, errors.As(err, &te))
	assert.False(t, resilience.IsTransient(err))
}
