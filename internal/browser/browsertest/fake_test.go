package browsertest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contact-cli/internal/browser"
)

func TestSession_RoutesBySubstring(t *testing.T) {
	s := NewSession().Route("padaria", "<html><body><p id=a>ok</p></body></html>")
	ctx := context.Background()

	tab, err := s.NewTab(ctx)
	require.NoError(t, err)
	require.NoError(t, tab.Navigate(ctx, "https://example.com/padaria?x=1"))

	html, err := tab.HTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, "ok")

	require.NoError(t, tab.Navigate(ctx, "https://example.com/other"))
	ok, err := tab.Exists(ctx, "#a")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []string{"https://example.com/padaria?x=1", "https://example.com/other"}, s.Navigations())
}

func TestTab_SnapshotsAdvanceOnMiss(t *testing.T) {
	s := NewSession().Route("q", "<div id=waiting></div>", "<div id=waiting></div>", "<div id=search></div>")
	ctx := context.Background()
	tab, err := s.NewTab(ctx)
	require.NoError(t, err)
	require.NoError(t, tab.Navigate(ctx, "q"))

	err = tab.WaitVisible(ctx, "#search", 0)
	assert.True(t, errors.Is(err, browser.ErrTimeout))

	ok, err := tab.Exists(ctx, "#search")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = tab.Exists(ctx, "#search")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSession_FailNavigation(t *testing.T) {
	boom := errors.New("boom")
	s := NewSession().Route("x", "<p>x</p>").FailNavigation("x", boom)
	ctx := context.Background()
	tab, err := s.NewTab(ctx)
	require.NoError(t, err)

	assert.Equal(t, boom, tab.Navigate(ctx, "x"))
	assert.NoError(t, tab.Navigate(ctx, "x"))
}

func TestSession_TabCounts(t *testing.T) {
	s := NewSession()
	tab, err := s.NewTab(context.Background())
	require.NoError(t, err)
	require.NoError(t, tab.Close())
	require.NoError(t, tab.Close())

	opened, closed := s.TabCounts()
	assert.Equal(t, 1, opened)
	assert.Equal(t, 1, closed)
}
