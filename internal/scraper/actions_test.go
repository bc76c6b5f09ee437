package scraper

import (
	"context"
	"testing"
	"time"

	"jobstreet-applied/lib/browser/browsertest"

	"github.com/stretchr/testify/require"
)

const buttonsPage = `<html><body>
<button aria-label="Plain" data-fake-open="d">plain</button>
<button aria-label="Covered" data-fake-intercept data-fake-open="d">covered</button>
<button aria-label="Hidden" data-fake-disabled data-fake-open="d">hidden</button>
</body></html>`

func TestClickFallsBackToForcedClick(t *testing.T) {
	ctx := background(t)
	f := browsertest.New(map[string]string{"https://example.test/": buttonsPage})
	f.Dialogs["d"] = `<div role="dialog">d</div>`
	require.NoError(t, f.Navigate(ctx, "https://example.test/"))
	actions, rec := newTestActions(f)

	for _, label := range []string{"Plain", "Covered", "Hidden"} {
		el, ok := actions.Locate(ctx, nil, CSS("button[aria-label='"+label+"']"), 0)
		require.True(t, ok, label)
		require.True(t, actions.Click(ctx, el), label)
	}

	require.Equal(t, []string{
		"native button[aria-label=Plain]",
		"force button[aria-label=Covered]",
		"force button[aria-label=Hidden]",
	}, f.Clicks)
	require.Len(t, rec.IDs("debug"), 2)
	require.Empty(t, rec.IDs("warning"))
}

func TestClickStaleElement(t *testing.T) {
	ctx := background(t)
	f := browsertest.New(map[string]string{
		"https://example.test/":  buttonsPage,
		"https://example.test/2": `<html><body></body></html>`,
	})
	require.NoError(t, f.Navigate(ctx, "https://example.test/"))
	actions, rec := newTestActions(f)

	el, ok := actions.Locate(ctx, nil, CSS("button"), 0)
	require.True(t, ok)
	require.NoError(t, f.Navigate(ctx, "https://example.test/2"))

	require.False(t, actions.Click(ctx, el))
	require.Empty(t, f.Clicks)
	require.Equal(t, []string{"actions:click.scroll"}, rec.IDs("warning"))
}

func TestLocateWaitsForLateElements(t *testing.T) {
	ctx := background(t)
	f := browsertest.New(map[string]string{"https://example.test/": `<html><body></body></html>`})
	f.Dialogs["late"] = `<div role="dialog"><span>late</span></div>`
	require.NoError(t, f.Navigate(ctx, "https://example.test/"))
	actions, _ := newTestActions(f)

	_, ok := actions.Locate(ctx, nil, CSS("[role='dialog']"), 0)
	require.False(t, ok)

	calls := 0
	found := actions.WaitFor(ctx, 30*time.Millisecond, func(ctx context.Context) (bool, error) {
		calls++
		if calls == 3 {
			require.NoError(t, f.OpenDialog("late"))
		}
		_, ok := actions.Exists(ctx, nil, CSS("[role='dialog']"))
		return ok, nil
	})
	require.True(t, found)
	require.GreaterOrEqual(t, calls, 3)

	el, ok := actions.Locate(ctx, nil, XPath("//span[contains(text(), 'late')]"), 0)
	require.True(t, ok)
	text, err := el.Text(ctx)
	require.NoError(t, err)
	require.Equal(t, "late", text)

	require.Len(t, actions.LocateAll(ctx, nil, CSS("span"), 0), 1)
	require.Nil(t, actions.LocateAll(ctx, nil, CSS("table"), 0))
}

func TestClickBoundsStalledNativeClick(t *testing.T) {
	ctx := background(t)
	f := browsertest.New(map[string]string{"https://example.test/": buttonsPage})
	f.Dialogs["d"] = `<div role="dialog">d</div>`
	require.NoError(t, f.Navigate(ctx, "https://example.test/"))
	actions, rec := newTestActions(stalling{Fake: f, click: true})

	el, ok := actions.Locate(ctx, nil, CSS("button[aria-label='Plain']"), 0)
	require.True(t, ok)

	start := time.Now()
	require.True(t, actions.Click(ctx, el))
	require.Less(t, time.Since(start), time.Second)
	require.Equal(t, []string{"force button[aria-label=Plain]"}, f.Clicks)
	require.Equal(t, []string{"actions:click.fallback"}, rec.IDs("debug"))
	require.Empty(t, rec.IDs("warning"))
}

func TestClickCancelledDuringNativeClick(t *testing.T) {
	f := browsertest.New(map[string]string{"https://example.test/": buttonsPage})
	require.NoError(t, f.Navigate(background(t), "https://example.test/"))
	actions, rec := newTestActions(stalling{Fake: f, click: true})

	el, ok := actions.Locate(background(t), nil, CSS("button[aria-label='Plain']"), 0)
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(background(t), 5*time.Millisecond)
	defer cancel()
	require.False(t, actions.Click(ctx, el))
	require.Empty(t, f.Clicks)
	require.Equal(t, []string{"actions:click.native"}, rec.IDs("warning"))
}
