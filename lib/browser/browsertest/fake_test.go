package browsertest

import (
	"context"
	"testing"

	"jobstreet-applied/lib/browser"

	"github.com/stretchr/testify/require"
)

const listPage = `<html><body>
<div data-automation="job-item-1"><h4><span role="button" data-fake-open="job-1">Open</span></h4></div>
<a aria-label="Next" href="?page=2" data-fake-nav="https://example.test/list?page=2">next</a>
<button data-fake-intercept aria-label="Covered" data-fake-open="job-1">covered</button>
<button data-fake-disabled aria-label="Disabled">disabled</button>
</body></html>`

const dialog = `<div role="dialog">
<span>Lamaran untuk</span><h3>Engineer</h3><span>PT Maju</span><span>Jakarta</span>
<button aria-label="Close" data-fake-close>x</button>
</div>`

func setup(t testing.TB) (*Fake, context.Context) {
	f := New(map[string]string{
		"https://example.test/list":        listPage,
		"https://example.test/list?page=2": `<html><body><p>page two</p></body></html>`,
		"https://example.test/job/1":       `<html><body><h1>job</h1></body></html>`,
	})
	f.Dialogs["job-1"] = dialog
	ctx := context.Background()
	require.NoError(t, f.Navigate(ctx, "https://example.test/list"))
	return f, ctx
}

func TestFindAndXPath(t *testing.T) {
	f, ctx := setup(t)

	_, err := f.FindOne(ctx, nil, "[role='dialog']", browser.CSS)
	require.ErrorIs(t, err, browser.ErrNotFound)

	header, err := f.FindOne(ctx, nil, "h4 span[role='button']", browser.CSS)
	require.NoError(t, err)
	require.NoError(t, f.Click(ctx, header))

	panel, err := f.FindOne(ctx, nil, "[role='dialog']", browser.CSS)
	require.NoError(t, err)

	anchor, err := f.FindOne(ctx, panel, ".//span[contains(text(), 'Lamaran untuk')]", browser.XPath)
	require.NoError(t, err)
	title, err := f.FindOne(ctx, anchor, "./following-sibling::h3[1]", browser.XPath)
	require.NoError(t, err)
	text, err := title.Text(ctx)
	require.NoError(t, err)
	require.Equal(t, "Engineer", text)

	location, err := f.FindOne(ctx, title, "./following-sibling::span[2]", browser.XPath)
	require.NoError(t, err)
	text, err = location.Text(ctx)
	require.NoError(t, err)
	require.Equal(t, "Jakarta", text)

	closeBtn, err := f.FindOne(ctx, panel, "[aria-label='Close']", browser.CSS)
	require.NoError(t, err)
	require.NoError(t, f.Click(ctx, closeBtn))

	_, err = f.FindOne(ctx, nil, "[role='dialog']", browser.CSS)
	require.ErrorIs(t, err, browser.ErrNotFound)
	_, err = panel.Text(ctx)
	require.ErrorIs(t, err, browser.ErrStale)
}

func TestClickBehaviours(t *testing.T) {
	f, ctx := setup(t)

	covered, err := f.FindOne(ctx, nil, "[aria-label='Covered']", browser.CSS)
	require.NoError(t, err)
	require.ErrorIs(t, f.Click(ctx, covered), browser.ErrIntercepted)
	require.NoError(t, f.ForceClick(ctx, covered))
	require.NotNil(t, f.Query("[role='dialog']"))

	disabled, err := f.FindOne(ctx, nil, "[aria-label='Disabled']", browser.CSS)
	require.NoError(t, err)
	require.ErrorIs(t, f.WaitClickable(ctx, disabled), browser.ErrNotInteractable)

	next, err := f.FindOne(ctx, nil, "a[aria-label='Next']", browser.CSS)
	require.NoError(t, err)
	href, err := next.Property(ctx, "href")
	require.NoError(t, err)
	require.Equal(t, "https://example.test/list?page=2", href)

	require.NoError(t, f.Click(ctx, next))
	require.Equal(t, "https://example.test/list?page=2", f.URL())
	_, err = next.Text(ctx)
	require.ErrorIs(t, err, browser.ErrStale)

	require.Equal(t, []string{
		"force button[aria-label=Covered]",
		"native a[aria-label=Next]",
	}, f.Clicks)
}

func TestTabs(t *testing.T) {
	f, ctx := setup(t)
	primary := f.ActiveTab()

	id, err := f.OpenTab(ctx, "https://example.test/job/1")
	require.NoError(t, err)
	require.Equal(t, primary, f.ActiveTab())
	require.Equal(t, 2, f.Tabs())

	require.NoError(t, f.SwitchTo(ctx, id))
	heading, err := f.FindOne(ctx, nil, "h1", browser.CSS)
	require.NoError(t, err)
	require.NoError(t, f.CloseTab(ctx, id))
	require.NoError(t, f.SwitchTo(ctx, primary))

	_, err = heading.Text(ctx)
	require.ErrorIs(t, err, browser.ErrStale)
	require.ErrorIs(t, f.SwitchTo(ctx, id), browser.ErrNoSuchTab)

	_, err = f.OpenTab(ctx, "https://example.test/missing")
	require.Error(t, err)
	require.Equal(t, 1, f.Tabs())
}
