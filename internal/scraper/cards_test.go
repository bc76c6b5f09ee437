package scraper

import (
	"testing"

	"jobstreet-applied/internal/telemetry/telemetrytest"
	"jobstreet-applied/lib/browser/browsertest"

	"github.com/stretchr/testify/require"
)

func TestCardsSortedByIndex(t *testing.T) {
	cases := []struct {
		name   string
		page   string
		expect []string
	}{
		{
			name:   "reverse dom order",
			page:   resultsPage("", "", 3, 1, 2),
			expect: []string{"job-item-1", "job-item-2", "job-item-3"},
		},
		{
			name:   "numeric not lexical",
			page:   resultsPage("", "", 10, 9, 1),
			expect: []string{"job-item-1", "job-item-9", "job-item-10"},
		},
		{
			name: "unparsable index sorts first",
			page: `<html><body>
<article data-automation="job-item-2"></article>
<article data-automation="job-item-x"></article>
<article data-automation="job-item-1"></article>
</body></html>`,
			expect: []string{"job-item-x", "job-item-1", "job-item-2"},
		},
		{
			name:   "no cards",
			page:   resultsPage("", ""),
			expect: nil,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			ctx := background(t)
			f := browsertest.New(map[string]string{resultsURL: test.page})
			require.NoError(t, f.Navigate(ctx, resultsURL))
			s := newTestSession(f)
			actions, _ := newTestActions(f)
			rec := &telemetrytest.Recorder{}

			cards := NewCardLocator(actions, rec).List(ctx, s)

			var got []string
			for _, c := range cards {
				attr, _, err := c.Attribute(ctx, "data-automation")
				require.NoError(t, err)
				got = append(got, attr)
			}
			require.Equal(t, test.expect, got)
			if test.expect == nil {
				require.Equal(t, []string{"cards:empty"}, rec.IDs("warning"))
			}
		})
	}
}
