package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"jobstreet-applied/internal/config"
	"jobstreet-applied/internal/scraper"

	"github.com/stretchr/testify/require"
)

func TestAskEmail(t *testing.T) {
	out := &bytes.Buffer{}
	prompter := scraper.NewTerminalPrompter(strings.NewReader("not-an-email\n someone@example.com \n"), out)

	email, err := askEmail(context.Background(), prompter, "")
	require.NoError(t, err)
	require.Equal(t, "someone@example.com", email)
	require.Equal(t, 1, strings.Count(out.String(), "Invalid email format"))

	email, err = askEmail(context.Background(), prompter, "preset@example.com")
	require.NoError(t, err)
	require.Equal(t, "preset@example.com", email)
}

func TestApplyScrapeFlags(t *testing.T) {
	require.NoError(t, scrapeCmd.ParseFlags([]string{"--desc", "--format", "csv,xlsx", "--max-pages", "2"}))
	t.Cleanup(func() {
		scrapeFlags.desc = false
		scrapeFlags.formats = nil
		scrapeFlags.maxPages = 0
	})

	c := config.Default()
	c.Email = "kept@example.com"
	applyScrapeFlags(scrapeCmd, &c)

	require.Equal(t, config.Descending, c.Sort)
	require.Equal(t, []string{"csv", "xlsx"}, c.Formats)
	require.Equal(t, 2, c.MaxPages)
	require.Equal(t, "kept@example.com", c.Email)
	require.NoError(t, c.Validate())
}
