package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"jobstreet-applied/internal/config"
	"jobstreet-applied/internal/export"
	"jobstreet-applied/internal/records"
	"jobstreet-applied/internal/scraper"
	"jobstreet-applied/internal/scraper/jobpage"
	"jobstreet-applied/lib/browser"
	"jobstreet-applied/lib/mailer"
	"jobstreet-applied/lib/telemetry"
	"jobstreet-applied/lib/util/restyutil"
	"jobstreet-applied/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var scrapeFlags struct {
	email    string
	headless bool
	asc      bool
	desc     bool
	formats  []string
	out      string
	maxPages int
	mailTo   []string
	table    bool
}

func init() {
	flags := scrapeCmd.Flags()
	flags.StringVar(&scrapeFlags.email, "email", "", "The JobStreet account email, prompted for when missing.")
	flags.BoolVar(&scrapeFlags.headless, "headless", false, "Run the browser without a window.")
	flags.BoolVar(&scrapeFlags.asc, "asc", false, "Scrape from the first results page forward (default).")
	flags.BoolVar(&scrapeFlags.desc, "desc", false, "Scrape from the last results page back to the first.")
	flags.StringSliceVarP(&scrapeFlags.formats, "format", "f", nil, "Export formats: json, csv, xlsx, sqlite or all.")
	flags.StringVarP(&scrapeFlags.out, "out", "o", "", "The directory exports are written to.")
	flags.IntVar(&scrapeFlags.maxPages, "max-pages", 0, "Stop after this many result pages, 0 scrapes every page.")
	flags.StringSliceVar(&scrapeFlags.mailTo, "mail-to", nil, "Email the exported files to these addresses.")
	flags.BoolVar(&scrapeFlags.table, "table", false, "Print every collected job as a table.")
	scrapeCmd.MarkFlagsMutuallyExclusive("asc", "desc")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--email <address>] [--asc|--desc] [--format json,csv,xlsx,sqlite|all]",
	Short: "Logs into JobStreet and collects every applied job.",
	Run: func(cmd *cobra.Command, args []string) {
		applyScrapeFlags(cmd, &cfg)
		err := cfg.Validate()
		if err != nil {
			serviceutil.Fatal("invalid configuration", err)
		}

		err = runScrape(cmd.Context(), cfg)
		if err != nil {
			serviceutil.Fatal("scrape failed", err)
		}
	},
}

func applyScrapeFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("email") {
		c.Email = scrapeFlags.email
	}
	if flags.Changed("headless") {
		c.Headless = scrapeFlags.headless
	}
	if scrapeFlags.asc {
		c.Sort = config.Ascending
	}
	if scrapeFlags.desc {
		c.Sort = config.Descending
	}
	if flags.Changed("format") {
		c.Formats = scrapeFlags.formats
	}
	if flags.Changed("out") {
		c.ExportDir = scrapeFlags.out
	}
	if flags.Changed("max-pages") {
		c.MaxPages = scrapeFlags.maxPages
	}
	if flags.Changed("mail-to") {
		c.MailTo = scrapeFlags.mailTo
	}
}

// askEmail returns current when it is valid and otherwise prompts until a
// valid address is entered.
func askEmail(ctx context.Context, prompter *scraper.TerminalPrompter, current string) (string, error) {
	email, ok := config.ValidEmail(current)
	for !ok {
		if current != "" {
			fmt.Fprintln(prompter.Out, "Invalid email format. Please try again.")
		}
		line, err := prompter.ReadLine(ctx, "Enter your JobStreet email: ")
		if err != nil {
			return "", err
		}
		current = line
		email, ok = config.ValidEmail(line)
	}
	return email, nil
}

func runScrape(ctx context.Context, c config.Config) error {
	formats, err := config.ExpandFormats(c.Formats)
	if err != nil {
		return err
	}

	tel, err := telemetry.SetupFromEnv(ctx, "jobstreet-cli")
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		err := tel.Shutdown(context.Background())
		if err != nil {
			slog.Warn("failed to shutdown telemetry", "err", err)
		}
	}()
	if tel.Enabled() {
		telemetry.InstrumentPerfStats(ctx, 15*time.Second)
	}

	prompter := scraper.NewTerminalPrompter(os.Stdin, os.Stdout)
	email, err := askEmail(ctx, prompter, c.Email)
	if err != nil {
		return err
	}

	b, err := browser.LaunchRod(ctx, browser.RodOptions{
		Bin:         c.BrowserBin,
		Headless:    c.Headless,
		UserDataDir: c.ProfileDir,
	})
	if err != nil {
		return err
	}
	session := scraper.NewSession(b, scraper.SessionOptions{
		BaseURL: c.BaseURL,
		Timings: c.Waits.Timings(),
	})
	defer func() {
		err := session.Close()
		if err != nil {
			slog.Warn("failed to close browser", "err", err)
		}
	}()

	fetchOpts := jobpage.ClientOptions{}
	if c.DumpDir != "" {
		dump, err := restyutil.NewFilesystemOutput(c.DumpDir)
		if err != nil {
			return err
		}
		fetchOpts.Dump = dump
	}

	orchestrator := scraper.NewOrchestrator(session, scraper.Options{
		Email:    email,
		Prompter: prompter,
		Fetcher:  jobpage.NewClient(fetchOpts),
		MaxPages: c.MaxPages,
		OnProgress: func(p scraper.Progress) {
			slog.Info(
				"job collected",
				"page", p.Page,
				"card", fmt.Sprintf("%d/%d", p.Card, p.Cards),
				"title", p.Record.Title,
				"elapsed", p.Elapsed.Round(time.Millisecond),
			)
		},
	})

	result, runErr := orchestrator.Run(ctx, c.Sort)

	// partial results are exported even when the run was interrupted
	exportCtx := context.WithoutCancel(ctx)
	files, exportErr := export.New(export.Options{
		Dir:      c.ExportDir,
		Database: c.Database,
		RunID:    session.RunID,
	}).Export(exportCtx, result, formats)

	if len(c.MailTo) > 0 && len(files) > 0 {
		err := mailer.New(c.SMTP).Send(exportCtx, mailer.ExportMessage(c.MailTo, result.TotalJobs, files))
		if err != nil {
			slog.Error("failed to email exports", "to", c.MailTo, "err", err)
		}
	}

	err = errors.Join(runErr, exportErr)
	if err != nil {
		renderError(err, result, files)
		return err
	}
	summarize(result, files, scrapeFlags.table)
	return nil
}

// summarize is shared with the export command.
func summarize(result records.Result, files []string, showJobs bool) {
	if showJobs {
		renderJobs(result)
	}
	renderSummary(result, files)
}
