package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"jobstreet-applied/internal/config"
	"jobstreet-applied/internal/records"
	"jobstreet-applied/internal/telemetry"
	"jobstreet-applied/lib/browser"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("jobstreet/internal/scraper")

// Progress is reported after every appended record.
type Progress struct {
	Page    int
	Card    int
	Cards   int
	Record  records.JobRecord
	Elapsed time.Duration
}

type Options struct {
	Email    string
	Prompter CodePrompter
	// Fetcher is the http fallback for job pages, optional.
	Fetcher JobPageFetcher
	// MaxPages bounds the number of pages scraped, zero means no bound.
	MaxPages   int
	OnProgress func(Progress)
	Telemetry  telemetry.API
}

// Orchestrator owns a Session and drives every other component over it.
type Orchestrator struct {
	session    *Session
	auth       Authenticator
	paginator  Paginator
	cards      CardLocator
	detail     DetailExtractor
	maxPages   int
	onProgress func(Progress)
	tel        telemetry.API
}

func NewOrchestrator(s *Session, opts Options) *Orchestrator {
	tel := opts.Telemetry
	if tel == nil {
		tel = telemetry.SlogAPI{}
	}
	tel = telemetry.NewScopedAPI("scraper", tel)
	actions := NewActions(s.Browser, s.Timings, tel)

	return &Orchestrator{
		session:    s,
		auth:       NewAuthenticator(actions, opts.Prompter, opts.Email, tel),
		paginator:  NewPaginator(actions, tel),
		cards:      NewCardLocator(actions, tel),
		detail:     NewDetailExtractor(actions, s.Browser, opts.Fetcher, tel),
		maxPages:   opts.MaxPages,
		onProgress: opts.OnProgress,
		tel:        tel,
	}
}

// Run authenticates and scrapes every page in the given order. The result
// always holds the records collected so far, even when an error is
// returned.
func (o *Orchestrator) Run(ctx context.Context, order config.Order) (records.Result, error) {
	s := o.session
	ctx, span := tracer.Start(ctx, "Orchestrator.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", s.RunID),
		attribute.String("order", string(order)),
	)

	err := o.auth.Authenticate(ctx, s)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "authentication failed")
		return s.Result(), err
	}
	slog.InfoContext(ctx, "starting job scraping", "run_id", s.RunID, "order", order)

	if order == config.Descending {
		o.runDescending(ctx, s)
	} else {
		o.runAscending(ctx, s)
	}

	result := s.Result()
	o.tel.ReportCount("records", int64(result.TotalJobs))
	slog.InfoContext(
		ctx, "scraping completed",
		"run_id", s.RunID,
		"total_jobs", result.TotalJobs,
		"elapsed", result.TotalElapsed.Round(time.Millisecond),
	)

	if ctx.Err() != nil {
		err := fmt.Errorf("scrape interrupted: %w", ctx.Err())
		span.RecordError(err)
		span.SetStatus(codes.Error, "interrupted")
		return result, err
	}
	return result, nil
}

func (o *Orchestrator) pageLimitReached(scraped int) bool {
	return o.maxPages > 0 && scraped >= o.maxPages
}

func (o *Orchestrator) runAscending(ctx context.Context, s *Session) {
	for scraped := 1; ; scraped++ {
		if o.scrapePage(ctx, s, false) == 0 {
			slog.InfoContext(ctx, "no more job cards found", "page", s.Page)
			return
		}
		if o.pageLimitReached(scraped) {
			slog.InfoContext(ctx, "reached maximum pages", "max_pages", o.maxPages)
			return
		}
		if ctx.Err() != nil || !o.paginator.GoNext(ctx, s) {
			return
		}
	}
}

// runDescending walks to the last page first and then back to page 1, the
// cards of every page are read in reverse.
func (o *Orchestrator) runDescending(ctx context.Context, s *Session) {
	last := o.paginator.FindLastPage(ctx, s)
	o.tel.ReportCount("pages.forward", int64(last))

	scraped := 0
	defer func() {
		o.tel.ReportCount("pages.backward", int64(scraped))
	}()
	for {
		o.scrapePage(ctx, s, true)
		scraped++
		if o.pageLimitReached(scraped) {
			slog.InfoContext(ctx, "reached maximum pages", "max_pages", o.maxPages)
			return
		}
		if s.Page <= 1 || ctx.Err() != nil {
			return
		}
		if !o.paginator.GoPrev(ctx, s) {
			o.tel.ReportWarning("pages.backward_stopped", "page", s.Page, "last", last)
			return
		}
	}
}

// scrapePage reads every card of the current page and returns how many
// cards were found.
func (o *Orchestrator) scrapePage(ctx context.Context, s *Session, reverse bool) int {
	ctx, span := tracer.Start(ctx, "Orchestrator.scrapePage")
	defer span.End()
	span.SetAttributes(attribute.Int("page", s.Page))

	slog.InfoContext(ctx, "processing page", "page", s.Page)
	cards := o.cards.List(ctx, s)
	if reverse {
		slices.Reverse(cards)
	}

	for i, card := range cards {
		if ctx.Err() != nil {
			break
		}
		started := s.Clock.Now()
		slog.InfoContext(ctx, "processing job", "page", s.Page, "card", i+1, "cards", len(cards))

		record, ok := o.scrapeCard(ctx, s, i+1, card)
		if !ok {
			continue
		}
		record = s.Append(record)

		elapsed := s.Clock.Now().Sub(started)
		slog.DebugContext(ctx, "job appended", "id", record.ID, "elapsed", elapsed.Round(time.Millisecond))
		if o.onProgress != nil {
			o.onProgress(Progress{
				Page:    s.Page,
				Card:    i + 1,
				Cards:   len(cards),
				Record:  record,
				Elapsed: elapsed,
			})
		}
	}

	slog.InfoContext(ctx, "completed page", "page", s.Page, "total_jobs", len(s.records))
	return len(cards)
}

// scrapeCard is the failure boundary of a single card, anything that goes
// wrong inside it (panics included) skips the card.
func (o *Orchestrator) scrapeCard(ctx context.Context, s *Session, index int, card browser.Element) (record records.JobRecord, ok bool) {
	ctx, span := tracer.Start(ctx, "Orchestrator.scrapeCard")
	defer span.End()
	span.SetAttributes(attribute.Int("page", s.Page), attribute.Int("card", index))

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err := fmt.Errorf("panic while reading card: %v", r)
		span.RecordError(err)
		span.SetStatus(codes.Error, "card panicked")
		o.tel.ReportBroken("card.panic", "page", s.Page, "card", index, "err", err)
		o.recoverCard(ctx, s)
		record, ok = records.JobRecord{}, false
	}()

	panel, opened := o.detail.Open(ctx, s, card)
	if !opened {
		o.tel.ReportWarning("card.skipped", "page", s.Page, "card", index, "reason", "detail panel did not open")
		return records.JobRecord{}, false
	}

	record, err := o.detail.Extract(ctx, s, panel)
	o.detail.Close(ctx, s, panel)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		o.tel.ReportWarning("card.skipped", "page", s.Page, "card", index, "err", err)
		return records.JobRecord{}, false
	}
	return record, true
}

// recoverCard puts the browser back into a state where the next card can be
// opened: primary tab active and no detail panel left open.
func (o *Orchestrator) recoverCard(ctx context.Context, s *Session) {
	defer func() {
		if r := recover(); r != nil {
			o.tel.ReportBroken("card.recover", "page", s.Page, "err", fmt.Sprint(r))
		}
	}()

	if s.ActiveTab() != s.PrimaryTab() {
		err := s.Browser.SwitchTo(ctx, s.PrimaryTab())
		if err != nil {
			o.tel.ReportBroken("card.recover_tab", "err", err)
			return
		}
	}
	if panel, ok := o.detail.actions.Exists(ctx, nil, detailPanel); ok {
		o.detail.Close(ctx, s, panel)
	}
}
