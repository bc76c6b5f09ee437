package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"jobstreet-applied/internal/records"
	"jobstreet-applied/internal/scraper/jobpage"
	"jobstreet-applied/internal/telemetry"
	"jobstreet-applied/lib/browser"
	"jobstreet-applied/lib/textutil"
)

type CoreInfo struct {
	Title    string
	Company  string
	Location string
	Salary   string
	URL      string
}

func naCore() CoreInfo {
	na := textutil.NotAvailable
	return CoreInfo{Title: na, Company: na, Location: na, Salary: na, URL: na}
}

type StatusInfo struct {
	History []records.StatusEvent
	Expired bool
}

type Documents struct {
	Resume      string
	CoverLetter string
}

type ExtraInfo struct {
	Classification string
	EmploymentType string
	PostedDate     string
}

func naExtra() ExtraInfo {
	na := textutil.NotAvailable
	return ExtraInfo{Classification: na, EmploymentType: na, PostedDate: na}
}

// JobPageFetcher reads a job listing without the browser.
type JobPageFetcher interface {
	Fetch(ctx context.Context, url string) (jobpage.Info, error)
}

// DetailExtractor opens a card's detail panel and reads every field from
// it. Each field is read independently so one broken selector only costs
// that field.
type DetailExtractor struct {
	actions Actions
	browser browser.Browser
	// fetcher may be nil, the http fallback is skipped then.
	fetcher JobPageFetcher
	tel     telemetry.API
}

func NewDetailExtractor(actions Actions, b browser.Browser, fetcher JobPageFetcher, tel telemetry.API) DetailExtractor {
	return DetailExtractor{
		actions: actions,
		browser: b,
		fetcher: fetcher,
		tel:     telemetry.NewScopedAPI("detail", tel),
	}
}

// Open clicks the card header and waits for the detail panel.
func (d DetailExtractor) Open(ctx context.Context, s *Session, card browser.Element) (browser.Element, bool) {
	header, ok := d.actions.Exists(ctx, card, cardHeader)
	if !ok {
		d.tel.ReportWarning("open.header", "page", s.Page)
		return nil, false
	}
	if !d.actions.Click(ctx, header) {
		d.tel.ReportWarning("open.click", "page", s.Page)
		return nil, false
	}
	panel, ok := d.actions.Locate(ctx, nil, detailPanel, s.Timings.Short)
	if !ok {
		d.tel.ReportWarning("open.panel", "page", s.Page)
		return nil, false
	}
	return panel, true
}

// Close clicks the panel's close control and always waits for the closing
// animation, the next header click would otherwise land on the panel.
func (d DetailExtractor) Close(ctx context.Context, s *Session, panel browser.Element) bool {
	button, ok := d.actions.Locate(ctx, panel, closeButton, s.Timings.Short)
	if !ok {
		button, ok = d.actions.Locate(ctx, nil, closeButton, s.Timings.Short)
	}
	closed := ok && d.actions.Click(ctx, button)
	if !closed {
		d.tel.ReportWarning("close", "page", s.Page)
	}
	err := sleep(ctx, s.Timings.CloseSettle)
	return closed && err == nil
}

func (d DetailExtractor) text(ctx context.Context, el browser.Element) (string, bool) {
	text, err := el.Text(ctx)
	if err != nil {
		return "", false
	}
	text = textutil.Squash(text)
	return text, text != ""
}

func (d DetailExtractor) ExtractCore(ctx context.Context, s *Session, panel browser.Element, lines *panelLines) CoreInfo {
	return FirstOf(ctx, d.tel, "core", naCore(),
		Strategy[CoreInfo]{Name: "sibling_walk", Run: func(ctx context.Context) (CoreInfo, bool) {
			return d.coreFromSiblings(ctx, s, panel)
		}},
		Strategy[CoreInfo]{Name: "text_lines", Run: func(ctx context.Context) (CoreInfo, bool) {
			return coreFromLines(lines.get(ctx))
		}},
	)
}

// coreFromSiblings walks anchor -> h3 (title) -> span (company) -> span
// (location). The sibling after the location is either the salary, in which
// case the link follows it, or the link itself.
func (d DetailExtractor) coreFromSiblings(ctx context.Context, s *Session, panel browser.Element) (CoreInfo, bool) {
	anchor, ok := d.actions.Locate(ctx, panel, coreAnchor, s.Timings.Short)
	if !ok {
		return CoreInfo{}, false
	}
	title, ok := d.actions.Exists(ctx, anchor, nextH3)
	if !ok {
		return CoreInfo{}, false
	}
	company, ok := d.actions.Exists(ctx, title, nextSpan)
	if !ok {
		return CoreInfo{}, false
	}
	location, ok := d.actions.Exists(ctx, company, nextSpan)
	if !ok {
		return CoreInfo{}, false
	}

	info := naCore()
	info.Title, _ = d.text(ctx, title)
	info.Company, _ = d.text(ctx, company)
	info.Location, _ = d.text(ctx, location)
	info.Title = textutil.OrNA(info.Title)
	info.Company = textutil.OrNA(info.Company)
	info.Location = textutil.OrNA(info.Location)

	linkHolder := location
	if fourth, ok := d.actions.Exists(ctx, location, nextSpan); ok {
		if _, hasLink := d.actions.Exists(ctx, fourth, anyLink); !hasLink {
			salary, _ := d.text(ctx, fourth)
			if strings.Contains(strings.ToLower(salary), salaryMarker) {
				info.Salary = records.NormalizeSalary(salary)
				linkHolder = fourth
			}
		}
	}

	link, ok := d.actions.Exists(ctx, linkHolder, nextSpanURL)
	if !ok {
		d.tel.ReportDebug("url.missing", "page", s.Page, "title", info.Title)
		return info, true
	}
	href, err := link.Property(ctx, "href")
	if err != nil {
		d.tel.ReportWarning("url.href", "err", err)
		return info, true
	}
	info.URL = records.CanonicalURL(href)
	return info, true
}

func (d DetailExtractor) ExtractStatus(ctx context.Context, s *Session, panel browser.Element, lines *panelLines) StatusInfo {
	return FirstOf(ctx, d.tel, "status", StatusInfo{History: []records.StatusEvent{}},
		Strategy[StatusInfo]{Name: "status_blocks", Run: func(ctx context.Context) (StatusInfo, bool) {
			return d.statusFromBlocks(ctx, s, panel)
		}},
		Strategy[StatusInfo]{Name: "text_lines", Run: func(ctx context.Context) (StatusInfo, bool) {
			return statusFromLines(lines.get(ctx))
		}},
	)
}

func (d DetailExtractor) statusFromBlocks(ctx context.Context, s *Session, panel browser.Element) (StatusInfo, bool) {
	anchor, ok := d.actions.Locate(ctx, panel, statusAnchor, s.Timings.Short)
	if !ok {
		return StatusInfo{}, false
	}
	wrapper, ok := d.actions.Exists(ctx, anchor, nextDiv)
	if !ok {
		return StatusInfo{}, false
	}
	blocks, err := d.browser.FindAll(ctx, wrapper, statusBlocks.Expr, statusBlocks.Kind)
	if err != nil {
		d.tel.ReportWarning("status.blocks", "err", err)
		return StatusInfo{}, false
	}

	info := StatusInfo{History: []records.StatusEvent{}}
	for i, block := range blocks {
		event, ok := d.statusEvent(ctx, block)
		if !ok {
			d.tel.ReportDebug("status.block_skipped", "page", s.Page, "block", i)
			continue
		}
		info.History = append(info.History, event)
	}
	_, info.Expired = d.actions.Exists(ctx, wrapper, expiredMarker)

	if len(info.History) == 0 {
		d.tel.ReportWarning("status.empty", "page", s.Page, "blocks", len(blocks))
		return info, info.Expired
	}
	return info, true
}

func (d DetailExtractor) statusEvent(ctx context.Context, block browser.Element) (records.StatusEvent, bool) {
	holder, ok := d.actions.Exists(ctx, block, statusWrapper)
	if !ok {
		return records.StatusEvent{}, false
	}
	found, err := d.browser.FindAll(ctx, holder, spans.Expr, spans.Kind)
	if err != nil || len(found) < 2 {
		return records.StatusEvent{}, false
	}
	status, ok := d.text(ctx, found[0])
	if !ok {
		return records.StatusEvent{}, false
	}
	updated, err := found[1].Text(ctx)
	if err != nil {
		return records.StatusEvent{}, false
	}
	return records.StatusEvent{
		Status:    status,
		UpdatedAt: textutil.OrNA(textutil.FirstLine(updated)),
	}, true
}

func (d DetailExtractor) ExtractDocuments(ctx context.Context, s *Session, panel browser.Element, lines *panelLines) Documents {
	fromLines := func(ctx context.Context) (Documents, bool) {
		return documentsFromLines(lines.get(ctx))
	}
	tagged := func(q Query) func(ctx context.Context) (string, bool) {
		return func(ctx context.Context) (string, bool) {
			el, ok := d.actions.Locate(ctx, panel, q, s.Timings.Short)
			if !ok {
				return "", false
			}
			text, ok := d.text(ctx, el)
			return textutil.Clean(text), ok
		}
	}

	return Documents{
		Resume: FirstOf(ctx, d.tel, "resume", textutil.NotAvailable,
			Strategy[string]{Name: "data_automation", Run: tagged(resumeName)},
			Strategy[string]{Name: "text_lines", Run: func(ctx context.Context) (string, bool) {
				docs, ok := fromLines(ctx)
				return docs.Resume, ok
			}},
		),
		CoverLetter: FirstOf(ctx, d.tel, "cover_letter", textutil.NotAvailable,
			Strategy[string]{Name: "data_automation", Run: tagged(coverLetterName)},
			Strategy[string]{Name: "text_lines", Run: func(ctx context.Context) (string, bool) {
				docs, ok := fromLines(ctx)
				return docs.CoverLetter, ok && docs.CoverLetter != textutil.NotAvailable
			}},
		),
	}
}

func (d DetailExtractor) ExtractApplicantCount(ctx context.Context, s *Session, panel browser.Element, lines *panelLines) records.ApplicantCount {
	return FirstOf(ctx, d.tel, "applicant_count", records.ApplicantCount{},
		Strategy[records.ApplicantCount]{Name: "sentence", Run: func(ctx context.Context) (records.ApplicantCount, bool) {
			el, ok := d.actions.Locate(ctx, panel, applicantsLine, s.Timings.Short)
			if !ok {
				return records.ApplicantCount{}, false
			}
			text, ok := d.text(ctx, el)
			if !ok {
				return records.ApplicantCount{}, false
			}
			return parseCount(leadingNumber, text)
		}},
		Strategy[records.ApplicantCount]{Name: "text_lines", Run: func(ctx context.Context) (records.ApplicantCount, bool) {
			return applicantsFromLines(lines.get(ctx))
		}},
	)
}

// ExtractExtra reads classification, work type and posting date from the
// job page. The page is read in a secondary tab and, failing that, fetched
// over http.
func (d DetailExtractor) ExtractExtra(ctx context.Context, s *Session, url string) ExtraInfo {
	if url == "" || url == textutil.NotAvailable {
		d.tel.ReportDebug("extra.no_url", "page", s.Page)
		return naExtra()
	}

	raw := FirstOf(ctx, d.tel, "extra", jobpage.Info{},
		Strategy[jobpage.Info]{Name: "tab", Run: func(ctx context.Context) (jobpage.Info, bool) {
			return d.extraFromTab(ctx, s, url)
		}},
		Strategy[jobpage.Info]{Name: "http", Run: func(ctx context.Context) (jobpage.Info, bool) {
			if d.fetcher == nil {
				return jobpage.Info{}, false
			}
			info, err := d.fetcher.Fetch(ctx, url)
			if err != nil {
				d.tel.ReportWarning("extra.http", "url", url, "err", err)
				return jobpage.Info{}, false
			}
			return info, !info.Empty()
		}},
	)

	extra := naExtra()
	extra.Classification = textutil.OrNA(textutil.Clean(raw.Classification))
	extra.EmploymentType = textutil.OrNA(textutil.Clean(raw.WorkType))
	if raw.Posted != "" {
		extra.PostedDate = records.NormalizePostedDate(raw.Posted, s.Clock.Now())
	}
	return extra
}

func (d DetailExtractor) extraFromTab(ctx context.Context, s *Session, url string) (jobpage.Info, bool) {
	var info jobpage.Info
	err := s.WithTab(ctx, url, func(ctx context.Context) error {
		read := func(q Query) string {
			el, ok := d.actions.Locate(ctx, nil, q, s.Timings.Short)
			if !ok {
				d.tel.ReportDebug("extra.missing", "query", q.String())
				return ""
			}
			text, _ := d.text(ctx, el)
			return text
		}
		info.Classification = read(classificationLink)
		info.WorkType = read(workTypeLink)
		info.Posted = read(postedLine)
		return nil
	})
	if err != nil {
		d.tel.ReportWarning("extra.tab", "url", url, "err", err)
		return jobpage.Info{}, false
	}
	if info.Empty() {
		return jobpage.Info{}, false
	}
	return info, true
}

// Extract reads every field of an open panel into a record without an id.
func (d DetailExtractor) Extract(ctx context.Context, s *Session, panel browser.Element) (records.JobRecord, error) {
	ctx, span := tracer.Start(ctx, "DetailExtractor.Extract")
	defer span.End()

	lines := newPanelLines(panel)
	record := records.NewJobRecord()

	core := d.ExtractCore(ctx, s, panel, lines)
	record.Title = core.Title
	record.Company = core.Company
	record.Location = core.Location
	record.Salary = core.Salary
	record.URL = core.URL

	status := d.ExtractStatus(ctx, s, panel, lines)
	record.StatusHistory = status.History
	record.IsExpired = status.Expired

	docs := d.ExtractDocuments(ctx, s, panel, lines)
	record.ResumeFilename = docs.Resume
	record.CoverLetterFilename = docs.CoverLetter

	record.ApplicantCount = d.ExtractApplicantCount(ctx, s, panel, lines)

	// the panel must survive the tab excursion
	extra := d.ExtractExtra(ctx, s, record.URL)
	record.Classification = extra.Classification
	record.EmploymentType = extra.EmploymentType
	record.PostedDate = extra.PostedDate

	if _, err := panel.Text(ctx); err != nil {
		return records.JobRecord{}, fmt.Errorf("detail panel lost after reading job page: %w", err)
	}

	record.RetrievedAt = s.Clock.Now()
	slog.DebugContext(ctx, "extracted job", "title", record.Title, "company", record.Company)
	return record, nil
}
