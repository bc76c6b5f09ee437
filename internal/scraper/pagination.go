package scraper

import (
	"context"
	"log/slog"

	"jobstreet-applied/internal/telemetry"
)

// Paginator moves between results pages. A failed transition means there
// are no more pages, it never aborts the run.
type Paginator struct {
	actions Actions
	tel     telemetry.API
}

func NewPaginator(actions Actions, tel telemetry.API) Paginator {
	return Paginator{actions: actions, tel: telemetry.NewScopedAPI("pagination", tel)}
}

// ConfirmOnResultsPage reports whether the browser shows a results page with
// at least one job card.
func (p Paginator) ConfirmOnResultsPage(ctx context.Context, s *Session) bool {
	if !onResultsURL(ctx, s) {
		p.tel.ReportWarning("confirm.url", "page", s.Page)
		return false
	}
	_, ok := p.actions.Locate(ctx, nil, jobItem, s.Timings.Short)
	if !ok {
		p.tel.ReportWarning("confirm.cards", "page", s.Page)
	}
	return ok
}

func (p Paginator) GoNext(ctx context.Context, s *Session) bool {
	if !p.move(ctx, s, nextPage) {
		return false
	}
	s.Page++
	slog.InfoContext(ctx, "moved to next page", "page", s.Page)
	return true
}

func (p Paginator) GoPrev(ctx context.Context, s *Session) bool {
	if !p.move(ctx, s, prevPage) {
		return false
	}
	s.Page--
	slog.InfoContext(ctx, "moved to previous page", "page", s.Page)
	return true
}

// FindLastPage walks forward until GoNext fails and returns the number of
// the page it stopped on, the browser is left on that page.
func (p Paginator) FindLastPage(ctx context.Context, s *Session) int {
	for p.GoNext(ctx, s) {
	}
	slog.InfoContext(ctx, "found last page", "page", s.Page)
	return s.Page
}

func (p Paginator) move(ctx context.Context, s *Session, control Query) bool {
	ctx, span := tracer.Start(ctx, "Paginator.move")
	defer span.End()

	button, ok := p.actions.Locate(ctx, nil, control, s.Timings.Short)
	if !ok {
		slog.InfoContext(ctx, "no pagination control", "control", control.Expr, "page", s.Page)
		return false
	}

	before, err := s.Browser.CurrentURL(ctx)
	if err != nil {
		p.tel.ReportWarning("url", "page", s.Page, "err", err)
		return false
	}
	if !p.actions.Click(ctx, button) {
		p.tel.ReportWarning("click", "control", control.Expr, "page", s.Page)
		return false
	}

	changed := p.actions.WaitFor(ctx, s.Timings.Short, func(ctx context.Context) (bool, error) {
		current, err := s.Browser.CurrentURL(ctx)
		if err != nil {
			return false, err
		}
		return current != before, nil
	})
	if !changed {
		p.tel.ReportWarning("url_unchanged", "control", control.Expr, "page", s.Page)
		return false
	}
	if !p.ConfirmOnResultsPage(ctx, s) {
		return false
	}

	err = sleep(ctx, s.Timings.PageSettle)
	if err != nil {
		return false
	}
	err = s.Browser.ScrollToTop(ctx)
	if err != nil {
		p.tel.ReportWarning("scroll_top", "err", err)
	}
	return true
}
