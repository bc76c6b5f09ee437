package scraper

import (
	"context"
	"errors"
	"time"

	"jobstreet-applied/internal/config"
	"jobstreet-applied/internal/telemetry"
	"jobstreet-applied/lib/browser"

	"github.com/cenkalti/backoff/v4"
)

// Query is a selector together with the way it should be interpreted.
type Query struct {
	Expr string
	Kind browser.Kind
}

func CSS(expr string) Query {
	return Query{Expr: expr, Kind: browser.CSS}
}

func XPath(expr string) Query {
	return Query{Expr: expr, Kind: browser.XPath}
}

func (q Query) String() string {
	return q.Kind.String() + " " + q.Expr
}

// Actions are the click and lookup primitives every other component goes
// through. None of its methods return errors, failures are reported and
// turned into a false/not found result.
type Actions struct {
	browser browser.Browser
	timings config.Timings
	tel     telemetry.API
}

func NewActions(b browser.Browser, timings config.Timings, tel telemetry.API) Actions {
	return Actions{
		browser: b,
		timings: timings,
		tel:     telemetry.NewScopedAPI("actions", tel),
	}
}

// Click scrolls el into view, waits for it to become clickable and clicks
// it natively. When the element is covered or not interactable a single
// programmatic click is attempted instead. Every browser call is bounded by
// the short wait.
func (a Actions) Click(ctx context.Context, el browser.Element) bool {
	err := a.browser.ScrollIntoView(ctx, el)
	if err != nil {
		a.tel.ReportWarning("click.scroll", "err", err)
		return false
	}

	err = a.interact(ctx, func(ctx context.Context) error {
		return a.browser.WaitClickable(ctx, el)
	})
	if err == nil {
		err = a.interact(ctx, func(ctx context.Context) error {
			return a.browser.Click(ctx, el)
		})
	}
	if err != nil {
		if !errors.Is(err, browser.ErrNotInteractable) && !errors.Is(err, browser.ErrIntercepted) {
			a.tel.ReportWarning("click.native", "err", err)
			return false
		}
		a.tel.ReportDebug("click.fallback", "reason", err)
		err = a.interact(ctx, func(ctx context.Context) error {
			return a.browser.ForceClick(ctx, el)
		})
		if err != nil {
			a.tel.ReportWarning("click.force", "err", err)
			return false
		}
	}

	return sleep(ctx, a.timings.ClickSettle) == nil
}

// interact runs fn bounded by the short wait. Running out of time while ctx
// is still live counts as the element not being interactable, a native
// click on a covered element keeps retrying until its context is done.
func (a Actions) interact(ctx context.Context, fn func(ctx context.Context) error) error {
	waitCtx, cancel := context.WithTimeout(ctx, a.timings.Short)
	defer cancel()

	err := fn(waitCtx)
	if err != nil && ctx.Err() == nil && waitCtx.Err() != nil {
		return errors.Join(browser.ErrNotInteractable, err)
	}
	return err
}

func (a Actions) timeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return a.timings.Short
	}
	return timeout
}

// poll calls fn until it succeeds, returns a permanent error or timeout
// elapses. fn always runs at least once.
func (a Actions) poll(ctx context.Context, timeout time.Duration, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout(timeout))
	defer cancel()

	interval := a.timings.Poll
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	b := backoff.WithContext(backoff.NewConstantBackOff(interval), ctx)
	return backoff.Retry(fn, b)
}

// lookup classifies browser errors for poll, only "not found yet" is worth
// retrying.
func lookup(err error) error {
	if err == nil || errors.Is(err, browser.ErrNotFound) {
		return err
	}
	return backoff.Permanent(err)
}

// Locate waits up to timeout (the short wait when zero) for q to match
// under scope.
func (a Actions) Locate(ctx context.Context, scope browser.Element, q Query, timeout time.Duration) (browser.Element, bool) {
	var found browser.Element
	err := a.poll(ctx, timeout, func() error {
		el, err := a.browser.FindOne(ctx, scope, q.Expr, q.Kind)
		if err != nil {
			return lookup(err)
		}
		found = el
		return nil
	})
	if err != nil {
		if !errors.Is(err, browser.ErrNotFound) && !errors.Is(err, context.DeadlineExceeded) {
			a.tel.ReportWarning("locate", "query", q.String(), "err", err)
		}
		return nil, false
	}
	return found, true
}

// LocateAll waits up to timeout for q to match at least once and returns
// every match.
func (a Actions) LocateAll(ctx context.Context, scope browser.Element, q Query, timeout time.Duration) []browser.Element {
	var found []browser.Element
	err := a.poll(ctx, timeout, func() error {
		els, err := a.browser.FindAll(ctx, scope, q.Expr, q.Kind)
		if err != nil {
			return lookup(err)
		}
		if len(els) == 0 {
			return browser.ErrNotFound
		}
		found = els
		return nil
	})
	if err != nil {
		if !errors.Is(err, browser.ErrNotFound) && !errors.Is(err, context.DeadlineExceeded) {
			a.tel.ReportWarning("locate_all", "query", q.String(), "err", err)
		}
		return nil
	}
	return found
}

var errConditionUnmet = errors.New("condition not met")

// WaitFor polls cond until it reports true or timeout elapses.
func (a Actions) WaitFor(ctx context.Context, timeout time.Duration, cond func(ctx context.Context) (bool, error)) bool {
	err := a.poll(ctx, timeout, func() error {
		ok, err := cond(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errConditionUnmet
		}
		return nil
	})
	if err != nil && !errors.Is(err, errConditionUnmet) && !errors.Is(err, context.DeadlineExceeded) {
		a.tel.ReportWarning("wait_for", "err", err)
	}
	return err == nil
}

// Exists checks for q once, without waiting.
func (a Actions) Exists(ctx context.Context, scope browser.Element, q Query) (browser.Element, bool) {
	el, err := a.browser.FindOne(ctx, scope, q.Expr, q.Kind)
	if err != nil {
		if !errors.Is(err, browser.ErrNotFound) {
			a.tel.ReportWarning("exists", "query", q.String(), "err", err)
		}
		return nil, false
	}
	return el, true
}
