package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

type RodOptions struct {
	// Bin is the browser executable, when empty rod resolves (and if needed
	// downloads) a chromium build.
	Bin         string
	Headless    bool
	UserDataDir string
}

// Rod implements Browser on top of a chromium instance driven by go-rod.
type Rod struct {
	browser *rod.Browser
	tabs    map[TabID]*rod.Page
	active  TabID
}

func LaunchRod(ctx context.Context, opts RodOptions) (*Rod, error) {
	l := launcher.New().
		Context(ctx).
		Headless(opts.Headless).
		Set("start-maximized").
		Set("disable-notifications")
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}
	if opts.UserDataDir != "" {
		l = l.UserDataDir(opts.UserDataDir)
	}

	controlUrl, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	slog.Debug("browser launched", "control_url", controlUrl, "headless", opts.Headless)

	b := rod.New().ControlURL(controlUrl)
	err = b.Connect()
	if err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("open primary tab: %w", err)
	}

	id := TabID(page.TargetID)
	return &Rod{
		browser: b,
		tabs:    map[TabID]*rod.Page{id: page},
		active:  id,
	}, nil
}

type rodElement struct {
	el *rod.Element
}

func (e rodElement) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

func (e rodElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	value, err := e.el.Context(ctx).Attribute(name)
	if err != nil {
		return "", false, err
	}
	if value == nil {
		return "", false, nil
	}
	return *value, true, nil
}

func (e rodElement) Property(ctx context.Context, name string) (string, error) {
	value, err := e.el.Context(ctx).Property(name)
	if err != nil {
		return "", err
	}
	return value.Str(), nil
}

func (r *Rod) page(ctx context.Context) (*rod.Page, error) {
	page, ok := r.tabs[r.active]
	if !ok {
		return nil, ErrNoSuchTab
	}
	return page.Context(ctx), nil
}

func unwrap(ctx context.Context, el Element) (*rod.Element, error) {
	re, ok := el.(rodElement)
	if !ok {
		return nil, fmt.Errorf("%w: foreign element %T", ErrStale, el)
	}
	return re.el.Context(ctx), nil
}

func (r *Rod) Navigate(ctx context.Context, url string) error {
	page, err := r.page(ctx)
	if err != nil {
		return err
	}
	err = page.Navigate(url)
	if err != nil {
		return err
	}
	return page.WaitLoad()
}

func (r *Rod) CurrentURL(ctx context.Context) (string, error) {
	page, err := r.page(ctx)
	if err != nil {
		return "", err
	}
	info, err := page.Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (r *Rod) elements(ctx context.Context, scope Element, selector string, kind Kind) (rod.Elements, error) {
	if scope == nil {
		page, err := r.page(ctx)
		if err != nil {
			return nil, err
		}
		if kind == XPath {
			return page.ElementsX(selector)
		}
		return page.Elements(selector)
	}

	el, err := unwrap(ctx, scope)
	if err != nil {
		return nil, err
	}
	if kind == XPath {
		return el.ElementsX(selector)
	}
	return el.Elements(selector)
}

func (r *Rod) FindOne(ctx context.Context, scope Element, selector string, kind Kind) (Element, error) {
	found, err := r.elements(ctx, scope, selector, kind)
	if err != nil {
		return nil, err
	}
	if found.Empty() {
		return nil, fmt.Errorf("%w: %s %q", ErrNotFound, kind, selector)
	}
	return rodElement{el: found.First()}, nil
}

func (r *Rod) FindAll(ctx context.Context, scope Element, selector string, kind Kind) ([]Element, error) {
	found, err := r.elements(ctx, scope, selector, kind)
	if err != nil {
		return nil, err
	}
	out := make([]Element, len(found))
	for i, el := range found {
		out[i] = rodElement{el: el}
	}
	return out, nil
}

func classifyInteractionErr(err error) error {
	if err == nil {
		return nil
	}
	var covered *rod.CoveredError
	var invisible *rod.InvisibleShapeError
	var noPointer *rod.NoPointerEventsError
	var notInteractable *rod.NotInteractableError
	switch {
	case errors.As(err, &covered):
		return fmt.Errorf("%w: %v", ErrIntercepted, err)
	case errors.As(err, &invisible),
		errors.As(err, &noPointer),
		errors.As(err, &notInteractable):
		return fmt.Errorf("%w: %v", ErrNotInteractable, err)
	}
	return err
}

func (r *Rod) WaitClickable(ctx context.Context, el Element) error {
	re, err := unwrap(ctx, el)
	if err != nil {
		return err
	}
	_, err = re.WaitInteractable()
	return classifyInteractionErr(err)
}

func (r *Rod) Click(ctx context.Context, el Element) error {
	re, err := unwrap(ctx, el)
	if err != nil {
		return err
	}
	return classifyInteractionErr(re.Click(proto.InputMouseButtonLeft, 1))
}

func (r *Rod) ForceClick(ctx context.Context, el Element) error {
	re, err := unwrap(ctx, el)
	if err != nil {
		return err
	}
	_, err = re.Eval(`() => this.click()`)
	return err
}

func (r *Rod) ScrollIntoView(ctx context.Context, el Element) error {
	re, err := unwrap(ctx, el)
	if err != nil {
		return err
	}
	_, err = re.Eval(`() => this.scrollIntoView({block: 'center', inline: 'center'})`)
	return err
}

func (r *Rod) ScrollToTop(ctx context.Context) error {
	page, err := r.page(ctx)
	if err != nil {
		return err
	}
	_, err = page.Eval(`() => window.scrollTo(0, 0)`)
	return err
}

func (r *Rod) Clear(ctx context.Context, el Element) error {
	re, err := unwrap(ctx, el)
	if err != nil {
		return err
	}
	err = re.SelectAllText()
	if err != nil {
		return classifyInteractionErr(err)
	}
	return classifyInteractionErr(re.Type(input.Backspace))
}

func (r *Rod) TypeText(ctx context.Context, el Element, text string) error {
	re, err := unwrap(ctx, el)
	if err != nil {
		return err
	}
	return classifyInteractionErr(re.Input(text))
}

func (r *Rod) PressEnter(ctx context.Context, el Element) error {
	re, err := unwrap(ctx, el)
	if err != nil {
		return err
	}
	return classifyInteractionErr(re.Type(input.Enter))
}

func (r *Rod) OpenTab(ctx context.Context, url string) (TabID, error) {
	page, err := r.browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return "", err
	}
	id := TabID(page.TargetID)
	r.tabs[id] = page

	err = page.Context(ctx).WaitLoad()
	if err != nil {
		return id, fmt.Errorf("wait for tab load: %w", err)
	}
	return id, nil
}

func (r *Rod) SwitchTo(ctx context.Context, tab TabID) error {
	page, ok := r.tabs[tab]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSuchTab, tab)
	}
	_, err := page.Context(ctx).Activate()
	if err != nil {
		return err
	}
	r.active = tab
	return nil
}

func (r *Rod) CloseTab(ctx context.Context, tab TabID) error {
	page, ok := r.tabs[tab]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSuchTab, tab)
	}
	delete(r.tabs, tab)
	if r.active == tab {
		r.active = ""
	}
	return page.Context(ctx).Close()
}

func (r *Rod) ActiveTab() TabID {
	return r.active
}

func (r *Rod) Close() error {
	return r.browser.Close()
}
