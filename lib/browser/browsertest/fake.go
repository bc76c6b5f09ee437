// Package browsertest provides an in-memory browser.Browser over static HTML
// documents for exercising scraping logic without a real browser.
//
// Interactions are described declaratively in the markup:
//
//	data-fake-nav="<url>"     clicking navigates the active tab to url
//	data-fake-open="<name>"   clicking appends Fake.Dialogs[name] to <body>
//	data-fake-close           clicking removes the enclosing [role=dialog]
//	data-fake-intercept       native clicks fail with browser.ErrIntercepted
//	data-fake-disabled        the element never becomes clickable natively
//
// Anything else can be scripted with the OnClick/OnType/OnEnter hooks.
package browsertest

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"jobstreet-applied/lib/browser"
	"jobstreet-applied/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type tab struct {
	url string
	doc *html.Node
	gen int
}

type Fake struct {
	// Pages maps a URL to the HTML served for it.
	Pages map[string]string
	// Dialogs maps a name used in data-fake-open to an HTML fragment.
	Dialogs map[string]string

	OnClick func(f *Fake, node *html.Node) (handled bool, err error)
	OnType  func(f *Fake, node *html.Node, text string) error
	OnEnter func(f *Fake, node *html.Node) error

	// Clicks records every click as "<native|force> <description>".
	Clicks []string
	// Navigations records every URL loaded into any tab.
	Navigations []string

	tabs    map[browser.TabID]*tab
	active  browser.TabID
	nextTab int
	closed  bool
}

func New(pages map[string]string) *Fake {
	f := &Fake{
		Pages:   pages,
		Dialogs: map[string]string{},
		tabs:    map[browser.TabID]*tab{},
	}
	if f.Pages == nil {
		f.Pages = map[string]string{}
	}
	doc, _ := html.Parse(strings.NewReader(""))
	f.active = f.newTab(&tab{url: "about:blank", doc: doc})
	return f
}

func (f *Fake) newTab(t *tab) browser.TabID {
	f.nextTab++
	id := browser.TabID(fmt.Sprintf("tab-%d", f.nextTab))
	f.tabs[id] = t
	return id
}

func (f *Fake) load(t *tab, target string) error {
	src, ok := f.Pages[target]
	if !ok {
		return fmt.Errorf("browsertest: no page registered for %s", target)
	}
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return err
	}
	t.url = target
	t.doc = doc
	t.gen++
	f.Navigations = append(f.Navigations, target)
	return nil
}

// Goto loads target into the active tab, hooks use it to emulate redirects.
func (f *Fake) Goto(target string) error {
	t, ok := f.tabs[f.active]
	if !ok {
		return browser.ErrNoSuchTab
	}
	return f.load(t, target)
}

// URL returns the active tab's URL.
func (f *Fake) URL() string {
	t, ok := f.tabs[f.active]
	if !ok {
		return ""
	}
	return t.url
}

// Document returns the active tab's document root.
func (f *Fake) Document() *html.Node {
	t, ok := f.tabs[f.active]
	if !ok {
		return nil
	}
	return t.doc
}

// Tabs returns the number of open tabs.
func (f *Fake) Tabs() int {
	return len(f.tabs)
}

func (f *Fake) Closed() bool {
	return f.closed
}

// Query returns the first node in the active document matching a css selector.
func (f *Fake) Query(selector string) *html.Node {
	doc := f.Document()
	if doc == nil {
		return nil
	}
	sel := goquery.NewDocumentFromNode(doc).Find(selector)
	if sel.Length() == 0 {
		return nil
	}
	return sel.Nodes[0]
}

// OpenDialog appends the named dialog fragment to the active document's body.
func (f *Fake) OpenDialog(name string) error {
	src, ok := f.Dialogs[name]
	if !ok {
		return fmt.Errorf("browsertest: no dialog registered as %s", name)
	}
	body := f.Query("body")
	if body == nil {
		return fmt.Errorf("browsertest: document has no body")
	}
	nodes, err := html.ParseFragment(strings.NewReader(src), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return err
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return nil
}

// Remove detaches node from its document.
func (f *Fake) Remove(node *html.Node) {
	if node != nil && node.Parent != nil {
		node.Parent.RemoveChild(node)
	}
}

type element struct {
	node *html.Node
	tab  browser.TabID
	gen  int
	f    *Fake
}

func (e element) Text(ctx context.Context) (string, error) {
	if err := e.f.check(e); err != nil {
		return "", err
	}
	return htmlutil.InnerText(e.node), nil
}

func (e element) Attribute(ctx context.Context, name string) (string, bool, error) {
	if err := e.f.check(e); err != nil {
		return "", false, err
	}
	v, ok := htmlutil.Attr(e.node, name)
	return v, ok, nil
}

func (e element) Property(ctx context.Context, name string) (string, error) {
	if err := e.f.check(e); err != nil {
		return "", err
	}
	v, _ := htmlutil.Attr(e.node, name)
	if name != "href" && name != "src" {
		return v, nil
	}
	base, err := url.Parse(e.f.tabs[e.tab].url)
	if err != nil {
		return v, nil
	}
	ref, err := url.Parse(v)
	if err != nil {
		return v, nil
	}
	return base.ResolveReference(ref).String(), nil
}

// Node exposes the underlying node of an element returned by the fake.
func Node(el browser.Element) *html.Node {
	e, ok := el.(element)
	if !ok {
		return nil
	}
	return e.node
}

func (f *Fake) check(e element) error {
	t, ok := f.tabs[e.tab]
	if !ok || e.tab != f.active {
		return fmt.Errorf("%w: element belongs to inactive tab %s", browser.ErrStale, e.tab)
	}
	if t.gen != e.gen {
		return fmt.Errorf("%w: document was replaced", browser.ErrStale)
	}
	root := e.node
	for root.Parent != nil {
		root = root.Parent
	}
	if root != t.doc {
		return fmt.Errorf("%w: element was removed from the document", browser.ErrStale)
	}
	return nil
}

func (f *Fake) unwrap(el browser.Element) (element, error) {
	e, ok := el.(element)
	if !ok {
		return element{}, fmt.Errorf("%w: foreign element %T", browser.ErrStale, el)
	}
	return e, f.check(e)
}

func (f *Fake) Navigate(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.Goto(target)
}

func (f *Fake) CurrentURL(ctx context.Context) (string, error) {
	if _, ok := f.tabs[f.active]; !ok {
		return "", browser.ErrNoSuchTab
	}
	return f.URL(), nil
}

func (f *Fake) query(scope browser.Element, selector string, kind browser.Kind) ([]*html.Node, error) {
	t, ok := f.tabs[f.active]
	if !ok {
		return nil, browser.ErrNoSuchTab
	}
	root := t.doc
	if scope != nil {
		e, err := f.unwrap(scope)
		if err != nil {
			return nil, err
		}
		root = e.node
	}

	switch kind {
	case browser.XPath:
		return htmlquery.QueryAll(root, selector)
	default:
		return goquery.NewDocumentFromNode(root).Find(selector).Nodes, nil
	}
}

func (f *Fake) wrap(n *html.Node) element {
	return element{node: n, tab: f.active, gen: f.tabs[f.active].gen, f: f}
}

func (f *Fake) FindOne(ctx context.Context, scope browser.Element, selector string, kind browser.Kind) (browser.Element, error) {
	nodes, err := f.query(scope, selector, kind)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s %q", browser.ErrNotFound, kind, selector)
	}
	return f.wrap(nodes[0]), nil
}

func (f *Fake) FindAll(ctx context.Context, scope browser.Element, selector string, kind browser.Kind) ([]browser.Element, error) {
	nodes, err := f.query(scope, selector, kind)
	if err != nil {
		return nil, err
	}
	out := make([]browser.Element, len(nodes))
	for i, n := range nodes {
		out[i] = f.wrap(n)
	}
	return out, nil
}

func describe(n *html.Node) string {
	for _, key := range []string{"data-automation", "aria-label", "id", "data-fake-nav", "data-fake-open"} {
		if v, ok := htmlutil.Attr(n, key); ok {
			return fmt.Sprintf("%s[%s=%s]", n.Data, key, v)
		}
	}
	return n.Data
}

func (f *Fake) WaitClickable(ctx context.Context, el browser.Element) error {
	e, err := f.unwrap(el)
	if err != nil {
		return err
	}
	if node, _ := htmlutil.ClosestAttr(e.node, "data-fake-disabled"); node != nil {
		return fmt.Errorf("%w: %s", browser.ErrNotInteractable, describe(e.node))
	}
	return nil
}

func (f *Fake) Click(ctx context.Context, el browser.Element) error {
	e, err := f.unwrap(el)
	if err != nil {
		return err
	}
	if node, _ := htmlutil.ClosestAttr(e.node, "data-fake-disabled"); node != nil {
		return fmt.Errorf("%w: %s", browser.ErrNotInteractable, describe(e.node))
	}
	if node, _ := htmlutil.ClosestAttr(e.node, "data-fake-intercept"); node != nil {
		return fmt.Errorf("%w: %s", browser.ErrIntercepted, describe(e.node))
	}
	f.Clicks = append(f.Clicks, "native "+describe(e.node))
	return f.dispatch(e.node)
}

func (f *Fake) ForceClick(ctx context.Context, el browser.Element) error {
	e, err := f.unwrap(el)
	if err != nil {
		return err
	}
	f.Clicks = append(f.Clicks, "force "+describe(e.node))
	return f.dispatch(e.node)
}

func (f *Fake) dispatch(node *html.Node) error {
	if f.OnClick != nil {
		handled, err := f.OnClick(f, node)
		if handled || err != nil {
			return err
		}
	}

	if _, target := htmlutil.ClosestAttr(node, "data-fake-nav"); target != "" {
		return f.Goto(target)
	}
	if _, name := htmlutil.ClosestAttr(node, "data-fake-open"); name != "" {
		return f.OpenDialog(name)
	}
	if closer, _ := htmlutil.ClosestAttr(node, "data-fake-close"); closer != nil {
		for n := closer; n != nil; n = n.Parent {
			if role, _ := htmlutil.Attr(n, "role"); role == "dialog" {
				f.Remove(n)
				break
			}
		}
	}
	return nil
}

func (f *Fake) ScrollIntoView(ctx context.Context, el browser.Element) error {
	_, err := f.unwrap(el)
	return err
}

func (f *Fake) ScrollToTop(ctx context.Context) error {
	return nil
}

func setAttr(n *html.Node, key, value string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

func (f *Fake) Clear(ctx context.Context, el browser.Element) error {
	e, err := f.unwrap(el)
	if err != nil {
		return err
	}
	setAttr(e.node, "value", "")
	return nil
}

func (f *Fake) TypeText(ctx context.Context, el browser.Element, text string) error {
	e, err := f.unwrap(el)
	if err != nil {
		return err
	}
	current, _ := htmlutil.Attr(e.node, "value")
	setAttr(e.node, "value", current+text)
	if f.OnType != nil {
		return f.OnType(f, e.node, text)
	}
	return nil
}

func (f *Fake) PressEnter(ctx context.Context, el browser.Element) error {
	e, err := f.unwrap(el)
	if err != nil {
		return err
	}
	if f.OnEnter != nil {
		return f.OnEnter(f, e.node)
	}
	return nil
}

func (f *Fake) OpenTab(ctx context.Context, target string) (browser.TabID, error) {
	t := &tab{}
	if err := f.load(t, target); err != nil {
		return "", err
	}
	return f.newTab(t), nil
}

func (f *Fake) SwitchTo(ctx context.Context, id browser.TabID) error {
	if _, ok := f.tabs[id]; !ok {
		return fmt.Errorf("%w: %s", browser.ErrNoSuchTab, id)
	}
	f.active = id
	return nil
}

func (f *Fake) CloseTab(ctx context.Context, id browser.TabID) error {
	if _, ok := f.tabs[id]; !ok {
		return fmt.Errorf("%w: %s", browser.ErrNoSuchTab, id)
	}
	delete(f.tabs, id)
	if f.active == id {
		f.active = ""
	}
	return nil
}

func (f *Fake) ActiveTab() browser.TabID {
	return f.active
}

func (f *Fake) Close() error {
	f.closed = true
	return nil
}

// Value returns the current value attribute of node.
func Value(node *html.Node) string {
	v, _ := htmlutil.Attr(node, "value")
	return v
}
