package browser

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no element matches a selector.
	ErrNotFound = errors.New("element not found")
	// ErrNotInteractable is returned when an element exists but cannot receive a
	// native click (hidden, zero size, disabled pointer events).
	ErrNotInteractable = errors.New("element not interactable")
	// ErrIntercepted is returned when a native click would land on another element.
	ErrIntercepted = errors.New("click intercepted")
	// ErrStale is returned when an element handle no longer belongs to the
	// current document.
	ErrStale = errors.New("stale element")
	// ErrNoSuchTab is returned when switching to or closing an unknown tab.
	ErrNoSuchTab = errors.New("no such tab")
)

// Kind selects how a selector string is interpreted.
type Kind int

const (
	CSS Kind = iota
	XPath
)

func (k Kind) String() string {
	switch k {
	case CSS:
		return "css"
	case XPath:
		return "xpath"
	default:
		return "unknown"
	}
}

// TabID identifies one browsing context (tab) owned by a Browser.
type TabID string

// Element is a handle to a node in the active tab's document. Handles are only
// valid until the document they came from is replaced.
type Element interface {
	// Text returns the rendered text of the element, block elements separated
	// by newlines.
	Text(ctx context.Context) (string, error)
	// Attribute returns the raw attribute value, ok is false when the attribute
	// is absent.
	Attribute(ctx context.Context, name string) (value string, ok bool, err error)
	// Property returns a resolved DOM property (e.g. an absolute href).
	Property(ctx context.Context, name string) (string, error)
}

// Browser is the small surface of a real browser the scraper depends on.
//
// Lookups never wait: FindOne returns ErrNotFound immediately when nothing
// matches, callers implement their own bounded waits. A nil scope means the
// whole document of the active tab.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)

	FindOne(ctx context.Context, scope Element, selector string, kind Kind) (Element, error)
	FindAll(ctx context.Context, scope Element, selector string, kind Kind) ([]Element, error)

	// WaitClickable blocks until the element can receive a native click or ctx
	// is done.
	WaitClickable(ctx context.Context, el Element) error
	// Click performs a native (pointer) click.
	Click(ctx context.Context, el Element) error
	// ForceClick dispatches a programmatic click, bypassing visibility checks.
	ForceClick(ctx context.Context, el Element) error
	ScrollIntoView(ctx context.Context, el Element) error
	ScrollToTop(ctx context.Context) error

	Clear(ctx context.Context, el Element) error
	TypeText(ctx context.Context, el Element, text string) error
	PressEnter(ctx context.Context, el Element) error

	// OpenTab opens url in a new tab without activating it.
	OpenTab(ctx context.Context, url string) (TabID, error)
	SwitchTo(ctx context.Context, tab TabID) error
	CloseTab(ctx context.Context, tab TabID) error
	ActiveTab() TabID

	Close() error
}
