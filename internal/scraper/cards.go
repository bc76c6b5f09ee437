package scraper

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"jobstreet-applied/internal/telemetry"
	"jobstreet-applied/lib/browser"
)

type CardLocator struct {
	actions Actions
	tel     telemetry.API
}

func NewCardLocator(actions Actions, tel telemetry.API) CardLocator {
	return CardLocator{actions: actions, tel: telemetry.NewScopedAPI("cards", tel)}
}

type indexedCard struct {
	el    browser.Element
	index int
}

// List returns the job cards of the current page ordered by the numeric
// suffix of their data-automation attribute. No cards within the long wait
// yields an empty list.
func (l CardLocator) List(ctx context.Context, s *Session) []browser.Element {
	found := l.actions.LocateAll(ctx, nil, jobItem, s.Timings.Long)
	if len(found) == 0 {
		l.tel.ReportWarning("empty", "page", s.Page)
		return nil
	}

	cards := make([]indexedCard, len(found))
	for i, el := range found {
		cards[i] = indexedCard{el: el, index: l.cardIndex(ctx, s, el)}
	}
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].index < cards[j].index
	})

	out := make([]browser.Element, len(cards))
	for i, c := range cards {
		out[i] = c.el
	}
	l.tel.ReportCount("found", int64(len(out)))
	return out
}

func (l CardLocator) cardIndex(ctx context.Context, s *Session, el browser.Element) int {
	attr, _, err := el.Attribute(ctx, "data-automation")
	if err != nil {
		l.tel.ReportWarning("index", "page", s.Page, "err", err)
		return 0
	}
	index, err := strconv.Atoi(strings.TrimPrefix(attr, jobItemPrefix))
	if err != nil {
		l.tel.ReportWarning("index", "page", s.Page, "attr", attr)
		return 0
	}
	return index
}
