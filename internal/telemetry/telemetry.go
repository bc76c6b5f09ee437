package telemetry

import (
	"fmt"
)

// API is an abstraction over logging/metrics for scraper components, it lets
// tests assert that a broken selector or a skipped field was reported.
//
// note: fault injection point
type API interface {
	// ReportBroken reports a component that has broken in a way that should be
	// addressed, usually a selector that no longer matches the page.
	ReportBroken(id string, params ...any)

	// ReportWarning reports a scenario that is recoverable but may be subject
	// to investigation, like a field falling back to its placeholder.
	ReportWarning(id string, params ...any)

	// ReportDebug reports per element progress.
	ReportDebug(id string, params ...any)

	// ReportCount reports the current count of a specific event at the
	// current time, these are points of data and should not be summed.
	ReportCount(id string, count int64)
}

// ScopedAPI attaches a namespace to every id reported through it, the same
// way a sub logger carries a prefix.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) id(id string) string {
	return fmt.Sprintf("%s:%s", s.namespace, id)
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.id(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.id(id), params...)
}

func (s ScopedAPI) ReportDebug(id string, params ...any) {
	s.inner.ReportDebug(s.id(id), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.id(id), count)
}
