package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"jobstreet-applied/internal/chrono"
	"jobstreet-applied/internal/config"
	"jobstreet-applied/internal/records"
	"jobstreet-applied/lib/browser"

	random "github.com/mazen160/go-random"
)

// Session is the state of one scrape run. It is owned by the Orchestrator,
// other components receive it for the duration of a single call.
type Session struct {
	Browser browser.Browser
	Timings config.Timings
	Clock   chrono.TimeAPI
	BaseURL string
	RunID   string

	// Page is the 1-based number of the results page currently loaded.
	Page int

	primary browser.TabID
	records []records.JobRecord
	started time.Time
}

type SessionOptions struct {
	BaseURL string
	Timings config.Timings
	// Clock defaults to chrono.StandardTime.
	Clock chrono.TimeAPI
}

func NewSession(b browser.Browser, opts SessionOptions) *Session {
	clock := opts.Clock
	if clock == nil {
		clock = chrono.NewStandardTime()
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultBaseURL
	}
	runID, err := random.String(8)
	if err != nil {
		runID = fmt.Sprintf("%x", clock.Now().UnixNano())
	}

	return &Session{
		Browser: b,
		Timings: opts.Timings,
		Clock:   clock,
		BaseURL: baseURL,
		RunID:   runID,
		Page:    1,
		primary: b.ActiveTab(),
		started: clock.Now(),
	}
}

// PrimaryTab is the tab the results list lives in.
func (s *Session) PrimaryTab() browser.TabID {
	return s.primary
}

func (s *Session) ActiveTab() browser.TabID {
	return s.Browser.ActiveTab()
}

func (s *Session) Elapsed() time.Duration {
	return s.Clock.Now().Sub(s.started)
}

// Append assigns the next id to record and stores it.
func (s *Session) Append(record records.JobRecord) records.JobRecord {
	record.ID = len(s.records) + 1
	s.records = append(s.records, record)
	return record
}

// Records returns a copy of the records collected so far.
func (s *Session) Records() []records.JobRecord {
	out := make([]records.JobRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Result snapshots the session into what the export layer consumes.
func (s *Session) Result() records.Result {
	collected := s.Records()
	return records.Result{
		Records:      collected,
		TotalJobs:    len(collected),
		TotalElapsed: s.Elapsed(),
		CompletedAt:  s.Clock.Now(),
	}
}

// WithTab opens url in a secondary tab, runs fn with that tab active and
// closes it again. The primary tab is active again on every return path,
// including when fn panics. Loading the tab is bounded by the long wait.
func (s *Session) WithTab(ctx context.Context, url string, fn func(ctx context.Context) error) (err error) {
	loadCtx, cancel := context.WithTimeout(ctx, s.Timings.Long)
	tab, err := s.Browser.OpenTab(loadCtx, url)
	cancel()
	if err != nil {
		if tab != "" {
			closeErr := s.Browser.CloseTab(ctx, tab)
			if closeErr != nil {
				slog.WarnContext(ctx, "failed to close tab after load error", "tab", tab, "err", closeErr)
			}
		}
		return fmt.Errorf("open tab: %w", err)
	}

	defer func() {
		closeErr := s.Browser.CloseTab(ctx, tab)
		if closeErr != nil && !errors.Is(closeErr, browser.ErrNoSuchTab) {
			err = errors.Join(err, fmt.Errorf("close tab: %w", closeErr))
		}
		switchErr := s.Browser.SwitchTo(ctx, s.primary)
		if switchErr != nil {
			err = errors.Join(err, fmt.Errorf("restore primary tab: %w", switchErr))
		}
	}()

	err = s.Browser.SwitchTo(ctx, tab)
	if err != nil {
		return fmt.Errorf("switch to tab: %w", err)
	}
	return fn(ctx)
}

// Close releases the browser.
func (s *Session) Close() error {
	return s.Browser.Close()
}

// sleep pauses for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
