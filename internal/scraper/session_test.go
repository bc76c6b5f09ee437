package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"jobstreet-applied/internal/records"
	"jobstreet-applied/lib/browser/browsertest"

	"github.com/stretchr/testify/require"
)

func TestAppendAssignsContiguousIDs(t *testing.T) {
	s := newTestSession(browsertest.New(nil))
	require.Len(t, s.RunID, 8)

	for i := 0; i < 3; i++ {
		record := records.NewJobRecord()
		record.ID = 99
		appended := s.Append(record)
		require.Equal(t, i+1, appended.ID)
	}

	result := s.Result()
	require.Equal(t, 3, result.TotalJobs)
	for i, record := range result.Records {
		require.Equal(t, i+1, record.ID)
	}
	require.True(t, testNow.Equal(result.CompletedAt))
}

func TestWithTabRestoresPrimaryTab(t *testing.T) {
	ctx := background(t)
	f := browsertest.New(map[string]string{
		resultsURL: resultsPage("", "", 1),
		jobURL(1):  jobPage("IT", "Full time", "Posted 1 day ago"),
	})
	require.NoError(t, f.Navigate(ctx, resultsURL))
	s := newTestSession(f)
	primary := s.PrimaryTab()

	err := s.WithTab(ctx, jobURL(1), func(ctx context.Context) error {
		require.NotEqual(t, primary, s.ActiveTab())
		require.Equal(t, jobURL(1), f.URL())
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, primary, s.ActiveTab())
	require.Equal(t, 1, f.Tabs())

	failure := errors.New("selector broke")
	err = s.WithTab(ctx, jobURL(1), func(ctx context.Context) error {
		return failure
	})
	require.ErrorIs(t, err, failure)
	require.Equal(t, primary, s.ActiveTab())
	require.Equal(t, 1, f.Tabs())

	require.Panics(t, func() {
		s.WithTab(ctx, jobURL(1), func(ctx context.Context) error {
			panic("boom")
		})
	})
	require.Equal(t, primary, s.ActiveTab())
	require.Equal(t, 1, f.Tabs())

	err = s.WithTab(ctx, "https://id.jobstreet.com/id/job/missing", func(ctx context.Context) error {
		t.Fatal("must not run")
		return nil
	})
	require.Error(t, err)
	require.Equal(t, primary, s.ActiveTab())
	require.Equal(t, resultsURL, f.URL())
}

func TestSessionCloseReleasesBrowser(t *testing.T) {
	f := browsertest.New(map[string]string{resultsURL: resultsPage("", "", 1)})
	s := newTestSession(f)
	require.NoError(t, s.Close())
	require.True(t, f.Closed())
}

func TestWithTabBoundsStalledLoad(t *testing.T) {
	ctx := background(t)
	f := browsertest.New(map[string]string{resultsURL: resultsPage("", "", 1)})
	require.NoError(t, f.Navigate(ctx, resultsURL))
	s := newTestSession(stalling{Fake: f, openTab: true})
	primary := s.PrimaryTab()

	start := time.Now()
	err := s.WithTab(ctx, jobURL(1), func(ctx context.Context) error {
		t.Fatal("must not run")
		return nil
	})
	require.Less(t, time.Since(start), time.Second)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, primary, s.ActiveTab())
	require.Equal(t, 1, f.Tabs())
}
