package jobstore

import (
	"context"
	"testing"
	"time"

	"jobstreet-applied/internal/chrono"
	"jobstreet-applied/internal/records"
	"jobstreet-applied/lib/jobstore/db"
	"jobstreet-applied/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func record(id int, title string) records.JobRecord {
	r := records.NewJobRecord()
	r.ID = id
	r.Title = title
	r.URL = "https://id.jobstreet.com/id/job/" + title
	r.RetrievedAt = time.Date(2024, time.May, 10, 9, 0, 0, 0, chrono.Jakarta())
	return r
}

func TestStore(t *testing.T) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "jobstore",
		DbSchema: db.Schema,
	})
	defer cleanup()
	store := NewStore(res.DB)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	_, err := store.Pull(ctx, "missing")
	require.ErrorIs(t, err, ErrUnknownRun)

	first := record(1, "backend")
	first.ApplicantCount = records.Applicants(42)
	first.IsExpired = true
	first.StatusHistory = []records.StatusEvent{
		{Status: "Lamaran terkirim", UpdatedAt: "1 Mar 2024"},
		{Status: "Lamaran dilihat", UpdatedAt: "4 Mar 2024"},
	}
	second := record(2, "frontend")

	completed := time.Date(2024, time.May, 10, 10, 0, 0, 0, chrono.Jakarta())
	pushed := records.Result{
		Records:     []records.JobRecord{first, second},
		TotalJobs:   2,
		CompletedAt: completed,
	}
	require.NoError(t, store.Push(ctx, PushRequest{RunID: "run-a", Result: pushed}))

	pulled, err := store.Pull(ctx, "run-a")
	require.NoError(t, err)
	if diff := cmp.Diff(pushed, pulled); diff != "" {
		t.Fatalf("pulled result differs (-want +got):\n%s", diff)
	}

	// pushing the same run again replaces it
	replacement := records.Result{Records: []records.JobRecord{second}, TotalJobs: 1, CompletedAt: completed}
	require.NoError(t, store.Push(ctx, PushRequest{RunID: "run-a", Result: replacement}))
	require.NoError(t, store.Push(ctx, PushRequest{
		RunID:  "run-b",
		Result: records.Result{CompletedAt: completed.Add(time.Hour)},
	}))

	pulled, err = store.Pull(ctx, "run-a")
	require.NoError(t, err)
	require.Len(t, pulled.Records, 1)
	require.Equal(t, "frontend", pulled.Records[0].Title)
	require.Equal(t, records.ApplicantCount{}, pulled.Records[0].ApplicantCount)

	runs, err := store.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "run-b", runs[0].ID)
	require.Equal(t, 0, runs[0].TotalJobs)
	require.Equal(t, "run-a", runs[1].ID)
	require.Equal(t, 1, runs[1].TotalJobs)
}
