package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"jobstreet-applied/internal/chrono"
	"jobstreet-applied/internal/records"
	"jobstreet-applied/lib/jobstore/db"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/jobstore")

var ErrUnknownRun = errors.New("unknown scrape run")

// Store keeps the records of every scrape run in a sqlite (or libsql)
// database, keyed by run id.
type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

type PushRequest struct {
	RunID  string
	Result records.Result
}

// Push replaces everything stored for the run with the given result.
func (s Store) Push(ctx context.Context, req PushRequest) error {
	ctx, span := tracer.Start(ctx, "Push")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", req.RunID),
		attribute.Int("total_jobs", len(req.Result.Records)),
	)

	err := s.push(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (s Store) push(ctx context.Context, req PushRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	err = txqry.DeleteRun(ctx, req.RunID)
	if err != nil {
		return err
	}
	err = txqry.CreateRun(ctx, db.ScrapeRun{
		ID:          req.RunID,
		CompletedAt: req.Result.CompletedAt.Unix(),
		TotalJobs:   int64(len(req.Result.Records)),
	})
	if err != nil {
		return err
	}

	for _, r := range req.Result.Records {
		count := sql.NullInt64{Int64: int64(r.ApplicantCount.N), Valid: r.ApplicantCount.Valid}
		err := txqry.CreateJob(ctx, db.Job{
			RunID:               req.RunID,
			ID:                  int64(r.ID),
			JobPlatform:         r.JobPlatform,
			Title:               r.Title,
			Company:             r.Company,
			Location:            r.Location,
			Salary:              r.Salary,
			Url:                 r.URL,
			Classification:      r.Classification,
			EmploymentType:      r.EmploymentType,
			PostedDate:          r.PostedDate,
			ResumeFilename:      r.ResumeFilename,
			CoverLetterFilename: r.CoverLetterFilename,
			ApplicantCount:      count,
			IsExpired:           r.IsExpired,
			RetrievedAt:         r.RetrievedAt.Unix(),
		})
		if err != nil {
			return fmt.Errorf("insert job %d: %w", r.ID, err)
		}

		for position, event := range r.StatusHistory {
			err := txqry.CreateStatusEvent(ctx, db.StatusEvent{
				RunID:     req.RunID,
				JobID:     int64(r.ID),
				Position:  int64(position),
				Status:    event.Status,
				UpdatedAt: event.UpdatedAt,
			})
			if err != nil {
				return fmt.Errorf("insert status of job %d: %w", r.ID, err)
			}
		}
	}

	err = tx.Commit()
	if err != nil {
		return err
	}
	slog.DebugContext(ctx, "stored scrape run", "run_id", req.RunID, "total_jobs", len(req.Result.Records))
	return nil
}

// Pull reads back the result stored for a run.
func (s Store) Pull(ctx context.Context, runID string) (records.Result, error) {
	ctx, span := tracer.Start(ctx, "Pull")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", runID))

	result, err := s.pull(ctx, runID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return records.Result{}, err
	}
	return result, nil
}

func (s Store) pull(ctx context.Context, runID string) (records.Result, error) {
	run, err := s.qry.GetRun(ctx, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return records.Result{}, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	if err != nil {
		return records.Result{}, err
	}

	jobs, err := s.qry.GetJobs(ctx, runID)
	if err != nil {
		return records.Result{}, err
	}
	events, err := s.qry.GetStatusEvents(ctx, runID)
	if err != nil {
		return records.Result{}, err
	}

	history := make(map[int64][]records.StatusEvent, len(jobs))
	for _, e := range events {
		history[e.JobID] = append(history[e.JobID], records.StatusEvent{
			Status:    e.Status,
			UpdatedAt: e.UpdatedAt,
		})
	}

	out := make([]records.JobRecord, len(jobs))
	for i, j := range jobs {
		count := records.ApplicantCount{}
		if j.ApplicantCount.Valid {
			count = records.Applicants(int(j.ApplicantCount.Int64))
		}
		statuses := history[j.ID]
		if statuses == nil {
			statuses = []records.StatusEvent{}
		}
		out[i] = records.JobRecord{
			ID:                  int(j.ID),
			JobPlatform:         j.JobPlatform,
			Title:               j.Title,
			Company:             j.Company,
			Location:            j.Location,
			Salary:              j.Salary,
			URL:                 j.Url,
			Classification:      j.Classification,
			EmploymentType:      j.EmploymentType,
			PostedDate:          j.PostedDate,
			ResumeFilename:      j.ResumeFilename,
			CoverLetterFilename: j.CoverLetterFilename,
			ApplicantCount:      count,
			IsExpired:           j.IsExpired,
			StatusHistory:       statuses,
			RetrievedAt:         time.Unix(j.RetrievedAt, 0).In(chrono.Jakarta()),
		}
	}

	return records.Result{
		Records:     out,
		TotalJobs:   len(out),
		CompletedAt: time.Unix(run.CompletedAt, 0).In(chrono.Jakarta()),
	}, nil
}

type Run struct {
	ID          string
	CompletedAt time.Time
	TotalJobs   int
}

// Runs lists the stored runs, most recent first.
func (s Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.qry.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	runs := make([]Run, len(rows))
	for i, r := range rows {
		runs[i] = Run{
			ID:          r.ID,
			CompletedAt: time.Unix(r.CompletedAt, 0).In(chrono.Jakarta()),
			TotalJobs:   int(r.TotalJobs),
		}
	}
	return runs, nil
}
