package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type ScrapeRun struct {
	ID          string
	CompletedAt int64
	TotalJobs   int64
}

type Job struct {
	RunID               string
	ID                  int64
	JobPlatform         string
	Title               string
	Company             string
	Location            string
	Salary              string
	Url                 string
	Classification      string
	EmploymentType      string
	PostedDate          string
	ResumeFilename      string
	CoverLetterFilename string
	ApplicantCount      sql.NullInt64
	IsExpired           bool
	RetrievedAt         int64
}

type StatusEvent struct {
	RunID     string
	JobID     int64
	Position  int64
	Status    string
	UpdatedAt string
}

const deleteRun = `-- name: DeleteRun :exec
delete from scrape_run where id = ?1
`

const deleteRunJobs = `-- name: DeleteRunJobs :exec
delete from job where run_id = ?1
`

const deleteRunStatusEvents = `-- name: DeleteRunStatusEvents :exec
delete from status_event where run_id = ?1
`

// DeleteRun removes a run with its jobs and status events. Rows are removed
// explicitly since sqlite only cascades with the foreign_keys pragma on.
func (q *Queries) DeleteRun(ctx context.Context, id string) error {
	for _, stmt := range []string{deleteRunStatusEvents, deleteRunJobs, deleteRun} {
		_, err := q.db.ExecContext(ctx, stmt, id)
		if err != nil {
			return err
		}
	}
	return nil
}

const createRun = `-- name: CreateRun :exec
insert into scrape_run(id, completed_at, total_jobs) values (?1, ?2, ?3)
`

func (q *Queries) CreateRun(ctx context.Context, arg ScrapeRun) error {
	_, err := q.db.ExecContext(ctx, createRun, arg.ID, arg.CompletedAt, arg.TotalJobs)
	return err
}

const createJob = `-- name: CreateJob :exec
insert into job(
    run_id, id, job_platform, title, company, location, salary, url,
    classification, employment_type, posted_date, resume_filename,
    cover_letter_filename, applicant_count, is_expired, retrieved_at
) values (?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8, ?9, ?10, ?11, ?12, ?13, ?14, ?15, ?16)
`

func (q *Queries) CreateJob(ctx context.Context, arg Job) error {
	_, err := q.db.ExecContext(ctx, createJob,
		arg.RunID,
		arg.ID,
		arg.JobPlatform,
		arg.Title,
		arg.Company,
		arg.Location,
		arg.Salary,
		arg.Url,
		arg.Classification,
		arg.EmploymentType,
		arg.PostedDate,
		arg.ResumeFilename,
		arg.CoverLetterFilename,
		arg.ApplicantCount,
		arg.IsExpired,
		arg.RetrievedAt,
	)
	return err
}

const createStatusEvent = `-- name: CreateStatusEvent :exec
insert into status_event(run_id, job_id, position, status, updated_at) values (?1, ?2, ?3, ?4, ?5)
`

func (q *Queries) CreateStatusEvent(ctx context.Context, arg StatusEvent) error {
	_, err := q.db.ExecContext(ctx, createStatusEvent,
		arg.RunID,
		arg.JobID,
		arg.Position,
		arg.Status,
		arg.UpdatedAt,
	)
	return err
}

const getRun = `-- name: GetRun :one
select id, completed_at, total_jobs from scrape_run where id = ?1
`

func (q *Queries) GetRun(ctx context.Context, id string) (ScrapeRun, error) {
	row := q.db.QueryRowContext(ctx, getRun, id)
	var i ScrapeRun
	err := row.Scan(&i.ID, &i.CompletedAt, &i.TotalJobs)
	return i, err
}

const listRuns = `-- name: ListRuns :many
select id, completed_at, total_jobs from scrape_run
order by completed_at desc, id
`

func (q *Queries) ListRuns(ctx context.Context) ([]ScrapeRun, error) {
	rows, err := q.db.QueryContext(ctx, listRuns)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ScrapeRun
	for rows.Next() {
		var i ScrapeRun
		if err := rows.Scan(&i.ID, &i.CompletedAt, &i.TotalJobs); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getJobs = `-- name: GetJobs :many
select
    run_id, id, job_platform, title, company, location, salary, url,
    classification, employment_type, posted_date, resume_filename,
    cover_letter_filename, applicant_count, is_expired, retrieved_at
from job where run_id = ?1
order by id
`

func (q *Queries) GetJobs(ctx context.Context, runID string) ([]Job, error) {
	rows, err := q.db.QueryContext(ctx, getJobs, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Job
	for rows.Next() {
		var i Job
		if err := rows.Scan(
			&i.RunID,
			&i.ID,
			&i.JobPlatform,
			&i.Title,
			&i.Company,
			&i.Location,
			&i.Salary,
			&i.Url,
			&i.Classification,
			&i.EmploymentType,
			&i.PostedDate,
			&i.ResumeFilename,
			&i.CoverLetterFilename,
			&i.ApplicantCount,
			&i.IsExpired,
			&i.RetrievedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getStatusEvents = `-- name: GetStatusEvents :many
select run_id, job_id, position, status, updated_at from status_event
where run_id = ?1
order by job_id, position
`

func (q *Queries) GetStatusEvents(ctx context.Context, runID string) ([]StatusEvent, error) {
	rows, err := q.db.QueryContext(ctx, getStatusEvents, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StatusEvent
	for rows.Next() {
		var i StatusEvent
		if err := rows.Scan(&i.RunID, &i.JobID, &i.Position, &i.Status, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
