package commands

import (
	"fmt"
	"os"
	"time"

	"jobstreet-applied/internal/records"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func renderJobs(result records.Result) {
	t := newTable()
	t.SetTitle("Applied jobs")
	t.AppendHeader(table.Row{"#", "Title", "Company", "Status", "Applied", "Applicants", "Expired"})
	for _, r := range result.Records {
		summary := records.Summarize(r.StatusHistory)
		t.AppendRow(table.Row{
			r.ID,
			text.Trim(r.Title, 40),
			text.Trim(r.Company, 30),
			summary.CurrentStatus,
			summary.AppliedAt,
			r.ApplicantCount.String(),
			r.IsExpired,
		})
	}
	t.Render()
}

func renderSummary(result records.Result, files []string) {
	t := newTable()
	t.SetTitle("Scrape summary")
	t.AppendRow(table.Row{"Total jobs", result.TotalJobs})
	t.AppendRow(table.Row{"Elapsed", fmt.Sprintf("%.2fs", result.ElapsedSeconds())})
	t.AppendRow(table.Row{"Completed at", result.CompletedAt.Format(time.DateTime)})
	for _, f := range files {
		t.AppendRow(table.Row{"Exported", f})
	}
	t.Render()
}

func renderError(err error, result records.Result, files []string) {
	t := newTable()
	t.SetTitle("Scrape failed")
	t.Style().Title.Colors = text.Colors{text.FgRed, text.Bold}
	t.AppendRow(table.Row{"Error", err.Error()})
	t.AppendRow(table.Row{"Jobs collected", result.TotalJobs})
	for _, f := range files {
		t.AppendRow(table.Row{"Exported", f})
	}
	t.Render()
}
