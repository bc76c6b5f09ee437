package export

import (
	"slices"
	"strconv"
	"time"

	"jobstreet-applied/internal/records"
)

// flatten turns a record into a single row, the status history is replaced
// by its current status and the applied date.
func flatten(r records.JobRecord) map[string]string {
	summary := records.Summarize(r.StatusHistory)
	return map[string]string{
		"id":                    strconv.Itoa(r.ID),
		"job_platform":          r.JobPlatform,
		"title":                 r.Title,
		"company":               r.Company,
		"location":              r.Location,
		"salary":                r.Salary,
		"url":                   r.URL,
		"classification":        r.Classification,
		"employment_type":       r.EmploymentType,
		"posted_date":           r.PostedDate,
		"resume_filename":       r.ResumeFilename,
		"cover_letter_filename": r.CoverLetterFilename,
		"applicant_count":       r.ApplicantCount.String(),
		"is_expired":            strconv.FormatBool(r.IsExpired),
		"retrieved_at":          r.RetrievedAt.Format(time.RFC3339),
		"current_status":        summary.CurrentStatus,
		"status_updated_at":     summary.StatusUpdatedAt,
		"applied_at":            summary.AppliedAt,
	}
}

// table returns the sorted header and one row per record.
func table(rs []records.JobRecord) ([]string, [][]string) {
	flat := make([]map[string]string, len(rs))
	var header []string
	for i, r := range rs {
		flat[i] = flatten(r)
		if i == 0 {
			for column := range flat[i] {
				header = append(header, column)
			}
			slices.Sort(header)
		}
	}

	rows := make([][]string, len(flat))
	for i, row := range flat {
		rows[i] = make([]string, len(header))
		for j, column := range header {
			rows[i][j] = row[column]
		}
	}
	return header, rows
}
