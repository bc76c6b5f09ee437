// Package records holds the normalized output of a scrape run.
package records

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"jobstreet-applied/lib/textutil"
)

const Platform = "JobStreet"

// StatusEvent is one entry in a job's application status timeline.
type StatusEvent struct {
	Status    string `json:"status"`
	UpdatedAt string `json:"updated_at"`
}

// ApplicantCount is either a known number of applicants or "N/A".
type ApplicantCount struct {
	N     int
	Valid bool
}

func Applicants(n int) ApplicantCount {
	return ApplicantCount{N: n, Valid: true}
}

func (c ApplicantCount) String() string {
	if !c.Valid {
		return textutil.NotAvailable
	}
	return strconv.Itoa(c.N)
}

func (c ApplicantCount) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return json.Marshal(textutil.NotAvailable)
	}
	return json.Marshal(c.N)
}

func (c *ApplicantCount) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*c = Applicants(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("applicant_count: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		*c = ApplicantCount{}
		return nil
	}
	*c = Applicants(n)
	return nil
}

// JobRecord is one applied job entry.
type JobRecord struct {
	ID                  int            `json:"id"`
	JobPlatform         string         `json:"job_platform"`
	Title               string         `json:"title"`
	Company             string         `json:"company"`
	Location            string         `json:"location"`
	Salary              string         `json:"salary"`
	URL                 string         `json:"url"`
	Classification      string         `json:"classification"`
	EmploymentType      string         `json:"employment_type"`
	PostedDate          string         `json:"posted_date"`
	ResumeFilename      string         `json:"resume_filename"`
	CoverLetterFilename string         `json:"cover_letter_filename"`
	ApplicantCount      ApplicantCount `json:"applicant_count"`
	IsExpired           bool           `json:"is_expired"`
	StatusHistory       []StatusEvent  `json:"status_history"`
	RetrievedAt         time.Time      `json:"retrieved_at"`
}

// NewJobRecord returns a record with every text field set to "N/A".
func NewJobRecord() JobRecord {
	na := textutil.NotAvailable
	return JobRecord{
		JobPlatform:         Platform,
		Title:               na,
		Company:             na,
		Location:            na,
		Salary:              na,
		URL:                 na,
		Classification:      na,
		EmploymentType:      na,
		PostedDate:          na,
		ResumeFilename:      na,
		CoverLetterFilename: na,
		StatusHistory:       []StatusEvent{},
	}
}

// Summary holds the status fields derived at export time.
type Summary struct {
	CurrentStatus   string
	StatusUpdatedAt string
	AppliedAt       string
}

func Summarize(history []StatusEvent) Summary {
	if len(history) == 0 {
		na := textutil.NotAvailable
		return Summary{CurrentStatus: na, StatusUpdatedAt: na, AppliedAt: na}
	}
	last := history[len(history)-1]
	return Summary{
		CurrentStatus:   last.Status,
		StatusUpdatedAt: last.UpdatedAt,
		AppliedAt:       history[0].UpdatedAt,
	}
}

// Result is what a scrape run hands to the export layer.
type Result struct {
	Records      []JobRecord   `json:"records"`
	TotalJobs    int           `json:"total_jobs"`
	TotalElapsed time.Duration `json:"-"`
	CompletedAt  time.Time     `json:"completed_at"`
}

// ElapsedSeconds is TotalElapsed as reported to operators.
func (r Result) ElapsedSeconds() float64 {
	return r.TotalElapsed.Seconds()
}

// NormalizeSalary strips the " per month" suffix and cleans the text.
func NormalizeSalary(raw string) string {
	salary := textutil.Clean(raw)
	salary = strings.TrimSpace(perMonth.ReplaceAllString(salary, ""))
	return textutil.OrNA(salary)
}

// CanonicalURL drops the query string and fragment of a job link.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return textutil.NotAvailable
	}
	base, _, _ := strings.Cut(raw, "#")
	base, _, _ = strings.Cut(base, "?")
	return base
}

var (
	perMonth      = regexp.MustCompile(`(?i)\bper month\b`)
	relativeDays  = regexp.MustCompile(`(?i)(\d+)\s*(d|days?|hari)\b`)
	relativeToday = regexp.MustCompile(`(?i)(\d+)\s*(h|hours?|jam|m|mins?|minutes?|menit)\b`)
)

// NormalizePostedDate turns a relative "Posted ..." marker into an absolute
// date. Anything with "30+" maps to a fixed label and unparsable text is
// returned unchanged.
func NormalizePostedDate(raw string, now time.Time) string {
	text := strings.TrimSpace(textutil.Clean(raw))
	if text == "" {
		return textutil.NotAvailable
	}
	if strings.Contains(text, "30+") {
		return "30+ days ago"
	}
	if m := relativeDays.FindStringSubmatch(text); m != nil {
		days, _ := strconv.Atoi(m[1])
		return now.AddDate(0, 0, -days).Format(time.DateOnly)
	}
	if relativeToday.MatchString(text) {
		return now.Format(time.DateOnly)
	}
	return text
}
