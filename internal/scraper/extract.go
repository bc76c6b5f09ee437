package scraper

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"jobstreet-applied/internal/records"
	"jobstreet-applied/internal/telemetry"
	"jobstreet-applied/lib/browser"
	"jobstreet-applied/lib/textutil"
)

// Strategy is one named way of reading a field, ok is false when the
// strategy could not find the field.
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) (value T, ok bool)
}

// FirstOf returns the value of the first strategy that succeeds, or
// fallback when none does. Using anything but the first strategy is
// reported so broken selectors show up in the logs.
func FirstOf[T any](ctx context.Context, tel telemetry.API, field string, fallback T, strategies ...Strategy[T]) T {
	for i, strategy := range strategies {
		value, ok := strategy.Run(ctx)
		if ok {
			if i > 0 {
				tel.ReportWarning("fallback", "field", field, "strategy", strategy.Name)
			}
			return value
		}
		tel.ReportDebug("miss", "field", field, "strategy", strategy.Name)
	}
	tel.ReportWarning("default", "field", field)
	return fallback
}

// panelLines lazily reads the rendered text of a panel, it is only needed
// once a positional strategy has failed.
type panelLines struct {
	panel browser.Element
	lines []string
	read  bool
}

func newPanelLines(panel browser.Element) *panelLines {
	return &panelLines{panel: panel}
}

func (p *panelLines) get(ctx context.Context) []string {
	if p.read {
		return p.lines
	}
	p.read = true
	text, err := p.panel.Text(ctx)
	if err != nil {
		return nil
	}
	p.lines = textutil.Lines(textutil.Clean(text))
	return p.lines
}

func findLine(lines []string, marker string) int {
	for i, line := range lines {
		if strings.Contains(line, marker) {
			return i
		}
	}
	return -1
}

func lineAt(lines []string, i int) (string, bool) {
	if i < 0 || i >= len(lines) {
		return "", false
	}
	return lines[i], true
}

func coreFromLines(lines []string) (CoreInfo, bool) {
	idx := findLine(lines, coreMarker)
	if idx < 0 {
		return CoreInfo{}, false
	}
	title, ok := lineAt(lines, idx+1)
	if !ok {
		return CoreInfo{}, false
	}
	info := naCore()
	info.Title = title
	if company, ok := lineAt(lines, idx+2); ok {
		info.Company = company
	}
	if location, ok := lineAt(lines, idx+3); ok {
		info.Location = location
	}
	if salary, ok := lineAt(lines, idx+4); ok && strings.Contains(salary, salaryTextMarker) {
		info.Salary = records.NormalizeSalary(salary)
	}
	return info, true
}

var monthNames = []string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni", "Juli",
	"Agustus", "September", "Oktober", "November", "Desember",
	"January", "February", "March", "May", "June", "July",
	"August", "October", "December",
	"Jan", "Feb", "Mar", "Apr", "Jun", "Jul", "Agu", "Aug", "Sep", "Okt", "Oct", "Nov", "Des", "Dec",
}

func hasMonth(line string) bool {
	for _, month := range monthNames {
		if strings.Contains(line, month) {
			return true
		}
	}
	return false
}

const expiredText = "Lowongan kerja ini telah kedaluwarsa"

func statusFromLines(lines []string) (StatusInfo, bool) {
	idx := findLine(lines, statusMarker)
	if idx < 0 {
		return StatusInfo{}, false
	}
	status, ok := lineAt(lines, idx+1)
	if !ok {
		return StatusInfo{}, false
	}
	event := records.StatusEvent{Status: status, UpdatedAt: textutil.NotAvailable}
	if date, ok := lineAt(lines, idx+2); ok && hasMonth(date) {
		event.UpdatedAt = date
	}
	return StatusInfo{
		History: []records.StatusEvent{event},
		Expired: findLine(lines[idx:], expiredText) >= 0,
	}, true
}

func documentsFromLines(lines []string) (Documents, bool) {
	idx := findLine(lines, documentsMarker)
	if idx < 0 {
		return Documents{}, false
	}
	for offset := 1; offset <= 3; offset++ {
		line, ok := lineAt(lines, idx+offset)
		if !ok {
			break
		}
		if !strings.HasSuffix(strings.ToLower(line), ".pdf") {
			continue
		}
		docs := Documents{Resume: line, CoverLetter: textutil.NotAvailable}
		next, ok := lineAt(lines, idx+offset+1)
		if ok && !strings.Contains(strings.ToLower(next), noCoverLetter) {
			docs.CoverLetter = next
		}
		return docs, true
	}
	return Documents{}, false
}

var (
	leadingNumber = regexp.MustCompile(`^(\d+)`)
	anyNumber     = regexp.MustCompile(`(\d+)`)
)

func applicantsFromLines(lines []string) (records.ApplicantCount, bool) {
	idx := findLine(lines, compareMarker)
	if idx < 0 {
		return records.ApplicantCount{}, false
	}
	line, ok := lineAt(lines, idx+1)
	if !ok {
		return records.ApplicantCount{}, false
	}
	return parseCount(anyNumber, line)
}

func parseCount(pattern *regexp.Regexp, text string) (records.ApplicantCount, bool) {
	m := pattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return records.ApplicantCount{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return records.ApplicantCount{}, false
	}
	return records.Applicants(n), true
}
