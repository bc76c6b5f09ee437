package scraper

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"jobstreet-applied/internal/chrono"
	"jobstreet-applied/internal/config"
	"jobstreet-applied/internal/telemetry/telemetrytest"
	"jobstreet-applied/lib/browser"
	"jobstreet-applied/lib/browser/browsertest"

	"golang.org/x/net/html"
)

const (
	resultsURL = config.DefaultBaseURL
	loginURL   = "https://id.jobstreet.com/id/oauth/login"
	verifyURL  = "https://id.jobstreet.com/id/oauth/verify"
)

var testNow = time.Date(2024, time.May, 10, 9, 0, 0, 0, chrono.Jakarta())

func testTimings() config.Timings {
	return config.Timings{
		Short: 20 * time.Millisecond,
		Long:  40 * time.Millisecond,
		Poll:  2 * time.Millisecond,
	}
}

func newTestSession(b browser.Browser) *Session {
	return NewSession(b, SessionOptions{
		BaseURL: resultsURL,
		Timings: testTimings(),
		Clock:   chrono.FixedTime(testNow),
	})
}

func newTestActions(b browser.Browser) (Actions, *telemetrytest.Recorder) {
	rec := &telemetrytest.Recorder{}
	return NewActions(b, testTimings(), rec), rec
}

// stalling blocks the selected calls until their context is done, the way
// rod behaves for a covered element or a load event that never fires.
type stalling struct {
	*browsertest.Fake
	click    bool
	navigate bool
	openTab  bool
}

func (s stalling) Click(ctx context.Context, el browser.Element) error {
	if !s.click {
		return s.Fake.Click(ctx, el)
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s stalling) Navigate(ctx context.Context, url string) error {
	if !s.navigate {
		return s.Fake.Navigate(ctx, url)
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s stalling) OpenTab(ctx context.Context, url string) (browser.TabID, error) {
	if !s.openTab {
		return s.Fake.OpenTab(ctx, url)
	}
	<-ctx.Done()
	return "", ctx.Err()
}

func jobURL(id int) string {
	return fmt.Sprintf("https://id.jobstreet.com/id/job/%d", id)
}

// card renders one entry of the results list.
func card(index int) string {
	return fmt.Sprintf(`<article data-automation="job-item-%d">
<h4><span role="button" data-fake-open="job-%d">Job %d</span></h4>
</article>`, index, index, index)
}

// resultsPage renders a results page with the given cards, prev and next are
// the urls of the neighbouring pages or empty.
func resultsPage(prev, next string, indices ...int) string {
	var b strings.Builder
	b.WriteString("<html><body><main>")
	for _, i := range indices {
		b.WriteString(card(i))
	}
	b.WriteString("<nav>")
	if prev != "" {
		fmt.Fprintf(&b, `<a aria-label="Previous" href="%s" data-fake-nav="%s">prev</a>`, prev, prev)
	}
	if next != "" {
		fmt.Fprintf(&b, `<a aria-label="Next" href="%s" data-fake-nav="%s">next</a>`, next, next)
	}
	b.WriteString("</nav></main></body></html>")
	return b.String()
}

type panelParams struct {
	Title    string
	Salary   string
	JobID    int
	NoLink   bool
	Statuses [][2]string
	Expired  bool
	Resume   string
	Cover    string
	Count    int
}

// renderPanel renders the job detail dialog the way the site structures it.
// A status with an empty date renders without its second span.
func renderPanel(p panelParams) string {
	var b strings.Builder
	b.WriteString(`<div role="dialog"><button aria-label="Close" data-fake-close>x</button><section>`)
	fmt.Fprintf(&b, `<span>Lamaran untuk</span><h3>%s</h3><span>PT %s</span><span>Jakarta Selatan</span>`, p.Title, p.Title)
	if p.Salary != "" {
		fmt.Fprintf(&b, `<span>%s</span>`, p.Salary)
	}
	if !p.NoLink {
		fmt.Fprintf(&b, `<span><a href="%s?type=standard&amp;ref=applied">Lihat lowongan</a></span>`, jobURL(p.JobID))
	}
	b.WriteString(`</section><section><span>Status lamaran</span><div><div>`)
	for _, st := range p.Statuses {
		updated := ""
		if st[1] != "" {
			updated = fmt.Sprintf(`<span>%s<br>oleh perekrut</span>`, st[1])
		}
		fmt.Fprintf(&b, `<div><div><div>o</div><div><div><span>%s</span>%s</div></div></div></div>`, st[0], updated)
	}
	b.WriteString(`</div></div>`)
	if p.Expired {
		b.WriteString(`<div><span>Lowongan kerja ini telah kedaluwarsa</span></div>`)
	}
	b.WriteString(`</section><section>`)
	if p.Resume != "" {
		fmt.Fprintf(&b, `<span data-automation="job-item-resume">%s</span>`, p.Resume)
	}
	if p.Cover != "" {
		fmt.Fprintf(&b, `<span data-automation="job-item-cover-letter">%s</span>`, p.Cover)
	}
	if p.Count > 0 {
		fmt.Fprintf(&b, `<span>%d kandidat melamar untuk posisi ini</span>`, p.Count)
	}
	b.WriteString(`</section></div>`)
	return b.String()
}

func jobPage(classification, workType, posted string) string {
	return fmt.Sprintf(`<html><body>
<span data-automation="job-detail-classifications"><a href="/c">%s</a></span>
<span data-automation="job-detail-work-type"><a href="/w">%s</a></span>
<span>%s</span>
</body></html>`, classification, workType, posted)
}

// registerJob wires card index i to a dialog and a job page.
func registerJob(f *browsertest.Fake, i int) {
	f.Dialogs[fmt.Sprintf("job-%d", i)] = renderPanel(panelParams{
		Title:    fmt.Sprintf("Job %d", i),
		Salary:   "Rp 10.000.000 per month",
		JobID:    i,
		Statuses: [][2]string{{"Lamaran terkirim", "1 Mar 2024"}, {"Lamaran dilihat", "4 Mar 2024"}},
		Resume:   "cv.pdf",
		Count:    10 + i,
	})
	f.Pages[jobURL(i)] = jobPage("Teknologi Informasi", "Full time", "Posted 5 days ago")
}

type scriptedPrompter struct {
	codes []string
	calls int
}

func (p *scriptedPrompter) PromptCode(ctx context.Context) (string, error) {
	if p.calls >= len(p.codes) {
		return "", fmt.Errorf("no more codes")
	}
	code := p.codes[p.calls]
	p.calls++
	return code, nil
}

func setText(node *html.Node, text string) {
	for node.FirstChild != nil {
		node.RemoveChild(node.FirstChild)
	}
	node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

func background(t testing.TB) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}
