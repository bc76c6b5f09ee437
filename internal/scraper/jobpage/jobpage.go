// Package jobpage reads the public job listing page over plain HTTP, used
// when the listing cannot be read from a browser tab.
package jobpage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"jobstreet-applied/lib/htmlutil"
	"jobstreet-applied/lib/telemetry"
	"jobstreet-applied/lib/textutil"
	"jobstreet-applied/lib/util/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html"
)

var tracer = telemetry.Tracer("jobstreet/internal/scraper/jobpage")

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// Info holds the raw listing fields, empty when the page does not have them.
type Info struct {
	Classification string
	WorkType       string
	Posted         string
}

func (i Info) Empty() bool {
	return i == Info{}
}

type Client struct {
	http *resty.Client
}

type ClientOptions struct {
	Timeout time.Duration
	// Dump receives every fetched page when set.
	Dump restyutil.Output
}

func NewClient(opts ClientOptions) *Client {
	client := resty.New()
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", userAgent)
	client.SetHeader("accept-language", "id-ID,id;q=0.9,en;q=0.8")

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	client.SetTimeout(timeout)

	telemetry.InstrumentResty(client, "jobstreet/internal/scraper/jobpage/http")
	restyutil.DumpResponses(client, opts.Dump)

	return &Client{http: client}
}

func (c *Client) Fetch(ctx context.Context, url string) (Info, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	res, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return Info{}, err
	}
	if res.StatusCode() != http.StatusOK {
		err := fmt.Errorf("fetch %s: unexpected status %d", url, res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected status")
		return Info{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return Info{}, err
	}
	return Parse(doc), nil
}

func firstText(doc *goquery.Document, selector string) string {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return ""
	}
	return textutil.Clean(textutil.Squash(htmlutil.InnerText(sel.Nodes[0])))
}

// Parse reads a listing document with the same selectors used in the
// browser.
func Parse(doc *goquery.Document) Info {
	info := Info{
		Classification: firstText(doc, "span[data-automation='job-detail-classifications'] a"),
		WorkType:       firstText(doc, "span[data-automation='job-detail-work-type'] a"),
	}
	doc.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		own := ownText(span)
		if !strings.Contains(own, "Posted") {
			return true
		}
		info.Posted = textutil.Squash(htmlutil.InnerText(span.Nodes[0]))
		return false
	})
	return info
}

// ownText is the text of the direct text children, which is what the
// xpath contains(text(), ...) test looks at.
func ownText(sel *goquery.Selection) string {
	var out strings.Builder
	for child := sel.Nodes[0].FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			out.WriteString(child.Data)
		}
	}
	return out.String()
}
