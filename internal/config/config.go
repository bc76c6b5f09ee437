// Package config holds the scraper's run configuration as read from
// config.json5 and overridden by command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"jobstreet-applied/lib/configuration"
	"jobstreet-applied/lib/configutil"
	"jobstreet-applied/lib/mailer"
)

const DefaultBaseURL = "https://id.jobstreet.com/id/my-activity/applied-jobs"

type Order string

const (
	Ascending  Order = "asc"
	Descending Order = "desc"
)

var Formats = []string{"json", "csv", "xlsx", "sqlite"}

// Waits are millisecond durations, zero values fall back to defaults.
type Waits struct {
	ShortMs       int `json:"short_ms"`
	LongMs        int `json:"long_ms"`
	ClickSettleMs int `json:"click_settle_ms"`
	CloseSettleMs int `json:"close_settle_ms"`
	KeystrokeMs   int `json:"keystroke_ms"`
	OTPSettleMs   int `json:"otp_settle_ms"`
	PageSettleMs  int `json:"page_settle_ms"`
	PollMs        int `json:"poll_ms"`
}

type Timings struct {
	Short       time.Duration
	Long        time.Duration
	ClickSettle time.Duration
	CloseSettle time.Duration
	Keystroke   time.Duration
	OTPSettle   time.Duration
	PageSettle  time.Duration
	Poll        time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		Short:       3 * time.Second,
		Long:        20 * time.Second,
		ClickSettle: 500 * time.Millisecond,
		CloseSettle: 500 * time.Millisecond,
		Keystroke:   300 * time.Millisecond,
		OTPSettle:   2 * time.Second,
		PageSettle:  2 * time.Second,
		Poll:        250 * time.Millisecond,
	}
}

func ms(value int, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return time.Duration(value) * time.Millisecond
}

func (w Waits) Timings() Timings {
	d := DefaultTimings()
	return Timings{
		Short:       ms(w.ShortMs, d.Short),
		Long:        ms(w.LongMs, d.Long),
		ClickSettle: ms(w.ClickSettleMs, d.ClickSettle),
		CloseSettle: ms(w.CloseSettleMs, d.CloseSettle),
		Keystroke:   ms(w.KeystrokeMs, d.Keystroke),
		OTPSettle:   ms(w.OTPSettleMs, d.OTPSettle),
		PageSettle:  ms(w.PageSettleMs, d.PageSettle),
		Poll:        ms(w.PollMs, d.Poll),
	}
}

type SMTP = mailer.Config

type Config struct {
	BaseURL    string `json:"base_url"`
	Email      string `json:"email"`
	Headless   bool   `json:"headless"`
	BrowserBin string `json:"browser_bin"`
	ProfileDir string `json:"profile_dir"`
	Sort       Order  `json:"sort"`
	MaxPages   int    `json:"max_pages"`

	Formats   []string               `json:"formats"`
	ExportDir string                 `json:"export_dir"`
	Database  configuration.Database `json:"database"`

	LogFile string `json:"log_file"`
	DumpDir string `json:"dump_dir"`

	Waits  Waits    `json:"waits"`
	SMTP   SMTP     `json:"smtp"`
	MailTo []string `json:"mail_to"`
}

func Default() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		Sort:      Ascending,
		Formats:   []string{"json"},
		ExportDir: "exports",
		Database:  configuration.Database{File: "exports/jobstreet.db"},
		LogFile:   "logs/jobstreet_scraper.log",
		SMTP:      SMTP{Port: 587},
	}
}

// Load reads path (and its .local override) over the defaults, a missing
// file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	err := configutil.ReadInto(path, &cfg)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	return cfg, nil
}

var emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)

// ValidEmail trims email and reports whether it looks like an address.
func ValidEmail(email string) (string, bool) {
	email = strings.TrimSpace(email)
	return email, emailPattern.MatchString(email)
}

// ExpandFormats resolves "all" and rejects unknown export formats.
func ExpandFormats(formats []string) ([]string, error) {
	var out []string
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "all" {
			return slices.Clone(Formats), nil
		}
		if !slices.Contains(Formats, f) {
			return nil, fmt.Errorf("unknown export format %q", f)
		}
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return []string{"json"}, nil
	}
	return out, nil
}

func (c Config) Validate() error {
	if c.Sort != Ascending && c.Sort != Descending {
		return fmt.Errorf("sort must be %q or %q, got %q", Ascending, Descending, c.Sort)
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max_pages must not be negative")
	}
	if !strings.HasPrefix(c.BaseURL, "http") {
		return fmt.Errorf("base_url %q is not an http url", c.BaseURL)
	}
	_, err := ExpandFormats(c.Formats)
	if err != nil {
		return err
	}
	if len(c.MailTo) > 0 && c.SMTP.Host == "" {
		return fmt.Errorf("mail_to is set but smtp.host is empty")
	}
	return nil
}
