package textutil

import (
	"regexp"
	"strings"
)

const NotAvailable = "N/A"

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	invisibleRegex  = regexp.MustCompile(`[\x{2060}\x{200B}-\x{200F}\x{FEFF}]`)
	dashReplacer    = strings.NewReplacer("\u2013", "-", "\u2014", "-")
)

// Clean removes zero-width characters and word joiners and replaces en/em
// dashes with a plain hyphen. N/A and empty strings pass through.
func Clean(text string) string {
	if text == "" || text == NotAvailable {
		return text
	}
	text = invisibleRegex.ReplaceAllString(text, "")
	return dashReplacer.Replace(text)
}

// Squash trims text and collapses inner whitespace runs into single spaces.
func Squash(text string) string {
	text = strings.Trim(text, " \n\t\r")
	return whitespaceRegex.ReplaceAllString(text, " ")
}

// FirstLine returns the first non-empty line of text, trimmed.
func FirstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

// Lines splits text into trimmed, non-empty lines.
func Lines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// OrNA returns text, or N/A when text is blank.
func OrNA(text string) string {
	if strings.TrimSpace(text) == "" {
		return NotAvailable
	}
	return text
}
