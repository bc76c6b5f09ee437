package scraper

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// TerminalPrompter reads codes line by line from its input after writing a prompt
// to Out. A single goroutine owns the input, so a line that arrives after a
// cancelled ReadLine is handed to the next call.
type TerminalPrompter struct {
	Out io.Writer

	in    io.Reader
	start sync.Once
	lines chan lineResult
}

func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{
		Out:   out,
		in:    in,
		lines: make(chan lineResult),
	}
}

type lineResult struct {
	line string
	err  error
}

func (p *TerminalPrompter) readLines() {
	defer close(p.lines)
	reader := bufio.NewReader(p.in)
	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		p.lines <- lineResult{line: strings.TrimSpace(line), err: err}
		if err != nil {
			return
		}
	}
}

// ReadLine prints prompt and waits for a line or for ctx to be done.
func (p *TerminalPrompter) ReadLine(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(p.Out, prompt)
	p.start.Do(func() {
		go p.readLines()
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r, ok := <-p.lines:
		if !ok {
			return "", io.EOF
		}
		return r.line, r.err
	}
}

func (p *TerminalPrompter) PromptCode(ctx context.Context) (string, error) {
	fmt.Fprintln(p.Out, "Please enter the OTP sent to your email")
	return p.ReadLine(ctx, "Enter the OTP: ")
}
