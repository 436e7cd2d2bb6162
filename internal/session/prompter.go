package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

type line struct {
	text string
	err  error
}

// TerminalPrompter reads answers from a line-oriented reader such as stdin.
// A pending Prompt returns as soon as its context is cancelled.
type TerminalPrompter struct {
	in    *bufio.Reader
	out   io.Writer
	lines chan line
	once  sync.Once
}

// NewTerminalPrompter creates a prompter over in and out.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{
		in:    bufio.NewReader(in),
		out:   out,
		lines: make(chan line),
	}
}

func (p *TerminalPrompter) read() {
	defer close(p.lines)
	for {
		text, err := p.in.ReadString('\n')
		if text != "" {
			p.lines <- line{text: text}
		}
		if err != nil {
			if err != io.EOF {
				p.lines <- line{err: err}
			}
			return
		}
	}
}

// Prompt writes message and waits for one line of input.
func (p *TerminalPrompter) Prompt(ctx context.Context, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.once.Do(func() { go p.read() })

	if _, err := fmt.Fprint(p.out, message); err != nil {
		return "", err
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-p.lines:
		if !ok {
			return "", io.EOF
		}
		if l.err != nil {
			return "", l.err
		}
		return strings.TrimRight(l.text, "\r\n"), nil
	}
}
