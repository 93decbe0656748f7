package printer

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

func init() {
	// Force color output even when not connected to TTY
	// Users can disable with NO_COLOR environment variable
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	// Color definitions
	green   = color.New(color.FgGreen)
	yellow  = color.New(color.FgYellow)
	red     = color.New(color.FgRed, color.Bold)
	cyan    = color.New(color.FgCyan)
	magenta = color.New(color.FgMagenta)
	faint   = color.New(color.Faint)
)

// Printer writes operator-facing output. Writes are serialized so the console
// reader and the REPL can share one Printer.
type Printer struct {
	mu  sync.Mutex
	out io.Writer
	err io.Writer
}

// New returns a Printer writing normal output to out and errors to errOut.
func New(out, errOut io.Writer) *Printer {
	return &Printer{out: out, err: errOut}
}

var std = New(os.Stdout, os.Stderr)

// Default returns the Printer behind the package-level functions.
func Default() *Printer {
	return std
}

// Success prints a success message in green with a checkmark prefix
func (p *Printer) Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	green.Fprint(p.out, msg)
}

// Info prints an informational message in the default color
func (p *Printer) Info(format string, a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, a...)
}

// Warning prints a warning message in yellow with a warning emoji prefix
func (p *Printer) Warning(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠️") {
		msg = "⚠️  " + msg
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	yellow.Fprint(p.out, msg)
}

// Step prints a step message with emphasis (used in multi-step operations)
func (p *Printer) Step(format string, a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cyan.Fprintf(p.out, "→ %s", fmt.Sprintf(format, a...))
}

// Tagged prints one console line with a colored "[TAG]" prefix. The tag color
// follows the tag: PING/PONG cyan, TIME SYNC magenta, ERROR red, MESSAGE green.
func (p *Printer) Tagged(tag, format string, a ...any) {
	c := green
	switch tag {
	case "PING", "PONG":
		c = cyan
	case "TIME SYNC":
		c = magenta
	case "ERROR":
		c = red
	case "WARN":
		c = yellow
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	c.Fprintf(p.out, "[%s]", tag)
	fmt.Fprintf(p.out, " %s\n", fmt.Sprintf(format, a...))
}

// Faint prints de-emphasized text, used for prompts and raw frames.
func (p *Printer) Faint(format string, a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	faint.Fprintf(p.out, format, a...)
}

// Error prints a formatted error with title, explanation, and suggestions to
// the error writer and returns a simple error for Cobra
func (p *Printer) Error(title string, explanation string, suggestions []string) error {
	return p.ErrorWithContext(title, explanation, nil, suggestions)
}

// ErrorWithContext is Error with key/value context lines.
func (p *Printer) ErrorWithContext(title string, explanation string, context map[string]string, suggestions []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	red.Fprintf(p.err, "%s\n\n", title)

	if explanation != "" {
		fmt.Fprintf(p.err, "%s\n", explanation)
	}

	if len(context) > 0 {
		fmt.Fprintf(p.err, "\n")
		for key, value := range context {
			fmt.Fprintf(p.err, "  %s: %s\n", key, value)
		}
	}

	if len(suggestions) > 0 {
		fmt.Fprintf(p.err, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(p.err, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(p.err, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(p.err, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	// Return simple error for Cobra (won't be printed due to SilenceErrors)
	return fmt.Errorf("%s", title)
}

// Println prints a plain message (for output that doesn't need coloring)
func (p *Printer) Println(a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, a...)
}

// Printf prints a plain formatted message (for output that doesn't need coloring)
func (p *Printer) Printf(format string, a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, a...)
}

// Package-level helpers write to stdout / stderr.

func Success(format string, a ...any) { std.Success(format, a...) }
func Info(format string, a ...any)    { std.Info(format, a...) }
func Warning(format string, a ...any) { std.Warning(format, a...) }
func Step(format string, a ...any)    { std.Step(format, a...) }
func Println(a ...any)                { std.Println(a...) }
func Printf(format string, a ...any)  { std.Printf(format, a...) }

// Error prints to stderr; see Printer.Error.
func Error(title string, explanation string, suggestions []string) error {
	return std.Error(title, explanation, suggestions)
}

// ErrorWithContext prints to stderr; see Printer.ErrorWithContext.
func ErrorWithContext(title string, explanation string, context map[string]string, suggestions []string) error {
	return std.ErrorWithContext(title, explanation, context, suggestions)
}
