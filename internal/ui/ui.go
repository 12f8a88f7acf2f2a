// Package ui provides color-aware terminal output for the CLI. A UI wraps a
// stdout and a stderr printer; color is applied only when the destination is
// a terminal (or forced with --color=always) and NO_COLOR is unset.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// colorAuto reports whether w is a real terminal.
func colorAuto(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}

// ANSI escape sequences used by the printers.
const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
)

// Options configures a UI.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer
	Color  string // auto|always|never
}

// UI holds the output printers for one command invocation.
type UI struct {
	out *Printer
	err *Printer
}

// New validates the color mode and builds a UI. Stdout and Stderr default to
// the process streams when nil.
func New(opts Options) (*UI, error) {
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	var color bool

	switch opts.Color {
	case "", "auto":
		color = colorAuto(stdout)
	case "always":
		color = true
	case "never":
		color = false
	default:
		return nil, fmt.Errorf("invalid --color %q (expected auto|always|never)", opts.Color)
	}

	if os.Getenv("NO_COLOR") != "" {
		color = false
	}

	return &UI{
		out: &Printer{w: stdout, color: color},
		err: &Printer{w: stderr, color: color && colorAuto(stderr)},
	}, nil
}

// Out returns the stdout printer.
func (u *UI) Out() *Printer { return u.out }

// Err returns the stderr printer.
func (u *UI) Err() *Printer { return u.err }

// Printer writes lines to one output stream.
type Printer struct {
	w     io.Writer
	color bool
}

// Printf writes a formatted line. A trailing newline is always appended.
func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format+"\n", args...)
}

// Print writes its arguments verbatim, with no trailing newline.
func (p *Printer) Print(args ...any) {
	_, _ = fmt.Fprint(p.w, args...)
}

// Println writes its arguments followed by a newline.
func (p *Printer) Println(args ...any) {
	_, _ = fmt.Fprintln(p.w, args...)
}

// Error writes a highlighted error line.
func (p *Printer) Error(msg string) {
	if p.color {
		_, _ = fmt.Fprintln(p.w, ansiRed+"error: "+msg+ansiReset)

		return
	}

	_, _ = fmt.Fprintln(p.w, "error: "+msg)
}

type ctxKey struct{}

// WithUI attaches a UI to the context.
func WithUI(ctx context.Context, u *UI) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext retrieves the UI attached by WithUI, or nil.
func FromContext(ctx context.Context) *UI {
	if u, ok := ctx.Value(ctxKey{}).(*UI); ok {
		return u
	}

	return nil
}
