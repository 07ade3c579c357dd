// Package ui renders human-facing command output: file operation reports,
// notes, enumeration progress, and tables.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// ColorMode selects when output is colored.
type ColorMode string

// Color modes accepted by the color setting.
const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode validates a color setting value. An empty value means auto.
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	default:
		return "", fmt.Errorf("invalid color mode %q (want auto, always, or never)", s)
	}
}

// Semantic palette.
var (
	colorPrimary = lipgloss.Color("#00BFFF")
	colorSuccess = lipgloss.Color("#00E676")
	colorWarn    = lipgloss.Color("#FFD700")
	colorDanger  = lipgloss.Color("#FF5252")
	colorMuted   = lipgloss.Color("#8C8C8C")
)

type styles struct {
	title  lipgloss.Style
	muted  lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
	danger lipgloss.Style
	accent lipgloss.Style
	header lipgloss.Style
}

func newStyles(w io.Writer, mode ColorMode) styles {
	r := lipgloss.NewRenderer(w)
	if colorEnabled(w, mode) {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return styles{
		title:  r.NewStyle().Bold(true).Foreground(colorPrimary),
		muted:  r.NewStyle().Foreground(colorMuted),
		ok:     r.NewStyle().Foreground(colorSuccess),
		warn:   r.NewStyle().Bold(true).Foreground(colorWarn),
		danger: r.NewStyle().Bold(true).Foreground(colorDanger),
		accent: r.NewStyle().Foreground(colorPrimary),
		header: r.NewStyle().Bold(true).Foreground(colorPrimary).Padding(0, 1),
	}
}

func colorEnabled(w io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Printer writes results to Out and progress and notes to Err.
type Printer struct {
	out    io.Writer
	err    io.Writer
	outSty styles
	errSty styles
}

// New returns a Printer writing to stdout and stderr.
func New(mode ColorMode) *Printer {
	return NewWithWriters(os.Stdout, os.Stderr, mode)
}

// NewWithWriters returns a Printer writing results to out and notes to errw.
func NewWithWriters(out, errw io.Writer, mode ColorMode) *Printer {
	return &Printer{
		out:    out,
		err:    errw,
		outSty: newStyles(out, mode),
		errSty: newStyles(errw, mode),
	}
}

// Out returns the writer used for command results.
func (p *Printer) Out() io.Writer { return p.out }

// FileWrite reports a newly written file.
func (p *Printer) FileWrite(path string) {
	fmt.Fprintf(p.err, "%s %s\n", p.errSty.ok.Render("write:"), path)
}

// FileOverwrite reports a replaced file.
func (p *Printer) FileOverwrite(path string) {
	fmt.Fprintf(p.err, "%s %s\n", p.errSty.warn.Render("overwrite:"), path)
}

// FileSkip reports a file left untouched because it exists.
func (p *Printer) FileSkip(path string) {
	fmt.Fprintf(p.err, "%s %s\n", p.errSty.muted.Render("skipping:"), path)
}

// FileRemove reports a deleted file.
func (p *Printer) FileRemove(path string) {
	fmt.Fprintf(p.err, "%s %s\n", p.errSty.danger.Render("remove:"), path)
}

// Info prints a note to stderr.
func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.err, msg)
}

// Warn prints a warning to stderr.
func (p *Printer) Warn(msg string) {
	fmt.Fprintf(p.err, "%s %s\n", p.errSty.warn.Render("warning:"), msg)
}

// Error prints an error message to stderr.
func (p *Printer) Error(msg string) {
	fmt.Fprintf(p.err, "%s %s\n", p.errSty.danger.Render("error:"), msg)
}

// Result writes s to the result stream, adding a trailing newline if absent.
func (p *Printer) Result(s string) {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	fmt.Fprint(p.out, s)
}

// Heading writes a bold section title to the result stream.
func (p *Printer) Heading(title string) {
	fmt.Fprintln(p.out, p.outSty.title.Render(title))
}
