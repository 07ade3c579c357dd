package ui

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// The enumeration progress data types live here so the enum package can
// report through a Printer without ui importing enum.

// EnumStepData describes one finished enumeration step.
type EnumStepData struct {
	Index    int
	HasIndex bool
	Total    int
	New      int
	Excluded int
}

// EnumSummaryData describes a finished enumeration run.
type EnumSummaryData struct {
	ID      string
	Initial int
	Final   int
	DryRun  bool
	Elapsed time.Duration
}

// EnumStepLine formats the per-step report.
func EnumStepLine(d EnumStepData) string {
	line := fmt.Sprintf("%s configurations (%s new, %s excluded by filter)",
		humanize.Comma(int64(d.Total)), humanize.Comma(int64(d.New)), humanize.Comma(int64(d.Excluded)))
	if d.HasIndex {
		return fmt.Sprintf("step %d: %s", d.Index, line)
	}
	return line
}

// EnumBegin announces the start of a run.
func (p *Printer) EnumBegin(id, desc string, initial int) {
	label := id
	if desc != "" {
		label += ": " + desc
	}
	fmt.Fprintf(p.err, "%s %s %s\n", p.errSty.title.Render("-- Begin"), label,
		p.errSty.muted.Render("("+humanize.Comma(int64(initial))+" existing configurations)"))
}

// EnumStep reports a finished step.
func (p *Printer) EnumStep(d EnumStepData) {
	fmt.Fprintln(p.err, EnumStepLine(d))
}

// EnumCommitting announces an intermediate or final commit.
func (p *Printer) EnumCommitting(sinceLast int) {
	fmt.Fprintf(p.err, "%s %s\n", p.errSty.accent.Render("Committing..."),
		p.errSty.muted.Render("("+humanize.Comma(int64(sinceLast))+" since last commit)"))
}

// EnumSummary prints the end-of-run summary block.
func (p *Printer) EnumSummary(d EnumSummaryData) {
	fmt.Fprintln(p.err, p.errSty.title.Render("-- Summary --"))
	fmt.Fprintf(p.err, "  Initial number of configurations: %s\n", humanize.Comma(int64(d.Initial)))
	fmt.Fprintf(p.err, "  Final number of configurations: %s\n", humanize.Comma(int64(d.Final)))
	if d.Elapsed > 0 {
		fmt.Fprintf(p.err, "  Elapsed: %s\n", d.Elapsed.Round(time.Millisecond))
	}
	if d.DryRun {
		fmt.Fprintln(p.err, p.errSty.warn.Render("** Dry run: Not committing... **"))
	}
}

// WatchChange reports a file change seen by a watcher.
func (p *Printer) WatchChange(id, path string, at time.Time) {
	fmt.Fprintf(p.err, "%s %s %s %s\n", p.errSty.accent.Render("changed"), id, path,
		p.errSty.muted.Render(humanize.Time(at)))
}
