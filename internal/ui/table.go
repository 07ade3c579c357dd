package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
)

// Table writes a bordered table of rows under headers to the result stream.
// An empty row set prints only the empty note.
func (p *Printer) Table(headers []string, rows [][]string, empty string) {
	if len(rows) == 0 {
		if empty != "" {
			fmt.Fprintln(p.out, p.outSty.muted.Render(empty))
		}
		return
	}
	cell := p.outSty.muted.UnsetForeground().Padding(0, 1)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.outSty.muted).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.outSty.header
			}
			return cell
		})
	fmt.Fprintln(p.out, t.String())
}

// Count formats n with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// Size formats a byte count for display.
func Size(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}
