package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"rootfind/internal/roots"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// Table renders the status line and, when there is one, the trace.
func Table(s roots.Summary) string {
	var b strings.Builder

	status := Status(s)
	if s.Outcome == roots.Converged {
		b.WriteString(okStyle.Render(status))
	} else {
		b.WriteString(failStyle.Render(status))
	}
	b.WriteByte('\n')

	if len(s.Rows) == 0 {
		return b.String()
	}

	rows := make([][]string, len(s.Rows))
	for i, r := range s.Rows {
		rows[i] = Cells(r)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(Headers(s.Method)...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	b.WriteString(t.String())
	b.WriteByte('\n')
	return b.String()
}
