package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/reconctl/reconctl/internal/model"
)

// WriteSummaryTable renders a report's open ports as a styled terminal
// table, adapted from the teacher's output.WriteTable (grouping by
// host/port/technology) down to the single-target shape reconctl reports
// operate on.
func WriteSummaryTable(w io.Writer, report model.Report, noColor bool) {
	ports := report.Fingerprint.AttackSurface.OpenPorts
	if len(ports) == 0 {
		fmt.Fprintln(w, "\nNo open ports discovered.")
		return
	}

	var rows [][]string
	for _, p := range ports {
		rows = append(rows, []string{p.Port, orNone(p.Service)})
	}

	fmt.Fprintln(w)
	if noColor {
		writeSimpleTable(w, []string{"Port", "Service"}, rows)
		return
	}

	t := table.New().
		Headers("Port", "Service").
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
			}
			return lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
		})

	for _, row := range rows {
		t.Row(row...)
	}
	fmt.Fprintln(w, t.Render())
}

func writeSimpleTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	for i, h := range headers {
		if i > 0 {
			fmt.Fprint(w, " | ")
		}
		fmt.Fprintf(w, "%-*s", widths[i], h)
	}
	fmt.Fprintln(w)

	for i, width := range widths {
		if i > 0 {
			fmt.Fprint(w, "-+-")
		}
		fmt.Fprint(w, strings.Repeat("-", width))
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, " | ")
			}
			fmt.Fprintf(w, "%-*s", widths[i], cell)
		}
		fmt.Fprintln(w)
	}
}
