package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/dare/internal/lqr"
)

// Report renders a panel summarizing r. The Riccati solution is included
// when withS is set.
func Report(r *lqr.Result, withS bool) string {
	n, m := r.Discrete.Dims()

	rows := [][2]string{
		{"states × inputs", fmt.Sprintf("%d × %d", n, m)},
		{"dt", fmt.Sprintf("%g s", r.Problem.Dt)},
		{"iterations", fmt.Sprintf("%d", r.Iterations)},
		{"solve time", fmt.Sprintf("%d µs", r.SolveTime.Microseconds())},
		{"residual", fmt.Sprintf("%.3e", r.Residual)},
		{"spectral radius", fmt.Sprintf("%.6f", r.SpectralRadius)},
	}

	var b strings.Builder
	b.WriteString(Title.Render(r.Problem.Name))
	b.WriteString("  ")
	b.WriteString(Status(r.Stable(), "● stable", "● unstable"))
	b.WriteString("\n\n")
	for _, row := range rows {
		b.WriteString(MetricLabel.Render(fmt.Sprintf("%-16s", row[0])))
		b.WriteString(MetricValue.Render(row[1]))
		b.WriteByte('\n')
	}

	b.WriteString("\n")
	b.WriteString(MetricLabel.Render("K"))
	b.WriteByte('\n')
	b.WriteString(FormatMatrix(r.K, 5))

	if withS {
		b.WriteString("\n\n")
		b.WriteString(MetricLabel.Render("S"))
		b.WriteByte('\n')
		b.WriteString(FormatMatrix(r.S, 5))
	}

	return Panel.Render(b.String())
}

// Table renders aligned rows with a bold header.
func Table(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for j, h := range header {
		widths[j] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for j := 0; j < len(row) && j < len(widths); j++ {
			widths[j] = max(widths[j], lipgloss.Width(row[j]))
		}
	}

	pad := func(s string, w int) string {
		return s + strings.Repeat(" ", w-lipgloss.Width(s))
	}

	var b strings.Builder
	for j, h := range header {
		b.WriteString(Title.Render(pad(h, widths[j])))
		b.WriteString("  ")
	}
	for _, row := range rows {
		b.WriteByte('\n')
		for j := 0; j < len(row) && j < len(widths); j++ {
			b.WriteString(pad(row[j], widths[j]))
			b.WriteString("  ")
		}
	}
	return b.String()
}
