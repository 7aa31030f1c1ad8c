package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#AAAAAA"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// renderSummary lays out label/value pairs inside a bordered box.
func renderSummary(title string, pairs [][2]string) string {
	width := 0
	for _, p := range pairs {
		width = max(width, lipgloss.Width(p[0]))
	}
	lines := []string{titleStyle.Render(title)}
	for _, p := range pairs {
		label := labelStyle.Width(width + 2).Render(p[0])
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, label, p[1]))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// renderTable aligns rows under header with padded columns.
func renderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i := range header {
			if i < len(r) {
				widths[i] = max(widths[i], lipgloss.Width(r[i]))
			}
		}
	}
	line := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(header))
		for i := range header {
			v := ""
			if i < len(cells) {
				v = cells[i]
			}
			parts[i] = style.Width(widths[i] + 2).Render(v)
		}
		return strings.Join(parts, "")
	}
	out := []string{line(header, headerStyle)}
	for _, r := range rows {
		out = append(out, line(r, lipgloss.NewStyle()))
	}
	return strings.Join(out, "\n")
}

func renderError(format string, args ...any) string {
	return errorStyle.Render(fmt.Sprintf(format, args...))
}
