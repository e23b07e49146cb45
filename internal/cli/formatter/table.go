package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const colGap = 2

// RenderTable renders an aligned table with a header separator line.
// Columns are padded to their widest visible cell, so styled cells line up.
// Columns listed in rightAlign are padded on the left.
func RenderTable(headers []string, rows [][]string, rightAlign ...int) string {
	if len(headers) == 0 {
		return ""
	}
	cols := len(headers)
	right := make(map[int]bool, len(rightAlign))
	for _, c := range rightAlign {
		right[c] = true
	}

	widths := make([]int, cols)
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < cols && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	var b strings.Builder
	writeRow := func(cells []string, style func(string) string) {
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := max(widths[i]-lipgloss.Width(cell), 0)
			if style != nil {
				cell = style(cell)
			}
			switch {
			case right[i]:
				b.WriteString(strings.Repeat(" ", pad) + cell)
			case i < cols-1:
				b.WriteString(cell + strings.Repeat(" ", pad))
			default:
				b.WriteString(cell)
			}
			if i < cols-1 {
				b.WriteString(strings.Repeat(" ", colGap))
			}
		}
		b.WriteString("\n")
	}

	writeRow(headers, func(s string) string { return StyleHeader.Render(s) })
	seps := make([]string, cols)
	for i, w := range widths {
		seps[i] = StyleDim.Render(strings.Repeat("─", w))
	}
	writeRow(seps, nil)
	for _, row := range rows {
		writeRow(row, nil)
	}
	return b.String()
}
