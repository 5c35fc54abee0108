package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table creates a formatted table for output. Cells are plain text; use
// StyleColumn to color a column after layout.
type Table struct {
	headers  []string
	rows     [][]string
	styles   map[int]func(string) string
	maxWidth int // Maximum total table width
}

// NewTable creates a new table
func NewTable(headers ...string) *Table {
	return &Table{
		headers:  headers,
		rows:     [][]string{},
		styles:   map[int]func(string) string{},
		maxWidth: 120, // Default max width
	}
}

// SetMaxWidth sets the maximum table width
func (t *Table) SetMaxWidth(width int) {
	t.maxWidth = width
}

// StyleColumn renders every body cell of column col through style.
func (t *Table) StyleColumn(col int, style func(string) string) {
	t.styles[col] = style
}

// AddRow adds a row to the table
func (t *Table) AddRow(values ...string) {
	row := make([]string, len(t.headers))
	copy(row, values)
	t.rows = append(t.rows, row)
}

// Len is the number of body rows.
func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) columnWidths() []int {
	widths := make([]int, len(t.headers))
	totalWidth := 0
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
		for _, row := range t.rows {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
		totalWidth += widths[i] + 3 // padding and separator
	}

	// Reduce largest columns first
	for excess := totalWidth + 1 - t.maxWidth; excess > 0; excess-- {
		maxIdx := 0
		for i := 1; i < len(widths); i++ {
			if widths[i] > widths[maxIdx] {
				maxIdx = i
			}
		}
		if widths[maxIdx] <= 10 {
			break
		}
		widths[maxIdx]--
	}
	return widths
}

// Render writes the table with box borders to w.
func (t *Table) Render(w io.Writer) {
	if len(t.headers) == 0 {
		return
	}
	widths := t.columnWidths()

	border := func(left, mid, right string) {
		parts := make([]string, len(widths))
		for i, cw := range widths {
			parts[i] = strings.Repeat("─", cw+2)
		}
		fmt.Fprintln(w, left+strings.Join(parts, mid)+right)
	}
	line := func(cells []string, styled bool) {
		var sb strings.Builder
		sb.WriteString("│")
		for i, cw := range widths {
			cell := pad(truncate(cells[i], cw), cw)
			if style, ok := t.styles[i]; ok && styled {
				cell = style(cell)
			}
			sb.WriteString(" " + cell + " │")
		}
		fmt.Fprintln(w, sb.String())
	}

	border("┌", "┬", "┐")
	line(t.headers, false)
	border("├", "┼", "┤")
	for _, row := range t.rows {
		line(row, true)
	}
	border("└", "┴", "┘")
}

// RenderCompact writes the table without borders to w.
func (t *Table) RenderCompact(w io.Writer) {
	if len(t.headers) == 0 {
		return
	}
	widths := t.columnWidths()

	line := func(cells []string, styled bool) {
		parts := make([]string, len(widths))
		for i, cw := range widths {
			cell := truncate(cells[i], cw)
			if i < len(widths)-1 {
				cell = pad(cell, cw)
			}
			if style, ok := t.styles[i]; ok && styled {
				cell = style(cell)
			}
			parts[i] = cell
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	line(t.headers, false)
	seps := make([]string, len(widths))
	for i, cw := range widths {
		seps[i] = strings.Repeat("─", cw)
	}
	fmt.Fprintln(w, strings.Join(seps, "  "))
	for _, row := range t.rows {
		line(row, true)
	}
}

func pad(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

// truncate shortens s to width display columns, ending in "...".
func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if width <= 3 {
		return string(runes[:min(width, len(runes))])
	}
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
