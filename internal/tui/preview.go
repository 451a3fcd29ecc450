package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/deskgrid/internal/desktopdir"
	"github.com/1broseidon/deskgrid/internal/grid"
	"github.com/1broseidon/deskgrid/internal/iconview"
)

const cellWidth = 3

var (
	occupiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	emptyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	headerStyle   = lipgloss.NewStyle().Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// renderGrid draws the cells of s, marking occupied cells with the first
// letter of their item. Columns and rows that do not fit are cut off.
func renderGrid(s iconview.ScreenLayout, width, height int) string {
	if !s.Valid {
		return dimStyle.Render("screen is not connected")
	}

	occupant := make(map[grid.Cell]string, len(s.Items))
	for _, it := range s.Items {
		occupant[it.Cell] = desktopdir.DisplayName(it.URI)
	}

	cols := s.MaxColumn + 1
	rows := s.MaxRow + 1
	if width > 0 {
		cols = min(cols, width/cellWidth)
	}
	if height > 0 {
		rows = min(rows, height)
	}

	var sb strings.Builder
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			name, ok := occupant[grid.Cell{Column: col, Row: row}]
			if !ok {
				sb.WriteString(emptyStyle.Render(" · "))
				continue
			}
			sb.WriteString(occupiedStyle.Render(" " + initial(name) + " "))
		}
		if row < rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func initial(name string) string {
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "?"
	}
	r := []rune(name)[0]
	return strings.ToUpper(string(r))
}

// renderItems lists the items of s in layout order.
func renderItems(s iconview.ScreenLayout, limit int) string {
	if len(s.Items) == 0 {
		return dimStyle.Render("no icons")
	}
	var lines []string
	for i, it := range s.Items {
		if limit > 0 && i >= limit {
			lines = append(lines, dimStyle.Render(fmt.Sprintf("… %d more", len(s.Items)-limit)))
			break
		}
		lines = append(lines, fmt.Sprintf("%-8s %s", it.Cell.String(), desktopdir.DisplayName(it.URI)))
	}
	return strings.Join(lines, "\n")
}

func screenHeader(s iconview.ScreenLayout) string {
	title := s.Name
	if s.Primary {
		title += " (primary)"
	}
	g := s.Geometry
	return headerStyle.Render(title) + dimStyle.Render(fmt.Sprintf("  %dx%d+%d+%d  grid %dx%d",
		g.Width, g.Height, g.X, g.Y, s.MaxColumn+1, s.MaxRow+1))
}
