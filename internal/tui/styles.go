package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// renderStatusBar renders the server connection status bar.
func renderStatusBar(connected bool, windows int, theme string, width int) string {
	var status string
	if connected {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
		status = fmt.Sprintf("%s connected  windows:%d  theme:%s", dot, windows, theme)
	} else {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("●")
		status = dot + " server not running"
	}

	style := lipgloss.NewStyle().
		Width(width).
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1)
	return style.Render(status)
}

// renderHelpBar renders the bottom help/keybinding bar.
func renderHelpBar(width int, status string) string {
	help := "enter: focus  m: minimize  x: maximize  r: restore  c: close  a: arrange  HJKL: focus nearby  o: open  q: quit"
	if status != "" {
		help = status
	}
	style := lipgloss.NewStyle().
		Width(width).
		Foreground(lipgloss.Color("241")).
		Padding(0, 1)
	return style.Render(help)
}
