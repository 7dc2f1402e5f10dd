package overlay

import "github.com/charmbracelet/lipgloss"

var (
	colorConnected    = lipgloss.Color("42")
	colorDisconnected = lipgloss.Color("196")
	colorListening    = lipgloss.Color("196")
	colorDisabled     = lipgloss.Color("240")
	colorAccent       = lipgloss.Color("69")
)

type styles struct {
	bubble      lipgloss.Style
	window      lipgloss.Style
	title       lipgloss.Style
	userBubble  lipgloss.Style
	replyBubble lipgloss.Style
	notice      lipgloss.Style
	help        lipgloss.Style
}

func newStyles() styles {
	return styles{
		bubble: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1),
		window: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1),
		title:       lipgloss.NewStyle().Bold(true),
		userBubble:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("24")).Padding(0, 1),
		replyBubble: lipgloss.NewStyle().Foreground(lipgloss.Color("235")).Background(lipgloss.Color("153")).Padding(0, 1),
		notice:      lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("214")),
		help:        lipgloss.NewStyle().Foreground(colorDisabled),
	}
}
