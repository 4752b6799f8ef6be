package tui

import "github.com/charmbracelet/lipgloss"

var (
	rose  = lipgloss.Color("#c9184a")
	blush = lipgloss.Color("#ffccd5")
	wine  = lipgloss.Color("#590d22")

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(rose).
			Padding(1, 3)

	lineStyle  = lipgloss.NewStyle().Foreground(wine)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(rose)

	yesStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(rose)
	noStyle = lipgloss.NewStyle().
		Foreground(wine).
		Background(blush).
		Padding(0, 2)
	focusedStyle = lipgloss.NewStyle().Underline(true)

	noticeStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(wine).
			Padding(0, 1)
	heartStyle = lipgloss.NewStyle().Foreground(rose)
)
