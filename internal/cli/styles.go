package cli

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#8BC34A")
	muted  = lipgloss.Color("#6B7280")

	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(accent).
			Padding(0, 2)

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(muted)

	dimStyle = lipgloss.NewStyle().Foreground(muted)
)

func banner(title string) string {
	return bannerStyle.Render(title)
}

func heading(title string) string {
	return "\n" + headingStyle.Render(title)
}
