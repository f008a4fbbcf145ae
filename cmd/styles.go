package cmd

import (
	"fmt"

	"charm.land/lipgloss/v2"
)

var (
	accent = lipgloss.Color("#14B8A6")
	dim    = lipgloss.Color("#94A3B8")
	bad    = lipgloss.Color("#F43F5E")

	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle   = lipgloss.NewStyle().Foreground(dim).Width(18)
	okStyle      = lipgloss.NewStyle().Foreground(accent)
	failStyle    = lipgloss.NewStyle().Foreground(bad)
	cardStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dim).
			Padding(0, 2)
)

// row renders "label  value" with the label column aligned.
func row(label string, value any) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), fmt.Sprint(value))
}
