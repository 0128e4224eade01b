package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/cadence/internal/models"
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	DangerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)

// StatusLabel renders a task status in its color.
func StatusLabel(s models.Status) string {
	switch s {
	case models.StatusPending:
		return HeaderStyle.Render(string(s))
	case models.StatusCompleted:
		return SuccessStyle.Render(string(s))
	case models.StatusNotDone:
		return DangerStyle.Render(string(s))
	case models.StatusPostponed:
		return WarningStyle.Render(string(s))
	default:
		return string(s)
	}
}

// Points renders a signed point value.
func Points(n int) string {
	switch {
	case n > 0:
		return SuccessStyle.Render(sign(n))
	case n < 0:
		return DangerStyle.Render(sign(n))
	default:
		return MutedStyle.Render("0")
	}
}

func sign(n int) string {
	return fmt.Sprintf("%+d", n)
}
