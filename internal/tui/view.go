package tui

import (
	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateTasks:
		content = docStyle.Render(m.taskList.View())
	case StateSeries:
		content = docStyle.Render(m.seriesModel.View())
	case StateNotDone, StatePostpone:
		content = docStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			activeTabStyle.Render(m.activeTask.Title),
			"",
			m.form.View(),
		))
	case StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		content,
		m.viewMessage(),
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	var rendered []string
	for i, title := range tabs {
		if m.state == SessionState(i) {
			rendered = append(rendered, activeTabStyle.Render(title))
		} else {
			rendered = append(rendered, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) viewMessage() string {
	if m.message == "" {
		return ""
	}
	if m.failed {
		return dangerStyle.PaddingLeft(2).Render(m.message)
	}
	return messageStyle.Render(m.message)
}

func (m Model) viewConfirmDelete() string {
	return lipgloss.Place(m.width, m.height-chromeHeight,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render("Are you sure you want to delete this task?"),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
