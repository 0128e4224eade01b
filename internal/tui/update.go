package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/cadence/internal/cli/actions"
	"github.com/julianstephens/cadence/internal/cli/tasks"
	"github.com/julianstephens/cadence/internal/tui/components/tasklist"
)

// chromeHeight is the space taken by the tabs, status line and help.
const chromeHeight = 6

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		h, v := docStyle.GetFrameSize()
		m.taskList.SetSize(msg.Width-h, msg.Height-v-chromeHeight)
		m.seriesModel.SetSize(msg.Width-h, msg.Height-v-chromeHeight)
		return m, nil
	}

	switch m.state {
	case StateNotDone, StatePostpone:
		return m, m.updateForm(msg)
	case StateConfirmDelete:
		m.updateConfirmDelete(msg)
		return m, nil
	}

	if handled, cmd := m.handleTaskMessages(msg); handled {
		return m, cmd
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.state = (m.state + 1) % SessionState(len(tabs))
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.state = (m.state - 1 + SessionState(len(tabs))) % SessionState(len(tabs))
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			m.message = ""
			m.reload()
			return m, nil
		case key.Matches(msg, m.keys.All) && m.state == StateTasks:
			m.showAll = !m.showAll
			m.reload()
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case StateTasks:
		m.taskList, cmd = m.taskList.Update(msg)
	case StateSeries:
		m.seriesModel, cmd = m.seriesModel.Update(msg)
	}
	return m, cmd
}

// handleTaskMessages handles messages from the task list component
func (m *Model) handleTaskMessages(msg tea.Msg) (bool, tea.Cmd) {
	switch msg := msg.(type) {
	case tasklist.CompleteTaskMsg:
		m.run(&actions.CompleteCmd{ID: msg.ID})
		return true, nil

	case tasklist.UndoTaskMsg:
		m.run(&actions.UndoCmd{ID: msg.ID})
		return true, nil

	case tasklist.RestoreTaskMsg:
		m.run(&tasks.TaskRestoreCmd{ID: msg.ID})
		return true, nil

	case tasklist.ToggleRoutineMsg:
		if msg.Task.IsRoutineActive {
			m.run(&tasks.TaskPauseCmd{ID: msg.Task.ID})
		} else {
			m.run(&tasks.TaskResumeCmd{ID: msg.Task.ID})
		}
		return true, nil

	case tasklist.DeleteTaskMsg:
		m.taskToDeleteID = msg.ID
		m.state = StateConfirmDelete
		return true, nil

	case tasklist.NotDoneTaskMsg:
		m.activeTask = msg.Task
		m.notDoneForm = &NotDoneFormModel{}
		m.form = newNotDoneForm(m.notDoneForm)
		m.state = StateNotDone
		return true, m.form.Init()

	case tasklist.PostponeTaskMsg:
		m.activeTask = msg.Task
		m.postponeForm = &PostponeFormModel{Date: "tomorrow"}
		m.form = newPostponeForm(m.postponeForm, m.ctx.Now())
		m.state = StatePostpone
		return true, m.form.Init()
	}
	return false, nil
}

// updateForm drives the open huh form and applies it once submitted.
func (m *Model) updateForm(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.closeForm()
		return nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		if m.state == StateNotDone {
			m.run(&actions.NotDoneCmd{ID: m.activeTask.ID, Reason: m.notDoneForm.Reason})
		} else {
			m.run(&actions.PostponeCmd{ID: m.activeTask.ID, To: m.postponeForm.Date, Reason: m.postponeForm.Reason})
		}
		m.closeForm()
	case huh.StateAborted:
		m.closeForm()
	}
	return cmd
}

func (m *Model) closeForm() {
	m.form = nil
	m.notDoneForm = nil
	m.postponeForm = nil
	m.state = StateTasks
}

func (m *Model) updateConfirmDelete(msg tea.Msg) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "y", "Y":
			m.run(&tasks.TaskDeleteCmd{ID: m.taskToDeleteID})
			m.taskToDeleteID = ""
			m.state = StateTasks
		case "n", "N", "esc":
			m.taskToDeleteID = ""
			m.state = StateTasks
		}
	}
}
