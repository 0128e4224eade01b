package tasklist

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/utils"
)

type CompleteTaskMsg struct {
	ID string
}

type NotDoneTaskMsg struct {
	Task models.Task
}

type PostponeTaskMsg struct {
	Task models.Task
}

type UndoTaskMsg struct {
	ID string
}

type DeleteTaskMsg struct {
	ID string
}

type RestoreTaskMsg struct {
	ID string
}

// ToggleRoutineMsg pauses an active routine or resumes a paused one.
type ToggleRoutineMsg struct {
	Task models.Task
}

type Item struct {
	Task models.Task
	Now  time.Time
}

func (i Item) Title() string {
	title := i.Task.Title
	switch {
	case i.Task.DeletedAt != nil:
		return "👻 " + title + " (deleted)"
	case i.Task.Status == models.StatusPending && i.Now.After(i.Task.DueAt()):
		return title + " (overdue)"
	case i.Task.Status != models.StatusPending:
		return fmt.Sprintf("%s [%s]", title, i.Task.Status)
	}
	return title
}

func (i Item) Description() string {
	parts := []string{"due " + utils.FormatDate(i.Task.DueDate), fmt.Sprintf("P%d", i.Task.Priority)}
	if i.Task.DueTime != nil {
		parts[0] += " " + i.Task.DueTime.String()
	}
	if i.Task.RecurrenceRule != nil {
		parts = append(parts, fmt.Sprintf("%s #%d", i.Task.RecurrenceRule.Describe(), i.Task.OccurrenceIndex))
	}
	if i.Task.IsRoutine() && !i.Task.IsRoutineActive {
		parts = append(parts, "paused")
	}
	if i.Task.PostponeCount > 0 {
		parts = append(parts, fmt.Sprintf("postponed %dx", i.Task.PostponeCount))
	}
	if i.Task.DeletedAt != nil {
		parts = append(parts, "can restore with 'r'")
	}
	return strings.Join(parts, " | ")
}

func (i Item) FilterValue() string { return i.Task.Title }

type KeyMap struct {
	Complete key.Binding
	NotDone  key.Binding
	Postpone key.Binding
	Undo     key.Binding
	Delete   key.Binding
	Restore  key.Binding
	Routine  key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Complete: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "complete"),
		),
		NotDone: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "not done"),
		),
		Postpone: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "postpone"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "undo"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Restore: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restore"),
		),
		Routine: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "pause/resume routine"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(tasks []models.Task, now time.Time, width, height int) Model {
	l := list.New(items(tasks, now), list.NewDefaultDelegate(), width, height)
	l.Title = "Tasks"
	l.SetShowTitle(false)
	l.SetShowHelp(false) // We handle help globally in the main model

	keys := DefaultKeyMap()
	bindings := func() []key.Binding {
		return []key.Binding{keys.Complete, keys.NotDone, keys.Postpone, keys.Undo, keys.Delete, keys.Restore, keys.Routine}
	}
	l.AdditionalShortHelpKeys = bindings
	l.AdditionalFullHelpKeys = bindings

	return Model{list: l, keys: keys}
}

func items(tasks []models.Task, now time.Time) []list.Item {
	out := make([]list.Item, len(tasks))
	for i, t := range tasks {
		out[i] = Item{Task: t, Now: now}
	}
	return out
}

func (m *Model) SetTasks(tasks []models.Task, now time.Time) {
	m.list.SetItems(items(tasks, now))
}

// Selected returns the highlighted task.
func (m Model) Selected() (models.Task, bool) {
	i, ok := m.list.SelectedItem().(Item)
	return i.Task, ok
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		if t, ok := m.Selected(); ok {
			deleted := t.DeletedAt != nil
			switch {
			case key.Matches(msg, m.keys.Complete) && !deleted:
				return m, func() tea.Msg { return CompleteTaskMsg{ID: t.ID} }
			case key.Matches(msg, m.keys.NotDone) && !deleted:
				return m, func() tea.Msg { return NotDoneTaskMsg{Task: t} }
			case key.Matches(msg, m.keys.Postpone) && !deleted:
				return m, func() tea.Msg { return PostponeTaskMsg{Task: t} }
			case key.Matches(msg, m.keys.Undo) && !deleted:
				return m, func() tea.Msg { return UndoTaskMsg{ID: t.ID} }
			case key.Matches(msg, m.keys.Delete) && !deleted:
				return m, func() tea.Msg { return DeleteTaskMsg{ID: t.ID} }
			case key.Matches(msg, m.keys.Restore) && deleted:
				return m, func() tea.Msg { return RestoreTaskMsg{ID: t.ID} }
			case key.Matches(msg, m.keys.Routine) && !deleted && t.IsRoutine():
				return m, func() tea.Msg { return ToggleRoutineMsg{Task: t} }
			}
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  Nothing due.\n  Add tasks with 'cadence task add'."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
