// Package tui is the interactive task board: today's tasks with their
// lifecycle actions, and the progress of every series.
package tui

import (
	"bytes"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/stats"
	"github.com/julianstephens/cadence/internal/tui/components/series"
	"github.com/julianstephens/cadence/internal/tui/components/tasklist"
)

type SessionState int

const (
	StateTasks SessionState = iota
	StateSeries
	StateNotDone
	StatePostpone
	StateConfirmDelete
)

var tabs = []string{"Tasks", "Series"}

type NotDoneFormModel struct {
	Reason string
}

type PostponeFormModel struct {
	Date   string
	Reason string
}

// runner is any CLI command; the board reuses them so a transition behaves
// the same from the shell and from here.
type runner interface {
	Run(ctx *cli.Context) error
}

type Model struct {
	ctx            *cli.Context
	state          SessionState
	keys           KeyMap
	help           help.Model
	taskList       tasklist.Model
	seriesModel    series.Model
	form           *huh.Form
	notDoneForm    *NotDoneFormModel
	postponeForm   *PostponeFormModel
	activeTask     models.Task
	taskToDeleteID string
	showAll        bool
	message        string
	failed         bool
	quitting       bool
	width          int
	height         int
}

func NewModel(ctx *cli.Context) Model {
	m := Model{
		ctx:         ctx,
		state:       StateTasks,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		taskList:    tasklist.New(nil, ctx.Now(), 0, 0),
		seriesModel: series.New(0, 0),
	}
	m.reload()
	return m
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	if m.state == StateTasks {
		tk := tasklist.DefaultKeyMap()
		keys = append(keys, tk.Complete, tk.NotDone, tk.Postpone, tk.Undo)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help, m.keys.Refresh}
	navigation := []key.Binding{m.keys.Up, m.keys.Down}

	var actions []key.Binding
	if m.state == StateTasks {
		tk := tasklist.DefaultKeyMap()
		actions = []key.Binding{tk.Complete, tk.NotDone, tk.Postpone, tk.Undo, tk.Delete, tk.Restore, m.keys.All}
	}
	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// reload refreshes both tabs from storage.
func (m *Model) reload() {
	now := m.ctx.Now()

	var tasks []models.Task
	var err error
	if m.showAll {
		tasks, err = m.ctx.Store.ListAllTasksIncludingDeleted()
	} else {
		tasks, err = m.ctx.Store.ListTasks()
	}
	if err != nil {
		m.setError(err)
		return
	}
	if !m.showAll {
		pending := tasks[:0]
		for _, t := range tasks {
			if t.Status == models.StatusPending {
				pending = append(pending, t)
			}
		}
		tasks = pending
	}
	m.taskList.SetTasks(tasks, now)

	reports, err := seriesReports(m.ctx, now)
	if err != nil {
		m.setError(err)
		return
	}
	m.seriesModel.SetReports(reports)
}

func seriesReports(ctx *cli.Context, now time.Time) ([]stats.GroupReport, error) {
	tasks, err := ctx.Store.ListTasks()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	analyzer := stats.NewAnalyzer(ctx.Store)
	var reports []stats.GroupReport
	for _, t := range tasks {
		id := t.GroupID()
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		r, err := analyzer.AnalyzeGroup(id, now)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].Title == reports[j].Title {
			return reports[i].GroupID < reports[j].GroupID
		}
		return reports[i].Title < reports[j].Title
	})
	return reports, nil
}

// run executes a command and shows its output as the status message.
func (m *Model) run(cmd runner) {
	var buf bytes.Buffer
	out := m.ctx.Out
	m.ctx.Out = &buf
	err := cmd.Run(m.ctx)
	m.ctx.Out = out

	if err != nil {
		logger.Warn("Board action failed", "error", err)
		m.setError(err)
	} else {
		m.message = strings.TrimSpace(buf.String())
		m.failed = false
	}
	m.reload()
}

func (m *Model) setError(err error) {
	m.message = err.Error()
	m.failed = true
}
