package series

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/cadence/internal/stats"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	ruleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	overdueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

const barWidth = 30

type Model struct {
	viewport viewport.Model
	bar      progress.Model
	Reports  []stats.GroupReport
	width    int
	height   int
}

func New(width, height int) Model {
	return Model{
		viewport: viewport.New(width, height),
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.Reports) == 0 {
		return "No series yet. Start one with 'cadence task add --repeat'."
	}
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.Render()
}

func (m *Model) SetReports(reports []stats.GroupReport) {
	m.Reports = reports
	m.Render()
}

func (m *Model) Render() {
	var b strings.Builder
	for _, r := range m.Reports {
		b.WriteString(titleStyle.Render(r.Title))
		b.WriteString("  ")
		b.WriteString(ruleStyle.Render(r.Rule))
		b.WriteString("\n")

		if r.Progress != nil {
			line := m.bar.ViewAs(r.Progress.Ratio) + "  next " + r.TimeUntilNext
			if r.Progress.Overdue {
				line = overdueStyle.Render(line)
			}
			b.WriteString("  " + line + "\n")
		}
		fmt.Fprintf(&b, "  %d done, %d missed | streak %d | last %s | avg %s\n\n",
			r.Summary.Completed, r.Summary.NotDone, r.Summary.Streak, r.TimeSinceLast, r.AverageInterval)
	}
	m.viewport.SetContent(b.String())
}
