package stats

import (
	"fmt"
	"time"

	"github.com/julianstephens/cadence/internal/models"
)

// TaskSource is the read access the analyzer needs.
type TaskSource interface {
	ListTasks() ([]models.Task, error)
	ListTasksByGroup(groupID string) ([]models.Task, error)
}

// GroupReport is the display-ready state of one series.
type GroupReport struct {
	GroupID         string    `json:"group_id"`
	Title           string    `json:"title"`
	Rule            string    `json:"rule"`
	Summary         Summary   `json:"summary"`
	Progress        *Progress `json:"progress,omitempty"`
	AverageInterval string    `json:"average_interval"`
	TimeUntilNext   string    `json:"time_until_next"`
	TimeSinceLast   string    `json:"time_since_last"`
}

// Analyzer builds reports from a task source
type Analyzer struct {
	source TaskSource
}

func NewAnalyzer(source TaskSource) *Analyzer {
	return &Analyzer{source: source}
}

// AnalyzeGroup loads every instance of groupID and reports on the series.
func (a *Analyzer) AnalyzeGroup(groupID string, now time.Time) (GroupReport, error) {
	tasks, err := a.source.ListTasksByGroup(groupID)
	if err != nil {
		return GroupReport{}, fmt.Errorf("failed to load series %s: %w", groupID, err)
	}
	if len(tasks) == 0 {
		return GroupReport{}, fmt.Errorf("series %s has no tasks", groupID)
	}

	report := GroupReport{
		GroupID:         groupID,
		Summary:         Summarize(tasks, now),
		AverageInterval: FormatAverageInterval(tasks),
		TimeUntilNext:   Undefined,
		TimeSinceLast:   Undefined,
	}
	for _, t := range tasks {
		if t.Title != "" {
			report.Title = t.Title
		}
		if t.RecurrenceRule != nil {
			report.Rule = t.RecurrenceRule.Describe()
		}
	}

	if p, ok := SeriesProgress(tasks, now); ok {
		report.Progress = &p
		if p.Overdue || now.After(p.Due) {
			report.TimeUntilNext = "overdue by " + TimeSince(p.Due, now)
		} else {
			report.TimeUntilNext = TimeUntil(p.Due, now)
		}
	}
	if times := completionTimes(tasks); len(times) > 0 {
		report.TimeSinceLast = TimeSince(times[len(times)-1], now)
	}
	return report, nil
}

// AnalyzeAll summarizes the whole collection.
func (a *Analyzer) AnalyzeAll(now time.Time) (Summary, error) {
	tasks, err := a.source.ListTasks()
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list tasks: %w", err)
	}
	return Summarize(tasks, now), nil
}
